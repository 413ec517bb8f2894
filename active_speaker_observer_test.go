package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateActiveSpeakerObserver(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)

	observer, err := router.CreateActiveSpeakerObserver(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RtpObserverActiveSpeaker, observer.Type())
	assert.Equal(t, H{}, observer.AppData())

	data := fw.lastRequest("router.createActiveSpeakerObserver").data(t)
	assert.Equal(t, observer.Id(), data["rtpObserverId"])
	assert.EqualValues(t, 300, data["interval"])

	_, err = router.CreateActiveSpeakerObserver(context.Background(), func(o *ActiveSpeakerObserverOptions) {
		o.Interval = 100
	})
	require.NoError(t, err)
	assert.EqualValues(t, 100, fw.lastRequest("router.createActiveSpeakerObserver").data(t)["interval"])
}

func TestActiveSpeakerObserverDominantSpeaker(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router, false)
	producer := CreateAudioProducer(t, transport)

	observer, err := router.CreateActiveSpeakerObserver(context.Background())
	require.NoError(t, err)
	require.NoError(t, observer.AddProducer(context.Background(), producer.Id()))

	onDominantSpeaker := NewMockFunc(t)
	observer.OnDominantSpeaker(mockFn[ActiveSpeakerObserverDominantSpeaker](onDominantSpeaker))

	fw.notify(observer.Id(), "dominantspeaker", H{"producerId": producer.Id()})
	onDominantSpeaker.ExpectCalledWith(ActiveSpeakerObserverDominantSpeaker{Producer: producer})

	// Unknown producers are ignored.
	fw.notify(observer.Id(), "dominantspeaker", H{"producerId": "gone"})
	onDominantSpeaker.ExpectCalledTimes(1)
}
