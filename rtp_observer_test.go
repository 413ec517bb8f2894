package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRtpObserverPauseAndResume(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)

	observer, err := router.CreateActiveSpeakerObserver(context.Background())
	require.NoError(t, err)

	onPause := NewMockFunc(t)
	onResume := NewMockFunc(t)
	observer.OnPause(onPause.Fn())
	observer.OnResume(onResume.Fn())

	require.NoError(t, observer.Pause(context.Background()))
	assert.True(t, observer.Paused())
	require.NoError(t, observer.Pause(context.Background()))
	onPause.ExpectCalledTimes(1)

	require.NoError(t, observer.Resume(context.Background()))
	assert.False(t, observer.Paused())
	onResume.ExpectCalledTimes(1)

	req := fw.lastRequest("rtpObserver.resume")
	assert.Equal(t, observer.Id(), req.Internal.RtpObserverId)
	assert.Equal(t, router.Id(), req.Internal.RouterId)
}

func TestRtpObserverAddAndRemoveProducer(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router, false)
	producer := CreateAudioProducer(t, transport)

	observer, err := router.CreateActiveSpeakerObserver(context.Background())
	require.NoError(t, err)

	onAddProducer := NewMockFunc(t)
	onRemoveProducer := NewMockFunc(t)
	observer.OnAddProducer(mockFn[*Producer](onAddProducer))
	observer.OnRemoveProducer(mockFn[*Producer](onRemoveProducer))

	require.NoError(t, observer.AddProducer(context.Background(), producer.Id()))
	onAddProducer.ExpectCalledWith(producer)
	assert.Equal(t, []string{producer.Id()}, observer.ProducerIds())
	assert.Equal(t, producer.Id(), fw.lastRequest("rtpObserver.addProducer").data(t)["producerId"])

	require.NoError(t, observer.RemoveProducer(context.Background(), producer.Id()))
	onRemoveProducer.ExpectCalledWith(producer)
	assert.Empty(t, observer.ProducerIds())

	err = observer.AddProducer(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrProducerNotFound)
	assert.Len(t, fw.requests("rtpObserver.addProducer"), 1)
}

func TestRtpObserverForgetsClosedProducer(t *testing.T) {
	worker, _ := newTestWorker(t)
	router := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router, false)
	producer := CreateAudioProducer(t, transport)

	observer, err := router.CreateAudioLevelObserver(context.Background())
	require.NoError(t, err)
	require.NoError(t, observer.AddProducer(context.Background(), producer.Id()))

	producer.Close()

	assert.Empty(t, observer.ProducerIds())
	assert.False(t, observer.Closed())
}

func TestRtpObserverClose(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)

	observer, err := router.CreateAudioLevelObserver(context.Background(), func(o *AudioLevelObserverOptions) {
		o.AppData = H{"foo": "bar"}
	})
	require.NoError(t, err)
	assert.Equal(t, RtpObserverAudioLevel, observer.Type())
	assert.Equal(t, H{"foo": "bar"}, observer.AppData())
	assert.Len(t, router.RtpObservers(), 1)

	onClose := NewMockFunc(t)
	observer.OnClose(onClose.Fn())

	observer.Close()
	observer.Close()

	onClose.ExpectCalledTimes(1)
	assert.True(t, observer.Closed())
	assert.Empty(t, router.RtpObservers())

	req := fw.waitRequests("router.closeRtpObserver", 1)[0]
	assert.Equal(t, observer.Id(), req.data(t)["rtpObserverId"])
}
