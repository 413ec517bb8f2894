package mediasoup

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRouterRtpCapabilities(t *testing.T) {
	worker, _ := newTestWorker(t)
	router := CreateRouter(t, worker)

	caps := router.RtpCapabilities()

	var mimeTypes []string
	for _, codec := range caps.Codecs {
		mimeTypes = append(mimeTypes, codec.MimeType)
	}
	assert.Equal(t, []string{"audio/opus", "video/VP8", "video/rtx", "video/H264", "video/rtx"}, mimeTypes)
	assert.NotEmpty(t, caps.HeaderExtensions)
	assert.Equal(t, H{}, router.AppData())
}

func TestRouterDump(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)

	dump, err := router.Dump(context.Background())
	require.NoError(t, err)
	assert.Equal(t, router.Id(), dump.Id)
	assert.Equal(t, router.Id(), fw.lastRequest("router.dump").Internal.RouterId)
}

func TestRouterClose(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router, false)
	observer, err := router.CreateAudioLevelObserver(context.Background())
	require.NoError(t, err)

	onClose := NewMockFunc(t)
	onTransportRouterClose := NewMockFunc(t)
	onObserverRouterClose := NewMockFunc(t)

	router.OnClose(onClose.Fn())
	transport.OnRouterClose(onTransportRouterClose.Fn())
	observer.OnRouterClose(onObserverRouterClose.Fn())

	router.Close()
	router.Close()

	onClose.ExpectCalledTimes(1)
	onTransportRouterClose.ExpectCalledTimes(1)
	onObserverRouterClose.ExpectCalledTimes(1)

	assert.True(t, transport.Closed())
	assert.True(t, observer.Closed())
	assert.Empty(t, router.Transports())
	assert.Empty(t, router.RtpObservers())
	assert.Empty(t, worker.Routers())

	reqs := fw.waitRequests("worker.closeRouter", 1)
	assert.Equal(t, router.Id(), reqs[0].data(t)["routerId"])
	assert.Empty(t, fw.requests("router.closeTransport"))
	assert.Empty(t, fw.requests("router.closeRtpObserver"))

	_, err = router.CreateDirectTransport(context.Background(), DirectTransportOptions{})
	assert.ErrorIs(t, err, ErrRouterClosed)
}

func TestRouterCloseCascade(t *testing.T) {
	for _, n := range []int{0, 1, 100} {
		t.Run(fmt.Sprintf("%d transports", n), func(t *testing.T) {
			worker, fw := newTestWorker(t)
			router := CreateRouter(t, worker)

			var closed, ancestorClosed atomic.Int32
			countClose := func() { closed.Add(1) }
			countAncestor := func() { ancestorClosed.Add(1) }

			for range n {
				transport := CreateDirectTransport(t, router)
				producer := CreateAudioProducer(t, transport)
				consumer, err := transport.Consume(context.Background(), ConsumerOptions{
					ProducerId:      producer.Id(),
					RtpCapabilities: consumerDeviceCapabilities(),
				})
				require.NoError(t, err)

				transport.OnClose(countClose)
				producer.OnClose(countClose)
				consumer.OnClose(countClose)

				transport.OnRouterClose(countAncestor)
				producer.OnTransportClose(countAncestor)
				// The consumer goes with whichever of its parents closes first.
				consumer.OnTransportClose(countAncestor)
				consumer.OnProducerClose(countAncestor)
			}

			router.Close()

			assert.EqualValues(t, 3*n, closed.Load(), "every entity closes exactly once")
			assert.EqualValues(t, 3*n, ancestorClosed.Load())
			assert.Empty(t, router.Transports())

			fw.waitRequests("worker.closeRouter", 1)
			assert.Empty(t, fw.requests("router.closeTransport"))
			assert.Empty(t, fw.requests("transport.closeProducer"))
			assert.Empty(t, fw.requests("transport.closeConsumer"))
		})
	}
}

func TestRouterConcurrentClose(t *testing.T) {
	worker, _ := newTestWorker(t)
	router := CreateRouter(t, worker)

	var transports []Transport
	for range 10 {
		transports = append(transports, CreateDirectTransport(t, router))
	}

	var closed atomic.Int32
	router.OnClose(func() { closed.Add(1) })
	for _, transport := range transports {
		transport.OnClose(func() { closed.Add(1) })
	}

	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			router.Close()
			return nil
		})
		for _, transport := range transports {
			g.Go(func() error {
				transport.Close()
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 11, closed.Load())
}

func TestRouterNewTransportEvent(t *testing.T) {
	worker, _ := newTestWorker(t)
	router := CreateRouter(t, worker)

	onNewTransport := NewMockFunc(t)
	router.OnNewTransport(mockFn[Transport](onNewTransport))

	transport := CreateDirectTransport(t, router)

	onNewTransport.ExpectCalledWith(transport)
	assert.Equal(t, []Transport{transport}, router.Transports())
}

func TestRouterCanConsume(t *testing.T) {
	worker, _ := newTestWorker(t)
	router := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router, false)
	audioProducer := CreateAudioProducer(t, transport)

	assert.True(t, router.CanConsume(audioProducer.Id(), *consumerDeviceCapabilities()))
	assert.False(t, router.CanConsume("unknown", *consumerDeviceCapabilities()))

	videoOnly := RtpCapabilities{
		Codecs: []*RtpCodecCapability{
			{
				Kind:                 MediaKindVideo,
				MimeType:             "video/VP8",
				PreferredPayloadType: Uint8(96),
				ClockRate:            90000,
			},
		},
	}
	assert.False(t, router.CanConsume(audioProducer.Id(), videoOnly))

	audioProducer.Close()
	assert.False(t, router.CanConsume(audioProducer.Id(), *consumerDeviceCapabilities()))
}

func TestRouterCreateAudioLevelObserverValidation(t *testing.T) {
	worker, fw := newTestWorker(t)
	router := CreateRouter(t, worker)

	_, err := router.CreateAudioLevelObserver(context.Background(), func(o *AudioLevelObserverOptions) {
		o.MaxEntries = 0
	})
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)

	_, err = router.CreateAudioLevelObserver(context.Background(), func(o *AudioLevelObserverOptions) {
		o.Threshold = 10
	})
	assert.ErrorAs(t, err, &typeErr)

	assert.Empty(t, fw.requests("router.createAudioLevelObserver"))
}

func TestRouterPipeToRouter(t *testing.T) {
	worker, fw := newTestWorker(t)
	router1 := CreateRouter(t, worker)
	router2 := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router1, false)
	audioProducer := CreateAudioProducer(t, transport)
	videoProducer := CreateVideoProducer(t, transport)

	require.NoError(t, videoProducer.Pause(context.Background()))

	result, err := router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId: audioProducer.Id(),
		Router:     router2,
	})
	require.NoError(t, err)

	pipeConsumer, pipeProducer := result.PipeConsumer, result.PipeProducer
	require.NotNil(t, pipeConsumer)
	require.NotNil(t, pipeProducer)

	assert.Equal(t, ConsumerPipe, pipeConsumer.Type())
	assert.Equal(t, audioProducer.Id(), pipeProducer.Id())
	assert.Equal(t, MediaKindAudio, pipeProducer.Kind())
	assert.Equal(t, audioProducer.AppData(), pipeProducer.AppData())
	assert.False(t, pipeProducer.Paused())
	assert.True(t, router2.CanConsume(audioProducer.Id(), *consumerDeviceCapabilities()))

	assert.Len(t, fw.requests("router.createPipeTransport"), 2)
	assert.Len(t, fw.requests("transport.connect"), 2)

	result, err = router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId: videoProducer.Id(),
		Router:     router2,
	})
	require.NoError(t, err)
	assert.True(t, result.PipeProducer.Paused(), "the pause state is carried over")
	assert.Len(t, fw.requests("router.createPipeTransport"), 2, "the transport pair is reused")

	// Closing the source producer tears down both sides of the pipe.
	onPipeProducerClose := NewMockFunc(t)
	pipeProducer.OnClose(onPipeProducerClose.Fn())

	audioProducer.Close()

	onPipeProducerClose.ExpectCalledTimes(1)
	assert.True(t, pipeConsumer.Closed())
	assert.False(t, router2.CanConsume(audioProducer.Id(), *consumerDeviceCapabilities()))
}

func TestRouterPipeDataProducerToRouter(t *testing.T) {
	worker, _ := newTestWorker(t)
	router1 := CreateRouter(t, worker)
	router2 := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router1, true)
	dataProducer := CreateDataProducer(t, transport)

	result, err := router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		DataProducerId: dataProducer.Id(),
		Router:         router2,
	})
	require.NoError(t, err)

	require.NotNil(t, result.PipeDataConsumer)
	require.NotNil(t, result.PipeDataProducer)
	assert.Equal(t, dataProducer.Id(), result.PipeDataProducer.Id())
	assert.Equal(t, "foo", result.PipeDataProducer.Label())
	assert.Equal(t, "bar", result.PipeDataProducer.Protocol())
	assert.Equal(t, DataProducerSctp, result.PipeDataProducer.Type())

	result.PipeDataConsumer.Close()
	assert.True(t, result.PipeDataProducer.Closed())
}

func TestRouterPipeToRouterErrors(t *testing.T) {
	worker, _ := newTestWorker(t)
	router1 := CreateRouter(t, worker)
	router2 := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router1, false)
	audioProducer := CreateAudioProducer(t, transport)

	var typeErr *TypeError

	_, err := router1.PipeToRouter(context.Background(), PipeToRouterOptions{Router: router2})
	assert.ErrorAs(t, err, &typeErr)

	_, err = router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId:     audioProducer.Id(),
		DataProducerId: "foo",
		Router:         router2,
	})
	assert.ErrorAs(t, err, &typeErr)

	_, err = router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId: audioProducer.Id(),
		Router:     router1,
	})
	assert.ErrorAs(t, err, &typeErr)

	_, err = router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId: "unknown",
		Router:     router2,
	})
	assert.ErrorIs(t, err, ErrProducerNotFound)
}

func TestRouterPipeToRouterTransportFailure(t *testing.T) {
	worker, fw := newTestWorker(t)
	router1 := CreateRouter(t, worker)
	router2 := CreateRouter(t, worker)
	transport := CreateWebRtcTransport(t, router1, false)
	audioProducer := CreateAudioProducer(t, transport)

	fw.handle("transport.connect", func(req fakeRequest) (any, error) {
		return nil, fmt.Errorf("connect failed")
	})

	_, err := router1.PipeToRouter(context.Background(), PipeToRouterOptions{
		ProducerId: audioProducer.Id(),
		Router:     router2,
	})
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)

	// Both transports of the failed pair are released.
	for _, tr := range append(router1.Transports(), router2.Transports()...) {
		assert.NotEqual(t, TransportPipe, tr.Type())
	}
}
