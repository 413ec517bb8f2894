package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestProducerTestingSuite(t *testing.T) {
	suite.Run(t, new(ProducerTestingSuite))
}

type ProducerTestingSuite struct {
	TestingSuite
	transport *WebRtcTransport
}

func (suite *ProducerTestingSuite) SetupTest() {
	suite.TestingSuite.SetupTest()
	suite.transport = CreateWebRtcTransport(suite.T(), suite.router, false)
}

func (suite *ProducerTestingSuite) TestProduce_Succeeds() {
	onNewProducer := suite.Fn()
	suite.transport.OnNewProducer(mockFn[*Producer](onNewProducer))

	audioProducer := CreateAudioProducer(suite.T(), suite.transport)

	onNewProducer.ExpectCalledWith(audioProducer)
	suite.Equal(MediaKindAudio, audioProducer.Kind())
	suite.Equal(ProducerSimple, audioProducer.Type())
	suite.False(audioProducer.Paused())
	suite.Empty(audioProducer.Score())
	suite.Equal(H{"foo": 1, "bar": "2"}, audioProducer.AppData())
	suite.Equal("audio-1", audioProducer.RtpParameters().Rtcp.Cname)

	videoProducer := CreateVideoProducer(suite.T(), suite.transport)
	suite.Equal(ProducerSimulcast, videoProducer.Type())

	data := suite.fake.lastRequest("transport.produce").data(suite.T())
	suite.Equal(videoProducer.Id(), data["producerId"])
	suite.Equal("video", data["kind"])
	suite.NotNil(data["rtpMapping"])

	suite.ElementsMatch([]*Producer{audioProducer, videoProducer}, suite.transport.Producers())
}

func (suite *ProducerTestingSuite) TestProduce_ConsumableParameters() {
	producer := CreateVideoProducer(suite.T(), suite.transport)

	consumable := producer.ConsumableRtpParameters()
	suite.Require().Len(consumable.Codecs, 2)
	suite.Equal("video/H264", consumable.Codecs[0].MimeType)
	suite.Equal("video/rtx", consumable.Codecs[1].MimeType)
	suite.EqualValues(consumable.Codecs[0].PayloadType, consumable.Codecs[1].Parameters.Apt)
	suite.Len(consumable.Encodings, 4)
	suite.Empty(consumable.Mid)

	// Consumable encodings get their own SSRCs.
	for i, encoding := range consumable.Encodings {
		suite.NotEqual(producer.RtpParameters().Encodings[i].Ssrc, encoding.Ssrc)
		suite.Nil(encoding.Rtx)
	}
}

func (suite *ProducerTestingSuite) TestDump() {
	producer := CreateAudioProducer(suite.T(), suite.transport)

	dump, err := producer.Dump(context.Background())
	suite.NoError(err)
	suite.Equal(producer.Id(), dump.Id)

	stats, err := producer.GetStats(context.Background())
	suite.NoError(err)
	suite.Empty(stats)
}

func (suite *ProducerTestingSuite) TestPauseAndResume() {
	producer := CreateAudioProducer(suite.T(), suite.transport)

	onPause := suite.Fn()
	onResume := suite.Fn()
	producer.OnPause(onPause.Fn())
	producer.OnResume(onResume.Fn())

	suite.NoError(producer.Pause(context.Background()))
	suite.True(producer.Paused())
	onPause.ExpectCalledTimes(1)

	// Pausing twice only notifies once.
	suite.NoError(producer.Pause(context.Background()))
	onPause.ExpectCalledTimes(1)

	suite.NoError(producer.Resume(context.Background()))
	suite.False(producer.Paused())
	onResume.ExpectCalledTimes(1)

	suite.Len(suite.fake.requests("producer.pause"), 2)
	suite.Equal(producer.Id(), suite.fake.lastRequest("producer.resume").Internal.ProducerId)
}

func (suite *ProducerTestingSuite) TestPause_Rejected() {
	producer := CreateAudioProducer(suite.T(), suite.transport)
	suite.fake.handle("producer.pause", func(req fakeRequest) (any, error) {
		return nil, NewTypeError("nope")
	})

	suite.Error(producer.Pause(context.Background()))
	suite.False(producer.Paused())
}

func (suite *ProducerTestingSuite) TestEnableTraceEvent() {
	producer := CreateVideoProducer(suite.T(), suite.transport)

	suite.NoError(producer.EnableTraceEvent(context.Background(), []ProducerTraceEventType{
		ProducerTraceEventRtp, ProducerTraceEventPli,
	}))
	suite.Equal([]any{"rtp", "pli"}, suite.fake.lastRequest("producer.enableTraceEvent").data(suite.T())["types"])

	suite.NoError(producer.EnableTraceEvent(context.Background(), nil))
	suite.Equal([]any{}, suite.fake.lastRequest("producer.enableTraceEvent").data(suite.T())["types"])
}

func (suite *ProducerTestingSuite) TestEvents() {
	producer := CreateVideoProducer(suite.T(), suite.transport)

	onScore := suite.Fn()
	onVideoOrientationChange := suite.Fn()
	onTrace := suite.Fn()
	producer.OnScore(mockFn[[]ProducerScore](onScore))
	producer.OnVideoOrientationChange(mockFn[ProducerVideoOrientation](onVideoOrientationChange))
	producer.OnTrace(mockFn[ProducerTraceEventData](onTrace))

	score := []ProducerScore{{EncodingIdx: 0, Ssrc: 11, Score: 10}}
	suite.fake.notify(producer.Id(), "score", score)
	onScore.ExpectCalledWith(score)
	suite.Equal(score, producer.Score())

	orientation := ProducerVideoOrientation{Camera: true, Rotation: 90}
	suite.fake.notify(producer.Id(), "videoorientationchange", orientation)
	onVideoOrientationChange.ExpectCalledWith(orientation)

	suite.fake.notify(producer.Id(), "trace", H{
		"type":      "pli",
		"timestamp": 1000,
		"direction": "out",
		"info":      H{"ssrc": 22222222},
	})
	onTrace.ExpectCalledWith(ProducerTraceEventData{
		Type:      ProducerTraceEventPli,
		Timestamp: 1000,
		Direction: "out",
		Info:      &PliTraceInfo{Ssrc: 22222222},
	})

	suite.fake.notify(producer.Id(), "trace", H{
		"type":      "sr",
		"timestamp": 2000,
		"direction": "in",
		"info":      H{"ssrc": 22222222, "ntpSec": 1, "packetCount": 5},
	})
	onTrace.ExpectCalledTimes(2)
	info := onTrace.LastArg().(ProducerTraceEventData).Info
	suite.Equal(&SrTraceInfo{Ssrc: 22222222, NtpSec: 1, PacketCount: 5}, info)
}

func (suite *ProducerTestingSuite) TestClose() {
	producer := CreateAudioProducer(suite.T(), suite.transport)
	consumer, err := suite.transport.Consume(context.Background(), ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	suite.NoError(err)

	onClose := suite.Fn()
	onProducerClose := suite.Fn()
	producer.OnClose(onClose.Fn())
	consumer.OnProducerClose(onProducerClose.Fn())

	producer.Close()
	producer.Close()

	onClose.ExpectCalledTimes(1)
	onProducerClose.ExpectCalledTimes(1)
	suite.True(producer.Closed())
	suite.True(consumer.Closed())
	suite.Empty(suite.transport.Producers())
	suite.Empty(suite.transport.Consumers())

	req := suite.fake.waitRequests("transport.closeProducer", 1)[0]
	suite.Equal(producer.Id(), req.data(suite.T())["producerId"])

	// The worker closes the consumers itself.
	suite.Empty(suite.fake.requests("transport.closeConsumer"))

	// The id is free again.
	_, err = suite.transport.Consume(context.Background(), ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	suite.ErrorIs(err, ErrProducerNotFound)
}

func (suite *ProducerTestingSuite) TestTransportClose() {
	producer := CreateAudioProducer(suite.T(), suite.transport)

	onTransportClose := suite.Fn()
	onClose := suite.Fn()
	producer.OnTransportClose(onTransportClose.Fn())
	producer.OnClose(onClose.Fn())

	suite.transport.Close()

	onTransportClose.ExpectCalledTimes(1)
	onClose.ExpectCalledTimes(1)
	suite.True(producer.Closed())

	// Late subscribers are called right away.
	late := suite.Fn()
	producer.OnTransportClose(late.Fn())
	late.ExpectCalledTimes(1)

	suite.Empty(suite.fake.requests("transport.closeProducer"))
}
