package mediasoup

import (
	"context"
	"testing"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/suite"
)

func TestDirectTransportTestingSuite(t *testing.T) {
	suite.Run(t, new(DirectTransportTestingSuite))
}

type DirectTransportTestingSuite struct {
	TestingSuite
	transport *DirectTransport
}

func (suite *DirectTransportTestingSuite) SetupTest() {
	suite.TestingSuite.SetupTest()

	var err error
	suite.transport, err = suite.router.CreateDirectTransport(context.Background(), DirectTransportOptions{
		MaxMessageSize: 1024,
	})
	suite.NoError(err)
}

func (suite *DirectTransportTestingSuite) TestCreateDirectTransport_Succeeds() {
	transport, err := suite.router.CreateDirectTransport(context.Background(), DirectTransportOptions{
		AppData: H{"foo": "bar"},
	})
	suite.NoError(err)

	suite.Equal(TransportDirect, transport.Type())
	suite.Equal(H{"foo": "bar"}, transport.AppData())
	suite.EqualValues(262144, transport.MaxMessageSize())
	suite.Nil(transport.SctpParameters())

	data := suite.fake.lastRequest("router.createDirectTransport").data(suite.T())
	suite.Equal(transport.Id(), data["transportId"])
	suite.Equal(true, data["direct"])
	suite.EqualValues(262144, data["maxMessageSize"])

	suite.EqualValues(1024, suite.transport.MaxMessageSize())
}

func (suite *DirectTransportTestingSuite) TestConnect_NoOp() {
	suite.NoError(suite.transport.Connect(context.Background(), TransportConnectOptions{}))
	suite.Empty(suite.fake.requests("transport.connect"))
}

func (suite *DirectTransportTestingSuite) TestBitrates_NotSupported() {
	var unsupported *UnsupportedError

	err := suite.transport.SetMaxIncomingBitrate(context.Background(), 1000)
	suite.ErrorAs(err, &unsupported)
	suite.ErrorIs(err, ErrNotSupported)

	suite.ErrorIs(suite.transport.SetMaxOutgoingBitrate(context.Background(), 1000), ErrNotSupported)
	suite.ErrorIs(suite.transport.SetMinOutgoingBitrate(context.Background(), 1000), ErrNotSupported)
	suite.Empty(suite.fake.requests("transport.setMaxIncomingBitrate"))
}

func (suite *DirectTransportTestingSuite) TestSendRtcp() {
	pli := &rtcp.PictureLossIndication{SenderSSRC: 1111, MediaSSRC: 2222}

	suite.NoError(suite.transport.SendRtcpPackets(pli))

	req := suite.fake.waitRequests("transport.sendRtcp", 1)[0]
	suite.Equal(suite.transport.Id(), req.Internal.TransportId)

	packets, err := rtcp.Unmarshal(req.Payload)
	suite.NoError(err)
	suite.Equal([]rtcp.Packet{pli}, packets)

	suite.transport.Close()
	suite.ErrorIs(suite.transport.SendRtcp(req.Payload), ErrTransportClosed)
}

func (suite *DirectTransportTestingSuite) TestOnRtcp() {
	onRtcp := suite.Fn()
	onRtcpPackets := suite.Fn()
	suite.transport.OnRtcp(mockFn[[]byte](onRtcp))
	suite.transport.OnRtcpPackets(mockFn[[]rtcp.Packet](onRtcpPackets))

	report := &rtcp.ReceiverReport{SSRC: 3333}
	data, err := report.Marshal()
	suite.NoError(err)

	suite.fake.notifyPayload(suite.transport.Id(), "rtcp", nil, data)

	onRtcp.ExpectCalledWith(data)
	packets := onRtcpPackets.LastArg().([]rtcp.Packet)
	suite.Require().Len(packets, 1)
	suite.Equal(uint32(3333), packets[0].(*rtcp.ReceiverReport).SSRC)

	// Garbage is dropped by the parsing handler only.
	onRtcpPackets.Reset()
	suite.fake.notifyPayload(suite.transport.Id(), "rtcp", nil, []byte{0xff})

	onRtcp.ExpectCalledWith([]byte{0xff})
	onRtcpPackets.ExpectNotCalled()
}

func (suite *DirectTransportTestingSuite) TestProducerSend() {
	producer := CreateAudioProducer(suite.T(), suite.transport)

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: 1,
			Timestamp:      960,
			SSRC:           11111111,
		},
		Payload: []byte{0x01, 0x02, 0x03},
	}
	suite.NoError(producer.SendRtpPacket(packet))

	req := suite.fake.waitRequests("producer.send", 1)[0]
	suite.Equal(producer.Id(), req.Internal.ProducerId)

	var received rtp.Packet
	suite.NoError(received.Unmarshal(req.Payload))
	suite.Equal(packet.Header.SSRC, received.SSRC)
	suite.Equal(packet.Payload, received.Payload)

	producer.Close()
	suite.ErrorIs(producer.Send(req.Payload), ErrProducerClosed)
}

func (suite *DirectTransportTestingSuite) TestProducerSend_NotSupported() {
	transport := CreateWebRtcTransport(suite.T(), suite.router, false)
	producer := CreateAudioProducer(suite.T(), transport)

	err := producer.Send([]byte{0x80})

	var unsupported *UnsupportedError
	suite.ErrorAs(err, &unsupported)
	suite.ErrorIs(err, ErrNotSupported)
}

func (suite *DirectTransportTestingSuite) TestConsumerRtp() {
	producer := CreateAudioProducer(suite.T(), suite.transport)
	consumer, err := suite.transport.Consume(context.Background(), ConsumerOptions{
		ProducerId:      producer.Id(),
		RtpCapabilities: consumerDeviceCapabilities(),
	})
	suite.NoError(err)

	onRtpPacket := suite.Fn()
	consumer.OnRtpPacket(mockFn[*rtp.Packet](onRtpPacket))

	packet := &rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 100, SequenceNumber: 7, SSRC: 4444},
		Payload: []byte("opus"),
	}
	data, err := packet.Marshal()
	suite.NoError(err)

	suite.fake.notifyPayload(consumer.Id(), "rtp", nil, data)

	onRtpPacket.ExpectCalled()
	received := onRtpPacket.LastArg().(*rtp.Packet)
	suite.EqualValues(7, received.SequenceNumber)
	suite.Equal([]byte("opus"), received.Payload)
}

func (suite *DirectTransportTestingSuite) TestDataProducerSend() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport)
	suite.Equal(DataProducerDirect, dataProducer.Type())
	suite.Nil(dataProducer.SctpStreamParameters())

	suite.NoError(dataProducer.SendText("hello"))
	suite.NoError(dataProducer.Send([]byte{1, 2, 3}))
	suite.NoError(dataProducer.SendText(""))
	suite.NoError(dataProducer.Send(nil))

	reqs := suite.fake.waitRequests("dataProducer.send", 4)

	expected := []struct {
		ppid    SctpPayloadType
		payload []byte
	}{
		{PpidString, []byte("hello")},
		{PpidBinary, []byte{1, 2, 3}},
		{PpidEmptyString, []byte(" ")},
		{PpidEmptyBinary, []byte{0}},
	}
	for i, e := range expected {
		suite.Equal(dataProducer.Id(), reqs[i].Internal.DataProducerId)
		suite.EqualValues(e.ppid, reqs[i].data(suite.T())["ppid"])
		suite.Equal(e.payload, reqs[i].Payload)
	}

	var typeErr *TypeError
	suite.ErrorAs(dataProducer.Send(make([]byte, 1025)), &typeErr)
	suite.Len(suite.fake.requests("dataProducer.send"), 4)

	dataProducer.Close()
	suite.ErrorIs(dataProducer.SendText("bye"), ErrDataProducerClosed)
}

func (suite *DirectTransportTestingSuite) TestDataProducerSend_NotSupported() {
	transport := CreateWebRtcTransport(suite.T(), suite.router, true)
	dataProducer := CreateDataProducer(suite.T(), transport)

	suite.ErrorIs(dataProducer.SendText("hello"), ErrNotSupported)
}

func (suite *DirectTransportTestingSuite) TestDataConsumerMessages() {
	dataProducer := CreateDataProducer(suite.T(), suite.transport)
	dataConsumer, err := suite.transport.ConsumeData(context.Background(), DataConsumerOptions{
		DataProducerId: dataProducer.Id(),
	})
	suite.NoError(err)
	suite.Equal(DataConsumerDirect, dataConsumer.Type())
	suite.Nil(dataConsumer.SctpStreamParameters())

	onMessage := suite.Fn()
	dataConsumer.OnMessage(mockFn[DataConsumerMessage](onMessage))

	suite.fake.notifyPayload(dataConsumer.Id(), "message", H{"ppid": PpidString}, []byte("hi"))
	onMessage.ExpectCalledWith(DataConsumerMessage{Data: []byte("hi"), Ppid: PpidString})

	suite.fake.notifyPayload(dataConsumer.Id(), "message", H{"ppid": PpidEmptyBinary}, []byte{0})
	onMessage.ExpectCalled()
	message := onMessage.LastArg().(DataConsumerMessage)
	suite.False(message.Text())
	suite.Nil(message.Payload())

	suite.NoError(dataConsumer.SendText(context.Background(), "pong"))

	req := suite.fake.lastRequest("dataConsumer.send")
	suite.Equal(dataConsumer.Id(), req.Internal.DataConsumerId)
	suite.EqualValues(PpidString, req.data(suite.T())["ppid"])
	suite.Equal([]byte("pong"), req.Payload)
}
