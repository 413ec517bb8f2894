package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestPlainTransportTestingSuite(t *testing.T) {
	suite.Run(t, new(PlainTransportTestingSuite))
}

type PlainTransportTestingSuite struct {
	TestingSuite
	transport *PlainTransport
}

func (suite *PlainTransportTestingSuite) SetupTest() {
	suite.TestingSuite.SetupTest()

	var err error
	suite.transport, err = suite.router.CreatePlainTransport(context.Background(), PlainTransportOptions{
		ListenInfo: TransportListenInfo{Ip: "127.0.0.1", AnnouncedAddress: "4.4.4.4"},
		RtcpMux:    Bool(false),
	})
	suite.NoError(err)
}

func (suite *PlainTransportTestingSuite) TestCreatePlainTransport_Succeeds() {
	onNewTransport := suite.Fn()
	suite.router.OnNewTransport(mockFn[Transport](onNewTransport))

	transport, err := suite.router.CreatePlainTransport(context.Background(), PlainTransportOptions{
		ListenInfo: TransportListenInfo{Ip: "127.0.0.1", AnnouncedAddress: "9.9.9.1"},
		EnableSctp: true,
		AppData:    H{"foo": "bar"},
	})
	suite.NoError(err)

	onNewTransport.ExpectCalledWith(transport)
	suite.Equal(TransportPlain, transport.Type())
	suite.Equal(H{"foo": "bar"}, transport.AppData())
	suite.True(transport.RtcpMux())
	suite.False(transport.Comedia())
	suite.Equal("127.0.0.1", transport.Tuple().LocalAddress)
	suite.EqualValues(40002, transport.Tuple().LocalPort)
	suite.Equal(TransportProtocolUDP, transport.Tuple().Protocol)
	suite.Nil(transport.RtcpTuple())
	suite.Nil(transport.SrtpParameters())
	suite.Equal(&SctpParameters{Port: 5000, OS: 1024, MIS: 1024, MaxMessageSize: 262144}, transport.SctpParameters())
	suite.Equal(SctpStateNew, transport.SctpState())

	data := suite.fake.lastRequest("router.createPlainTransport").data(suite.T())
	suite.Equal(transport.Id(), data["transportId"])
	suite.Equal(true, data["rtcpMux"])
	suite.Equal(false, data["isDataChannel"])
	suite.Equal("AES_CM_128_HMAC_SHA1_80", data["srtpCryptoSuite"])
	suite.Equal(map[string]any{"protocol": "udp", "ip": "127.0.0.1", "announcedAddress": "9.9.9.1"}, data["listenInfo"])
}

func (suite *PlainTransportTestingSuite) TestCreatePlainTransport_WithoutRtcpMux() {
	suite.False(suite.transport.RtcpMux())
	suite.Equal(H{}, suite.transport.AppData())
	suite.NotNil(suite.transport.RtcpTuple())
	suite.EqualValues(40003, suite.transport.RtcpTuple().LocalPort)
	suite.Nil(suite.transport.SctpParameters())
	suite.Empty(suite.transport.SctpState())
}

func (suite *PlainTransportTestingSuite) TestCreatePlainTransport_WithSrtp() {
	transport, err := suite.router.CreatePlainTransport(context.Background(), PlainTransportOptions{
		ListenInfo:      TransportListenInfo{Ip: "127.0.0.1"},
		EnableSrtp:      true,
		SrtpCryptoSuite: AEAD_AES_256_GCM,
	})
	suite.NoError(err)
	suite.Require().NotNil(transport.SrtpParameters())
	suite.Equal(AEAD_AES_256_GCM, transport.SrtpParameters().CryptoSuite)
	suite.NotEmpty(transport.SrtpParameters().KeyBase64)
}

func (suite *PlainTransportTestingSuite) TestCreatePlainTransport_TypeError() {
	var typeErr *TypeError

	_, err := suite.router.CreatePlainTransport(context.Background(), PlainTransportOptions{})
	suite.ErrorAs(err, &typeErr)

	_, err = suite.router.CreatePlainTransport(context.Background(), PlainTransportOptions{
		ListenInfo:     TransportListenInfo{Ip: "127.0.0.1"},
		EnableSctp:     true,
		NumSctpStreams: &NumSctpStreams{OS: 1024},
	})
	suite.ErrorAs(err, &typeErr)
}

func (suite *PlainTransportTestingSuite) TestConnect_Succeeds() {
	err := suite.transport.Connect(context.Background(), TransportConnectOptions{
		Ip:       "1.2.3.4",
		Port:     ref[uint16](1234),
		RtcpPort: ref[uint16](1235),
	})
	suite.NoError(err)

	data := suite.fake.lastRequest("transport.connect").data(suite.T())
	suite.Equal("1.2.3.4", data["ip"])
	suite.EqualValues(1234, data["port"])
	suite.EqualValues(1235, data["rtcpPort"])

	suite.Equal("1.2.3.4", suite.transport.Tuple().RemoteIp)
	suite.EqualValues(1234, suite.transport.Tuple().RemotePort)
}

func (suite *PlainTransportTestingSuite) TestConnect_Rejected() {
	suite.fake.handle("transport.connect", func(req fakeRequest) (any, error) {
		return nil, NewTypeError("wrong port")
	})

	tuple := suite.transport.Tuple()
	err := suite.transport.Connect(context.Background(), TransportConnectOptions{Ip: "1.2.3.4"})

	var respErr *ResponseError
	suite.ErrorAs(err, &respErr)
	suite.Equal("TypeError", respErr.Name)
	suite.Equal(tuple, suite.transport.Tuple())
}

func (suite *PlainTransportTestingSuite) TestTupleEvents() {
	onTuple := suite.Fn()
	onRtcpTuple := suite.Fn()
	suite.transport.OnTuple(mockFn[TransportTuple](onTuple))
	suite.transport.OnRtcpTuple(mockFn[TransportTuple](onRtcpTuple))

	tuple := TransportTuple{
		Protocol:     TransportProtocolUDP,
		LocalAddress: "4.4.4.4",
		LocalPort:    1111,
		RemoteIp:     "1.2.3.4",
		RemotePort:   5555,
	}
	suite.fake.notify(suite.transport.Id(), "tuple", H{"tuple": tuple})
	onTuple.ExpectCalledWith(tuple)
	suite.Equal(tuple, suite.transport.Tuple())

	rtcpTuple := tuple
	rtcpTuple.RemotePort = 5556
	suite.fake.notify(suite.transport.Id(), "rtcptuple", H{"rtcpTuple": rtcpTuple})
	onRtcpTuple.ExpectCalledWith(rtcpTuple)
	suite.Equal(&rtcpTuple, suite.transport.RtcpTuple())
}

func (suite *PlainTransportTestingSuite) TestClose() {
	onClose := suite.Fn()
	suite.transport.OnClose(onClose.Fn())

	suite.transport.Close()

	onClose.ExpectCalledTimes(1)
	suite.True(suite.transport.Closed())
	suite.Empty(suite.router.Transports())

	reqs := suite.fake.waitRequests("router.closeTransport", 1)
	suite.Equal(suite.transport.Id(), reqs[0].data(suite.T())["transportId"])
}
