package mediasoup

// WebRtcTransportOptions defines the options to create webrtc transport.
type WebRtcTransportOptions struct {
	// WebRtcServer is an instance of WebRtcServer. Mandatory unless ListenInfos is given.
	WebRtcServer *WebRtcServer `json:"-"`

	// ListenInfos specifies listening IP address or addresses in order of preference (first one
	// is the preferred one). Mandatory unless WebRtcServer is given.
	ListenInfos []TransportListenInfo `json:"listenInfos,omitempty"`

	// EnableUdp enables listening in UDP. Default true.
	EnableUdp *bool `json:"enableUdp,omitempty"`

	// EnableTcp enables listening in TCP. Default true if WebRtcServer is given,
	// false otherwise.
	EnableTcp *bool `json:"enableTcp,omitempty"`

	// PreferUdp indicates if UDP should be preferred. Default false.
	PreferUdp bool `json:"preferUdp,omitempty"`

	// PreferTcp indicates if TCP should be preferred. Default false.
	PreferTcp bool `json:"preferTcp,omitempty"`

	// IceConsentTimeout is ICE consent timeout in seconds. If 0 it is disabled. Default 30.
	IceConsentTimeout *uint8 `json:"iceConsentTimeout,omitempty"`

	// InitialAvailableOutgoingBitrate sets the initial available outgoing bitrate (in bps). Default 600000.
	InitialAvailableOutgoingBitrate uint32 `json:"initialAvailableOutgoingBitrate,omitempty"`

	// EnableSctp enables SCTP association creation. Default false.
	EnableSctp bool `json:"enableSctp,omitempty"`

	// NumSctpStreams configures SCTP streams.
	NumSctpStreams *NumSctpStreams `json:"numSctpStreams,omitempty"`

	// MaxSctpMessageSize is the maximum allowed size for SCTP messages sent by DataProducers. Default 262144.
	MaxSctpMessageSize uint32 `json:"maxSctpMessageSize,omitempty"`

	// SctpSendBufferSize is the maximum SCTP send buffer used by DataConsumers. Default 262144.
	SctpSendBufferSize uint32 `json:"sctpSendBufferSize,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// PlainTransportOptions define options to create a PlainTransport
type PlainTransportOptions struct {
	// ListenInfo define Listening IP address.
	ListenInfo TransportListenInfo `json:"listenInfo,omitempty"`

	// RtcpListenInfo is optional listening info for RTCP.
	RtcpListenInfo *TransportListenInfo `json:"rtcpListenInfo,omitempty"`

	// RtcpMux define wether use RTCP-mux (RTP and RTCP in the same port). Default true.
	RtcpMux *bool `json:"rtcpMux,omitempty"`

	// Comedia define whether remote ip:port should be auto-detected based on first RTP/RTCP
	// packet received. If enabled, Connect must not be called unless SRTP is
	// enabled. If so, it must be called with just remote SRTP parameters.
	// Default false.
	Comedia bool `json:"comedia,omitempty"`

	// EnableSctp define whether create a SCTP association. Default false.
	EnableSctp bool `json:"enableSctp,omitempty"`

	// NumSctpStreams define SCTP streams number.
	NumSctpStreams *NumSctpStreams `json:"numSctpStreams,omitempty"`

	// MaxSctpMessageSize define maximum allowed size for SCTP messages sent by DataProducers.
	// Default 262144.
	MaxSctpMessageSize uint32 `json:"maxSctpMessageSize,omitempty"`

	// SctpSendBufferSize define maximum SCTP send buffer used by DataConsumers.
	// Default 262144.
	SctpSendBufferSize uint32 `json:"sctpSendBufferSize,omitempty"`

	// EnableSrtp enable SRTP. For this to work, Connect must be called with
	// remote SRTP parameters. Default false.
	EnableSrtp bool `json:"enableSrtp,omitempty"`

	// SrtpCryptoSuite define the SRTP crypto suite to be used if EnableSrtp is set. Default
	// 'AES_CM_128_HMAC_SHA1_80'.
	SrtpCryptoSuite SrtpCryptoSuite `json:"srtpCryptoSuite,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// PipeTransportOptions define options to create a PipeTransport
type PipeTransportOptions struct {
	// ListenInfo define Listening IP address.
	ListenInfo TransportListenInfo `json:"listenInfo,omitempty"`

	// EnableSctp define whether create a SCTP association. Default false.
	EnableSctp bool `json:"enableSctp,omitempty"`

	// NumSctpStreams define SCTP streams number.
	NumSctpStreams *NumSctpStreams `json:"numSctpStreams,omitempty"`

	// MaxSctpMessageSize define maximum allowed size for SCTP messages sent by DataProducers.
	// Default 268435456.
	MaxSctpMessageSize uint32 `json:"maxSctpMessageSize,omitempty"`

	// SctpSendBufferSize define maximum SCTP send buffer used by DataConsumers.
	// Default 268435456.
	SctpSendBufferSize uint32 `json:"sctpSendBufferSize,omitempty"`

	// EnableSrtp enable SRTP. Default false.
	EnableSrtp bool `json:"enableSrtp,omitempty"`

	// EnableRtx enable RTX and NACK for RTP retransmission. Useful if both Routers are
	// located in different hosts and there is packet lost in the link. For this
	// to work, both PipeTransports must enable this setting. Default false.
	EnableRtx bool `json:"enableRtx,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// DirectTransportOptions define options to create a DirectTransport.
type DirectTransportOptions struct {
	// MaxMessageSize define maximum allowed size for direct messages sent from DataProducers.
	// Default 262144.
	MaxMessageSize uint32 `json:"maxMessageSize,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// TransportType represents the transport type.
type TransportType string

const (
	TransportWebRTC TransportType = "webrtc"
	TransportPlain  TransportType = "plain"
	TransportPipe   TransportType = "pipe"
	TransportDirect TransportType = "direct"
)

// TransportListenInfo represents the transport listening information.
type TransportListenInfo struct {
	// Protocol network protocol
	Protocol TransportProtocol `json:"protocol"`

	// Ip listening IPv4 or IPv6
	Ip string `json:"ip"`

	// AnnouncedAddress announced IPv4, IPv6 or hostname (useful when running mediasoup behind NAT with private IP)
	AnnouncedAddress string `json:"announcedAddress,omitempty"`

	// Port listening port
	Port uint16 `json:"port,omitempty"`

	// PortRange listening port range. If given then Port will be ignored
	PortRange *TransportPortRange `json:"portRange,omitempty"`

	// Flags socket flags
	Flags *TransportSocketFlags `json:"flags,omitempty"`

	// SendBufferSize send buffer size (bytes)
	SendBufferSize uint32 `json:"sendBufferSize,omitempty"`

	// RecvBufferSize recv buffer size (bytes)
	RecvBufferSize uint32 `json:"recvBufferSize,omitempty"`
}

// TransportProtocol represents the transport protocol.
type TransportProtocol string

const (
	TransportProtocolUDP TransportProtocol = "udp"
	TransportProtocolTCP TransportProtocol = "tcp"
)

// TransportPortRange represents a port range.
type TransportPortRange struct {
	Min uint16 `json:"min"`
	Max uint16 `json:"max"`
}

// TransportSocketFlags represents UDP/TCP socket flags.
type TransportSocketFlags struct {
	IPv6Only     bool `json:"ipv6Only,omitempty"`
	UDPReusePort bool `json:"udpReusePort,omitempty"`
}

// TransportTuple represents a transport tuple.
type TransportTuple struct {
	Protocol     TransportProtocol `json:"protocol"`
	LocalAddress string            `json:"localAddress"`
	LocalPort    uint16            `json:"localPort"`
	RemoteIp     string            `json:"remoteIp,omitempty"`
	RemotePort   uint16            `json:"remotePort,omitempty"`
}

// SctpState represents the SCTP state.
type SctpState string

const (
	SctpStateNew        SctpState = "new"
	SctpStateConnecting SctpState = "connecting"
	SctpStateConnected  SctpState = "connected"
	SctpStateFailed     SctpState = "failed"
	SctpStateClosed     SctpState = "closed"
)

// TransportTraceEventType represents valid types for 'trace' events.
type TransportTraceEventType string

const (
	TransportTraceEventProbation TransportTraceEventType = "probation"
	TransportTraceEventBWE       TransportTraceEventType = "bwe"
)

// TransportTraceEventData represents 'trace' event data.
type TransportTraceEventData struct {
	Type      TransportTraceEventType `json:"type"`
	Timestamp uint64                  `json:"timestamp"`
	Direction string                  `json:"direction"` // "in" or "out"
	Info      H                       `json:"info"`
}

// TransportDump is the worker's view of a transport. Variant specific
// fields are filled only for the matching transport type.
type TransportDump struct {
	Id                      string                    `json:"id"`
	Direct                  bool                      `json:"direct,omitempty"`
	ProducerIds             []string                  `json:"producerIds"`
	ConsumerIds             []string                  `json:"consumerIds"`
	MapSsrcConsumerId       map[string]string         `json:"mapSsrcConsumerId,omitempty"`
	MapRtxSsrcConsumerId    map[string]string         `json:"mapRtxSsrcConsumerId,omitempty"`
	DataProducerIds         []string                  `json:"dataProducerIds"`
	DataConsumerIds         []string                  `json:"dataConsumerIds"`
	RecvRtpHeaderExtensions H                         `json:"recvRtpHeaderExtensions,omitempty"`
	RtpListener             *RtpListener              `json:"rtpListener,omitempty"`
	MaxMessageSize          uint32                    `json:"maxMessageSize,omitempty"`
	SctpParameters          *SctpParameters           `json:"sctpParameters,omitempty"`
	SctpState               SctpState                 `json:"sctpState,omitempty"`
	SctpListener            *SctpListener             `json:"sctpListener,omitempty"`
	TraceEventTypes         []TransportTraceEventType `json:"traceEventTypes"`

	// plain, pipe
	Tuple          *TransportTuple `json:"tuple,omitempty"`
	SrtpParameters *SrtpParameters `json:"srtpParameters,omitempty"`

	// plain
	RtcpMux   bool            `json:"rtcpMux,omitempty"`
	Comedia   bool            `json:"comedia,omitempty"`
	RtcpTuple *TransportTuple `json:"rtcpTuple,omitempty"`

	// pipe
	Rtx bool `json:"rtx,omitempty"`

	// webrtc
	IceRole          string          `json:"iceRole,omitempty"`
	IceParameters    *IceParameters  `json:"iceParameters,omitempty"`
	IceCandidates    []IceCandidate  `json:"iceCandidates,omitempty"`
	IceState         IceState        `json:"iceState,omitempty"`
	IceSelectedTuple *TransportTuple `json:"iceSelectedTuple,omitempty"`
	DtlsParameters   *DtlsParameters `json:"dtlsParameters,omitempty"`
	DtlsState        DtlsState       `json:"dtlsState,omitempty"`
}

type RtpListener struct {
	SsrcTable map[string]string `json:"ssrcTable,omitempty"`
	MidTable  map[string]string `json:"midTable,omitempty"`
	RidTable  map[string]string `json:"ridTable,omitempty"`
}

type SctpListener struct {
	StreamIdTable map[string]string `json:"streamIdTable,omitempty"`
}

// TransportStat represents transport statistics.
type TransportStat struct {
	Type                     string    `json:"type"`
	TransportId              string    `json:"transportId"`
	Timestamp                uint64    `json:"timestamp"`
	SctpState                SctpState `json:"sctpState,omitempty"`
	BytesReceived            uint64    `json:"bytesReceived"`
	RecvBitrate              uint32    `json:"recvBitrate"`
	BytesSent                uint64    `json:"bytesSent"`
	SendBitrate              uint32    `json:"sendBitrate"`
	RtpBytesReceived         uint64    `json:"rtpBytesReceived"`
	RtpRecvBitrate           uint32    `json:"rtpRecvBitrate"`
	RtpBytesSent             uint64    `json:"rtpBytesSent"`
	RtpSendBitrate           uint32    `json:"rtpSendBitrate"`
	RtxBytesReceived         uint64    `json:"rtxBytesReceived"`
	RtxRecvBitrate           uint32    `json:"rtxRecvBitrate"`
	RtxBytesSent             uint64    `json:"rtxBytesSent"`
	RtxSendBitrate           uint32    `json:"rtxSendBitrate"`
	ProbationBytesSent       uint64    `json:"probationBytesSent"`
	ProbationSendBitrate     uint32    `json:"probationSendBitrate"`
	AvailableOutgoingBitrate *uint32   `json:"availableOutgoingBitrate,omitempty"`
	AvailableIncomingBitrate *uint32   `json:"availableIncomingBitrate,omitempty"`
	MaxIncomingBitrate       *uint32   `json:"maxIncomingBitrate,omitempty"`
	MaxOutgoingBitrate       *uint32   `json:"maxOutgoingBitrate,omitempty"`
	MinOutgoingBitrate       *uint32   `json:"minOutgoingBitrate,omitempty"`
	RtpPacketLossReceived    *float64  `json:"rtpPacketLossReceived,omitempty"`
	RtpPacketLossSent        *float64  `json:"rtpPacketLossSent,omitempty"`

	// webrtc
	IceRole          string          `json:"iceRole,omitempty"`
	IceState         IceState        `json:"iceState,omitempty"`
	DtlsState        DtlsState       `json:"dtlsState,omitempty"`
	IceSelectedTuple *TransportTuple `json:"iceSelectedTuple,omitempty"`

	// plain, pipe
	RtcpMux   bool            `json:"rtcpMux,omitempty"`
	Comedia   bool            `json:"comedia,omitempty"`
	Tuple     *TransportTuple `json:"tuple,omitempty"`
	RtcpTuple *TransportTuple `json:"rtcpTuple,omitempty"`
}

type IceParameters struct {
	UsernameFragment string `json:"usernameFragment"`
	Password         string `json:"password"`
	IceLite          bool   `json:"iceLite,omitempty"`
}

type IceCandidate struct {
	Foundation string            `json:"foundation"`
	Priority   uint32            `json:"priority"`
	Address    string            `json:"address"`
	Protocol   TransportProtocol `json:"protocol"`
	Port       uint16            `json:"port"`
	// always "host"
	Type string `json:"type,omitempty"`
	// "passive" | ""
	TcpType string `json:"tcpType,omitempty"`
}

type DtlsParameters struct {
	Role         DtlsRole          `json:"role,omitempty"`
	Fingerprints []DtlsFingerprint `json:"fingerprints"`
}

// DtlsFingerprint defines the hash function algorithm (as defined in the
// "Hash function Textual Names" registry initially specified in RFC 4572 Section 8)
// and its corresponding certificate fingerprint value (in lowercase hex string as
// expressed utilizing the syntax of "fingerprint" in RFC 4572 Section 5).
type DtlsFingerprint struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

type IceState string

const (
	IceStateNew          IceState = "new"
	IceStateConnected    IceState = "connected"
	IceStateCompleted    IceState = "completed"
	IceStateDisconnected IceState = "disconnected"
	IceStateClosed       IceState = "closed"
)

type DtlsRole string

const (
	DtlsRoleAuto   DtlsRole = "auto"
	DtlsRoleClient DtlsRole = "client"
	DtlsRoleServer DtlsRole = "server"
)

type DtlsState string

const (
	DtlsStateNew        DtlsState = "new"
	DtlsStateConnecting DtlsState = "connecting"
	DtlsStateConnected  DtlsState = "connected"
	DtlsStateFailed     DtlsState = "failed"
	DtlsStateClosed     DtlsState = "closed"
)

// TransportConnectOptions carries the remote parameters of Connect. Which
// fields apply depends on the transport type.
type TransportConnectOptions struct {
	// pipe and plain transport
	Ip             string          `json:"ip,omitempty"`
	Port           *uint16         `json:"port,omitempty"`
	SrtpParameters *SrtpParameters `json:"srtpParameters,omitempty"`

	// plain transport
	RtcpPort *uint16 `json:"rtcpPort,omitempty"`

	// webrtc transport
	DtlsParameters *DtlsParameters `json:"dtlsParameters,omitempty"`
}
