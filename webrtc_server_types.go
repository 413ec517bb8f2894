package mediasoup

// WebRtcServerOptions represents the configuration options for a WebRTC server.
// The WebRTC server allows endpoints to share the same UDP/TCP ports and ICE
// candidates.
type WebRtcServerOptions struct {
	// ListenInfos are the network interfaces and protocols to listen on.
	// Required.
	ListenInfos []TransportListenInfo `json:"listenInfos"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

type WebRtcServerDump struct {
	Id                        string                `json:"id,omitempty"`
	UdpSockets                []IpPort              `json:"udpSockets,omitempty"`
	TcpServers                []IpPort              `json:"tcpServers,omitempty"`
	WebRtcTransportIds        []string              `json:"webRtcTransportIds,omitempty"`
	LocalIceUsernameFragments []IceUserNameFragment `json:"localIceUsernameFragments,omitempty"`
	TupleHashes               []TupleHash           `json:"tupleHashes,omitempty"`
}

type IpPort struct {
	Ip   string `json:"ip,omitempty"`
	Port uint16 `json:"port,omitempty"`
}

type IceUserNameFragment struct {
	LocalIceUsernameFragment string `json:"localIceUsernameFragment,omitempty"`
	WebRtcTransportId        string `json:"webRtcTransportId,omitempty"`
}

type TupleHash struct {
	TupleHash         uint64 `json:"tupleHash,omitempty"`
	WebRtcTransportId string `json:"webRtcTransportId,omitempty"`
}
