package mediasoup

// RtpStreamRecvStats are the stats of a stream received by a producer.
type RtpStreamRecvStats struct {
	BaseRtpStreamStats
	Type           string            `json:"type"`
	Jitter         uint32            `json:"jitter"`
	PacketCount    uint64            `json:"packetCount"`
	ByteCount      uint64            `json:"byteCount"`
	Bitrate        uint32            `json:"bitrate"`
	BitrateByLayer map[string]uint32 `json:"bitrateByLayer,omitempty"`
}

// RtpStreamSendStats are the stats of a stream sent by a consumer. A consumer
// GetStats also returns the "inbound-rtp" stats of its producer stream with
// this shape.
type RtpStreamSendStats struct {
	BaseRtpStreamStats
	Type        string `json:"type"`
	PacketCount uint64 `json:"packetCount"`
	ByteCount   uint64 `json:"byteCount"`
	Bitrate     uint32 `json:"bitrate"`
	Jitter      uint32 `json:"jitter,omitempty"`
}

type BaseRtpStreamStats struct {
	Timestamp            uint64    `json:"timestamp"`
	Ssrc                 uint32    `json:"ssrc"`
	RtxSsrc              uint32    `json:"rtxSsrc,omitempty"`
	Rid                  string    `json:"rid,omitempty"`
	Kind                 MediaKind `json:"kind"`
	MimeType             string    `json:"mimeType"`
	PacketsLost          int64     `json:"packetsLost"`
	FractionLost         uint8     `json:"fractionLost"`
	PacketsDiscarded     uint64    `json:"packetsDiscarded"`
	PacketsRetransmitted uint64    `json:"packetsRetransmitted"`
	PacketsRepaired      uint64    `json:"packetsRepaired"`
	NackCount            uint64    `json:"nackCount"`
	NackPacketCount      uint64    `json:"nackPacketCount"`
	PliCount             uint64    `json:"pliCount"`
	FirCount             uint64    `json:"firCount"`
	Score                uint8     `json:"score"`
	RoundTripTime        float32   `json:"roundTripTime,omitempty"`
	RtxPacketsDiscarded  uint64    `json:"rtxPacketsDiscarded,omitempty"`
}

// RtpStreamDump is one RTP stream of a producer or consumer dump.
type RtpStreamDump struct {
	Params    RtpStreamParams `json:"params"`
	Score     uint8           `json:"score"`
	RtxStream *RtxStreamDump  `json:"rtxStream,omitempty"`
}

type RtpStreamParams struct {
	EncodingIdx    uint32 `json:"encodingIdx"`
	Ssrc           uint32 `json:"ssrc"`
	PayloadType    uint8  `json:"payloadType"`
	MimeType       string `json:"mimeType"`
	ClockRate      uint32 `json:"clockRate"`
	Rid            string `json:"rid,omitempty"`
	Cname          string `json:"cname"`
	RtxSsrc        uint32 `json:"rtxSsrc,omitempty"`
	RtxPayloadType uint8  `json:"rtxPayloadType,omitempty"`
	UseNack        bool   `json:"useNack"`
	UsePli         bool   `json:"usePli"`
	UseFir         bool   `json:"useFir"`
	UseInBandFec   bool   `json:"useInBandFec"`
	UseDtx         bool   `json:"useDtx"`
	SpatialLayers  uint8  `json:"spatialLayers"`
	TemporalLayers uint8  `json:"temporalLayers"`
}

type RtxStreamDump struct {
	Params RtxStreamParams `json:"params"`
}

type RtxStreamParams struct {
	Ssrc        uint32 `json:"ssrc"`
	PayloadType uint8  `json:"payloadType"`
	MimeType    string `json:"mimeType"`
	ClockRate   uint32 `json:"clockRate"`
	Rrid        string `json:"rrid,omitempty"`
	Cname       string `json:"cname"`
}
