package mediasoup

import (
	"encoding/json"
)

// RtpTraceInfo is "trace" event info for the "rtp" and "keyframe" types.
type RtpTraceInfo struct {
	RtpPacket *RtpPacketDump `json:"rtpPacket"`
	IsRtx     bool           `json:"isRtx"`
}

// KeyFrameTraceInfo is "trace" event info for "keyframe" type.
type KeyFrameTraceInfo = RtpTraceInfo

type RtpPacketDump struct {
	PayloadType        uint8   `json:"payloadType"`
	SequenceNumber     uint16  `json:"sequenceNumber"`
	Timestamp          uint32  `json:"timestamp"`
	Marker             bool    `json:"marker"`
	Ssrc               uint32  `json:"ssrc"`
	IsKeyFrame         bool    `json:"isKeyFrame"`
	Size               uint64  `json:"size"`
	PayloadSize        uint64  `json:"payloadSize"`
	SpatialLayer       uint8   `json:"spatialLayer"`
	TemporalLayer      uint8   `json:"temporalLayer"`
	Mid                string  `json:"mid,omitempty"`
	Rid                string  `json:"rid,omitempty"`
	Rrid               string  `json:"rrid,omitempty"`
	WideSequenceNumber *uint16 `json:"wideSequenceNumber,omitempty"`
}

// FirTraceInfo is "trace" event info for "fir" type.
type FirTraceInfo struct {
	Ssrc uint32 `json:"ssrc"`
}

// PliTraceInfo is "trace" event info for "pli" type.
type PliTraceInfo = FirTraceInfo

// SrTraceInfo is "trace" event info for "sr" type.
type SrTraceInfo struct {
	Ssrc        uint32 `json:"ssrc"`
	NtpSec      uint32 `json:"ntpSec"`
	NtpFrac     uint32 `json:"ntpFrac"`
	RtpTs       uint32 `json:"rtpTs"`
	PacketCount uint32 `json:"packetCount"`
	OctetCount  uint32 `json:"octetCount"`
}

// rawTraceEvent is the wire form shared by producer and consumer traces.
type rawTraceEvent struct {
	Type      string          `json:"type"`
	Timestamp uint64          `json:"timestamp"`
	Direction string          `json:"direction"`
	Info      json.RawMessage `json:"info"`
}

// decodeTraceInfo turns the info of an RTP trace into its typed form.
func decodeTraceInfo(eventType string, info json.RawMessage) any {
	if len(info) == 0 {
		return nil
	}
	var v any
	switch eventType {
	case "rtp", "keyframe":
		v = &RtpTraceInfo{}
	case "fir", "pli":
		v = &FirTraceInfo{}
	case "sr":
		v = &SrTraceInfo{}
	default:
		v = &H{}
	}
	if err := json.Unmarshal(info, v); err != nil {
		return nil
	}
	if h, ok := v.(*H); ok {
		return *h
	}
	return v
}
