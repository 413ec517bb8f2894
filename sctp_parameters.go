package mediasoup

import (
	"github.com/pion/sctp"
)

type SctpCapabilities struct {
	NumStreams NumSctpStreams `json:"numStreams"`
}

// NumSctpStreams are negotiated in the SCTP INIT/INIT-ACK handshake. OS is the
// initial number of outgoing streams the transport creates (used by
// DataConsumers), MIS the maximum number of incoming streams (used by
// DataProducers).
//
// libwebrtc does not implement SCTP_ADD_STREAMS, so OS must be 1024 when data
// consumers are needed towards it.
type NumSctpStreams struct {
	OS  uint16 `json:"OS"`
	MIS uint16 `json:"MIS"`
}

var defaultNumSctpStreams = NumSctpStreams{OS: 1024, MIS: 1024}

type SctpParameters struct {
	// Port must always equal 5000.
	Port           uint16 `json:"port"`
	OS             uint16 `json:"OS"`
	MIS            uint16 `json:"MIS"`
	MaxMessageSize uint32 `json:"maxMessageSize"`
}

// SctpStreamParameters describe the reliability of an SCTP stream. Ordered
// streams are reliable and accept neither MaxPacketLifeTime nor
// MaxRetransmits; unordered streams accept at most one of them.
type SctpStreamParameters struct {
	StreamId uint16 `json:"streamId"`

	// Ordered defaults to true unless a partial reliability limit is given.
	Ordered *bool `json:"ordered,omitempty"`

	// MaxPacketLifeTime is in milliseconds.
	MaxPacketLifeTime uint16 `json:"maxPacketLifeTime,omitempty"`

	MaxRetransmits uint16 `json:"maxRetransmits,omitempty"`
}

// Reliability maps the stream parameters to the SCTP partial reliability
// extension: the unordered flag plus a reliability type and value suitable
// for sctp.Stream.SetReliabilityParams.
func (p SctpStreamParameters) Reliability() (unordered bool, relType byte, relVal uint32) {
	unordered = p.Ordered != nil && !*p.Ordered

	switch {
	case p.MaxPacketLifeTime > 0:
		return unordered, sctp.ReliabilityTypeTimed, uint32(p.MaxPacketLifeTime)
	case p.MaxRetransmits > 0:
		return unordered, sctp.ReliabilityTypeRexmit, uint32(p.MaxRetransmits)
	default:
		return unordered, sctp.ReliabilityTypeReliable, 0
	}
}

// SctpPayloadType is the SCTP payload protocol identifier of a message, as
// registered for WebRTC data channels.
type SctpPayloadType = sctp.PayloadProtocolIdentifier

const (
	PpidString      = sctp.PayloadTypeWebRTCString
	PpidBinary      = sctp.PayloadTypeWebRTCBinary
	PpidEmptyString = sctp.PayloadTypeWebRTCStringEmpty
	PpidEmptyBinary = sctp.PayloadTypeWebRTCBinaryEmpty
)

// messagePpid picks the PPID of a message. Empty messages cannot be sent over
// SCTP, so they travel as a single byte tagged with an "empty" PPID.
func messagePpid(message []byte, text bool) ([]byte, SctpPayloadType) {
	switch {
	case text && len(message) == 0:
		return []byte{' '}, PpidEmptyString
	case text:
		return message, PpidString
	case len(message) == 0:
		return []byte{0}, PpidEmptyBinary
	default:
		return message, PpidBinary
	}
}

// validateSctpStreamParameters normalizes Ordered and rejects conflicting
// reliability settings.
func validateSctpStreamParameters(params *SctpStreamParameters) error {
	if params == nil {
		return NewTypeError("missing sctpStreamParameters")
	}
	partial := params.MaxPacketLifeTime > 0 || params.MaxRetransmits > 0

	if params.MaxPacketLifeTime > 0 && params.MaxRetransmits > 0 {
		return NewTypeError("cannot provide both maxPacketLifeTime and maxRetransmits")
	}
	if params.Ordered != nil && *params.Ordered && partial {
		return NewTypeError("cannot be ordered with maxPacketLifeTime or maxRetransmits")
	}
	if params.Ordered == nil {
		params.Ordered = Bool(!partial)
	}

	return nil
}

func validateNumSctpStreams(n NumSctpStreams) error {
	if n.OS == 0 {
		return NewTypeError("missing numStreams.OS")
	}
	if n.MIS == 0 {
		return NewTypeError("missing numStreams.MIS")
	}
	return nil
}

func validateSctpCapabilities(caps SctpCapabilities) error {
	return validateNumSctpStreams(caps.NumStreams)
}
