package mediasoup

import (
	"strings"
)

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

type MediaDirection string

const (
	MediaDirectionSendrecv MediaDirection = "sendrecv"
	MediaDirectionSendonly MediaDirection = "sendonly"
	MediaDirectionRecvonly MediaDirection = "recvonly"
	MediaDirectionInactive MediaDirection = "inactive"
)

// RtpCapabilities define what mediasoup or an endpoint can receive at media
// level.
type RtpCapabilities struct {
	Codecs           []*RtpCodecCapability `json:"codecs,omitempty"`
	HeaderExtensions []*RtpHeaderExtension `json:"headerExtensions,omitempty"`
}

// RtpCodecCapability provides information on the capabilities of a codec
// within the RTP capabilities. The list of media codecs supported by mediasoup
// and their settings is defined in supported_rtp_capabilities.go.
//
// Exactly one RtpCodecCapability will be present for each supported
// combination of parameters that requires a distinct value of
// PreferredPayloadType. For example:
//
//   - Multiple H264 codecs, each with their own distinct 'packetization-mode'
//     and 'profile-level-id' values.
//   - Multiple VP9 codecs, each with their own distinct 'profile-id' value.
type RtpCodecCapability struct {
	Kind MediaKind `json:"kind"`

	// MimeType is the codec MIME media type/subtype (e.g. 'audio/opus',
	// 'video/VP8').
	MimeType string `json:"mimeType"`

	// PreferredPayloadType is the preferred RTP payload type. Nil means no
	// preference; 0 is the static PCMU type.
	PreferredPayloadType *uint8 `json:"preferredPayloadType,omitempty"`

	// ClockRate is the codec clock rate expressed in Hertz.
	ClockRate uint32 `json:"clockRate"`

	// Channels is the number of channels supported (e.g. two for stereo). Just
	// for audio. Default 1.
	Channels uint8 `json:"channels,omitempty"`

	// Parameters are codec specific parameters. Some parameters (such as
	// 'packetization-mode' and 'profile-level-id' in H264 or 'profile-id' in
	// VP9) are critical for codec matching.
	Parameters RtpCodecSpecificParameters `json:"parameters,omitempty"`

	// RtcpFeedback is the transport layer and codec-specific feedback messages
	// for this codec.
	RtcpFeedback []RtcpFeedback `json:"rtcpFeedback,omitempty"`
}

func (c *RtpCodecCapability) isRtxCodec() bool {
	return isRtxMimeType(c.MimeType)
}

// payloadType is the preferred payload type of a router codec, which is
// always assigned.
func (c *RtpCodecCapability) payloadType() uint8 {
	if c.PreferredPayloadType == nil {
		return 0
	}
	return *c.PreferredPayloadType
}

// RtpHeaderExtension provides information relating to supported header
// extensions. Direction tells whether mediasoup sends, receives or both.
type RtpHeaderExtension struct {
	Kind             MediaKind      `json:"kind"`
	Uri              string         `json:"uri"`
	PreferredId      uint8          `json:"preferredId"`
	PreferredEncrypt bool           `json:"preferredEncrypt,omitempty"`
	Direction        MediaDirection `json:"direction,omitempty"`
}

// RtpParameters describe a media stream sent by a Producer or received by a
// Consumer.
//
// RTP parameters given to a Producer and received from a Consumer differ: the
// latter always carries a single encoding, SSRCs chosen by mediasoup, and
// header extensions reduced to those supported by the consuming endpoint.
type RtpParameters struct {
	// Mid is the MID RTP extension value as defined in the BUNDLE
	// specification.
	Mid string `json:"mid,omitempty"`

	// Codecs are the media and RTX codecs in use.
	Codecs []*RtpCodecParameters `json:"codecs"`

	// HeaderExtensions are the RTP header extensions in use.
	HeaderExtensions []RtpHeaderExtensionParameters `json:"headerExtensions,omitempty"`

	// Encodings are the transmitted RTP streams and their settings.
	Encodings []RtpEncodingParameters `json:"encodings,omitempty"`

	// Rtcp are the parameters used for RTCP.
	Rtcp RtcpParameters `json:"rtcp,omitempty"`
}

// RtpCodecParameters provides information on codec settings within the RTP
// parameters.
type RtpCodecParameters struct {
	MimeType     string                     `json:"mimeType"`
	PayloadType  uint8                      `json:"payloadType"`
	ClockRate    uint32                     `json:"clockRate"`
	Channels     uint8                      `json:"channels,omitempty"`
	Parameters   RtpCodecSpecificParameters `json:"parameters,omitempty"`
	RtcpFeedback []RtcpFeedback             `json:"rtcpFeedback,omitempty"`
}

func (c *RtpCodecParameters) isRtxCodec() bool {
	return isRtxMimeType(c.MimeType)
}

func isRtxMimeType(mimeType string) bool {
	return strings.HasSuffix(strings.ToLower(mimeType), "/rtx")
}

// RtpCodecSpecificParameters are the codec specific parameters mediasoup knows
// about. Unknown ones are not carried.
type RtpCodecSpecificParameters struct {
	// H264
	PacketizationMode     uint8  `json:"packetization-mode,omitempty"`
	ProfileLevelId        string `json:"profile-level-id,omitempty"`
	LevelAsymmetryAllowed uint8  `json:"level-asymmetry-allowed,omitempty"`

	// VP9
	ProfileId uint8 `json:"profile-id,omitempty"`

	// RTX
	Apt uint8 `json:"apt,omitempty"`

	// Opus
	SpropStereo       uint8  `json:"sprop-stereo,omitempty"`
	Useinbandfec      uint8  `json:"useinbandfec,omitempty"`
	Usedtx            uint8  `json:"usedtx,omitempty"`
	Maxplaybackrate   uint32 `json:"maxplaybackrate,omitempty"`
	Maxaveragebitrate uint32 `json:"maxaveragebitrate,omitempty"`
	Ptime             uint32 `json:"ptime,omitempty"`

	// multiopus
	ChannelMapping string `json:"channel_mapping,omitempty"`
	NumStreams     uint8  `json:"num_streams,omitempty"`
	CoupledStreams uint8  `json:"coupled_streams,omitempty"`

	// libwebrtc video bitrate hints.
	XGoogleStartBitrate uint32 `json:"x-google-start-bitrate,omitempty"`
	XGoogleMaxBitrate   uint32 `json:"x-google-max-bitrate,omitempty"`
	XGoogleMinBitrate   uint32 `json:"x-google-min-bitrate,omitempty"`
}

// RtcpFeedback provides information on RTCP feedback messages for a specific
// codec. Those messages can be transport layer feedback messages or codec
// specific feedback messages.
type RtcpFeedback struct {
	// Type is the RTCP feedback type.
	Type string `json:"type"`

	// Parameter is the RTCP feedback parameter.
	Parameter string `json:"parameter,omitempty"`
}

// RtpEncodingParameters provides information relating to an encoding, which
// represents a media RTP stream and its associated RTX stream (if any).
type RtpEncodingParameters struct {
	// Ssrc is the media SSRC.
	Ssrc uint32 `json:"ssrc,omitempty"`

	// Rid is the RID RTP extension value. Must be unique.
	Rid string `json:"rid,omitempty"`

	// CodecPayloadType is the codec payload type this encoding affects. If
	// unset, first media codec is chosen.
	CodecPayloadType uint8 `json:"codecPayloadType,omitempty"`

	// Rtx is the RTX stream information. It must contain a numeric ssrc field
	// indicating the RTX SSRC.
	Rtx *RtpEncodingRtx `json:"rtx,omitempty"`

	// Dtx indicates whether discontinuous RTP transmission will be used.
	// Useful for audio (if the codec supports it) and for video screen sharing
	// (when static content is being transmitted, this option disables the RTP
	// inactivity checks in mediasoup). Default false.
	Dtx bool `json:"dtx,omitempty"`

	// ScalabilityMode defines spatial and temporal layers in the RTP stream
	// (e.g. 'L1T3'). See webrtc-svc.
	ScalabilityMode string `json:"scalabilityMode,omitempty"`

	// Others.
	ScaleResolutionDownBy int    `json:"scaleResolutionDownBy,omitempty"`
	MaxBitrate            uint32 `json:"maxBitrate,omitempty"`
}

type RtpEncodingRtx struct {
	Ssrc uint32 `json:"ssrc"`
}

// RtpHeaderExtensionParameters are the header extensions used in
// RtpParameters.
type RtpHeaderExtensionParameters struct {
	Uri     string `json:"uri"`
	Id      uint8  `json:"id"`
	Encrypt bool   `json:"encrypt,omitempty"`
	// Parameters are configuration parameters for the header extension.
	Parameters H `json:"parameters,omitempty"`
}

// RtcpParameters provides information on RTCP settings within the RTP
// parameters.
//
// If no cname is given in a producer's RTP parameters, the mediasoup transport
// will choose a random one that will be used into RTCP SDES messages sent to
// all its associated consumers.
//
// mediasoup assumes reducedSize to always be true.
type RtcpParameters struct {
	Cname       string `json:"cname,omitempty"`
	ReducedSize *bool  `json:"reducedSize,omitempty"`
	Mux         *bool  `json:"mux,omitempty"`
}

// RtpMapping tells the worker how to translate a producer's payload types and
// SSRCs into the router's.
type RtpMapping struct {
	Codecs    []RtpMappingCodec    `json:"codecs"`
	Encodings []RtpMappingEncoding `json:"encodings"`
}

type RtpMappingCodec struct {
	PayloadType       uint8 `json:"payloadType"`
	MappedPayloadType uint8 `json:"mappedPayloadType"`
}

type RtpMappingEncoding struct {
	Ssrc            uint32 `json:"ssrc,omitempty"`
	Rid             string `json:"rid,omitempty"`
	ScalabilityMode string `json:"scalabilityMode,omitempty"`
	MappedSsrc      uint32 `json:"mappedSsrc"`
}
