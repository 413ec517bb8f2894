package mediasoup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sfukit/mediasoup-go/internal/h264"
)

// dynamicPayloadTypes is the order in which the router hands out payload types
// to codecs without a preferred one.
var dynamicPayloadTypes = [...]uint8{
	100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114, 115,
	116, 117, 118, 119, 120, 121, 122, 123, 124, 125, 126, 127, 96, 97, 98, 99, 77,
	78, 79, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 93, 94, 95, 35, 36,
	37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56,
	57, 58, 59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71,
}

func validateRtpCapabilities(caps *RtpCapabilities) error {
	for _, codec := range caps.Codecs {
		if err := validateRtpCodecCapability(codec); err != nil {
			return err
		}
	}
	for _, ext := range caps.HeaderExtensions {
		if err := validateRtpHeaderExtension(ext); err != nil {
			return err
		}
	}
	return nil
}

// validateRtpCodecCapability fills Kind from the MIME type and defaults audio
// channels to 1.
func validateRtpCodecCapability(codec *RtpCodecCapability) error {
	if codec == nil {
		return NewTypeError("missing codec")
	}
	kind, ok := kindOfMimeType(codec.MimeType)
	if !ok {
		return NewTypeError("invalid codec.mimeType %q", codec.MimeType)
	}
	codec.Kind = kind

	if codec.ClockRate == 0 {
		return NewTypeError("missing codec.clockRate")
	}
	if kind == MediaKindAudio && codec.Channels == 0 {
		codec.Channels = 1
	}
	return validateRtcpFeedback(codec.RtcpFeedback)
}

func validateRtcpFeedback(feedback []RtcpFeedback) error {
	for _, fb := range feedback {
		if fb.Type == "" {
			return NewTypeError("missing fb.type")
		}
	}
	return nil
}

func validateRtpHeaderExtension(ext *RtpHeaderExtension) error {
	if ext == nil {
		return NewTypeError("missing header extension")
	}
	if ext.Kind != MediaKindAudio && ext.Kind != MediaKindVideo {
		return NewTypeError("invalid ext.kind %q", ext.Kind)
	}
	if ext.Uri == "" {
		return NewTypeError("missing ext.uri")
	}
	if ext.PreferredId == 0 {
		return NewTypeError("missing ext.preferredId")
	}
	if ext.Direction == "" {
		ext.Direction = MediaDirectionSendrecv
	}
	return nil
}

func validateRtpParameters(params *RtpParameters) error {
	if len(params.Codecs) == 0 {
		return NewTypeError("missing rtpParameters.codecs")
	}
	for _, codec := range params.Codecs {
		if err := validateRtpCodecParameters(codec); err != nil {
			return err
		}
	}
	for _, ext := range params.HeaderExtensions {
		if ext.Uri == "" {
			return NewTypeError("missing ext.uri")
		}
		if ext.Id == 0 {
			return NewTypeError("missing ext.id")
		}
	}
	if params.Rtcp.ReducedSize == nil {
		params.Rtcp.ReducedSize = Bool(true)
	}
	return nil
}

func validateRtpCodecParameters(codec *RtpCodecParameters) error {
	if codec == nil {
		return NewTypeError("missing codec")
	}
	kind, ok := kindOfMimeType(codec.MimeType)
	if !ok {
		return NewTypeError("invalid codec.mimeType %q", codec.MimeType)
	}
	if codec.ClockRate == 0 {
		return NewTypeError("missing codec.clockRate")
	}
	if kind == MediaKindAudio && codec.Channels == 0 {
		codec.Channels = 1
	}
	return validateRtcpFeedback(codec.RtcpFeedback)
}

func kindOfMimeType(mimeType string) (MediaKind, bool) {
	kind, _, found := strings.Cut(strings.ToLower(mimeType), "/")
	if !found {
		return "", false
	}
	switch MediaKind(kind) {
	case MediaKindAudio, MediaKindVideo:
		return MediaKind(kind), true
	}
	return "", false
}

// generateRouterRtpCapabilities builds the router capabilities out of the
// media codecs requested by the application, assigning payload types and
// adding an RTX codec for every video codec.
func generateRouterRtpCapabilities(mediaCodecs []*RtpCodecCapability) (caps RtpCapabilities, err error) {
	supported := GetSupportedRtpCapabilities()
	caps.HeaderExtensions = supported.HeaderExtensions

	freePts := slices.Clone(dynamicPayloadTypes[:])
	takePt := func() (uint8, error) {
		if len(freePts) == 0 {
			return 0, NewUnsupportedError("cannot allocate more dynamic codec payload types")
		}
		pt := freePts[0]
		freePts = freePts[1:]
		return pt, nil
	}

	for _, mediaCodec := range mediaCodecs {
		if err = validateRtpCodecCapability(mediaCodec); err != nil {
			return
		}
		var supportedCodec *RtpCodecCapability
		for _, c := range supported.Codecs {
			if matchCodecs(capabilityView(mediaCodec), capabilityView(c), false, false) {
				supportedCodec = c
				break
			}
		}
		if supportedCodec == nil {
			err = NewUnsupportedError("media codec not supported [mimeType:%s]", mediaCodec.MimeType)
			return
		}

		codec := clone(supportedCodec)

		// Static payload types of the supported codec (PCMU is 0) are kept
		// unless the application asks for another one.
		switch {
		case mediaCodec.PreferredPayloadType != nil:
			codec.PreferredPayloadType = Uint8(*mediaCodec.PreferredPayloadType)
			if i := slices.Index(freePts, *codec.PreferredPayloadType); i >= 0 {
				freePts = slices.Delete(freePts, i, i+1)
			}
		case codec.PreferredPayloadType == nil:
			var pt uint8
			if pt, err = takePt(); err != nil {
				return
			}
			codec.PreferredPayloadType = &pt
		}

		for _, existing := range caps.Codecs {
			if existing.payloadType() == codec.payloadType() {
				err = NewTypeError("duplicated codec.preferredPayloadType %d", codec.payloadType())
				return
			}
		}

		// The application's parameters win over the supported ones.
		if err = override(&codec.Parameters, mediaCodec.Parameters); err != nil {
			return
		}
		caps.Codecs = append(caps.Codecs, codec)

		if codec.Kind != MediaKindVideo {
			continue
		}
		var rtxPt uint8
		if rtxPt, err = takePt(); err != nil {
			return
		}
		caps.Codecs = append(caps.Codecs, &RtpCodecCapability{
			Kind:                 codec.Kind,
			MimeType:             fmt.Sprintf("%s/rtx", codec.Kind),
			PreferredPayloadType: &rtxPt,
			ClockRate:            codec.ClockRate,
			Parameters:           RtpCodecSpecificParameters{Apt: codec.payloadType()},
			RtcpFeedback:         []RtcpFeedback{},
		})
	}

	return caps, nil
}

// getProducerRtpParametersMapping maps the producer payload types and SSRCs to
// the router ones. It may rewrite the H264 profile-level-id of params to the
// negotiated one.
func getProducerRtpParametersMapping(params RtpParameters, caps RtpCapabilities) (mapping RtpMapping, err error) {
	capOf := make(map[*RtpCodecParameters]*RtpCodecCapability, len(params.Codecs))

	for _, codec := range params.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		var matched *RtpCodecCapability
		for _, capCodec := range caps.Codecs {
			if matchCodecs(parametersView(codec), capabilityView(capCodec), true, true) {
				matched = capCodec
				break
			}
		}
		if matched == nil {
			err = NewUnsupportedError("unsupported codec [mimeType:%s, payloadType:%d]", codec.MimeType, codec.PayloadType)
			return
		}
		capOf[codec] = matched
	}

	for _, codec := range params.Codecs {
		if !codec.isRtxCodec() {
			continue
		}
		idx := slices.IndexFunc(params.Codecs, func(c *RtpCodecParameters) bool {
			return !c.isRtxCodec() && c.PayloadType == codec.Parameters.Apt
		})
		if idx < 0 {
			err = NewTypeError("missing media codec found for RTX PT %d", codec.PayloadType)
			return
		}
		capMedia := capOf[params.Codecs[idx]]

		idx = slices.IndexFunc(caps.Codecs, func(c *RtpCodecCapability) bool {
			return c.isRtxCodec() && c.Parameters.Apt == capMedia.payloadType()
		})
		if idx < 0 {
			err = NewUnsupportedError("no RTX codec for capability codec PT %d", capMedia.payloadType())
			return
		}
		capOf[codec] = caps.Codecs[idx]
	}

	for _, codec := range params.Codecs {
		mapping.Codecs = append(mapping.Codecs, RtpMappingCodec{
			PayloadType:       codec.PayloadType,
			MappedPayloadType: capOf[codec].payloadType(),
		})
	}

	mappedSsrc := generateSsrc()
	for _, encoding := range params.Encodings {
		mapping.Encodings = append(mapping.Encodings, RtpMappingEncoding{
			Ssrc:            encoding.Ssrc,
			Rid:             encoding.Rid,
			ScalabilityMode: encoding.ScalabilityMode,
			MappedSsrc:      mappedSsrc,
		})
		mappedSsrc++
	}

	return mapping, nil
}

// getConsumableRtpParameters computes the parameters every consumer of a
// producer derives its own from: router payload types, the producer's codec
// parameters, all header extensions the router can send for this kind and the
// mapped encodings.
func getConsumableRtpParameters(kind MediaKind, params RtpParameters, caps RtpCapabilities, mapping RtpMapping) (consumable RtpParameters, err error) {
	for _, codec := range params.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		var mappedPt uint8
		for _, entry := range mapping.Codecs {
			if entry.PayloadType == codec.PayloadType {
				mappedPt = entry.MappedPayloadType
				break
			}
		}
		idx := slices.IndexFunc(caps.Codecs, func(c *RtpCodecCapability) bool {
			return c.PreferredPayloadType != nil && *c.PreferredPayloadType == mappedPt
		})
		if idx < 0 {
			err = NewTypeError("no router codec for mapped payload type %d", mappedPt)
			return
		}
		capCodec := caps.Codecs[idx]

		consumable.Codecs = append(consumable.Codecs, &RtpCodecParameters{
			MimeType:     capCodec.MimeType,
			PayloadType:  capCodec.payloadType(),
			ClockRate:    capCodec.ClockRate,
			Channels:     capCodec.Channels,
			Parameters:   codec.Parameters,
			RtcpFeedback: capCodec.RtcpFeedback,
		})

		idx = slices.IndexFunc(caps.Codecs, func(c *RtpCodecCapability) bool {
			return c.isRtxCodec() && c.Parameters.Apt == capCodec.payloadType()
		})
		if idx >= 0 {
			rtx := caps.Codecs[idx]
			consumable.Codecs = append(consumable.Codecs, &RtpCodecParameters{
				MimeType:     rtx.MimeType,
				PayloadType:  rtx.payloadType(),
				ClockRate:    rtx.ClockRate,
				Parameters:   rtx.Parameters,
				RtcpFeedback: rtx.RtcpFeedback,
			})
		}
	}

	for _, capExt := range caps.HeaderExtensions {
		if capExt.Kind != kind ||
			(capExt.Direction != MediaDirectionSendrecv && capExt.Direction != MediaDirectionSendonly) {
			continue
		}
		consumable.HeaderExtensions = append(consumable.HeaderExtensions, RtpHeaderExtensionParameters{
			Uri:     capExt.Uri,
			Id:      capExt.PreferredId,
			Encrypt: capExt.PreferredEncrypt,
		})
	}

	for i, encoding := range params.Encodings {
		encoding.Rid = ""
		encoding.Rtx = nil
		encoding.CodecPayloadType = 0
		encoding.Ssrc = mapping.Encodings[i].MappedSsrc

		consumable.Encodings = append(consumable.Encodings, encoding)
	}

	consumable.Rtcp = RtcpParameters{
		Cname:       params.Rtcp.Cname,
		ReducedSize: Bool(true),
		Mux:         Bool(true),
	}

	return consumable, nil
}

// canConsume reports whether an endpoint with caps can receive a producer
// with the given consumable parameters.
func canConsume(consumable RtpParameters, caps RtpCapabilities) (bool, error) {
	if err := validateRtpCapabilities(&caps); err != nil {
		return false, err
	}
	for _, codec := range consumable.Codecs {
		if findCapabilityCodec(codec, caps.Codecs) == nil {
			continue
		}
		// The first matching codec decides.
		return !codec.isRtxCodec(), nil
	}
	return false, nil
}

func findCapabilityCodec(codec *RtpCodecParameters, capCodecs []*RtpCodecCapability) *RtpCodecCapability {
	for _, capCodec := range capCodecs {
		if matchCodecs(parametersView(codec), capabilityView(capCodec), true, false) {
			return capCodec
		}
	}
	return nil
}

// getConsumerRtpParameters derives the parameters of one consumer. Codecs
// keep producer order and take the payload type the endpoint prefers, or the
// router's when it has no preference. Header extensions and RTCP feedback are
// reduced to what the endpoint declares. Unless pipe is set, encodings are
// collapsed into a single one.
func getConsumerRtpParameters(consumable RtpParameters, caps RtpCapabilities, pipe bool) (params RtpParameters, err error) {
	for _, capCodec := range caps.Codecs {
		if err = validateRtpCodecCapability(capCodec); err != nil {
			return
		}
	}

	codecs := clone(consumable.Codecs)
	mediaPts := map[uint8]uint8{}

	for _, codec := range codecs {
		if codec.isRtxCodec() {
			continue
		}
		capCodec := findCapabilityCodec(codec, caps.Codecs)
		if capCodec == nil {
			continue
		}
		pt := codec.PayloadType
		if capCodec.PreferredPayloadType != nil {
			pt = *capCodec.PreferredPayloadType
		}
		mediaPts[codec.PayloadType] = pt
	}

	rtxSupported := false

	for _, codec := range codecs {
		capCodec := findCapabilityCodec(codec, caps.Codecs)
		if capCodec == nil {
			continue
		}
		codec.RtcpFeedback = capCodec.RtcpFeedback

		if !codec.isRtxCodec() {
			codec.PayloadType = mediaPts[codec.PayloadType]
			params.Codecs = append(params.Codecs, codec)
			continue
		}

		// RTX without its media codec is useless.
		mediaPt, ok := mediaPts[codec.Parameters.Apt]
		if !ok {
			continue
		}
		rtxSupported = true
		codec.Parameters.Apt = mediaPt

		idx := slices.IndexFunc(caps.Codecs, func(c *RtpCodecCapability) bool {
			return c.isRtxCodec() && c.Parameters.Apt == mediaPt && c.PreferredPayloadType != nil
		})
		if idx >= 0 {
			codec.PayloadType = *caps.Codecs[idx].PreferredPayloadType
		}
		params.Codecs = append(params.Codecs, codec)
	}

	if len(params.Codecs) == 0 || params.Codecs[0].isRtxCodec() {
		err = NewUnsupportedError("%w: no compatible media codecs", ErrCannotConsume)
		return
	}

	for _, ext := range consumable.HeaderExtensions {
		if slices.ContainsFunc(caps.HeaderExtensions, func(c *RtpHeaderExtension) bool {
			return c.PreferredId == ext.Id && c.Uri == ext.Uri
		}) {
			params.HeaderExtensions = append(params.HeaderExtensions, ext)
		}
	}

	// Use transport-cc if available, REMB otherwise.
	var drop func(RtcpFeedback) bool
	switch {
	case hasHeaderExtension(params.HeaderExtensions, extTransportWideCc01):
		drop = func(fb RtcpFeedback) bool { return fb.Type == "goog-remb" }
	case hasHeaderExtension(params.HeaderExtensions, extAbsSendTime):
		drop = func(fb RtcpFeedback) bool { return fb.Type == "transport-cc" }
	default:
		drop = func(fb RtcpFeedback) bool { return fb.Type == "transport-cc" || fb.Type == "goog-remb" }
	}
	for _, codec := range params.Codecs {
		codec.RtcpFeedback = slices.DeleteFunc(slices.Clone(codec.RtcpFeedback), drop)
	}

	params.Rtcp = consumable.Rtcp

	if pipe {
		baseSsrc, baseRtxSsrc := generateSsrc(), generateSsrc()

		for i, encoding := range consumable.Encodings {
			encoding.Ssrc = baseSsrc + uint32(i)
			encoding.Rtx = nil
			if rtxSupported {
				encoding.Rtx = &RtpEncodingRtx{Ssrc: baseRtxSsrc + uint32(i)}
			}
			params.Encodings = append(params.Encodings, encoding)
		}
		return params, nil
	}

	encoding := RtpEncodingParameters{Ssrc: generateSsrc()}
	if rtxSupported {
		encoding.Rtx = &RtpEncodingRtx{Ssrc: encoding.Ssrc + 1}
	}

	// All encodings are assumed to share one scalability mode.
	for _, e := range consumable.Encodings {
		if e.ScalabilityMode != "" {
			encoding.ScalabilityMode = e.ScalabilityMode
			break
		}
	}
	// Simulcast becomes spatial layers of the single consumer stream.
	if n := len(consumable.Encodings); n > 1 {
		temporal := ParseScalabilityMode(encoding.ScalabilityMode).TemporalLayers
		encoding.ScalabilityMode = fmt.Sprintf("S%dT%d", n, temporal)
	}

	for _, e := range consumable.Encodings {
		encoding.MaxBitrate = max(encoding.MaxBitrate, e.MaxBitrate)
	}

	params.Encodings = []RtpEncodingParameters{encoding}

	return params, nil
}

// getPipeConsumerRtpParameters keeps every consumable encoding and drops BWE
// related extensions and feedback. Without enableRtx, RTX and NACK go too.
func getPipeConsumerRtpParameters(consumable RtpParameters, enableRtx bool) (params RtpParameters) {
	params.Rtcp = consumable.Rtcp

	for _, codec := range clone(consumable.Codecs) {
		if !enableRtx && codec.isRtxCodec() {
			continue
		}
		codec.RtcpFeedback = slices.DeleteFunc(codec.RtcpFeedback, func(fb RtcpFeedback) bool {
			keep := (fb.Type == "nack" && fb.Parameter == "pli") ||
				(fb.Type == "ccm" && fb.Parameter == "fir") ||
				(enableRtx && fb.Type == "nack" && fb.Parameter == "")
			return !keep
		})
		params.Codecs = append(params.Codecs, codec)
	}

	for _, ext := range consumable.HeaderExtensions {
		switch ext.Uri {
		case extMid, extAbsSendTime, extTransportWideCc01:
		default:
			params.HeaderExtensions = append(params.HeaderExtensions, ext)
		}
	}

	baseSsrc, baseRtxSsrc := generateSsrc(), generateSsrc()

	for i, encoding := range clone(consumable.Encodings) {
		encoding.Ssrc = baseSsrc + uint32(i)
		encoding.Rtx = nil
		if enableRtx {
			encoding.Rtx = &RtpEncodingRtx{Ssrc: baseRtxSsrc + uint32(i)}
		}
		params.Encodings = append(params.Encodings, encoding)
	}

	return params
}

// codecView is the part of a codec that matching looks at.
type codecView struct {
	mimeType  string
	clockRate uint32
	channels  uint8
	params    *RtpCodecSpecificParameters
}

func capabilityView(c *RtpCodecCapability) codecView {
	return codecView{c.MimeType, c.ClockRate, c.Channels, &c.Parameters}
}

func parametersView(c *RtpCodecParameters) codecView {
	return codecView{c.MimeType, c.ClockRate, c.Channels, &c.Parameters}
}

// matchCodecs compares MIME type, clock rate and channels, plus in strict mode
// the parameters that make codecs incompatible. With modify, a's H264
// profile-level-id is replaced by the negotiated answer.
func matchCodecs(a, b codecView, strict, modify bool) bool {
	mimeType := strings.ToLower(a.mimeType)

	if mimeType != strings.ToLower(b.mimeType) || a.clockRate != b.clockRate {
		return false
	}
	if strings.HasPrefix(mimeType, "audio/") && max(a.channels, 1) != max(b.channels, 1) {
		return false
	}

	switch mimeType {
	case "audio/multiopus":
		if a.params.NumStreams != b.params.NumStreams ||
			a.params.CoupledStreams != b.params.CoupledStreams ||
			a.params.ChannelMapping != b.params.ChannelMapping {
			return false
		}

	case "video/h264", "video/h264-svc":
		if !strict {
			break
		}
		if a.params.PacketizationMode != b.params.PacketizationMode {
			return false
		}
		if !h264.IsSameProfile(a.params.ProfileLevelId, b.params.ProfileLevelId) {
			return false
		}
		answer, err := h264.AnswerProfileLevelId(h264Parameters(a.params), h264Parameters(b.params))
		if err != nil {
			return false
		}
		if modify {
			a.params.ProfileLevelId = answer
		}

	case "video/vp9":
		if strict && a.params.ProfileId != b.params.ProfileId {
			return false
		}
	}

	return true
}

func h264Parameters(p *RtpCodecSpecificParameters) h264.Parameters {
	return h264.Parameters{
		PacketizationMode:     int(p.PacketizationMode),
		ProfileLevelId:        p.ProfileLevelId,
		LevelAsymmetryAllowed: p.LevelAsymmetryAllowed == 1,
	}
}

func hasHeaderExtension(exts []RtpHeaderExtensionParameters, uri string) bool {
	return slices.ContainsFunc(exts, func(ext RtpHeaderExtensionParameters) bool {
		return ext.Uri == uri
	})
}
