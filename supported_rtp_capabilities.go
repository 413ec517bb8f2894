package mediasoup

var (
	audioFeedback = []RtcpFeedback{{Type: "transport-cc"}}
	videoFeedback = []RtcpFeedback{
		{Type: "nack"},
		{Type: "nack", Parameter: "pli"},
		{Type: "ccm", Parameter: "fir"},
		{Type: "goog-remb"},
		{Type: "transport-cc"},
	}
)

func audioCodec(mimeType string, clockRate uint32, pt *uint8, feedback bool) *RtpCodecCapability {
	c := &RtpCodecCapability{
		Kind:                 MediaKindAudio,
		MimeType:             mimeType,
		PreferredPayloadType: pt,
		ClockRate:            clockRate,
	}
	if feedback {
		c.RtcpFeedback = audioFeedback
	}
	return c
}

func multiopus(channels uint8, mapping string, streams, coupled uint8) *RtpCodecCapability {
	return &RtpCodecCapability{
		Kind:      MediaKindAudio,
		MimeType:  "audio/multiopus",
		ClockRate: 48000,
		Channels:  channels,
		Parameters: RtpCodecSpecificParameters{
			ChannelMapping: mapping,
			NumStreams:     streams,
			CoupledStreams: coupled,
		},
		RtcpFeedback: audioFeedback,
	}
}

func videoCodec(mimeType string, params RtpCodecSpecificParameters) *RtpCodecCapability {
	return &RtpCodecCapability{
		Kind:         MediaKindVideo,
		MimeType:     mimeType,
		ClockRate:    90000,
		Parameters:   params,
		RtcpFeedback: videoFeedback,
	}
}

func headerExtension(kind MediaKind, uri string, id uint8, dir MediaDirection) *RtpHeaderExtension {
	return &RtpHeaderExtension{Kind: kind, Uri: uri, PreferredId: id, Direction: dir}
}

const (
	extMid               = "urn:ietf:params:rtp-hdrext:sdes:mid"
	extRtpStreamId       = "urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id"
	extRepairedStreamId  = "urn:ietf:params:rtp-hdrext:sdes:repaired-rtp-stream-id"
	extAbsSendTime       = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"
	extTransportWideCc01 = "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01"
	extAudioLevel        = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"
	extVideoOrientation  = "urn:3gpp:video-orientation"
	extToffset           = "urn:ietf:params:rtp-hdrext:toffset"
	extAbsCaptureTime    = "http://www.webrtc.org/experiments/rtp-hdrext/abs-capture-time"
	extPlayoutDelay      = "http://www.webrtc.org/experiments/rtp-hdrext/playout-delay"
)

var supportedRtpCapabilities = RtpCapabilities{
	Codecs: []*RtpCodecCapability{
		{
			Kind:         MediaKindAudio,
			MimeType:     "audio/opus",
			ClockRate:    48000,
			Channels:     2,
			RtcpFeedback: audioFeedback,
		},
		multiopus(4, "0,1,2,3", 2, 2),
		multiopus(6, "0,4,1,2,3,5", 4, 2),
		multiopus(8, "0,6,1,2,3,4,5,7", 5, 3),
		audioCodec("audio/PCMU", 8000, Uint8(0), true),
		audioCodec("audio/PCMA", 8000, Uint8(8), true),
		audioCodec("audio/ISAC", 32000, nil, true),
		audioCodec("audio/ISAC", 16000, nil, true),
		audioCodec("audio/G722", 8000, Uint8(9), true),
		audioCodec("audio/iLBC", 8000, nil, true),
		audioCodec("audio/SILK", 24000, nil, true),
		audioCodec("audio/SILK", 16000, nil, true),
		audioCodec("audio/SILK", 12000, nil, true),
		audioCodec("audio/SILK", 8000, nil, true),
		audioCodec("audio/CN", 32000, Uint8(13), false),
		audioCodec("audio/CN", 16000, Uint8(13), false),
		audioCodec("audio/CN", 8000, Uint8(13), false),
		audioCodec("audio/telephone-event", 48000, nil, false),
		audioCodec("audio/telephone-event", 32000, nil, false),
		audioCodec("audio/telephone-event", 16000, nil, false),
		audioCodec("audio/telephone-event", 8000, nil, false),
		videoCodec("video/VP8", RtpCodecSpecificParameters{}),
		videoCodec("video/VP9", RtpCodecSpecificParameters{}),
		videoCodec("video/H264", RtpCodecSpecificParameters{LevelAsymmetryAllowed: 1}),
		videoCodec("video/H264-SVC", RtpCodecSpecificParameters{LevelAsymmetryAllowed: 1}),
		videoCodec("video/H265", RtpCodecSpecificParameters{LevelAsymmetryAllowed: 1}),
		videoCodec("video/AV1", RtpCodecSpecificParameters{}),
	},
	HeaderExtensions: []*RtpHeaderExtension{
		headerExtension(MediaKindAudio, extMid, 1, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extMid, 1, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extRtpStreamId, 2, MediaDirectionRecvonly),
		headerExtension(MediaKindVideo, extRepairedStreamId, 3, MediaDirectionRecvonly),
		headerExtension(MediaKindAudio, extAbsSendTime, 4, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extAbsSendTime, 4, MediaDirectionSendrecv),
		// Audio only uses transport-wide-cc-01 when receiving.
		headerExtension(MediaKindAudio, extTransportWideCc01, 5, MediaDirectionRecvonly),
		headerExtension(MediaKindVideo, extTransportWideCc01, 5, MediaDirectionSendrecv),
		headerExtension(MediaKindAudio, extAudioLevel, 10, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extVideoOrientation, 11, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extToffset, 12, MediaDirectionSendrecv),
		headerExtension(MediaKindAudio, extAbsCaptureTime, 13, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extAbsCaptureTime, 13, MediaDirectionSendrecv),
		headerExtension(MediaKindAudio, extPlayoutDelay, 14, MediaDirectionSendrecv),
		headerExtension(MediaKindVideo, extPlayoutDelay, 14, MediaDirectionSendrecv),
	},
}

// GetSupportedRtpCapabilities returns a copy of the RTP capabilities supported
// by the worker.
func GetSupportedRtpCapabilities() RtpCapabilities {
	return clone(supportedRtpCapabilities)
}
