package mediasoup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testMediaCodecs() []*RtpCodecCapability {
	return []*RtpCodecCapability{
		{
			Kind:      MediaKindAudio,
			MimeType:  "audio/opus",
			ClockRate: 48000,
			Channels:  2,
		},
		{
			Kind:      MediaKindVideo,
			MimeType:  "video/VP8",
			ClockRate: 90000,
		},
		{
			Kind:      MediaKindVideo,
			MimeType:  "video/H264",
			ClockRate: 90000,
			Parameters: RtpCodecSpecificParameters{
				LevelAsymmetryAllowed: 1,
				PacketizationMode:     1,
				ProfileLevelId:        "4d0032",
			},
		},
	}
}

func CreateRouter(t *testing.T, worker *Worker) *Router {
	t.Helper()

	router, err := worker.CreateRouter(context.Background(), RouterOptions{
		MediaCodecs: testMediaCodecs(),
	})
	require.NoError(t, err)
	return router
}

func CreateWebRtcTransport(t *testing.T, router *Router, enableSctp bool) *WebRtcTransport {
	t.Helper()

	transport, err := router.CreateWebRtcTransport(context.Background(), WebRtcTransportOptions{
		ListenInfos: []TransportListenInfo{
			{Protocol: TransportProtocolUDP, Ip: "127.0.0.1", AnnouncedAddress: "9.9.9.1"},
		},
		EnableSctp: enableSctp,
	})
	require.NoError(t, err)
	return transport
}

func CreateDirectTransport(t *testing.T, router *Router) *DirectTransport {
	t.Helper()

	transport, err := router.CreateDirectTransport(context.Background(), DirectTransportOptions{})
	require.NoError(t, err)
	return transport
}

func audioProducerOptions() ProducerOptions {
	return ProducerOptions{
		Kind: MediaKindAudio,
		RtpParameters: &RtpParameters{
			Mid: "AUDIO",
			Codecs: []*RtpCodecParameters{
				{
					MimeType:    "audio/opus",
					PayloadType: 111,
					ClockRate:   48000,
					Channels:    2,
					Parameters: RtpCodecSpecificParameters{
						Useinbandfec: 1,
						Usedtx:       1,
					},
				},
			},
			HeaderExtensions: []RtpHeaderExtensionParameters{
				{Uri: extMid, Id: 10},
				{Uri: extAudioLevel, Id: 12},
			},
			Encodings: []RtpEncodingParameters{{Ssrc: 11111111, Dtx: true}},
			Rtcp:      RtcpParameters{Cname: "audio-1"},
		},
		AppData: H{"foo": 1, "bar": "2"},
	}
}

func videoProducerOptions() ProducerOptions {
	return ProducerOptions{
		Kind: MediaKindVideo,
		RtpParameters: &RtpParameters{
			Mid: "VIDEO",
			Codecs: []*RtpCodecParameters{
				{
					MimeType:    "video/h264",
					PayloadType: 112,
					ClockRate:   90000,
					Parameters: RtpCodecSpecificParameters{
						PacketizationMode: 1,
						ProfileLevelId:    "4d0032",
					},
					RtcpFeedback: []RtcpFeedback{
						{Type: "nack"},
						{Type: "nack", Parameter: "pli"},
						{Type: "goog-remb"},
					},
				},
				{
					MimeType:    "video/rtx",
					PayloadType: 113,
					ClockRate:   90000,
					Parameters:  RtpCodecSpecificParameters{Apt: 112},
				},
			},
			HeaderExtensions: []RtpHeaderExtensionParameters{
				{Uri: extMid, Id: 10},
				{Uri: extVideoOrientation, Id: 13},
			},
			Encodings: []RtpEncodingParameters{
				{Ssrc: 22222222, Rtx: &RtpEncodingRtx{Ssrc: 22222223}},
				{Ssrc: 22222224, Rtx: &RtpEncodingRtx{Ssrc: 22222225}},
				{Ssrc: 22222226, Rtx: &RtpEncodingRtx{Ssrc: 22222227}},
				{Ssrc: 22222228, Rtx: &RtpEncodingRtx{Ssrc: 22222229}},
			},
			Rtcp: RtcpParameters{Cname: "video-1"},
		},
		AppData: H{"foo": 1, "bar": "2"},
	}
}

func CreateAudioProducer(t *testing.T, transport Transport) *Producer {
	t.Helper()

	producer, err := transport.Produce(context.Background(), audioProducerOptions())
	require.NoError(t, err)
	return producer
}

func CreateVideoProducer(t *testing.T, transport Transport) *Producer {
	t.Helper()

	producer, err := transport.Produce(context.Background(), videoProducerOptions())
	require.NoError(t, err)
	return producer
}

func CreateDataProducer(t *testing.T, transport Transport) *DataProducer {
	t.Helper()

	options := DataProducerOptions{
		Label:    "foo",
		Protocol: "bar",
		AppData:  H{"foo": 1, "bar": "2"},
	}
	if transport.Type() != TransportDirect {
		options.SctpStreamParameters = &SctpStreamParameters{
			StreamId:       666,
			MaxRetransmits: 3,
			Ordered:        Bool(false),
		}
	}
	dataProducer, err := transport.ProduceData(context.Background(), options)
	require.NoError(t, err)
	return dataProducer
}

// consumerDeviceCapabilities are the RTP capabilities of a receiving
// endpoint supporting opus and H264.
func consumerDeviceCapabilities() *RtpCapabilities {
	caps := newTestDeviceCapabilities()
	return &caps
}
