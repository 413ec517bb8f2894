package mediasoup

// ConsumerOptions define options to create a Consumer.
type ConsumerOptions struct {
	// ProducerId is the id of the Producer to consume.
	ProducerId string `json:"producerId,omitempty"`

	// RtpCapabilities are the RTP capabilities of the consuming endpoint.
	RtpCapabilities *RtpCapabilities `json:"rtpCapabilities,omitempty"`

	// Paused define whether the consumer must start in paused mode. Default false.
	//
	// When creating a video consumer, it's recommended to set paused to true,
	// then transmit the consumer parameters to the consuming endpoint and, once
	// it has created its local side consumer, unpause the server side consumer
	// using Resume. This is an optimization to make it possible for the
	// consuming endpoint to render the video as far as possible. If the server
	// side consumer was created with paused false, mediasoup will immediately
	// request a key frame to the remote producer and such a key frame may reach
	// the consuming endpoint even before it's ready to consume it, generating
	// "black" video until the device requests a keyframe by itself.
	Paused bool `json:"paused,omitempty"`

	// Mid is the MID for the Consumer. If not specified, a sequentially growing
	// number will be assigned.
	Mid string `json:"mid,omitempty"`

	// PreferredLayers define preferred spatial and temporal layer for simulcast
	// or SVC media sources. If unset, the highest ones are selected.
	PreferredLayers *ConsumerLayers `json:"preferredLayers,omitempty"`

	// IgnoreDtx define whether this Consumer should ignore DTX packets (only
	// valid for Opus codec). If set, DTX packets are not forwarded to the
	// remote Consumer.
	IgnoreDtx bool `json:"ignoreDtx,omitempty"`

	// Pipe define whether this Consumer should consume all RTP streams
	// generated by the Producer.
	Pipe bool `json:"pipe,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// ConsumerType define Consumer type.
type ConsumerType string

const (
	ConsumerSimple    ConsumerType = "simple"
	ConsumerSimulcast ConsumerType = "simulcast"
	ConsumerSvc       ConsumerType = "svc"
	ConsumerPipe      ConsumerType = "pipe"
)

// ConsumerScore define "score" event data.
type ConsumerScore struct {
	// Score of the RTP stream of the consumer.
	Score uint8 `json:"score"`

	// ProducerScore is the score of the currently selected RTP stream of the
	// producer.
	ProducerScore uint8 `json:"producerScore"`

	// ProducerScores are the scores of all RTP streams in the producer ordered
	// by encoding (just useful when the producer uses simulcast).
	ProducerScores []uint8 `json:"producerScores,omitempty"`
}

// ConsumerLayers define "layerschange" event data.
type ConsumerLayers struct {
	// SpatialLayer is the spatial layer index (from 0 to N).
	SpatialLayer uint8 `json:"spatialLayer"`

	// TemporalLayer is the temporal layer index (from 0 to N).
	TemporalLayer *uint8 `json:"temporalLayer,omitempty"`
}

// ConsumerTraceEventType define the type for "trace" event.
type ConsumerTraceEventType string

const (
	ConsumerTraceEventRtp      ConsumerTraceEventType = "rtp"
	ConsumerTraceEventKeyframe ConsumerTraceEventType = "keyframe"
	ConsumerTraceEventNack     ConsumerTraceEventType = "nack"
	ConsumerTraceEventPli      ConsumerTraceEventType = "pli"
	ConsumerTraceEventFir      ConsumerTraceEventType = "fir"
)

// ConsumerTraceEventData is "trace" event data.
type ConsumerTraceEventData struct {
	Type      ConsumerTraceEventType `json:"type,omitempty"`
	Timestamp uint64                 `json:"timestamp,omitempty"`
	Direction string                 `json:"direction,omitempty"`
	Info      any                    `json:"info,omitempty"`
}

type ConsumerDump struct {
	Id                         string                   `json:"id,omitempty"`
	ProducerId                 string                   `json:"producerId,omitempty"`
	Kind                       MediaKind                `json:"kind,omitempty"`
	Type                       ConsumerType             `json:"type,omitempty"`
	RtpParameters              *RtpParameters           `json:"rtpParameters,omitempty"`
	ConsumableRtpEncodings     []RtpEncodingParameters  `json:"consumableRtpEncodings,omitempty"`
	SupportedCodecPayloadTypes []uint8                  `json:"supportedCodecPayloadTypes,omitempty"`
	TraceEventTypes            []ConsumerTraceEventType `json:"traceEventTypes,omitempty"`
	Paused                     bool                     `json:"paused,omitempty"`
	ProducerPaused             bool                     `json:"producerPaused,omitempty"`
	Priority                   uint8                    `json:"priority,omitempty"`
	RtpStreams                 []*RtpStreamDump         `json:"rtpStreams,omitempty"`
	PreferredSpatialLayer      *int16                   `json:"preferredSpatialLayer,omitempty"`
	TargetSpatialLayer         *int16                   `json:"targetSpatialLayer,omitempty"`
	CurrentSpatialLayer        *int16                   `json:"currentSpatialLayer,omitempty"`
	PreferredTemporalLayer     *int16                   `json:"preferredTemporalLayer,omitempty"`
	TargetTemporalLayer        *int16                   `json:"targetTemporalLayer,omitempty"`
	CurrentTemporalLayer       *int16                   `json:"currentTemporalLayer,omitempty"`
}

// ConsumerStat holds the send stats of the consumer and, for non pipe
// consumers, the recv stats of the selected producer stream.
type ConsumerStat = RtpStreamSendStats
