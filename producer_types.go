package mediasoup

// ProducerOptions define options to create a producer.
type ProducerOptions struct {
	// Id is the producer id (just for Router.PipeToRouter method).
	Id string `json:"id,omitempty"`

	// Kind is media kind ("audio" or "video").
	Kind MediaKind `json:"kind,omitempty"`

	// RtpParameters define what the endpoint is sending.
	RtpParameters *RtpParameters `json:"rtpParameters,omitempty"`

	// Paused define whether the producer must start in paused mode. Default false.
	Paused bool `json:"paused,omitempty"`

	// KeyFrameRequestDelay is just used for video. Time (in ms) before asking
	// the sender for a new key frame after having asked a previous one. Default 0.
	KeyFrameRequestDelay uint32 `json:"keyFrameRequestDelay,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// ProducerScore define "score" event data
type ProducerScore struct {
	// Index of the RTP stream in the rtpParameters.encodings array.
	EncodingIdx uint32 `json:"encodingIdx"`

	// Rid of the RTP stream.
	Rid string `json:"rid,omitempty"`

	// Ssrc of the RTP stream.
	Ssrc uint32 `json:"ssrc"`

	// Score of the RTP stream.
	Score uint8 `json:"score"`
}

// ProducerVideoOrientation define "videoorientationchange" event data
type ProducerVideoOrientation struct {
	// Camera define whether the source is a video camera.
	Camera bool `json:"camera,omitempty"`

	// Flip define whether the video source is flipped.
	Flip bool `json:"flip,omitempty"`

	// Rotation degrees (0, 90, 180 or 270).
	Rotation uint16 `json:"rotation"`
}

// ProducerType define Producer type.
type ProducerType string

const (
	ProducerSimple    ProducerType = "simple"
	ProducerSimulcast ProducerType = "simulcast"
	ProducerSvc       ProducerType = "svc"
	ProducerPipe      ProducerType = "pipe"
)

// producerTypeOf derives the type the worker assigns to a producer from its
// encodings.
func producerTypeOf(params *RtpParameters) ProducerType {
	if len(params.Encodings) > 1 {
		return ProducerSimulcast
	}
	if len(params.Encodings) == 1 {
		mode := ParseScalabilityMode(params.Encodings[0].ScalabilityMode)
		if mode.SpatialLayers > 1 || mode.TemporalLayers > 1 {
			return ProducerSvc
		}
	}
	return ProducerSimple
}

type ProducerDump struct {
	Id              string                   `json:"id,omitempty"`
	Kind            MediaKind                `json:"kind,omitempty"`
	Type            ProducerType             `json:"type,omitempty"`
	RtpParameters   *RtpParameters           `json:"rtpParameters,omitempty"`
	RtpMapping      *RtpMapping              `json:"rtpMapping,omitempty"`
	RtpStreams      []*RtpStreamDump         `json:"rtpStreams,omitempty"`
	TraceEventTypes []ProducerTraceEventType `json:"traceEventTypes,omitempty"`
	Paused          bool                     `json:"paused,omitempty"`
}

// ProducerTraceEventType define the type for "trace" event.
type ProducerTraceEventType string

const (
	ProducerTraceEventRtp      ProducerTraceEventType = "rtp"
	ProducerTraceEventKeyframe ProducerTraceEventType = "keyframe"
	ProducerTraceEventNack     ProducerTraceEventType = "nack"
	ProducerTraceEventPli      ProducerTraceEventType = "pli"
	ProducerTraceEventFir      ProducerTraceEventType = "fir"
	ProducerTraceEventSr       ProducerTraceEventType = "sr"
)

// ProducerTraceEventData is "trace" event data.
type ProducerTraceEventData struct {
	Type      ProducerTraceEventType `json:"type,omitempty"`
	Timestamp uint64                 `json:"timestamp,omitempty"`
	// Direction is "in" or "out".
	Direction string `json:"direction,omitempty"`

	// Info is one of *RtpTraceInfo, *KeyFrameTraceInfo, *FirTraceInfo,
	// *PliTraceInfo or *SrTraceInfo, decoded after the event type. Unknown
	// types carry the raw H.
	Info any `json:"info,omitempty"`
}

// ProducerStat define the statistic info of a producer
type ProducerStat = RtpStreamRecvStats
