package mediasoup

// RouterOptions defines the configuration parameters for creating a new Router instance.
type RouterOptions struct {
	// MediaCodecs defines Router media codecs.
	MediaCodecs []*RtpCodecCapability `json:"mediaCodecs,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// PipeToRouterOptions defines options to pipe a Producer or DataProducer to
// another Router. Exactly one of ProducerId and DataProducerId must be set.
type PipeToRouterOptions struct {
	// ProducerId is the id of the Producer to consume.
	ProducerId string

	// DataProducerId is the id of the DataProducer to consume.
	DataProducerId string

	// Router is the target Router instance.
	Router *Router

	// ListenInfo is the listening information of both pipe transports.
	// Default 127.0.0.1 over UDP.
	ListenInfo TransportListenInfo

	// EnableSctp creates a SCTP association. Default true.
	EnableSctp *bool

	// NumSctpStreams configures SCTP streams.
	NumSctpStreams *NumSctpStreams

	// EnableRtx enables RTX and NACK for RTP retransmission.
	EnableRtx bool

	// EnableSrtp enables SRTP.
	EnableSrtp bool
}

// PipeToRouterResult contains the result of piping router.
type PipeToRouterResult struct {
	// PipeConsumer is the Consumer created in the current Router.
	PipeConsumer *Consumer

	// PipeProducer is the Producer created in the target Router.
	PipeProducer *Producer

	// PipeDataConsumer is the DataConsumer created in the current Router.
	PipeDataConsumer *DataConsumer

	// PipeDataProducer is the DataProducer created in the target Router.
	PipeDataProducer *DataProducer
}

// RouterDump represents the dump of a Router.
type RouterDump struct {
	// The Router id.
	Id string `json:"id,omitempty"`

	// Id of Transports.
	TransportIds []string `json:"transportIds,omitempty"`

	// Id of RtpObservers.
	RtpObserverIds []string `json:"rtpObserverIds,omitempty"`

	// Producer id and its respective Consumer ids.
	MapProducerIdConsumerIds map[string][]string `json:"mapProducerIdConsumerIds,omitempty"`

	// Consumer id and its Producer id.
	MapConsumerIdProducerId map[string]string `json:"mapConsumerIdProducerId,omitempty"`

	// Producer id and its respective Observer ids.
	MapProducerIdObserverIds map[string][]string `json:"mapProducerIdObserverIds,omitempty"`

	// DataProducer id and its respective DataConsumer ids.
	MapDataProducerIdDataConsumerIds map[string][]string `json:"mapDataProducerIdDataConsumerIds,omitempty"`

	// DataConsumer id and its DataProducer id.
	MapDataConsumerIdDataProducerId map[string]string `json:"mapDataConsumerIdDataProducerId,omitempty"`
}
