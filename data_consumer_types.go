package mediasoup

// DataConsumerOptions define options to create a DataConsumer.
type DataConsumerOptions struct {
	// DataProducerId is the id of the DataProducer to consume.
	DataProducerId string `json:"dataProducerId,omitempty"`

	// Ordered define just if consuming over SCTP.
	// Whether data messages must be received in order. If true the messages will
	// be sent reliably. Defaults to the value in the DataProducer if it has type
	// "sctp" or to true if it has type "direct".
	Ordered *bool `json:"ordered,omitempty"`

	// MaxPacketLifeTime define just if consuming over SCTP.
	// When ordered is false indicates the time (in milliseconds) after which a
	// SCTP packet will stop being retransmitted. Defaults to the value in the
	// DataProducer if it has type 'sctp' or unset if it has type 'direct'.
	MaxPacketLifeTime uint16 `json:"maxPacketLifeTime,omitempty"`

	// MaxRetransmits define just if consuming over SCTP.
	// When ordered is false indicates the maximum number of times a packet will
	// be retransmitted. Defaults to the value in the DataProducer if it has type
	// 'sctp' or unset if it has type 'direct'.
	MaxRetransmits uint16 `json:"maxRetransmits,omitempty"`

	// Paused indicates whether the data consumer must start in paused mode. Default false.
	Paused bool `json:"paused,omitempty"`

	// AppData is custom application data.
	AppData H `json:"appData,omitempty"`
}

// DataConsumerType define DataConsumer type.
type DataConsumerType string

const (
	DataConsumerSctp   DataConsumerType = "sctp"
	DataConsumerDirect DataConsumerType = "direct"
)

// DataConsumerDump define the dump info for DataConsumer.
type DataConsumerDump struct {
	Id                         string                `json:"id,omitempty"`
	Paused                     bool                  `json:"paused,omitempty"`
	DataProducerPaused         bool                  `json:"dataProducerPaused,omitempty"`
	DataProducerId             string                `json:"dataProducerId,omitempty"`
	Type                       DataConsumerType      `json:"type,omitempty"`
	SctpStreamParameters       *SctpStreamParameters `json:"sctpStreamParameters,omitempty"`
	Label                      string                `json:"label,omitempty"`
	Protocol                   string                `json:"protocol,omitempty"`
	BufferedAmountLowThreshold uint32                `json:"bufferedAmountLowThreshold,omitempty"`
}

// DataConsumerStat define the statistic info for DataConsumer.
type DataConsumerStat struct {
	Type           string `json:"type,omitempty"`
	Timestamp      uint64 `json:"timestamp,omitempty"`
	Label          string `json:"label,omitempty"`
	Protocol       string `json:"protocol,omitempty"`
	MessagesSent   uint64 `json:"messagesSent,omitempty"`
	BytesSent      uint64 `json:"bytesSent,omitempty"`
	BufferedAmount uint32 `json:"bufferedAmount,omitempty"`
}

// DataConsumerMessage is "message" event data.
type DataConsumerMessage struct {
	Data []byte
	Ppid SctpPayloadType
}

// Text reports whether the message was sent as a string.
func (m DataConsumerMessage) Text() bool {
	return m.Ppid == PpidString || m.Ppid == PpidEmptyString
}

// Payload returns the message bytes, empty for the "empty" PPIDs.
func (m DataConsumerMessage) Payload() []byte {
	if m.Ppid == PpidEmptyString || m.Ppid == PpidEmptyBinary {
		return nil
	}
	return m.Data
}
