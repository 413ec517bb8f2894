package channel

import (
	"encoding/json"
	"strings"
)

const MaxRequestId = 4294967295

// Internal addresses the worker side handler of a request.
type Internal struct {
	RouterId       string `json:"routerId,omitempty"`
	TransportId    string `json:"transportId,omitempty"`
	ProducerId     string `json:"producerId,omitempty"`
	ConsumerId     string `json:"consumerId,omitempty"`
	DataProducerId string `json:"dataProducerId,omitempty"`
	DataConsumerId string `json:"dataConsumerId,omitempty"`
	RtpObserverId  string `json:"rtpObserverId,omitempty"`
	WebRtcServerId string `json:"webRtcServerId,omitempty"`
}

type request struct {
	Id       uint32   `json:"id"`
	Method   string   `json:"method"`
	Internal Internal `json:"internal"`
	Data     any      `json:"data,omitempty"`
}

type outgoingNotification struct {
	Event    string   `json:"event"`
	Internal Internal `json:"internal"`
	Data     any      `json:"data,omitempty"`
}

// incoming covers responses and notifications; which one it is depends on the
// presence of Id.
type incoming struct {
	Id       *uint32         `json:"id"`
	Accepted bool            `json:"accepted"`
	Error    json.RawMessage `json:"error"`
	Reason   string          `json:"reason"`
	TargetId json.RawMessage `json:"targetId"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// targetIdString accepts both string ids and numeric ones (the worker pid).
func targetIdString(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}

func errorName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil && name != "" {
		return name
	}
	return "Error"
}

// Notification is one unsolicited worker message.
type Notification struct {
	TargetId string
	Event    string
	Data     json.RawMessage
	Payload  []byte
}

// Response holds the data of an accepted request.
type Response struct {
	data json.RawMessage
}

func (r Response) Data() json.RawMessage {
	return r.data
}

func (r Response) Empty() bool {
	return len(r.data) == 0 || string(r.data) == "null"
}

// Unmarshal decodes the response data into v.
func (r Response) Unmarshal(v any) error {
	if r.Empty() {
		return ErrNoData
	}
	if err := json.Unmarshal(r.data, v); err != nil {
		return &malformedError{err: err}
	}
	return nil
}

type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return ErrMalformedResponse.Error() + ": " + e.err.Error() }

func (e *malformedError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *malformedError) Unwrap() error { return e.err }
