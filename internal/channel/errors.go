package channel

import (
	"errors"
	"fmt"

	"github.com/sfukit/mediasoup-go/internal/netcodec"
)

var (
	ErrChannelClosed     = errors.New("channel closed")
	ErrMessageTooLong    = netcodec.ErrMessageTooLong
	ErrPayloadTooLong    = errors.New("payload too long")
	ErrRequestTimeout    = errors.New("request timed out")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoData            = errors.New("worker did not return any data in response")
	ErrBadSubscription   = errors.New("invalid subscription")
)

// ResponseError is a request rejected by the worker.
type ResponseError struct {
	Method string
	// Name is the worker side error class, e.g. "TypeError".
	Name   string
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request %q rejected [%s]: %s", e.Method, e.Name, e.Reason)
}

// TimeoutError reports a request the worker did not answer in time. It
// matches both ErrRequestTimeout and ErrChannelClosed so callers that only care
// about "worker unavailable" can test a single sentinel.
type TimeoutError struct {
	Method string
	Id     uint32
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %q timed out [id:%d]", e.Method, e.Id)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout || target == ErrChannelClosed
}
