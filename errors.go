package mediasoup

import (
	"errors"
	"fmt"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

var (
	ErrWorkerStartTimeout   = errors.New("worker start timed out")
	ErrWorkerClosed         = errors.New("worker closed")
	ErrRouterClosed         = errors.New("router closed")
	ErrTransportClosed      = errors.New("transport closed")
	ErrProducerClosed       = errors.New("producer closed")
	ErrDataProducerClosed   = errors.New("data producer closed")
	ErrWebRtcServerClosed   = errors.New("webrtc server closed")
	ErrCannotConsume        = errors.New("cannot consume")
	ErrDuplicateId          = errors.New("duplicate id")
	ErrProducerNotFound     = errors.New("producer not found")
	ErrDataProducerNotFound = errors.New("data producer not found")
	ErrNotSupported         = errors.New("operation not supported by this transport")

	ErrChannelClosed     = channel.ErrChannelClosed
	ErrMessageTooLong    = channel.ErrMessageTooLong
	ErrPayloadTooLong    = channel.ErrPayloadTooLong
	ErrRequestTimeout    = channel.ErrRequestTimeout
	ErrMalformedResponse = channel.ErrMalformedResponse
	ErrNoData            = channel.ErrNoData
)

// ResponseError is a request the worker rejected.
type ResponseError = channel.ResponseError

// TypeError reports invalid options, detected before anything reaches the
// worker.
type TypeError struct {
	msg string
	err error
}

func NewTypeError(format string, args ...any) *TypeError {
	err := fmt.Errorf(format, args...)
	return &TypeError{msg: err.Error(), err: errors.Unwrap(err)}
}

func (e *TypeError) Error() string { return e.msg }

func (e *TypeError) Unwrap() error { return e.err }

// UnsupportedError reports capabilities that cannot be satisfied, such as a
// codec the router does not support.
type UnsupportedError struct {
	msg string
	err error
}

func NewUnsupportedError(format string, args ...any) *UnsupportedError {
	err := fmt.Errorf(format, args...)
	return &UnsupportedError{msg: err.Error(), err: errors.Unwrap(err)}
}

func (e *UnsupportedError) Error() string { return e.msg }

func (e *UnsupportedError) Unwrap() error { return e.err }
