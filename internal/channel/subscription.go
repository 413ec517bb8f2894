package channel

import (
	"encoding/json"
	"sync"
)

// Handler receives the notifications addressed to one target id. Payload is
// only set for notifications received on a payload channel.
type Handler func(event string, data json.RawMessage, payload []byte)

// Subscription represents interest in the notifications of one target id.
type Subscription struct {
	TargetId string

	handler Handler
	d       *dispatcher
	once    sync.Once
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() error {
	if s == nil || s.d == nil {
		return ErrBadSubscription
	}
	s.once.Do(func() {
		s.d.remove(s)
	})
	return nil
}
