package mediasoup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

// closeRequestTimeout bounds the fire-and-forget close requests.
const closeRequestTimeout = 5 * time.Second

// lifecycle is the closed flag and close related events shared by every
// entity. Descendants register their ancestor-close hook in children; the
// owner drains it once, after its own close handlers ran.
type lifecycle struct {
	closed   atomic.Bool
	closeBag Bag[func()]
	children Bag[func()]

	mu    sync.Mutex
	links []*Subscription
}

// Closed reports whether the entity is closed.
func (l *lifecycle) Closed() bool {
	return l.closed.Load()
}

// OnClose registers a handler for the close event. On an already closed
// entity the handler runs right away.
func (l *lifecycle) OnClose(handler func()) *Subscription {
	return addOrCall(&l.closeBag, handler)
}

func (l *lifecycle) markClosed() bool {
	return l.closed.CompareAndSwap(false, true)
}

// link ties sub to the entity lifetime: it is released on close. Linking to
// a closed entity releases sub right away.
func (l *lifecycle) link(sub *Subscription) {
	l.mu.Lock()
	if !l.closed.Load() {
		l.links = append(l.links, sub)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	sub.Unsubscribe()
}

// fireClose runs the close handlers and detaches from the parents.
func (l *lifecycle) fireClose() {
	fireOnce(&l.closeBag)

	l.mu.Lock()
	links := l.links
	l.links = nil
	l.mu.Unlock()

	for _, sub := range links {
		sub.Unsubscribe()
	}
}

// closeChildren cascades the close into every registered descendant.
func (l *lifecycle) closeChildren() {
	fireOnce(&l.children)
}

// adopt registers hook to run when this entity closes. A child created
// while its parent is closing is closed right away.
func (l *lifecycle) adopt(hook func()) *Subscription {
	return addOrCall(&l.children, hook)
}

// sendCloseRequest issues a close request without waiting for its outcome.
// The local entity is already gone, so failures are only logged.
func sendCloseRequest(ch *channel.Channel, logger logr.Logger, method string, internal channel.Internal, data any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeRequestTimeout)
		defer cancel()

		if _, err := ch.Request(ctx, method, internal, data); err != nil {
			logger.Error(err, "close request failed", "method", method)
		}
	}()
}

// request sends method and decodes the response data into a new T.
func request[T any](ctx context.Context, ch *channel.Channel, method string, internal channel.Internal, data any) (*T, error) {
	resp, err := ch.Request(ctx, method, internal, data)
	if err != nil {
		return nil, err
	}
	var v T
	if err := resp.Unmarshal(&v); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return &v, nil
}

// notifications are the channel subscriptions of one entity, released when
// it closes.
type notifications []*channel.Subscription

func (n notifications) unsubscribe() {
	for _, sub := range n {
		sub.Unsubscribe()
	}
}

// decode unmarshals notification data, logging malformed messages.
func decode(logger logr.Logger, event string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		logger.Error(err, "invalid notification data", "event", event)
		return false
	}
	return true
}
