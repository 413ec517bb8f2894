package channel

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

const (
	DefaultBufferSize    = 64
	DefaultBufferTimeout = time.Second
)

type backlog struct {
	msgs    []Notification
	dropped int
	timer   *time.Timer
}

// dispatcher routes notifications to the subscription registered for their
// target id. Notifications for ids nobody listens to yet are held in a bounded
// backlog and replayed, in arrival order, once the id is subscribed.
type dispatcher struct {
	name          string
	logger        logr.Logger
	bufferSize    int
	bufferTimeout time.Duration

	mu       sync.Mutex
	subs     map[string][]*Subscription
	backlogs map[string]*backlog
	replay   []Notification
	wake     chan struct{}
}

func newDispatcher(name string, logger logr.Logger, bufferSize int, bufferTimeout time.Duration) *dispatcher {
	return &dispatcher{
		name:          name,
		logger:        logger,
		bufferSize:    bufferSize,
		bufferTimeout: bufferTimeout,
		subs:          make(map[string][]*Subscription),
		backlogs:      make(map[string]*backlog),
		wake:          make(chan struct{}, 1),
	}
}

func (d *dispatcher) subscribe(targetId string, handler Handler) *Subscription {
	sub := &Subscription{
		TargetId: targetId,
		handler:  handler,
		d:        d,
	}

	d.mu.Lock()
	d.subs[targetId] = append(d.subs[targetId], sub)
	if b, ok := d.backlogs[targetId]; ok {
		b.timer.Stop()
		delete(d.backlogs, targetId)
		d.replay = append(d.replay, b.msgs...)
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()

	return sub
}

func (d *dispatcher) remove(sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[sub.TargetId]
	if idx := slices.Index(subs, sub); idx >= 0 {
		subs = slices.Delete(subs, idx, idx+1)
	}
	if len(subs) == 0 {
		delete(d.subs, sub.TargetId)
	} else {
		d.subs[sub.TargetId] = subs
	}
}

// flushReplay delivers the notifications released by subscribe, one at a time
// in queue order. It runs on the dispatch goroutine only.
func (d *dispatcher) flushReplay() {
	for {
		d.mu.Lock()
		if len(d.replay) == 0 {
			d.mu.Unlock()
			return
		}
		n := d.replay[0]
		d.replay = d.replay[1:]
		subs := d.route(n)
		d.mu.Unlock()

		for _, sub := range subs {
			d.call(sub, n)
		}
	}
}

func (d *dispatcher) deliver(n Notification) {
	d.mu.Lock()
	// A backlog released after the last flush goes first.
	if len(d.replay) > 0 {
		d.replay = append(d.replay, n)
		d.mu.Unlock()
		d.flushReplay()
		return
	}
	subs := d.route(n)
	d.mu.Unlock()

	for _, sub := range subs {
		d.call(sub, n)
	}
}

// route returns the subscriptions of n's target, buffering n when there are
// none. It must be called with d.mu held.
func (d *dispatcher) route(n Notification) []*Subscription {
	subs := slices.Clone(d.subs[n.TargetId])
	if len(subs) == 0 {
		d.buffer(n)
	}
	return subs
}

// buffer must be called with d.mu held.
func (d *dispatcher) buffer(n Notification) {
	b, ok := d.backlogs[n.TargetId]
	if !ok {
		b = &backlog{}
		d.backlogs[n.TargetId] = b
		targetId := n.TargetId
		b.timer = time.AfterFunc(d.bufferTimeout, func() {
			d.expire(targetId, b)
		})
	}
	if len(b.msgs) >= d.bufferSize {
		b.dropped++
		notificationsDropped.WithLabelValues(d.name, "overflow").Inc()
		d.logger.Error(nil, "notification buffer full, dropping", "targetId", n.TargetId, "event", n.Event)
		return
	}
	b.msgs = append(b.msgs, n)
}

func (d *dispatcher) expire(targetId string, b *backlog) {
	d.mu.Lock()
	if d.backlogs[targetId] != b {
		d.mu.Unlock()
		return
	}
	delete(d.backlogs, targetId)
	d.mu.Unlock()

	notificationsDropped.WithLabelValues(d.name, "expired").Add(float64(len(b.msgs)))

	events := make([]string, 0, len(b.msgs))
	for _, n := range b.msgs {
		events = append(events, n.Event)
	}
	d.logger.Info("dropping notifications for unknown target", "targetId", targetId, "events", events, "overflow", b.dropped)
}

func (d *dispatcher) call(sub *Subscription, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(fmt.Errorf("%v", r), "notification handler panic",
				"targetId", n.TargetId, "event", n.Event, "stack", string(debug.Stack()))
		}
	}()
	sub.handler(n.Event, n.Data, n.Payload)
}

// pending reports how many notifications are buffered for targetId.
func (d *dispatcher) pending(targetId string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if b, ok := d.backlogs[targetId]; ok {
		return len(b.msgs)
	}
	return 0
}
