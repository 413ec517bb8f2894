package mediasoup

import (
	"sync"
	"sync/atomic"
)

// Subscription is returned by every On* method. Unsubscribe removes the
// handler; Detach gives up the ability to do so, leaving the handler
// registered for the lifetime of the emitter.
type Subscription struct {
	remove   func()
	once     sync.Once
	detached atomic.Bool
}

// Unsubscribe removes the handler. It is safe to call more than once and on a
// nil Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.remove == nil || s.detached.Load() {
		return
	}
	s.once.Do(s.remove)
}

// Detach makes later Unsubscribe calls no-ops.
func (s *Subscription) Detach() {
	if s != nil {
		s.detached.Store(true)
	}
}

type bagEntry[F any] struct {
	id uint64
	f  F
}

// Bag is a set of handlers of one event. Handlers run outside the bag's lock,
// so a handler may subscribe or unsubscribe without deadlocking, but changes
// only take effect for the next emission.
type Bag[F any] struct {
	mu      sync.Mutex
	nextId  uint64
	entries []bagEntry[F]
	drained bool
}

// Add registers f and returns the subscription controlling it.
func (b *Bag[F]) Add(f F) *Subscription {
	sub, ok := b.TryAdd(f)
	if !ok {
		return &Subscription{}
	}
	return sub
}

// TryAdd is Add that reports false, without registering f, once the bag was
// drained by CallOnceAndClear.
func (b *Bag[F]) TryAdd(f F) (*Subscription, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.drained {
		return nil, false
	}
	b.nextId++
	id := b.nextId
	b.entries = append(b.entries, bagEntry[F]{id: id, f: f})

	return &Subscription{remove: func() { b.remove(id) }}, true
}

func (b *Bag[F]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			return
		}
	}
}

func (b *Bag[F]) snapshot(clear bool) []bagEntry[F] {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.entries
	if clear {
		b.entries = nil
		b.drained = true
	} else {
		entries = append([]bagEntry[F](nil), entries...)
	}
	return entries
}

// CallAll invokes call for every handler registered at the time of the call.
func (b *Bag[F]) CallAll(call func(F)) {
	for _, e := range b.snapshot(false) {
		call(e.f)
	}
}

// CallOnceAndClear drains the bag and invokes call once per handler. Later
// Add calls register nothing; TryAdd reports it.
func (b *Bag[F]) CallOnceAndClear(call func(F)) {
	for _, e := range b.snapshot(true) {
		call(e.f)
	}
}

// Len returns the number of registered handlers.
func (b *Bag[F]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// addOrCall registers f in a terminal event bag, or runs it right away when
// the event already happened.
func addOrCall(b *Bag[func()], f func()) *Subscription {
	if sub, ok := b.TryAdd(f); ok {
		return sub
	}
	f()
	return &Subscription{}
}

func fire(b *Bag[func()]) {
	b.CallAll(func(f func()) { f() })
}

func fireOnce(b *Bag[func()]) {
	b.CallOnceAndClear(func(f func()) { f() })
}

func emit[T any](b *Bag[func(T)], v T) {
	b.CallAll(func(f func(T)) { f(v) })
}
