package mediasoup

import (
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/kelindar/event"
	"golang.org/x/sync/errgroup"
)

// Event type identifiers on the WorkerManager bus.
const (
	TypeWorkerCreated uint32 = iota + 1
	TypeWorkerClosed
	TypeWorkerDied
)

// WorkerCreatedEvent is published once a managed worker is running.
type WorkerCreatedEvent struct {
	Worker *Worker
}

func (e WorkerCreatedEvent) Type() uint32 { return TypeWorkerCreated }

// WorkerClosedEvent is published when a managed worker closes, whatever the
// reason.
type WorkerClosedEvent struct {
	Worker *Worker
}

func (e WorkerClosedEvent) Type() uint32 { return TypeWorkerClosed }

// WorkerDiedEvent is published when a managed worker process exits
// unexpectedly. The worker also gets a WorkerClosedEvent. Each event type is
// delivered on its own goroutine, so the two may arrive in either order;
// WorkerClosedEvent subscribers can tell a death apart with Worker.Died.
type WorkerDiedEvent struct {
	Worker *Worker
	Err    error
}

func (e WorkerDiedEvent) Type() uint32 { return TypeWorkerDied }

// WorkerManager owns a pool of workers. Closed and died workers leave the
// pool on their own. Events are delivered asynchronously.
type WorkerManager struct {
	dispatcher *event.Dispatcher
	logger     logr.Logger
	options    []Option

	mu      sync.Mutex
	workers []*Worker
	next    int
	closed  bool
}

// NewWorkerManager creates a manager. The given options apply to every
// worker it creates, before the options given to CreateWorker.
func NewWorkerManager(options ...Option) *WorkerManager {
	return &WorkerManager{
		dispatcher: event.NewDispatcher(),
		logger:     NewLogger("WorkerManager"),
		options:    options,
	}
}

// CreateWorker launches a worker and adds it to the pool.
func (m *WorkerManager) CreateWorker(options ...Option) (*Worker, error) {
	m.logger.V(1).Info("createWorker()")

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrWorkerClosed
	}

	worker, err := NewWorker(append(slices.Clone(m.options), options...)...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		worker.Close()
		return nil, ErrWorkerClosed
	}
	m.workers = append(m.workers, worker)
	m.mu.Unlock()

	worker.OnDied(func(err error) {
		event.Publish(m.dispatcher, WorkerDiedEvent{Worker: worker, Err: err})
	})
	worker.OnClose(func() {
		m.remove(worker)
		event.Publish(m.dispatcher, WorkerClosedEvent{Worker: worker})
	})

	event.Publish(m.dispatcher, WorkerCreatedEvent{Worker: worker})

	return worker, nil
}

func (m *WorkerManager) remove(worker *Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = slices.DeleteFunc(m.workers, func(w *Worker) bool { return w == worker })
}

// Workers returns the live workers in creation order.
func (m *WorkerManager) Workers() []*Worker {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.workers)
}

// Next picks the live workers in turn, nil when there is none.
func (m *WorkerManager) Next() *Worker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.workers) == 0 {
		return nil
	}
	worker := m.workers[m.next%len(m.workers)]
	m.next++
	return worker
}

// SubscribeWorkerCreated returns a function cancelling the subscription.
func (m *WorkerManager) SubscribeWorkerCreated(handler func(WorkerCreatedEvent)) func() {
	return event.Subscribe(m.dispatcher, handler)
}

func (m *WorkerManager) SubscribeWorkerClosed(handler func(WorkerClosedEvent)) func() {
	return event.Subscribe(m.dispatcher, handler)
}

func (m *WorkerManager) SubscribeWorkerDied(handler func(WorkerDiedEvent)) func() {
	return event.Subscribe(m.dispatcher, handler)
}

// Close closes every worker in parallel. Later CreateWorker calls fail.
func (m *WorkerManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	workers := slices.Clone(m.workers)
	m.mu.Unlock()

	m.logger.V(1).Info("close()", "workers", len(workers))

	var g errgroup.Group
	for _, worker := range workers {
		g.Go(func() error {
			worker.Close()
			return nil
		})
	}
	g.Wait()
}
