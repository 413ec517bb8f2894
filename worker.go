package mediasoup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/sfukit/mediasoup-go/internal/channel"
	"github.com/sfukit/mediasoup-go/internal/netcodec"
)

// Worker represents a mediasoup C++ subprocess that runs in a single CPU core
// and handles Router instances.
type Worker struct {
	lifecycle

	pid            int
	process        Process
	channel        *channel.Channel
	payloadChannel *channel.Channel
	logger         logr.Logger
	appData        H

	running atomic.Bool
	exited  chan struct{}
	exitErr error

	died    atomic.Bool
	diedErr atomic.Pointer[error]

	mu            sync.Mutex
	routers       map[string]*Router
	webRtcServers map[string]*WebRtcServer

	diedBag            Bag[func(error)]
	newRouterBag       Bag[func(*Router)]
	newWebRtcServerBag Bag[func(*WebRtcServer)]
}

// NewWorker launches a worker process and waits until it reports it is
// running.
func NewWorker(options ...Option) (*Worker, error) {
	settings := newWorkerSettings(options)

	logger := settings.Logger
	if logger.GetSink() == nil {
		logger = NewLogger("Worker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), settings.StartTimeout)
	defer cancel()

	process, pipes, err := settings.Launcher.Launch(ctx, settings)
	if err != nil {
		return nil, err
	}

	pid := process.Pid()
	logger = logger.WithValues("pid", pid)

	w := &Worker{
		pid:     pid,
		process: process,
		channel: channel.New(
			netcodec.ForWorkerVersion(settings.WorkerVersion, pipes.ControlWriter, pipes.ControlReader),
			channel.Options{
				Name:           "Channel",
				Logger:         NewLogger("Channel"),
				Pid:            pid,
				RequestTimeout: settings.RequestTimeout,
			},
		),
		payloadChannel: channel.New(
			netcodec.ForWorkerVersion(settings.WorkerVersion, pipes.PayloadWriter, pipes.PayloadReader),
			channel.Options{
				Name:           "PayloadChannel",
				Logger:         NewLogger("PayloadChannel"),
				Pid:            pid,
				RequestTimeout: settings.RequestTimeout,
				PayloadFrames:  true,
			},
		),
		logger:        logger,
		appData:       orEmpty(settings.AppData),
		exited:        make(chan struct{}),
		routers:       make(map[string]*Router),
		webRtcServers: make(map[string]*WebRtcServer),
	}

	runningCh := make(chan struct{})
	sub := w.channel.Subscribe(strconv.Itoa(pid), func(event string, data json.RawMessage, payload []byte) {
		if event == "running" && w.running.CompareAndSwap(false, true) {
			close(runningCh)
		}
	})
	defer sub.Unsubscribe()

	w.channel.Start()
	w.payloadChannel.Start()

	go w.wait()

	select {
	case <-runningCh:
		logger.V(1).Info("worker process running")
		return w, nil

	case <-w.exited:
		w.Close()
		return nil, fmt.Errorf("worker process failed before running: %w", w.exitErr)

	case <-ctx.Done():
		logger.Error(ErrWorkerStartTimeout, "worker process did not report running")
		w.Close()
		return nil, ErrWorkerStartTimeout
	}
}

func (w *Worker) wait() {
	err := w.process.Wait()
	if err == nil {
		err = errors.New("worker process exited")
	}
	w.exitErr = err
	close(w.exited)

	// Lost the race against "running": NewWorker reports the failure.
	if w.running.CompareAndSwap(false, true) {
		return
	}
	if w.Closed() {
		w.logger.V(1).Info("worker process exited")
		return
	}
	w.workerDied(err)
}

func (w *Worker) workerDied(err error) {
	if !w.markClosed() {
		return
	}
	w.logger.Error(err, "worker process died unexpectedly")

	w.died.Store(true)
	w.diedErr.Store(&err)
	w.diedBag.CallOnceAndClear(func(f func(error)) { f(err) })

	w.fireClose()
	w.closeChildren()

	w.channel.Close()
	w.payloadChannel.Close()
}

// Pid returns the worker process identifier.
func (w *Worker) Pid() int {
	return w.pid
}

// Died reports whether the worker process exited unexpectedly.
func (w *Worker) Died() bool {
	return w.died.Load()
}

// Err returns the reason the worker died, if it did.
func (w *Worker) Err() error {
	if err := w.diedErr.Load(); err != nil {
		return *err
	}
	return nil
}

func (w *Worker) AppData() H {
	return w.appData
}

// Close closes every router and WebRtcServer, then stops the process.
func (w *Worker) Close() {
	if !w.markClosed() {
		return
	}
	w.logger.V(1).Info("close()")

	w.fireClose()
	w.closeChildren()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	if _, err := w.channel.Request(ctx, "worker.close", channel.Internal{}, nil); err != nil {
		w.logger.V(1).Info("worker.close request failed", "err", err)
	}
	cancel()

	w.channel.Close()
	w.payloadChannel.Close()

	select {
	case <-w.exited:
		return
	default:
	}

	w.process.Signal(os.Interrupt)

	go func() {
		select {
		case <-w.exited:
		case <-time.After(time.Second):
			w.logger.Info("worker process did not exit, killing it")
			w.process.Kill()
		}
	}()
}

// Dump returns the resources allocated by the worker.
func (w *Worker) Dump(ctx context.Context) (*WorkerDump, error) {
	w.logger.V(1).Info("dump()")

	return request[WorkerDump](ctx, w.channel, "worker.dump", channel.Internal{}, nil)
}

// GetResourceUsage returns the worker process resource usage.
func (w *Worker) GetResourceUsage(ctx context.Context) (*WorkerResourceUsage, error) {
	w.logger.V(1).Info("getResourceUsage()")

	return request[WorkerResourceUsage](ctx, w.channel, "worker.getResourceUsage", channel.Internal{}, nil)
}

// UpdateSettings changes the log level and tags of the running worker.
func (w *Worker) UpdateSettings(ctx context.Context, settings WorkerUpdatableSettings) error {
	w.logger.V(1).Info("updateSettings()", "logLevel", settings.LogLevel)

	_, err := w.channel.Request(ctx, "worker.updateSettings", channel.Internal{}, settings)
	return err
}

// CreateWebRtcServer creates a WebRtcServer.
func (w *Worker) CreateWebRtcServer(ctx context.Context, options WebRtcServerOptions) (*WebRtcServer, error) {
	w.logger.V(1).Info("createWebRtcServer()")

	if w.Closed() {
		return nil, ErrWorkerClosed
	}
	if len(options.ListenInfos) == 0 {
		return nil, NewTypeError("empty listenInfos array provided")
	}

	id := uuid.NewString()

	_, err := w.channel.Request(ctx, "worker.createWebRtcServer", channel.Internal{}, H{
		"webRtcServerId": id,
		"listenInfos":    options.ListenInfos,
	})
	if err != nil {
		return nil, err
	}

	server := newWebRtcServer(id, w, options.AppData)

	w.mu.Lock()
	w.webRtcServers[id] = server
	w.mu.Unlock()

	server.OnClose(func() {
		w.mu.Lock()
		delete(w.webRtcServers, id)
		w.mu.Unlock()
	})
	server.link(w.adopt(server.workerClosed))

	emit(&w.newWebRtcServerBag, server)

	return server, nil
}

// CreateRouter creates a Router supporting the given media codecs.
func (w *Worker) CreateRouter(ctx context.Context, options RouterOptions) (*Router, error) {
	w.logger.V(1).Info("createRouter()")

	if w.Closed() {
		return nil, ErrWorkerClosed
	}

	rtpCapabilities, err := generateRouterRtpCapabilities(clone(options.MediaCodecs))
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	if _, err := w.channel.Request(ctx, "worker.createRouter", channel.Internal{}, H{"routerId": id}); err != nil {
		return nil, err
	}

	router := newRouter(routerParams{
		id:              id,
		worker:          w,
		rtpCapabilities: rtpCapabilities,
		appData:         options.AppData,
	})

	w.mu.Lock()
	w.routers[id] = router
	w.mu.Unlock()

	router.OnClose(func() {
		w.mu.Lock()
		delete(w.routers, id)
		w.mu.Unlock()
	})
	router.link(w.adopt(router.workerClosed))

	emit(&w.newRouterBag, router)

	return router, nil
}

// Routers returns the live routers.
func (w *Worker) Routers() []*Router {
	w.mu.Lock()
	defer w.mu.Unlock()

	routers := make([]*Router, 0, len(w.routers))
	for _, router := range w.routers {
		routers = append(routers, router)
	}
	return routers
}

// WebRtcServers returns the live WebRtcServers.
func (w *Worker) WebRtcServers() []*WebRtcServer {
	w.mu.Lock()
	defer w.mu.Unlock()

	servers := make([]*WebRtcServer, 0, len(w.webRtcServers))
	for _, server := range w.webRtcServers {
		servers = append(servers, server)
	}
	return servers
}

// OnDied registers a handler for the unexpected exit of the process. It runs
// at most once, before the close handlers.
func (w *Worker) OnDied(handler func(err error)) *Subscription {
	if sub, ok := w.diedBag.TryAdd(handler); ok {
		return sub
	}
	if err := w.Err(); err != nil {
		handler(err)
	}
	return &Subscription{}
}

func (w *Worker) OnNewRouter(handler func(*Router)) *Subscription {
	return w.newRouterBag.Add(handler)
}

func (w *Worker) OnNewWebRtcServer(handler func(*WebRtcServer)) *Subscription {
	return w.newWebRtcServerBag.Add(handler)
}
