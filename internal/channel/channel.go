package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/netcodec"
)

const (
	RequestTimeout = 5 * time.Second
	SendQueueSize  = 16
	InboxSize      = 128
)

// Options tunes a Channel. Zero values select the defaults.
type Options struct {
	// Name labels logs and metrics, e.g. "Channel" or "PayloadChannel".
	Name   string
	Logger logr.Logger
	// Pid of the worker, added to re-emitted worker log lines.
	Pid            int
	RequestTimeout time.Duration
	SendQueueSize  int
	// PayloadFrames marks a payload channel: every incoming notification is
	// followed by one frame carrying its binary payload.
	PayloadFrames bool
	BufferSize    int
	BufferTimeout time.Duration
	// DumpWriter receives worker dump lines. Defaults to os.Stdout.
	DumpWriter io.Writer
}

type outgoing struct {
	frames [][]byte
	id     uint32
}

type result struct {
	data json.RawMessage
	err  error
}

type sentInfo struct {
	method string
	respCh chan result
}

// Channel exchanges framed messages with one worker over one pipe pair.
// Arbitrarily many goroutines may send concurrently: messages are queued on a
// single bounded queue drained by one writer, so the worker sees them in
// enqueue order.
type Channel struct {
	name          string
	codec         netcodec.Codec
	logger        logr.Logger
	pid           int
	timeout       time.Duration
	payloadFrames bool
	dumpWriter    io.Writer

	nextId   atomic.Uint32
	closed   atomic.Bool
	mu       sync.Mutex
	sents    map[uint32]*sentInfo
	sendCh   chan outgoing
	inbox    chan Notification
	closeCh  chan struct{}
	doneCh   chan struct{}
	startOne sync.Once

	d *dispatcher
}

func New(codec netcodec.Codec, options Options) *Channel {
	if options.Name == "" {
		options.Name = "Channel"
	}
	if options.RequestTimeout <= 0 {
		options.RequestTimeout = RequestTimeout
	}
	if options.SendQueueSize <= 0 {
		options.SendQueueSize = SendQueueSize
	}
	if options.BufferSize <= 0 {
		options.BufferSize = DefaultBufferSize
	}
	if options.BufferTimeout <= 0 {
		options.BufferTimeout = DefaultBufferTimeout
	}
	if options.DumpWriter == nil {
		options.DumpWriter = os.Stdout
	}
	logger := options.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Channel{
		name:          options.Name,
		codec:         codec,
		logger:        logger,
		pid:           options.Pid,
		timeout:       options.RequestTimeout,
		payloadFrames: options.PayloadFrames,
		dumpWriter:    options.DumpWriter,
		sents:         make(map[uint32]*sentInfo),
		sendCh:        make(chan outgoing, options.SendQueueSize),
		inbox:         make(chan Notification, InboxSize),
		closeCh:       make(chan struct{}),
		doneCh:        make(chan struct{}),
		d:             newDispatcher(options.Name, logger, options.BufferSize, options.BufferTimeout),
	}
}

// Start launches the reader, writer and dispatch goroutines.
func (c *Channel) Start() {
	c.startOne.Do(func() {
		c.logger.V(1).Info("start()")

		go c.writeLoop()
		go c.readLoop()
		go c.dispatchLoop()
	})
}

// Close fails every pending request with ErrChannelClosed and closes the pipes.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil
	}
	c.closed.Store(true)
	sents := c.sents
	c.sents = make(map[uint32]*sentInfo)
	close(c.closeCh)
	c.mu.Unlock()

	c.logger.V(1).Info("close()")

	for _, sent := range sents {
		sent.respCh <- result{err: ErrChannelClosed}
	}

	return c.codec.Close()
}

func (c *Channel) Closed() bool {
	return c.closed.Load()
}

// Done is closed once the channel is closed, either explicitly or because the
// worker side of the pipe went away.
func (c *Channel) Done() <-chan struct{} {
	return c.closeCh
}

// Subscribe registers handler for the notifications of targetId. Notifications
// that arrived before the subscription are replayed first.
func (c *Channel) Subscribe(targetId string, handler Handler) *Subscription {
	c.logger.V(1).Info("subscribe()", "targetId", targetId)

	return c.d.subscribe(targetId, handler)
}

// Request sends a request and waits for its response. When ctx carries no
// deadline the channel's request timeout applies.
func (c *Channel) Request(ctx context.Context, method string, internal Internal, data any) (Response, error) {
	return c.request(ctx, method, internal, data, nil)
}

// RequestWithPayload is Request followed by a binary payload frame.
func (c *Channel) RequestWithPayload(ctx context.Context, method string, internal Internal, data any, payload []byte) (Response, error) {
	if payload == nil {
		payload = []byte{}
	}
	return c.request(ctx, method, internal, data, payload)
}

func (c *Channel) request(ctx context.Context, method string, internal Internal, data any, payload []byte) (Response, error) {
	id := c.nextId.Add(1)
	if id == 0 {
		id = c.nextId.Add(1)
	}

	c.logger.V(1).Info("request()", "method", method, "id", id)

	body, err := json.Marshal(request{
		Id:       id,
		Method:   method,
		Internal: internal,
		Data:     data,
	})
	if err != nil {
		return Response{}, err
	}
	frames, err := checkFrames(body, payload)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", method, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sent := &sentInfo{
		method: method,
		respCh: make(chan result, 1),
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		requestsTotal.WithLabelValues(c.name, method, outcomeClosed).Inc()
		return Response{}, ErrChannelClosed
	}
	c.sents[id] = sent
	c.mu.Unlock()

	inflight := requestsInflight.WithLabelValues(c.name)
	inflight.Inc()
	defer inflight.Dec()

	start := time.Now()

	if err := c.enqueue(ctx, outgoing{frames: frames, id: id}); err != nil {
		c.forget(id)
		return Response{}, c.requestFailed(method, id, err)
	}

	select {
	case r := <-sent.respCh:
		requestDuration.WithLabelValues(c.name, method).Observe(time.Since(start).Seconds())
		if r.err != nil {
			return Response{}, c.requestFailed(method, id, r.err)
		}
		requestsTotal.WithLabelValues(c.name, method, outcomeAccepted).Inc()
		return Response{data: r.data}, nil

	case <-ctx.Done():
		c.forget(id)
		return Response{}, c.requestFailed(method, id, ctx.Err())
	}
}

func (c *Channel) requestFailed(method string, id uint32, err error) error {
	var respErr *ResponseError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		requestsTotal.WithLabelValues(c.name, method, outcomeTimeout).Inc()
		return &TimeoutError{Method: method, Id: id}
	case errors.Is(err, context.Canceled):
		requestsTotal.WithLabelValues(c.name, method, outcomeCanceled).Inc()
	case errors.As(err, &respErr):
		requestsTotal.WithLabelValues(c.name, method, outcomeRejected).Inc()
		c.logger.V(1).Info("request failed", "method", method, "id", id, "reason", respErr.Reason)
	default:
		requestsTotal.WithLabelValues(c.name, method, outcomeClosed).Inc()
	}
	return err
}

func (c *Channel) forget(id uint32) {
	c.mu.Lock()
	delete(c.sents, id)
	c.mu.Unlock()
}

// Notify sends a message that expects no response, optionally followed by a
// payload frame.
func (c *Channel) Notify(event string, internal Internal, data any, payload []byte) error {
	c.logger.V(1).Info("notify()", "event", event)

	body, err := json.Marshal(outgoingNotification{
		Event:    event,
		Internal: internal,
		Data:     data,
	})
	if err != nil {
		return err
	}
	frames, err := checkFrames(body, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	if c.closed.Load() {
		return ErrChannelClosed
	}
	return c.enqueue(context.Background(), outgoing{frames: frames})
}

func checkFrames(body, payload []byte) ([][]byte, error) {
	if len(body) > netcodec.MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	if payload == nil {
		return [][]byte{body}, nil
	}
	if len(payload) > netcodec.MaxMessageLen {
		return nil, ErrPayloadTooLong
	}
	return [][]byte{body, payload}, nil
}

// enqueue blocks only while the send queue is full.
func (c *Channel) enqueue(ctx context.Context, msg outgoing) error {
	select {
	case c.sendCh <- msg:
		return nil
	case <-c.closeCh:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) writeLoop() {
	for {
		select {
		case msg := <-c.sendCh:
			for _, frame := range msg.frames {
				if err := c.codec.WritePayload(frame); err != nil {
					if !c.Closed() {
						c.logger.Error(err, "write failed")
					}
					c.failSent(msg.id, err)
					c.Close()
					return
				}
			}
		case <-c.closeCh:
			return
		}
	}
}

func (c *Channel) failSent(id uint32, err error) {
	if id == 0 {
		return
	}
	c.mu.Lock()
	sent, ok := c.sents[id]
	delete(c.sents, id)
	c.mu.Unlock()

	if ok {
		sent.respCh <- result{err: fmt.Errorf("%w: %v", ErrChannelClosed, err)}
	}
}

func (c *Channel) readLoop() {
	defer close(c.inbox)
	defer c.Close()

	for {
		payload, err := c.codec.ReadPayload()
		if errors.Is(err, netcodec.ErrMessageTooLong) {
			c.logger.Error(err, "skipping frame")
			continue
		}
		if err != nil {
			if !c.Closed() && !errors.Is(err, io.EOF) {
				c.logger.Error(err, "read failed")
			}
			return
		}
		if len(payload) == 0 {
			continue
		}
		if !c.processPayload(payload) {
			return
		}
	}
}

// processPayload classifies one frame by its leading byte. It returns false
// when the reader must stop.
func (c *Channel) processPayload(payload []byte) bool {
	switch payload[0] {
	case '{':
		return c.processMessage(payload)
	case 'D':
		c.logger.V(1).Info(string(payload[1:]), "worker", c.pid)
	case 'W':
		c.logger.Info(string(payload[1:]), "worker", c.pid, "severity", "warn")
	case 'E':
		c.logger.Error(nil, string(payload[1:]), "worker", c.pid)
	case 'X':
		fmt.Fprintf(c.dumpWriter, "%s\n", payload[1:])
	default:
		unexpectedMessages.WithLabelValues(c.name).Inc()
		c.logger.Info("unexpected data", "worker", c.pid, "data", string(payload))
	}
	return true
}

func (c *Channel) processMessage(payload []byte) bool {
	var msg incoming
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Error(err, "received message is not valid JSON", "data", string(payload))
		return true
	}

	if msg.Id != nil {
		c.processResponse(*msg.Id, msg)
		return true
	}

	if len(msg.TargetId) == 0 || msg.Event == "" {
		c.logger.Error(nil, "received message is not a response nor a notification", "data", string(payload))
		return true
	}

	notification := Notification{
		TargetId: targetIdString(msg.TargetId),
		Event:    msg.Event,
		Data:     msg.Data,
	}
	if c.payloadFrames {
		data, err := c.codec.ReadPayload()
		if err != nil {
			c.logger.Error(err, "failed to read notification payload", "event", msg.Event)
			return errors.Is(err, netcodec.ErrMessageTooLong)
		}
		notification.Payload = data
	}
	notificationsTotal.WithLabelValues(c.name, notification.Event).Inc()

	select {
	case c.inbox <- notification:
		return true
	case <-c.closeCh:
		return false
	}
}

func (c *Channel) processResponse(id uint32, msg incoming) {
	c.mu.Lock()
	sent, ok := c.sents[id]
	delete(c.sents, id)
	c.mu.Unlock()

	if !ok {
		c.logger.V(1).Info("received response does not match any sent request", "id", id)
		return
	}

	switch {
	case msg.Accepted:
		c.logger.V(1).Info("request succeeded", "method", sent.method, "id", id)
		sent.respCh <- result{data: msg.Data}
	case len(msg.Error) > 0:
		sent.respCh <- result{err: &ResponseError{
			Method: sent.method,
			Name:   errorName(msg.Error),
			Reason: msg.Reason,
		}}
	default:
		c.logger.Error(nil, "received response is not accepted nor rejected", "method", sent.method, "id", id)
		sent.respCh <- result{err: ErrMalformedResponse}
	}
}

// dispatchLoop runs every notification handler on a single goroutine, which
// preserves the worker's emission order.
func (c *Channel) dispatchLoop() {
	defer close(c.doneCh)

	for {
		select {
		case n, ok := <-c.inbox:
			c.d.flushReplay()
			if !ok {
				return
			}
			c.d.deliver(n)
		case <-c.d.wake:
			c.d.flushReplay()
		}
	}
}

// Drained is closed once every received notification has been dispatched
// after the channel closed.
func (c *Channel) Drained() <-chan struct{} {
	return c.doneCh
}
