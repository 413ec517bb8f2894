package mediasoup

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

type dataProducerParams struct {
	id                   string
	transport            *transportBase
	typ                  DataProducerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	paused               bool
	appData              H
}

// DataProducer represents an endpoint capable of injecting data messages into
// a router.
type DataProducer struct {
	lifecycle

	id                   string
	transport            *transportBase
	channel              *channel.Channel
	payloadChannel       *channel.Channel
	internal             channel.Internal
	logger               logr.Logger
	typ                  DataProducerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	appData              H

	mu     sync.Mutex
	paused bool

	transportCloseBag Bag[func()]
	pauseBag          Bag[func()]
	resumeBag         Bag[func()]
}

func newDataProducer(params dataProducerParams) *DataProducer {
	t := params.transport

	p := &DataProducer{
		id:             params.id,
		transport:      t,
		channel:        t.channel,
		payloadChannel: t.payloadChannel,
		internal: channel.Internal{
			RouterId:       t.internal.RouterId,
			TransportId:    t.id,
			DataProducerId: params.id,
		},
		logger:               NewLogger("DataProducer").WithValues("id", params.id),
		typ:                  params.typ,
		sctpStreamParameters: params.sctpStreamParameters,
		label:                params.label,
		protocol:             params.protocol,
		appData:              orEmpty(params.appData),
		paused:               params.paused,
	}
	p.logger.V(1).Info("constructor()")

	return p
}

// Id returns the data producer id.
func (p *DataProducer) Id() string {
	return p.id
}

func (p *DataProducer) Type() DataProducerType {
	return p.typ
}

// SctpStreamParameters returns a copy of the SCTP stream parameters, nil for
// a direct data producer.
func (p *DataProducer) SctpStreamParameters() *SctpStreamParameters {
	if p.sctpStreamParameters == nil {
		return nil
	}
	params := *p.sctpStreamParameters
	if params.Ordered != nil {
		params.Ordered = Bool(*params.Ordered)
	}
	return &params
}

func (p *DataProducer) Label() string {
	return p.label
}

func (p *DataProducer) Protocol() string {
	return p.protocol
}

func (p *DataProducer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.paused
}

func (p *DataProducer) AppData() H {
	return p.appData
}

// Close closes the data producer and, as a result, its data consumers.
func (p *DataProducer) Close() {
	if !p.markClosed() {
		return
	}
	p.logger.V(1).Info("close()")

	p.fireClose()
	sendCloseRequest(p.channel, p.logger, "transport.closeDataProducer", p.transport.internal, H{"dataProducerId": p.id})
	p.closeChildren()
}

func (p *DataProducer) transportClosed() {
	if !p.markClosed() {
		return
	}
	p.logger.V(1).Info("transportClosed()")

	fireOnce(&p.transportCloseBag)
	p.fireClose()
	p.closeChildren()
}

// Dump returns the data producer internals as seen by the worker.
func (p *DataProducer) Dump(ctx context.Context) (*DataProducerDump, error) {
	p.logger.V(1).Info("dump()")

	return request[DataProducerDump](ctx, p.channel, "dataProducer.dump", p.internal, nil)
}

func (p *DataProducer) GetStats(ctx context.Context) ([]*DataProducerStat, error) {
	p.logger.V(1).Info("getStats()")

	stats, err := request[[]*DataProducerStat](ctx, p.channel, "dataProducer.getStats", p.internal, nil)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// Pause pauses the data producer. Its messages are dropped by the router.
func (p *DataProducer) Pause(ctx context.Context) error {
	p.logger.V(1).Info("pause()")

	if _, err := p.channel.Request(ctx, "dataProducer.pause", p.internal, nil); err != nil {
		return err
	}

	p.mu.Lock()
	wasPaused := p.paused
	p.paused = true
	p.mu.Unlock()

	if !wasPaused {
		fire(&p.pauseBag)
	}
	return nil
}

// Resume resumes a paused data producer.
func (p *DataProducer) Resume(ctx context.Context) error {
	p.logger.V(1).Info("resume()")

	if _, err := p.channel.Request(ctx, "dataProducer.resume", p.internal, nil); err != nil {
		return err
	}

	p.mu.Lock()
	wasPaused := p.paused
	p.paused = false
	p.mu.Unlock()

	if wasPaused {
		fire(&p.resumeBag)
	}
	return nil
}

// Send sends a binary message. Only data producers of a DirectTransport
// accept it.
func (p *DataProducer) Send(message []byte) error {
	return p.send(message, false)
}

// SendText sends a text message.
func (p *DataProducer) SendText(message string) error {
	return p.send([]byte(message), true)
}

func (p *DataProducer) send(message []byte, text bool) error {
	p.logger.V(1).Info("send()")

	if p.typ != DataProducerDirect {
		return NewUnsupportedError("%w: send() only available on data producers of a DirectTransport", ErrNotSupported)
	}
	if p.Closed() {
		return ErrDataProducerClosed
	}
	if limit := p.transport.maxMessageSize; limit > 0 && uint32(len(message)) > limit {
		return NewTypeError("message of %d bytes exceeds maxMessageSize %d", len(message), limit)
	}

	payload, ppid := messagePpid(message, text)

	return p.payloadChannel.Notify("dataProducer.send", p.internal, H{"ppid": ppid}, payload)
}

// OnTransportClose registers a handler for the closure of the transport.
func (p *DataProducer) OnTransportClose(handler func()) *Subscription {
	return addOrCall(&p.transportCloseBag, handler)
}

func (p *DataProducer) OnPause(handler func()) *Subscription {
	return p.pauseBag.Add(handler)
}

func (p *DataProducer) OnResume(handler func()) *Subscription {
	return p.resumeBag.Add(handler)
}
