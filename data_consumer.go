package mediasoup

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

type dataConsumerParams struct {
	id                   string
	transport            *transportBase
	dataProducer         *DataProducer
	typ                  DataConsumerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	paused               bool
	dataProducerPaused   bool
	appData              H
}

// DataConsumer represents an endpoint capable of receiving data messages from
// a router.
type DataConsumer struct {
	lifecycle

	id                   string
	dataProducerId       string
	transport            *transportBase
	channel              *channel.Channel
	payloadChannel       *channel.Channel
	internal             channel.Internal
	logger               logr.Logger
	typ                  DataConsumerType
	sctpStreamParameters *SctpStreamParameters
	label                string
	protocol             string
	appData              H
	subs                 notifications

	mu                 sync.Mutex
	paused             bool
	dataProducerPaused bool

	transportCloseBag     Bag[func()]
	dataProducerCloseBag  Bag[func()]
	pauseBag              Bag[func()]
	resumeBag             Bag[func()]
	dataProducerPauseBag  Bag[func()]
	dataProducerResumeBag Bag[func()]
	messageBag            Bag[func(DataConsumerMessage)]
	sctpSendBufferFullBag Bag[func()]
	bufferedAmountLowBag  Bag[func(uint32)]
}

func newDataConsumer(params dataConsumerParams) *DataConsumer {
	t := params.transport

	c := &DataConsumer{
		id:             params.id,
		dataProducerId: params.dataProducer.Id(),
		transport:      t,
		channel:        t.channel,
		payloadChannel: t.payloadChannel,
		internal: channel.Internal{
			RouterId:       t.internal.RouterId,
			TransportId:    t.id,
			DataConsumerId: params.id,
			DataProducerId: params.dataProducer.Id(),
		},
		logger:               NewLogger("DataConsumer").WithValues("id", params.id),
		typ:                  params.typ,
		sctpStreamParameters: params.sctpStreamParameters,
		label:                params.label,
		protocol:             params.protocol,
		appData:              orEmpty(params.appData),
		paused:               params.paused,
		dataProducerPaused:   params.dataProducerPaused,
	}
	c.logger.V(1).Info("constructor()")

	c.subs = notifications{
		c.channel.Subscribe(c.id, c.handleNotification),
		c.payloadChannel.Subscribe(c.id, c.handleNotification),
	}

	return c
}

// Id returns the data consumer id.
func (c *DataConsumer) Id() string {
	return c.id
}

// DataProducerId returns the id of the consumed data producer.
func (c *DataConsumer) DataProducerId() string {
	return c.dataProducerId
}

func (c *DataConsumer) Type() DataConsumerType {
	return c.typ
}

// SctpStreamParameters returns the SCTP stream parameters, nil for a direct
// data consumer.
func (c *DataConsumer) SctpStreamParameters() *SctpStreamParameters {
	return clone(c.sctpStreamParameters)
}

func (c *DataConsumer) Label() string {
	return c.label
}

func (c *DataConsumer) Protocol() string {
	return c.protocol
}

func (c *DataConsumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

// DataProducerPaused reports whether the associated data producer is paused.
func (c *DataConsumer) DataProducerPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dataProducerPaused
}

func (c *DataConsumer) AppData() H {
	return c.appData
}

// Close closes the data consumer.
func (c *DataConsumer) Close() {
	if !c.markClosed() {
		return
	}
	c.logger.V(1).Info("close()")

	c.fireClose()
	sendCloseRequest(c.channel, c.logger, "transport.closeDataConsumer", c.transport.internal, H{"dataConsumerId": c.id})
	c.subs.unsubscribe()
}

func (c *DataConsumer) transportClosed() {
	c.ancestorClosed("transportClosed()", &c.transportCloseBag)
}

func (c *DataConsumer) dataProducerClosed() {
	c.ancestorClosed("dataProducerClosed()", &c.dataProducerCloseBag)
}

func (c *DataConsumer) ancestorClosed(name string, bag *Bag[func()]) {
	if !c.markClosed() {
		return
	}
	c.logger.V(1).Info(name)

	fireOnce(bag)
	c.fireClose()
	c.subs.unsubscribe()
}

// Dump returns the data consumer internals as seen by the worker.
func (c *DataConsumer) Dump(ctx context.Context) (*DataConsumerDump, error) {
	c.logger.V(1).Info("dump()")

	return request[DataConsumerDump](ctx, c.channel, "dataConsumer.dump", c.internal, nil)
}

func (c *DataConsumer) GetStats(ctx context.Context) ([]*DataConsumerStat, error) {
	c.logger.V(1).Info("getStats()")

	stats, err := request[[]*DataConsumerStat](ctx, c.channel, "dataConsumer.getStats", c.internal, nil)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// Pause pauses the data consumer.
func (c *DataConsumer) Pause(ctx context.Context) error {
	c.logger.V(1).Info("pause()")

	if _, err := c.channel.Request(ctx, "dataConsumer.pause", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = true
	dataProducerPaused := c.dataProducerPaused
	c.mu.Unlock()

	if !wasPaused && !dataProducerPaused {
		fire(&c.pauseBag)
	}
	return nil
}

// Resume resumes the data consumer.
func (c *DataConsumer) Resume(ctx context.Context) error {
	c.logger.V(1).Info("resume()")

	if _, err := c.channel.Request(ctx, "dataConsumer.resume", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = false
	dataProducerPaused := c.dataProducerPaused
	c.mu.Unlock()

	if wasPaused && !dataProducerPaused {
		fire(&c.resumeBag)
	}
	return nil
}

// GetBufferedAmount returns the number of bytes queued to be sent over the
// SCTP association.
func (c *DataConsumer) GetBufferedAmount(ctx context.Context) (uint32, error) {
	c.logger.V(1).Info("getBufferedAmount()")

	resp, err := request[struct {
		BufferedAmount uint32 `json:"bufferedAmount"`
	}](ctx, c.channel, "dataConsumer.getBufferedAmount", c.internal, nil)
	if err != nil {
		return 0, err
	}
	return resp.BufferedAmount, nil
}

// SetBufferedAmountLowThreshold sets the threshold under which the
// "bufferedamountlow" event fires.
func (c *DataConsumer) SetBufferedAmountLowThreshold(ctx context.Context, threshold uint32) error {
	c.logger.V(1).Info("setBufferedAmountLowThreshold()", "threshold", threshold)

	_, err := c.channel.Request(ctx, "dataConsumer.setBufferedAmountLowThreshold", c.internal, H{"threshold": threshold})
	return err
}

// Send sends a binary message to the endpoint.
func (c *DataConsumer) Send(ctx context.Context, message []byte) error {
	return c.send(ctx, message, false)
}

// SendText sends a text message to the endpoint.
func (c *DataConsumer) SendText(ctx context.Context, message string) error {
	return c.send(ctx, []byte(message), true)
}

func (c *DataConsumer) send(ctx context.Context, message []byte, text bool) error {
	c.logger.V(1).Info("send()")

	payload, ppid := messagePpid(message, text)

	_, err := c.payloadChannel.RequestWithPayload(ctx, "dataConsumer.send", c.internal, H{"ppid": ppid}, payload)
	return err
}

func (c *DataConsumer) handleNotification(event string, data json.RawMessage, payload []byte) {
	switch event {
	case "dataproducerclose":
		c.dataProducerClosed()

	case "dataproducerpause":
		c.mu.Lock()
		if c.dataProducerPaused {
			c.mu.Unlock()
			return
		}
		c.dataProducerPaused = true
		paused := c.paused
		c.mu.Unlock()

		fire(&c.dataProducerPauseBag)
		if !paused {
			fire(&c.pauseBag)
		}

	case "dataproducerresume":
		c.mu.Lock()
		if !c.dataProducerPaused {
			c.mu.Unlock()
			return
		}
		c.dataProducerPaused = false
		paused := c.paused
		c.mu.Unlock()

		fire(&c.dataProducerResumeBag)
		if !paused {
			fire(&c.resumeBag)
		}

	case "message":
		if c.Closed() {
			return
		}
		var n struct {
			Ppid SctpPayloadType `json:"ppid"`
		}
		if !decode(c.logger, event, data, &n) {
			return
		}
		emit(&c.messageBag, DataConsumerMessage{Data: payload, Ppid: n.Ppid})

	case "sctpsendbufferfull":
		fire(&c.sctpSendBufferFullBag)

	case "bufferedamountlow":
		var n struct {
			BufferedAmount uint32 `json:"bufferedAmount"`
		}
		if decode(c.logger, event, data, &n) {
			emit(&c.bufferedAmountLowBag, n.BufferedAmount)
		}

	default:
		c.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnTransportClose registers a handler for the closure of the transport.
func (c *DataConsumer) OnTransportClose(handler func()) *Subscription {
	return addOrCall(&c.transportCloseBag, handler)
}

// OnDataProducerClose registers a handler for the closure of the data
// producer. It runs before the close handlers.
func (c *DataConsumer) OnDataProducerClose(handler func()) *Subscription {
	return addOrCall(&c.dataProducerCloseBag, handler)
}

func (c *DataConsumer) OnPause(handler func()) *Subscription {
	return c.pauseBag.Add(handler)
}

func (c *DataConsumer) OnResume(handler func()) *Subscription {
	return c.resumeBag.Add(handler)
}

func (c *DataConsumer) OnDataProducerPause(handler func()) *Subscription {
	return c.dataProducerPauseBag.Add(handler)
}

func (c *DataConsumer) OnDataProducerResume(handler func()) *Subscription {
	return c.dataProducerResumeBag.Add(handler)
}

// OnMessage registers a handler for the messages sent to a data consumer of
// a DirectTransport.
func (c *DataConsumer) OnMessage(handler func(DataConsumerMessage)) *Subscription {
	return c.messageBag.Add(handler)
}

func (c *DataConsumer) OnSctpSendBufferFull(handler func()) *Subscription {
	return c.sctpSendBufferFullBag.Add(handler)
}

func (c *DataConsumer) OnBufferedAmountLow(handler func(bufferedAmount uint32)) *Subscription {
	return c.bufferedAmountLowBag.Add(handler)
}
