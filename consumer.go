package mediasoup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/rtp"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

type consumerParams struct {
	id              string
	transport       *transportBase
	producer        *Producer
	kind            MediaKind
	typ             ConsumerType
	rtpParameters   RtpParameters
	paused          bool
	producerPaused  bool
	score           ConsumerScore
	preferredLayers *ConsumerLayers
	appData         H
}

// Consumer represents an audio or video source being forwarded from a router
// to an endpoint. It is created on top of a transport that defines how the
// media packets are carried.
type Consumer struct {
	lifecycle

	id             string
	producerId     string
	transport      *transportBase
	channel        *channel.Channel
	payloadChannel *channel.Channel
	internal       channel.Internal
	logger         logr.Logger
	kind           MediaKind
	typ            ConsumerType
	rtpParameters  RtpParameters
	appData        H
	subs           notifications

	mu              sync.Mutex
	paused          bool
	producerPaused  bool
	priority        uint8
	score           ConsumerScore
	preferredLayers *ConsumerLayers
	currentLayers   *ConsumerLayers

	transportCloseBag Bag[func()]
	producerCloseBag  Bag[func()]
	pauseBag          Bag[func()]
	resumeBag         Bag[func()]
	producerPauseBag  Bag[func()]
	producerResumeBag Bag[func()]
	scoreBag          Bag[func(ConsumerScore)]
	layersChangeBag   Bag[func(*ConsumerLayers)]
	traceBag          Bag[func(ConsumerTraceEventData)]
	rtpBag            Bag[func([]byte)]
}

func newConsumer(params consumerParams) *Consumer {
	t := params.transport

	c := &Consumer{
		id:             params.id,
		producerId:     params.producer.Id(),
		transport:      t,
		channel:        t.channel,
		payloadChannel: t.payloadChannel,
		internal: channel.Internal{
			RouterId:    t.internal.RouterId,
			TransportId: t.id,
			ConsumerId:  params.id,
			ProducerId:  params.producer.Id(),
		},
		logger:          NewLogger("Consumer").WithValues("id", params.id),
		kind:            params.kind,
		typ:             params.typ,
		rtpParameters:   params.rtpParameters,
		appData:         orEmpty(params.appData),
		paused:          params.paused,
		producerPaused:  params.producerPaused,
		priority:        1,
		score:           params.score,
		preferredLayers: params.preferredLayers,
	}
	c.logger.V(1).Info("constructor()")

	c.subs = notifications{
		c.channel.Subscribe(c.id, c.handleNotification),
		c.payloadChannel.Subscribe(c.id, c.handleNotification),
	}

	return c
}

// Id returns the consumer id.
func (c *Consumer) Id() string {
	return c.id
}

// ProducerId returns the id of the consumed producer.
func (c *Consumer) ProducerId() string {
	return c.producerId
}

func (c *Consumer) Kind() MediaKind {
	return c.kind
}

// Type returns the consumer type.
func (c *Consumer) Type() ConsumerType {
	return c.typ
}

// RtpParameters returns the negotiated RTP parameters.
func (c *Consumer) RtpParameters() RtpParameters {
	return c.rtpParameters
}

// Paused reports whether the consumer itself is paused.
func (c *Consumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

// ProducerPaused reports whether the associated producer is paused.
func (c *Consumer) ProducerPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.producerPaused
}

func (c *Consumer) Priority() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.priority
}

func (c *Consumer) Score() ConsumerScore {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.score
}

// PreferredLayers returns the preferred layers, nil unless simulcast or SVC.
func (c *Consumer) PreferredLayers() *ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.preferredLayers
}

// CurrentLayers returns the layers being sent, nil when none is.
func (c *Consumer) CurrentLayers() *ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.currentLayers
}

func (c *Consumer) AppData() H {
	return c.appData
}

// Close closes the consumer.
func (c *Consumer) Close() {
	if !c.markClosed() {
		return
	}
	c.logger.V(1).Info("close()")

	c.fireClose()
	sendCloseRequest(c.channel, c.logger, "transport.closeConsumer", c.transport.internal, H{"consumerId": c.id})
	c.subs.unsubscribe()
}

func (c *Consumer) transportClosed() {
	c.ancestorClosed("transportClosed()", &c.transportCloseBag)
}

// producerClosed runs when the producer closes locally or the worker reports
// it closed.
func (c *Consumer) producerClosed() {
	c.ancestorClosed("producerClosed()", &c.producerCloseBag)
}

func (c *Consumer) ancestorClosed(name string, bag *Bag[func()]) {
	if !c.markClosed() {
		return
	}
	c.logger.V(1).Info(name)

	fireOnce(bag)
	c.fireClose()
	c.subs.unsubscribe()
}

// Dump returns the consumer internals as seen by the worker.
func (c *Consumer) Dump(ctx context.Context) (*ConsumerDump, error) {
	c.logger.V(1).Info("dump()")

	return request[ConsumerDump](ctx, c.channel, "consumer.dump", c.internal, nil)
}

// GetStats returns the statistics of the sending RTP streams.
func (c *Consumer) GetStats(ctx context.Context) ([]*ConsumerStat, error) {
	c.logger.V(1).Info("getStats()")

	stats, err := request[[]*ConsumerStat](ctx, c.channel, "consumer.getStats", c.internal, nil)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// Pause pauses the consumer.
func (c *Consumer) Pause(ctx context.Context) error {
	c.logger.V(1).Info("pause()")

	if _, err := c.channel.Request(ctx, "consumer.pause", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = true
	producerPaused := c.producerPaused
	c.mu.Unlock()

	if !wasPaused && !producerPaused {
		fire(&c.pauseBag)
	}
	return nil
}

// Resume resumes the consumer.
func (c *Consumer) Resume(ctx context.Context) error {
	c.logger.V(1).Info("resume()")

	if _, err := c.channel.Request(ctx, "consumer.resume", c.internal, nil); err != nil {
		return err
	}

	c.mu.Lock()
	wasPaused := c.paused
	c.paused = false
	producerPaused := c.producerPaused
	c.mu.Unlock()

	if wasPaused && !producerPaused {
		fire(&c.resumeBag)
	}
	return nil
}

// SetPreferredLayers sets the spatial and temporal layers to forward when
// the producer is simulcast or SVC.
func (c *Consumer) SetPreferredLayers(ctx context.Context, layers ConsumerLayers) error {
	c.logger.V(1).Info("setPreferredLayers()")

	resp, err := c.channel.Request(ctx, "consumer.setPreferredLayers", c.internal, layers)
	if err != nil {
		return err
	}

	var preferred *ConsumerLayers
	if !resp.Empty() {
		preferred = &ConsumerLayers{}
		if err := resp.Unmarshal(preferred); err != nil {
			return fmt.Errorf("consumer.setPreferredLayers: %w", err)
		}
	}

	c.mu.Lock()
	c.preferredLayers = preferred
	c.mu.Unlock()

	return nil
}

// SetPriority sets the priority for bandwidth allocation, 1 to 255.
func (c *Consumer) SetPriority(ctx context.Context, priority uint8) error {
	c.logger.V(1).Info("setPriority()", "priority", priority)

	if priority < 1 {
		return NewTypeError("wrong priority %d", priority)
	}

	resp, err := request[struct {
		Priority uint8 `json:"priority"`
	}](ctx, c.channel, "consumer.setPriority", c.internal, H{"priority": priority})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.priority = resp.Priority
	c.mu.Unlock()

	return nil
}

// UnsetPriority restores the default priority.
func (c *Consumer) UnsetPriority(ctx context.Context) error {
	c.logger.V(1).Info("unsetPriority()")

	return c.SetPriority(ctx, 1)
}

// RequestKeyFrame asks the producer for a key frame. Video only.
func (c *Consumer) RequestKeyFrame(ctx context.Context) error {
	c.logger.V(1).Info("requestKeyFrame()")

	_, err := c.channel.Request(ctx, "consumer.requestKeyFrame", c.internal, nil)
	return err
}

// EnableTraceEvent enables the "trace" event for the given types.
func (c *Consumer) EnableTraceEvent(ctx context.Context, types []ConsumerTraceEventType) error {
	c.logger.V(1).Info("enableTraceEvent()")

	if types == nil {
		types = []ConsumerTraceEventType{}
	}
	_, err := c.channel.Request(ctx, "consumer.enableTraceEvent", c.internal, H{"types": types})
	return err
}

func (c *Consumer) handleNotification(event string, data json.RawMessage, payload []byte) {
	switch event {
	case "producerclose":
		c.producerClosed()

	case "producerpause":
		c.mu.Lock()
		if c.producerPaused {
			c.mu.Unlock()
			return
		}
		c.producerPaused = true
		paused := c.paused
		c.mu.Unlock()

		fire(&c.producerPauseBag)
		if !paused {
			fire(&c.pauseBag)
		}

	case "producerresume":
		c.mu.Lock()
		if !c.producerPaused {
			c.mu.Unlock()
			return
		}
		c.producerPaused = false
		paused := c.paused
		c.mu.Unlock()

		fire(&c.producerResumeBag)
		if !paused {
			fire(&c.resumeBag)
		}

	case "score":
		var score ConsumerScore
		if !decode(c.logger, event, data, &score) {
			return
		}
		c.mu.Lock()
		c.score = score
		c.mu.Unlock()

		emit(&c.scoreBag, score)

	case "layerschange":
		var layers *ConsumerLayers
		if !decode(c.logger, event, data, &layers) {
			return
		}
		c.mu.Lock()
		c.currentLayers = layers
		c.mu.Unlock()

		emit(&c.layersChangeBag, layers)

	case "trace":
		var raw rawTraceEvent
		if !decode(c.logger, event, data, &raw) {
			return
		}
		emit(&c.traceBag, ConsumerTraceEventData{
			Type:      ConsumerTraceEventType(raw.Type),
			Timestamp: raw.Timestamp,
			Direction: raw.Direction,
			Info:      decodeTraceInfo(raw.Type, raw.Info),
		})

	case "rtp":
		if c.Closed() {
			return
		}
		emit(&c.rtpBag, payload)

	default:
		c.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnTransportClose registers a handler for the closure of the transport.
func (c *Consumer) OnTransportClose(handler func()) *Subscription {
	return addOrCall(&c.transportCloseBag, handler)
}

// OnProducerClose registers a handler for the closure of the producer. It
// runs before the close handlers.
func (c *Consumer) OnProducerClose(handler func()) *Subscription {
	return addOrCall(&c.producerCloseBag, handler)
}

// OnPause registers a handler called whenever the consumer stops forwarding
// media, because either itself or its producer got paused.
func (c *Consumer) OnPause(handler func()) *Subscription {
	return c.pauseBag.Add(handler)
}

// OnResume is the counterpart of OnPause.
func (c *Consumer) OnResume(handler func()) *Subscription {
	return c.resumeBag.Add(handler)
}

func (c *Consumer) OnProducerPause(handler func()) *Subscription {
	return c.producerPauseBag.Add(handler)
}

func (c *Consumer) OnProducerResume(handler func()) *Subscription {
	return c.producerResumeBag.Add(handler)
}

func (c *Consumer) OnScore(handler func(ConsumerScore)) *Subscription {
	return c.scoreBag.Add(handler)
}

// OnLayersChange registers a handler for changes of the layers being sent.
// A nil value means no layer is sent.
func (c *Consumer) OnLayersChange(handler func(*ConsumerLayers)) *Subscription {
	return c.layersChangeBag.Add(handler)
}

func (c *Consumer) OnTrace(handler func(ConsumerTraceEventData)) *Subscription {
	return c.traceBag.Add(handler)
}

// OnRtp registers a handler for the RTP packets sent to a consumer of a
// DirectTransport.
func (c *Consumer) OnRtp(handler func(data []byte)) *Subscription {
	return c.rtpBag.Add(handler)
}

// OnRtpPacket is OnRtp with the packet already parsed. Unparsable packets
// are logged and dropped.
func (c *Consumer) OnRtpPacket(handler func(*rtp.Packet)) *Subscription {
	return c.rtpBag.Add(func(data []byte) {
		packet := &rtp.Packet{}
		if err := packet.Unmarshal(data); err != nil {
			c.logger.Error(err, "dropping rtp packet")
			return
		}
		handler(packet)
	})
}
