package mediasoup

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pion/rtp"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

type producerParams struct {
	id                      string
	transport               *transportBase
	kind                    MediaKind
	typ                     ProducerType
	rtpParameters           RtpParameters
	consumableRtpParameters RtpParameters
	paused                  bool
	appData                 H
}

// Producer represents an audio or video source being injected into a router.
// It is created on top of a transport that defines how the media packets are
// carried.
type Producer struct {
	lifecycle

	id                      string
	transport               *transportBase
	channel                 *channel.Channel
	payloadChannel          *channel.Channel
	internal                channel.Internal
	logger                  logr.Logger
	kind                    MediaKind
	typ                     ProducerType
	rtpParameters           RtpParameters
	consumableRtpParameters RtpParameters
	appData                 H
	subs                    notifications

	mu     sync.Mutex
	paused bool
	score  []ProducerScore

	transportCloseBag         Bag[func()]
	pauseBag                  Bag[func()]
	resumeBag                 Bag[func()]
	scoreBag                  Bag[func([]ProducerScore)]
	videoOrientationChangeBag Bag[func(ProducerVideoOrientation)]
	traceBag                  Bag[func(ProducerTraceEventData)]
}

func newProducer(params producerParams) *Producer {
	t := params.transport

	p := &Producer{
		id:             params.id,
		transport:      t,
		channel:        t.channel,
		payloadChannel: t.payloadChannel,
		internal: channel.Internal{
			RouterId:    t.internal.RouterId,
			TransportId: t.id,
			ProducerId:  params.id,
		},
		logger:                  NewLogger("Producer").WithValues("id", params.id),
		kind:                    params.kind,
		typ:                     params.typ,
		rtpParameters:           params.rtpParameters,
		consumableRtpParameters: params.consumableRtpParameters,
		appData:                 orEmpty(params.appData),
		paused:                  params.paused,
	}
	p.logger.V(1).Info("constructor()")

	p.subs = notifications{p.channel.Subscribe(p.id, p.handleNotification)}

	return p
}

// Id returns the producer id.
func (p *Producer) Id() string {
	return p.id
}

// Kind returns the media kind ("audio" or "video").
func (p *Producer) Kind() MediaKind {
	return p.kind
}

// Type returns the producer type.
func (p *Producer) Type() ProducerType {
	return p.typ
}

// RtpParameters returns the RTP parameters given on creation, with the
// CNAME assigned by the transport.
func (p *Producer) RtpParameters() RtpParameters {
	return p.rtpParameters
}

// ConsumableRtpParameters returns the parameters every consumer of this
// producer is derived from.
func (p *Producer) ConsumableRtpParameters() RtpParameters {
	return p.consumableRtpParameters
}

// Paused reports whether the producer is paused.
func (p *Producer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.paused
}

// Score returns the score of each RTP stream, as last reported by the worker.
func (p *Producer) Score() []ProducerScore {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.score
}

func (p *Producer) AppData() H {
	return p.appData
}

// Close closes the producer and, as a result, its consumers.
func (p *Producer) Close() {
	if !p.markClosed() {
		return
	}
	p.logger.V(1).Info("close()")

	p.fireClose()
	sendCloseRequest(p.channel, p.logger, "transport.closeProducer", p.transport.internal, H{"producerId": p.id})
	p.closeChildren()
	p.subs.unsubscribe()
}

func (p *Producer) transportClosed() {
	if !p.markClosed() {
		return
	}
	p.logger.V(1).Info("transportClosed()")

	fireOnce(&p.transportCloseBag)
	p.fireClose()
	p.closeChildren()
	p.subs.unsubscribe()
}

// Dump returns the producer internals as seen by the worker.
func (p *Producer) Dump(ctx context.Context) (*ProducerDump, error) {
	p.logger.V(1).Info("dump()")

	return request[ProducerDump](ctx, p.channel, "producer.dump", p.internal, nil)
}

// GetStats returns the statistics of each receiving RTP stream.
func (p *Producer) GetStats(ctx context.Context) ([]*ProducerStat, error) {
	p.logger.V(1).Info("getStats()")

	stats, err := request[[]*ProducerStat](ctx, p.channel, "producer.getStats", p.internal, nil)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// Pause pauses the producer. Consumers stop receiving media but stay open.
func (p *Producer) Pause(ctx context.Context) error {
	p.logger.V(1).Info("pause()")

	if _, err := p.channel.Request(ctx, "producer.pause", p.internal, nil); err != nil {
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

// Resume resumes a paused producer.
func (p *Producer) Resume(ctx context.Context) error {
	p.logger.V(1).Info("resume()")

	if _, err := p.channel.Request(ctx, "producer.resume", p.internal, nil); err != nil {
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

// EnableTraceEvent enables the "trace" event for the given types.
func (p *Producer) EnableTraceEvent(ctx context.Context, types []ProducerTraceEventType) error {
	p.logger.V(1).Info("enableTraceEvent()")

	if types == nil {
		types = []ProducerTraceEventType{}
	}
	_, err := p.channel.Request(ctx, "producer.enableTraceEvent", p.internal, H{"types": types})
	return err
}

// Send injects a serialized RTP packet. Only producers of a DirectTransport
// accept it.
func (p *Producer) Send(rtpPacket []byte) error {
	if p.transport.typ != TransportDirect {
		return NewUnsupportedError("%w: send() only available on producers of a DirectTransport", ErrNotSupported)
	}
	if p.Closed() {
		return ErrProducerClosed
	}
	return p.payloadChannel.Notify("producer.send", p.internal, nil, rtpPacket)
}

// SendRtpPacket marshals packet and sends it with Send.
func (p *Producer) SendRtpPacket(packet *rtp.Packet) error {
	data, err := packet.Marshal()
	if err != nil {
		return NewTypeError("invalid rtp packet: %w", err)
	}
	return p.Send(data)
}

func (p *Producer) handleNotification(event string, data json.RawMessage, _ []byte) {
	switch event {
	case "score":
		var score []ProducerScore
		if !decode(p.logger, event, data, &score) {
			return
		}
		p.mu.Lock()
		p.score = score
		p.mu.Unlock()

		emit(&p.scoreBag, score)

	case "videoorientationchange":
		var orientation ProducerVideoOrientation
		if decode(p.logger, event, data, &orientation) {
			emit(&p.videoOrientationChangeBag, orientation)
		}

	case "trace":
		var raw rawTraceEvent
		if !decode(p.logger, event, data, &raw) {
			return
		}
		emit(&p.traceBag, ProducerTraceEventData{
			Type:      ProducerTraceEventType(raw.Type),
			Timestamp: raw.Timestamp,
			Direction: raw.Direction,
			Info:      decodeTraceInfo(raw.Type, raw.Info),
		})

	default:
		p.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnTransportClose registers a handler for the closure of the transport.
func (p *Producer) OnTransportClose(handler func()) *Subscription {
	return addOrCall(&p.transportCloseBag, handler)
}

func (p *Producer) OnPause(handler func()) *Subscription {
	return p.pauseBag.Add(handler)
}

func (p *Producer) OnResume(handler func()) *Subscription {
	return p.resumeBag.Add(handler)
}

func (p *Producer) OnScore(handler func([]ProducerScore)) *Subscription {
	return p.scoreBag.Add(handler)
}

func (p *Producer) OnVideoOrientationChange(handler func(ProducerVideoOrientation)) *Subscription {
	return p.videoOrientationChangeBag.Add(handler)
}

func (p *Producer) OnTrace(handler func(ProducerTraceEventData)) *Subscription {
	return p.traceBag.Add(handler)
}
