package mediasoup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

// maxMid bounds the MID of consumers, which use up to 8 bytes.
const maxMid = 100000000

// Transport is implemented by WebRtcTransport, PlainTransport, PipeTransport
// and DirectTransport.
type Transport interface {
	Id() string
	Type() TransportType
	Closed() bool
	AppData() H
	Close()
	Dump(ctx context.Context) (*TransportDump, error)
	GetStats(ctx context.Context) ([]*TransportStat, error)
	Connect(ctx context.Context, options TransportConnectOptions) error
	SetMaxIncomingBitrate(ctx context.Context, bitrate uint32) error
	SetMaxOutgoingBitrate(ctx context.Context, bitrate uint32) error
	SetMinOutgoingBitrate(ctx context.Context, bitrate uint32) error
	EnableTraceEvent(ctx context.Context, types []TransportTraceEventType) error
	Produce(ctx context.Context, options ProducerOptions) (*Producer, error)
	Consume(ctx context.Context, options ConsumerOptions) (*Consumer, error)
	ProduceData(ctx context.Context, options DataProducerOptions) (*DataProducer, error)
	ConsumeData(ctx context.Context, options DataConsumerOptions) (*DataConsumer, error)

	OnClose(handler func()) *Subscription
	OnRouterClose(handler func()) *Subscription
	OnNewProducer(handler func(*Producer)) *Subscription
	OnNewConsumer(handler func(*Consumer)) *Subscription
	OnNewDataProducer(handler func(*DataProducer)) *Subscription
	OnNewDataConsumer(handler func(*DataConsumer)) *Subscription
	OnTrace(handler func(TransportTraceEventData)) *Subscription

	base() *transportBase
}

type transportParams struct {
	id             string
	typ            TransportType
	router         *Router
	appData        H
	sctpParameters *SctpParameters
	maxMessageSize uint32
}

// transportBase holds what every transport variant shares: the children
// maps, MID and SCTP stream allocation and the common requests.
type transportBase struct {
	lifecycle

	id             string
	typ            TransportType
	router         *Router
	channel        *channel.Channel
	payloadChannel *channel.Channel
	internal       channel.Internal
	logger         logr.Logger
	appData        H
	sctpParameters *SctpParameters
	maxMessageSize uint32
	subs           notifications

	mu                  sync.Mutex
	sctpState           SctpState
	producers           map[string]*Producer
	producerMids        map[string]struct{}
	consumers           map[string]*Consumer
	dataProducers       map[string]*DataProducer
	dataConsumers       map[string]*DataConsumer
	cnameForProducers   string
	nextMidForConsumers uint32
	sctpStreamIds       []bool
	nextSctpStreamId    int

	routerCloseBag     Bag[func()]
	newProducerBag     Bag[func(*Producer)]
	newConsumerBag     Bag[func(*Consumer)]
	newDataProducerBag Bag[func(*DataProducer)]
	newDataConsumerBag Bag[func(*DataConsumer)]
	sctpStateChangeBag Bag[func(SctpState)]
	traceBag           Bag[func(TransportTraceEventData)]
}

func (t *transportBase) init(params transportParams, scope string) {
	t.id = params.id
	t.typ = params.typ
	t.router = params.router
	t.channel = params.router.channel
	t.payloadChannel = params.router.payloadChannel
	t.internal = channel.Internal{RouterId: params.router.id, TransportId: params.id}
	t.logger = NewLogger(scope).WithValues("id", params.id)
	t.appData = orEmpty(params.appData)
	t.sctpParameters = params.sctpParameters
	t.maxMessageSize = params.maxMessageSize
	t.producers = make(map[string]*Producer)
	t.producerMids = make(map[string]struct{})
	t.consumers = make(map[string]*Consumer)
	t.dataProducers = make(map[string]*DataProducer)
	t.dataConsumers = make(map[string]*DataConsumer)

	t.logger.V(1).Info("constructor()")
}

func (t *transportBase) base() *transportBase {
	return t
}

// Id returns the transport id.
func (t *transportBase) Id() string {
	return t.id
}

func (t *transportBase) Type() TransportType {
	return t.typ
}

func (t *transportBase) AppData() H {
	return t.appData
}

// SctpParameters returns the local SCTP parameters, nil without SCTP.
func (t *transportBase) SctpParameters() *SctpParameters {
	return t.sctpParameters
}

// SctpState returns the SCTP association state, empty without SCTP.
func (t *transportBase) SctpState() SctpState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sctpState
}

// Producers returns the live producers of the transport.
func (t *transportBase) Producers() []*Producer {
	t.mu.Lock()
	defer t.mu.Unlock()

	producers := make([]*Producer, 0, len(t.producers))
	for _, p := range t.producers {
		producers = append(producers, p)
	}
	return producers
}

// Consumers returns the live consumers of the transport.
func (t *transportBase) Consumers() []*Consumer {
	t.mu.Lock()
	defer t.mu.Unlock()

	consumers := make([]*Consumer, 0, len(t.consumers))
	for _, c := range t.consumers {
		consumers = append(consumers, c)
	}
	return consumers
}

// Close closes the transport and everything created on it.
func (t *transportBase) Close() {
	if !t.markClosed() {
		return
	}
	t.logger.V(1).Info("close()")

	t.fireClose()
	sendCloseRequest(t.channel, t.logger, "router.closeTransport", t.router.internal, H{"transportId": t.id})
	t.closeChildren()
	t.subs.unsubscribe()
}

func (t *transportBase) routerClosed() {
	t.ancestorClosed("routerClosed()", &t.routerCloseBag)
}

// ancestorClosed closes the transport because the worker side is already
// gone with one of its ancestors, so no close request is sent.
func (t *transportBase) ancestorClosed(name string, bag *Bag[func()]) {
	if !t.markClosed() {
		return
	}
	t.logger.V(1).Info(name)

	fireOnce(bag)
	t.fireClose()
	t.closeChildren()
	t.subs.unsubscribe()
}

// Dump returns the transport internals as seen by the worker.
func (t *transportBase) Dump(ctx context.Context) (*TransportDump, error) {
	t.logger.V(1).Info("dump()")

	return request[TransportDump](ctx, t.channel, "transport.dump", t.internal, nil)
}

// GetStats returns the transport statistics.
func (t *transportBase) GetStats(ctx context.Context) ([]*TransportStat, error) {
	t.logger.V(1).Info("getStats()")

	stats, err := request[[]*TransportStat](ctx, t.channel, "transport.getStats", t.internal, nil)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// SetMaxIncomingBitrate sets the maximum incoming bitrate for media streams
// sent by the remote endpoint over this transport.
func (t *transportBase) SetMaxIncomingBitrate(ctx context.Context, bitrate uint32) error {
	t.logger.V(1).Info("setMaxIncomingBitrate()", "bitrate", bitrate)

	_, err := t.channel.Request(ctx, "transport.setMaxIncomingBitrate", t.internal, H{"bitrate": bitrate})
	return err
}

// SetMaxOutgoingBitrate sets the maximum outgoing bitrate for media streams
// sent by mediasoup to the remote endpoint over this transport.
func (t *transportBase) SetMaxOutgoingBitrate(ctx context.Context, bitrate uint32) error {
	t.logger.V(1).Info("setMaxOutgoingBitrate()", "bitrate", bitrate)

	_, err := t.channel.Request(ctx, "transport.setMaxOutgoingBitrate", t.internal, H{"bitrate": bitrate})
	return err
}

// SetMinOutgoingBitrate sets the minimum outgoing bitrate for media streams
// sent by mediasoup to the remote endpoint over this transport.
func (t *transportBase) SetMinOutgoingBitrate(ctx context.Context, bitrate uint32) error {
	t.logger.V(1).Info("setMinOutgoingBitrate()", "bitrate", bitrate)

	_, err := t.channel.Request(ctx, "transport.setMinOutgoingBitrate", t.internal, H{"bitrate": bitrate})
	return err
}

// EnableTraceEvent enables the "trace" event for the given types.
func (t *transportBase) EnableTraceEvent(ctx context.Context, types []TransportTraceEventType) error {
	t.logger.V(1).Info("enableTraceEvent()")

	if types == nil {
		types = []TransportTraceEventType{}
	}
	_, err := t.channel.Request(ctx, "transport.enableTraceEvent", t.internal, H{"types": types})
	return err
}

// Produce creates a Producer receiving media from the remote endpoint.
func (t *transportBase) Produce(ctx context.Context, options ProducerOptions) (*Producer, error) {
	t.logger.V(1).Info("produce()")

	if t.Closed() {
		return nil, ErrTransportClosed
	}

	id := options.Id
	if id != "" && t.router.producers.Get(id) != nil {
		return nil, fmt.Errorf("%w: a producer with id %q already exists", ErrDuplicateId, id)
	}
	if id == "" {
		id = uuid.NewString()
	}
	if options.Kind != MediaKindAudio && options.Kind != MediaKindVideo {
		return nil, NewTypeError("invalid kind %q", options.Kind)
	}
	if options.RtpParameters == nil {
		return nil, NewTypeError("missing rtpParameters")
	}

	rtpParameters := clone(*options.RtpParameters)

	if err := validateRtpParameters(&rtpParameters); err != nil {
		return nil, err
	}
	if len(rtpParameters.Encodings) == 0 {
		return nil, NewTypeError("empty rtpParameters.encodings")
	}

	// The mid is reserved until the producer closes or creation fails.
	mid := rtpParameters.Mid
	t.mu.Lock()
	if mid != "" {
		if _, ok := t.producerMids[mid]; ok {
			t.mu.Unlock()
			return nil, NewTypeError("%w: mid %q already in use", ErrDuplicateId, mid)
		}
		t.producerMids[mid] = struct{}{}
	}
	// Pipe transports keep the CNAME of each producer.
	if t.typ != TransportPipe {
		if t.cnameForProducers == "" && rtpParameters.Rtcp.Cname != "" {
			t.cnameForProducers = rtpParameters.Rtcp.Cname
		} else if t.cnameForProducers == "" {
			t.cnameForProducers = uuid.NewString()[:8]
		}
		rtpParameters.Rtcp.Cname = t.cnameForProducers
	}
	t.mu.Unlock()

	releaseMid := func() {
		if mid == "" {
			return
		}
		t.mu.Lock()
		delete(t.producerMids, mid)
		t.mu.Unlock()
	}

	routerRtpCapabilities := t.router.RtpCapabilities()

	rtpMapping, err := getProducerRtpParametersMapping(rtpParameters, routerRtpCapabilities)
	if err != nil {
		releaseMid()
		return nil, err
	}
	consumableRtpParameters, err := getConsumableRtpParameters(options.Kind, rtpParameters, routerRtpCapabilities, rtpMapping)
	if err != nil {
		releaseMid()
		return nil, err
	}

	resp, err := request[struct {
		Type ProducerType `json:"type"`
	}](ctx, t.channel, "transport.produce", t.internal, H{
		"producerId":           id,
		"kind":                 options.Kind,
		"rtpParameters":        rtpParameters,
		"rtpMapping":           rtpMapping,
		"keyFrameRequestDelay": options.KeyFrameRequestDelay,
		"paused":               options.Paused,
	})
	if err != nil {
		releaseMid()
		return nil, err
	}
	producerType := resp.Type
	if producerType == "" {
		producerType = producerTypeOf(&rtpParameters)
	}

	producer := newProducer(producerParams{
		id:                      id,
		transport:               t,
		kind:                    options.Kind,
		typ:                     producerType,
		rtpParameters:           rtpParameters,
		consumableRtpParameters: consumableRtpParameters,
		paused:                  options.Paused,
		appData:                 options.AppData,
	})

	if !t.router.producers.Insert(id, producer) {
		producer.Close()
		releaseMid()
		return nil, fmt.Errorf("%w: a producer with id %q already exists", ErrDuplicateId, id)
	}

	t.mu.Lock()
	t.producers[id] = producer
	t.mu.Unlock()

	producer.OnClose(func() {
		t.mu.Lock()
		delete(t.producers, id)
		t.mu.Unlock()
		releaseMid()
		t.router.producers.Remove(id, producer)
	})
	producer.link(t.adopt(producer.transportClosed))

	emit(&t.newProducerBag, producer)

	return producer, nil
}

// Consume creates a Consumer sending the media of a producer of the same
// router to the remote endpoint.
func (t *transportBase) Consume(ctx context.Context, options ConsumerOptions) (*Consumer, error) {
	return t.consume(ctx, options, nil)
}

// pipeConsumerOptions are set when consuming on a PipeTransport.
type pipeConsumerOptions struct {
	enableRtx bool
}

func (t *transportBase) consume(ctx context.Context, options ConsumerOptions, pipe *pipeConsumerOptions) (*Consumer, error) {
	t.logger.V(1).Info("consume()")

	if t.Closed() {
		return nil, ErrTransportClosed
	}
	if options.ProducerId == "" {
		return nil, NewTypeError("missing producerId")
	}
	if pipe == nil && options.RtpCapabilities == nil {
		return nil, NewTypeError("missing rtpCapabilities")
	}

	producer := t.router.producers.Get(options.ProducerId)
	if producer == nil {
		return nil, fmt.Errorf("%w: %s", ErrProducerNotFound, options.ProducerId)
	}

	var rtpParameters RtpParameters
	var consumerType ConsumerType

	if pipe != nil {
		rtpParameters = getPipeConsumerRtpParameters(producer.ConsumableRtpParameters(), pipe.enableRtx)
		consumerType = ConsumerPipe
	} else {
		rtpCapabilities := clone(*options.RtpCapabilities)
		if err := validateRtpCapabilities(&rtpCapabilities); err != nil {
			return nil, err
		}

		ok, err := canConsume(producer.ConsumableRtpParameters(), rtpCapabilities)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, NewUnsupportedError("%w: producer %s", ErrCannotConsume, options.ProducerId)
		}

		rtpParameters, err = getConsumerRtpParameters(producer.ConsumableRtpParameters(), rtpCapabilities, options.Pipe)
		if err != nil {
			return nil, err
		}

		if options.Pipe {
			consumerType = ConsumerPipe
		} else {
			consumerType = ConsumerType(producer.Type())
			rtpParameters.Mid = options.Mid
			if rtpParameters.Mid == "" {
				rtpParameters.Mid = t.nextMid()
			}
		}
	}

	id := uuid.NewString()

	resp, err := request[struct {
		Paused          bool            `json:"paused"`
		ProducerPaused  bool            `json:"producerPaused"`
		Score           ConsumerScore   `json:"score"`
		PreferredLayers *ConsumerLayers `json:"preferredLayers"`
	}](ctx, t.channel, "transport.consume", t.internal, H{
		"consumerId":             id,
		"producerId":             options.ProducerId,
		"kind":                   producer.Kind(),
		"rtpParameters":          rtpParameters,
		"type":                   consumerType,
		"consumableRtpEncodings": producer.ConsumableRtpParameters().Encodings,
		"paused":                 options.Paused,
		"preferredLayers":        options.PreferredLayers,
		"ignoreDtx":              options.IgnoreDtx,
	})
	if err != nil {
		return nil, err
	}

	consumer := newConsumer(consumerParams{
		id:              id,
		transport:       t,
		producer:        producer,
		kind:            producer.Kind(),
		typ:             consumerType,
		rtpParameters:   rtpParameters,
		paused:          resp.Paused,
		producerPaused:  resp.ProducerPaused,
		score:           resp.Score,
		preferredLayers: resp.PreferredLayers,
		appData:         options.AppData,
	})

	t.mu.Lock()
	t.consumers[id] = consumer
	t.mu.Unlock()

	consumer.OnClose(func() {
		t.mu.Lock()
		delete(t.consumers, id)
		t.mu.Unlock()
	})
	consumer.link(t.adopt(consumer.transportClosed))
	consumer.link(producer.adopt(consumer.producerClosed))

	emit(&t.newConsumerBag, consumer)

	return consumer, nil
}

func (t *transportBase) nextMid() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	mid := t.nextMidForConsumers
	t.nextMidForConsumers++

	if t.nextMidForConsumers == maxMid {
		t.logger.Error(nil, "consume() | reaching max MID value", "max", maxMid)
		t.nextMidForConsumers = 0
	}

	return strconv.FormatUint(uint64(mid), 10)
}

// ProduceData creates a DataProducer receiving messages from the remote
// endpoint (or from the application on a DirectTransport).
func (t *transportBase) ProduceData(ctx context.Context, options DataProducerOptions) (*DataProducer, error) {
	t.logger.V(1).Info("produceData()")

	if t.Closed() {
		return nil, ErrTransportClosed
	}

	id := options.Id
	if id != "" && t.router.dataProducers.Get(id) != nil {
		return nil, fmt.Errorf("%w: a data producer with id %q already exists", ErrDuplicateId, id)
	}
	if id == "" {
		id = uuid.NewString()
	}

	var typ DataProducerType
	var sctpStreamParameters *SctpStreamParameters

	if t.typ == TransportDirect {
		typ = DataProducerDirect

		if options.SctpStreamParameters != nil {
			t.logger.Info("produceData() | sctpStreamParameters are ignored when producing data on a DirectTransport")
		}
	} else {
		typ = DataProducerSctp

		sctpStreamParameters = clone(options.SctpStreamParameters)
		if err := validateSctpStreamParameters(sctpStreamParameters); err != nil {
			return nil, err
		}
	}

	_, err := t.channel.Request(ctx, "transport.produceData", t.internal, H{
		"dataProducerId":       id,
		"type":                 typ,
		"sctpStreamParameters": sctpStreamParameters,
		"label":                options.Label,
		"protocol":             options.Protocol,
		"paused":               options.Paused,
	})
	if err != nil {
		return nil, err
	}

	dataProducer := newDataProducer(dataProducerParams{
		id:                   id,
		transport:            t,
		typ:                  typ,
		sctpStreamParameters: sctpStreamParameters,
		label:                options.Label,
		protocol:             options.Protocol,
		paused:               options.Paused,
		appData:              options.AppData,
	})

	if !t.router.dataProducers.Insert(id, dataProducer) {
		dataProducer.Close()
		return nil, fmt.Errorf("%w: a data producer with id %q already exists", ErrDuplicateId, id)
	}

	t.mu.Lock()
	t.dataProducers[id] = dataProducer
	t.mu.Unlock()

	dataProducer.OnClose(func() {
		t.mu.Lock()
		delete(t.dataProducers, id)
		t.mu.Unlock()
		t.router.dataProducers.Remove(id, dataProducer)
	})
	dataProducer.link(t.adopt(dataProducer.transportClosed))

	emit(&t.newDataProducerBag, dataProducer)

	return dataProducer, nil
}

// ConsumeData creates a DataConsumer sending the messages of a data producer
// of the same router to the remote endpoint.
func (t *transportBase) ConsumeData(ctx context.Context, options DataConsumerOptions) (*DataConsumer, error) {
	t.logger.V(1).Info("consumeData()")

	if t.Closed() {
		return nil, ErrTransportClosed
	}
	if options.DataProducerId == "" {
		return nil, NewTypeError("missing dataProducerId")
	}

	dataProducer := t.router.dataProducers.Get(options.DataProducerId)
	if dataProducer == nil {
		return nil, fmt.Errorf("%w: %s", ErrDataProducerNotFound, options.DataProducerId)
	}

	var typ DataConsumerType
	var sctpStreamParameters *SctpStreamParameters
	sctpStreamId := -1

	if t.typ == TransportDirect {
		typ = DataConsumerDirect

		if options.Ordered != nil || options.MaxPacketLifeTime > 0 || options.MaxRetransmits > 0 {
			t.logger.Info("consumeData() | ordered, maxPacketLifeTime and maxRetransmits are ignored when consuming data on a DirectTransport")
		}
	} else {
		typ = DataConsumerSctp

		sctpStreamParameters = &SctpStreamParameters{}
		if p := dataProducer.SctpStreamParameters(); p != nil {
			sctpStreamParameters = p
		}
		// Override if given.
		if options.Ordered != nil {
			sctpStreamParameters.Ordered = options.Ordered
			if *options.Ordered {
				sctpStreamParameters.MaxPacketLifeTime = 0
				sctpStreamParameters.MaxRetransmits = 0
			}
		}
		if options.MaxPacketLifeTime > 0 {
			sctpStreamParameters.MaxPacketLifeTime = options.MaxPacketLifeTime
			sctpStreamParameters.MaxRetransmits = 0
		}
		if options.MaxRetransmits > 0 {
			sctpStreamParameters.MaxRetransmits = options.MaxRetransmits
			sctpStreamParameters.MaxPacketLifeTime = 0
		}
		if options.Ordered == nil && (options.MaxPacketLifeTime > 0 || options.MaxRetransmits > 0) {
			sctpStreamParameters.Ordered = Bool(false)
		}
		if err := validateSctpStreamParameters(sctpStreamParameters); err != nil {
			return nil, err
		}

		var err error
		if sctpStreamId, err = t.allocateSctpStreamId(); err != nil {
			return nil, err
		}
		sctpStreamParameters.StreamId = uint16(sctpStreamId)
	}

	id := uuid.NewString()

	resp, err := t.channel.Request(ctx, "transport.consumeData", t.internal, H{
		"dataConsumerId":       id,
		"dataProducerId":       options.DataProducerId,
		"type":                 typ,
		"sctpStreamParameters": sctpStreamParameters,
		"label":                dataProducer.Label(),
		"protocol":             dataProducer.Protocol(),
		"paused":               options.Paused,
	})
	if err != nil {
		t.releaseSctpStreamId(sctpStreamId)
		return nil, err
	}

	var status struct {
		Paused             bool `json:"paused"`
		DataProducerPaused bool `json:"dataProducerPaused"`
	}
	status.Paused = options.Paused
	status.DataProducerPaused = dataProducer.Paused()
	if err := resp.Unmarshal(&status); err != nil && !errors.Is(err, channel.ErrNoData) {
		t.releaseSctpStreamId(sctpStreamId)
		return nil, err
	}

	dataConsumer := newDataConsumer(dataConsumerParams{
		id:                   id,
		transport:            t,
		dataProducer:         dataProducer,
		typ:                  typ,
		sctpStreamParameters: sctpStreamParameters,
		label:                dataProducer.Label(),
		protocol:             dataProducer.Protocol(),
		paused:               status.Paused,
		dataProducerPaused:   status.DataProducerPaused,
		appData:              options.AppData,
	})

	t.mu.Lock()
	t.dataConsumers[id] = dataConsumer
	t.mu.Unlock()

	dataConsumer.OnClose(func() {
		t.mu.Lock()
		delete(t.dataConsumers, id)
		t.mu.Unlock()
		t.releaseSctpStreamId(sctpStreamId)
	})
	dataConsumer.link(t.adopt(dataConsumer.transportClosed))
	dataConsumer.link(dataProducer.adopt(dataConsumer.dataProducerClosed))

	emit(&t.newDataConsumerBag, dataConsumer)

	return dataConsumer, nil
}

// allocateSctpStreamId takes the next free stream id, starting after the last
// one handed out.
func (t *transportBase) allocateSctpStreamId() (int, error) {
	if t.sctpParameters == nil || t.sctpParameters.MIS == 0 {
		return 0, NewTypeError("missing sctpParameters.MIS")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sctpStreamIds == nil {
		t.sctpStreamIds = make([]bool, t.sctpParameters.MIS)
	}
	for idx := range t.sctpStreamIds {
		id := (t.nextSctpStreamId + idx) % len(t.sctpStreamIds)

		if !t.sctpStreamIds[id] {
			t.sctpStreamIds[id] = true
			t.nextSctpStreamId = id + 1
			return id, nil
		}
	}

	return 0, errors.New("no sctpStreamId available")
}

func (t *transportBase) releaseSctpStreamId(id int) {
	if id < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sctpStreamIds[id] = false
}

// handleNotification handles the events every transport variant emits.
func (t *transportBase) handleNotification(event string, data json.RawMessage) {
	switch event {
	case "sctpstatechange":
		var n struct {
			SctpState SctpState `json:"sctpState"`
		}
		if !decode(t.logger, event, data, &n) {
			return
		}
		t.mu.Lock()
		t.sctpState = n.SctpState
		t.mu.Unlock()

		emit(&t.sctpStateChangeBag, n.SctpState)

	case "trace":
		var trace TransportTraceEventData
		if decode(t.logger, event, data, &trace) {
			emit(&t.traceBag, trace)
		}

	default:
		t.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnRouterClose registers a handler for the closure of the router.
func (t *transportBase) OnRouterClose(handler func()) *Subscription {
	return addOrCall(&t.routerCloseBag, handler)
}

func (t *transportBase) OnNewProducer(handler func(*Producer)) *Subscription {
	return t.newProducerBag.Add(handler)
}

func (t *transportBase) OnNewConsumer(handler func(*Consumer)) *Subscription {
	return t.newConsumerBag.Add(handler)
}

func (t *transportBase) OnNewDataProducer(handler func(*DataProducer)) *Subscription {
	return t.newDataProducerBag.Add(handler)
}

func (t *transportBase) OnNewDataConsumer(handler func(*DataConsumer)) *Subscription {
	return t.newDataConsumerBag.Add(handler)
}

// OnSctpStateChange registers a handler for SCTP association state changes.
func (t *transportBase) OnSctpStateChange(handler func(SctpState)) *Subscription {
	return t.sctpStateChangeBag.Add(handler)
}

func (t *transportBase) OnTrace(handler func(TransportTraceEventData)) *Subscription {
	return t.traceBag.Add(handler)
}
