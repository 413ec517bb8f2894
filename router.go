package mediasoup

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

type routerParams struct {
	id              string
	worker          *Worker
	rtpCapabilities RtpCapabilities
	appData         H
}

// pipeTransportPair connects this router to another one. done is closed once
// the pair is ready or failed, so concurrent PipeToRouter calls towards the
// same router share one pair.
type pipeTransportPair struct {
	done   chan struct{}
	local  *PipeTransport
	remote *PipeTransport
	err    error
}

// Router enables injection, selection and forwarding of media streams through
// the Transports created on it.
type Router struct {
	lifecycle

	id             string
	worker         *Worker
	channel        *channel.Channel
	payloadChannel *channel.Channel
	internal       channel.Internal
	logger         logr.Logger
	appData        H

	rtpCapabilities RtpCapabilities

	mu           sync.Mutex
	transports   map[string]Transport
	rtpObservers map[string]RtpObserver

	// Lookup only: ownership stays with the transports.
	producers     registry[Producer]
	dataProducers registry[DataProducer]

	pipeMu    sync.Mutex
	pipePairs map[string]*pipeTransportPair

	workerCloseBag    Bag[func()]
	newTransportBag   Bag[func(Transport)]
	newRtpObserverBag Bag[func(RtpObserver)]
}

func newRouter(params routerParams) *Router {
	logger := NewLogger("Router").WithValues("id", params.id)
	logger.V(1).Info("constructor()")

	return &Router{
		id:              params.id,
		worker:          params.worker,
		channel:         params.worker.channel,
		payloadChannel:  params.worker.payloadChannel,
		internal:        channel.Internal{RouterId: params.id},
		logger:          logger,
		appData:         orEmpty(params.appData),
		rtpCapabilities: params.rtpCapabilities,
		transports:      make(map[string]Transport),
		rtpObservers:    make(map[string]RtpObserver),
		pipePairs:       make(map[string]*pipeTransportPair),
	}
}

// Id returns the router id.
func (r *Router) Id() string {
	return r.id
}

// RtpCapabilities returns the RTP capabilities of the router. They are fixed
// at creation and shared, callers must not modify them.
func (r *Router) RtpCapabilities() RtpCapabilities {
	return r.rtpCapabilities
}

func (r *Router) AppData() H {
	return r.appData
}

// Transports returns the live transports.
func (r *Router) Transports() []Transport {
	r.mu.Lock()
	defer r.mu.Unlock()

	transports := make([]Transport, 0, len(r.transports))
	for _, t := range r.transports {
		transports = append(transports, t)
	}
	return transports
}

// RtpObservers returns the live RTP observers.
func (r *Router) RtpObservers() []RtpObserver {
	r.mu.Lock()
	defer r.mu.Unlock()

	observers := make([]RtpObserver, 0, len(r.rtpObservers))
	for _, o := range r.rtpObservers {
		observers = append(observers, o)
	}
	return observers
}

// Close closes the router along with its transports and observers.
func (r *Router) Close() {
	if !r.markClosed() {
		return
	}
	r.logger.V(1).Info("close()")

	r.fireClose()
	sendCloseRequest(r.channel, r.logger, "worker.closeRouter", channel.Internal{}, H{"routerId": r.id})
	r.closeChildren()
}

func (r *Router) workerClosed() {
	if !r.markClosed() {
		return
	}
	r.logger.V(1).Info("workerClosed()")

	fireOnce(&r.workerCloseBag)
	r.fireClose()
	r.closeChildren()
}

// Dump returns the router internals as seen by the worker.
func (r *Router) Dump(ctx context.Context) (*RouterDump, error) {
	r.logger.V(1).Info("dump()")

	return request[RouterDump](ctx, r.channel, "router.dump", r.internal, nil)
}

// CreateWebRtcTransport creates a WebRtcTransport, either listening on its
// own sockets or sharing those of a WebRtcServer.
func (r *Router) CreateWebRtcTransport(ctx context.Context, options WebRtcTransportOptions) (*WebRtcTransport, error) {
	r.logger.V(1).Info("createWebRtcTransport()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}
	server := options.WebRtcServer
	if server == nil && len(options.ListenInfos) == 0 {
		return nil, NewTypeError("missing webRtcServer and listenInfos")
	}
	if server != nil && len(options.ListenInfos) > 0 {
		return nil, NewTypeError("only one of webRtcServer and listenInfos must be given")
	}
	if server != nil && server.Closed() {
		return nil, ErrWebRtcServerClosed
	}

	o := WebRtcTransportOptions{
		EnableUdp:                       Bool(true),
		EnableTcp:                       Bool(server != nil),
		IceConsentTimeout:               ref[uint8](30),
		InitialAvailableOutgoingBitrate: 600000,
		NumSctpStreams:                  ref(defaultNumSctpStreams),
		MaxSctpMessageSize:              262144,
		SctpSendBufferSize:              262144,
	}
	if err := override(&o, options); err != nil {
		return nil, err
	}
	if o.EnableSctp {
		if err := validateNumSctpStreams(*o.NumSctpStreams); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	data := H{
		"transportId":                     id,
		"enableUdp":                       *o.EnableUdp,
		"enableTcp":                       *o.EnableTcp,
		"preferUdp":                       o.PreferUdp,
		"preferTcp":                       o.PreferTcp,
		"iceConsentTimeout":               *o.IceConsentTimeout,
		"initialAvailableOutgoingBitrate": o.InitialAvailableOutgoingBitrate,
		"enableSctp":                      o.EnableSctp,
		"numSctpStreams":                  o.NumSctpStreams,
		"maxSctpMessageSize":              o.MaxSctpMessageSize,
		"sctpSendBufferSize":              o.SctpSendBufferSize,
		"isDataChannel":                   true,
	}
	if server != nil {
		data["webRtcServerId"] = server.Id()
	} else {
		data["listenInfos"] = o.ListenInfos
	}

	resp, err := request[webRtcTransportData](ctx, r.channel, "router.createWebRtcTransport", r.internal, data)
	if err != nil {
		return nil, err
	}

	t := newWebRtcTransport(transportParams{
		id:             id,
		typ:            TransportWebRTC,
		router:         r,
		appData:        options.AppData,
		sctpParameters: resp.SctpParameters,
	}, *resp)

	if server != nil {
		server.handleWebRtcTransport(t)
	}
	r.registerTransport(t)

	return t, nil
}

// CreatePlainTransport creates a PlainTransport for plain RTP/RTCP endpoints.
func (r *Router) CreatePlainTransport(ctx context.Context, options PlainTransportOptions) (*PlainTransport, error) {
	r.logger.V(1).Info("createPlainTransport()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}
	if options.ListenInfo.Ip == "" {
		return nil, NewTypeError("missing listenInfo")
	}

	o := PlainTransportOptions{
		RtcpMux:            Bool(true),
		NumSctpStreams:     ref(defaultNumSctpStreams),
		MaxSctpMessageSize: 262144,
		SctpSendBufferSize: 262144,
		SrtpCryptoSuite:    AES_CM_128_HMAC_SHA1_80,
	}
	if err := override(&o, options); err != nil {
		return nil, err
	}
	if o.ListenInfo.Protocol == "" {
		o.ListenInfo.Protocol = TransportProtocolUDP
	}
	if o.RtcpListenInfo != nil && o.RtcpListenInfo.Protocol == "" {
		o.RtcpListenInfo.Protocol = TransportProtocolUDP
	}
	if o.EnableSctp {
		if err := validateNumSctpStreams(*o.NumSctpStreams); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	data := H{
		"transportId":        id,
		"listenInfo":         o.ListenInfo,
		"rtcpListenInfo":     o.RtcpListenInfo,
		"rtcpMux":            *o.RtcpMux,
		"comedia":            o.Comedia,
		"enableSctp":         o.EnableSctp,
		"numSctpStreams":     o.NumSctpStreams,
		"maxSctpMessageSize": o.MaxSctpMessageSize,
		"sctpSendBufferSize": o.SctpSendBufferSize,
		"isDataChannel":      false,
		"enableSrtp":         o.EnableSrtp,
		"srtpCryptoSuite":    o.SrtpCryptoSuite,
	}

	resp, err := request[plainTransportData](ctx, r.channel, "router.createPlainTransport", r.internal, data)
	if err != nil {
		return nil, err
	}

	t := newPlainTransport(transportParams{
		id:             id,
		typ:            TransportPlain,
		router:         r,
		appData:        options.AppData,
		sctpParameters: resp.SctpParameters,
	}, *resp)

	r.registerTransport(t)

	return t, nil
}

// CreatePipeTransport creates a PipeTransport to connect with another router.
func (r *Router) CreatePipeTransport(ctx context.Context, options PipeTransportOptions) (*PipeTransport, error) {
	r.logger.V(1).Info("createPipeTransport()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}
	if options.ListenInfo.Ip == "" {
		return nil, NewTypeError("missing listenInfo")
	}

	o := PipeTransportOptions{
		NumSctpStreams:     ref(defaultNumSctpStreams),
		MaxSctpMessageSize: 268435456,
		SctpSendBufferSize: 268435456,
	}
	if err := override(&o, options); err != nil {
		return nil, err
	}
	if o.ListenInfo.Protocol == "" {
		o.ListenInfo.Protocol = TransportProtocolUDP
	}
	if o.EnableSctp {
		if err := validateNumSctpStreams(*o.NumSctpStreams); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	data := H{
		"transportId":        id,
		"listenInfo":         o.ListenInfo,
		"enableSctp":         o.EnableSctp,
		"numSctpStreams":     o.NumSctpStreams,
		"maxSctpMessageSize": o.MaxSctpMessageSize,
		"sctpSendBufferSize": o.SctpSendBufferSize,
		"isDataChannel":      false,
		"enableSrtp":         o.EnableSrtp,
		"enableRtx":          o.EnableRtx,
	}

	resp, err := request[pipeTransportData](ctx, r.channel, "router.createPipeTransport", r.internal, data)
	if err != nil {
		return nil, err
	}

	t := newPipeTransport(transportParams{
		id:             id,
		typ:            TransportPipe,
		router:         r,
		appData:        options.AppData,
		sctpParameters: resp.SctpParameters,
	}, *resp)

	r.registerTransport(t)

	return t, nil
}

// CreateDirectTransport creates a DirectTransport, which exchanges RTP, RTCP
// and data messages with the application itself.
func (r *Router) CreateDirectTransport(ctx context.Context, options DirectTransportOptions) (*DirectTransport, error) {
	r.logger.V(1).Info("createDirectTransport()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}

	o := DirectTransportOptions{MaxMessageSize: 262144}
	if err := override(&o, options); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	data := H{
		"transportId":    id,
		"direct":         true,
		"maxMessageSize": o.MaxMessageSize,
	}

	if _, err := r.channel.Request(ctx, "router.createDirectTransport", r.internal, data); err != nil {
		return nil, err
	}

	t := newDirectTransport(transportParams{
		id:             id,
		typ:            TransportDirect,
		router:         r,
		appData:        options.AppData,
		maxMessageSize: o.MaxMessageSize,
	})

	r.registerTransport(t)

	return t, nil
}

func (r *Router) registerTransport(t Transport) {
	id := t.Id()

	r.mu.Lock()
	r.transports[id] = t
	r.mu.Unlock()

	t.OnClose(func() {
		r.mu.Lock()
		delete(r.transports, id)
		r.mu.Unlock()
	})

	base := t.base()
	base.link(r.adopt(base.routerClosed))

	emit(&r.newTransportBag, t)
}

// CreateAudioLevelObserver creates an AudioLevelObserver.
func (r *Router) CreateAudioLevelObserver(ctx context.Context, options ...AudioLevelObserverOption) (*AudioLevelObserver, error) {
	r.logger.V(1).Info("createAudioLevelObserver()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}

	o := &AudioLevelObserverOptions{
		MaxEntries: 1,
		Threshold:  -80,
		Interval:   1000,
	}
	for _, option := range options {
		option(o)
	}
	if o.MaxEntries == 0 {
		return nil, NewTypeError("invalid maxEntries %d", o.MaxEntries)
	}
	if o.Threshold < -127 || o.Threshold > 0 {
		return nil, NewTypeError("invalid threshold %d", o.Threshold)
	}

	id := uuid.NewString()

	_, err := r.channel.Request(ctx, "router.createAudioLevelObserver", r.internal, H{
		"rtpObserverId": id,
		"maxEntries":    o.MaxEntries,
		"threshold":     o.Threshold,
		"interval":      o.Interval,
	})
	if err != nil {
		return nil, err
	}

	observer := newAudioLevelObserver(rtpObserverParams{
		id:      id,
		typ:     RtpObserverAudioLevel,
		router:  r,
		appData: o.AppData,
	})
	r.registerRtpObserver(observer)

	return observer, nil
}

// CreateActiveSpeakerObserver creates an ActiveSpeakerObserver.
func (r *Router) CreateActiveSpeakerObserver(ctx context.Context, options ...ActiveSpeakerObserverOption) (*ActiveSpeakerObserver, error) {
	r.logger.V(1).Info("createActiveSpeakerObserver()")

	if r.Closed() {
		return nil, ErrRouterClosed
	}

	o := &ActiveSpeakerObserverOptions{
		Interval: 300,
	}
	for _, option := range options {
		option(o)
	}

	id := uuid.NewString()

	_, err := r.channel.Request(ctx, "router.createActiveSpeakerObserver", r.internal, H{
		"rtpObserverId": id,
		"interval":      o.Interval,
	})
	if err != nil {
		return nil, err
	}

	observer := newActiveSpeakerObserver(rtpObserverParams{
		id:      id,
		typ:     RtpObserverActiveSpeaker,
		router:  r,
		appData: o.AppData,
	})
	r.registerRtpObserver(observer)

	return observer, nil
}

func (r *Router) registerRtpObserver(o RtpObserver) {
	id := o.Id()

	r.mu.Lock()
	r.rtpObservers[id] = o
	r.mu.Unlock()

	o.OnClose(func() {
		r.mu.Lock()
		delete(r.rtpObservers, id)
		r.mu.Unlock()
	})

	base := o.base()
	base.link(r.adopt(base.routerClosed))

	emit(&r.newRtpObserverBag, o)
}

// CanConsume reports whether the given RTP capabilities can consume the
// producer.
func (r *Router) CanConsume(producerId string, rtpCapabilities RtpCapabilities) bool {
	producer := r.producers.Get(producerId)
	if producer == nil {
		r.logger.Error(ErrProducerNotFound, "canConsume()", "producerId", producerId)
		return false
	}

	caps := clone(rtpCapabilities)
	if err := validateRtpCapabilities(&caps); err != nil {
		r.logger.Error(err, "canConsume() | invalid rtpCapabilities")
		return false
	}

	ok, err := canConsume(producer.ConsumableRtpParameters(), caps)
	if err != nil {
		r.logger.Error(err, "canConsume()")
		return false
	}
	return ok
}

// PipeToRouter pipes a Producer or DataProducer of this router into another
// router on the same host. A single PipeTransport pair is kept per pair of
// routers.
func (r *Router) PipeToRouter(ctx context.Context, options PipeToRouterOptions) (*PipeToRouterResult, error) {
	r.logger.V(1).Info("pipeToRouter()")

	if options.ProducerId == "" && options.DataProducerId == "" {
		return nil, NewTypeError("missing producerId or dataProducerId")
	}
	if options.ProducerId != "" && options.DataProducerId != "" {
		return nil, NewTypeError("just producerId or dataProducerId can be given")
	}
	if options.Router == nil {
		return nil, NewTypeError("router not found")
	}
	if options.Router == r {
		return nil, NewTypeError("cannot use this router as destination")
	}
	if r.Closed() {
		return nil, ErrRouterClosed
	}

	var producer *Producer
	var dataProducer *DataProducer

	if options.ProducerId != "" {
		if producer = r.producers.Get(options.ProducerId); producer == nil {
			return nil, fmt.Errorf("%w: %s", ErrProducerNotFound, options.ProducerId)
		}
	} else {
		if dataProducer = r.dataProducers.Get(options.DataProducerId); dataProducer == nil {
			return nil, fmt.Errorf("%w: %s", ErrDataProducerNotFound, options.DataProducerId)
		}
	}

	pair, err := r.pipeTransportPair(ctx, options)
	if err != nil {
		return nil, err
	}

	if producer != nil {
		return r.pipeProducer(ctx, pair, producer)
	}
	return r.pipeDataProducer(ctx, pair, dataProducer)
}

func (r *Router) pipeTransportPair(ctx context.Context, options PipeToRouterOptions) (*pipeTransportPair, error) {
	remoteId := options.Router.Id()

	r.pipeMu.Lock()
	pair, ok := r.pipePairs[remoteId]
	if !ok {
		pair = &pipeTransportPair{done: make(chan struct{})}
		r.pipePairs[remoteId] = pair
	}
	r.pipeMu.Unlock()

	if ok {
		select {
		case <-pair.done:
			return pair, pair.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	pair.err = r.connectPipeTransportPair(ctx, pair, options)
	if pair.err != nil {
		r.logger.Error(pair.err, "pipeToRouter() | error creating PipeTransport pair")

		r.pipeMu.Lock()
		delete(r.pipePairs, remoteId)
		r.pipeMu.Unlock()
	}
	close(pair.done)

	return pair, pair.err
}

func (r *Router) connectPipeTransportPair(ctx context.Context, pair *pipeTransportPair, options PipeToRouterOptions) (err error) {
	listenInfo := options.ListenInfo
	if listenInfo.Ip == "" {
		listenInfo = TransportListenInfo{Protocol: TransportProtocolUDP, Ip: "127.0.0.1"}
	}
	enableSctp := options.EnableSctp == nil || *options.EnableSctp

	transportOptions := PipeTransportOptions{
		ListenInfo:     listenInfo,
		EnableSctp:     enableSctp,
		NumSctpStreams: options.NumSctpStreams,
		EnableRtx:      options.EnableRtx,
		EnableSrtp:     options.EnableSrtp,
	}

	defer func() {
		if err != nil {
			if pair.local != nil {
				pair.local.Close()
			}
			if pair.remote != nil {
				pair.remote.Close()
			}
		}
	}()

	// Both creations run to completion so that a failure on one side never
	// leaves the other transport unreferenced.
	var created errgroup.Group
	created.Go(func() error {
		t, err := r.CreatePipeTransport(ctx, transportOptions)
		pair.local = t
		return err
	})
	created.Go(func() error {
		t, err := options.Router.CreatePipeTransport(ctx, transportOptions)
		pair.remote = t
		return err
	})
	if err = created.Wait(); err != nil {
		return err
	}

	local, remote := pair.local, pair.remote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tuple := remote.Tuple()
		return local.Connect(gctx, TransportConnectOptions{
			Ip:             tuple.LocalAddress,
			Port:           ref(tuple.LocalPort),
			SrtpParameters: remote.SrtpParameters(),
		})
	})
	g.Go(func() error {
		tuple := local.Tuple()
		return remote.Connect(gctx, TransportConnectOptions{
			Ip:             tuple.LocalAddress,
			Port:           ref(tuple.LocalPort),
			SrtpParameters: local.SrtpParameters(),
		})
	})
	if err = g.Wait(); err != nil {
		return err
	}

	remoteId := options.Router.Id()
	forget := func() {
		r.pipeMu.Lock()
		if r.pipePairs[remoteId] == pair {
			delete(r.pipePairs, remoteId)
		}
		r.pipeMu.Unlock()
	}
	local.OnClose(func() {
		forget()
		remote.Close()
	})
	remote.OnClose(func() {
		forget()
		local.Close()
	})

	return nil
}

func (r *Router) pipeProducer(ctx context.Context, pair *pipeTransportPair, producer *Producer) (result *PipeToRouterResult, err error) {
	var pipeConsumer *Consumer
	var pipeProducer *Producer

	defer func() {
		if err != nil {
			r.logger.Error(err, "pipeToRouter() | error creating pipe Consumer/Producer pair")

			if pipeConsumer != nil {
				pipeConsumer.Close()
			}
			if pipeProducer != nil {
				pipeProducer.Close()
			}
		}
	}()

	pipeConsumer, err = pair.local.Consume(ctx, ConsumerOptions{
		ProducerId: producer.Id(),
	})
	if err != nil {
		return nil, err
	}

	rtpParameters := pipeConsumer.RtpParameters()
	pipeProducer, err = pair.remote.Produce(ctx, ProducerOptions{
		Id:            producer.Id(),
		Kind:          pipeConsumer.Kind(),
		RtpParameters: &rtpParameters,
		Paused:        pipeConsumer.ProducerPaused(),
		AppData:       producer.AppData(),
	})
	if err != nil {
		return nil, err
	}

	// Pipe events from the pipe Consumer to the pipe Producer.
	pipeConsumer.OnClose(pipeProducer.Close)
	pipeConsumer.OnPause(func() {
		go r.followPause(pipeProducer.Id(), pipeProducer.Pause)
	})
	pipeConsumer.OnResume(func() {
		go r.followPause(pipeProducer.Id(), pipeProducer.Resume)
	})

	// Pipe events from the pipe Producer to the pipe Consumer.
	pipeProducer.OnClose(pipeConsumer.Close)

	return &PipeToRouterResult{
		PipeConsumer: pipeConsumer,
		PipeProducer: pipeProducer,
	}, nil
}

func (r *Router) pipeDataProducer(ctx context.Context, pair *pipeTransportPair, dataProducer *DataProducer) (result *PipeToRouterResult, err error) {
	var pipeDataConsumer *DataConsumer
	var pipeDataProducer *DataProducer

	defer func() {
		if err != nil {
			r.logger.Error(err, "pipeToRouter() | error creating pipe DataConsumer/DataProducer pair")

			if pipeDataConsumer != nil {
				pipeDataConsumer.Close()
			}
			if pipeDataProducer != nil {
				pipeDataProducer.Close()
			}
		}
	}()

	pipeDataConsumer, err = pair.local.ConsumeData(ctx, DataConsumerOptions{
		DataProducerId: dataProducer.Id(),
	})
	if err != nil {
		return nil, err
	}

	pipeDataProducer, err = pair.remote.ProduceData(ctx, DataProducerOptions{
		Id:                   dataProducer.Id(),
		SctpStreamParameters: pipeDataConsumer.SctpStreamParameters(),
		Label:                pipeDataConsumer.Label(),
		Protocol:             pipeDataConsumer.Protocol(),
		Paused:               pipeDataConsumer.DataProducerPaused(),
		AppData:              dataProducer.AppData(),
	})
	if err != nil {
		return nil, err
	}

	// Pipe events from the pipe DataConsumer to the pipe DataProducer.
	pipeDataConsumer.OnClose(pipeDataProducer.Close)
	pipeDataConsumer.OnPause(func() {
		go r.followPause(pipeDataProducer.Id(), pipeDataProducer.Pause)
	})
	pipeDataConsumer.OnResume(func() {
		go r.followPause(pipeDataProducer.Id(), pipeDataProducer.Resume)
	})

	// Pipe events from the pipe DataProducer to the pipe DataConsumer.
	pipeDataProducer.OnClose(pipeDataConsumer.Close)

	return &PipeToRouterResult{
		PipeDataConsumer: pipeDataConsumer,
		PipeDataProducer: pipeDataProducer,
	}, nil
}

// followPause mirrors a pause state change on the other side of a pipe.
func (r *Router) followPause(id string, change func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), closeRequestTimeout)
	defer cancel()

	if err := change(ctx); err != nil {
		r.logger.Error(err, "pipeToRouter() | failed to mirror pause state", "id", id)
	}
}

// OnWorkerClose registers a handler for the closure of the worker owning the
// router.
func (r *Router) OnWorkerClose(handler func()) *Subscription {
	return addOrCall(&r.workerCloseBag, handler)
}

func (r *Router) OnNewTransport(handler func(Transport)) *Subscription {
	return r.newTransportBag.Add(handler)
}

func (r *Router) OnNewRtpObserver(handler func(RtpObserver)) *Subscription {
	return r.newRtpObserverBag.Add(handler)
}
