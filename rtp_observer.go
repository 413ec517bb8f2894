package mediasoup

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sfukit/mediasoup-go/internal/channel"
)

// RtpObserver is implemented by AudioLevelObserver and ActiveSpeakerObserver.
type RtpObserver interface {
	Id() string
	Type() RtpObserverType
	Closed() bool
	Paused() bool
	AppData() H
	Close()
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	AddProducer(ctx context.Context, producerId string) error
	RemoveProducer(ctx context.Context, producerId string) error
	ProducerIds() []string

	OnClose(handler func()) *Subscription
	OnRouterClose(handler func()) *Subscription
	OnPause(handler func()) *Subscription
	OnResume(handler func()) *Subscription
	OnAddProducer(handler func(*Producer)) *Subscription
	OnRemoveProducer(handler func(*Producer)) *Subscription

	base() *rtpObserverBase
}

type rtpObserverParams struct {
	id      string
	typ     RtpObserverType
	router  *Router
	appData H
}

// rtpObserverBase holds the state shared by the observer variants. The
// membership set mirrors the worker's: a closed producer leaves it.
type rtpObserverBase struct {
	lifecycle

	id       string
	typ      RtpObserverType
	router   *Router
	channel  *channel.Channel
	internal channel.Internal
	logger   logr.Logger
	appData  H
	subs     notifications

	mu        sync.Mutex
	paused    bool
	producers map[string]*Subscription

	routerCloseBag    Bag[func()]
	pauseBag          Bag[func()]
	resumeBag         Bag[func()]
	addProducerBag    Bag[func(*Producer)]
	removeProducerBag Bag[func(*Producer)]
}

func (o *rtpObserverBase) init(params rtpObserverParams, scope string) {
	o.id = params.id
	o.typ = params.typ
	o.router = params.router
	o.channel = params.router.channel
	o.internal = channel.Internal{RouterId: params.router.id, RtpObserverId: params.id}
	o.logger = NewLogger(scope).WithValues("id", params.id)
	o.appData = orEmpty(params.appData)
	o.producers = make(map[string]*Subscription)

	o.logger.V(1).Info("constructor()")
}

func (o *rtpObserverBase) base() *rtpObserverBase {
	return o
}

// Id returns the observer id.
func (o *rtpObserverBase) Id() string {
	return o.id
}

func (o *rtpObserverBase) Type() RtpObserverType {
	return o.typ
}

func (o *rtpObserverBase) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.paused
}

func (o *rtpObserverBase) AppData() H {
	return o.appData
}

// ProducerIds returns the ids of the observed producers.
func (o *rtpObserverBase) ProducerIds() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]string, 0, len(o.producers))
	for id := range o.producers {
		ids = append(ids, id)
	}
	return ids
}

// Close closes the observer.
func (o *rtpObserverBase) Close() {
	if !o.markClosed() {
		return
	}
	o.logger.V(1).Info("close()")

	o.fireClose()
	sendCloseRequest(o.channel, o.logger, "router.closeRtpObserver", o.router.internal, H{"rtpObserverId": o.id})
	o.release()
}

func (o *rtpObserverBase) routerClosed() {
	if !o.markClosed() {
		return
	}
	o.logger.V(1).Info("routerClosed()")

	fireOnce(&o.routerCloseBag)
	o.fireClose()
	o.release()
}

func (o *rtpObserverBase) release() {
	o.subs.unsubscribe()

	o.mu.Lock()
	producers := o.producers
	o.producers = make(map[string]*Subscription)
	o.mu.Unlock()

	for _, sub := range producers {
		sub.Unsubscribe()
	}
}

// Pause pauses the observer. No events fire while paused.
func (o *rtpObserverBase) Pause(ctx context.Context) error {
	o.logger.V(1).Info("pause()")

	if _, err := o.channel.Request(ctx, "rtpObserver.pause", o.internal, nil); err != nil {
		return err
	}

	o.mu.Lock()
	wasPaused := o.paused
	o.paused = true
	o.mu.Unlock()

	if !wasPaused {
		fire(&o.pauseBag)
	}
	return nil
}

// Resume resumes a paused observer.
func (o *rtpObserverBase) Resume(ctx context.Context) error {
	o.logger.V(1).Info("resume()")

	if _, err := o.channel.Request(ctx, "rtpObserver.resume", o.internal, nil); err != nil {
		return err
	}

	o.mu.Lock()
	wasPaused := o.paused
	o.paused = false
	o.mu.Unlock()

	if wasPaused {
		fire(&o.resumeBag)
	}
	return nil
}

// AddProducer starts observing the given producer.
func (o *rtpObserverBase) AddProducer(ctx context.Context, producerId string) error {
	o.logger.V(1).Info("addProducer()", "producerId", producerId)

	producer := o.router.producers.Get(producerId)
	if producer == nil {
		return fmt.Errorf("%w: %s", ErrProducerNotFound, producerId)
	}

	if _, err := o.channel.Request(ctx, "rtpObserver.addProducer", o.internal, H{"producerId": producerId}); err != nil {
		return err
	}

	o.mu.Lock()
	_, known := o.producers[producerId]
	if !known {
		o.producers[producerId] = nil
	}
	o.mu.Unlock()

	if !known {
		// OnClose runs the handler right away on a closed producer, so it
		// must not be called with mu held.
		sub := producer.OnClose(func() { o.forget(producerId) })

		o.mu.Lock()
		_, member := o.producers[producerId]
		if member && !o.Closed() {
			o.producers[producerId] = sub
		}
		o.mu.Unlock()

		if !member || o.Closed() {
			sub.Unsubscribe()
		}
	}

	emit(&o.addProducerBag, producer)

	return nil
}

// RemoveProducer stops observing the given producer.
func (o *rtpObserverBase) RemoveProducer(ctx context.Context, producerId string) error {
	o.logger.V(1).Info("removeProducer()", "producerId", producerId)

	producer := o.router.producers.Get(producerId)
	if producer == nil {
		return fmt.Errorf("%w: %s", ErrProducerNotFound, producerId)
	}

	if _, err := o.channel.Request(ctx, "rtpObserver.removeProducer", o.internal, H{"producerId": producerId}); err != nil {
		return err
	}

	if sub := o.forget(producerId); sub != nil {
		sub.Unsubscribe()
	}

	emit(&o.removeProducerBag, producer)

	return nil
}

func (o *rtpObserverBase) forget(producerId string) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	sub := o.producers[producerId]
	delete(o.producers, producerId)
	return sub
}

// OnRouterClose registers a handler for the closure of the router.
func (o *rtpObserverBase) OnRouterClose(handler func()) *Subscription {
	return addOrCall(&o.routerCloseBag, handler)
}

func (o *rtpObserverBase) OnPause(handler func()) *Subscription {
	return o.pauseBag.Add(handler)
}

func (o *rtpObserverBase) OnResume(handler func()) *Subscription {
	return o.resumeBag.Add(handler)
}

func (o *rtpObserverBase) OnAddProducer(handler func(*Producer)) *Subscription {
	return o.addProducerBag.Add(handler)
}

func (o *rtpObserverBase) OnRemoveProducer(handler func(*Producer)) *Subscription {
	return o.removeProducerBag.Add(handler)
}
