package mediasoup

import (
	"encoding/json"
)

// ActiveSpeakerObserver detects the dominant speaker among the selected audio
// producers.
type ActiveSpeakerObserver struct {
	rtpObserverBase

	dominantSpeakerBag Bag[func(ActiveSpeakerObserverDominantSpeaker)]
}

func newActiveSpeakerObserver(params rtpObserverParams) *ActiveSpeakerObserver {
	o := &ActiveSpeakerObserver{}
	o.init(params, "ActiveSpeakerObserver")

	o.subs = notifications{o.channel.Subscribe(o.id, o.handleNotification)}

	return o
}

func (o *ActiveSpeakerObserver) handleNotification(event string, data json.RawMessage, _ []byte) {
	switch event {
	case "dominantspeaker":
		var n struct {
			ProducerId string `json:"producerId"`
		}
		if !decode(o.logger, event, data, &n) {
			return
		}
		producer := o.router.producers.Get(n.ProducerId)
		if producer == nil {
			return
		}
		emit(&o.dominantSpeakerBag, ActiveSpeakerObserverDominantSpeaker{Producer: producer})

	default:
		o.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnDominantSpeaker registers a handler for dominant speaker changes.
func (o *ActiveSpeakerObserver) OnDominantSpeaker(handler func(ActiveSpeakerObserverDominantSpeaker)) *Subscription {
	return o.dominantSpeakerBag.Add(handler)
}
