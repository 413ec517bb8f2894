package mediasoup

import (
	"encoding/json"
)

// AudioLevelObserver monitors the volume of the selected audio producers.
//
// Audio levels are read from an RTP header extension. No decoding of audio
// data is done. See RFC6464 for more information.
type AudioLevelObserver struct {
	rtpObserverBase

	volumesBag Bag[func([]AudioLevelObserverVolume)]
	silenceBag Bag[func()]
}

func newAudioLevelObserver(params rtpObserverParams) *AudioLevelObserver {
	o := &AudioLevelObserver{}
	o.init(params, "AudioLevelObserver")

	o.subs = notifications{o.channel.Subscribe(o.id, o.handleNotification)}

	return o
}

func (o *AudioLevelObserver) handleNotification(event string, data json.RawMessage, _ []byte) {
	switch event {
	case "volumes":
		var entries []struct {
			ProducerId string `json:"producerId"`
			Volume     int8   `json:"volume"`
		}
		if !decode(o.logger, event, data, &entries) {
			return
		}

		// Skip producers closed in the meanwhile.
		volumes := make([]AudioLevelObserverVolume, 0, len(entries))
		for _, entry := range entries {
			if producer := o.router.producers.Get(entry.ProducerId); producer != nil {
				volumes = append(volumes, AudioLevelObserverVolume{
					Producer: producer,
					Volume:   entry.Volume,
				})
			}
		}
		if len(volumes) > 0 {
			emit(&o.volumesBag, volumes)
		}

	case "silence":
		fire(&o.silenceBag)

	default:
		o.logger.Error(nil, "ignoring unknown event", "event", event)
	}
}

// OnVolumes registers a handler for the loudest producers of the last
// interval, sorted by volume, the loudest first.
func (o *AudioLevelObserver) OnVolumes(handler func([]AudioLevelObserverVolume)) *Subscription {
	return o.volumesBag.Add(handler)
}

// OnSilence registers a handler for intervals where no producer is over the
// threshold.
func (o *AudioLevelObserver) OnSilence(handler func()) *Subscription {
	return o.silenceBag.Add(handler)
}
