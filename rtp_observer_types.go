package mediasoup

// RtpObserverType tells the observer variant.
type RtpObserverType string

const (
	RtpObserverAudioLevel    RtpObserverType = "audiolevel"
	RtpObserverActiveSpeaker RtpObserverType = "activespeaker"
)

// ActiveSpeakerObserverOptions define options to create an ActiveSpeakerObserver.
type ActiveSpeakerObserverOptions struct {
	// Interval in ms for checking the dominant speaker. Default 300.
	Interval uint16 `json:"interval"`

	// AppData is custom application data.
	AppData H `json:"-"`
}

type ActiveSpeakerObserverOption func(*ActiveSpeakerObserverOptions)

// AudioLevelObserverOptions define options to create an AudioLevelObserver.
type AudioLevelObserverOptions struct {
	// MaxEntries is maximum number of entries in the "volumes" event. Default 1.
	MaxEntries uint16 `json:"maxEntries"`

	// Threshold is minimum average volume (in dBvo from -127 to 0) for entries
	// in the "volumes" event. Default -80.
	Threshold int8 `json:"threshold"`

	// Interval in ms for checking audio volumes. Default 1000.
	Interval uint16 `json:"interval"`

	// AppData is custom application data.
	AppData H `json:"-"`
}

type AudioLevelObserverOption func(*AudioLevelObserverOptions)

// ActiveSpeakerObserverDominantSpeaker is "dominantspeaker" event data.
type ActiveSpeakerObserverDominantSpeaker struct {
	// Producer is the dominant audio producer.
	Producer *Producer
}

// AudioLevelObserverVolume is one entry of the "volumes" event.
type AudioLevelObserverVolume struct {
	// Producer is the audio producer.
	Producer *Producer

	// Volume is the average volume (in dBvo from -127 to 0) of the audio
	// producer in the last interval.
	Volume int8
}
