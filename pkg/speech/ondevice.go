package speech

import (
	"context"
	"errors"
	"strings"
)

// ErrUnsupportedPlatform is returned when no on-device speech capability
// exists at all.
var ErrUnsupportedPlatform = errors.New("no on-device speech capability on this platform")

// Voice is an on-device synthesis voice.
type Voice struct {
	ID       string
	Name     string
	Language string // locale such as "fr-FR"
}

// Utterance carries the device-tuned parameters for one synthesis.
type Utterance struct {
	Text     string
	Language string
	VoiceID  string // empty selects the platform default voice
	Rate     float64
	Pitch    float64
	Volume   float64
}

// OnDevice is the platform speech-synthesis capability.
type OnDevice interface {
	// Speak synthesizes the utterance, blocking until it finishes or ctx
	// is cancelled.
	Speak(ctx context.Context, u Utterance) error

	// Voices enumerates the available voices. Some platforms report an
	// empty list until the voice inventory has loaded; see Ready.
	Voices(ctx context.Context) ([]Voice, error)

	// Cancel aborts any in-flight utterance.
	Cancel()

	// Ready is closed once the voice list is available. Platforms that
	// populate voices synchronously return an already-closed channel.
	Ready() <-chan struct{}
}

// matchVoice picks the first voice whose locale prefix matches the requested
// language ("fr" matches "fr-FR" and "fr-CA"). An empty result means the
// platform default voice.
func matchVoice(voices []Voice, language string) Voice {
	prefix := strings.ToLower(language)
	if i := strings.IndexAny(prefix, "-_"); i > 0 {
		prefix = prefix[:i]
	}
	for _, v := range voices {
		lang := strings.ToLower(v.Language)
		if lang == prefix || strings.HasPrefix(lang, prefix+"-") || strings.HasPrefix(lang, prefix+"_") {
			return v
		}
	}
	return Voice{}
}
