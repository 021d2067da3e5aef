// Package speech is the independent local fallback path: cloud TTS bridge
// first, on-device synthesis when the bridge fails. It never reports errors
// past its boundary; failure degrades to best-effort sound or silence.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxlingo/pkg/playback"
	"voxlingo/pkg/tracker"
)

const (
	bridgeTimeout       = 10 * time.Second
	bridgeTimeoutMobile = 20 * time.Second

	// Device-tuned utterance rates; mobile synthesizers rush at full speed.
	deviceRate       = 0.9
	deviceRateMobile = 0.8

	// voiceListWait bounds how long we wait for a deferred voice list.
	voiceListWait = 3 * time.Second
)

type cacheKey struct {
	text     string
	language string
}

// Speaker speaks short texts with the cloud-then-device fallback chain.
type Speaker struct {
	bridge  Bridge
	device  OnDevice
	backend playback.Backend
	tracker *tracker.Tracker
	tempDir string

	mu       sync.Mutex
	cache    map[cacheKey]string // session-scoped base64 payloads
	lastFile string              // previous transient artifact, removed on the next speak
}

// NewSpeaker creates a Speaker. device may be nil on platforms without any
// speech capability; the fallback then ends in silent failure.
func NewSpeaker(bridge Bridge, device OnDevice, backend playback.Backend, tr *tracker.Tracker) *Speaker {
	return &Speaker{
		bridge:  bridge,
		device:  device,
		backend: backend,
		tracker: tr,
		tempDir: os.TempDir(),
		cache:   make(map[cacheKey]string),
	}
}

// Speak voices the text in the given language. It never panics or returns:
// any failure falls through the chain and ends, at worst, in silence.
//
// Per call: Idle -> TryingCloud -> Playing, or -> TryingLocal -> Playing,
// or silent failure. There is no re-entry into the cloud path after falling
// to the local one.
func (s *Speaker) Speak(ctx context.Context, text, language string) {
	if text == "" {
		return
	}

	err := s.speakCloud(ctx, text, language)
	if err == nil {
		return
	}
	slog.Debug("Speech: cloud path failed, trying on-device", "language", language, "error", err)

	if err := s.speakOnDevice(ctx, text, language); err != nil {
		slog.Warn("Speech: all fallbacks exhausted", "language", language, "error", err)
	}
}

func (s *Speaker) speakCloud(ctx context.Context, text, language string) error {
	payload, err := s.fetchPayload(ctx, text, language)
	if err != nil {
		return err
	}

	audio, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(audio) == 0 {
		s.forget(text, language)
		if err == nil {
			err = errEmptyPayload
		}
		return err
	}

	return s.playBytes(audio)
}

var errEmptyPayload = errors.New("bridge payload decoded to nothing playable")

// fetchPayload checks the session cache, then races the bridge call against
// the device-class timeout. Successful payloads are cached for the session.
func (s *Speaker) fetchPayload(ctx context.Context, text, language string) (string, error) {
	key := cacheKey{text: text, language: language}

	s.mu.Lock()
	if payload, ok := s.cache[key]; ok {
		s.mu.Unlock()
		if s.tracker != nil {
			s.tracker.TrackCacheHit(bridgeProvider)
		}
		return payload, nil
	}
	s.mu.Unlock()
	if s.tracker != nil {
		s.tracker.TrackCacheMiss(bridgeProvider)
	}

	timeout := bridgeTimeout
	if s.backend.MobileClass() {
		timeout = bridgeTimeoutMobile
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := s.bridge.Synthesize(callCtx, text, language)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = payload
	s.mu.Unlock()
	return payload, nil
}

// forget drops a cached payload that turned out to be unplayable.
func (s *Speaker) forget(text, language string) {
	s.mu.Lock()
	delete(s.cache, cacheKey{text: text, language: language})
	s.mu.Unlock()
}

// playBytes writes the decoded audio to a transient file and plays it. The
// previous transient artifact is removed once the new one is loaded. On a
// mobile-class platform with a suspended output context the play is retried
// once after a resume.
func (s *Speaker) playBytes(audio []byte) error {
	path := filepath.Join(s.tempDir, "speech_"+uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return &playback.Error{Op: "write", Err: err}
	}

	handle, err := s.backend.Open(path)
	if err != nil {
		os.Remove(path)
		return err
	}

	s.rotateArtifact(path)

	handle.Rewind()
	if err := handle.Play(); err != nil {
		if s.backend.MobileClass() && s.backend.ContextSuspended() {
			if rerr := s.backend.ResumeContext(); rerr == nil {
				slog.Debug("Speech: resumed suspended output context, retrying once")
				if err = handle.Play(); err == nil {
					return nil
				}
			}
		}
		return err
	}
	return nil
}

// rotateArtifact records the new transient file and removes the previous
// one, whose handle is no longer needed.
func (s *Speaker) rotateArtifact(path string) {
	s.mu.Lock()
	old := s.lastFile
	s.lastFile = path
	s.mu.Unlock()

	if old == "" {
		return
	}
	if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
		slog.Warn("Speech: failed to remove transient artifact", "path", old, "error", err)
	}
}

// speakOnDevice is the last resort: device-tuned on-device synthesis.
func (s *Speaker) speakOnDevice(ctx context.Context, text, language string) error {
	if s.device == nil {
		return ErrUnsupportedPlatform
	}

	// Drop whatever the device is still saying.
	s.device.Cancel()

	voices, err := s.device.Voices(ctx)
	if err != nil {
		return err
	}
	if len(voices) == 0 {
		// Some platforms report an empty list until the inventory loads.
		// Defer until the ready notification, then retry once.
		select {
		case <-s.device.Ready():
			voices, err = s.device.Voices(ctx)
			if err != nil {
				return err
			}
		case <-time.After(voiceListWait):
			slog.Debug("Speech: voice list never became ready, using platform default voice")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rate := deviceRate
	if s.backend.MobileClass() {
		rate = deviceRateMobile
	}

	return s.device.Speak(ctx, Utterance{
		Text:     text,
		Language: language,
		VoiceID:  matchVoice(voices, language).ID,
		Rate:     rate,
		Pitch:    1.0,
		Volume:   1.0,
	})
}

// Close removes the last transient artifact.
func (s *Speaker) Close() {
	s.mu.Lock()
	last := s.lastFile
	s.lastFile = ""
	s.mu.Unlock()
	if last != "" {
		os.Remove(last)
	}
}
