package playback

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const targetSampleRate = beep.SampleRate(48000)

// SpeakerBackend implements Backend on the local audio device via beep.
// Decoded audio is buffered in memory so a handle can be replayed and
// rewound without re-fetching.
type SpeakerBackend struct {
	mu          sync.Mutex
	initialized bool
	suspended   bool
	mobileClass bool
	client      *http.Client
}

// NewSpeakerBackend creates a local-device backend. mobileClass marks
// platforms whose output context suspends under autoplay policy.
func NewSpeakerBackend(mobileClass bool) *SpeakerBackend {
	return &SpeakerBackend{
		mobileClass: mobileClass,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *SpeakerBackend) MobileClass() bool { return b.mobileClass }

func (b *SpeakerBackend) ContextSuspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended
}

// Suspend suspends the output context. On mobile-class platforms the host
// environment calls this when the app loses audio focus.
func (b *SpeakerBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized || b.suspended {
		b.suspended = true
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return &Error{Op: "suspend", Err: err}
	}
	b.suspended = true
	return nil
}

func (b *SpeakerBackend) ResumeContext() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.suspended {
		return nil
	}
	if b.initialized {
		if err := speaker.Resume(); err != nil {
			return &Error{Op: "resume", Err: err}
		}
	}
	b.suspended = false
	slog.Debug("Playback: output context resumed")
	return nil
}

// Close shuts down the audio device. Handles opened from this backend are
// unusable afterwards.
func (b *SpeakerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	speaker.Close()
	b.initialized = false
	return nil
}

// Open fetches the source, decodes it and returns a replayable handle.
func (b *SpeakerBackend) Open(url string) (Handle, error) {
	rc, err := b.fetch(url)
	if err != nil {
		return nil, &Error{Op: "fetch", Err: err}
	}
	defer rc.Close()

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(url, "/"))) {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	default:
		// Generated recordings are mp3; default accordingly.
		streamer, format, err = mp3.Decode(rc)
	}
	if err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}
	defer streamer.Close()

	if err := b.ensureInitialized(); err != nil {
		return nil, err
	}

	// Buffer at the source rate; resample at play time.
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	return &speakerHandle{backend: b, buffer: buffer, format: format}, nil
}

func (b *SpeakerBackend) fetch(url string) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := b.client.Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %d fetching audio", resp.StatusCode)
		}
		return resp.Body, nil
	}
	return os.Open(url)
}

func (b *SpeakerBackend) ensureInitialized() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
		slog.Error("Playback: failed to initialize speaker", "error", err)
		return &Error{Op: "init", Err: err}
	}
	b.initialized = true
	return nil
}

// speakerHandle is one cached, replayable piece of audio.
type speakerHandle struct {
	backend *SpeakerBackend
	buffer  *beep.Buffer
	format  beep.Format

	mu       sync.Mutex
	ctrl     *beep.Ctrl
	pos      int // sample offset where the next Play starts
	playing  bool
	streamAt int // sample offset of the running streamer's start
}

func (h *speakerHandle) Play() error {
	if h.backend.ContextSuspended() {
		// Mirrors the platform behavior: a suspended context refuses
		// playback until it is explicitly resumed.
		return &Error{Op: "play", Err: fmt.Errorf("output context is suspended")}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()

	start := h.pos
	if start >= h.buffer.Len() {
		start = 0
	}
	streamer := h.buffer.Streamer(start, h.buffer.Len())
	resampled := beep.Resample(3, h.format.SampleRate, targetSampleRate, streamer)

	h.ctrl = &beep.Ctrl{Streamer: resampled}
	h.playing = true
	h.streamAt = start

	ctrl := h.ctrl
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go func() {
			h.mu.Lock()
			if h.ctrl == ctrl {
				h.playing = false
				h.ctrl = nil
				h.pos = 0
			}
			h.mu.Unlock()
		}()
	})))

	return nil
}

func (h *speakerHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctrl == nil {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	h.playing = false
}

func (h *speakerHandle) Rewind() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.pos = 0
}

func (h *speakerHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *speakerHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.buffer = beep.NewBuffer(h.format)
	return nil
}

// stopLocked detaches the running streamer. Callers hold h.mu.
func (h *speakerHandle) stopLocked() {
	if h.ctrl == nil {
		return
	}
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()
	h.ctrl = nil
	h.playing = false
}
