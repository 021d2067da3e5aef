// Package resolver orchestrates the tiered audio strategy: persisted
// recording first, then remote generation, then playback.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"voxlingo/pkg/model"
	"voxlingo/pkg/playback"
	"voxlingo/pkg/store"
	"voxlingo/pkg/synth"
	"voxlingo/pkg/tracker"
	"voxlingo/pkg/voice"
)

const repoProvider = "repository"

// Synthesizer is the remote generation capability the engine depends on.
type Synthesizer interface {
	Generate(ctx context.Context, text, voiceID, fileName string) (*synth.Result, error)
	TestConnection(ctx context.Context) error
}

// Options control a single resolution.
type Options struct {
	// VoicePreference selects the voice gender; auto and empty pick the
	// default female voice.
	VoicePreference model.VoicePreference
	// FallbackToTTS allows remote generation when no recording is persisted.
	// When false, a repository miss resolves to a failure with no network
	// activity.
	FallbackToTTS bool
	// Category tags a newly generated recording; defaults to vocabulary.
	Category model.Category
	// LessonID optionally associates a newly generated recording.
	LessonID string
}

// Engine resolves text to playable audio. All methods are safe for
// concurrent use.
type Engine struct {
	store   store.AudioStore
	synth   Synthesizer
	backend playback.Backend
	tracker *tracker.Tracker

	flight singleflight.Group

	mu      sync.Mutex
	handles map[string]playback.Handle
}

// New creates an Engine with explicit dependencies.
func New(st store.AudioStore, sy Synthesizer, backend playback.Backend, tr *tracker.Tracker) *Engine {
	return &Engine{
		store:   st,
		synth:   sy,
		backend: backend,
		tracker: tr,
		handles: make(map[string]playback.Handle),
	}
}

// Resolve turns text into played audio. The boolean mirrors the overall
// outcome; the error carries the typed cause (store.ErrNotFound,
// *synth.ProviderError, *store.StorageError, *playback.Error) and is nil
// exactly when the boolean is true.
func (e *Engine) Resolve(ctx context.Context, text string, opts Options) (bool, error) {
	asset, err := e.store.GetByText(ctx, text)
	switch {
	case err == nil:
		e.trackHit()
		if perr := e.play(asset.AudioURL); perr != nil {
			slog.Warn("Resolver: playback of persisted recording failed", "text", text, "error", perr)
			return false, perr
		}
		return true, nil
	case !errors.Is(err, store.ErrNotFound):
		slog.Warn("Resolver: repository lookup failed", "text", text, "error", err)
		return false, err
	}

	e.trackMiss()

	if !opts.FallbackToTTS {
		return false, store.ErrNotFound
	}

	// Concurrent resolutions for the same not-yet-cached text share one
	// generation+save instead of racing to create duplicate rows.
	v, err, _ := e.flight.Do(text, func() (any, error) {
		return e.generateAndSave(ctx, text, opts)
	})
	if err != nil {
		return false, err
	}
	asset = v.(*model.AudioAsset)

	if perr := e.play(asset.AudioURL); perr != nil {
		slog.Warn("Resolver: playback of fresh recording failed", "text", text, "error", perr)
		return false, perr
	}
	return true, nil
}

func (e *Engine) generateAndSave(ctx context.Context, text string, opts Options) (*model.AudioAsset, error) {
	profile := voice.ByPreference(opts.VoicePreference)

	res, err := e.synth.Generate(ctx, text, profile.ID, "")
	if err != nil {
		slog.Warn("Resolver: generation failed", "text", text, "voice", profile.Name, "error", err)
		return nil, err
	}

	asset, err := e.store.Save(ctx, store.SaveRequest{
		Text:      text,
		Audio:     res.Audio,
		VoiceID:   profile.ID,
		VoiceName: profile.Name,
		Category:  opts.Category,
		LessonID:  opts.LessonID,
		FileName:  res.FileName,
	})
	if err != nil {
		slog.Warn("Resolver: failed to persist recording", "text", text, "error", err)
		return nil, err
	}

	slog.Debug("Resolver: generated and stored recording",
		"text", text, "voice", profile.Name, "file", asset.FileName)
	return asset, nil
}

// play looks up or creates the cached handle for the URL, rewinds it and
// attempts playback. On failure on a mobile-class platform with a suspended
// output context, the context is resumed once and playback retried exactly
// once.
func (e *Engine) play(audioURL string) error {
	handle, err := e.handle(audioURL)
	if err != nil {
		return err
	}

	handle.Rewind()
	err = handle.Play()
	if err == nil {
		return nil
	}

	if e.backend.MobileClass() && e.backend.ContextSuspended() {
		if rerr := e.backend.ResumeContext(); rerr != nil {
			slog.Warn("Resolver: failed to resume suspended output context", "error", rerr)
			return err
		}
		slog.Debug("Resolver: resumed suspended output context, retrying playback once")
		return handle.Play()
	}

	return err
}

func (e *Engine) handle(audioURL string) (playback.Handle, error) {
	e.mu.Lock()
	if h, ok := e.handles[audioURL]; ok {
		e.mu.Unlock()
		return h, nil
	}
	e.mu.Unlock()

	// Open outside the lock: fetching and decoding can be slow.
	h, err := e.backend.Open(audioURL)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.handles[audioURL]; ok {
		h.Close()
		return existing, nil
	}
	e.handles[audioURL] = h
	return h, nil
}

// StopAudio pauses every cached handle and resets its position. Calling it
// with nothing playing is a no-op.
func (e *Engine) StopAudio() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.handles {
		h.Pause()
		h.Rewind()
	}
}

// IsAudioPlaying reports whether any cached handle is currently audible.
func (e *Engine) IsAudioPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.handles {
		if h.IsPlaying() {
			return true
		}
	}
	return false
}

// AudioInfo returns the most recent persisted recording for the text.
func (e *Engine) AudioInfo(ctx context.Context, text string) (*model.AudioAsset, error) {
	return e.store.GetByText(ctx, text)
}

// LessonAudio returns all recordings for a lesson, oldest first.
func (e *Engine) LessonAudio(ctx context.Context, lessonID string) ([]*model.AudioAsset, error) {
	return e.store.GetByLesson(ctx, lessonID)
}

// CategoryAudio returns all recordings in a category, oldest first.
func (e *Engine) CategoryAudio(ctx context.Context, category model.Category) ([]*model.AudioAsset, error) {
	return e.store.GetByCategory(ctx, category)
}

// Close releases every cached handle.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for url, h := range e.handles {
		h.Close()
		delete(e.handles, url)
	}
}

func (e *Engine) trackHit() {
	if e.tracker != nil {
		e.tracker.TrackCacheHit(repoProvider)
	}
}

func (e *Engine) trackMiss() {
	if e.tracker != nil {
		e.tracker.TrackCacheMiss(repoProvider)
	}
}
