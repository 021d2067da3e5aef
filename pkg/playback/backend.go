// Package playback abstracts the platform audio capability behind a backend
// interface, so platform quirks (suspended contexts, missing speech support)
// stay out of the resolution logic.
package playback

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned when no audio capability is present.
var ErrUnsupportedPlatform = errors.New("no audio playback capability on this platform")

// Error represents a playback failure: decode errors, refused playback,
// suspended output contexts.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("playback %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Handle is a playable piece of audio tied to one source URL. Handles are
// cached per URL for the process lifetime and replayed from the start.
type Handle interface {
	// Play restarts playback from the current position.
	Play() error
	// Pause halts playback, keeping the position.
	Pause()
	// Rewind resets the position to the start.
	Rewind()
	// IsPlaying reports whether the handle is currently audible.
	IsPlaying() bool
	// Close releases the decoded audio.
	Close() error
}

// Backend is the platform audio capability.
type Backend interface {
	// Open fetches and decodes the audio at url into a reusable Handle.
	Open(url string) (Handle, error)

	// MobileClass reports whether this platform is subject to autoplay
	// restrictions and output-context suspension.
	MobileClass() bool

	// ContextSuspended reports whether the output context is suspended and
	// needs an explicit resume before playback can succeed.
	ContextSuspended() bool

	// ResumeContext resumes a suspended output context.
	ResumeContext() error

	// Close releases the underlying audio device.
	Close() error
}

// Noop is the no-capability backend. Every Open fails with
// ErrUnsupportedPlatform; callers degrade the way they would on a platform
// without audio support.
type Noop struct{}

func (Noop) Open(url string) (Handle, error) { return nil, ErrUnsupportedPlatform }
func (Noop) MobileClass() bool               { return false }
func (Noop) ContextSuspended() bool          { return false }
func (Noop) ResumeContext() error            { return ErrUnsupportedPlatform }
func (Noop) Close() error                    { return nil }
