package store

import (
	"context"
	"errors"
	"fmt"

	"voxlingo/pkg/blob"
	"voxlingo/pkg/model"
)

// ErrNotFound is returned when no persisted recording matches a lookup.
var ErrNotFound = errors.New("audio asset not found")

// StorageError wraps a failure of the persistence backend (blob upload or
// metadata write). Op identifies the failing step.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SaveRequest carries everything needed to persist a generated recording.
type SaveRequest struct {
	Text      string
	Audio     []byte
	VoiceID   string
	VoiceName string
	Category  model.Category
	LessonID  string
	FileName  string
}

// AudioStore handles persistence of generated recordings.
type AudioStore interface {
	// Save uploads the payload and inserts the metadata row. If the row
	// insert fails after the upload succeeded, one best-effort compensating
	// blob delete is attempted.
	Save(ctx context.Context, req SaveRequest) (*model.AudioAsset, error)

	// GetByText returns the most recent recording for the text, or
	// ErrNotFound. Duplicate historical rows are tolerated silently.
	GetByText(ctx context.Context, text string) (*model.AudioAsset, error)

	// GetByLesson returns all recordings for a lesson, oldest first.
	GetByLesson(ctx context.Context, lessonID string) ([]*model.AudioAsset, error)

	// GetByCategory returns all recordings in a category, oldest first.
	GetByCategory(ctx context.Context, category model.Category) ([]*model.AudioAsset, error)

	// Delete removes the blob and the metadata row independently; success
	// requires the row deletion to succeed.
	Delete(ctx context.Context, fileName string) error

	// StorageInfo aggregates file count and byte size across the blob store.
	// Unlike the other operations it propagates failures raw: there is no
	// sensible degraded result.
	StorageInfo(ctx context.Context) (blob.Info, error)

	// Ping verifies the persistence backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
