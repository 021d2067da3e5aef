// Package store persists generated recordings: binary payloads in a blob
// store, metadata rows in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voxlingo/pkg/blob"
	"voxlingo/pkg/db"
	"voxlingo/pkg/model"
)

// SQLiteStore implements AudioStore.
type SQLiteStore struct {
	db    *db.DB
	blobs blob.Store
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB, blobs blob.Store) *SQLiteStore {
	return &SQLiteStore{db: d, blobs: blobs}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Save(ctx context.Context, req SaveRequest) (*model.AudioAsset, error) {
	category := req.Category
	if category == "" {
		category = model.CategoryVocabulary
	}

	if err := s.blobs.Write(ctx, req.FileName, bytes.NewReader(req.Audio), int64(len(req.Audio))); err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}

	asset := &model.AudioAsset{
		ID:        uuid.NewString(),
		Text:      req.Text,
		AudioURL:  s.blobs.PublicURL(req.FileName),
		VoiceID:   req.VoiceID,
		VoiceName: req.VoiceName,
		Category:  category,
		LessonID:  req.LessonID,
		FileName:  req.FileName,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audio_assets (id, text, audio_url, voice_id, voice_name, category, lesson_id, file_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.Text, asset.AudioURL, asset.VoiceID, asset.VoiceName,
		string(asset.Category), nullable(asset.LessonID), asset.FileName, asset.CreatedAt)
	if err != nil {
		// Compensate: the blob is orphaned without its row. One attempt,
		// failure logged, overall result unchanged.
		if delErr := s.blobs.Delete(ctx, req.FileName); delErr != nil {
			slog.Warn("Store: failed to delete orphaned blob after insert failure",
				"file", req.FileName, "error", delErr)
		}
		return nil, &StorageError{Op: "insert", Err: err}
	}

	return asset, nil
}

func (s *SQLiteStore) GetByText(ctx context.Context, text string) (*model.AudioAsset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, audio_url, voice_id, voice_name, category, lesson_id, file_name, created_at
		 FROM audio_assets WHERE text = ? ORDER BY created_at DESC LIMIT 1`, text)

	asset, err := scanAsset(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "query", Err: err}
	}
	return asset, nil
}

func (s *SQLiteStore) GetByLesson(ctx context.Context, lessonID string) ([]*model.AudioAsset, error) {
	return s.list(ctx,
		`SELECT id, text, audio_url, voice_id, voice_name, category, lesson_id, file_name, created_at
		 FROM audio_assets WHERE lesson_id = ? ORDER BY created_at ASC`, lessonID)
}

func (s *SQLiteStore) GetByCategory(ctx context.Context, category model.Category) ([]*model.AudioAsset, error) {
	return s.list(ctx,
		`SELECT id, text, audio_url, voice_id, voice_name, category, lesson_id, file_name, created_at
		 FROM audio_assets WHERE category = ? ORDER BY created_at ASC`, string(category))
}

func (s *SQLiteStore) list(ctx context.Context, query string, arg any) ([]*model.AudioAsset, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []*model.AudioAsset
	for rows.Next() {
		asset, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, &StorageError{Op: "scan", Err: err}
		}
		out = append(out, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	return out, nil
}

// Delete removes blob and row independently. A blob-side failure is logged
// and does not prevent the row deletion; the row deletion decides success.
func (s *SQLiteStore) Delete(ctx context.Context, fileName string) error {
	if err := s.blobs.Delete(ctx, fileName); err != nil {
		slog.Warn("Store: blob delete failed, continuing with metadata row", "file", fileName, "error", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM audio_assets WHERE file_name = ?`, fileName); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) StorageInfo(ctx context.Context) (blob.Info, error) {
	return s.blobs.Stat(ctx)
}

func scanAsset(scan func(dest ...any) error) (*model.AudioAsset, error) {
	var a model.AudioAsset
	var category string
	var lessonID sql.NullString

	err := scan(&a.ID, &a.Text, &a.AudioURL, &a.VoiceID, &a.VoiceName,
		&category, &lessonID, &a.FileName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Category = model.Category(category)
	if lessonID.Valid {
		a.LessonID = lessonID.String
	}
	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
