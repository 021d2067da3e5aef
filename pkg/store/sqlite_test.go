package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"voxlingo/pkg/blob"
	"voxlingo/pkg/db"
	"voxlingo/pkg/model"
)

// setupTestStore creates a test database and directory blob store for each test.
func setupTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()
	tempDir := t.TempDir()

	d, err := db.Init(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	blobs, err := blob.NewDirStore(filepath.Join(tempDir, "audio"))
	if err != nil {
		t.Fatalf("Failed to init blob store: %v", err)
	}

	store := NewSQLiteStore(d, blobs)
	cleanup := func() { d.Close() }
	return store, cleanup
}

func saveAsset(t *testing.T, s *SQLiteStore, text, fileName string) *model.AudioAsset {
	t.Helper()
	asset, err := s.Save(context.Background(), SaveRequest{
		Text:      text,
		Audio:     []byte("fake audio payload"),
		VoiceID:   "v1",
		VoiceName: "Sarah",
		Category:  model.CategoryVocabulary,
		FileName:  fileName,
	})
	if err != nil {
		t.Fatalf("Save(%q): %v", text, err)
	}
	return asset
}

func TestSave_PersistsBlobAndRow(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	asset := saveAsset(t, s, "bonjour", "bonjour_sarah_1.mp3")

	if asset.ID == "" || asset.AudioURL == "" {
		t.Errorf("Save returned incomplete asset: %+v", asset)
	}
	if asset.Category != model.CategoryVocabulary {
		t.Errorf("Category = %q, want vocabulary default", asset.Category)
	}

	ok, err := s.blobs.Exists(ctx, "bonjour_sarah_1.mp3")
	if err != nil || !ok {
		t.Errorf("blob Exists = %v, %v; want true", ok, err)
	}

	got, err := s.GetByText(ctx, "bonjour")
	if err != nil {
		t.Fatalf("GetByText: %v", err)
	}
	if got.ID != asset.ID {
		t.Errorf("GetByText returned %q, want %q", got.ID, asset.ID)
	}
}

func TestGetByText_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetByText(context.Background(), "nothing here")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByText = %v, want ErrNotFound", err)
	}
}

func TestGetByText_MostRecentWins(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	// Two historical rows for the same text with distinct timestamps.
	old := saveAsset(t, s, "merci", "merci_old.mp3")
	if _, err := s.db.Exec(`UPDATE audio_assets SET created_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), old.ID); err != nil {
		t.Fatalf("backdate: %v", err)
	}
	newest := saveAsset(t, s, "merci", "merci_new.mp3")

	got, err := s.GetByText(ctx, "merci")
	if err != nil {
		t.Fatalf("GetByText: %v", err)
	}
	if got.ID != newest.ID {
		t.Errorf("GetByText returned %q (file %s), want newest %q", got.ID, got.FileName, newest.ID)
	}
}

func TestGetByLesson_OrderedAscending(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		asset, err := s.Save(ctx, SaveRequest{
			Text:     fmt.Sprintf("phrase %d", i),
			Audio:    []byte("x"),
			VoiceID:  "v1",
			LessonID: "lesson-7",
			FileName: fmt.Sprintf("phrase_%d.mp3", i),
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		// Spread created_at so ordering is deterministic.
		if _, err := s.db.Exec(`UPDATE audio_assets SET created_at = ? WHERE id = ?`,
			time.Now().UTC().Add(time.Duration(i)*time.Minute), asset.ID); err != nil {
			t.Fatalf("adjust created_at: %v", err)
		}
	}

	got, err := s.GetByLesson(ctx, "lesson-7")
	if err != nil {
		t.Fatalf("GetByLesson: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetByLesson returned %d assets, want 3", len(got))
	}
	for i, a := range got {
		if want := fmt.Sprintf("phrase %d", i); a.Text != want {
			t.Errorf("asset %d = %q, want %q", i, a.Text, want)
		}
	}
}

func TestGetByCategory(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if _, err := s.Save(ctx, SaveRequest{Text: "a", Audio: []byte("x"), VoiceID: "v1",
		Category: model.CategoryDialogue, FileName: "a.mp3"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saveAsset(t, s, "b", "b.mp3") // vocabulary

	got, err := s.GetByCategory(ctx, model.CategoryDialogue)
	if err != nil {
		t.Fatalf("GetByCategory: %v", err)
	}
	if len(got) != 1 || got[0].Text != "a" {
		t.Errorf("GetByCategory(dialogue) = %+v, want only %q", got, "a")
	}
}

func TestDelete_RemovesBlobAndRow(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	saveAsset(t, s, "au revoir", "au_revoir.mp3")

	if err := s.Delete(ctx, "au_revoir.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := s.blobs.Exists(ctx, "au_revoir.mp3"); ok {
		t.Error("blob still present after Delete")
	}
	if _, err := s.GetByText(ctx, "au revoir"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByText after Delete = %v, want ErrNotFound", err)
	}
}

func TestStorageInfo(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	saveAsset(t, s, "un", "un.mp3")
	saveAsset(t, s, "deux", "deux.mp3")

	info, err := s.StorageInfo(context.Background())
	if err != nil {
		t.Fatalf("StorageInfo: %v", err)
	}
	if info.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", info.FileCount)
	}
	if info.TotalBytes == 0 {
		t.Error("TotalBytes = 0, want > 0")
	}
}

// failingBlobStore wraps a real store but fails writes, to exercise the
// upload error path.
type failingBlobStore struct {
	blob.Store
	writeErr error
	deletes  int
}

func (f *failingBlobStore) Write(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Store.Write(ctx, key, r, size)
}

func (f *failingBlobStore) Delete(ctx context.Context, key string) error {
	f.deletes++
	return f.Store.Delete(ctx, key)
}

func TestSave_UploadFailure(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	s.blobs = &failingBlobStore{Store: s.blobs, writeErr: errors.New("bucket offline")}

	_, err := s.Save(context.Background(), SaveRequest{
		Text: "x", Audio: []byte("x"), VoiceID: "v1", FileName: "x.mp3",
	})
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "upload" {
		t.Errorf("Save = %v, want StorageError{Op: upload}", err)
	}
}

func TestSave_InsertFailureCompensates(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStore(t)
	defer cleanup()

	fake := &failingBlobStore{Store: s.blobs}
	s.blobs = fake

	// Closing the database forces the metadata insert to fail after the
	// blob upload succeeded.
	s.db.Close()

	_, err := s.Save(ctx, SaveRequest{
		Text: "orphan", Audio: []byte("x"), VoiceID: "v1", FileName: "orphan.mp3",
	})
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Op != "insert" {
		t.Fatalf("Save = %v, want StorageError{Op: insert}", err)
	}
	if fake.deletes != 1 {
		t.Errorf("compensating deletes = %d, want exactly 1", fake.deletes)
	}
	if ok, _ := fake.Exists(ctx, "orphan.mp3"); ok {
		t.Error("orphaned blob was not cleaned up")
	}
}
