package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirStore implements Store on a local directory. It is the default for
// development setups without an object store; the public URL is a file path
// the playback backend can open directly.
type DirStore struct {
	root string
}

// NewDirStore creates the directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(key string) string {
	// Keys are generated file names; strip any path components defensively.
	return filepath.Join(s.root, filepath.Base(key))
}

func (s *DirStore) Write(ctx context.Context, key string, r io.Reader, size int64) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	return f.Close()
}

func (s *DirStore) Read(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

func (s *DirStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DirStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *DirStore) PublicURL(key string) string {
	return s.path(key)
}

func (s *DirStore) Stat(ctx context.Context) (Info, error) {
	var info Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		info.FileCount++
		info.TotalBytes += fi.Size()
		return nil
	})
	if err != nil {
		return Info{}, err
	}
	return info, nil
}
