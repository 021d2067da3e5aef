package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	payload := "not really mp3 bytes"
	err = s.Write(ctx, "bonjour_sarah_1.mp3", strings.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "bonjour_sarah_1.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	r, size, err := s.Read(ctx, "bonjour_sarah_1.mp3")
	require.NoError(t, err)
	defer r.Close()
	got, _ := io.ReadAll(r)
	assert.Equal(t, payload, string(got))
	assert.Equal(t, int64(len(payload)), size)

	info, err := s.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.FileCount)
	assert.Equal(t, int64(len(payload)), info.TotalBytes)

	require.NoError(t, s.Delete(ctx, "bonjour_sarah_1.mp3"))
	ok, _ = s.Exists(ctx, "bonjour_sarah_1.mp3")
	assert.False(t, ok, "blob still exists after Delete")
}

func TestDirStore_DeleteMissingIsNoError(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Delete(context.Background(), "never_stored.mp3"))
}

func TestDirStore_KeyIsSanitized(t *testing.T) {
	ctx := context.Background()
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../escape.mp3", strings.NewReader("x"), 1))

	ok, _ := s.Exists(ctx, "escape.mp3")
	assert.True(t, ok, "expected key to be written inside the store root")
}
