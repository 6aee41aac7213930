package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	key := NewKey("signatures", "Potpis.PNG", now)
	assert.True(t, strings.HasPrefix(key, "signatures/20240203-040506-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, NewKey("signatures", "Potpis.PNG", now))
	assert.False(t, strings.Contains(NewKey("", "a.verylongextension", now), "."))
}

func TestLocal_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocal(filepath.Join(dir, "uploads"), "/uploads/")
	require.NoError(t, err)

	ref, err := s.Put(ctx, "signatures/a.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/signatures/a.png", ref)

	for _, r := range []string{ref, "signatures/a.png"} {
		b, err := s.Get(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(b))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "uploads", "signatures"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, ref), ErrNotFound)
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"../secret", "a/../../b", "", "/"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, err = s.Get(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocal_PutHonoursContext(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "a.png", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"signatures/a.png", "signatures/a.png", true},
		{"gs://bucket/signatures/a.png", "signatures/a.png", true},
		{"https://storage.googleapis.com/bucket/signatures/a.png", "signatures/a.png", true},
		{"https://storage.googleapis.com/other/a.png", "", false},
		{"gs://bucket/../a.png", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := objectName("bucket", tt.ref)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
