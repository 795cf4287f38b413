package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "classify-images/1700000000000_my cat.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/blobs/classify-images/1700000000000_my%20cat.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "classify-images", "1700000000000_my cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "ocr-images/../../x", "/abs/key", "a//b"} {
		_, err := store.Upload(context.Background(), key, []byte("x"), "image/png")
		assert.Error(t, err, key)
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Upload(ctx, "ocr-images/1_a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}
