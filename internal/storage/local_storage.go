package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage keeps blobs on disk. The HTTP server exposes Root under
// PathPrefix so the generated URLs resolve.
type LocalStorage struct {
	Root       string
	BaseURL    string
	PathPrefix string
}

// NewLocalStorage creates a disk-backed blob store rooted at dir.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &LocalStorage{
		Root:       dir,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		PathPrefix: "/blobs",
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	target := filepath.Join(s.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.BaseURL + s.PathPrefix + "/" + strings.Join(segments, "/"), nil
}
