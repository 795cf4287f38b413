// Package storagetest provides an in-memory storage.BlobStorage for tests.
package storagetest

import (
	"context"
	"sync"
)

// Memory keeps uploaded blobs in a map and hands out URLs under BaseURL.
type Memory struct {
	BaseURL string
	Err     error

	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
	keys  []string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		BaseURL: baseURL,
		blobs:   make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *Memory) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	m.keys = append(m.keys, key)
	return m.BaseURL + "/" + key, nil
}

// Keys returns uploaded keys in upload order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// ContentType returns the content type recorded for key.
func (m *Memory) ContentType(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[key]
}
