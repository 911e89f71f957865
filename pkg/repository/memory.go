package repository

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"
)

// MemoryReader serves files from memory.
type MemoryReader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryReader(files map[string][]byte) *MemoryReader {
	m := &MemoryReader{files: map[string][]byte{}}
	for k, v := range files {
		m.Add(k, v)
	}
	return m
}

// Add stores data at p, replacing anything already there.
func (m *MemoryReader) Add(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[cleanPath(p)] = data
}

func (m *MemoryReader) GetPath(_ context.Context, p string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[cleanPath(p)]
	if !ok {
		return nil, &PathError{Path: p, Err: ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func cleanPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
