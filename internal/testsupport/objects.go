package testsupport

import (
	"context"
	"io"
	"sync"
)

// Object is one upload received by MemoryObjects.
type Object struct {
	Data        []byte
	Size        int64
	ContentType string
}

// MemoryObjects is an in-memory storage.ObjectStore.
type MemoryObjects struct {
	mu        sync.Mutex
	objects   map[string]Object
	UploadErr error
	BaseURL   string
}

// NewMemoryObjects returns an empty object store.
func NewMemoryObjects() *MemoryObjects {
	return &MemoryObjects{objects: make(map[string]Object), BaseURL: "https://objects.test"}
}

func (m *MemoryObjects) Upload(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: data, Size: size, ContentType: contentType}
	return nil
}

func (m *MemoryObjects) PublicURL(key string) string {
	return m.BaseURL + "/" + key
}

// Get returns the stored object for key.
func (m *MemoryObjects) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}
