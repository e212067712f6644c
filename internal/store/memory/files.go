// internal/store/memory/files.go
package memory

import (
	"context"
	"sync"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

// FileStore giữ blob trong bộ nhớ.
type FileStore struct {
	mu    sync.RWMutex
	blobs map[string]models.Upload
}

func NewFileStore() *FileStore {
	return &FileStore{blobs: make(map[string]models.Upload)}
}

func (f *FileStore) Put(_ context.Context, key string, u models.Upload) (models.MediaPointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := append([]byte(nil), u.Data...)
	f.blobs[key] = models.Upload{FileName: u.FileName, ContentType: u.ContentType, Data: data}
	return models.MediaPointer{
		Key:         key,
		URL:         "memory://" + key,
		FileName:    u.FileName,
		ContentType: u.ContentType,
		Size:        int64(len(data)),
	}, nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	u, ok := f.blobs[key]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return append([]byte(nil), u.Data...), nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

// Keys liệt kê các key đang lưu.
func (f *FileStore) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.blobs))
	for k := range f.blobs {
		keys = append(keys, k)
	}
	return keys
}
