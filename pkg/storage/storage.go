package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/storage/minio"
	"github.com/feichai0017/relevance-finder/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeS3     StorageType = "s3"
	StorageTypeMinio  StorageType = "minio"
	StorageTypeMemory StorageType = "memory"
)

// Storage keeps copies of retrieved documents.
type Storage interface {
	// Store uploads content under key and returns the object's public URL.
	Store(ctx context.Context, key string, content []byte, contentType string) (string, error)
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// DocumentKey is the object key of the copy of the document at sourceURL.
// Copies of the same source share one object.
func DocumentKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return "pdfs/" + hex.EncodeToString(sum[:16]) + ".pdf"
}

func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	case StorageTypeMemory:
		return NewMemoryStorage("memory://"), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

type memoryObject struct {
	content      []byte
	lastModified time.Time
}

// MemoryStorage is an in-process Storage for local runs and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	publicURL string
}

func NewMemoryStorage(publicURL string) *MemoryStorage {
	return &MemoryStorage{
		objects:   make(map[string]memoryObject),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (m *MemoryStorage) Store(_ context.Context, key string, content []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{content: bytes.Clone(content), lastModified: time.Now()}
	return m.publicURL + "/" + key, nil
}

func (m *MemoryStorage) CleanupBefore(_ context.Context, threshold time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, obj := range m.objects {
		if obj.lastModified.Before(threshold) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
