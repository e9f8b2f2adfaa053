// Package memory provides an in-memory parentcast.BlobStore for tests and
// local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

// Backend is an in-memory implementation of the parentcast.BlobStore
// interface.
type Backend struct {
	mu              sync.RWMutex
	objects         map[string][]byte
	objectsMimeType map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
	}
}

// Upload stores content at the given key, replacing any existing object.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.objectsMimeType[objectKey] = contentType
	return nil
}

// Move relocates a single object. Moving a missing source or onto an
// existing destination fails, matching the managed store's move semantics.
func (b *Backend) Move(ctx context.Context, srcKey, dstKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, exists := b.objects[srcKey]
	if !exists {
		return errors.New("object not found")
	}
	if _, exists := b.objects[dstKey]; exists {
		return errors.New("destination already exists")
	}

	b.objects[dstKey] = data
	b.objectsMimeType[dstKey] = b.objectsMimeType[srcKey]
	delete(b.objects, srcKey)
	delete(b.objectsMimeType, srcKey)
	return nil
}

// List returns the objects directly under the folder prefix.
func (b *Backend) List(ctx context.Context, folder string) ([]parentcast.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix := strings.TrimSuffix(folder, "/") + "/"
	var out []parentcast.ObjectInfo
	for key, data := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if strings.Contains(rest, "/") {
			// Nested under a sub-folder; not a direct child.
			continue
		}
		out = append(out, parentcast.ObjectInfo{Name: rest, Size: int64(len(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SignedURL returns a deterministic memory:// URL so URL issuance can be
// exercised without a real store. Missing objects fail like the real thing.
func (b *Backend) SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", errors.New("object not found")
	}
	return fmt.Sprintf("memory://%s?ttl=%d", objectKey, int(ttl.Seconds())), nil
}

// Exists reports whether an object is stored at the key. Test helper.
func (b *Backend) Exists(objectKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[objectKey]
	return exists
}
