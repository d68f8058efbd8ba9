// Package blob provides the BlobStore implementations: the remote
// Supabase Storage adapter used in production and an in-memory store used
// by tests and local development, plus the retry and circuit-breaker
// decorators shared by both.
package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docgraph/application/ports"
	pkgerrors "docgraph/pkg/errors"
)

type memoryObject struct {
	data        []byte
	contentType string
	version     int
}

// MemoryStore is an in-process BlobStore with real version-token
// enforcement. It backs tests and local development; because it checks
// tokens on every Put it also demonstrates the Conflict path that a remote
// multi-writer deployment would hit.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
	baseURL string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memoryObject),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Find locates an object by name; a missing object yields (nil, nil)
func (s *MemoryStore) Find(ctx context.Context, name string) (*ports.BlobStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewExternalStoreError("find aborted").WithCause(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, nil
	}
	return &ports.BlobStat{Key: name, Version: versionToken(obj.version)}, nil
}

// Get fetches an object's bytes and current version token
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", pkgerrors.NewExternalStoreError("get aborted").WithCause(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", pkgerrors.NewNotFoundError(fmt.Sprintf("blob %q", key))
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, versionToken(obj.version), nil
}

// Put writes the full object, enforcing the expected version token when
// one is supplied
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", pkgerrors.NewExternalStoreError("put aborted").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.objects[key]
	if expectVersion != "" {
		current := ""
		if exists {
			current = versionToken(obj.version)
		}
		if current != expectVersion {
			return "", pkgerrors.NewConflictError(
				fmt.Sprintf("blob %q changed since fetch (expected %s, now %s)", key, expectVersion, current),
			)
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	next := 1
	if exists {
		next = obj.version + 1
	}
	s.objects[key] = &memoryObject{data: stored, contentType: contentType, version: next}
	return versionToken(next), nil
}

// Delete removes an object
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewExternalStoreError("delete aborted").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("blob %q", key))
	}
	delete(s.objects, key)
	return nil
}

// PublicURL derives the shareable link for a stored object
func (s *MemoryStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Len reports how many objects the store holds
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func versionToken(v int) string {
	return fmt.Sprintf("v%d", v)
}
