package blob

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"docgraph/application/ports"
	pkgerrors "docgraph/pkg/errors"
)

// BreakerStore decorates a BlobStore with a circuit breaker so a dead
// object store fails fast instead of stacking up slow calls. Only
// EXTERNAL_STORE failures count against the breaker; NotFound and
// Conflict are healthy responses from the store's point of view.
type BreakerStore struct {
	inner   ports.BlobStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerStore wraps the given store with a circuit breaker
func NewBreakerStore(inner ports.BlobStore, logger *zap.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "blobstore",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 > counts.Requests
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !pkgerrors.IsExternalStore(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("blob store circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (s *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := s.breaker.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, pkgerrors.NewExternalStoreError("blob store circuit open").WithCause(err)
	}
	return out, err
}

// Find locates an object through the breaker
func (s *BreakerStore) Find(ctx context.Context, name string) (*ports.BlobStat, error) {
	out, err := s.execute(func() (interface{}, error) {
		return s.inner.Find(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	stat, _ := out.(*ports.BlobStat)
	return stat, nil
}

type getResult struct {
	data    []byte
	version string
}

// Get fetches an object through the breaker
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.execute(func() (interface{}, error) {
		data, version, inner := s.inner.Get(ctx, key)
		if inner != nil {
			return nil, inner
		}
		return getResult{data: data, version: version}, nil
	})
	if err != nil {
		return nil, "", err
	}
	res := out.(getResult)
	return res.data, res.version, nil
}

// Put writes an object through the breaker
func (s *BreakerStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	out, err := s.execute(func() (interface{}, error) {
		return s.inner.Put(ctx, key, data, contentType, expectVersion)
	})
	if err != nil {
		return "", err
	}
	version, _ := out.(string)
	return version, nil
}

// Delete removes an object through the breaker
func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.inner.Delete(ctx, key)
	})
	return err
}

// PublicURL derives the shareable link for an object key
func (s *BreakerStore) PublicURL(key string) string {
	return s.inner.PublicURL(key)
}
