package blob

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"docgraph/application/ports"
	pkgerrors "docgraph/pkg/errors"
)

// RetryConfig defines retry behavior for transient store failures
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryingStore decorates a BlobStore with bounded exponential backoff.
// Only EXTERNAL_STORE failures are retried; NotFound and Conflict are
// surfaced immediately because retrying cannot change their outcome.
type RetryingStore struct {
	inner  ports.BlobStore
	config RetryConfig
	logger *zap.Logger
}

// NewRetryingStore wraps the given store with retry behavior
func NewRetryingStore(inner ports.BlobStore, config RetryConfig, logger *zap.Logger) *RetryingStore {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &RetryingStore{inner: inner, config: config, logger: logger}
}

func (s *RetryingStore) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.config.BaseDelay
	exp.MaxInterval = s.config.MaxDelay
	exp.Multiplier = s.config.Multiplier
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.config.MaxAttempts-1)), ctx)
}

func (s *RetryingStore) run(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := fn()
			if err == nil {
				return nil
			}
			if pkgerrors.IsExternalStore(err) {
				return err
			}
			return backoff.Permanent(err)
		},
		s.backoff(ctx),
		func(err error, wait time.Duration) {
			s.logger.Warn("blob store call failed, retrying",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		},
	)
}

// Find locates an object, retrying transient failures
func (s *RetryingStore) Find(ctx context.Context, name string) (*ports.BlobStat, error) {
	var stat *ports.BlobStat
	err := s.run(ctx, "find", func() error {
		var inner error
		stat, inner = s.inner.Find(ctx, name)
		return inner
	})
	return stat, err
}

// Get fetches an object, retrying transient failures
func (s *RetryingStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data    []byte
		version string
	)
	err := s.run(ctx, "get", func() error {
		var inner error
		data, version, inner = s.inner.Get(ctx, key)
		return inner
	})
	return data, version, err
}

// Put writes an object, retrying transient failures. A Conflict from the
// inner store is never retried here: the whole read-modify-write
// transaction must rerun, which is the repository's job.
func (s *RetryingStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	var version string
	err := s.run(ctx, "put", func() error {
		var inner error
		version, inner = s.inner.Put(ctx, key, data, contentType, expectVersion)
		return inner
	})
	return version, err
}

// Delete removes an object, retrying transient failures
func (s *RetryingStore) Delete(ctx context.Context, key string) error {
	return s.run(ctx, "delete", func() error {
		return s.inner.Delete(ctx, key)
	})
}

// PublicURL derives the shareable link for an object key
func (s *RetryingStore) PublicURL(key string) string {
	return s.inner.PublicURL(key)
}
