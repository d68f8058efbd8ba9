package blob

import (
	"context"
	"time"

	"docgraph/application/ports"
	"docgraph/pkg/observability"
)

// MeteredStore decorates a BlobStore with per-operation counters and
// latency histograms. Installed outermost so retries and breaker
// rejections count as single observed calls.
type MeteredStore struct {
	inner   ports.BlobStore
	metrics *observability.Collector
}

// NewMeteredStore wraps the given store with metrics recording
func NewMeteredStore(inner ports.BlobStore, metrics *observability.Collector) *MeteredStore {
	return &MeteredStore{inner: inner, metrics: metrics}
}

func (s *MeteredStore) Find(ctx context.Context, name string) (*ports.BlobStat, error) {
	start := time.Now()
	stat, err := s.inner.Find(ctx, name)
	s.metrics.RecordBlobOperation("find", err, time.Since(start))
	return stat, err
}

func (s *MeteredStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	start := time.Now()
	data, version, err := s.inner.Get(ctx, key)
	s.metrics.RecordBlobOperation("get", err, time.Since(start))
	return data, version, err
}

func (s *MeteredStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	start := time.Now()
	version, err := s.inner.Put(ctx, key, data, contentType, expectVersion)
	s.metrics.RecordBlobOperation("put", err, time.Since(start))
	return version, err
}

func (s *MeteredStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.metrics.RecordBlobOperation("delete", err, time.Since(start))
	return err
}

func (s *MeteredStore) PublicURL(key string) string {
	return s.inner.PublicURL(key)
}
