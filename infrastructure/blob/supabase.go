package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"docgraph/application/ports"
	pkgerrors "docgraph/pkg/errors"
)

// SupabaseStore adapts a Supabase Storage bucket to the BlobStore port.
//
// The storage API has no compare-and-swap, so version tokens are advisory
// here: Find and Get report the object's last-modified stamp and Put
// accepts any expected token. Single-process deployments are protected by
// the repository's write serialization; a multi-process deployment gets
// the documented read-race semantics only.
type SupabaseStore struct {
	client  *storage_go.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewSupabaseStore creates a BlobStore backed by the given bucket.
// publicBaseURL is the storage endpoint serving public object links.
func NewSupabaseStore(client *storage_go.Client, bucket, publicBaseURL string, logger *zap.Logger) *SupabaseStore {
	return &SupabaseStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:  logger,
	}
}

// Find locates an object by name; a missing object yields (nil, nil)
func (s *SupabaseStore) Find(ctx context.Context, name string) (*ports.BlobStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewExternalStoreError("find aborted").WithCause(err)
	}

	dir := path.Dir(name)
	if dir == "." {
		dir = ""
	}
	objects, err := s.client.ListFiles(s.bucket, dir, storage_go.FileSearchOptions{})
	if err != nil {
		return nil, pkgerrors.NewExternalStoreError(fmt.Sprintf("list %q failed", name)).WithCause(err)
	}

	base := path.Base(name)
	for _, obj := range objects {
		if obj.Name == base {
			return &ports.BlobStat{Key: name, Version: obj.UpdatedAt}, nil
		}
	}
	return nil, nil
}

// Get fetches an object's bytes. The returned version token is the
// last-modified stamp observed by a stat, or empty when unavailable.
func (s *SupabaseStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	stat, err := s.Find(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if stat == nil {
		return nil, "", pkgerrors.NewNotFoundError(fmt.Sprintf("blob %q", key))
	}

	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, "", pkgerrors.NewExternalStoreError(fmt.Sprintf("download %q failed", key)).WithCause(err)
	}
	return data, stat.Version, nil
}

// Put writes the full object under key, creating it if absent
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", pkgerrors.NewExternalStoreError("put aborted").WithCause(err)
	}

	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	if _, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), opts); err != nil {
		return "", pkgerrors.NewExternalStoreError(fmt.Sprintf("upload %q failed", key)).WithCause(err)
	}

	s.logger.Debug("blob written",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	stat, err := s.Find(ctx, key)
	if err != nil || stat == nil {
		// write already landed, a failed stat only costs the token
		return "", nil
	}
	return stat.Version, nil
}

// Delete removes the object
func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewExternalStoreError("delete aborted").WithCause(err)
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return pkgerrors.NewExternalStoreError(fmt.Sprintf("remove %q failed", key)).WithCause(err)
	}
	return nil
}

// PublicURL derives the shareable link for an object key
func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, key)
}
