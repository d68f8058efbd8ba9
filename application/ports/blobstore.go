package ports

import "context"

// BlobStat describes an object found in the store
type BlobStat struct {
	Key     string
	Version string
}

// BlobStore is the port over the opaque key-addressed object store.
// This is a port in hexagonal architecture - the domain doesn't know about
// the implementation.
//
// Version tokens implement optimistic concurrency: Get returns the token
// current at fetch time and Put rejects a write whose expected token no
// longer matches, surfacing a CONFLICT error. A store that cannot track
// versions returns empty tokens, and Put treats an empty expected token
// as unconditional.
type BlobStore interface {
	// Find locates an object by name. Absence is not an error: a missing
	// object yields (nil, nil) so callers can branch on create-vs-update.
	Find(ctx context.Context, name string) (*BlobStat, error)

	// Get fetches the object's bytes together with its version token
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Put writes the full object under key, creating it if absent, and
	// returns the new version token
	Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error

	// PublicURL derives the externally shareable link for an object key
	PublicURL(key string) string
}
