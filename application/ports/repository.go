package ports

import (
	"context"

	"docgraph/domain/catalog"
)

// DocumentRepository owns the document collection's consistency. Every
// mutating operation runs as a whole-collection transaction: fetch the
// latest serialized collection, apply the single logical change, write the
// full collection back.
type DocumentRepository interface {
	// List returns a read-only snapshot of the full collection
	List(ctx context.Context) ([]catalog.Document, error)

	// Get returns the record with the given id
	Get(ctx context.Context, id string) (catalog.Document, error)

	// Create appends the record to the collection
	Create(ctx context.Context, doc catalog.Document) (catalog.Document, error)

	// Update replaces the record with the given id by applying the patch
	Update(ctx context.Context, id string, patch catalog.Patch) (catalog.Document, error)

	// Delete removes the record with the given id, returning the removed
	// record so callers can clean up its file blob
	Delete(ctx context.Context, id string) (catalog.Document, error)
}
