// Package blobjson persists the document collection as a single JSON
// array stored under a fixed logical name in a BlobStore. Every mutation
// is a whole-collection transaction: fetch the latest blob, apply one
// logical change, write the full collection back. Partial writes are
// never issued, so concurrent readers observe either the pre- or
// post-write collection and never a torn one.
package blobjson

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"docgraph/application/ports"
	"docgraph/domain/catalog"
	pkgerrors "docgraph/pkg/errors"
)

const collectionContentType = "application/json"

// conflictAttempts bounds how many times a mutating transaction reruns
// after a version-token conflict before the Conflict is surfaced.
const conflictAttempts = 3

// Repository implements ports.DocumentRepository over a BlobStore.
//
// Mutating transactions are serialized through an in-process mutex: the
// read-modify-write against the collection blob is a classic lost-update
// race otherwise. The store's version token is checked on write as a
// second belt; a mismatch surfaces CONFLICT and the whole transaction
// reruns with backoff.
type Repository struct {
	store      ports.BlobStore
	collection string
	logger     *zap.Logger

	// guards the read-modify-write cycle of mutating transactions
	writeMu sync.Mutex
}

// NewRepository creates a document repository storing the collection
// under the given logical name (e.g. "documents.json")
func NewRepository(store ports.BlobStore, collection string, logger *zap.Logger) *Repository {
	return &Repository{
		store:      store,
		collection: collection,
		logger:     logger,
	}
}

// snapshot is the collection state observed by one transaction
type snapshot struct {
	docs    []catalog.Document
	version string
	exists  bool
}

// load fetches and deserializes the full collection. An absent collection
// blob yields an empty snapshot so create-of-first-record can proceed.
func (r *Repository) load(ctx context.Context) (snapshot, error) {
	stat, err := r.store.Find(ctx, r.collection)
	if err != nil {
		return snapshot{}, err
	}
	if stat == nil {
		return snapshot{docs: []catalog.Document{}}, nil
	}

	data, version, err := r.store.Get(ctx, stat.Key)
	if err != nil {
		return snapshot{}, err
	}

	var docs []catalog.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return snapshot{}, pkgerrors.NewCorruptStateError(
			fmt.Sprintf("collection %q is not a valid document array", r.collection),
		).WithCause(err)
	}
	for i := range docs {
		docs[i].Normalize()
	}

	return snapshot{docs: docs, version: version, exists: true}, nil
}

// save serializes the full, updated collection and writes it back under
// the same logical name, creating the blob if it did not exist
func (r *Repository) save(ctx context.Context, snap snapshot, docs []catalog.Document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return pkgerrors.NewInternalError("failed to serialize collection").WithCause(err)
	}

	expect := ""
	if snap.exists {
		expect = snap.version
	}
	if _, err := r.store.Put(ctx, r.collection, data, collectionContentType, expect); err != nil {
		return err
	}
	return nil
}

// transact runs a single logical change as a full load-mutate-save cycle,
// rerunning the cycle on version conflicts up to conflictAttempts times
func (r *Repository) transact(ctx context.Context, op string, mutate func([]catalog.Document) ([]catalog.Document, error)) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 50 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, conflictAttempts-1), ctx)

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			snap, err := r.load(ctx)
			if err != nil {
				return backoff.Permanent(err)
			}

			updated, err := mutate(snap.docs)
			if err != nil {
				return backoff.Permanent(err)
			}

			if err := r.save(ctx, snap, updated); err != nil {
				if pkgerrors.IsConflict(err) {
					return err
				}
				return backoff.Permanent(err)
			}
			return nil
		},
		policy,
		func(err error, wait time.Duration) {
			r.logger.Warn("collection write conflicted, rerunning transaction",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		},
	)
}

// List returns a read-only snapshot of the full collection. It does not
// take the write lock: a racing write is observed either fully applied or
// not at all.
func (r *Repository) List(ctx context.Context) ([]catalog.Document, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.docs, nil
}

// Get returns the record with the given id
func (r *Repository) Get(ctx context.Context, id string) (catalog.Document, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return catalog.Document{}, err
	}
	for _, doc := range snap.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return catalog.Document{}, pkgerrors.NewNotFoundError(fmt.Sprintf("document %q", id))
}

// Create appends the record to the collection
func (r *Repository) Create(ctx context.Context, doc catalog.Document) (catalog.Document, error) {
	err := r.transact(ctx, "create", func(docs []catalog.Document) ([]catalog.Document, error) {
		for _, existing := range docs {
			if existing.ID == doc.ID {
				return nil, pkgerrors.NewConflictError(fmt.Sprintf("document %q already exists", doc.ID))
			}
		}
		return append(docs, doc), nil
	})
	if err != nil {
		return catalog.Document{}, err
	}

	r.logger.Info("document created",
		zap.String("documentID", doc.ID),
		zap.String("title", doc.Title),
	)
	return doc, nil
}

// Update replaces the record with the given id by applying the patch.
// The existence check runs against the freshly fetched collection, not a
// cached one, so a record deleted by another writer is reported NotFound
// rather than resurrected.
func (r *Repository) Update(ctx context.Context, id string, patch catalog.Patch) (catalog.Document, error) {
	var updated catalog.Document
	err := r.transact(ctx, "update", func(docs []catalog.Document) ([]catalog.Document, error) {
		idx := indexOf(docs, id)
		if idx < 0 {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("document %q", id))
		}

		doc, err := patch.Apply(docs[idx])
		if err != nil {
			return nil, err
		}
		doc.ID = id // identity is immutable
		docs[idx] = doc
		updated = doc
		return docs, nil
	})
	if err != nil {
		return catalog.Document{}, err
	}

	r.logger.Info("document updated", zap.String("documentID", id))
	return updated, nil
}

// Delete removes the record with the given id, returning the removed
// record. A second delete of the same id reports NotFound.
func (r *Repository) Delete(ctx context.Context, id string) (catalog.Document, error) {
	var removed catalog.Document
	err := r.transact(ctx, "delete", func(docs []catalog.Document) ([]catalog.Document, error) {
		idx := indexOf(docs, id)
		if idx < 0 {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("document %q", id))
		}
		removed = docs[idx]
		return append(docs[:idx], docs[idx+1:]...), nil
	})
	if err != nil {
		return catalog.Document{}, err
	}

	r.logger.Info("document deleted", zap.String("documentID", id))
	return removed, nil
}

func indexOf(docs []catalog.Document, id string) int {
	for i, doc := range docs {
		if doc.ID == id {
			return i
		}
	}
	return -1
}
