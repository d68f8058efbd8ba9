package blobjson

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docgraph/application/ports"
	"docgraph/domain/catalog"
	"docgraph/infrastructure/blob"
	pkgerrors "docgraph/pkg/errors"
)

const collectionName = "documents.json"

func newTestRepo(t *testing.T) (*Repository, *blob.MemoryStore) {
	t.Helper()
	store := blob.NewMemoryStore("http://blobs.local")
	return NewRepository(store, collectionName, zap.NewNop()), store
}

func testDoc(id, title string, tags ...string) catalog.Document {
	if tags == nil {
		tags = []string{}
	}
	return catalog.Document{
		ID:      id,
		Title:   title,
		Authors: []string{"author"},
		Tags:    tags,
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	created, err := repo.Create(ctx, testDoc("id-1", "First", "alpha"))
	require.NoError(t, err)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, created.ID, docs[0].ID)
	assert.Equal(t, "First", docs[0].Title)
	assert.Equal(t, []string{"alpha"}, docs[0].Tags)
}

func TestCreateFirstRecordCreatesCollectionBlob(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)

	// no collection blob yet
	stat, err := store.Find(ctx, collectionName)
	require.NoError(t, err)
	require.Nil(t, stat)

	_, err = repo.Create(ctx, testDoc("id-1", "First"))
	require.NoError(t, err)

	stat, err = store.Find(ctx, collectionName)
	require.NoError(t, err)
	assert.NotNil(t, stat)
}

func TestListOnEmptyStoreIsEmptyNotError(t *testing.T) {
	repo, _ := newTestRepo(t)
	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUpdateReplacesRecordByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Create(ctx, testDoc("id-1", "Old Title", "a"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testDoc("id-2", "Other", "b"))
	require.NoError(t, err)

	title := "New Title"
	tags := "x;y"
	updated, err := repo.Update(ctx, "id-1", catalog.Patch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "id-1", updated.ID)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, []string{"x", "y"}, updated.Tags)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "New Title", docs[0].Title)
	assert.Equal(t, "Other", docs[1].Title)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.Create(ctx, testDoc("id-1", "Only"))
	require.NoError(t, err)

	title := "x"
	_, err = repo.Update(ctx, "ghost", catalog.Patch{Title: &title})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteIsIdempotentlyGone(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Create(ctx, testDoc("id-1", "Doomed"))
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Doomed", removed.Title)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.NotEqual(t, "id-1", doc.ID)
	}

	// second delete reports NotFound
	_, err = repo.Delete(ctx, "id-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCorruptCollectionSurfacesCorruptState(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)

	_, err := store.Put(ctx, collectionName, []byte(`{"not":"an array"`), "application/json", "")
	require.NoError(t, err)

	_, err = repo.List(ctx)
	assert.True(t, pkgerrors.IsCorruptState(err))

	_, err = repo.Create(ctx, testDoc("id-1", "X"))
	assert.True(t, pkgerrors.IsCorruptState(err))
}

func TestLoadedRecordsAreNormalized(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t)

	raw, err := json.Marshal([]map[string]interface{}{
		{"id": "id-1", "title": "T", "author": nil, "tags": []string{" Work ", "WORK", "Fin"}},
	})
	require.NoError(t, err)
	_, err = store.Put(ctx, collectionName, raw, "application/json", "")
	require.NoError(t, err)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotNil(t, docs[0].Authors)
	assert.Equal(t, []string{"work", "fin"}, docs[0].Tags)
}

// interleavingStore injects a competing write between a transaction's read
// and its write, exactly once, to force a version-token conflict
type interleavingStore struct {
	ports.BlobStore
	once sync.Once
}

func (s *interleavingStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	s.once.Do(func() {
		// sneak in a competing write so the caller's token goes stale
		competing, _ := json.Marshal([]catalog.Document{testDoc("intruder", "Competing Write")})
		if _, err := s.BlobStore.Put(ctx, key, competing, contentType, ""); err != nil {
			panic(err)
		}
	})
	return s.BlobStore.Put(ctx, key, data, contentType, expectVersion)
}

func TestConflictRerunsWholeTransaction(t *testing.T) {
	ctx := context.Background()
	inner := blob.NewMemoryStore("http://blobs.local")
	_, err := inner.Put(ctx, collectionName, []byte(`[]`), "application/json", "")
	require.NoError(t, err)

	store := &interleavingStore{BlobStore: inner}
	repo := NewRepository(store, collectionName, zap.NewNop())

	_, err = repo.Create(ctx, testDoc("id-1", "Mine"))
	require.NoError(t, err)

	// both the competing write and the rerun transaction survive
	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, "intruder")
	assert.Contains(t, ids, "id-1")
}

// contestedStore rejects every conditional write with a version conflict,
// as if a competing writer always got there first
type contestedStore struct {
	ports.BlobStore
	conditionalPuts int
}

func (s *contestedStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	if expectVersion != "" {
		s.conditionalPuts++
		return "", pkgerrors.NewConflictError("blob changed since fetch")
	}
	return s.BlobStore.Put(ctx, key, data, contentType, expectVersion)
}

func TestConflictRetriesExhaustAndSurfaceConflict(t *testing.T) {
	ctx := context.Background()
	inner := blob.NewMemoryStore("http://blobs.local")
	seeded, err := json.Marshal([]catalog.Document{testDoc("seed", "Already There")})
	require.NoError(t, err)
	_, err = inner.Put(ctx, collectionName, seeded, "application/json", "")
	require.NoError(t, err)

	store := &contestedStore{BlobStore: inner}
	repo := NewRepository(store, collectionName, zap.NewNop())

	_, err = repo.Create(ctx, testDoc("id-1", "Never Lands"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	// the whole load-mutate-save cycle reran until the attempt budget
	assert.Equal(t, conflictAttempts, store.conditionalPuts)

	// the collection still holds only the pre-transaction state
	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "seed", docs[0].ID)
}

func TestInterleavedCreatesBothSurvive(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	var wg sync.WaitGroup
	for _, id := range []string{"w-1", "w-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := repo.Create(ctx, testDoc(id, "from "+id))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

// TestUnserializedWritersLoseUpdates documents the failure mode the
// repository exists to prevent: two writers doing raw read-modify-write
// against the store with no token and no mutex overwrite each other.
func TestUnserializedWritersLoseUpdates(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore("http://blobs.local")

	_, err := store.Put(ctx, collectionName, []byte(`[]`), "application/json", "")
	require.NoError(t, err)

	read := func() []catalog.Document {
		data, _, err := store.Get(ctx, collectionName)
		require.NoError(t, err)
		var docs []catalog.Document
		require.NoError(t, json.Unmarshal(data, &docs))
		return docs
	}
	write := func(docs []catalog.Document) {
		data, err := json.Marshal(docs)
		require.NoError(t, err)
		_, err = store.Put(ctx, collectionName, data, "application/json", "")
		require.NoError(t, err)
	}

	// both writers read the same stale state before either writes
	stale1 := read()
	stale2 := read()
	write(append(stale1, testDoc("w-1", "first")))
	write(append(stale2, testDoc("w-2", "second")))

	// the second write clobbered the first
	final := read()
	require.Len(t, final, 1)
	assert.Equal(t, "w-2", final[0].ID)
}
