package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docgraph/domain/graph"
	"docgraph/infrastructure/blob"
	"docgraph/infrastructure/persistence/blobjson"
	pkgerrors "docgraph/pkg/errors"
)

func newTestService(t *testing.T) (*DocumentService, *blob.MemoryStore) {
	t.Helper()
	logger := zap.NewNop()
	store := blob.NewMemoryStore("https://files.test")
	repo := blobjson.NewRepository(store, "documents.json", logger)
	svc := NewDocumentService(repo, store, graph.DefaultController(), nil, logger)
	return svc, store
}

func pdfUpload(name string) *FileUpload {
	return &FileUpload{
		Name:        name,
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 test"),
	}
}

func TestCreateUploadsBlobAndRecordsDocument(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateDocumentInput{
		Title:   "Wetland Restoration Outcomes",
		Authors: "Silva, J.; Pereira, M.",
		Tags:    "Ecohydrology; wetlands, Restoration",
		File:    pdfUpload("wetland restoration outcomes.pdf"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Wetland Restoration Outcomes", doc.Title)
	assert.Equal(t, []string{"ecohydrology", "wetlands", "restoration"}, doc.Tags)
	assert.True(t, strings.HasPrefix(doc.BlobRef, "files/"))
	assert.True(t, strings.HasSuffix(doc.BlobRef, ".pdf"))
	assert.Equal(t, "https://files.test/"+doc.BlobRef, doc.DriveLink)

	// the file blob plus the collection blob
	assert.Equal(t, 2, store.Len())

	listed, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, doc.ID, listed[0].ID)
}

func TestCreateRequiresTitleAndFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDocumentInput{File: pdfUpload("a.pdf")})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.Create(ctx, CreateDocumentInput{Title: "No File Here"})
	assert.True(t, pkgerrors.IsValidation(err))
}

// failingPutStore refuses file uploads while letting the collection blob
// through, so the transaction must abort before the collection changes
type failingPutStore struct {
	*blob.MemoryStore
}

func (s *failingPutStore) Put(ctx context.Context, key string, data []byte, contentType, expectVersion string) (string, error) {
	if strings.HasPrefix(key, "files/") {
		return "", pkgerrors.NewExternalStoreError("upload rejected")
	}
	return s.MemoryStore.Put(ctx, key, data, contentType, expectVersion)
}

func TestCreateAbortsWhenUploadFails(t *testing.T) {
	logger := zap.NewNop()
	mem := blob.NewMemoryStore("https://files.test")
	store := &failingPutStore{MemoryStore: mem}
	repo := blobjson.NewRepository(store, "documents.json", logger)
	svc := NewDocumentService(repo, store, graph.DefaultController(), nil, logger)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDocumentInput{
		Title: "Doomed Upload",
		File:  pdfUpload("doomed.pdf"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsExternalStore(err))

	// the collection blob was never written
	assert.Equal(t, 0, mem.Len())
}

func TestUpdateWithNewFileSwapsBlobRef(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateDocumentInput{
		Title: "Draft Survey",
		File:  pdfUpload("draft survey.pdf"),
	})
	require.NoError(t, err)

	title := "Final Survey"
	updated, err := svc.Update(ctx, doc.ID, UpdateDocumentInput{
		Title: &title,
		File:  pdfUpload("final survey.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, doc.ID, updated.ID)
	assert.Equal(t, "Final Survey", updated.Title)
	assert.NotEqual(t, doc.BlobRef, updated.BlobRef)
	assert.Equal(t, "https://files.test/"+updated.BlobRef, updated.DriveLink)

	// old + new file blobs + the collection blob
	assert.Equal(t, 3, store.Len())
}

func TestUpdateWithoutFileKeepsBlobRef(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateDocumentInput{
		Title: "Stable Reference",
		File:  pdfUpload("stable.pdf"),
	})
	require.NoError(t, err)

	tags := "hydrology"
	updated, err := svc.Update(ctx, doc.ID, UpdateDocumentInput{Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, doc.BlobRef, updated.BlobRef)
	assert.Equal(t, []string{"hydrology"}, updated.Tags)
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, CreateDocumentInput{
		Title: "Short Lived",
		File:  pdfUpload("short lived.pdf"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.NoError(t, svc.Delete(ctx, doc.ID))

	_, err = svc.Get(ctx, doc.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	// only the collection blob remains
	assert.Equal(t, 1, store.Len())
	_, _, err = store.Get(ctx, doc.BlobRef)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestListFiltersByTagsAndQuery(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seed := []CreateDocumentInput{
		{Title: "River Flow Models", Tags: "hydrology; models", File: pdfUpload("river.pdf")},
		{Title: "Wetland Birds", Tags: "ecology; wetlands", File: pdfUpload("birds.pdf")},
		{Title: "Wetland Hydrology", Tags: "hydrology; wetlands", File: pdfUpload("wetland hydrology.pdf")},
	}
	for _, input := range seed {
		_, err := svc.Create(ctx, input)
		require.NoError(t, err)
	}

	byTag, err := svc.List(ctx, ListFilter{Tags: []string{"hydrology"}})
	require.NoError(t, err)
	assert.Len(t, byTag, 2)

	both, err := svc.List(ctx, ListFilter{Tags: []string{"hydrology", "wetlands"}})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Wetland Hydrology", both[0].Title)

	byQuery, err := svc.List(ctx, ListFilter{Query: "WETLAND"})
	require.NoError(t, err)
	assert.Len(t, byQuery, 2)

	combined, err := svc.List(ctx, ListFilter{Tags: []string{"ecology"}, Query: "wetland"})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "Wetland Birds", combined[0].Title)
}

func TestGraphLinksDocumentsSharingTags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, input := range []CreateDocumentInput{
		{Title: "A", Tags: "x; y", File: pdfUpload("a.pdf")},
		{Title: "B", Tags: "y", File: pdfUpload("b.pdf")},
		{Title: "C", Tags: "z", File: pdfUpload("c.pdf")},
	} {
		_, err := svc.Create(ctx, input)
		require.NoError(t, err)
	}

	g, err := svc.Graph(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 1)
}

func TestLayoutReturnsClusterButtonsOnlyWhenClustered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDocumentInput{
		Title: "Tagged",
		Tags:  "hydrology",
		File:  pdfUpload("tagged.pdf"),
	})
	require.NoError(t, err)

	clustered, err := svc.Layout(ctx, 0.5, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, graph.ModeClustered, clustered.Mode)
	assert.NotEmpty(t, clustered.Tags)

	expanded, err := svc.Layout(ctx, 2.0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, graph.ModeExpanded, expanded.Mode)
	assert.Empty(t, expanded.Tags)

	selected, err := svc.Layout(ctx, 0.5, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, graph.ModeExpanded, selected.Mode)
}
