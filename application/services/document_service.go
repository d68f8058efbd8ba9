// Package services holds the application services that orchestrate the
// repository, the blob store, and the graph domain.
package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docgraph/application/ports"
	"docgraph/domain/catalog"
	"docgraph/domain/graph"
	pkgerrors "docgraph/pkg/errors"
	"docgraph/pkg/observability"
)

// FileUpload carries the raw bytes of an uploaded document file
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateDocumentInput is the write-model for creating a document.
// Authors and Tags arrive raw; splitting and normalization happen once,
// here, at ingestion.
type CreateDocumentInput struct {
	Title       string
	Authors     string
	Location    string
	Date        string
	Tags        string
	Description string
	File        *FileUpload
}

// UpdateDocumentInput is the write-model for updating a document.
// Nil fields keep the stored value; a non-nil File replaces the stored
// blob reference with a freshly uploaded one.
type UpdateDocumentInput struct {
	Title       *string
	Authors     *string
	Location    *string
	Date        *string
	Tags        *string
	Description *string
	File        *FileUpload
}

// ListFilter narrows the visible document set: every tag must be present
// (AND semantics) and the query matches titles case-insensitively.
type ListFilter struct {
	Tags  []string
	Query string
}

// LayoutView is the layout controller's answer for one viewport state
type LayoutView struct {
	Mode graph.Mode        `json:"mode"`
	Tags []graph.TagButton `json:"tags,omitempty"`
}

// DocumentService provides the direct CRUD and read-model paths over the
// document collection
type DocumentService struct {
	repo    ports.DocumentRepository
	store   ports.BlobStore
	layout  graph.Controller
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	repo ports.DocumentRepository,
	store ports.BlobStore,
	layout graph.Controller,
	metrics *observability.Collector,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:    repo,
		store:   store,
		layout:  layout,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns the documents matching the filter, in collection order
func (s *DocumentService) List(ctx context.Context, filter ListFilter) ([]catalog.Document, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return applyFilter(docs, filter), nil
}

// Get returns a single document by id
func (s *DocumentService) Get(ctx context.Context, id string) (catalog.Document, error) {
	return s.repo.Get(ctx, id)
}

// Create uploads the file blob and appends the new record to the
// collection. The upload happens first: an upload failure aborts the
// transaction before the collection is touched, and the record written
// carries the fresh blob reference.
func (s *DocumentService) Create(ctx context.Context, input CreateDocumentInput) (catalog.Document, error) {
	if strings.TrimSpace(input.Title) == "" {
		return catalog.Document{}, pkgerrors.NewValidationError("title is required")
	}
	if input.File == nil || len(input.File.Data) == 0 {
		return catalog.Document{}, pkgerrors.NewValidationError("a document file is required")
	}

	id := uuid.New().String()
	ref, err := s.uploadFile(ctx, id, input.File)
	if err != nil {
		return catalog.Document{}, err
	}

	doc, err := catalog.NewDocument(
		id,
		input.Title,
		input.Authors,
		input.Location,
		input.Date,
		input.Tags,
		input.Description,
		ref,
		s.store.PublicURL(ref),
	)
	if err != nil {
		return catalog.Document{}, err
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		// the record never made it in; the uploaded blob is orphaned
		s.logger.Error("collection write failed after file upload",
			zap.String("documentID", id),
			zap.String("blobRef", ref),
			zap.Error(err),
		)
		return catalog.Document{}, err
	}

	if s.metrics != nil {
		s.metrics.DocumentsCreated.Inc()
	}
	return created, nil
}

// Update patches the record with the given id. When a new file is
// attached it is uploaded first under a fresh reference, which the
// updated record then carries.
func (s *DocumentService) Update(ctx context.Context, id string, input UpdateDocumentInput) (catalog.Document, error) {
	if id == "" {
		return catalog.Document{}, pkgerrors.NewValidationError("document id is required")
	}

	patch := catalog.Patch{
		Title:       input.Title,
		Authors:     input.Authors,
		Location:    input.Location,
		Date:        input.Date,
		Tags:        input.Tags,
		Description: input.Description,
	}

	if input.File != nil && len(input.File.Data) > 0 {
		ref, err := s.uploadFile(ctx, uuid.New().String(), input.File)
		if err != nil {
			return catalog.Document{}, err
		}
		link := s.store.PublicURL(ref)
		patch.BlobRef = &ref
		patch.DriveLink = &link
	}

	return s.repo.Update(ctx, id, patch)
}

// Delete removes the record and then its stored file blob. A blob removal
// failure after the collection write is logged and swallowed: the
// collection is already consistent and an orphaned blob beats a phantom
// record.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.NewValidationError("document id is required")
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if removed.BlobRef != "" {
		if err := s.store.Delete(ctx, removed.BlobRef); err != nil {
			s.logger.Warn("failed to remove file blob for deleted document",
				zap.String("documentID", id),
				zap.String("blobRef", removed.BlobRef),
				zap.Error(err),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.DocumentsDeleted.Inc()
	}
	return nil
}

// Graph derives the tag-similarity graph for the filtered document set
func (s *DocumentService) Graph(ctx context.Context, filter ListFilter) (graph.Graph, error) {
	docs, err := s.List(ctx, filter)
	if err != nil {
		return graph.Graph{}, err
	}
	if s.metrics != nil {
		s.metrics.GraphBuilds.Inc()
	}
	return graph.Build(docs), nil
}

// Layout answers the render-mode question for one viewport state,
// including positioned tag buttons when the mode is clustered
func (s *DocumentService) Layout(ctx context.Context, zoom float64, selected int, centerX, centerY float64) (LayoutView, error) {
	mode := s.layout.Mode(zoom, selected)
	view := LayoutView{Mode: mode}

	if mode == graph.ModeClustered {
		docs, err := s.repo.List(ctx)
		if err != nil {
			return LayoutView{}, err
		}
		view.Tags = s.layout.ClusterPositions(docs, centerX, centerY)
	}
	return view, nil
}

// Tags returns the tag frequency list for the whole collection
func (s *DocumentService) Tags(ctx context.Context) ([]graph.TagCount, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return graph.TagFrequencies(docs), nil
}

// Clusters returns the path-prefix tag clusters for the whole collection
func (s *DocumentService) Clusters(ctx context.Context) ([]graph.TagCluster, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Clusters(docs), nil
}

func (s *DocumentService) uploadFile(ctx context.Context, id string, file *FileUpload) (string, error) {
	ext := strings.ToLower(path.Ext(file.Name))
	ref := fmt.Sprintf("files/%s%s", id, ext)

	if _, err := s.store.Put(ctx, ref, file.Data, file.ContentType, ""); err != nil {
		return "", err
	}

	s.logger.Debug("file blob uploaded",
		zap.String("blobRef", ref),
		zap.String("fileName", file.Name),
		zap.Int("bytes", len(file.Data)),
	)
	return ref, nil
}

func applyFilter(docs []catalog.Document, filter ListFilter) []catalog.Document {
	if len(filter.Tags) == 0 && filter.Query == "" {
		return docs
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]catalog.Document, 0, len(docs))
	for _, doc := range docs {
		if !hasAllTags(doc, filter.Tags) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(doc.Title), query) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func hasAllTags(doc catalog.Document, tags []string) bool {
	for _, tag := range tags {
		if !doc.HasTag(tag) {
			return false
		}
	}
	return true
}
