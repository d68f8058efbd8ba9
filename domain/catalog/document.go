// Package catalog defines the document records that make up the collection.
package catalog

import (
	"strings"

	pkgerrors "docgraph/pkg/errors"
)

// Document is a bibliographic record plus a reference to an externally
// stored file blob. The id is assigned by the blob store on first upload
// and is immutable afterwards.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"author"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
	BlobRef     string   `json:"blobRef,omitempty"`
	DriveLink   string   `json:"driveLink"`
}

// NewDocument builds a validated, normalized document record.
// rawAuthors is split on comma exactly once, here; downstream code must
// never re-split. rawTags splits on ';' or ','.
func NewDocument(id, title, rawAuthors, location, date, rawTags, description, blobRef, driveLink string) (Document, error) {
	if id == "" {
		return Document{}, pkgerrors.NewValidationError("document id cannot be empty")
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, pkgerrors.NewValidationError("document title cannot be empty")
	}

	doc := Document{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Authors:     SplitAuthors(rawAuthors),
		Location:    strings.TrimSpace(location),
		Date:        strings.TrimSpace(date),
		Tags:        SplitTags(rawTags),
		Description: strings.TrimSpace(description),
		BlobRef:     blobRef,
		DriveLink:   driveLink,
	}
	return doc, nil
}

// Normalize repairs a record loaded from an external collection blob:
// authors and tags are lowercased and trimmed, tags deduplicated keeping
// first-seen order, and nil slices become empty ones so the tags set is
// never null.
func (d *Document) Normalize() {
	d.Authors = normalizeList(d.Authors)
	d.Tags = dedupe(normalizeList(d.Tags))
}

// HasTag reports whether the document carries the given normalized tag
func (d Document) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Patch carries the optional field updates applied by the update operation.
// Nil fields keep the stored value.
type Patch struct {
	Title       *string
	Authors     *string // raw comma-separated, split on apply
	Location    *string
	Date        *string
	Tags        *string // raw, split on ';' or ','
	Description *string
	BlobRef     *string
	DriveLink   *string
}

// Apply returns a copy of doc with the patch applied
func (p Patch) Apply(doc Document) (Document, error) {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return Document{}, pkgerrors.NewValidationError("document title cannot be empty")
		}
		doc.Title = strings.TrimSpace(*p.Title)
	}
	if p.Authors != nil {
		doc.Authors = SplitAuthors(*p.Authors)
	}
	if p.Location != nil {
		doc.Location = strings.TrimSpace(*p.Location)
	}
	if p.Date != nil {
		doc.Date = strings.TrimSpace(*p.Date)
	}
	if p.Tags != nil {
		doc.Tags = SplitTags(*p.Tags)
	}
	if p.Description != nil {
		doc.Description = strings.TrimSpace(*p.Description)
	}
	if p.BlobRef != nil {
		doc.BlobRef = *p.BlobRef
	}
	if p.DriveLink != nil {
		doc.DriveLink = *p.DriveLink
	}
	return doc, nil
}

// SplitAuthors splits a comma-separated author list into normalized entries
func SplitAuthors(raw string) []string {
	return normalizeList(strings.Split(raw, ","))
}

// SplitTags splits a tag list on ';' or ',' into a normalized, deduplicated
// sequence preserving first-seen order
func SplitTags(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})
	return dedupe(normalizeList(parts))
}

func normalizeList(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
