package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument(
		"abc-123",
		"  Innovation Ecosystems ",
		"Silva, J.,  PEREIRA, M. ",
		"Brazil",
		"2021",
		"economia; inovação, Economia",
		"An abstract.",
		"files/abc-123",
		"https://files.example.com/files/abc-123",
	)
	require.NoError(t, err)

	assert.Equal(t, "abc-123", doc.ID)
	assert.Equal(t, "Innovation Ecosystems", doc.Title)
	assert.Equal(t, []string{"silva", "j.", "pereira", "m."}, doc.Authors)
	assert.Equal(t, []string{"economia", "inovação"}, doc.Tags)
	assert.Equal(t, "Brazil", doc.Location)
}

func TestNewDocument_RequiresTitleAndID(t *testing.T) {
	_, err := NewDocument("", "Title", "", "", "", "", "", "", "")
	assert.Error(t, err)

	_, err = NewDocument("id-1", "   ", "", "", "", "", "", "", "")
	assert.Error(t, err)
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"basic", "Silva, Souza", []string{"silva", "souza"}},
		{"trims and lowercases", "  SILVA ,  Souza  ", []string{"silva", "souza"}},
		{"drops empties", "Silva,,Souza,", []string{"silva", "souza"}},
		{"empty input", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAuthors(tt.raw))
		})
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"semicolons and commas", "a;b,c", []string{"a", "b", "c"}},
		{"dedupes keeping first-seen order", "B,a;b;A", []string{"b", "a"}},
		{"venue plus keywords", "Journal of Things,alpha;beta", []string{"journal of things", "alpha", "beta"}},
		{"empty never nil", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTags(tt.raw)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_RepairsLoadedRecord(t *testing.T) {
	doc := Document{
		ID:      "x",
		Title:   "T",
		Authors: nil,
		Tags:    []string{" Work ", "work", "FINANCE"},
	}
	doc.Normalize()

	assert.NotNil(t, doc.Authors)
	assert.Equal(t, []string{"work", "finance"}, doc.Tags)
}

func TestPatchApply(t *testing.T) {
	doc := Document{ID: "1", Title: "Old", Tags: []string{"old"}, Location: "BR"}

	title := "New Title"
	tags := "x;y"
	patched, err := Patch{Title: &title, Tags: &tags}.Apply(doc)
	require.NoError(t, err)

	assert.Equal(t, "New Title", patched.Title)
	assert.Equal(t, []string{"x", "y"}, patched.Tags)
	assert.Equal(t, "BR", patched.Location) // untouched fields survive
	assert.Equal(t, "Old", doc.Title)       // original not mutated

	empty := "  "
	_, err = Patch{Title: &empty}.Apply(doc)
	assert.Error(t, err)
}
