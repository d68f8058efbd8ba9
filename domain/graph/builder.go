// Package graph derives the tag-similarity graph from a document set and
// decides how it should be rendered.
package graph

import (
	"strings"

	"docgraph/domain/catalog"
)

// Node is a renderable document. Rebuilt from scratch on every change to
// the visible document set, never mutated in place.
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"name"`
	Tags        []string `json:"tags"`
	Connections int      `json:"connections"`
	ClusterTag  string   `json:"clusterTag,omitempty"`
}

// Edge links two documents whose tag sets intersect. At most one edge per
// unordered pair, regardless of how many tags are shared.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the derived node/edge set handed to the renderer
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"links"`
}

// Build derives the similarity graph from the document set. Deterministic
// and pure: node order matches input order, and the pairwise intersection
// test is O(n²) in document count. Fine for catalogs in the low thousands;
// a larger catalog needs an inverted tag index instead.
func Build(docs []catalog.Document) Graph {
	nodes := make([]Node, len(docs))
	tagSets := make([]map[string]struct{}, len(docs))

	for i, doc := range docs {
		set := make(map[string]struct{}, len(doc.Tags))
		for _, tag := range doc.Tags {
			set[tag] = struct{}{}
		}
		tagSets[i] = set

		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		nodes[i] = Node{
			ID:         doc.ID,
			Label:      doc.Title,
			Tags:       tags,
			ClusterTag: clusterTagFor(doc),
		}
	}

	edges := make([]Edge, 0)
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			if intersects(tagSets[i], tagSets[j]) {
				edges = append(edges, Edge{Source: docs[i].ID, Target: docs[j].ID})
				nodes[i].Connections++
				nodes[j].Connections++
			}
		}
	}

	return Graph{Nodes: nodes, Edges: edges}
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for tag := range a {
		if _, ok := b[tag]; ok {
			return true
		}
	}
	return false
}

// clusterTagFor picks the cluster bucket a node falls into when the
// controller renders clustered tag buttons: the path prefix of its first tag.
func clusterTagFor(doc catalog.Document) string {
	if len(doc.Tags) == 0 {
		return ""
	}
	return TagPrefix(doc.Tags[0])
}

// TagPrefix returns the text before the first '/' of a path-style tag,
// or the whole tag when it has no path separator.
func TagPrefix(tag string) string {
	if idx := strings.Index(tag, "/"); idx >= 0 {
		return tag[:idx]
	}
	return tag
}
