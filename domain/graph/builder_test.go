package graph

import (
	"testing"

	"docgraph/domain/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, tags ...string) catalog.Document {
	return catalog.Document{ID: id, Title: "doc " + id, Tags: tags}
}

func TestBuild_SharedTagEdges(t *testing.T) {
	// A{x,y} B{y} C{z} -> exactly one edge (A,B); connections A=1 B=1 C=0
	g := Build([]catalog.Document{
		doc("A", "x", "y"),
		doc("B", "y"),
		doc("C", "z"),
	})

	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{Source: "A", Target: "B"}, g.Edges[0])

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, 1, g.Nodes[0].Connections)
	assert.Equal(t, 1, g.Nodes[1].Connections)
	assert.Equal(t, 0, g.Nodes[2].Connections)
}

func TestBuild_OneEdgePerPair(t *testing.T) {
	// two shared tags still produce a single edge
	g := Build([]catalog.Document{
		doc("A", "x", "y"),
		doc("B", "x", "y"),
	})

	assert.Len(t, g.Edges, 1)
	assert.Equal(t, 1, g.Nodes[0].Connections)
	assert.Equal(t, 1, g.Nodes[1].Connections)
}

func TestBuild_NoSelfEdges(t *testing.T) {
	g := Build([]catalog.Document{doc("A", "x")})
	assert.Empty(t, g.Edges)
	assert.Equal(t, 0, g.Nodes[0].Connections)
}

func TestBuild_EdgeCountMatchesIntersectingPairs(t *testing.T) {
	docs := []catalog.Document{
		doc("1", "a", "b"),
		doc("2", "b", "c"),
		doc("3", "c"),
		doc("4", "d"),
		doc("5"), // no tags, connects to nothing
	}
	g := Build(docs)

	want := 0
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			for _, ti := range docs[i].Tags {
				if contains(docs[j].Tags, ti) {
					want++
					break
				}
			}
		}
	}
	assert.Len(t, g.Edges, want)

	// no duplicate pairs
	seen := make(map[Edge]struct{})
	for _, e := range g.Edges {
		_, dup := seen[e]
		assert.False(t, dup, "duplicate edge %v", e)
		seen[e] = struct{}{}
	}
}

func TestBuild_NodeOrderMatchesInput(t *testing.T) {
	g := Build([]catalog.Document{doc("z"), doc("a"), doc("m")})
	assert.Equal(t, "z", g.Nodes[0].ID)
	assert.Equal(t, "a", g.Nodes[1].ID)
	assert.Equal(t, "m", g.Nodes[2].ID)
}

func TestBuild_NodeTagsNeverNil(t *testing.T) {
	g := Build([]catalog.Document{{ID: "A", Title: "untagged"}})
	assert.NotNil(t, g.Nodes[0].Tags)
	assert.NotNil(t, g.Edges)
}

func TestBuild_ClusterTagUsesPathPrefix(t *testing.T) {
	g := Build([]catalog.Document{
		doc("A", "economics/micro", "policy"),
		doc("B", "plain"),
	})
	assert.Equal(t, "economics", g.Nodes[0].ClusterTag)
	assert.Equal(t, "plain", g.Nodes[1].ClusterTag)
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
