package graph

import (
	"sort"

	"docgraph/domain/catalog"
)

// TagCount pairs a tag with the number of documents carrying it
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCluster groups tags sharing a path-style prefix. Recomputed whenever
// the document set changes; only consulted in clustered render mode.
type TagCluster struct {
	Prefix string   `json:"prefix"`
	Tags   []string `json:"tags"`
	Count  int      `json:"count"` // documents carrying any tag in the cluster
}

// TagFrequencies counts how many documents carry each tag, ordered by
// document count descending with ties broken by first-seen order.
func TagFrequencies(docs []catalog.Document) []TagCount {
	counts := make(map[string]int)
	order := make(map[string]int)
	tags := make([]string, 0)

	for _, doc := range docs {
		for _, tag := range doc.Tags {
			if _, ok := counts[tag]; !ok {
				order[tag] = len(tags)
				tags = append(tags, tag)
			}
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return order[out[i].Tag] < order[out[j].Tag]
	})
	return out
}

// Clusters groups the document set's tags by path prefix, in first-seen
// prefix order. A document counts toward a cluster once even when several
// of its tags share the prefix.
func Clusters(docs []catalog.Document) []TagCluster {
	byPrefix := make(map[string]*TagCluster)
	prefixes := make([]string, 0)
	seenTag := make(map[string]struct{})

	for _, doc := range docs {
		counted := make(map[string]struct{})
		for _, tag := range doc.Tags {
			prefix := TagPrefix(tag)
			cluster, ok := byPrefix[prefix]
			if !ok {
				cluster = &TagCluster{Prefix: prefix}
				byPrefix[prefix] = cluster
				prefixes = append(prefixes, prefix)
			}
			if _, dup := seenTag[tag]; !dup {
				seenTag[tag] = struct{}{}
				cluster.Tags = append(cluster.Tags, tag)
			}
			if _, dup := counted[prefix]; !dup {
				counted[prefix] = struct{}{}
				cluster.Count++
			}
		}
	}

	out := make([]TagCluster, 0, len(prefixes))
	for _, prefix := range prefixes {
		out = append(out, *byPrefix[prefix])
	}
	return out
}
