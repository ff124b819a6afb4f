// Package index maintains the derived lookup structures over a taxonomy:
// ID to entity maps for each tier and the parent to children adjacency
// lists. An Index is a pure function of the taxonomy it was built from.
package index

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Index is an immutable view over one taxonomy snapshot. Map iteration
// follows tree order: clusters, then their vectors, then vector theme
// lists, each theme at its first occurrence.
type Index struct {
	Clusters         *orderedmap.OrderedMap[string, types.Cluster]
	Vectors          *orderedmap.OrderedMap[string, types.Vector]
	Themes           *orderedmap.OrderedMap[string, types.Theme]
	ThemesByVector   map[string][]string
	VectorsByCluster map[string][]string
	BuiltAt          time.Time
}

// Build walks the taxonomy and returns a fresh index.
func Build(t types.Taxonomy, now time.Time) *Index {
	idx := &Index{
		Clusters:         orderedmap.New[string, types.Cluster](),
		Vectors:          orderedmap.New[string, types.Vector](),
		Themes:           orderedmap.New[string, types.Theme](),
		ThemesByVector:   make(map[string][]string),
		VectorsByCluster: make(map[string][]string),
		BuiltAt:          now,
	}

	table := make(map[string]types.Theme, len(t.Themes))
	for _, th := range t.Themes {
		table[th.ID] = th
	}

	for _, c := range t.Clusters {
		idx.Clusters.Set(c.ID, c)
		vids := make([]string, 0, len(c.Vectors))
		for _, v := range c.Vectors {
			idx.Vectors.Set(v.ID, v)
			vids = append(vids, v.ID)
			tids := make([]string, 0, len(v.ThemeIDs))
			for _, tid := range v.ThemeIDs {
				th, ok := table[tid]
				if !ok {
					continue
				}
				tids = append(tids, tid)
				if _, seen := idx.Themes.Get(tid); !seen {
					idx.Themes.Set(tid, th)
				}
			}
			idx.ThemesByVector[v.ID] = tids
		}
		idx.VectorsByCluster[c.ID] = vids
	}

	// Themes not reachable through a vector still resolve by ID.
	for _, th := range t.Themes {
		if _, seen := idx.Themes.Get(th.ID); !seen {
			idx.Themes.Set(th.ID, th)
		}
	}
	return idx
}

// ThemeList returns the themes in index order.
func (idx *Index) ThemeList() []types.Theme {
	out := make([]types.Theme, 0, idx.Themes.Len())
	for p := idx.Themes.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value.Clone())
	}
	return out
}
