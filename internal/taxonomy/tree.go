package taxonomy

import (
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// IDs of the synthetic bucket used for migrated and orphaned themes.
const (
	UncategorizedClusterID = "cluster_uncategorized"
	UncategorizedVectorID  = "vector_uncategorized"
)

// attachTheme records the theme on both sides of the membership relation.
// It returns false when the vector or theme does not exist.
func attachTheme(t *types.Taxonomy, themeID, vectorID string) bool {
	v := t.FindVector(vectorID)
	ti := t.FindTheme(themeID)
	if v == nil || ti < 0 {
		return false
	}
	v.ThemeIDs = appendUnique(v.ThemeIDs, themeID)
	t.Themes[ti].VectorIDs = appendUnique(t.Themes[ti].VectorIDs, vectorID)
	return true
}

// detachTheme removes themeID from every vector list and clears the
// theme's own memberships.
func detachTheme(t *types.Taxonomy, themeID string) {
	for ci := range t.Clusters {
		for vi := range t.Clusters[ci].Vectors {
			v := &t.Clusters[ci].Vectors[vi]
			v.ThemeIDs = removeString(v.ThemeIDs, themeID)
		}
	}
	if ti := t.FindTheme(themeID); ti >= 0 {
		t.Themes[ti].VectorIDs = []string{}
	}
}

// removeTheme detaches the theme and drops its record.
func removeTheme(t *types.Taxonomy, themeID string) {
	detachTheme(t, themeID)
	if ti := t.FindTheme(themeID); ti >= 0 {
		t.Themes = append(t.Themes[:ti], t.Themes[ti+1:]...)
	}
}

// vectorCluster returns the index of the cluster owning vectorID, or -1.
func vectorCluster(t *types.Taxonomy, vectorID string) int {
	for ci := range t.Clusters {
		for _, v := range t.Clusters[ci].Vectors {
			if v.ID == vectorID {
				return ci
			}
		}
	}
	return -1
}

// ensureUncategorized adds the uncategorized cluster and vector when they
// are missing and reports whether anything was added.
func ensureUncategorized(s *types.State) bool {
	added := false
	t := &s.Taxonomy
	c := &s.Customizations
	ci := t.FindCluster(UncategorizedClusterID)
	if ci < 0 {
		t.Clusters = append(t.Clusters, types.Cluster{
			ID:          UncategorizedClusterID,
			Name:        "Uncategorized",
			Description: "Themes without a home in the taxonomy",
			Color:       "#7f8c8d",
			Position:    nextPosition(t),
		})
		ci = len(t.Clusters) - 1
		c.CustomClusters = appendUnique(c.CustomClusters, UncategorizedClusterID)
		c.DeletedClusters = removeString(c.DeletedClusters, UncategorizedClusterID)
		added = true
	}
	if t.FindVector(UncategorizedVectorID) == nil {
		cl := &t.Clusters[ci]
		cl.Vectors = append(cl.Vectors, types.Vector{
			ID:              UncategorizedVectorID,
			Name:            "Uncategorized",
			Icon:            "help-circle",
			ParentClusterID: UncategorizedClusterID,
			SortOrder:       len(cl.Vectors),
			ThemeIDs:        []string{},
		})
		c.CustomVectors = appendUnique(c.CustomVectors, UncategorizedVectorID)
		c.DeletedVectors = removeString(c.DeletedVectors, UncategorizedVectorID)
		added = true
	}
	return added
}

func nextPosition(t *types.Taxonomy) int {
	next := 0
	for _, c := range t.Clusters {
		if c.Position >= next {
			next = c.Position + 1
		}
	}
	return next
}

// syncUsage mirrors every theme's counter into the aggregate map.
func syncUsage(s *types.State) {
	counts := make(map[string]int, len(s.Taxonomy.Themes))
	for _, th := range s.Taxonomy.Themes {
		if th.UsageCount > 0 {
			counts[th.ID] = th.UsageCount
		}
	}
	s.Usage.Counts = counts
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
