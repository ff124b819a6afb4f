package types

import "time"

// Cluster is the top-level grouping. A cluster exclusively owns its vectors.
type Cluster struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color"`
	Position    int      `json:"position"`
	Expanded    bool     `json:"expanded,omitempty"`
	Vectors     []Vector `json:"vectors"`
}

// Vector is the mid-level grouping inside exactly one cluster.
// ThemeIDs is an ordered membership list; the theme records themselves live
// in Taxonomy.Themes.
type Vector struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Icon            string   `json:"icon"`
	ParentClusterID string   `json:"parentClusterId"`
	Expanded        bool     `json:"expanded,omitempty"`
	SortOrder       int      `json:"sortOrder,omitempty"`
	ThemeIDs        []string `json:"themeIds"`
}

// Theme is the leaf entity users classify by. A theme may be cross-listed
// under several vectors; VectorIDs must mirror the vectors' ThemeIDs.
type Theme struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Aliases     []string   `json:"aliases,omitempty"`
	Description string     `json:"description,omitempty"`
	VectorIDs   []string   `json:"vectorIds"`
	UsageCount  int        `json:"usageCount"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
}

// Taxonomy is the aggregate root: a schema version tag, the ordered cluster
// tree and the theme table.
type Taxonomy struct {
	Version  string    `json:"version"`
	Clusters []Cluster `json:"clusters"`
	Themes   []Theme   `json:"themes"`
}

// Clone returns a deep copy of the taxonomy.
func (t Taxonomy) Clone() Taxonomy {
	out := Taxonomy{Version: t.Version}
	if t.Clusters != nil {
		out.Clusters = make([]Cluster, len(t.Clusters))
		for i, c := range t.Clusters {
			out.Clusters[i] = c.Clone()
		}
	}
	if t.Themes != nil {
		out.Themes = make([]Theme, len(t.Themes))
		for i, th := range t.Themes {
			out.Themes[i] = th.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the cluster and its vectors.
func (c Cluster) Clone() Cluster {
	out := c
	if c.Vectors != nil {
		out.Vectors = make([]Vector, len(c.Vectors))
		for i, v := range c.Vectors {
			out.Vectors[i] = v.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the vector.
func (v Vector) Clone() Vector {
	out := v
	out.ThemeIDs = cloneStrings(v.ThemeIDs)
	return out
}

// Clone returns a deep copy of the theme.
func (t Theme) Clone() Theme {
	out := t
	out.Aliases = cloneStrings(t.Aliases)
	out.VectorIDs = cloneStrings(t.VectorIDs)
	if t.LastUsed != nil {
		ts := *t.LastUsed
		out.LastUsed = &ts
	}
	return out
}

// HasVector reports whether the theme lists vectorID among its memberships.
func (t Theme) HasVector(vectorID string) bool {
	return containsString(t.VectorIDs, vectorID)
}

// FindTheme returns the index of the theme with the given ID, or -1.
func (t *Taxonomy) FindTheme(id string) int {
	for i := range t.Themes {
		if t.Themes[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCluster returns the index of the cluster with the given ID, or -1.
func (t *Taxonomy) FindCluster(id string) int {
	for i := range t.Clusters {
		if t.Clusters[i].ID == id {
			return i
		}
	}
	return -1
}

// FindVector returns a pointer into the tree for the vector with the given
// ID, or nil. The pointer is only valid until the tree is reshaped.
func (t *Taxonomy) FindVector(id string) *Vector {
	for ci := range t.Clusters {
		vs := t.Clusters[ci].Vectors
		for vi := range vs {
			if vs[vi].ID == id {
				return &vs[vi]
			}
		}
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
