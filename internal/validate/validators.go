// Package validate holds the validators the taxonomy store registers on its
// transactional container. Every validator is a pure predicate over a full
// state snapshot and never mutates its input.
package validate

import (
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/txstate"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Validator IDs.
const (
	IDStructure       = "structure"
	IDUniqueIDs       = "unique-ids"
	IDParentCluster   = "parent-cluster"
	IDThemeVectors    = "theme-vectors-exist"
	IDThemeMembership = "theme-has-vector"
	IDMembershipSync  = "membership-symmetry"
	IDUsageMirror     = "usage-mirror"
	IDCustomResolve   = "custom-ids-resolve"
)

// Validator is the container validator specialised to the store state.
type Validator = txstate.Validator[types.State]

// Taxonomy returns the built-in validator set in evaluation order.
func Taxonomy() []Validator {
	return []Validator{
		{
			ID:           IDStructure,
			Validate:     Structure,
			ErrorMessage: "taxonomy has an invalid version or an entity without an ID or name",
			Required:     true,
		},
		{
			ID:           IDUniqueIDs,
			Validate:     UniqueIDs,
			ErrorMessage: "entity identifiers must be unique across clusters, vectors and themes",
			Required:     true,
		},
		{
			ID:           IDParentCluster,
			Validate:     ParentCluster,
			ErrorMessage: "vector parentClusterId does not match its containing cluster",
			Required:     true,
		},
		{
			ID:           IDThemeVectors,
			Validate:     ThemeVectorsExist,
			ErrorMessage: "theme references a vector that does not exist",
			Required:     true,
		},
		{
			ID:           IDThemeMembership,
			Validate:     ThemeHasVector,
			ErrorMessage: "theme must belong to at least one vector",
			Required:     true,
		},
		{
			ID:           IDMembershipSync,
			Validate:     MembershipSymmetric,
			ErrorMessage: "vector theme lists and theme vectorIds disagree",
			Required:     true,
		},
		{
			ID:           IDUsageMirror,
			Validate:     UsageMirrored,
			ErrorMessage: "usage statistics and theme usage counters disagree",
		},
		{
			ID:           IDCustomResolve,
			Validate:     CustomIDsResolve,
			ErrorMessage: "customization record lists an entity that is not in the tree",
		},
	}
}

// Structure checks the version tag and that every entity has an ID and a
// name.
func Structure(s types.State) bool {
	if _, err := types.ParseVersion(s.Taxonomy.Version); err != nil {
		return false
	}
	for _, c := range s.Taxonomy.Clusters {
		if c.ID == "" || c.Name == "" {
			return false
		}
		for _, v := range c.Vectors {
			if v.ID == "" || v.Name == "" {
				return false
			}
		}
	}
	for _, th := range s.Taxonomy.Themes {
		if th.ID == "" || th.Name == "" {
			return false
		}
	}
	return true
}

// UniqueIDs checks that no identifier is used twice across all tiers.
func UniqueIDs(s types.State) bool {
	seen := make(map[string]struct{})
	add := func(id string) bool {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		return true
	}
	for _, c := range s.Taxonomy.Clusters {
		if !add(c.ID) {
			return false
		}
		for _, v := range c.Vectors {
			if !add(v.ID) {
				return false
			}
		}
	}
	for _, th := range s.Taxonomy.Themes {
		if !add(th.ID) {
			return false
		}
	}
	return true
}

// ParentCluster checks every vector's back-reference.
func ParentCluster(s types.State) bool {
	for _, c := range s.Taxonomy.Clusters {
		for _, v := range c.Vectors {
			if v.ParentClusterID != c.ID {
				return false
			}
		}
	}
	return true
}

// ThemeVectorsExist checks that every vector a theme references exists.
func ThemeVectorsExist(s types.State) bool {
	vectors := vectorSet(s.Taxonomy)
	for _, th := range s.Taxonomy.Themes {
		for _, vid := range th.VectorIDs {
			if _, ok := vectors[vid]; !ok {
				return false
			}
		}
	}
	return true
}

// ThemeHasVector checks that no theme is left without a membership.
func ThemeHasVector(s types.State) bool {
	for _, th := range s.Taxonomy.Themes {
		if len(th.VectorIDs) == 0 {
			return false
		}
	}
	return true
}

// MembershipSymmetric checks that vector.ThemeIDs and theme.VectorIDs
// describe the same relation, without duplicates on either side.
func MembershipSymmetric(s types.State) bool {
	type edge struct{ vector, theme string }
	fromVectors := make(map[edge]struct{})
	for _, c := range s.Taxonomy.Clusters {
		for _, v := range c.Vectors {
			for _, tid := range v.ThemeIDs {
				e := edge{v.ID, tid}
				if _, dup := fromVectors[e]; dup {
					return false
				}
				fromVectors[e] = struct{}{}
			}
		}
	}
	count := 0
	for _, th := range s.Taxonomy.Themes {
		for _, vid := range th.VectorIDs {
			if _, ok := fromVectors[edge{vid, th.ID}]; !ok {
				return false
			}
			count++
		}
	}
	return count == len(fromVectors)
}

// UsageMirrored checks that the aggregate usage map agrees with each
// theme's own counter.
func UsageMirrored(s types.State) bool {
	for _, th := range s.Taxonomy.Themes {
		if s.Usage.Counts[th.ID] != th.UsageCount {
			return false
		}
	}
	return true
}

// CustomIDsResolve checks that custom entity lists only name live entities.
func CustomIDsResolve(s types.State) bool {
	t := s.Taxonomy
	for _, id := range s.Customizations.CustomClusters {
		if t.FindCluster(id) < 0 {
			return false
		}
	}
	for _, id := range s.Customizations.CustomVectors {
		if t.FindVector(id) == nil {
			return false
		}
	}
	for _, id := range s.Customizations.CustomThemes {
		if t.FindTheme(id) < 0 {
			return false
		}
	}
	return true
}

func vectorSet(t types.Taxonomy) map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range t.Clusters {
		for _, v := range c.Vectors {
			out[v.ID] = struct{}{}
		}
	}
	return out
}
