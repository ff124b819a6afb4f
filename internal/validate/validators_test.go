package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/txstate"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// fixture returns a small valid state: one cluster, two vectors, three
// themes with one theme cross-listed.
func fixture() types.State {
	return types.State{
		Taxonomy: types.Taxonomy{
			Version: "1.0.0",
			Clusters: []types.Cluster{{
				ID: "c1", Name: "Cluster", Color: "#fff",
				Vectors: []types.Vector{
					{ID: "v1", Name: "One", ParentClusterID: "c1", ThemeIDs: []string{"t1", "t3"}},
					{ID: "v2", Name: "Two", ParentClusterID: "c1", ThemeIDs: []string{"t2", "t3"}},
				},
			}},
			Themes: []types.Theme{
				{ID: "t1", Name: "Alpha", VectorIDs: []string{"v1"}, UsageCount: 2},
				{ID: "t2", Name: "Beta", VectorIDs: []string{"v2"}},
				{ID: "t3", Name: "Gamma", VectorIDs: []string{"v1", "v2"}},
			},
		},
		Customizations: types.Customizations{CustomThemes: []string{"t2"}},
		Usage:          types.UsageStats{Counts: map[string]int{"t1": 2}},
	}
}

func TestTaxonomyValidatorsAcceptFixture(t *testing.T) {
	r := txstate.Evaluate(Taxonomy(), fixture())
	assert.Nil(t, r.Blocking)
	assert.Empty(t, r.Warnings)
}

func TestTaxonomyValidatorsRejectBrokenStates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *types.State)
		want   string
	}{
		{
			name:   "bad version",
			mutate: func(s *types.State) { s.Taxonomy.Version = "one" },
			want:   IDStructure,
		},
		{
			name:   "theme without name",
			mutate: func(s *types.State) { s.Taxonomy.Themes[0].Name = "" },
			want:   IDStructure,
		},
		{
			name:   "theme reuses a vector ID",
			mutate: func(s *types.State) { s.Taxonomy.Themes[1].ID = "v1" },
			want:   IDUniqueIDs,
		},
		{
			name:   "duplicate cluster",
			mutate: func(s *types.State) { s.Taxonomy.Clusters = append(s.Taxonomy.Clusters, types.Cluster{ID: "c1", Name: "dup"}) },
			want:   IDUniqueIDs,
		},
		{
			name:   "wrong parent cluster",
			mutate: func(s *types.State) { s.Taxonomy.Clusters[0].Vectors[1].ParentClusterID = "c9" },
			want:   IDParentCluster,
		},
		{
			name:   "dangling vector reference",
			mutate: func(s *types.State) { s.Taxonomy.Themes[0].VectorIDs = []string{"v9"} },
			want:   IDThemeVectors,
		},
		{
			name: "theme without membership",
			mutate: func(s *types.State) {
				s.Taxonomy.Themes[0].VectorIDs = nil
				s.Taxonomy.Clusters[0].Vectors[0].ThemeIDs = []string{"t3"}
			},
			want: IDThemeMembership,
		},
		{
			name:   "vector lists theme that does not list it back",
			mutate: func(s *types.State) { s.Taxonomy.Clusters[0].Vectors[1].ThemeIDs = append(s.Taxonomy.Clusters[0].Vectors[1].ThemeIDs, "t1") },
			want:   IDMembershipSync,
		},
		{
			name:   "duplicate membership entry",
			mutate: func(s *types.State) { s.Taxonomy.Clusters[0].Vectors[0].ThemeIDs = []string{"t1", "t1", "t3"} },
			want:   IDMembershipSync,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixture()
			tt.mutate(&s)
			r := txstate.Evaluate(Taxonomy(), s)
			require.NotNil(t, r.Blocking)
			assert.Equal(t, tt.want, r.Blocking.ID)
		})
	}
}

func TestAdvisoryValidatorsWarn(t *testing.T) {
	s := fixture()
	s.Usage.Counts["t1"] = 5
	s.Customizations.CustomThemes = append(s.Customizations.CustomThemes, "gone")

	r := txstate.Evaluate(Taxonomy(), s)
	assert.Nil(t, r.Blocking)
	require.Len(t, r.Warnings, 2)
	assert.Equal(t, IDUsageMirror, r.Warnings[0].ID)
	assert.Equal(t, IDCustomResolve, r.Warnings[1].ID)
}

func TestValidatorsDoNotMutateInput(t *testing.T) {
	s := fixture()
	before := s.Clone()
	txstate.Evaluate(Taxonomy(), s)
	assert.Equal(t, before, s)
}
