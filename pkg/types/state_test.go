package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	used := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	renamed := "Beta Prime"
	return State{
		Taxonomy: Taxonomy{
			Version: "1.1.0",
			Clusters: []Cluster{{
				ID: "cluster_a", Name: "A", Color: "#fff",
				Vectors: []Vector{{ID: "vector_a", Name: "VA", ParentClusterID: "cluster_a", ThemeIDs: []string{"theme_a"}}},
			}},
			Themes: []Theme{{ID: "theme_a", Name: "Alpha", Aliases: []string{"first"}, VectorIDs: []string{"vector_a"}, UsageCount: 2, LastUsed: &used}},
		},
		Customizations: Customizations{
			CustomThemes:       []string{"theme_a"},
			ThemeReassignments: map[string][]string{"theme_a": {"vector_a"}},
			ThemeOverrides:     map[string]ThemeOverride{"theme_b": {Name: &renamed, Aliases: &[]string{"second"}}},
			DeletedVectors:     []string{"vector_old"},
		},
		Migrations: MigrationRecord{LastVersion: "1.1.0", History: []MigrationEntry{{Version: "1.1.0", Success: true}}},
		Usage:      UsageStats{Counts: map[string]int{"theme_a": 2}, LastUpdated: used},
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	orig := sampleState()
	c := orig.Clone()
	require.Empty(t, cmp.Diff(orig, c))

	c.Taxonomy.Clusters[0].Vectors[0].ThemeIDs[0] = "changed"
	c.Taxonomy.Themes[0].Aliases[0] = "changed"
	c.Taxonomy.Themes[0].VectorIDs = append(c.Taxonomy.Themes[0].VectorIDs, "vector_b")
	*c.Taxonomy.Themes[0].LastUsed = time.Time{}
	c.Customizations.ThemeReassignments["theme_a"][0] = "changed"
	c.Customizations.CustomThemes[0] = "changed"
	*c.Customizations.ThemeOverrides["theme_b"].Name = "changed"
	(*c.Customizations.ThemeOverrides["theme_b"].Aliases)[0] = "changed"
	c.Migrations.History[0].Success = false
	c.Usage.Counts["theme_a"] = 99

	assert.Empty(t, cmp.Diff(sampleState(), orig), "original must not observe changes to the clone")
}

func TestCloneKeepsNilSlices(t *testing.T) {
	c := State{}.Clone()
	assert.Nil(t, c.Taxonomy.Clusters)
	assert.Nil(t, c.Customizations.ThemeReassignments)
	assert.Nil(t, c.Usage.Counts)
}

func TestThemeOverrideApply(t *testing.T) {
	empty := ""
	th := Theme{ID: "theme_b", Name: "Beta", Description: "old", Aliases: []string{"b"}}
	ThemeOverride{Description: &empty, Aliases: &[]string{}}.Apply(&th)
	assert.Equal(t, "Beta", th.Name, "nil fields keep the current value")
	assert.Empty(t, th.Description)
	assert.NotNil(t, th.Aliases)
	assert.Empty(t, th.Aliases)
}

func TestCustomizationsQueries(t *testing.T) {
	c := sampleState().Customizations
	assert.True(t, c.IsCustomTheme("theme_a"))
	assert.False(t, c.IsCustomTheme("theme_b"))
	assert.False(t, c.IsCustomVector("vector_a"))
	assert.True(t, c.IsDeleted("vector_old"))
	assert.False(t, c.IsDeleted("theme_a"))
}

func TestTaxonomyLookups(t *testing.T) {
	tax := sampleState().Taxonomy
	assert.Equal(t, 0, tax.FindTheme("theme_a"))
	assert.Equal(t, -1, tax.FindTheme("theme_missing"))
	assert.Equal(t, 0, tax.FindCluster("cluster_a"))
	assert.Equal(t, -1, tax.FindCluster("cluster_missing"))
	assert.Nil(t, tax.FindVector("vector_missing"))

	v := tax.FindVector("vector_a")
	require.NotNil(t, v)
	v.Name = "renamed"
	assert.Equal(t, "renamed", tax.Clusters[0].Vectors[0].Name, "FindVector points into the tree")
	assert.True(t, tax.Themes[0].HasVector("vector_a"))
}

func TestPayload(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	st := sampleState()

	t.Run("persisted payload carries migrations", func(t *testing.T) {
		p := NewPayload(st, "1.1.0", at, true)
		require.NotNil(t, p.Migrations)
		assert.Equal(t, "2026-03-02T09:00:00Z", p.ExportDate)
		assert.Equal(t, "1.1.0", *p.Version)
		assert.Empty(t, cmp.Diff(st, p.State()))
	})

	t.Run("export payload omits migrations", func(t *testing.T) {
		p := NewPayload(st, "1.1.0", at, false)
		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.NotContains(t, string(data), `"migrations"`)
		assert.Contains(t, string(data), `"usageStats"`)

		var back Payload
		require.NoError(t, json.Unmarshal(data, &back))
		got := back.State()
		assert.Empty(t, got.Migrations.History)
		assert.Empty(t, cmp.Diff(st.Taxonomy, got.Taxonomy))
	})

	t.Run("payload is detached from the state", func(t *testing.T) {
		p := NewPayload(st, "1.1.0", at, true)
		p.Taxonomy.Themes[0].Name = "changed"
		assert.Equal(t, "Alpha", st.Taxonomy.Themes[0].Name)
	})

	t.Run("missing sections decode as absent", func(t *testing.T) {
		var p Payload
		require.NoError(t, json.Unmarshal([]byte(`{"exportDate":"x"}`), &p))
		assert.Nil(t, p.Taxonomy)
		assert.Nil(t, p.Version)
		assert.Equal(t, State{}, p.State())
	})
}
