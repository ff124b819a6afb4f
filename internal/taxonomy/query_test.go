package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func themeIDs(t *testing.T, s *Store, query string) []string {
	t.Helper()
	var ids []string
	for _, th := range s.SearchThemes(query) {
		ids = append(ids, th.ID)
	}
	return ids
}

func TestSearchThemes(t *testing.T) {
	s := newStore(t, nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"name substring", "ocea", []string{"theme_ocean"}},
		{"case insensitive", "LABYRINTH", []string{"theme_labyrinth"}},
		{"alias", "Chase", []string{"theme_pursuit"}},
		{"alias substring", "anxiety", []string{"theme_exam"}},
		{"several matches in tree order", "ing", []string{
			"theme_pursuit", "theme_flight", "theme_planning", "theme_puzzle",
			"theme_falling", "theme_being_lost", "theme_teeth", "theme_aging",
		}},
		{"no match", "zeppelin", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, themeIDs(t, s, tt.query))
		})
	}
}

func TestSearchThemesEmptyQueryMatchesAll(t *testing.T) {
	s := newStore(t, nil)
	assert.Len(t, s.SearchThemes(""), len(builtInThemes))
}

func TestSearchSeesNewThemes(t *testing.T) {
	s := newStore(t, nil)
	th, err := s.AddTheme("Zeppelin Ride", "vector_places", "")
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, themeIDs(t, s, "zeppelin"))
}

func TestStats(t *testing.T) {
	s := newStore(t, nil)
	require.NoError(t, s.UpdateThemeUsage("theme_ocean", 5))
	require.NoError(t, s.UpdateThemeUsage("theme_storm", 2))
	require.NoError(t, s.UpdateThemeUsage("theme_keys", 2))

	st := s.Stats()
	assert.Equal(t, 4, st.Clusters)
	assert.Equal(t, 9, st.Vectors)
	assert.Equal(t, len(builtInThemes), st.Themes)
	assert.Zero(t, st.CustomThemes)

	require.Len(t, st.PerCluster, 4)
	assert.Equal(t, ClusterCount{ClusterID: "cluster_action", Name: "Action & Agency", Themes: 9}, st.PerCluster[0])
	assert.Equal(t, 7, st.PerCluster[1].Themes, "cross-listed escape counts once per cluster")

	require.Len(t, st.MostUsed, TopN)
	assert.Equal(t, "theme_ocean", st.MostUsed[0].ThemeID)
	assert.Equal(t, "theme_keys", st.MostUsed[1].ThemeID, "ties keep tree order")
	assert.Equal(t, "theme_storm", st.MostUsed[2].ThemeID)

	require.Len(t, st.LeastUsed, TopN)
	assert.Equal(t, "theme_pursuit", st.LeastUsed[0].ThemeID)
	assert.Zero(t, st.LeastUsed[TopN-1].Count)
}
