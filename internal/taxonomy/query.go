package taxonomy

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// SearchThemes returns the themes whose name or any alias contains query,
// ignoring case, in tree order. An empty query matches every theme.
func (s *Store) SearchThemes(query string) []types.Theme {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	var out []types.Theme
	for _, th := range s.cache.Themes() {
		if matchesTheme(fold, th, needle) {
			out = append(out, th)
		}
	}
	return out
}

func matchesTheme(fold cases.Caser, th types.Theme, needle string) bool {
	if strings.Contains(fold.String(th.Name), needle) {
		return true
	}
	for _, alias := range th.Aliases {
		if strings.Contains(fold.String(alias), needle) {
			return true
		}
	}
	return false
}

// TopN is the length of the most and least used lists in Stats.
const TopN = 10

// ClusterCount is the number of distinct themes under one cluster.
type ClusterCount struct {
	ClusterID string `json:"clusterId"`
	Name      string `json:"name"`
	Themes    int    `json:"themes"`
}

// ThemeUsage pairs a theme with its usage counter.
type ThemeUsage struct {
	ThemeID string `json:"themeId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// Stats summarizes the taxonomy.
type Stats struct {
	Clusters      int            `json:"clusters"`
	Vectors       int            `json:"vectors"`
	Themes        int            `json:"themes"`
	CustomThemes  int            `json:"customThemes"`
	DeletedThemes int            `json:"deletedThemes"`
	PerCluster    []ClusterCount `json:"perCluster"`
	MostUsed      []ThemeUsage   `json:"mostUsed"`
	LeastUsed     []ThemeUsage   `json:"leastUsed"`
}

// Stats computes totals, the per-cluster distribution and the ten most and
// least used themes. Ties keep tree order.
func (s *Store) Stats() Stats {
	st := s.container.State()
	idx := s.cache.Get()
	out := Stats{
		Clusters:      idx.Clusters.Len(),
		Vectors:       idx.Vectors.Len(),
		Themes:        idx.Themes.Len(),
		CustomThemes:  len(st.Customizations.CustomThemes),
		DeletedThemes: len(st.Customizations.DeletedThemes),
	}

	for pair := idx.Clusters.Oldest(); pair != nil; pair = pair.Next() {
		seen := make(map[string]bool)
		for _, vid := range idx.VectorsByCluster[pair.Key] {
			for _, tid := range idx.ThemesByVector[vid] {
				seen[tid] = true
			}
		}
		out.PerCluster = append(out.PerCluster, ClusterCount{
			ClusterID: pair.Key,
			Name:      pair.Value.Name,
			Themes:    len(seen),
		})
	}

	usage := make([]ThemeUsage, 0, idx.Themes.Len())
	for pair := idx.Themes.Oldest(); pair != nil; pair = pair.Next() {
		usage = append(usage, ThemeUsage{ThemeID: pair.Key, Name: pair.Value.Name, Count: pair.Value.UsageCount})
	}
	most := append([]ThemeUsage(nil), usage...)
	sort.SliceStable(most, func(i, j int) bool { return most[i].Count > most[j].Count })
	least := append([]ThemeUsage(nil), usage...)
	sort.SliceStable(least, func(i, j int) bool { return least[i].Count < least[j].Count })
	out.MostUsed = most[:min(TopN, len(most))]
	out.LeastUsed = least[:min(TopN, len(least))]
	return out
}
