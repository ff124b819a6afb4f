package taxonomy

import (
	"sort"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// MergeReport summarizes what Merge kept, dropped and repaired.
type MergeReport struct {
	CustomClusters int
	CustomVectors  int
	CustomThemes   int
	Dropped        []string
	Rehomed        []string
	Migration      *types.MigrationEntry
}

// Changed reports whether the merged state differs in a way worth
// persisting straight away.
func (r MergeReport) Changed() bool {
	return len(r.Dropped) > 0 || len(r.Rehomed) > 0 || r.Migration != nil
}

// Merge reconciles persisted state with the compiled-in defaults.
//
// Defaults are the base. A persisted entity whose ID matches a default
// overlays its user-mutable fields onto it; any other persisted entity is
// kept verbatim as user content. Theme reassignments are then applied and
// everything on the deleted lists is dropped. Themes left without a vector
// are moved to the uncategorized vector. Finally pending migration steps
// run. Merging defaults with themselves yields the defaults.
func Merge(defaults types.State, saved *types.Payload, now time.Time) (types.State, MergeReport) {
	var report MergeReport
	if saved == nil || saved.Taxonomy == nil {
		out := defaults.Clone()
		report.Migration, _ = runMigrations(&out, now)
		return out, report
	}

	persisted := saved.State()
	out := types.State{
		Taxonomy:       types.Taxonomy{Version: defaults.Taxonomy.Version},
		Customizations: persisted.Customizations,
		Migrations:     persisted.Migrations,
		Usage:          persisted.Usage,
	}
	_ = initCustomizations(&out)

	out.Taxonomy.Clusters = mergeClusters(defaults.Taxonomy, persisted.Taxonomy, &report)
	out.Taxonomy.Themes = mergeThemes(defaults.Taxonomy, persisted.Taxonomy, &report)

	cust := &out.Customizations
	for id, vectorIDs := range cust.ThemeReassignments {
		if ti := out.Taxonomy.FindTheme(id); ti >= 0 {
			out.Taxonomy.Themes[ti].VectorIDs = append([]string(nil), vectorIDs...)
		}
	}
	for id, o := range cust.ThemeOverrides {
		if ti := out.Taxonomy.FindTheme(id); ti >= 0 {
			o.Apply(&out.Taxonomy.Themes[ti])
		}
	}

	dropDeleted(&out, &report)
	repairMemberships(&out, &report)
	pruneCustomizations(&out, defaults.Taxonomy)
	for i := range out.Taxonomy.Themes {
		th := &out.Taxonomy.Themes[i]
		if n := out.Usage.Counts[th.ID]; n > th.UsageCount {
			th.UsageCount = n
		}
	}
	syncUsage(&out)

	report.Migration, _ = runMigrations(&out, now)
	return out, report
}

func mergeClusters(defaults, saved types.Taxonomy, report *MergeReport) []types.Cluster {
	savedClusters := make(map[string]types.Cluster, len(saved.Clusters))
	savedVectors := make(map[string]types.Vector)
	for _, c := range saved.Clusters {
		savedClusters[c.ID] = c
		for _, v := range c.Vectors {
			savedVectors[v.ID] = v
		}
	}
	defaultClusters := make(map[string]bool, len(defaults.Clusters))
	defaultVectors := make(map[string]bool)
	for _, c := range defaults.Clusters {
		defaultClusters[c.ID] = true
		for _, v := range c.Vectors {
			defaultVectors[v.ID] = true
		}
	}

	customVectors := func(clusterID string, from []types.Vector) []types.Vector {
		var out []types.Vector
		for _, v := range from {
			if defaultVectors[v.ID] {
				continue
			}
			v = v.Clone()
			v.ParentClusterID = clusterID
			out = append(out, v)
			report.CustomVectors++
		}
		return out
	}

	clusters := make([]types.Cluster, 0, len(defaults.Clusters)+len(saved.Clusters))
	for _, dc := range defaults.Clusters {
		c := dc.Clone()
		sc, found := savedClusters[dc.ID]
		if found {
			if sc.Color != "" {
				c.Color = sc.Color
			}
			c.Position = sc.Position
			c.Expanded = sc.Expanded
		}
		for vi := range c.Vectors {
			v := &c.Vectors[vi]
			if sv, ok := savedVectors[v.ID]; ok {
				if sv.Icon != "" {
					v.Icon = sv.Icon
				}
				v.Expanded = sv.Expanded
				v.SortOrder = sv.SortOrder
				v.ThemeIDs = mergeOrder(sv.ThemeIDs, v.ThemeIDs)
			}
		}
		if found {
			c.Vectors = append(c.Vectors, customVectors(c.ID, sc.Vectors)...)
		}
		sort.SliceStable(c.Vectors, func(i, j int) bool { return c.Vectors[i].SortOrder < c.Vectors[j].SortOrder })
		clusters = append(clusters, c)
	}
	for _, sc := range saved.Clusters {
		if defaultClusters[sc.ID] {
			continue
		}
		c := sc.Clone()
		c.Vectors = customVectors(c.ID, sc.Vectors)
		clusters = append(clusters, c)
		report.CustomClusters++
	}
	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Position < clusters[j].Position })
	return clusters
}

func mergeThemes(defaults, saved types.Taxonomy, report *MergeReport) []types.Theme {
	savedThemes := make(map[string]types.Theme, len(saved.Themes))
	for _, th := range saved.Themes {
		savedThemes[th.ID] = th
	}
	defaultThemes := make(map[string]bool, len(defaults.Themes))

	themes := make([]types.Theme, 0, len(defaults.Themes)+len(saved.Themes))
	for _, dt := range defaults.Themes {
		defaultThemes[dt.ID] = true
		th := dt.Clone()
		if st, ok := savedThemes[dt.ID]; ok {
			st = st.Clone()
			th.UsageCount = st.UsageCount
			th.LastUsed = st.LastUsed
			if st.Aliases != nil {
				th.Aliases = st.Aliases
			}
			if st.Description != "" {
				th.Description = st.Description
			}
			if len(st.VectorIDs) > 0 {
				th.VectorIDs = st.VectorIDs
			}
		}
		themes = append(themes, th)
	}
	for _, st := range saved.Themes {
		if defaultThemes[st.ID] {
			continue
		}
		themes = append(themes, st.Clone())
		report.CustomThemes++
	}
	return themes
}

// dropDeleted removes every entity named on a deleted list.
func dropDeleted(s *types.State, report *MergeReport) {
	t := &s.Taxonomy
	c := s.Customizations

	clusters := t.Clusters[:0]
	for _, cl := range t.Clusters {
		if contains(c.DeletedClusters, cl.ID) {
			report.Dropped = append(report.Dropped, cl.ID)
			continue
		}
		vectors := cl.Vectors[:0]
		for _, v := range cl.Vectors {
			if contains(c.DeletedVectors, v.ID) {
				report.Dropped = append(report.Dropped, v.ID)
				continue
			}
			vectors = append(vectors, v)
		}
		cl.Vectors = vectors
		clusters = append(clusters, cl)
	}
	t.Clusters = clusters

	themes := t.Themes[:0]
	for _, th := range t.Themes {
		if contains(c.DeletedThemes, th.ID) {
			report.Dropped = append(report.Dropped, th.ID)
			continue
		}
		themes = append(themes, th)
	}
	t.Themes = themes
}

// repairMemberships restores the membership invariants: themes only point
// at live vectors, orphans go to the uncategorized vector, and every vector
// list mirrors the themes' own lists while keeping its existing order.
func repairMemberships(s *types.State, report *MergeReport) {
	t := &s.Taxonomy
	live := make(map[string]bool)
	for _, c := range t.Clusters {
		for _, v := range c.Vectors {
			live[v.ID] = true
		}
	}

	for i := range t.Themes {
		th := &t.Themes[i]
		var kept []string
		for _, vid := range th.VectorIDs {
			if live[vid] && !contains(kept, vid) {
				kept = append(kept, vid)
			}
		}
		if len(kept) == 0 {
			if ensureUncategorized(s) {
				live[UncategorizedVectorID] = true
			}
			kept = []string{UncategorizedVectorID}
			report.Rehomed = append(report.Rehomed, th.ID)
		}
		th.VectorIDs = kept
	}

	members := make(map[string]map[string]bool)
	for _, th := range t.Themes {
		for _, vid := range th.VectorIDs {
			if members[vid] == nil {
				members[vid] = make(map[string]bool)
			}
			members[vid][th.ID] = true
		}
	}
	for ci := range t.Clusters {
		for vi := range t.Clusters[ci].Vectors {
			v := &t.Clusters[ci].Vectors[vi]
			want := members[v.ID]
			list := make([]string, 0, len(want))
			for _, tid := range v.ThemeIDs {
				if want[tid] && !contains(list, tid) {
					list = append(list, tid)
				}
			}
			for _, th := range t.Themes {
				if want[th.ID] && !contains(list, th.ID) {
					list = append(list, th.ID)
				}
			}
			v.ThemeIDs = list
		}
	}
}

// pruneCustomizations keeps the custom lists in step with the merged tree:
// entities that no longer exist are removed and non-default entities are
// recorded as custom.
func pruneCustomizations(s *types.State, defaults types.Taxonomy) {
	t := &s.Taxonomy
	c := &s.Customizations

	filter := func(list []string, exists func(string) bool) []string {
		out := []string{}
		for _, id := range list {
			if exists(id) && !contains(out, id) {
				out = append(out, id)
			}
		}
		return out
	}
	c.CustomClusters = filter(c.CustomClusters, func(id string) bool { return t.FindCluster(id) >= 0 })
	c.CustomVectors = filter(c.CustomVectors, func(id string) bool { return t.FindVector(id) != nil })
	c.CustomThemes = filter(c.CustomThemes, func(id string) bool { return t.FindTheme(id) >= 0 })

	for _, cl := range t.Clusters {
		if defaults.FindCluster(cl.ID) < 0 {
			c.CustomClusters = appendUnique(c.CustomClusters, cl.ID)
		}
		for _, v := range cl.Vectors {
			if defaults.FindVector(v.ID) == nil {
				c.CustomVectors = appendUnique(c.CustomVectors, v.ID)
			}
		}
	}
	for _, th := range t.Themes {
		if defaults.FindTheme(th.ID) < 0 {
			c.CustomThemes = appendUnique(c.CustomThemes, th.ID)
		}
	}
	for id := range c.ThemeReassignments {
		if t.FindTheme(id) < 0 {
			delete(c.ThemeReassignments, id)
		}
	}
	for id := range c.ThemeOverrides {
		if t.FindTheme(id) < 0 || c.IsCustomTheme(id) {
			delete(c.ThemeOverrides, id)
		}
	}
}

// mergeOrder returns primary followed by the items of secondary it lacks.
func mergeOrder(primary, secondary []string) []string {
	out := make([]string, 0, len(primary)+len(secondary))
	for _, id := range primary {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	for _, id := range secondary {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
