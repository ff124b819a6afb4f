package taxonomy

import (
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// SchemaVersion is the version tag of the compiled-in default taxonomy.
// Bumping it makes the next load run the pending migration steps.
const SchemaVersion = "1.1.0"

// builtInCluster describes a default cluster and its vectors.
type builtInCluster struct {
	id      string
	name    string
	desc    string
	color   string
	vectors []builtInVector
}

// builtInVector describes a default vector and its theme IDs in order.
type builtInVector struct {
	id     string
	name   string
	desc   string
	icon   string
	themes []string
}

// builtInTheme describes a default theme. Memberships come from the
// vectors that list it.
type builtInTheme struct {
	id      string
	name    string
	desc    string
	aliases []string
}

var builtInClusters = []builtInCluster{
	{
		id: "cluster_action", name: "Action & Agency", color: "#e67e22",
		desc: "What the dreamer does and how they pursue it",
		vectors: []builtInVector{
			{id: "vector_action", name: "Action", icon: "zap",
				themes: []string{"theme_pursuit", "theme_escape", "theme_flight", "theme_quest"}},
			{id: "vector_strategy", name: "Strategy", icon: "compass",
				themes: []string{"theme_planning", "theme_puzzle", "theme_negotiation"}},
			{id: "vector_conflict", name: "Conflict", icon: "swords",
				themes: []string{"theme_confrontation", "theme_rivalry"}},
		},
	},
	{
		id: "cluster_emotion", name: "Emotion", color: "#c0392b",
		desc: "The dominant feeling of the dream",
		vectors: []builtInVector{
			{id: "vector_fear", name: "Fear & Threat", icon: "alert-triangle",
				themes: []string{"theme_falling", "theme_being_lost", "theme_escape", "theme_teeth"}},
			{id: "vector_joy", name: "Joy & Connection", icon: "heart",
				themes: []string{"theme_reunion", "theme_celebration", "theme_romance"}},
		},
	},
	{
		id: "cluster_self", name: "Self & Identity", color: "#8e44ad",
		desc: "How the dreamer appears to themselves and others",
		vectors: []builtInVector{
			{id: "vector_identity", name: "Identity", icon: "user",
				themes: []string{"theme_mirror", "theme_exam", "theme_nakedness"}},
			{id: "vector_transformation", name: "Transformation", icon: "refresh-cw",
				themes: []string{"theme_metamorphosis", "theme_death_rebirth", "theme_aging"}},
		},
	},
	{
		id: "cluster_world", name: "Places & Symbols", color: "#16a085",
		desc: "Settings and recurring images",
		vectors: []builtInVector{
			{id: "vector_places", name: "Places", icon: "map",
				themes: []string{"theme_childhood_home", "theme_labyrinth", "theme_ocean"}},
			{id: "vector_symbols", name: "Symbols", icon: "key",
				themes: []string{"theme_keys", "theme_animals", "theme_storm"}},
		},
	},
}

var builtInThemes = []builtInTheme{
	{id: "theme_pursuit", name: "Pursuit", aliases: []string{"chase", "being chased"}},
	{id: "theme_escape", name: "Escape", desc: "Getting away from danger or confinement"},
	{id: "theme_flight", name: "Flying", aliases: []string{"levitation"}},
	{id: "theme_quest", name: "Quest"},
	{id: "theme_planning", name: "Planning"},
	{id: "theme_puzzle", name: "Puzzle Solving", aliases: []string{"riddle"}},
	{id: "theme_negotiation", name: "Negotiation"},
	{id: "theme_confrontation", name: "Confrontation"},
	{id: "theme_rivalry", name: "Rivalry"},
	{id: "theme_falling", name: "Falling"},
	{id: "theme_being_lost", name: "Being Lost"},
	{id: "theme_teeth", name: "Losing Teeth"},
	{id: "theme_reunion", name: "Reunion"},
	{id: "theme_celebration", name: "Celebration"},
	{id: "theme_romance", name: "Romance"},
	{id: "theme_mirror", name: "Mirror Self"},
	{id: "theme_exam", name: "Unprepared for Exam", aliases: []string{"test anxiety"}},
	{id: "theme_nakedness", name: "Public Nakedness"},
	{id: "theme_metamorphosis", name: "Metamorphosis"},
	{id: "theme_death_rebirth", name: "Death & Rebirth"},
	{id: "theme_aging", name: "Aging"},
	{id: "theme_childhood_home", name: "Childhood Home"},
	{id: "theme_labyrinth", name: "Labyrinth"},
	{id: "theme_ocean", name: "Ocean", aliases: []string{"sea", "water"}},
	{id: "theme_keys", name: "Keys & Doors"},
	{id: "theme_animals", name: "Animal Guide"},
	{id: "theme_storm", name: "Storm"},
}

// DefaultTaxonomy builds the compiled-in taxonomy. Every call returns a
// fresh value.
func DefaultTaxonomy() types.Taxonomy {
	memberships := make(map[string][]string)
	t := types.Taxonomy{Version: SchemaVersion}
	for pos, bc := range builtInClusters {
		c := types.Cluster{
			ID:          bc.id,
			Name:        bc.name,
			Description: bc.desc,
			Color:       bc.color,
			Position:    pos,
		}
		for order, bv := range bc.vectors {
			c.Vectors = append(c.Vectors, types.Vector{
				ID:              bv.id,
				Name:            bv.name,
				Description:     bv.desc,
				Icon:            bv.icon,
				ParentClusterID: bc.id,
				SortOrder:       order,
				ThemeIDs:        append([]string(nil), bv.themes...),
			})
			for _, tid := range bv.themes {
				memberships[tid] = append(memberships[tid], bv.id)
			}
		}
		t.Clusters = append(t.Clusters, c)
	}
	for _, bt := range builtInThemes {
		t.Themes = append(t.Themes, types.Theme{
			ID:          bt.id,
			Name:        bt.name,
			Description: bt.desc,
			Aliases:     append([]string(nil), bt.aliases...),
			VectorIDs:   memberships[bt.id],
		})
	}
	return t
}

// DefaultState returns the state a fresh store starts from.
func DefaultState() types.State {
	return types.State{
		Taxonomy:       DefaultTaxonomy(),
		Customizations: emptyCustomizations(),
		Usage:          types.UsageStats{Counts: map[string]int{}},
	}
}

func emptyCustomizations() types.Customizations {
	return types.Customizations{
		CustomClusters:     []string{},
		CustomVectors:      []string{},
		CustomThemes:       []string{},
		ThemeReassignments: map[string][]string{},
		ThemeOverrides:     map[string]types.ThemeOverride{},
		DeletedClusters:    []string{},
		DeletedVectors:     []string{},
		DeletedThemes:      []string{},
	}
}
