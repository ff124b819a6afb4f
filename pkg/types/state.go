package types

import "time"

// Customizations records user changes relative to the compiled-in defaults.
// The Deleted* lists keep a later default merge from resurrecting entities
// the user removed.
type Customizations struct {
	CustomClusters     []string                 `json:"customClusters"`
	CustomVectors      []string                 `json:"customVectors"`
	CustomThemes       []string                 `json:"customThemes"`
	ThemeReassignments map[string][]string      `json:"themeReassignments"`
	ThemeOverrides     map[string]ThemeOverride `json:"themeOverrides"`
	DeletedClusters    []string                 `json:"deletedClusters"`
	DeletedVectors     []string                 `json:"deletedVectors"`
	DeletedThemes      []string                 `json:"deletedThemes"`
}

// ThemeOverride records user edits to a built-in theme's text fields. Nil
// fields keep the built-in value; a non-nil empty value clears it.
type ThemeOverride struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Aliases     *[]string `json:"aliases,omitempty"`
}

// Clone returns a deep copy.
func (o ThemeOverride) Clone() ThemeOverride {
	var out ThemeOverride
	if o.Name != nil {
		n := *o.Name
		out.Name = &n
	}
	if o.Description != nil {
		d := *o.Description
		out.Description = &d
	}
	if o.Aliases != nil {
		a := append([]string{}, (*o.Aliases)...)
		out.Aliases = &a
	}
	return out
}

// Apply writes the overridden fields onto th.
func (o ThemeOverride) Apply(th *Theme) {
	if o.Name != nil {
		th.Name = *o.Name
	}
	if o.Description != nil {
		th.Description = *o.Description
	}
	if o.Aliases != nil {
		th.Aliases = append([]string{}, (*o.Aliases)...)
	}
}

// IsCustomTheme reports whether id was added by the user.
func (c Customizations) IsCustomTheme(id string) bool { return containsString(c.CustomThemes, id) }

// IsCustomVector reports whether id was added by the user.
func (c Customizations) IsCustomVector(id string) bool { return containsString(c.CustomVectors, id) }

// IsDeleted reports whether id appears in any of the deleted-items lists.
func (c Customizations) IsDeleted(id string) bool {
	return containsString(c.DeletedThemes, id) ||
		containsString(c.DeletedVectors, id) ||
		containsString(c.DeletedClusters, id)
}

// Clone returns a deep copy.
func (c Customizations) Clone() Customizations {
	out := Customizations{
		CustomClusters:  cloneStrings(c.CustomClusters),
		CustomVectors:   cloneStrings(c.CustomVectors),
		CustomThemes:    cloneStrings(c.CustomThemes),
		DeletedClusters: cloneStrings(c.DeletedClusters),
		DeletedVectors:  cloneStrings(c.DeletedVectors),
		DeletedThemes:   cloneStrings(c.DeletedThemes),
	}
	if c.ThemeReassignments != nil {
		out.ThemeReassignments = make(map[string][]string, len(c.ThemeReassignments))
		for k, v := range c.ThemeReassignments {
			out.ThemeReassignments[k] = cloneStrings(v)
		}
	}
	if c.ThemeOverrides != nil {
		out.ThemeOverrides = make(map[string]ThemeOverride, len(c.ThemeOverrides))
		for k, v := range c.ThemeOverrides {
			out.ThemeOverrides[k] = v.Clone()
		}
	}
	return out
}

// MigrationEntry is one row of the append-only migration history.
type MigrationEntry struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Details   string    `json:"details,omitempty"`
}

// MigrationRecord tracks the last applied schema version.
type MigrationRecord struct {
	LastVersion string           `json:"lastVersion"`
	History     []MigrationEntry `json:"history"`
}

// Clone returns a deep copy.
func (m MigrationRecord) Clone() MigrationRecord {
	out := MigrationRecord{LastVersion: m.LastVersion}
	if m.History != nil {
		out.History = make([]MigrationEntry, len(m.History))
		copy(out.History, m.History)
	}
	return out
}

// UsageStats aggregates theme usage. Counts are mirrored onto each
// Theme.UsageCount.
type UsageStats struct {
	Counts      map[string]int `json:"counts"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// Clone returns a deep copy.
func (u UsageStats) Clone() UsageStats {
	out := UsageStats{LastUpdated: u.LastUpdated}
	if u.Counts != nil {
		out.Counts = make(map[string]int, len(u.Counts))
		for k, v := range u.Counts {
			out.Counts[k] = v
		}
	}
	return out
}

// State is the full value held by the store's transactional container.
// Values are treated as immutable snapshots: mutate a Clone, never the
// committed value.
type State struct {
	Taxonomy       Taxonomy        `json:"taxonomy"`
	Customizations Customizations  `json:"customizations"`
	Migrations     MigrationRecord `json:"migrations"`
	Usage          UsageStats      `json:"usageStats"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Taxonomy:       s.Taxonomy.Clone(),
		Customizations: s.Customizations.Clone(),
		Migrations:     s.Migrations.Clone(),
		Usage:          s.Usage.Clone(),
	}
}

// Payload is the self-describing document exchanged with persistence and
// with import/export. Taxonomy and Version are pointers so that a missing
// field can be told apart from a zero value.
type Payload struct {
	Taxonomy       *Taxonomy        `json:"taxonomy"`
	Customizations *Customizations  `json:"customizations,omitempty"`
	Migrations     *MigrationRecord `json:"migrations,omitempty"`
	UsageStats     *UsageStats      `json:"usageStats,omitempty"`
	ExportDate     string           `json:"exportDate"`
	Version        *string          `json:"version"`
}

// NewPayload wraps a state snapshot. The migration record is included only
// when withMigrations is set (persistence, not export).
func NewPayload(s State, version string, at time.Time, withMigrations bool) Payload {
	s = s.Clone()
	p := Payload{
		Taxonomy:       &s.Taxonomy,
		Customizations: &s.Customizations,
		UsageStats:     &s.Usage,
		ExportDate:     at.UTC().Format(time.RFC3339),
		Version:        &version,
	}
	if withMigrations {
		p.Migrations = &s.Migrations
	}
	return p
}

// State converts the payload back into a state value. Missing optional
// sections come back as zero values.
func (p Payload) State() State {
	var s State
	if p.Taxonomy != nil {
		s.Taxonomy = p.Taxonomy.Clone()
	}
	if p.Customizations != nil {
		s.Customizations = p.Customizations.Clone()
	}
	if p.Migrations != nil {
		s.Migrations = p.Migrations.Clone()
	}
	if p.UsageStats != nil {
		s.Usage = p.UsageStats.Clone()
	}
	return s
}
