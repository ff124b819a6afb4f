package taxonomy

import (
	"fmt"
	"strings"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// migrationStep upgrades persisted state to version. Steps must be safe to
// run twice.
type migrationStep struct {
	version string
	details string
	apply   func(s *types.State) error
}

// migrationSteps is ordered by version.
var migrationSteps = []migrationStep{
	{version: "1.0.0", details: "initialize customization record", apply: initCustomizations},
	{version: "1.1.0", details: "mirror usage counts onto themes", apply: mirrorUsage},
}

func initCustomizations(s *types.State) error {
	c := &s.Customizations
	if c.ThemeReassignments == nil {
		c.ThemeReassignments = map[string][]string{}
	}
	if c.ThemeOverrides == nil {
		c.ThemeOverrides = map[string]types.ThemeOverride{}
	}
	for _, list := range []*[]string{
		&c.CustomClusters, &c.CustomVectors, &c.CustomThemes,
		&c.DeletedClusters, &c.DeletedVectors, &c.DeletedThemes,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	if s.Usage.Counts == nil {
		s.Usage.Counts = map[string]int{}
	}
	return nil
}

// mirrorUsage reconciles the aggregate counts and the per-theme counters,
// keeping the larger of the two.
func mirrorUsage(s *types.State) error {
	for i := range s.Taxonomy.Themes {
		th := &s.Taxonomy.Themes[i]
		if n := s.Usage.Counts[th.ID]; n > th.UsageCount {
			th.UsageCount = n
		}
	}
	syncUsage(s)
	return nil
}

// runMigrations applies every step newer than the recorded version and not
// newer than the taxonomy's version, then appends a history entry. It
// returns nil when nothing was due. A failed step leaves s unchanged apart
// from the failure entry.
func runMigrations(s *types.State, now time.Time) (*types.MigrationEntry, error) {
	current := s.Taxonomy.Version
	last := s.Migrations.LastVersion
	if _, err := types.ParseVersion(last); err != nil {
		last = ""
	}
	if cmp, err := types.CompareVersions(current, last); err != nil || cmp <= 0 {
		return nil, err
	}

	work := s.Clone()
	var applied []string
	for _, step := range migrationSteps {
		newer, _ := types.CompareVersions(step.version, last)
		due, _ := types.CompareVersions(step.version, current)
		if newer <= 0 || due > 0 {
			continue
		}
		if err := step.apply(&work); err != nil {
			entry := types.MigrationEntry{
				Version:   current,
				Timestamp: now,
				Success:   false,
				Details:   fmt.Sprintf("step %s failed: %v", step.version, err),
			}
			s.Migrations.History = append(s.Migrations.History, entry)
			return &entry, fmt.Errorf("migration %s: %w", step.version, err)
		}
		applied = append(applied, fmt.Sprintf("%s (%s)", step.version, step.details))
	}

	details := "no steps required"
	if len(applied) > 0 {
		details = "applied " + strings.Join(applied, ", ")
	}
	entry := types.MigrationEntry{Version: current, Timestamp: now, Success: true, Details: details}
	work.Migrations.LastVersion = current
	work.Migrations.History = append(work.Migrations.History, entry)
	*s = work
	return &entry, nil
}
