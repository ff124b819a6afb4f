package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// ExportTaxonomy serializes the taxonomy, customizations and usage
// statistics as an indented JSON document. The migration record is not
// exported.
func (s *Store) ExportTaxonomy() ([]byte, error) {
	st := s.container.State()
	payload := types.NewPayload(st, st.Taxonomy.Version, s.now(), false)
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal taxonomy: %w", err)
	}
	return data, nil
}

// ImportTaxonomy replaces the committed taxonomy with the one in data. The
// document must carry a taxonomy and a valid version and must pass every
// required validator; otherwise an *types.ImportFormatError is returned and
// nothing changes. Missing customizations or usage sections start empty.
func (s *Store) ImportTaxonomy(data []byte) error {
	candidate, err := s.decodeImport(data)
	if err != nil {
		s.log.Warn("import rejected", zap.Error(err))
		return err
	}
	_, err = s.mutate("import taxonomy", func(types.State) (types.State, error) {
		return candidate, nil
	})
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			return &types.ImportFormatError{Reason: "taxonomy violates invariants", Err: err}
		}
		return err
	}
	s.log.Info("taxonomy imported", zap.Int("themes", len(candidate.Taxonomy.Themes)))
	return nil
}

func (s *Store) decodeImport(data []byte) (types.State, error) {
	var p types.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return types.State{}, &types.ImportFormatError{Reason: "malformed JSON", Err: err}
	}
	if p.Taxonomy == nil {
		return types.State{}, &types.ImportFormatError{Reason: "taxonomy", Err: types.ErrMissingSection}
	}
	if p.Version == nil || strings.TrimSpace(*p.Version) == "" {
		return types.State{}, &types.ImportFormatError{Reason: "version", Err: types.ErrMissingSection}
	}
	if _, err := types.ParseVersion(*p.Version); err != nil {
		return types.State{}, &types.ImportFormatError{Reason: "version", Err: err}
	}

	imported := p.State()
	candidate := s.container.State().Clone()
	candidate.Taxonomy = imported.Taxonomy
	candidate.Customizations = imported.Customizations
	candidate.Usage = imported.Usage
	_ = initCustomizations(&candidate)
	if p.UsageStats == nil {
		syncUsage(&candidate)
		candidate.Usage.LastUpdated = s.now()
	}

	if r := s.container.Validate(candidate); !r.OK() {
		return types.State{}, &types.ImportFormatError{
			Reason: "taxonomy violates invariants",
			Err:    &types.ValidationError{ValidatorID: r.Blocking.ID, Message: r.Blocking.Message},
		}
	}
	return candidate, nil
}

// ResetToDefault replaces the committed state with the compiled-in
// defaults, dropping every customization. The migration record is kept.
func (s *Store) ResetToDefault() error {
	if s.closed.Load() {
		return types.ErrStoreClosed
	}
	fresh := s.defaults()
	fresh.Migrations = s.container.State().Migrations.Clone()
	if err := s.container.SetState(fresh); err != nil {
		s.log.Warn("reset failed", zap.Error(err))
		return err
	}
	s.log.Info("taxonomy reset to defaults")
	return nil
}

// migratedNamespace seeds the deterministic IDs of migrated themes.
var migratedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("taxonomy:migrated-theme"))

// MigratedThemeID returns the ID MigrateExistingThemes assigns to name.
// Names differing only in case or surrounding space share an ID.
func MigratedThemeID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return "theme_" + uuid.NewSHA1(migratedNamespace, []byte(key)).String()
}

// MigrateExistingThemes brings free-form theme names under the taxonomy.
// Each name not yet present becomes a custom theme in the uncategorized
// vector, which is created when missing. It returns how many themes were
// added and records the run in the migration history.
func (s *Store) MigrateExistingThemes(names []string) (int, error) {
	added := 0
	now := s.now()
	_, err := s.mutate("migrate themes", func(st types.State) (types.State, error) {
		added = 0
		ensureUncategorized(&st)
		for _, raw := range names {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			id := MigratedThemeID(name)
			if st.Taxonomy.FindTheme(id) >= 0 {
				continue
			}
			st.Taxonomy.Themes = append(st.Taxonomy.Themes, types.Theme{
				ID:        id,
				Name:      name,
				VectorIDs: []string{},
			})
			attachTheme(&st.Taxonomy, id, UncategorizedVectorID)
			st.Customizations.CustomThemes = appendUnique(st.Customizations.CustomThemes, id)
			st.Customizations.DeletedThemes = removeString(st.Customizations.DeletedThemes, id)
			added++
		}
		st.Migrations.History = append(st.Migrations.History, types.MigrationEntry{
			Version:   st.Taxonomy.Version,
			Timestamp: now,
			Success:   true,
			Details:   fmt.Sprintf("migrated %d of %d theme names", added, len(names)),
		})
		return st, nil
	})
	if err != nil {
		s.recordMigrationFailure(now, err)
		return 0, err
	}
	s.log.Info("themes migrated", zap.Int("added", added), zap.Int("names", len(names)))
	return added, nil
}

func (s *Store) recordMigrationFailure(at time.Time, cause error) {
	_, err := s.mutate("record migration failure", func(st types.State) (types.State, error) {
		st.Migrations.History = append(st.Migrations.History, types.MigrationEntry{
			Version:   st.Taxonomy.Version,
			Timestamp: at,
			Success:   false,
			Details:   fmt.Sprintf("theme migration failed: %v", cause),
		})
		return st, nil
	})
	if err != nil {
		s.log.Error("failed to record migration failure", zap.Error(err), zap.NamedError("cause", cause))
	}
}
