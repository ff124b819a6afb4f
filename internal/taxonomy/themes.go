package taxonomy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/events"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// newID returns a fresh time-ordered identifier with the given prefix.
func newID(prefix string) string {
	return prefix + "_" + uuid.Must(uuid.NewV7()).String()
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.ErrInvalidName
	}
	return name, nil
}

// AddTheme creates a custom theme under vectorID and returns it. The
// vector must exist.
func (s *Store) AddTheme(name, vectorID, description string) (types.Theme, error) {
	name, err := cleanName(name)
	if err != nil {
		s.log.Warn("add theme failed", zap.Error(err))
		return types.Theme{}, err
	}
	th := types.Theme{
		ID:          newID("theme"),
		Name:        name,
		Description: strings.TrimSpace(description),
		VectorIDs:   []string{},
	}
	st, err := s.mutate("add theme", func(st types.State) (types.State, error) {
		if st.Taxonomy.FindVector(vectorID) == nil {
			return st, &types.NotFoundError{Kind: types.KindVector, ID: vectorID}
		}
		st.Taxonomy.Themes = append(st.Taxonomy.Themes, th)
		attachTheme(&st.Taxonomy, th.ID, vectorID)
		st.Customizations.CustomThemes = appendUnique(st.Customizations.CustomThemes, th.ID)
		return st, nil
	})
	if err != nil {
		return types.Theme{}, err
	}
	added := st.Taxonomy.Themes[st.Taxonomy.FindTheme(th.ID)].Clone()
	s.publish(events.Event{Name: events.ThemeAdded, Theme: &added, ThemeID: added.ID})
	return added, nil
}

// AddThemeToVector cross-lists an existing theme under another vector.
func (s *Store) AddThemeToVector(themeID, vectorID string) error {
	_, err := s.mutate("add theme to vector", func(st types.State) (types.State, error) {
		ti := st.Taxonomy.FindTheme(themeID)
		if ti < 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		if st.Taxonomy.FindVector(vectorID) == nil {
			return st, &types.NotFoundError{Kind: types.KindVector, ID: vectorID}
		}
		if st.Taxonomy.Themes[ti].HasVector(vectorID) {
			return st, fmt.Errorf("%w: %s in %s", types.ErrAlreadyMember, themeID, vectorID)
		}
		attachTheme(&st.Taxonomy, themeID, vectorID)
		recordReassignment(&st, themeID)
		return st, nil
	})
	return err
}

// MoveTheme removes the theme from every vector it belongs to and places
// it under targetVectorID. The theme must currently belong to at least one
// vector and the target must exist.
func (s *Store) MoveTheme(themeID, targetVectorID string) error {
	st, err := s.mutate("move theme", func(st types.State) (types.State, error) {
		ti := st.Taxonomy.FindTheme(themeID)
		if ti < 0 || len(st.Taxonomy.Themes[ti].VectorIDs) == 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		if st.Taxonomy.FindVector(targetVectorID) == nil {
			return st, &types.NotFoundError{Kind: types.KindVector, ID: targetVectorID}
		}
		detachTheme(&st.Taxonomy, themeID)
		attachTheme(&st.Taxonomy, themeID, targetVectorID)
		recordReassignment(&st, themeID)
		return st, nil
	})
	if err != nil {
		return err
	}
	moved := st.Taxonomy.Themes[st.Taxonomy.FindTheme(themeID)].Clone()
	s.publish(events.Event{
		Name:           events.ThemeMoved,
		Theme:          &moved,
		ThemeID:        themeID,
		TargetVectorID: targetVectorID,
	})
	return nil
}

// recordReassignment stores the theme's current memberships so the next
// merge keeps them.
func recordReassignment(st *types.State, themeID string) {
	ti := st.Taxonomy.FindTheme(themeID)
	if ti < 0 {
		return
	}
	if st.Customizations.ThemeReassignments == nil {
		st.Customizations.ThemeReassignments = map[string][]string{}
	}
	st.Customizations.ThemeReassignments[themeID] = append([]string(nil), st.Taxonomy.Themes[ti].VectorIDs...)
}

// DeleteTheme removes a user-created theme. Default themes cannot be
// deleted; use HideTheme for those.
func (s *Store) DeleteTheme(themeID string) error {
	_, err := s.mutate("delete theme", func(st types.State) (types.State, error) {
		if st.Taxonomy.FindTheme(themeID) < 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		if !st.Customizations.IsCustomTheme(themeID) {
			return st, fmt.Errorf("%w: %s", types.ErrDefaultEntity, themeID)
		}
		dropTheme(&st, themeID)
		return st, nil
	})
	if err != nil {
		return err
	}
	s.publish(events.Event{Name: events.ThemeDeleted, ThemeID: themeID})
	return nil
}

// HideTheme removes any theme, default or custom, and records it on the
// deleted list so a later merge does not bring it back.
func (s *Store) HideTheme(themeID string) error {
	_, err := s.mutate("hide theme", func(st types.State) (types.State, error) {
		if st.Taxonomy.FindTheme(themeID) < 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		dropTheme(&st, themeID)
		return st, nil
	})
	if err != nil {
		return err
	}
	s.publish(events.Event{Name: events.ThemeDeleted, ThemeID: themeID})
	return nil
}

func dropTheme(st *types.State, themeID string) {
	removeTheme(&st.Taxonomy, themeID)
	c := &st.Customizations
	c.CustomThemes = removeString(c.CustomThemes, themeID)
	c.DeletedThemes = appendUnique(c.DeletedThemes, themeID)
	delete(c.ThemeReassignments, themeID)
	delete(c.ThemeOverrides, themeID)
	delete(st.Usage.Counts, themeID)
}

// ThemeUpdate carries the editable fields of a theme. Nil fields are left
// as they are.
type ThemeUpdate struct {
	Name        *string
	Description *string
	Aliases     []string
}

// UpdateTheme edits a theme's name, description or aliases.
func (s *Store) UpdateTheme(themeID string, u ThemeUpdate) (types.Theme, error) {
	var name string
	if u.Name != nil {
		n, err := cleanName(*u.Name)
		if err != nil {
			s.log.Warn("update theme failed", zap.Error(err))
			return types.Theme{}, err
		}
		name = n
	}
	st, err := s.mutate("update theme", func(st types.State) (types.State, error) {
		ti := st.Taxonomy.FindTheme(themeID)
		if ti < 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		var o types.ThemeOverride
		if u.Name != nil {
			o.Name = &name
		}
		if u.Description != nil {
			d := strings.TrimSpace(*u.Description)
			o.Description = &d
		}
		if u.Aliases != nil {
			a := append([]string{}, u.Aliases...)
			o.Aliases = &a
		}
		o.Apply(&st.Taxonomy.Themes[ti])
		if !st.Customizations.IsCustomTheme(themeID) {
			recordOverride(&st.Customizations, themeID, o)
		}
		return st, nil
	})
	if err != nil {
		return types.Theme{}, err
	}
	return st.Taxonomy.Themes[st.Taxonomy.FindTheme(themeID)].Clone(), nil
}

// recordOverride folds o into the saved override of a built-in theme so the
// edit survives the next merge with the defaults.
func recordOverride(c *types.Customizations, themeID string, o types.ThemeOverride) {
	if c.ThemeOverrides == nil {
		c.ThemeOverrides = map[string]types.ThemeOverride{}
	}
	prev := c.ThemeOverrides[themeID]
	if o.Name != nil {
		prev.Name = o.Name
	}
	if o.Description != nil {
		prev.Description = o.Description
	}
	if o.Aliases != nil {
		prev.Aliases = o.Aliases
	}
	c.ThemeOverrides[themeID] = prev
}

// UpdateThemeUsage adds increment to the theme's usage counter, stamps its
// last use and mirrors the count into the usage statistics.
func (s *Store) UpdateThemeUsage(themeID string, increment int) error {
	now := s.now()
	_, err := s.mutate("update theme usage", func(st types.State) (types.State, error) {
		ti := st.Taxonomy.FindTheme(themeID)
		if ti < 0 {
			return st, &types.NotFoundError{Kind: types.KindTheme, ID: themeID}
		}
		th := &st.Taxonomy.Themes[ti]
		th.UsageCount += increment
		if th.UsageCount < 0 {
			th.UsageCount = 0
		}
		th.LastUsed = &now
		if st.Usage.Counts == nil {
			st.Usage.Counts = map[string]int{}
		}
		if th.UsageCount > 0 {
			st.Usage.Counts[themeID] = th.UsageCount
		} else {
			delete(st.Usage.Counts, themeID)
		}
		st.Usage.LastUpdated = now
		return st, nil
	})
	return err
}
