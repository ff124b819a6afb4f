package taxonomy

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// AddCluster appends a custom cluster after the existing ones.
func (s *Store) AddCluster(name, description, color string) (types.Cluster, error) {
	name, err := cleanName(name)
	if err != nil {
		s.log.Warn("add cluster failed", zap.Error(err))
		return types.Cluster{}, err
	}
	id := newID("cluster")
	st, err := s.mutate("add cluster", func(st types.State) (types.State, error) {
		st.Taxonomy.Clusters = append(st.Taxonomy.Clusters, types.Cluster{
			ID:          id,
			Name:        name,
			Description: strings.TrimSpace(description),
			Color:       color,
			Position:    nextPosition(&st.Taxonomy),
			Vectors:     []types.Vector{},
		})
		st.Customizations.CustomClusters = appendUnique(st.Customizations.CustomClusters, id)
		return st, nil
	})
	if err != nil {
		return types.Cluster{}, err
	}
	return st.Taxonomy.Clusters[st.Taxonomy.FindCluster(id)].Clone(), nil
}

// AddVector appends a custom vector to an existing cluster.
func (s *Store) AddVector(clusterID, name, description, icon string) (types.Vector, error) {
	name, err := cleanName(name)
	if err != nil {
		s.log.Warn("add vector failed", zap.Error(err))
		return types.Vector{}, err
	}
	id := newID("vector")
	st, err := s.mutate("add vector", func(st types.State) (types.State, error) {
		ci := st.Taxonomy.FindCluster(clusterID)
		if ci < 0 {
			return st, &types.NotFoundError{Kind: types.KindCluster, ID: clusterID}
		}
		c := &st.Taxonomy.Clusters[ci]
		order := 0
		for _, v := range c.Vectors {
			if v.SortOrder >= order {
				order = v.SortOrder + 1
			}
		}
		c.Vectors = append(c.Vectors, types.Vector{
			ID:              id,
			Name:            name,
			Description:     strings.TrimSpace(description),
			Icon:            icon,
			ParentClusterID: clusterID,
			SortOrder:       order,
			ThemeIDs:        []string{},
		})
		st.Customizations.CustomVectors = appendUnique(st.Customizations.CustomVectors, id)
		return st, nil
	})
	if err != nil {
		return types.Vector{}, err
	}
	return *st.Taxonomy.FindVector(id), nil
}

// DeleteVector removes a user-created vector. Themes that belonged only to
// it are moved to the uncategorized vector.
func (s *Store) DeleteVector(vectorID string) error {
	_, err := s.mutate("delete vector", func(st types.State) (types.State, error) {
		v := st.Taxonomy.FindVector(vectorID)
		if v == nil {
			return st, &types.NotFoundError{Kind: types.KindVector, ID: vectorID}
		}
		if !st.Customizations.IsCustomVector(vectorID) {
			return st, fmt.Errorf("%w: %s", types.ErrDefaultEntity, vectorID)
		}
		members := append([]string(nil), v.ThemeIDs...)

		ci := vectorCluster(&st.Taxonomy, vectorID)
		c := &st.Taxonomy.Clusters[ci]
		for vi := range c.Vectors {
			if c.Vectors[vi].ID == vectorID {
				c.Vectors = append(c.Vectors[:vi], c.Vectors[vi+1:]...)
				break
			}
		}

		for _, tid := range members {
			ti := st.Taxonomy.FindTheme(tid)
			if ti < 0 {
				continue
			}
			th := &st.Taxonomy.Themes[ti]
			th.VectorIDs = removeString(th.VectorIDs, vectorID)
			if len(th.VectorIDs) > 0 {
				if _, moved := st.Customizations.ThemeReassignments[tid]; moved {
					recordReassignment(&st, tid)
				}
				continue
			}
			if vectorID == UncategorizedVectorID {
				return st, fmt.Errorf("%w: %s", types.ErrVectorInUse, vectorID)
			}
			ensureUncategorized(&st)
			attachTheme(&st.Taxonomy, tid, UncategorizedVectorID)
			recordReassignment(&st, tid)
		}

		cust := &st.Customizations
		cust.CustomVectors = removeString(cust.CustomVectors, vectorID)
		cust.DeletedVectors = appendUnique(cust.DeletedVectors, vectorID)
		return st, nil
	})
	return err
}
