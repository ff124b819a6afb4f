// Package taxonomy implements the hierarchical theme store: a three-tier
// tree of clusters, vectors and themes held in a transactional container,
// validated on every commit, indexed for lookups, merged with the
// compiled-in defaults on load and persisted after a quiet period.
package taxonomy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/debounce"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/events"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/index"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/persist"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/txstate"
	"github.com/banisterious/obsidian-oneirometrics-sub006/internal/validate"
	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Persister persist.Persister
	Bus       *events.Bus
	Logger    *zap.Logger
	SaveDelay time.Duration
	CacheTTL  time.Duration
	// Rules are extra validators compiled from expressions.
	Rules []types.Rule
	// Defaults builds the compiled-in state. Tests substitute smaller sets.
	Defaults func() types.State
	Now      func() time.Time
}

// Store owns the taxonomy state.
type Store struct {
	container *txstate.Container[types.State]
	cache     *index.Cache
	saver     *debounce.Debouncer
	persister persist.Persister
	bus       *events.Bus
	log       *zap.Logger
	defaults  func() types.State
	now       func() time.Time
	token     txstate.Token

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	saveMu  sync.Mutex
	saveErr error
}

// New loads persisted state, merges it with the defaults and returns a
// ready store. A merged state that fails a required validator is an error;
// the persisted data is left untouched.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Persister == nil {
		opts.Persister = persist.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = types.DefaultSaveDelay
	}
	if opts.Defaults == nil {
		opts.Defaults = DefaultState
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rules, err := validate.CompileRules(opts.Rules)
	if err != nil {
		return nil, err
	}
	validators := append(validate.Taxonomy(), rules...)

	payload, err := opts.Persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	state, report := Merge(opts.Defaults(), payload, opts.Now())
	if r := txstate.Evaluate(validators, state); !r.OK() {
		return nil, fmt.Errorf("merged taxonomy rejected: %w", &types.ValidationError{
			ValidatorID: r.Blocking.ID,
			Message:     r.Blocking.Message,
		})
	}

	s := &Store{
		persister: opts.Persister,
		bus:       opts.Bus,
		log:       opts.Logger,
		defaults:  opts.Defaults,
		now:       opts.Now,
	}
	s.container = txstate.New(state,
		txstate.WithValidators(validators...),
		txstate.WithWarningHandler[types.State](s.warn),
	)
	s.cache = index.NewCache(func() types.Taxonomy { return s.container.State().Taxonomy }, opts.CacheTTL)
	s.saver = debounce.New(opts.SaveDelay, s.save)
	s.token = s.container.Subscribe(s.committed)

	s.log.Info("taxonomy loaded",
		zap.Bool("persisted", payload != nil),
		zap.Int("clusters", len(state.Taxonomy.Clusters)),
		zap.Int("themes", len(state.Taxonomy.Themes)),
		zap.Int("custom_themes", report.CustomThemes),
		zap.Strings("dropped", report.Dropped),
		zap.Strings("rehomed", report.Rehomed),
	)
	if report.Migration != nil {
		s.log.Info("taxonomy migrated",
			zap.String("version", report.Migration.Version),
			zap.Bool("success", report.Migration.Success),
			zap.String("details", report.Migration.Details),
		)
	}
	if payload == nil || report.Changed() {
		s.saver.Trigger()
	}
	return s, nil
}

// Close stops further mutations. A debounced write that is still pending
// is cancelled and performed synchronously instead. It does not close the
// persister.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.container.Unsubscribe(s.token)
		pending := s.saver.Pending()
		s.saver.Stop()
		if pending {
			s.closeErr = s.write(ctx)
		}
	})
	return s.closeErr
}

// Flush writes the state now if a debounced write is pending.
func (s *Store) Flush() error {
	if !s.saver.Flush() {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saveErr
}

// SavePending reports whether a debounced write is scheduled.
func (s *Store) SavePending() bool {
	return s.saver.Pending()
}

// committed runs synchronously after every commit.
func (s *Store) committed(st types.State) {
	s.cache.Invalidate()
	s.saver.Trigger()
	tax := st.Taxonomy.Clone()
	s.publish(events.Event{Name: events.TaxonomyChanged, Taxonomy: &tax})
}

func (s *Store) publish(e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.bus.Publish(context.Background(), e); err != nil {
		s.log.Warn("event handler failed", zap.String("event", e.Name), zap.Error(err))
	}
}

func (s *Store) warn(txID string, failures []txstate.Failure) {
	for _, f := range failures {
		s.log.Warn("advisory validator failed",
			zap.String("transaction", txID),
			zap.String("validator", f.ID),
			zap.String("message", f.Message),
		)
	}
}

// save is the debounced write.
func (s *Store) save() {
	err := s.write(context.Background())
	s.saveMu.Lock()
	s.saveErr = err
	s.saveMu.Unlock()
}

func (s *Store) write(ctx context.Context) error {
	st := s.container.State()
	payload := types.NewPayload(st, st.Taxonomy.Version, s.now(), true)
	if err := s.persister.Save(ctx, payload); err != nil {
		s.log.Error("failed to save taxonomy", zap.Error(err))
		return fmt.Errorf("save taxonomy: %w", err)
	}
	s.log.Debug("taxonomy saved", zap.Int("themes", len(st.Taxonomy.Themes)))
	return nil
}

// mutate runs fn inside a transaction. On any failure the transaction is
// rolled back, the error is logged and the committed state is unchanged.
func (s *Store) mutate(op string, fn func(st types.State) (types.State, error)) (types.State, error) {
	if s.closed.Load() {
		return types.State{}, types.ErrStoreClosed
	}
	tx, err := s.container.Begin()
	if err != nil {
		s.log.Warn(op+" failed", zap.Error(err))
		return types.State{}, err
	}
	if err := s.container.Update(tx, fn); err != nil {
		s.container.Rollback(tx)
		s.log.Warn(op+" rolled back", zap.Error(err))
		return types.State{}, err
	}
	if _, err := s.container.Commit(tx); err != nil {
		s.log.Warn(op+" rejected", zap.Error(err))
		return types.State{}, err
	}
	return tx.Working(), nil
}

// Taxonomy returns a copy of the committed taxonomy.
func (s *Store) Taxonomy() types.Taxonomy {
	return s.container.State().Taxonomy.Clone()
}

// State returns a copy of the full committed state.
func (s *Store) State() types.State {
	return s.container.State().Clone()
}

// Migrations returns the migration record.
func (s *Store) Migrations() types.MigrationRecord {
	return s.container.State().Migrations.Clone()
}

// ClusterByID looks a cluster up through the index cache.
func (s *Store) ClusterByID(id string) (types.Cluster, bool) {
	return s.cache.Cluster(id)
}

// VectorByID looks a vector up through the index cache.
func (s *Store) VectorByID(id string) (types.Vector, bool) {
	return s.cache.Vector(id)
}

// ThemeByID looks a theme up through the index cache.
func (s *Store) ThemeByID(id string) (types.Theme, bool) {
	return s.cache.Theme(id)
}

// ThemesByVector returns the themes of a vector in list order.
func (s *Store) ThemesByVector(vectorID string) ([]types.Theme, bool) {
	return s.cache.ThemesByVector(vectorID)
}

// VectorsByCluster returns the vectors of a cluster in tree order.
func (s *Store) VectorsByCluster(clusterID string) ([]types.Vector, bool) {
	return s.cache.VectorsByCluster(clusterID)
}

// Themes returns every theme in tree order.
func (s *Store) Themes() []types.Theme {
	return s.cache.Themes()
}
