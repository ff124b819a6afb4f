// Package txstate provides a generic transactional state container.
//
// A Container holds one committed snapshot of a value type. Changes are made
// through a begin/update/commit/rollback protocol on a working copy; commit
// runs every registered validator against the candidate and only swaps the
// committed snapshot when all required validators pass. Subscribers are
// notified synchronously, in subscription order, after each commit.
package txstate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Cloner is implemented by state values that can produce a deep copy of
// themselves. The container clones before handing a value to an update
// function so in-place edits never reach the committed snapshot.
type Cloner[T any] interface {
	Clone() T
}

// Token identifies a subscription.
type Token int

type subscriber[T any] struct {
	token Token
	fn    func(T)
}

// Option configures a Container.
type Option[T Cloner[T]] func(*Container[T])

// WithValidators registers validators in evaluation order.
func WithValidators[T Cloner[T]](vs ...Validator[T]) Option[T] {
	return func(c *Container[T]) {
		c.validators = append(c.validators, vs...)
	}
}

// WithWarningHandler installs a callback for failed advisory validators.
func WithWarningHandler[T Cloner[T]](fn func(txID string, failures []Failure)) Option[T] {
	return func(c *Container[T]) {
		c.onWarning = fn
	}
}

// Container is a transactional holder for a single state value.
type Container[T Cloner[T]] struct {
	mu          sync.Mutex
	state       T
	validators  []Validator[T]
	subscribers []subscriber[T]
	nextToken   Token
	pending     *Transaction[T]
	onWarning   func(txID string, failures []Failure)
}

// New creates a container seeded with initial.
func New[T Cloner[T]](initial T, opts ...Option[T]) *Container[T] {
	c := &Container[T]{state: initial.Clone()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the committed snapshot. Callers must not mutate it.
func (c *Container[T]) State() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the committed snapshot without running validators and
// notifies subscribers. It fails with a ConflictError while a transaction
// is pending.
func (c *Container[T]) SetState(s T) error {
	c.mu.Lock()
	if c.pending != nil {
		id := c.pending.id
		c.mu.Unlock()
		return &types.ConflictError{PendingID: id}
	}
	c.state = s.Clone()
	committed := c.state
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, committed)
	return nil
}

// Begin opens a transaction whose working copy starts from the committed
// snapshot. Only one transaction may be pending at a time.
func (c *Container[T]) Begin() (*Transaction[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, &types.ConflictError{PendingID: c.pending.id}
	}
	tx := &Transaction[T]{
		id:      uuid.Must(uuid.NewV7()).String(),
		working: c.state.Clone(),
		status:  statusOpen,
	}
	c.pending = tx
	return tx, nil
}

// Update replaces the working copy with fn(working). fn receives a private
// clone; if it returns an error or panics the working copy is left as it
// was before the call.
func (c *Container[T]) Update(tx *Transaction[T], fn func(T) (T, error)) (err error) {
	if err := c.checkPending(tx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update transaction %s: panic: %v", tx.id, r)
		}
	}()

	next, err := fn(tx.working.Clone())
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.id, err)
	}
	tx.working = next
	return nil
}

// Commit validates the working copy and, when every required validator
// passes, makes it the committed snapshot and notifies subscribers. A
// failed required validator discards the transaction and returns a
// *types.ValidationError; the committed snapshot is left untouched.
func (c *Container[T]) Commit(tx *Transaction[T]) (Report, error) {
	if err := c.checkPending(tx); err != nil {
		return Report{}, err
	}

	report := Evaluate(c.validators, tx.working)

	c.mu.Lock()
	if c.pending != tx {
		c.mu.Unlock()
		return report, fmt.Errorf("transaction %s: %w", tx.id, types.ErrTransactionClosed)
	}
	c.pending = nil
	if report.Blocking != nil {
		tx.status = statusRolledBack
		c.mu.Unlock()
		return report, &types.ValidationError{
			ValidatorID: report.Blocking.ID,
			Message:     report.Blocking.Message,
		}
	}
	tx.status = statusCommitted
	c.state = tx.working
	committed := c.state
	subs := c.snapshotSubscribers()
	warn := c.onWarning
	c.mu.Unlock()

	if warn != nil && len(report.Warnings) > 0 {
		warn(tx.id, report.Warnings)
	}
	notify(subs, committed)
	return report, nil
}

// Rollback discards the working copy. Rolling back a transaction that is
// already closed is a no-op.
func (c *Container[T]) Rollback(tx *Transaction[T]) {
	if tx == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tx.status != statusOpen {
		return
	}
	tx.status = statusRolledBack
	if c.pending == tx {
		c.pending = nil
	}
}

// Validate runs every validator against candidate without touching the
// committed state.
func (c *Container[T]) Validate(candidate T) Report {
	c.mu.Lock()
	vs := c.validators
	c.mu.Unlock()
	return Evaluate(vs, candidate)
}

// Subscribe registers fn to be called with the new state after every
// successful commit.
func (c *Container[T]) Subscribe(fn func(T)) Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextToken++
	c.subscribers = append(c.subscribers, subscriber[T]{token: c.nextToken, fn: fn})
	return c.nextToken
}

// Unsubscribe removes the subscription identified by token.
func (c *Container[T]) Unsubscribe(token Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subscribers {
		if s.token == token {
			c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
			return
		}
	}
}

// Pending reports whether a transaction is open.
func (c *Container[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Container[T]) checkPending(tx *Transaction[T]) error {
	if tx == nil {
		return types.ErrUnknownTransaction
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tx.status != statusOpen {
		return fmt.Errorf("transaction %s: %w", tx.id, types.ErrTransactionClosed)
	}
	if c.pending != tx {
		return fmt.Errorf("transaction %s: %w", tx.id, types.ErrUnknownTransaction)
	}
	return nil
}

// snapshotSubscribers copies the subscriber list. Caller holds c.mu.
func (c *Container[T]) snapshotSubscribers() []subscriber[T] {
	out := make([]subscriber[T], len(c.subscribers))
	copy(out, c.subscribers)
	return out
}

func notify[T any](subs []subscriber[T], state T) {
	for _, s := range subs {
		s.fn(state)
	}
}
