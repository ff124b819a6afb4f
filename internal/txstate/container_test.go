package txstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// counter is a small state type used to exercise the container.
type counter struct {
	N     int
	Items []string
}

func (c counter) Clone() counter {
	out := c
	out.Items = append([]string(nil), c.Items...)
	return out
}

func nonNegative() Validator[counter] {
	return Validator[counter]{
		ID:           "non-negative",
		Validate:     func(c counter) bool { return c.N >= 0 },
		ErrorMessage: "N must not be negative",
		Required:     true,
	}
}

func TestCommitAppliesWorkingCopy(t *testing.T) {
	c := New(counter{N: 1}, WithValidators(nonNegative()))

	tx, err := c.Begin()
	require.NoError(t, err)
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) {
		s.N++
		return s, nil
	}))
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) {
		s.N *= 10
		return s, nil
	}))

	assert.Equal(t, 1, c.State().N, "committed state must not change before commit")

	report, err := c.Commit(tx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 20, c.State().N)
	assert.False(t, c.Pending())
}

func TestBeginWhilePendingReturnsConflict(t *testing.T) {
	c := New(counter{})

	tx, err := c.Begin()
	require.NoError(t, err)

	_, err = c.Begin()
	var conflict *types.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, tx.ID(), conflict.PendingID)
	assert.True(t, errors.Is(err, types.ErrConflict))

	c.Rollback(tx)
	_, err = c.Begin()
	assert.NoError(t, err)
}

func TestCommitRejectedByRequiredValidator(t *testing.T) {
	c := New(counter{N: 3}, WithValidators(nonNegative()))

	tx, err := c.Begin()
	require.NoError(t, err)
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) {
		s.N = -1
		return s, nil
	}))

	_, err = c.Commit(tx)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "non-negative", verr.ValidatorID)
	assert.Equal(t, "N must not be negative", verr.Message)
	assert.Equal(t, 3, c.State().N)
	assert.False(t, c.Pending(), "failed commit discards the transaction")

	err = c.Update(tx, func(s counter) (counter, error) { return s, nil })
	assert.True(t, errors.Is(err, types.ErrTransactionClosed))
}

func TestAdvisoryValidatorWarnsButCommits(t *testing.T) {
	var warned []Failure
	advisory := Validator[counter]{
		ID:           "small",
		Validate:     func(c counter) bool { return c.N < 10 },
		ErrorMessage: "N is getting large",
	}
	c := New(counter{},
		WithValidators(nonNegative(), advisory),
		WithWarningHandler[counter](func(_ string, f []Failure) { warned = append(warned, f...) }),
	)

	tx, err := c.Begin()
	require.NoError(t, err)
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) {
		s.N = 50
		return s, nil
	}))
	report, err := c.Commit(tx)
	require.NoError(t, err)
	assert.Equal(t, 50, c.State().N)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "small", report.Warnings[0].ID)
	assert.Len(t, warned, 1)
}

func TestEvaluateRunsAdvisoryAfterBlockingFailure(t *testing.T) {
	calls := 0
	vs := []Validator[counter]{
		{ID: "a", Validate: func(counter) bool { return false }, Required: true},
		{ID: "b", Validate: func(counter) bool { calls++; return true }, Required: true},
		{ID: "c", Validate: func(counter) bool { return false }},
	}
	r := Evaluate(vs, counter{})
	require.NotNil(t, r.Blocking)
	assert.Equal(t, "a", r.Blocking.ID)
	assert.Equal(t, 0, calls, "required validators short-circuit")
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "c", r.Warnings[0].ID)
}

func TestUpdateErrorLeavesStateIdentical(t *testing.T) {
	c := New(counter{N: 7, Items: []string{"a", "b"}})
	before := c.State().Clone()

	tx, err := c.Begin()
	require.NoError(t, err)
	err = c.Update(tx, func(s counter) (counter, error) {
		s.Items[0] = "mutated"
		s.N = 99
		return s, errors.New("boom")
	})
	require.Error(t, err)
	c.Rollback(tx)

	assert.Equal(t, before, c.State())
	assert.Equal(t, []string{"a", "b"}, tx.Working().Items)
}

func TestUpdatePanicIsRecovered(t *testing.T) {
	c := New(counter{N: 1, Items: []string{"x"}})
	tx, err := c.Begin()
	require.NoError(t, err)

	err = c.Update(tx, func(s counter) (counter, error) {
		s.Items[0] = "half-written"
		panic("partway")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partway")

	c.Rollback(tx)
	assert.Equal(t, counter{N: 1, Items: []string{"x"}}, c.State())
}

func TestSubscribersNotifiedInOrder(t *testing.T) {
	c := New(counter{})
	var order []string
	c.Subscribe(func(s counter) { order = append(order, "first") })
	tok := c.Subscribe(func(s counter) { order = append(order, "second") })
	c.Subscribe(func(s counter) {
		order = append(order, "third")
		assert.Equal(t, 1, s.N)
		assert.Equal(t, 1, c.State().N, "subscribers may read the committed state")
	})

	tx, err := c.Begin()
	require.NoError(t, err)
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) { s.N = 1; return s, nil }))
	_, err = c.Commit(tx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)

	c.Unsubscribe(tok)
	order = nil
	require.NoError(t, c.SetState(counter{N: 1}))
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestRollbackDoesNotNotify(t *testing.T) {
	c := New(counter{})
	notified := false
	c.Subscribe(func(counter) { notified = true })

	tx, err := c.Begin()
	require.NoError(t, err)
	require.NoError(t, c.Update(tx, func(s counter) (counter, error) { s.N = 4; return s, nil }))
	c.Rollback(tx)
	c.Rollback(tx)

	assert.False(t, notified)
	assert.Equal(t, 0, c.State().N)
	_, err = c.Commit(tx)
	assert.True(t, errors.Is(err, types.ErrTransactionClosed))
}

func TestSetStateWhilePendingFails(t *testing.T) {
	c := New(counter{})
	_, err := c.Begin()
	require.NoError(t, err)
	err = c.SetState(counter{N: 2})
	assert.True(t, errors.Is(err, types.ErrConflict))
	assert.Equal(t, 0, c.State().N)
}
