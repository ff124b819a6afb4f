package txstate

type txStatus int

const (
	statusOpen txStatus = iota
	statusCommitted
	statusRolledBack
)

// Transaction is a handle to a working copy inside a Container.
type Transaction[T any] struct {
	id      string
	working T
	status  txStatus
}

// ID returns the transaction identifier (UUID v7).
func (tx *Transaction[T]) ID() string { return tx.id }

// Working returns the current working copy. Callers must not mutate it;
// use Container.Update instead.
func (tx *Transaction[T]) Working() T { return tx.working }
