package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager wraps a function in a single database transaction.
// Every sibling-group renumbering runs through this, so a failed step rolls
// the whole group back to its pre-request state.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
