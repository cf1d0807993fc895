package usecases

import "context"

// TxRunner runs a function within a database transaction. Satisfied by
// db.TransactionManager; tests substitute a passthrough.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
