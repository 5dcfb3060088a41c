// Package txn defines the unit-of-work boundary shared by the domain services.
package txn

import "context"

// Manager runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back on any error or panic.
// Calls made while a transaction is already carried by ctx join it instead of
// opening a new one, so services can compose without knowing who started the
// unit of work.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ManagerFunc adapts a plain function to Manager.
type ManagerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f ManagerFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
