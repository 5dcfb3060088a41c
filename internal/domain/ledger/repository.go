package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the persistence port of the ledger. LockAccount must take a
// row lock held until the surrounding transaction ends.
type Repository interface {
	GetAccount(ctx context.Context, number int64) (*Account, error)
	LockAccount(ctx context.Context, number int64) (*Account, error)
	UpdateBalance(ctx context.Context, number int64, balance decimal.Decimal) error
	AppendEntry(ctx context.Context, entry *Entry) error
	// ListEntries returns every entry touching account, newest first.
	ListEntries(ctx context.Context, account int64) ([]Entry, error)
}
