package memory

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type LedgerRepository struct {
	db *DB
}

var _ ledger.Repository = (*LedgerRepository)(nil)

func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, number int64) (*ledger.Account, error) {
	var acc ledger.Account
	err := r.db.view(ctx, func(t *tables) error {
		a, ok := t.accounts[number]
		if !ok {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, number)
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// LockAccount is GetAccount; the store lock already serializes writers.
func (r *LedgerRepository) LockAccount(ctx context.Context, number int64) (*ledger.Account, error) {
	return r.GetAccount(ctx, number)
}

func (r *LedgerRepository) UpdateBalance(ctx context.Context, number int64, balance decimal.Decimal) error {
	return r.db.view(ctx, func(t *tables) error {
		a, ok := t.accounts[number]
		if !ok {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, number)
		}
		a.Balance = balance
		t.accounts[number] = a
		return nil
	})
}

func (r *LedgerRepository) AppendEntry(ctx context.Context, entry *ledger.Entry) error {
	return r.db.view(ctx, func(t *tables) error {
		for _, e := range t.entries {
			if e.TransactionID == entry.TransactionID {
				return fmt.Errorf("%w: transaction %s", apperrors.ErrAlreadyExists, entry.TransactionID)
			}
		}
		t.entries = append(t.entries, *entry)
		return nil
	})
}

func (r *LedgerRepository) ListEntries(ctx context.Context, account int64) ([]ledger.Entry, error) {
	entries := make([]ledger.Entry, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for i := len(t.entries) - 1; i >= 0; i-- {
			if e := t.entries[i]; e.Sender == account || e.Receiver == account {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}
