package memory

import (
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"context"
	"fmt"
	"sort"
)

type AccountRepository struct {
	db *DB
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, acc *ledger.Account) error {
	return r.db.view(ctx, func(t *tables) error {
		acc.Number = r.db.nextAccount
		r.db.nextAccount++
		acc.CreatedAt = r.db.now().UTC()
		t.accounts[acc.Number] = *acc
		return nil
	})
}

func (r *AccountRepository) LinkDepositor(ctx context.Context, customerID, accountNumber int64) error {
	return r.db.view(ctx, func(t *tables) error {
		if _, ok := t.customers[customerID]; !ok {
			return fmt.Errorf("%w: %d", directory.ErrCustomerNotFound, customerID)
		}
		if _, ok := t.accounts[accountNumber]; !ok {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountNumber)
		}
		t.depositors[accountNumber] = customerID
		return nil
	})
}

func (r *AccountRepository) LockOwner(ctx context.Context, accountNumber int64) (int64, error) {
	var owner int64
	err := r.db.view(ctx, func(t *tables) error {
		if _, ok := t.accounts[accountNumber]; !ok {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountNumber)
		}
		id, ok := t.depositors[accountNumber]
		if !ok {
			return fmt.Errorf("%w: %d has no depositor", ledger.ErrAccountNotFound, accountNumber)
		}
		owner = id
		return nil
	})
	return owner, err
}

func (r *AccountRepository) AccountsOf(ctx context.Context, customerID int64) ([]ledger.Account, error) {
	accounts := make([]ledger.Account, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for number, owner := range t.depositors {
			if owner == customerID {
				accounts = append(accounts, t.accounts[number])
			}
		}
		return nil
	})
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })
	return accounts, err
}

func (r *AccountRepository) DeleteDepositor(ctx context.Context, accountNumber int64) error {
	return r.db.view(ctx, func(t *tables) error {
		delete(t.depositors, accountNumber)
		return nil
	})
}

func (r *AccountRepository) DeleteEntries(ctx context.Context, accountNumber int64) error {
	return r.db.view(ctx, func(t *tables) error {
		kept := t.entries[:0:0]
		for _, e := range t.entries {
			if e.Sender != accountNumber && e.Receiver != accountNumber {
				kept = append(kept, e)
				continue
			}
			other := e.Sender
			if other == accountNumber {
				other = e.Receiver
			}
			if _, live := t.accounts[other]; live && other != accountNumber {
				kept = append(kept, e)
			}
		}
		t.entries = kept
		return nil
	})
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountNumber int64) error {
	return r.db.view(ctx, func(t *tables) error {
		if _, ok := t.accounts[accountNumber]; !ok {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountNumber)
		}
		delete(t.accounts, accountNumber)
		return nil
	})
}
