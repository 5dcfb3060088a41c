package ledger

import (
	"bank-backoffice/internal/infrastructure/monitoring"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the only place account balances change. Every mutation updates the
// balance and appends its transaction_history row in one unit of work.
type Store struct {
	repo   Repository
	tx     txn.Manager
	floors Floors
	now    func() time.Time
	logger *slog.Logger
}

func NewStore(repo Repository, tx txn.Manager, floors Floors, logger *slog.Logger) *Store {
	if repo == nil || tx == nil {
		panic("ledger store dependencies cannot be nil")
	}
	return &Store{
		repo:   repo,
		tx:     tx,
		floors: floors,
		now:    time.Now,
		logger: logger.With(slog.String("component", "ledgerStore")),
	}
}

// NewTransactionID returns ids of the form TXN<unix millis><6 hex chars>.
func NewTransactionID(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "TXN" + strconv.FormatInt(t.UnixMilli(), 10) + suffix
}

// ApplyDelta moves delta into (positive) or out of (negative) account.
// When counterparty is the account itself a single self entry of the given
// kind is written; an empty kind is inferred from the sign. A foreign
// counterparty turns the call into a transfer so both balances move together.
func (s *Store) ApplyDelta(ctx context.Context, account int64, delta decimal.Decimal, counterparty int64, kind EntryKind) (*Entry, error) {
	if err := ValidateAmount(delta.Abs()); err != nil {
		return nil, err
	}

	if counterparty != account {
		if kind == "" {
			kind = EntryTransfer
		}
		if delta.IsNegative() {
			return s.move(ctx, account, counterparty, delta.Abs(), kind)
		}
		return s.move(ctx, counterparty, account, delta, kind)
	}

	if kind == "" {
		kind = EntryDeposit
		if delta.IsNegative() {
			kind = EntryWithdrawal
		}
	}
	if !kind.Valid() || kind == EntryTransfer || kind.Debits() != delta.IsNegative() {
		return nil, fmt.Errorf("%w: %s with delta %s", ErrInvalidEntryKind, kind, delta.String())
	}

	var entry *Entry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.repo.LockAccount(ctx, account)
		if err != nil {
			return err
		}

		newBalance := acc.Balance.Add(delta)
		if delta.IsNegative() && newBalance.LessThan(s.floors.For(acc.Type)) {
			return fmt.Errorf("%w: account %d balance %s, requested %s", ErrInsufficientFunds, account, acc.Balance.StringFixed(2), delta.Abs().StringFixed(2))
		}
		if err := checkBalanceCeiling(account, newBalance); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(ctx, account, newBalance); err != nil {
			return err
		}

		entry = &Entry{
			TransactionID: NewTransactionID(s.now()),
			Sender:        account,
			Receiver:      account,
			Amount:        delta.Abs(),
			Kind:          kind,
			Timestamp:     s.now().UTC(),
		}
		return s.repo.AppendEntry(ctx, entry)
	})
	monitoring.RecordLedgerMovement(string(kind), monitoring.Outcome(err))
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger movement rejected", "account_number", account, "delta", delta.String(), "kind", kind, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Ledger movement applied", "account_number", account, "delta", delta.String(), "kind", kind, "transaction_id", entry.TransactionID)
	return entry, nil
}

// Transfer debits sender and credits receiver atomically.
func (s *Store) Transfer(ctx context.Context, sender, receiver int64, amount decimal.Decimal) (*Entry, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	return s.move(ctx, sender, receiver, amount, EntryTransfer)
}

func (s *Store) move(ctx context.Context, sender, receiver int64, amount decimal.Decimal, kind EntryKind) (*Entry, error) {
	if sender == receiver {
		return nil, fmt.Errorf("%w: %d", ErrSameAccount, sender)
	}

	var entry *Entry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Lock in ascending order so two opposite transfers cannot deadlock.
		first, second := sender, receiver
		if second < first {
			first, second = second, first
		}
		locked := make(map[int64]*Account, 2)
		for _, number := range []int64{first, second} {
			acc, err := s.repo.LockAccount(ctx, number)
			if err != nil {
				return err
			}
			locked[number] = acc
		}

		from, to := locked[sender], locked[receiver]
		fromBalance := from.Balance.Sub(amount)
		if fromBalance.LessThan(s.floors.For(from.Type)) {
			return fmt.Errorf("%w: account %d balance %s, requested %s", ErrInsufficientFunds, sender, from.Balance.StringFixed(2), amount.StringFixed(2))
		}

		toBalance := to.Balance.Add(amount)
		if err := checkBalanceCeiling(receiver, toBalance); err != nil {
			return err
		}

		if err := s.repo.UpdateBalance(ctx, sender, fromBalance); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(ctx, receiver, toBalance); err != nil {
			return err
		}

		entry = &Entry{
			TransactionID: NewTransactionID(s.now()),
			Sender:        sender,
			Receiver:      receiver,
			Amount:        amount,
			Kind:          kind,
			Timestamp:     s.now().UTC(),
		}
		return s.repo.AppendEntry(ctx, entry)
	})
	monitoring.RecordLedgerMovement(string(kind), monitoring.Outcome(err))
	if err != nil {
		s.logger.WarnContext(ctx, "Transfer rejected", "sender", sender, "receiver", receiver, "amount", amount.String(), "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Transfer applied", "sender", sender, "receiver", receiver, "amount", amount.String(), "transaction_id", entry.TransactionID)
	return entry, nil
}

func (s *Store) Account(ctx context.Context, number int64) (*Account, error) {
	return s.repo.GetAccount(ctx, number)
}

func (s *Store) History(ctx context.Context, number int64) ([]Entry, error) {
	if _, err := s.repo.GetAccount(ctx, number); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, number)
}

// Reconcile re-derives the balance from the ledger. Accounts open at zero, so
// the derived balance is the signed sum of every entry touching the account.
func (s *Store) Reconcile(ctx context.Context, number int64) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.repo.LockAccount(ctx, number)
		if err != nil {
			return err
		}
		entries, err := s.repo.ListEntries(ctx, number)
		if err != nil {
			return err
		}

		derived := decimal.Zero
		for _, e := range entries {
			derived = derived.Add(e.SignedAmountFor(number))
		}
		rec = &Reconciliation{
			AccountNumber:  number,
			Balance:        acc.Balance,
			DerivedBalance: derived,
			EntryCount:     len(entries),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Consistent() {
		s.logger.ErrorContext(ctx, "Ledger does not match balance", "account_number", number, "balance", rec.Balance.String(), "derived", rec.DerivedBalance.String())
	}
	return rec, nil
}
