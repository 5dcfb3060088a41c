package postgres

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type LedgerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ ledger.Repository = (*LedgerRepository)(nil)

func NewLedgerRepository(db DBPool, logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger.With("component", "LedgerRepository")}
}

const selectAccountSQL = `
        SELECT a.account_number, a.balance, a.type, COALESCE(ab.branch_name, ''), a.created_at
        FROM account a
        LEFT JOIN account_branch ab ON ab.account_number = a.account_number
        WHERE a.account_number = $1`

func (r *LedgerRepository) GetAccount(ctx context.Context, number int64) (*ledger.Account, error) {
	return r.fetchAccount(ctx, "GetAccount", selectAccountSQL, number)
}

func (r *LedgerRepository) LockAccount(ctx context.Context, number int64) (*ledger.Account, error) {
	return r.fetchAccount(ctx, "LockAccount", selectAccountSQL+`
        FOR UPDATE OF a`, number)
}

func (r *LedgerRepository) fetchAccount(ctx context.Context, name, query string, number int64) (*ledger.Account, error) {
	start := time.Now()
	var (
		acc         ledger.Account
		accountType string
	)
	err := conn(ctx, r.db).QueryRow(ctx, query, number).Scan(
		&acc.Number, &acc.Balance, &accountType, &acc.BranchName, &acc.CreatedAt,
	)
	observe(name, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, number)
		}
		r.logger.ErrorContext(ctx, "Failed to read account", "operation", name, "account_number", number, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	acc.Type = ledger.AccountType(accountType)
	return &acc, nil
}

func (r *LedgerRepository) UpdateBalance(ctx context.Context, number int64, balance decimal.Decimal) error {
	start := time.Now()
	query := `UPDATE account SET balance = $1 WHERE account_number = $2`

	cmdTag, err := conn(ctx, r.db).Exec(ctx, query, balance, number)
	observe("UpdateBalance", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update balance", "account_number", number, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, number)
	}
	return nil
}

func (r *LedgerRepository) AppendEntry(ctx context.Context, entry *ledger.Entry) error {
	start := time.Now()
	query := `
        INSERT INTO transaction_history (transaction_id, sender, receiver, amount, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		entry.TransactionID, entry.Sender, entry.Receiver, entry.Amount, string(entry.Kind), entry.Timestamp,
	)
	observe("AppendEntry", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append ledger entry", "transaction_id", entry.TransactionID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, account int64) ([]ledger.Entry, error) {
	start := time.Now()
	query := `
        SELECT transaction_id, sender, receiver, amount, kind, created_at
        FROM transaction_history
        WHERE sender = $1 OR receiver = $1
        ORDER BY created_at DESC, transaction_id DESC`

	rows, err := conn(ctx, r.db).Query(ctx, query, account)
	if err != nil {
		observe("ListEntries", start, err)
		r.logger.ErrorContext(ctx, "Failed to query ledger entries", "account_number", account, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	entries := make([]ledger.Entry, 0)
	for rows.Next() {
		var (
			e    ledger.Entry
			kind string
		)
		if err := rows.Scan(&e.TransactionID, &e.Sender, &e.Receiver, &e.Amount, &kind, &e.Timestamp); err != nil {
			observe("ListEntries", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		e.Kind = ledger.EntryKind(kind)
		entries = append(entries, e)
	}
	err = rows.Err()
	observe("ListEntries", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return entries, nil
}
