package postgres

import (
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

type AccountRepository struct {
	db     DBPool
	tx     *TxManager
	logger *slog.Logger
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db DBPool, tx *TxManager, logger *slog.Logger) *AccountRepository {
	return &AccountRepository{db: db, tx: tx, logger: logger.With("component", "AccountRepository")}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, acc *ledger.Account) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		start := time.Now()
		q := conn(ctx, r.db)

		err := q.QueryRow(ctx, `
        INSERT INTO account (balance, type, created_at)
        VALUES ($1, $2, NOW())
        RETURNING account_number, created_at`,
			acc.Balance, string(acc.Type),
		).Scan(&acc.Number, &acc.CreatedAt)
		observe("CreateAccount", start, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert account", "error", err)
			return translateDBError(err, r.logger)
		}

		_, err = q.Exec(ctx, `INSERT INTO account_branch (account_number, branch_name) VALUES ($1, $2)`, acc.Number, acc.BranchName)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to link account to branch", "account_number", acc.Number, "error", err)
			return translateDBError(err, r.logger)
		}
		r.logger.InfoContext(ctx, "Account created in DB", "account_number", acc.Number, "branch", acc.BranchName)
		return nil
	})
}

func (r *AccountRepository) LinkDepositor(ctx context.Context, customerID, accountNumber int64) error {
	start := time.Now()
	_, err := conn(ctx, r.db).Exec(ctx,
		`INSERT INTO depositor (customer_id, account_number) VALUES ($1, $2)`, customerID, accountNumber)
	observe("LinkDepositor", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to link depositor", "customer_id", customerID, "account_number", accountNumber, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *AccountRepository) LockOwner(ctx context.Context, accountNumber int64) (int64, error) {
	start := time.Now()
	query := `
        SELECT d.customer_id
        FROM account a
        JOIN depositor d ON d.account_number = a.account_number
        WHERE a.account_number = $1
        FOR UPDATE OF a`

	var owner int64
	err := conn(ctx, r.db).QueryRow(ctx, query, accountNumber).Scan(&owner)
	observe("LockOwner", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountNumber)
		}
		return 0, translateDBError(err, r.logger)
	}
	return owner, nil
}

func (r *AccountRepository) AccountsOf(ctx context.Context, customerID int64) ([]ledger.Account, error) {
	start := time.Now()
	query := `
        SELECT a.account_number, a.balance, a.type, COALESCE(ab.branch_name, ''), a.created_at
        FROM depositor d
        JOIN account a ON a.account_number = d.account_number
        LEFT JOIN account_branch ab ON ab.account_number = a.account_number
        WHERE d.customer_id = $1
        ORDER BY a.account_number ASC`

	rows, err := conn(ctx, r.db).Query(ctx, query, customerID)
	if err != nil {
		observe("AccountsOf", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customer accounts", "customer_id", customerID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	accounts := make([]ledger.Account, 0)
	for rows.Next() {
		var (
			acc         ledger.Account
			accountType string
		)
		if err := rows.Scan(&acc.Number, &acc.Balance, &accountType, &acc.BranchName, &acc.CreatedAt); err != nil {
			observe("AccountsOf", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		acc.Type = ledger.AccountType(accountType)
		accounts = append(accounts, acc)
	}
	err = rows.Err()
	observe("AccountsOf", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return accounts, nil
}

func (r *AccountRepository) DeleteDepositor(ctx context.Context, accountNumber int64) error {
	return r.exec(ctx, "DeleteDepositor", `DELETE FROM depositor WHERE account_number = $1`, accountNumber)
}

func (r *AccountRepository) DeleteEntries(ctx context.Context, accountNumber int64) error {
	query := `
        DELETE FROM transaction_history th
        WHERE (th.sender = $1 OR th.receiver = $1)
          AND NOT EXISTS (
              SELECT 1 FROM account a
              WHERE a.account_number <> $1
                AND a.account_number = CASE WHEN th.sender = $1 THEN th.receiver ELSE th.sender END
          )`
	return r.exec(ctx, "DeleteEntries", query, accountNumber)
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountNumber int64) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.exec(ctx, "DeleteAccountBranch", `DELETE FROM account_branch WHERE account_number = $1`, accountNumber); err != nil {
			return err
		}

		start := time.Now()
		cmdTag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM account WHERE account_number = $1`, accountNumber)
		observe("DeleteAccount", start, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to delete account", "account_number", accountNumber, "error", err)
			return translateDBError(err, r.logger)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ledger.ErrAccountNotFound, accountNumber)
		}
		return nil
	})
}

func (r *AccountRepository) exec(ctx context.Context, name, query string, args ...any) error {
	start := time.Now()
	_, err := conn(ctx, r.db).Exec(ctx, query, args...)
	observe(name, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Statement failed", "operation", name, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}
