package postgres

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{"account_number", "balance", "type", "branch_name", "created_at"}

func TestLedgerGetAccountWhenSuccess(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM account a`)).
		WithArgs(int64(100001)).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow(int64(100001), decimalFromString(t, "250.50"), "checking", "Downtown", fixedTime))

	acc, err := repo.GetAccount(ctx, 100001)

	require.NoError(t, err)
	assert.Equal(t, int64(100001), acc.Number)
	assert.Equal(t, "250.5", acc.Balance.String())
	assert.Equal(t, ledger.AccountTypeChecking, acc.Type)
	assert.Equal(t, "Downtown", acc.BranchName)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerLockAccountWhenMissing(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE OF a`)).
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows(accountColumns))

	_, err := repo.LockAccount(ctx, 999)

	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerLockAccountWhenLockTimesOut(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE OF a`)).
		WithArgs(int64(100001)).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

	_, err := repo.LockAccount(ctx, 100001)

	assert.ErrorIs(t, err, apperrors.ErrContention)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerUpdateBalanceWhenNoRows(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)
	balance := decimalFromString(t, "10.00")

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE account SET balance = $1 WHERE account_number = $2`)).
		WithArgs(balance, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateBalance(ctx, 42, balance)

	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerAppendEntry(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)
	entry := &ledger.Entry{
		TransactionID: "TXN1709287200000ABC123",
		Sender:        100001,
		Receiver:      100002,
		Amount:        decimalFromString(t, "75.00"),
		Kind:          ledger.EntryTransfer,
		Timestamp:     fixedTime,
	}

	t.Run("inserts the row", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_history`)).
			WithArgs(entry.TransactionID, entry.Sender, entry.Receiver, entry.Amount, "transfer", entry.Timestamp).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.AppendEntry(ctx, entry))
	})

	t.Run("duplicate transaction id", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_history`)).
			WithArgs(entry.TransactionID, entry.Sender, entry.Receiver, entry.Amount, "transfer", entry.Timestamp).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transaction_history_pkey"})

		err := repo.AppendEntry(ctx, entry)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerListEntries(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)

	mockPool.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, transaction_id DESC`)).
		WithArgs(int64(100001)).
		WillReturnRows(pgxmock.NewRows([]string{"transaction_id", "sender", "receiver", "amount", "kind", "created_at"}).
			AddRow("TXN1", int64(100001), int64(100001), decimalFromString(t, "100.00"), "deposit", fixedTime).
			AddRow("TXN2", int64(100001), int64(100002), decimalFromString(t, "40.00"), "transfer", fixedTime))

	entries, err := repo.ListEntries(ctx, 100001)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EntryDeposit, entries[0].Kind)
	assert.True(t, entries[0].IsSelf())
	assert.Equal(t, ledger.EntryTransfer, entries[1].Kind)
	assert.Equal(t, int64(100002), entries[1].Receiver)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLedgerListEntriesQueryError(t *testing.T) {
	ctx, mockPool := setupPool(t)
	repo := NewLedgerRepository(mockPool, testLogger)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM transaction_history`)).
		WithArgs(int64(100001)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListEntries(ctx, 100001)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
