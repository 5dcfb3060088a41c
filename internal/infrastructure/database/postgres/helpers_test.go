package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const pgxmockExpectationsNotMetMsg = "there were unfulfilled expectations"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupPool(t *testing.T) (context.Context, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to open a stub database connection")
	t.Cleanup(mockPool.Close)
	return context.Background(), mockPool
}

func setupTxManager(mockPool pgxmock.PgxPoolIface) *TxManager {
	return NewTxManager(mockPool, 0, testLogger)
}

var fixedTime = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
