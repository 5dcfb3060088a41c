package loan

import (
	"bank-backoffice/internal/domain/ledger"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateScheduleEvenSplit(t *testing.T) {
	from := time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(500001, decimal.RequireFromString("1200.00"), 12, from)

	require.NoError(t, err)
	require.Len(t, schedule, 12)
	for i, p := range schedule {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, int64(500001), p.LoanNumber)
		assert.Equal(t, "100.00", p.Amount.StringFixed(2))
		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.Nil(t, p.Made)
	}
	assert.Equal(t, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), schedule[11].DueDate)
}

func TestGenerateScheduleLastInstallmentTakesRemainder(t *testing.T) {
	principal := decimal.RequireFromString("1000.00")

	schedule, err := GenerateSchedule(1, principal, 3, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "333.33", schedule[0].Amount.StringFixed(2))
	assert.Equal(t, "333.33", schedule[1].Amount.StringFixed(2))
	assert.Equal(t, "333.34", schedule[2].Amount.StringFixed(2))

	sum := decimal.Zero
	for _, p := range schedule {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.Equal(principal))
}

func TestGenerateScheduleClampsToMonthEnd(t *testing.T) {
	from := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(1, decimal.RequireFromString("300.00"), 3, from)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
}

func TestGenerateScheduleRejections(t *testing.T) {
	now := time.Now()

	_, err := GenerateSchedule(1, decimal.RequireFromString("100.00"), 0, now)
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = GenerateSchedule(1, decimal.RequireFromString("100.00"), -3, now)
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = GenerateSchedule(1, decimal.RequireFromString("0.05"), 12, now)
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = GenerateSchedule(1, decimal.Zero, 12, now)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestInstallment(t *testing.T) {
	assert.Equal(t, "83.33", Installment(decimal.RequireFromString("1000"), 12).StringFixed(2))
	assert.True(t, Installment(decimal.RequireFromString("1000"), 0).IsZero())
}

func TestPaymentOverdue(t *testing.T) {
	due := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	pending := Payment{Status: PaymentStatusPending, DueDate: due}
	paid := Payment{Status: PaymentStatusPaid, DueDate: due}

	assert.False(t, pending.Overdue(due))
	assert.True(t, pending.Overdue(due.Add(time.Hour)))
	assert.False(t, paid.Overdue(due.AddDate(1, 0, 0)))
}
