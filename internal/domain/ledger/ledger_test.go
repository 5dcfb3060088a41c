package ledger

import (
	"bank-backoffice/internal/pkg/apperrors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionID(t *testing.T) {
	at := time.UnixMilli(1709287200123)
	id := NewTransactionID(at)

	assert.Regexp(t, regexp.MustCompile(`^TXN1709287200123[0-9A-F]{6}$`), id)
	assert.NotEqual(t, id, NewTransactionID(at))
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0.01", true},
		{"100", true},
		{"1234.50", true},
		{"0", false},
		{"-5.00", false},
		{"0.001", false},
		{"10.999", false},
		{"9999999999999.99", true},
		{"10000000000000.00", false},
		{"1e20", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
		})
	}
}

func TestSignedAmountFor(t *testing.T) {
	amount := decimal.RequireFromString("25.00")

	deposit := Entry{Sender: 1, Receiver: 1, Amount: amount, Kind: EntryDeposit}
	withdrawal := Entry{Sender: 1, Receiver: 1, Amount: amount, Kind: EntryWithdrawal}
	repayment := Entry{Sender: 1, Receiver: 1, Amount: amount, Kind: EntryRepayment}
	transfer := Entry{Sender: 1, Receiver: 2, Amount: amount, Kind: EntryTransfer}

	assert.True(t, deposit.SignedAmountFor(1).Equal(amount))
	assert.True(t, withdrawal.SignedAmountFor(1).Equal(amount.Neg()))
	assert.True(t, repayment.SignedAmountFor(1).Equal(amount.Neg()))
	assert.True(t, transfer.SignedAmountFor(1).Equal(amount.Neg()))
	assert.True(t, transfer.SignedAmountFor(2).Equal(amount))
	assert.True(t, transfer.SignedAmountFor(3).IsZero())
}

func TestNewFloors(t *testing.T) {
	floors, err := NewFloors("")
	require.NoError(t, err)
	assert.True(t, floors.For(AccountTypeChecking).IsZero())

	floors, err = NewFloors("250.00")
	require.NoError(t, err)
	assert.Equal(t, "-250", floors.For(AccountTypeChecking).String())
	assert.True(t, floors.For(AccountTypeSavings).IsZero())

	_, err = NewFloors("-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = NewFloors("lots")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestEntryKind(t *testing.T) {
	assert.True(t, EntryWithdrawal.Debits())
	assert.True(t, EntryRepayment.Debits())
	assert.False(t, EntryDeposit.Debits())
	assert.False(t, EntryDisbursement.Debits())
	assert.False(t, EntryKind("bonus").Valid())
}
