package ledger

import (
	"bank-backoffice/internal/pkg/apperrors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeChecking
}

type Account struct {
	Number     int64
	Balance    decimal.Decimal
	Type       AccountType
	BranchName string
	CreatedAt  time.Time
}

type EntryKind string

const (
	EntryDeposit      EntryKind = "deposit"
	EntryWithdrawal   EntryKind = "withdrawal"
	EntryTransfer     EntryKind = "transfer"
	EntryDisbursement EntryKind = "disbursement"
	EntryRepayment    EntryKind = "repayment"
)

// Debits reports whether a self entry of this kind takes money out of the account.
func (k EntryKind) Debits() bool {
	return k == EntryWithdrawal || k == EntryRepayment
}

func (k EntryKind) Valid() bool {
	switch k {
	case EntryDeposit, EntryWithdrawal, EntryTransfer, EntryDisbursement, EntryRepayment:
		return true
	}
	return false
}

// Entry is one immutable transaction_history row. Amount is always positive;
// the direction comes from Sender/Receiver, or from Kind when both are the
// same account.
type Entry struct {
	TransactionID string
	Sender        int64
	Receiver      int64
	Amount        decimal.Decimal
	Kind          EntryKind
	Timestamp     time.Time
}

func (e Entry) IsSelf() bool {
	return e.Sender == e.Receiver
}

// SignedAmountFor returns the balance movement this entry caused on account.
func (e Entry) SignedAmountFor(account int64) decimal.Decimal {
	switch {
	case e.IsSelf() && e.Sender == account:
		if e.Kind.Debits() {
			return e.Amount.Neg()
		}
		return e.Amount
	case e.Sender == account:
		return e.Amount.Neg()
	case e.Receiver == account:
		return e.Amount
	}
	return decimal.Zero
}

// Reconciliation compares the stored balance with the balance derived from
// the account's ledger entries.
type Reconciliation struct {
	AccountNumber  int64
	Balance        decimal.Decimal
	DerivedBalance decimal.Decimal
	EntryCount     int
}

func (r Reconciliation) Consistent() bool {
	return r.Balance.Equal(r.DerivedBalance)
}

var (
	ErrAccountNotFound   = apperrors.New("ACCOUNT_NOT_FOUND", "account not found", apperrors.ErrNotFound)
	ErrInsufficientFunds = apperrors.New("INSUFFICIENT_FUNDS", "insufficient funds", apperrors.ErrInsufficientFunds)
	ErrInvalidAmount     = apperrors.New("INVALID_AMOUNT", "amount must be positive, below the supported maximum and have at most two decimal places", apperrors.ErrInvalidAmount)
	ErrBalanceLimit      = apperrors.New("BALANCE_LIMIT_EXCEEDED", "the resulting balance exceeds the largest supported value", apperrors.ErrInvalidAmount)
	ErrSameAccount       = apperrors.New("SAME_ACCOUNT", "sender and receiver must be different accounts", apperrors.ErrInvalidArgument)
	ErrInvalidEntryKind  = apperrors.New("INVALID_ENTRY_KIND", "entry kind does not match the movement", apperrors.ErrInvalidArgument)
)

// Floors holds the lowest balance each account type may reach after a debit.
type Floors struct {
	Savings  decimal.Decimal
	Checking decimal.Decimal
}

func DefaultFloors() Floors {
	return Floors{Savings: decimal.Zero, Checking: decimal.Zero}
}

// NewFloors builds floors from a checking overdraft allowance such as "250.00".
// Savings accounts never go below zero.
func NewFloors(checkingOverdraft string) (Floors, error) {
	floors := DefaultFloors()
	if checkingOverdraft == "" {
		return floors, nil
	}
	overdraft, err := decimal.NewFromString(checkingOverdraft)
	if err != nil {
		return floors, fmt.Errorf("%w: checking overdraft %q: %w", apperrors.ErrInvalidArgument, checkingOverdraft, err)
	}
	if overdraft.IsNegative() {
		return floors, fmt.Errorf("%w: checking overdraft must not be negative", apperrors.ErrInvalidArgument)
	}
	floors.Checking = overdraft.Neg()
	return floors, nil
}

func (f Floors) For(t AccountType) decimal.Decimal {
	if t == AccountTypeChecking {
		return f.Checking
	}
	return f.Savings
}

// MaxAmount is the largest value a NUMERIC(15,2) money column holds. It
// bounds single amounts and resulting balances alike.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ValidateAmount rejects zero, negative, sub-cent and out-of-range amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, amount.String(), MaxAmount.String())
	}
	return nil
}

func checkBalanceCeiling(account int64, balance decimal.Decimal) error {
	if balance.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: account %d would hold %s", ErrBalanceLimit, account, balance.StringFixed(2))
	}
	return nil
}
