package loan

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultTermMonths = 12

type LoanStatus string

const (
	StatusPending  LoanStatus = "pending"
	StatusApproved LoanStatus = "approved"
	StatusRejected LoanStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type Loan struct {
	Number     int64
	Amount     decimal.Decimal
	Status     LoanStatus
	TermMonths int
	CustomerID int64
	BranchName string
	StartDate  *time.Time
	CreatedAt  time.Time
}

// Payment is one EMI installment of an approved loan.
type Payment struct {
	LoanNumber int64
	Number     int
	Amount     decimal.Decimal
	Status     PaymentStatus
	Made       *decimal.Decimal
	PaidOn     *time.Time
	DueDate    time.Time
}

func (p Payment) Overdue(asOf time.Time) bool {
	return p.Status == PaymentStatusPending && p.DueDate.Before(asOf)
}

// Application is returned by Apply.
type Application struct {
	LoanNumber int64
	CustomerID int64
	Amount     decimal.Decimal
	TermMonths int
	BranchName string
	EmployeeID int64
}

// Outcome is returned by Decide.
type Outcome struct {
	Loan            *Loan
	Schedule        []Payment
	CreditedAccount int64
	Entry           *ledger.Entry
}

// Receipt is returned by ApplyPayment.
type Receipt struct {
	Payment       Payment
	AccountNumber int64
	Entry         *ledger.Entry
}

var (
	ErrLoanNotFound          = apperrors.New("LOAN_NOT_FOUND", "loan not found", apperrors.ErrNotFound)
	ErrPaymentNotFound       = apperrors.New("PAYMENT_NOT_FOUND", "installment not found", apperrors.ErrNotFound)
	ErrInvalidTransition     = apperrors.New("INVALID_TRANSITION", "loan has already been decided", apperrors.ErrInvalidTransition)
	ErrAlreadyPaid           = apperrors.New("ALREADY_PAID", "installment has already been paid", apperrors.ErrInvalidTransition)
	ErrScheduleAlreadyExists = apperrors.New("SCHEDULE_ALREADY_EXISTS", "payment schedule already exists for this loan", apperrors.ErrAlreadyExists)
	ErrNoAccountToCredit     = apperrors.New("NO_ACCOUNT_TO_CREDIT", "customer has no account to credit the principal to", apperrors.ErrValidation)
	ErrNoAccountToDebit      = apperrors.New("NO_ACCOUNT_TO_DEBIT", "customer has no account to debit the installment from", apperrors.ErrValidation)
	ErrInvalidTerm           = apperrors.New("INVALID_TERM", "term must be a positive number of months no larger than the principal in cents", apperrors.ErrValidation)
	ErrInvalidDecision       = apperrors.New("INVALID_DECISION", "decision must be approved or rejected", apperrors.ErrValidation)
	ErrPaymentAmountMismatch = apperrors.New("PAYMENT_AMOUNT_MISMATCH", "amount paid must equal the installment amount", apperrors.ErrInvalidAmount)
)
