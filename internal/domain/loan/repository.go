package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// CreateLoan inserts the loan with its branch and borrower links, filling
	// in Number and CreatedAt.
	CreateLoan(ctx context.Context, l *Loan) error
	GetLoan(ctx context.Context, loanNumber int64) (*Loan, error)
	LockLoan(ctx context.Context, loanNumber int64) (*Loan, error)
	// SaveDecision persists status, term and the borrower start date.
	SaveDecision(ctx context.Context, l *Loan) error
	LoansOf(ctx context.Context, customerID int64) ([]Loan, error)
	ApprovedLoanNumbers(ctx context.Context) ([]int64, error)
	// DeleteLoan removes installments, borrower and branch links, then the loan.
	DeleteLoan(ctx context.Context, loanNumber int64) error

	CountPayments(ctx context.Context, loanNumber int64) (int, error)
	InsertPayments(ctx context.Context, payments []Payment) error
	ListPayments(ctx context.Context, loanNumber int64) ([]Payment, error)
	LockPayment(ctx context.Context, loanNumber int64, paymentNumber int) (*Payment, error)
	MarkPaid(ctx context.Context, loanNumber int64, paymentNumber int, made decimal.Decimal, paidOn time.Time) error
}
