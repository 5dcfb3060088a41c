package memory

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type LoanRepository struct {
	db *DB
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db *DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) error {
	return r.db.view(ctx, func(t *tables) error {
		if _, ok := t.customers[l.CustomerID]; !ok {
			return fmt.Errorf("%w: %d", directory.ErrCustomerNotFound, l.CustomerID)
		}
		l.Number = r.db.nextLoan
		r.db.nextLoan++
		l.CreatedAt = r.db.now().UTC()
		t.loans[l.Number] = *l
		return nil
	})
}

func (r *LoanRepository) GetLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error) {
	var found loan.Loan
	err := r.db.view(ctx, func(t *tables) error {
		l, ok := t.loans[loanNumber]
		if !ok {
			return fmt.Errorf("%w: %d", loan.ErrLoanNotFound, loanNumber)
		}
		found = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *LoanRepository) LockLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error) {
	return r.GetLoan(ctx, loanNumber)
}

func (r *LoanRepository) SaveDecision(ctx context.Context, l *loan.Loan) error {
	return r.db.view(ctx, func(t *tables) error {
		stored, ok := t.loans[l.Number]
		if !ok {
			return fmt.Errorf("%w: %d", loan.ErrLoanNotFound, l.Number)
		}
		stored.Status = l.Status
		stored.TermMonths = l.TermMonths
		stored.StartDate = l.StartDate
		t.loans[l.Number] = stored
		return nil
	})
}

func (r *LoanRepository) LoansOf(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	loans := make([]loan.Loan, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for _, l := range t.loans {
			if l.CustomerID == customerID {
				loans = append(loans, l)
			}
		}
		return nil
	})
	sort.Slice(loans, func(i, j int) bool { return loans[i].Number < loans[j].Number })
	return loans, err
}

func (r *LoanRepository) ApprovedLoanNumbers(ctx context.Context) ([]int64, error) {
	numbers := make([]int64, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for n, l := range t.loans {
			if l.Status == loan.StatusApproved {
				numbers = append(numbers, n)
			}
		}
		return nil
	})
	slices.Sort(numbers)
	return numbers, err
}

func (r *LoanRepository) DeleteLoan(ctx context.Context, loanNumber int64) error {
	return r.db.view(ctx, func(t *tables) error {
		if _, ok := t.loans[loanNumber]; !ok {
			return fmt.Errorf("%w: %d", loan.ErrLoanNotFound, loanNumber)
		}
		delete(t.payments, loanNumber)
		delete(t.loans, loanNumber)
		return nil
	})
}

func (r *LoanRepository) CountPayments(ctx context.Context, loanNumber int64) (int, error) {
	var n int
	err := r.db.view(ctx, func(t *tables) error {
		n = len(t.payments[loanNumber])
		return nil
	})
	return n, err
}

func (r *LoanRepository) InsertPayments(ctx context.Context, payments []loan.Payment) error {
	return r.db.view(ctx, func(t *tables) error {
		for _, p := range payments {
			for _, existing := range t.payments[p.LoanNumber] {
				if existing.Number == p.Number {
					return fmt.Errorf("%w: loan %d installment %d", apperrors.ErrAlreadyExists, p.LoanNumber, p.Number)
				}
			}
			t.payments[p.LoanNumber] = append(t.payments[p.LoanNumber], p)
		}
		return nil
	})
}

func (r *LoanRepository) ListPayments(ctx context.Context, loanNumber int64) ([]loan.Payment, error) {
	var payments []loan.Payment
	err := r.db.view(ctx, func(t *tables) error {
		payments = slices.Clone(t.payments[loanNumber])
		return nil
	})
	if payments == nil {
		payments = make([]loan.Payment, 0)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].Number < payments[j].Number })
	return payments, err
}

func (r *LoanRepository) LockPayment(ctx context.Context, loanNumber int64, paymentNumber int) (*loan.Payment, error) {
	var found loan.Payment
	err := r.db.view(ctx, func(t *tables) error {
		for _, p := range t.payments[loanNumber] {
			if p.Number == paymentNumber {
				found = p
				return nil
			}
		}
		return fmt.Errorf("%w: loan %d installment %d", loan.ErrPaymentNotFound, loanNumber, paymentNumber)
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *LoanRepository) MarkPaid(ctx context.Context, loanNumber int64, paymentNumber int, made decimal.Decimal, paidOn time.Time) error {
	return r.db.view(ctx, func(t *tables) error {
		for i, p := range t.payments[loanNumber] {
			if p.Number != paymentNumber {
				continue
			}
			if p.Status == loan.PaymentStatusPaid {
				return fmt.Errorf("%w: loan %d installment %d", loan.ErrAlreadyPaid, loanNumber, paymentNumber)
			}
			p.Status = loan.PaymentStatusPaid
			p.Made = &made
			p.PaidOn = &paidOn
			t.payments[loanNumber][i] = p
			return nil
		}
		return fmt.Errorf("%w: loan %d installment %d", loan.ErrPaymentNotFound, loanNumber, paymentNumber)
	})
}
