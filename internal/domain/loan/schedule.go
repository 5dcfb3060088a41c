package loan

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// GenerateSchedule splits principal into months equal installments rounded
// down to the cent. The last installment absorbs the remainder so the sum is
// exactly principal. Due dates fall one calendar month apart starting one
// month after from, clamped to the last day of shorter months.
func GenerateSchedule(loanNumber int64, principal decimal.Decimal, months int, from time.Time) ([]Payment, error) {
	if err := ledger.ValidateAmount(principal); err != nil {
		return nil, err
	}
	if months <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTerm, months)
	}

	installment := Installment(principal, months)
	if !installment.IsPositive() {
		return nil, fmt.Errorf("%w: %s cannot be split into %d installments", ErrInvalidTerm, principal.StringFixed(2), months)
	}

	schedule := make([]Payment, months)
	allocated := decimal.Zero
	for i := 0; i < months; i++ {
		amount := installment
		if i == months-1 {
			amount = principal.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		schedule[i] = Payment{
			LoanNumber: loanNumber,
			Number:     i + 1,
			Amount:     amount,
			Status:     PaymentStatusPending,
			DueDate:    addMonths(from, i+1),
		}
	}
	return schedule, nil
}

// Installment is the regular installment amount for principal over months.
func Installment(principal decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	return principal.Div(decimal.NewFromInt(int64(months))).RoundFloor(2)
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Scheduler materializes a schedule at most once per loan.
type Scheduler struct {
	repo   Repository
	tx     txn.Manager
	now    func() time.Time
	logger *slog.Logger
}

func NewScheduler(repo Repository, tx txn.Manager, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		repo:   repo,
		tx:     tx,
		now:    time.Now,
		logger: logger.With(slog.String("component", "paymentScheduler")),
	}
}

func (s *Scheduler) Materialize(ctx context.Context, loanNumber int64, principal decimal.Decimal, months int) ([]Payment, error) {
	var schedule []Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockLoan(ctx, loanNumber); err != nil {
			return err
		}
		existing, err := s.repo.CountPayments(ctx, loanNumber)
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: loan %d has %d installments", ErrScheduleAlreadyExists, loanNumber, existing)
		}

		schedule, err = GenerateSchedule(loanNumber, principal, months, s.now())
		if err != nil {
			return err
		}
		return s.repo.InsertPayments(ctx, schedule)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Schedule not materialized", "loan_number", loanNumber, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Schedule materialized", "loan_number", loanNumber, "installments", len(schedule))
	return schedule, nil
}
