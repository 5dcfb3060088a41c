package batch

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/event"
	"bank-backoffice/internal/infrastructure/monitoring"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// LoanReader is the part of the loan service the scan reads from.
type LoanReader interface {
	ApprovedLoanNumbers(ctx context.Context) ([]int64, error)
	GetLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error)
	OverdueInstallments(ctx context.Context, loanNumber int64, asOf time.Time) ([]loan.Payment, error)
}

type ProfileReader interface {
	Profile(ctx context.Context, customerID int64) (*directory.Profile, error)
}

// ScanResult summarises one run of the overdue scan.
type ScanResult struct {
	LoansScanned int
	LoansOverdue int
	Errors       int
}

// OverdueScanJob walks every approved loan and notifies the borrower of
// installments past their due date.
type OverdueScanJob struct {
	loans    LoanReader
	profiles ProfileReader
	notifier event.Notifier
	workers  int
	now      func() time.Time
	logger   *slog.Logger
}

func NewOverdueScanJob(loans LoanReader, profiles ProfileReader, notifier event.Notifier, workers int, logger *slog.Logger) *OverdueScanJob {
	if loans == nil || profiles == nil || notifier == nil || logger == nil {
		panic("OverdueScanJob dependencies cannot be nil")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &OverdueScanJob{
		loans:    loans,
		profiles: profiles,
		notifier: notifier,
		workers:  workers,
		now:      time.Now,
		logger:   logger.With("job", "OverdueScan"),
	}
}

func (j *OverdueScanJob) Run(ctx context.Context) (*ScanResult, error) {
	startTime := time.Now()
	asOf := j.now()
	j.logger.InfoContext(ctx, "Starting overdue installment scan.", slog.Time("as_of", asOf))

	loanNumbers, err := j.loans.ApprovedLoanNumbers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list approved loans, aborting job.", slog.Any("error", err))
		return nil, fmt.Errorf("cannot run job, failed to list approved loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched approved loans.", slog.Int("count", len(loanNumbers)))

	var scanned, overdue, errorCount atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, number := range loanNumbers {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			found, err := j.scanLoan(gctx, number, asOf)
			if err != nil {
				errorCount.Add(1)
				return nil
			}
			scanned.Add(1)
			if found {
				overdue.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{
		LoansScanned: int(scanned.Load()),
		LoansOverdue: int(overdue.Load()),
		Errors:       int(errorCount.Load()),
	}
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_approved_loans", len(loanNumbers)),
		slog.Int("loans_scanned", result.LoansScanned),
		slog.Int("loans_overdue", result.LoansOverdue),
		slog.Int("errors_encountered", result.Errors),
	)
	if result.Errors > 0 {
		summaryLog.WarnContext(ctx, "Overdue installment scan finished with errors.")
		return result, fmt.Errorf("job completed with %d errors", result.Errors)
	}
	summaryLog.InfoContext(ctx, "Overdue installment scan finished successfully.")
	return result, nil
}

func (j *OverdueScanJob) scanLoan(ctx context.Context, loanNumber int64, asOf time.Time) (bool, error) {
	logCtx := j.logger.With(slog.Int64("loanNumber", loanNumber))

	installments, err := j.loans.OverdueInstallments(ctx, loanNumber, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan disappeared during scan.", slog.Any("error", err))
			return false, nil
		}
		logCtx.ErrorContext(ctx, "Failed to read overdue installments", slog.Any("error", err))
		return false, err
	}
	if len(installments) == 0 {
		return false, nil
	}

	l, err := j.loans.GetLoan(ctx, loanNumber)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load overdue loan", slog.Any("error", err))
		return false, err
	}
	profile, err := j.profiles.Profile(ctx, l.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load borrower profile", slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return false, err
	}

	j.notifier.Notify(ctx, profile.Email, event.KindPaymentOverdue, overduePayload(loanNumber, installments))
	monitoring.RecordOverdueLoan()
	logCtx.InfoContext(ctx, "Borrower notified of overdue installments.", slog.Int("overdue", len(installments)))
	return true, nil
}

func overduePayload(loanNumber int64, installments []loan.Payment) event.PaymentOverduePayload {
	numbers := make([]int, 0, len(installments))
	due := decimal.Zero
	oldest := installments[0].DueDate
	for _, p := range installments {
		numbers = append(numbers, p.Number)
		due = due.Add(p.Amount)
		if p.DueDate.Before(oldest) {
			oldest = p.DueDate
		}
	}
	return event.PaymentOverduePayload{
		LoanNumber:     loanNumber,
		PaymentNumbers: numbers,
		AmountDue:      due.StringFixed(2),
		OldestDueDate:  oldest.Format(time.DateOnly),
	}
}
