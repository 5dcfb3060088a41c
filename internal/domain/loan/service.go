package loan

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/event"
	"bank-backoffice/internal/infrastructure/monitoring"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// delinquencyThreshold is the number of overdue installments that makes a
// loan delinquent.
const delinquencyThreshold = 2

type LoanService interface {
	Apply(ctx context.Context, customerID int64, amount decimal.Decimal, months int) (*Application, error)
	Decide(ctx context.Context, loanNumber int64, decision Decision, months int) (*Outcome, error)
	ApplyPayment(ctx context.Context, loanNumber int64, paymentNumber int, amountPaid decimal.Decimal) (*Receipt, error)

	GetLoan(ctx context.Context, loanNumber int64) (*Loan, error)
	GetSchedule(ctx context.Context, loanNumber int64) ([]Payment, error)
	ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error)
	CustomerPayments(ctx context.Context, customerID int64) ([]Payment, error)
	GetOutstanding(ctx context.Context, loanNumber int64) (decimal.Decimal, error)
	IsDelinquent(ctx context.Context, loanNumber int64) (bool, error)
	OverdueInstallments(ctx context.Context, loanNumber int64, asOf time.Time) ([]Payment, error)
	ApprovedLoanNumbers(ctx context.Context) ([]int64, error)
	RemoveCustomerLoans(ctx context.Context, customerID int64) (int, error)
}

// Directory is the part of the customer/branch directory the loan service needs.
type Directory interface {
	AccountResolver
	Profile(ctx context.Context, customerID int64) (*directory.Profile, error)
	Resolve(ctx context.Context, customerID int64, c directory.Context) (*directory.Resolution, error)
}

var _ LoanService = (*loanServiceImpl)(nil)

type loanServiceImpl struct {
	repo          Repository
	ledger        *ledger.Store
	scheduler     *Scheduler
	collector     *Collector
	directory     Directory
	notifier      event.Notifier
	tx            txn.Manager
	defaultMonths int
	now           func() time.Time
	logger        *slog.Logger
}

func NewLoanService(repo Repository, store *ledger.Store, dir Directory, notifier event.Notifier, tx txn.Manager, defaultMonths int, logger *slog.Logger) LoanService {
	if repo == nil || store == nil || dir == nil || notifier == nil || tx == nil {
		panic("loan service dependencies cannot be nil")
	}
	if defaultMonths <= 0 {
		defaultMonths = DefaultTermMonths
	}
	return &loanServiceImpl{
		repo:          repo,
		ledger:        store,
		scheduler:     NewScheduler(repo, tx, logger),
		collector:     NewCollector(repo, store, dir, tx, logger),
		directory:     dir,
		notifier:      notifier,
		tx:            tx,
		defaultMonths: defaultMonths,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) Apply(ctx context.Context, customerID int64, amount decimal.Decimal, months int) (*Application, error) {
	if months == 0 {
		months = s.defaultMonths
	}
	if _, err := GenerateSchedule(0, amount, months, s.now()); err != nil {
		return nil, err
	}

	var app *Application
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		res, err := s.directory.Resolve(ctx, customerID, directory.ContextLoan)
		if err != nil {
			return err
		}

		l := &Loan{
			Amount:     amount,
			Status:     StatusPending,
			TermMonths: months,
			CustomerID: customerID,
			BranchName: res.BranchName,
		}
		if err := s.repo.CreateLoan(ctx, l); err != nil {
			return err
		}

		app = &Application{
			LoanNumber: l.Number,
			CustomerID: customerID,
			Amount:     amount,
			TermMonths: months,
			BranchName: res.BranchName,
			EmployeeID: res.EmployeeID,
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Loan application failed", "customer_id", customerID, "amount", amount.String(), "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Loan application recorded", "loan_number", app.LoanNumber, "customer_id", customerID, "employee_id", app.EmployeeID)
	return app, nil
}

// Decide moves a pending loan to its terminal state. Approval materializes
// the schedule and credits the principal to the customer's primary account in
// the same unit of work. The customer is notified after commit.
func (s *loanServiceImpl) Decide(ctx context.Context, loanNumber int64, decision Decision, months int) (*Outcome, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidDecision, decision)
	}
	if months < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTerm, months)
	}

	var (
		outcome   *Outcome
		recipient string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.repo.LockLoan(ctx, loanNumber)
		if err != nil {
			return err
		}
		if l.Status != StatusPending {
			return fmt.Errorf("%w: loan %d is %s", ErrInvalidTransition, loanNumber, l.Status)
		}
		if months > 0 {
			l.TermMonths = months
		}
		if l.TermMonths <= 0 {
			l.TermMonths = s.defaultMonths
		}

		profile, err := s.directory.Profile(ctx, l.CustomerID)
		if err != nil {
			return err
		}
		recipient = profile.Email
		outcome = &Outcome{Loan: l}

		if decision == DecisionRejected {
			l.Status = StatusRejected
			return s.repo.SaveDecision(ctx, l)
		}

		account, found, err := s.directory.ResolvePrimaryAccount(ctx, l.CustomerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: customer %d", ErrNoAccountToCredit, l.CustomerID)
		}

		start := s.now().UTC()
		l.StartDate = &start
		l.Status = StatusApproved
		if err := s.repo.SaveDecision(ctx, l); err != nil {
			return err
		}

		schedule, err := s.scheduler.Materialize(ctx, l.Number, l.Amount, l.TermMonths)
		if err != nil {
			return err
		}
		entry, err := s.ledger.ApplyDelta(ctx, account, l.Amount, account, ledger.EntryDisbursement)
		if err != nil {
			return err
		}

		outcome.Schedule = schedule
		outcome.CreditedAccount = account
		outcome.Entry = entry
		return nil
	})
	monitoring.RecordLoanDecision(string(decision), monitoring.Outcome(err))
	if err != nil {
		s.logger.WarnContext(ctx, "Loan decision failed", "loan_number", loanNumber, "decision", decision, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Loan decided", "loan_number", loanNumber, "status", outcome.Loan.Status, "credited_account", outcome.CreditedAccount)
	s.notifyDecision(ctx, recipient, outcome.Loan)
	return outcome, nil
}

func (s *loanServiceImpl) notifyDecision(ctx context.Context, recipient string, l *Loan) {
	kind := event.KindLoanApproved
	if l.Status == StatusRejected {
		kind = event.KindLoanRejected
	}
	s.notifier.Notify(ctx, recipient, kind, event.LoanDecisionPayload{
		LoanNumber:     l.Number,
		Amount:         l.Amount.StringFixed(2),
		Months:         l.TermMonths,
		PerInstallment: Installment(l.Amount, l.TermMonths).StringFixed(2),
	})
}

func (s *loanServiceImpl) ApplyPayment(ctx context.Context, loanNumber int64, paymentNumber int, amountPaid decimal.Decimal) (*Receipt, error) {
	return s.collector.ApplyPayment(ctx, loanNumber, paymentNumber, amountPaid)
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanNumber int64) (*Loan, error) {
	return s.repo.GetLoan(ctx, loanNumber)
}

func (s *loanServiceImpl) GetSchedule(ctx context.Context, loanNumber int64) ([]Payment, error) {
	if _, err := s.repo.GetLoan(ctx, loanNumber); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, loanNumber)
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	if _, err := s.directory.Profile(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.LoansOf(ctx, customerID)
}

func (s *loanServiceImpl) CustomerPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	loans, err := s.ListCustomerLoans(ctx, customerID)
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0)
	for _, l := range loans {
		schedule, err := s.repo.ListPayments(ctx, l.Number)
		if err != nil {
			return nil, err
		}
		payments = append(payments, schedule...)
	}
	return payments, nil
}

// GetOutstanding is the sum of unpaid installments. Loans that were never
// approved owe nothing.
func (s *loanServiceImpl) GetOutstanding(ctx context.Context, loanNumber int64) (decimal.Decimal, error) {
	schedule, err := s.GetSchedule(ctx, loanNumber)
	if err != nil {
		return decimal.Zero, err
	}
	outstanding := decimal.Zero
	for _, p := range schedule {
		if p.Status == PaymentStatusPending {
			outstanding = outstanding.Add(p.Amount)
		}
	}
	return outstanding, nil
}

func (s *loanServiceImpl) IsDelinquent(ctx context.Context, loanNumber int64) (bool, error) {
	overdue, err := s.OverdueInstallments(ctx, loanNumber, s.now())
	if err != nil {
		return false, err
	}
	return len(overdue) >= delinquencyThreshold, nil
}

func (s *loanServiceImpl) OverdueInstallments(ctx context.Context, loanNumber int64, asOf time.Time) ([]Payment, error) {
	schedule, err := s.GetSchedule(ctx, loanNumber)
	if err != nil {
		return nil, err
	}
	overdue := make([]Payment, 0)
	for _, p := range schedule {
		if p.Overdue(asOf) {
			overdue = append(overdue, p)
		}
	}
	return overdue, nil
}

func (s *loanServiceImpl) ApprovedLoanNumbers(ctx context.Context) ([]int64, error) {
	return s.repo.ApprovedLoanNumbers(ctx)
}

// RemoveCustomerLoans deletes every loan of the customer, installments first.
func (s *loanServiceImpl) RemoveCustomerLoans(ctx context.Context, customerID int64) (int, error) {
	removed := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		loans, err := s.repo.LoansOf(ctx, customerID)
		if err != nil {
			return err
		}
		for _, l := range loans {
			if err := s.repo.DeleteLoan(ctx, l.Number); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
