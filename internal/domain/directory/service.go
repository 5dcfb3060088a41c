package directory

import (
	"bank-backoffice/internal/pkg/txn"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Resolution is the outcome of resolving who services a customer.
type Resolution struct {
	CustomerID int64
	City       string
	BranchName string
	EmployeeID int64
	Existing   bool
}

// Service answers directory lookups and owns the banker assignment policy
// shared by account opening and loan applications.
type Service struct {
	repo     Repository
	selector Selector
	tx       txn.Manager
	logger   *slog.Logger
}

func NewService(repo Repository, selector Selector, tx txn.Manager, logger *slog.Logger) *Service {
	if repo == nil || selector == nil || tx == nil {
		panic("directory service dependencies cannot be nil")
	}
	return &Service{
		repo:     repo,
		selector: selector,
		tx:       tx,
		logger:   logger.With(slog.String("component", "directoryService")),
	}
}

func (s *Service) ResolveCity(ctx context.Context, customerID int64) (string, error) {
	p, err := s.repo.CustomerProfile(ctx, customerID)
	if err != nil {
		return "", err
	}
	return p.City, nil
}

func (s *Service) Profile(ctx context.Context, customerID int64) (*Profile, error) {
	return s.repo.CustomerProfile(ctx, customerID)
}

func (s *Service) ResolvePrimaryAccount(ctx context.Context, customerID int64) (int64, bool, error) {
	return s.repo.PrimaryAccount(ctx, customerID)
}

func (s *Service) BranchForCity(ctx context.Context, city string) (string, error) {
	return s.repo.BranchForCity(ctx, city)
}

func (s *Service) EmployeesInBranch(ctx context.Context, branch string) ([]int64, error) {
	return s.repo.EmployeesInBranch(ctx, branch)
}

// Resolve maps the customer's city to its branch and returns the banker for
// the given context. An existing assignment is reused; otherwise one of the
// branch's employees is picked by the selector and recorded.
func (s *Service) Resolve(ctx context.Context, customerID int64, c Context) (*Resolution, error) {
	var res *Resolution
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		profile, err := s.repo.CustomerProfile(ctx, customerID)
		if err != nil {
			return err
		}
		branch, err := s.repo.BranchForCity(ctx, profile.City)
		if err != nil {
			return err
		}
		res = &Resolution{CustomerID: customerID, City: profile.City, BranchName: branch}

		employeeID, found, err := s.repo.FindBanker(ctx, customerID, c)
		if err != nil {
			return err
		}
		if found {
			res.EmployeeID, res.Existing = employeeID, true
			return nil
		}

		candidates, err := s.repo.EmployeesInBranch(ctx, branch)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: branch %q", ErrNoBankerAvailable, branch)
		}

		assigned, err := s.repo.AssignBanker(ctx, Assignment{
			CustomerID: customerID,
			EmployeeID: s.selector.Pick(candidates),
			Context:    c,
		})
		if err != nil {
			return err
		}
		res.EmployeeID = assigned
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Banker resolution failed", "customer_id", customerID, "context", c, "error", err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "Banker resolved", "customer_id", customerID, "context", c, "branch", res.BranchName, "employee_id", res.EmployeeID, "existing", res.Existing)
	return res, nil
}

func (s *Service) BankersOf(ctx context.Context, customerID int64) ([]Assignment, error) {
	if _, err := s.repo.CustomerProfile(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.BankersOf(ctx, customerID)
}

// ReleaseAccountBankers drops the account-type assignments of a customer.
func (s *Service) ReleaseAccountBankers(ctx context.Context, customerID int64) error {
	return s.repo.RemoveBankers(ctx, customerID, AccountContexts...)
}

// ReleaseAll drops every assignment of a customer.
func (s *Service) ReleaseAll(ctx context.Context, customerID int64) error {
	return s.repo.RemoveBankers(ctx, customerID)
}

func (s *Service) BankerSummary(ctx context.Context, employeeID int64) (*BankerSummary, error) {
	return s.repo.BankerSummary(ctx, employeeID)
}

func (s *Service) CustomersOfBanker(ctx context.Context, employeeID int64) ([]Profile, error) {
	return s.repo.CustomersOfBanker(ctx, employeeID)
}

// LoansOfBanker is the employee's work queue. status narrows it to pending,
// approved or rejected loans.
func (s *Service) LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]BankerLoan, error) {
	switch status {
	case "", "pending", "approved", "rejected":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLoanStatus, status)
	}
	return s.repo.LoansOfBanker(ctx, employeeID, status)
}

func (s *Service) AccountsInBranch(ctx context.Context, branch string) ([]BranchAccount, error) {
	return s.repo.AccountsInBranch(ctx, branch)
}

// AuthenticateEmployee checks staff credentials. Unknown emails, staff without
// a password and wrong passwords all fail the same way.
func (s *Service) AuthenticateEmployee(ctx context.Context, email, password string) (*Employee, error) {
	e, err := s.repo.EmployeeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			s.logger.WarnContext(ctx, "Staff login for unknown email")
			return nil, ErrInvalidStaffLogin
		}
		return nil, err
	}
	if e.PasswordHash == "" {
		s.logger.WarnContext(ctx, "Staff login for employee without password", "employee_id", e.ID)
		return nil, ErrInvalidStaffLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Staff login with wrong password", "employee_id", e.ID)
		return nil, ErrInvalidStaffLogin
	}
	return e, nil
}
