package customer

import (
	"bank-backoffice/internal/pkg/apperrors"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
	minPasswordLength     = 8
)

type CustomerService interface {
	Register(ctx context.Context, in Registration) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	UpdateProfile(ctx context.Context, customerID int64, update ProfileUpdate) (*Customer, error)
	Authenticate(ctx context.Context, email, password string) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) (*DeletionSummary, error)
}

type Registration struct {
	Name     string
	Address  string
	City     string
	Email    string
	Password string
}

// AccountCloser closes all accounts of a customer.
type AccountCloser interface {
	CloseCustomerAccounts(ctx context.Context, customerID int64) (int, error)
}

// LoanRemover removes all loans of a customer.
type LoanRemover interface {
	RemoveCustomerLoans(ctx context.Context, customerID int64) (int, error)
}

// BankerReleaser drops the banker assignments of a customer.
type BankerReleaser interface {
	ReleaseAll(ctx context.Context, customerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo     CustomerRepository
	accounts AccountCloser
	loans    LoanRemover
	bankers  BankerReleaser
	tx       txn.Manager
	hashCost int
	logger   *slog.Logger
}

func NewCustomerService(repo CustomerRepository, accounts AccountCloser, loans LoanRemover, bankers BankerReleaser, tx txn.Manager, logger *slog.Logger) CustomerService {
	if repo == nil || accounts == nil || loans == nil || bankers == nil || tx == nil {
		panic("customer service dependencies cannot be nil")
	}
	return &customerService{
		repo:     repo,
		accounts: accounts,
		loans:    loans,
		bankers:  bankers,
		tx:       tx,
		hashCost: bcrypt.DefaultCost,
		logger:   logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) Register(ctx context.Context, in Registration) (*Customer, error) {
	cust := NewCustomer(in.Name, in.Address, in.City, in.Email)
	if err := cust.Validate(); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	s.logger.DebugContext(ctx, inputValidationPassed, "email", cust.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %w", apperrors.ErrInternalServer, err)
	}
	cust.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, cust.Email)
		}
		s.logger.ErrorContext(ctx, "Failed to create customer", "email", cust.Email, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Customer registered", "customer_id", cust.CustomerID)
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, "customer_id", customerID)
		}
		return nil, err
	}
	return cust, nil
}

func (s *customerService) UpdateProfile(ctx context.Context, customerID int64, update ProfileUpdate) (*Customer, error) {
	var cust *Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cust, err = s.repo.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if !cust.ApplyProfile(update) {
			return nil
		}
		if err := cust.Validate(); err != nil {
			return err
		}
		return s.repo.UpdateProfile(ctx, cust)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Customer profile updated", "customer_id", customerID)
	return cust, nil
}

func (s *customerService) Authenticate(ctx context.Context, email, password string) (*Customer, error) {
	cust, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cust.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Authentication failed", "customer_id", cust.CustomerID)
		return nil, ErrInvalidCredentials
	}
	return cust, nil
}

// DeleteCustomer removes the customer after everything it owns: accounts,
// loans, banker assignments. All of it commits as one unit.
func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) (*DeletionSummary, error) {
	summary := &DeletionSummary{CustomerID: customerID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, customerID); err != nil {
			return err
		}

		closed, err := s.accounts.CloseCustomerAccounts(ctx, customerID)
		if err != nil {
			return err
		}
		removed, err := s.loans.RemoveCustomerLoans(ctx, customerID)
		if err != nil {
			return err
		}
		if err := s.bankers.ReleaseAll(ctx, customerID); err != nil {
			return err
		}
		summary.AccountsClosed, summary.LoansRemoved = closed, removed
		return s.repo.Delete(ctx, customerID)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete customer", "customer_id", customerID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Customer deleted", "customer_id", customerID, "accounts_closed", summary.AccountsClosed, "loans_removed", summary.LoansRemoved)
	return summary, nil
}
