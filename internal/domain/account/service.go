package account

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

var ErrInvalidAccountType = apperrors.New("INVALID_ACCOUNT_TYPE", "account type must be savings or checking", apperrors.ErrValidation)

type AccountService interface {
	OpenAccount(ctx context.Context, customerID int64, accountType ledger.AccountType) (*Opened, error)
	Deposit(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error)
	Withdraw(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error)
	Transfer(ctx context.Context, sender, receiver int64, amount decimal.Decimal) (*ledger.Entry, error)
	CloseAccount(ctx context.Context, accountNumber int64) error
	CloseCustomerAccounts(ctx context.Context, customerID int64) (int, error)

	GetAccount(ctx context.Context, accountNumber int64) (*ledger.Account, error)
	ListCustomerAccounts(ctx context.Context, customerID int64) ([]ledger.Account, error)
	History(ctx context.Context, accountNumber int64) ([]ledger.Entry, error)
	Reconcile(ctx context.Context, accountNumber int64) (*ledger.Reconciliation, error)
}

var _ AccountService = (*accountService)(nil)

type accountService struct {
	repo      Repository
	ledger    *ledger.Store
	directory BankerResolver
	tx        txn.Manager
	logger    *slog.Logger
}

func NewAccountService(repo Repository, store *ledger.Store, dir BankerResolver, tx txn.Manager, logger *slog.Logger) AccountService {
	if repo == nil || store == nil || dir == nil || tx == nil {
		panic("account service dependencies cannot be nil")
	}
	return &accountService{
		repo:      repo,
		ledger:    store,
		directory: dir,
		tx:        tx,
		logger:    logger.With(slog.String("component", "accountService")),
	}
}

func (s *accountService) OpenAccount(ctx context.Context, customerID int64, accountType ledger.AccountType) (*Opened, error) {
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidAccountType, accountType)
	}

	var opened *Opened
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		res, err := s.directory.Resolve(ctx, customerID, directory.Context(accountType))
		if err != nil {
			return err
		}

		acc := &ledger.Account{
			Balance:    decimal.Zero,
			Type:       accountType,
			BranchName: res.BranchName,
		}
		if err := s.repo.CreateAccount(ctx, acc); err != nil {
			return err
		}
		if err := s.repo.LinkDepositor(ctx, customerID, acc.Number); err != nil {
			return err
		}

		opened = &Opened{
			AccountNumber: acc.Number,
			CustomerID:    customerID,
			Type:          accountType,
			BranchName:    res.BranchName,
			EmployeeID:    res.EmployeeID,
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to open account", "customer_id", customerID, "type", accountType, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Account opened", "customer_id", customerID, "account_number", opened.AccountNumber, "branch", opened.BranchName, "employee_id", opened.EmployeeID)
	return opened, nil
}

func (s *accountService) Deposit(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return s.ledger.ApplyDelta(ctx, accountNumber, amount, accountNumber, ledger.EntryDeposit)
}

func (s *accountService) Withdraw(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	return s.ledger.ApplyDelta(ctx, accountNumber, amount.Neg(), accountNumber, ledger.EntryWithdrawal)
}

func (s *accountService) Transfer(ctx context.Context, sender, receiver int64, amount decimal.Decimal) (*ledger.Entry, error) {
	return s.ledger.Transfer(ctx, sender, receiver, amount)
}

// CloseAccount removes the account children first: banker link when it was
// the customer's last account, depositor link, history, then the account row.
func (s *accountService) CloseAccount(ctx context.Context, accountNumber int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.closeLocked(ctx, accountNumber)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to close account", "account_number", accountNumber, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Account closed", "account_number", accountNumber)
	return nil
}

func (s *accountService) closeLocked(ctx context.Context, accountNumber int64) error {
	owner, err := s.repo.LockOwner(ctx, accountNumber)
	if err != nil {
		return err
	}
	held, err := s.repo.AccountsOf(ctx, owner)
	if err != nil {
		return err
	}
	if len(held) <= 1 {
		if err := s.directory.ReleaseAccountBankers(ctx, owner); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteDepositor(ctx, accountNumber); err != nil {
		return err
	}
	if err := s.repo.DeleteEntries(ctx, accountNumber); err != nil {
		return err
	}
	return s.repo.DeleteAccount(ctx, accountNumber)
}

// CloseCustomerAccounts closes every account of the customer in one unit of
// work and returns how many were closed.
func (s *accountService) CloseCustomerAccounts(ctx context.Context, customerID int64) (int, error) {
	closed := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		held, err := s.repo.AccountsOf(ctx, customerID)
		if err != nil {
			return err
		}
		for _, acc := range held {
			if err := s.closeLocked(ctx, acc.Number); err != nil {
				return err
			}
			closed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}

func (s *accountService) GetAccount(ctx context.Context, accountNumber int64) (*ledger.Account, error) {
	return s.ledger.Account(ctx, accountNumber)
}

func (s *accountService) ListCustomerAccounts(ctx context.Context, customerID int64) ([]ledger.Account, error) {
	if _, err := s.directory.Profile(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.AccountsOf(ctx, customerID)
}

func (s *accountService) History(ctx context.Context, accountNumber int64) ([]ledger.Entry, error) {
	return s.ledger.History(ctx, accountNumber)
}

func (s *accountService) Reconcile(ctx context.Context, accountNumber int64) (*ledger.Reconciliation, error) {
	return s.ledger.Reconcile(ctx, accountNumber)
}
