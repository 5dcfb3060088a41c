package account

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"context"
)

// Opened is returned by OpenAccount.
type Opened struct {
	AccountNumber int64
	CustomerID    int64
	Type          ledger.AccountType
	BranchName    string
	EmployeeID    int64
}

type Repository interface {
	// CreateAccount inserts the account with a zero balance together with its
	// branch link, filling in Number and CreatedAt.
	CreateAccount(ctx context.Context, acc *ledger.Account) error
	LinkDepositor(ctx context.Context, customerID, accountNumber int64) error
	// LockOwner locks the account row and returns its owning customer.
	LockOwner(ctx context.Context, accountNumber int64) (int64, error)
	AccountsOf(ctx context.Context, customerID int64) ([]ledger.Account, error)

	DeleteDepositor(ctx context.Context, accountNumber int64) error
	// DeleteEntries removes the account's transaction history, keeping rows
	// whose other side is a live account.
	DeleteEntries(ctx context.Context, accountNumber int64) error
	DeleteAccount(ctx context.Context, accountNumber int64) error
}

// BankerResolver is the part of the directory the account service needs.
type BankerResolver interface {
	Profile(ctx context.Context, customerID int64) (*directory.Profile, error)
	Resolve(ctx context.Context, customerID int64, c directory.Context) (*directory.Resolution, error)
	ReleaseAccountBankers(ctx context.Context, customerID int64) error
}
