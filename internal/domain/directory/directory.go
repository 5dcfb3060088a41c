package directory

import (
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Profile is the slice of customer data the directory exposes to the core.
type Profile struct {
	CustomerID int64
	Name       string
	Email      string
	City       string
}

type Branch struct {
	Name string
	City string
}

type Employee struct {
	ID           int64
	Name         string
	BranchName   string
	Email        string
	PasswordHash string
}

// Context is the relationship a banker assignment covers. Accounts use their
// account type, loans share a single context.
type Context string

const (
	ContextSavings  Context = "savings"
	ContextChecking Context = "checking"
	ContextLoan     Context = "loan"
)

// AccountContexts are the assignment contexts tied to holding an account.
var AccountContexts = []Context{ContextSavings, ContextChecking}

type Assignment struct {
	CustomerID int64
	EmployeeID int64
	Context    Context
}

type BankerSummary struct {
	EmployeeID    int64
	TotalAccounts int
	TotalLoans    int
	PendingLoans  int
	Customers     int
}

// BankerLoan is one row of a banker's loan queue.
type BankerLoan struct {
	LoanNumber   int64
	Amount       decimal.Decimal
	Status       string
	CustomerID   int64
	CustomerName string
	Email        string
	StartDate    *time.Time
	AppliedAt    time.Time
}

// BranchAccount is an account opened at a branch together with its owner.
type BranchAccount struct {
	AccountNumber int64
	Type          string
	Balance       decimal.Decimal
	CustomerID    int64
	OpenedAt      time.Time
}

var (
	ErrCustomerNotFound  = apperrors.New("CUSTOMER_NOT_FOUND", "customer not found", apperrors.ErrNotFound)
	ErrEmployeeNotFound  = apperrors.New("EMPLOYEE_NOT_FOUND", "employee not found", apperrors.ErrNotFound)
	ErrNoBranchForCity   = apperrors.New("NO_BRANCH_FOR_CITY", "no branch services the customer's city", apperrors.ErrValidation)
	ErrNoBankerAvailable = apperrors.New("NO_BANKER_AVAILABLE", "the servicing branch has no employees", apperrors.ErrValidation)
	ErrBranchNotFound    = apperrors.New("BRANCH_NOT_FOUND", "branch not found", apperrors.ErrNotFound)
	ErrInvalidLoanStatus = apperrors.New("INVALID_LOAN_STATUS", "status must be pending, approved or rejected", apperrors.ErrValidation)
	ErrInvalidStaffLogin = apperrors.New("INVALID_CREDENTIALS", "invalid email or password", apperrors.ErrUnauthorized)
)

type Repository interface {
	CustomerProfile(ctx context.Context, customerID int64) (*Profile, error)
	BranchForCity(ctx context.Context, city string) (string, error)
	EmployeesInBranch(ctx context.Context, branch string) ([]int64, error)
	// EmployeeByEmail matches the email case-insensitively. A miss wraps
	// ErrEmployeeNotFound.
	EmployeeByEmail(ctx context.Context, email string) (*Employee, error)

	FindBanker(ctx context.Context, customerID int64, c Context) (int64, bool, error)
	// AssignBanker records a if no assignment exists yet for the customer and
	// context, and returns the employee that ends up assigned.
	AssignBanker(ctx context.Context, a Assignment) (int64, error)
	RemoveBankers(ctx context.Context, customerID int64, contexts ...Context) error
	BankersOf(ctx context.Context, customerID int64) ([]Assignment, error)

	// PrimaryAccount returns the customer's lowest-numbered account.
	PrimaryAccount(ctx context.Context, customerID int64) (int64, bool, error)

	BankerSummary(ctx context.Context, employeeID int64) (*BankerSummary, error)
	CustomersOfBanker(ctx context.Context, employeeID int64) ([]Profile, error)
	// LoansOfBanker lists loans of customers the employee services in the
	// loan context. An empty status matches every status.
	LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]BankerLoan, error)
	AccountsInBranch(ctx context.Context, branch string) ([]BranchAccount, error)
}
