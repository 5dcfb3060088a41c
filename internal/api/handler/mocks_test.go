package handler

import (
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/domain/loan"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// newRequest builds a request with chi URL params already resolved.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Register(ctx context.Context, in customer.Registration) (*customer.Customer, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) UpdateProfile(ctx context.Context, customerID int64, update customer.ProfileUpdate) (*customer.Customer, error) {
	args := m.Called(ctx, customerID, update)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) Authenticate(ctx context.Context, email, password string) (*customer.Customer, error) {
	args := m.Called(ctx, email, password)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID int64) (*customer.DeletionSummary, error) {
	args := m.Called(ctx, customerID)
	s, _ := args.Get(0).(*customer.DeletionSummary)
	return s, args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, customerID int64, accountType ledger.AccountType) (*account.Opened, error) {
	args := m.Called(ctx, customerID, accountType)
	o, _ := args.Get(0).(*account.Opened)
	return o, args.Error(1)
}

func (m *MockAccountService) Deposit(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error) {
	args := m.Called(ctx, accountNumber, amount.StringFixed(2))
	e, _ := args.Get(0).(*ledger.Entry)
	return e, args.Error(1)
}

func (m *MockAccountService) Withdraw(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error) {
	args := m.Called(ctx, accountNumber, amount.StringFixed(2))
	e, _ := args.Get(0).(*ledger.Entry)
	return e, args.Error(1)
}

func (m *MockAccountService) Transfer(ctx context.Context, sender, receiver int64, amount decimal.Decimal) (*ledger.Entry, error) {
	args := m.Called(ctx, sender, receiver, amount.StringFixed(2))
	e, _ := args.Get(0).(*ledger.Entry)
	return e, args.Error(1)
}

func (m *MockAccountService) CloseAccount(ctx context.Context, accountNumber int64) error {
	return m.Called(ctx, accountNumber).Error(0)
}

func (m *MockAccountService) CloseCustomerAccounts(ctx context.Context, customerID int64) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountNumber int64) (*ledger.Account, error) {
	args := m.Called(ctx, accountNumber)
	a, _ := args.Get(0).(*ledger.Account)
	return a, args.Error(1)
}

func (m *MockAccountService) ListCustomerAccounts(ctx context.Context, customerID int64) ([]ledger.Account, error) {
	args := m.Called(ctx, customerID)
	a, _ := args.Get(0).([]ledger.Account)
	return a, args.Error(1)
}

func (m *MockAccountService) History(ctx context.Context, accountNumber int64) ([]ledger.Entry, error) {
	args := m.Called(ctx, accountNumber)
	e, _ := args.Get(0).([]ledger.Entry)
	return e, args.Error(1)
}

func (m *MockAccountService) Reconcile(ctx context.Context, accountNumber int64) (*ledger.Reconciliation, error) {
	args := m.Called(ctx, accountNumber)
	r, _ := args.Get(0).(*ledger.Reconciliation)
	return r, args.Error(1)
}

// MockLoanService compares decimals by string so expectations read naturally.
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) Apply(ctx context.Context, customerID int64, amount decimal.Decimal, months int) (*loan.Application, error) {
	args := m.Called(ctx, customerID, amount.StringFixed(2), months)
	a, _ := args.Get(0).(*loan.Application)
	return a, args.Error(1)
}

func (m *MockLoanService) Decide(ctx context.Context, loanNumber int64, decision loan.Decision, months int) (*loan.Outcome, error) {
	args := m.Called(ctx, loanNumber, decision, months)
	o, _ := args.Get(0).(*loan.Outcome)
	return o, args.Error(1)
}

func (m *MockLoanService) ApplyPayment(ctx context.Context, loanNumber int64, paymentNumber int, amountPaid decimal.Decimal) (*loan.Receipt, error) {
	args := m.Called(ctx, loanNumber, paymentNumber, amountPaid.StringFixed(2))
	r, _ := args.Get(0).(*loan.Receipt)
	return r, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanNumber)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, loanNumber int64) ([]loan.Payment, error) {
	args := m.Called(ctx, loanNumber)
	p, _ := args.Get(0).([]loan.Payment)
	return p, args.Error(1)
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	l, _ := args.Get(0).([]loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) CustomerPayments(ctx context.Context, customerID int64) ([]loan.Payment, error) {
	args := m.Called(ctx, customerID)
	p, _ := args.Get(0).([]loan.Payment)
	return p, args.Error(1)
}

func (m *MockLoanService) GetOutstanding(ctx context.Context, loanNumber int64) (decimal.Decimal, error) {
	args := m.Called(ctx, loanNumber)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}

func (m *MockLoanService) IsDelinquent(ctx context.Context, loanNumber int64) (bool, error) {
	args := m.Called(ctx, loanNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanService) OverdueInstallments(ctx context.Context, loanNumber int64, asOf time.Time) ([]loan.Payment, error) {
	args := m.Called(ctx, loanNumber, asOf)
	p, _ := args.Get(0).([]loan.Payment)
	return p, args.Error(1)
}

func (m *MockLoanService) ApprovedLoanNumbers(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).([]int64)
	return n, args.Error(1)
}

func (m *MockLoanService) RemoveCustomerLoans(ctx context.Context, customerID int64) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

type MockBankerDirectory struct {
	mock.Mock
}

func (m *MockBankerDirectory) BankersOf(ctx context.Context, customerID int64) ([]directory.Assignment, error) {
	args := m.Called(ctx, customerID)
	a, _ := args.Get(0).([]directory.Assignment)
	return a, args.Error(1)
}

func (m *MockBankerDirectory) BankerSummary(ctx context.Context, employeeID int64) (*directory.BankerSummary, error) {
	args := m.Called(ctx, employeeID)
	s, _ := args.Get(0).(*directory.BankerSummary)
	return s, args.Error(1)
}

func (m *MockBankerDirectory) CustomersOfBanker(ctx context.Context, employeeID int64) ([]directory.Profile, error) {
	args := m.Called(ctx, employeeID)
	p, _ := args.Get(0).([]directory.Profile)
	return p, args.Error(1)
}

func (m *MockBankerDirectory) LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]directory.BankerLoan, error) {
	args := m.Called(ctx, employeeID, status)
	q, _ := args.Get(0).([]directory.BankerLoan)
	return q, args.Error(1)
}

func (m *MockBankerDirectory) AccountsInBranch(ctx context.Context, branch string) ([]directory.BranchAccount, error) {
	args := m.Called(ctx, branch)
	a, _ := args.Get(0).([]directory.BranchAccount)
	return a, args.Error(1)
}

type MockStaffAuthenticator struct {
	mock.Mock
}

func (m *MockStaffAuthenticator) AuthenticateEmployee(ctx context.Context, email, password string) (*directory.Employee, error) {
	args := m.Called(ctx, email, password)
	e, _ := args.Get(0).(*directory.Employee)
	return e, args.Error(1)
}
