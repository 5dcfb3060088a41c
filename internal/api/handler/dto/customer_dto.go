package dto

import (
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"time"
)

type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *CreateCustomerRequest) ToRegistration() customer.Registration {
	return customer.Registration{
		Name:     r.Name,
		Address:  r.Address,
		City:     r.City,
		Email:    r.Email,
		Password: r.Password,
	}
}

// UpdateCustomerRequest is a partial update; omitted fields stay unchanged.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
}

func (r *UpdateCustomerRequest) ToProfileUpdate() customer.ProfileUpdate {
	return customer.ProfileUpdate{Name: r.Name, Address: r.Address, City: r.City}
}

type CustomerResponse struct {
	CustomerID int64     `json:"customerId"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Email      string    `json:"email"`
	CreateDate time.Time `json:"createDate"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID: cust.CustomerID,
		Name:       cust.Name,
		Address:    cust.Address,
		City:       cust.City,
		Email:      cust.Email,
		CreateDate: cust.CreateDate,
		UpdatedAt:  cust.UpdatedAt,
	}
}

type DeletionResponse struct {
	CustomerID     int64 `json:"customerId"`
	AccountsClosed int   `json:"accountsClosed"`
	LoansRemoved   int   `json:"loansRemoved"`
}

func NewDeletionResponse(s *customer.DeletionSummary) DeletionResponse {
	return DeletionResponse{CustomerID: s.CustomerID, AccountsClosed: s.AccountsClosed, LoansRemoved: s.LoansRemoved}
}

type BankerResponse struct {
	EmployeeID int64  `json:"employeeId"`
	Context    string `json:"context"`
}

func NewBankerResponses(assignments []directory.Assignment) []BankerResponse {
	out := make([]BankerResponse, len(assignments))
	for i, a := range assignments {
		out[i] = BankerResponse{EmployeeID: a.EmployeeID, Context: string(a.Context)}
	}
	return out
}

type BankerSummaryResponse struct {
	EmployeeID    int64 `json:"employeeId"`
	TotalAccounts int   `json:"totalAccounts"`
	TotalLoans    int   `json:"totalLoans"`
	PendingLoans  int   `json:"pendingLoans"`
	Customers     int   `json:"customersServed"`
}

func NewBankerSummaryResponse(s *directory.BankerSummary) BankerSummaryResponse {
	return BankerSummaryResponse{
		EmployeeID:    s.EmployeeID,
		TotalAccounts: s.TotalAccounts,
		TotalLoans:    s.TotalLoans,
		PendingLoans:  s.PendingLoans,
		Customers:     s.Customers,
	}
}

type ProfileResponse struct {
	CustomerID int64  `json:"customerId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	City       string `json:"city"`
}

func NewProfileResponses(profiles []directory.Profile) []ProfileResponse {
	out := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = ProfileResponse{CustomerID: p.CustomerID, Name: p.Name, Email: p.Email, City: p.City}
	}
	return out
}

type BankerLoanResponse struct {
	LoanNumber   int64     `json:"loanNumber"`
	Amount       string    `json:"amount"`
	Status       string    `json:"status"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Email        string    `json:"email"`
	StartDate    *string   `json:"startDate,omitempty"`
	AppliedAt    time.Time `json:"appliedAt"`
}

func NewBankerLoanResponses(queue []directory.BankerLoan) []BankerLoanResponse {
	out := make([]BankerLoanResponse, len(queue))
	for i, l := range queue {
		out[i] = BankerLoanResponse{
			LoanNumber:   l.LoanNumber,
			Amount:       formatMoney(l.Amount),
			Status:       l.Status,
			CustomerID:   l.CustomerID,
			CustomerName: l.CustomerName,
			Email:        l.Email,
			AppliedAt:    l.AppliedAt,
		}
		if l.StartDate != nil {
			s := l.StartDate.Format(time.DateOnly)
			out[i].StartDate = &s
		}
	}
	return out
}

type BranchAccountResponse struct {
	AccountNumber int64     `json:"accountNumber"`
	Type          string    `json:"type"`
	Balance       string    `json:"balance"`
	CustomerID    int64     `json:"customerId"`
	OpenedAt      time.Time `json:"openedAt"`
}

func NewBranchAccountResponses(accounts []directory.BranchAccount) []BranchAccountResponse {
	out := make([]BranchAccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = BranchAccountResponse{
			AccountNumber: a.AccountNumber,
			Type:          a.Type,
			Balance:       formatMoney(a.Balance),
			CustomerID:    a.CustomerID,
			OpenedAt:      a.OpenedAt,
		}
	}
	return out
}
