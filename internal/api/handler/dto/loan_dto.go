package dto

import (
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/pkg/apperrors"
	"time"

	"github.com/shopspring/decimal"
)

type ApplyLoanRequest struct {
	CustomerID int64  `json:"customerId"`
	Amount     string `json:"amount"`
	Months     int    `json:"months,omitempty"`
}

func (r *ApplyLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return apperrors.NewValidationError("customerId", "customerId must be positive")
	}
	if r.Months < 0 {
		return apperrors.NewValidationError("months", "months cannot be negative")
	}
	return nil
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Months   int    `json:"months,omitempty"`
}

func (r *DecisionRequest) Validate() error {
	if !loan.Decision(r.Decision).Valid() {
		return apperrors.NewValidationError("decision", "decision must be approved or rejected")
	}
	if r.Months < 0 {
		return apperrors.NewValidationError("months", "months cannot be negative")
	}
	return nil
}

type PaymentRequest struct {
	PaymentNumber int    `json:"paymentNumber"`
	AmountPaid    string `json:"amountPaid"`
}

func (r *PaymentRequest) Validate() error {
	if r.PaymentNumber <= 0 {
		return apperrors.NewValidationError("paymentNumber", "paymentNumber must be positive")
	}
	return nil
}

type ApplicationResponse struct {
	LoanNumber int64  `json:"loanNumber"`
	CustomerID int64  `json:"customerId"`
	Amount     string `json:"amount"`
	Months     int    `json:"months"`
	Status     string `json:"status"`
	BranchName string `json:"branchName"`
	EmployeeID int64  `json:"employeeId"`
}

func NewApplicationResponse(a *loan.Application) ApplicationResponse {
	return ApplicationResponse{
		LoanNumber: a.LoanNumber,
		CustomerID: a.CustomerID,
		Amount:     formatMoney(a.Amount),
		Months:     a.TermMonths,
		Status:     string(loan.StatusPending),
		BranchName: a.BranchName,
		EmployeeID: a.EmployeeID,
	}
}

type LoanResponse struct {
	LoanNumber int64     `json:"loanNumber"`
	CustomerID int64     `json:"customerId"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	Months     int       `json:"months"`
	BranchName string    `json:"branchName"`
	StartDate  *string   `json:"startDate,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		LoanNumber: l.Number,
		CustomerID: l.CustomerID,
		Amount:     formatMoney(l.Amount),
		Status:     string(l.Status),
		Months:     l.TermMonths,
		BranchName: l.BranchName,
		CreatedAt:  l.CreatedAt,
	}
	if l.StartDate != nil {
		s := l.StartDate.Format(time.DateOnly)
		resp.StartDate = &s
	}
	return resp
}

func NewLoanResponses(loans []loan.Loan) []LoanResponse {
	out := make([]LoanResponse, len(loans))
	for i := range loans {
		out[i] = NewLoanResponse(&loans[i])
	}
	return out
}

type PaymentResponse struct {
	LoanNumber    int64      `json:"loanNumber"`
	PaymentNumber int        `json:"paymentNumber"`
	Amount        string     `json:"paymentAmount"`
	Status        string     `json:"status"`
	DueDate       string     `json:"dueDate"`
	AmountPaid    *string    `json:"amountPaid,omitempty"`
	PaidOn        *time.Time `json:"paidOn,omitempty"`
}

func NewPaymentResponse(p *loan.Payment) PaymentResponse {
	resp := PaymentResponse{
		LoanNumber:    p.LoanNumber,
		PaymentNumber: p.Number,
		Amount:        formatMoney(p.Amount),
		Status:        string(p.Status),
		DueDate:       p.DueDate.Format(time.DateOnly),
		PaidOn:        p.PaidOn,
	}
	if p.Made != nil {
		s := formatMoney(*p.Made)
		resp.AmountPaid = &s
	}
	return resp
}

func NewPaymentResponses(payments []loan.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = NewPaymentResponse(&payments[i])
	}
	return out
}

type DecisionResponse struct {
	Loan            LoanResponse      `json:"loan"`
	CreditedAccount int64             `json:"creditedAccount,omitempty"`
	TransactionID   string            `json:"transactionId,omitempty"`
	Schedule        []PaymentResponse `json:"schedule,omitempty"`
}

func NewDecisionResponse(o *loan.Outcome) DecisionResponse {
	resp := DecisionResponse{
		Loan:            NewLoanResponse(o.Loan),
		CreditedAccount: o.CreditedAccount,
	}
	if o.Entry != nil {
		resp.TransactionID = o.Entry.TransactionID
	}
	if len(o.Schedule) > 0 {
		resp.Schedule = NewPaymentResponses(o.Schedule)
	}
	return resp
}

type ReceiptResponse struct {
	Payment       PaymentResponse `json:"payment"`
	AccountNumber int64           `json:"accountNumber"`
	TransactionID string          `json:"transactionId"`
}

func NewReceiptResponse(r *loan.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		Payment:       NewPaymentResponse(&r.Payment),
		AccountNumber: r.AccountNumber,
	}
	if r.Entry != nil {
		resp.TransactionID = r.Entry.TransactionID
	}
	return resp
}

type OutstandingResponse struct {
	LoanNumber        int64  `json:"loanNumber"`
	OutstandingAmount string `json:"outstandingAmount"`
}

func NewOutstandingResponse(loanNumber int64, amount decimal.Decimal) OutstandingResponse {
	return OutstandingResponse{LoanNumber: loanNumber, OutstandingAmount: formatMoney(amount)}
}

type DelinquentResponse struct {
	LoanNumber   int64 `json:"loanNumber"`
	IsDelinquent bool  `json:"isDelinquent"`
}
