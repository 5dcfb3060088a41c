package dto

import (
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/pkg/apperrors"
	"time"
)

type OpenAccountRequest struct {
	CustomerID int64  `json:"customerId"`
	Type       string `json:"type"`
}

func (r *OpenAccountRequest) Validate() error {
	if r.CustomerID <= 0 {
		return apperrors.NewValidationError("customerId", "customerId must be positive")
	}
	return nil
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type TransferRequest struct {
	Sender   int64  `json:"sender"`
	Receiver int64  `json:"receiver"`
	Amount   string `json:"amount"`
}

func (r *TransferRequest) Validate() error {
	if r.Sender <= 0 {
		return apperrors.NewValidationError("sender", "sender must be a positive account number")
	}
	if r.Receiver <= 0 {
		return apperrors.NewValidationError("receiver", "receiver must be a positive account number")
	}
	return nil
}

type OpenedAccountResponse struct {
	AccountNumber int64  `json:"accountNumber"`
	CustomerID    int64  `json:"customerId"`
	Type          string `json:"type"`
	BranchName    string `json:"branchName"`
	EmployeeID    int64  `json:"employeeId"`
}

func NewOpenedAccountResponse(o *account.Opened) OpenedAccountResponse {
	return OpenedAccountResponse{
		AccountNumber: o.AccountNumber,
		CustomerID:    o.CustomerID,
		Type:          string(o.Type),
		BranchName:    o.BranchName,
		EmployeeID:    o.EmployeeID,
	}
}

type AccountResponse struct {
	AccountNumber int64     `json:"accountNumber"`
	Balance       string    `json:"balance"`
	Type          string    `json:"type"`
	BranchName    string    `json:"branchName"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: a.Number,
		Balance:       formatMoney(a.Balance),
		Type:          string(a.Type),
		BranchName:    a.BranchName,
		CreatedAt:     a.CreatedAt,
	}
}

func NewAccountResponses(accounts []ledger.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = NewAccountResponse(&accounts[i])
	}
	return out
}

type EntryResponse struct {
	TransactionID string    `json:"transactionId"`
	Sender        int64     `json:"sender"`
	Receiver      int64     `json:"receiver"`
	Amount        string    `json:"amount"`
	Kind          string    `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		TransactionID: e.TransactionID,
		Sender:        e.Sender,
		Receiver:      e.Receiver,
		Amount:        formatMoney(e.Amount),
		Kind:          string(e.Kind),
		Timestamp:     e.Timestamp,
	}
}

func NewEntryResponses(entries []ledger.Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = NewEntryResponse(&entries[i])
	}
	return out
}

type ReconciliationResponse struct {
	AccountNumber  int64  `json:"accountNumber"`
	Balance        string `json:"balance"`
	DerivedBalance string `json:"derivedBalance"`
	EntryCount     int    `json:"entryCount"`
	Consistent     bool   `json:"consistent"`
}

func NewReconciliationResponse(r *ledger.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		AccountNumber:  r.AccountNumber,
		Balance:        formatMoney(r.Balance),
		DerivedBalance: formatMoney(r.DerivedBalance),
		EntryCount:     r.EntryCount,
		Consistent:     r.Consistent(),
	}
}
