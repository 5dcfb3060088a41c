package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/ledger"
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	service account.AccountService
	logger  *slog.Logger
}

func NewAccountHandler(s account.AccountService, l *slog.Logger) *AccountHandler {
	if s == nil {
		panic("account service cannot be nil")
	}
	return &AccountHandler{
		service: s,
		logger:  l.With("component", "AccountHandler"),
	}
}

// OpenAccount handles POST /accounts
// @Summary Open an account
// @Description Opens a zero-balance savings or checking account at the branch serving the customer's city and assigns a banker.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body dto.OpenAccountRequest true "Owner and account type"
// @Success 201 {object} dto.OpenedAccountResponse "Account opened"
// @Failure 400 {object} dto.ErrorResponse "Invalid type or no branch for the customer's city"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /accounts [post]
// @Security BearerAuth
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	opened, err := h.service.OpenAccount(r.Context(), req.CustomerID, ledger.AccountType(req.Type))
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to open account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewOpenedAccountResponse(opened))
}

// GetAccount handles GET /accounts/{accountNumber}
// @Summary Retrieve an account
// @Tags Accounts
// @Produce json
// @Param accountNumber path int true "Account number"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber} [get]
// @Security BearerAuth
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number, err := int64Param(r, "accountNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	acc, err := h.service.GetAccount(r.Context(), number)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acc))
}

// CloseAccount handles DELETE /accounts/{accountNumber}
// @Summary Close an account
// @Description Removes the ownership link, the account's own history rows, the branch link and the account. History shared with a still-open account is kept.
// @Tags Accounts
// @Param accountNumber path int true "Account number"
// @Success 204 "Account closed"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber} [delete]
// @Security BearerAuth
func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	number, err := int64Param(r, "accountNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.service.CloseAccount(r.Context(), number); err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to close account", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Deposit handles POST /accounts/{accountNumber}/deposit
// @Summary Deposit into an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param accountNumber path int true "Account number"
// @Param request body dto.AmountRequest true "Amount as a decimal string"
// @Success 200 {object} dto.EntryResponse "Ledger entry"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber}/deposit [post]
// @Security BearerAuth
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.service.Deposit)
}

// Withdraw handles POST /accounts/{accountNumber}/withdraw
// @Summary Withdraw from an account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param accountNumber path int true "Account number"
// @Param request body dto.AmountRequest true "Amount as a decimal string"
// @Success 200 {object} dto.EntryResponse "Ledger entry"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or insufficient funds"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber}/withdraw [post]
// @Security BearerAuth
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.service.Withdraw)
}

type movementFunc func(ctx context.Context, accountNumber int64, amount decimal.Decimal) (*ledger.Entry, error)

func (h *AccountHandler) movement(w http.ResponseWriter, r *http.Request, apply movementFunc) {
	number, err := int64Param(r, "accountNumber")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	amount, err := dto.ParseMoney("amount", req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	entry, err := apply(r.Context(), number, amount)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Account movement failed",
			slog.Int64("accountNumber", number), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEntryResponse(entry))
}

// Transfer handles POST /transfers
// @Summary Transfer between accounts
// @Description Moves money from sender to receiver as one history row. Both balances change or neither does.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Sender, receiver and amount"
// @Success 200 {object} dto.EntryResponse "Ledger entry"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, same account or insufficient funds"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /transfers [post]
// @Security BearerAuth
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	amount, err := dto.ParseMoney("amount", req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.service.Transfer(r.Context(), req.Sender, req.Receiver, amount)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Transfer failed",
			slog.Int64("sender", req.Sender), slog.Int64("receiver", req.Receiver), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEntryResponse(entry))
}

// History handles GET /accounts/{accountNumber}/transactions
// @Summary List an account's history
// @Tags Accounts
// @Produce json
// @Param accountNumber path int true "Account number"
// @Success 200 {array} dto.EntryResponse
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber}/transactions [get]
// @Security BearerAuth
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	number, err := int64Param(r, "accountNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.service.History(r.Context(), number)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewEntryResponses(entries))
}

// Reconciliation handles GET /accounts/{accountNumber}/reconciliation
// @Summary Compare the stored balance with the history
// @Tags Accounts
// @Produce json
// @Param accountNumber path int true "Account number"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Router /accounts/{accountNumber}/reconciliation [get]
// @Security BearerAuth
func (h *AccountHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	number, err := int64Param(r, "accountNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	rec, err := h.service.Reconcile(r.Context(), number)
	if err != nil {
		respondError(w, err)
		return
	}
	if !rec.Consistent() {
		h.logger.WarnContext(r.Context(), "Account balance does not match history", slog.Int64("accountNumber", number))
	}
	respondJSON(w, http.StatusOK, dto.NewReconciliationResponse(rec))
}

// ListCustomerAccounts handles GET /customers/{customerID}/accounts
// @Summary List a customer's accounts
// @Tags Accounts
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.AccountResponse
// @Router /customers/{customerID}/accounts [get]
// @Security BearerAuth
func (h *AccountHandler) ListCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64Param(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	accounts, err := h.service.ListCustomerAccounts(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAccountResponses(accounts))
}
