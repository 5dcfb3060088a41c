package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/domain/directory"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BankerDirectory answers who serves whom.
type BankerDirectory interface {
	BankersOf(ctx context.Context, customerID int64) ([]directory.Assignment, error)
	BankerSummary(ctx context.Context, employeeID int64) (*directory.BankerSummary, error)
	CustomersOfBanker(ctx context.Context, employeeID int64) ([]directory.Profile, error)
	LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]directory.BankerLoan, error)
	AccountsInBranch(ctx context.Context, branch string) ([]directory.BranchAccount, error)
}

type EmployeeHandler struct {
	directory BankerDirectory
	logger    *slog.Logger
}

func NewEmployeeHandler(d BankerDirectory, l *slog.Logger) *EmployeeHandler {
	if d == nil {
		panic("banker directory cannot be nil")
	}
	return &EmployeeHandler{
		directory: d,
		logger:    l.With("component", "EmployeeHandler"),
	}
}

// Summary handles GET /employees/{employeeID}/summary
// @Summary Workload of a banker
// @Tags Employees
// @Produce json
// @Param employeeID path int true "Employee ID"
// @Success 200 {object} dto.BankerSummaryResponse
// @Failure 404 {object} dto.ErrorResponse "Employee not found"
// @Router /employees/{employeeID}/summary [get]
// @Security BearerAuth
func (h *EmployeeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	employeeID, err := int64Param(r, "employeeID")
	if err != nil {
		respondError(w, err)
		return
	}
	summary, err := h.directory.BankerSummary(r.Context(), employeeID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to build banker summary", slog.Int64("employeeID", employeeID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBankerSummaryResponse(summary))
}

// Customers handles GET /employees/{employeeID}/customers
// @Summary Customers served by a banker
// @Tags Employees
// @Produce json
// @Param employeeID path int true "Employee ID"
// @Success 200 {array} dto.ProfileResponse
// @Router /employees/{employeeID}/customers [get]
// @Security BearerAuth
func (h *EmployeeHandler) Customers(w http.ResponseWriter, r *http.Request) {
	employeeID, err := int64Param(r, "employeeID")
	if err != nil {
		respondError(w, err)
		return
	}
	profiles, err := h.directory.CustomersOfBanker(r.Context(), employeeID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewProfileResponses(profiles))
}

// Bankers handles GET /customers/{customerID}/banker
// @Summary Bankers assigned to a customer
// @Tags Employees
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.BankerResponse
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/banker [get]
// @Security BearerAuth
func (h *EmployeeHandler) Bankers(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64Param(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	assignments, err := h.directory.BankersOf(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBankerResponses(assignments))
}

// Loans handles GET /employees/{employeeID}/loans
// @Summary Loan queue of a banker
// @Description Loans of the customers the banker services for lending, with the borrower and start date. Use status=pending for the decision queue.
// @Tags Employees
// @Produce json
// @Param employeeID path int true "Employee ID"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} dto.BankerLoanResponse
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 404 {object} dto.ErrorResponse "Employee not found"
// @Router /employees/{employeeID}/loans [get]
// @Security BearerAuth
func (h *EmployeeHandler) Loans(w http.ResponseWriter, r *http.Request) {
	employeeID, err := int64Param(r, "employeeID")
	if err != nil {
		respondError(w, err)
		return
	}
	queue, err := h.directory.LoansOfBanker(r.Context(), employeeID, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to list banker loans", slog.Int64("employeeID", employeeID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBankerLoanResponses(queue))
}

// BranchAccounts handles GET /branches/{branchName}/accounts
// @Summary Accounts opened at a branch
// @Tags Employees
// @Produce json
// @Param branchName path string true "Branch name"
// @Success 200 {array} dto.BranchAccountResponse
// @Failure 404 {object} dto.ErrorResponse "Branch not found"
// @Router /branches/{branchName}/accounts [get]
// @Security BearerAuth
func (h *EmployeeHandler) BranchAccounts(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "branchName")
	accounts, err := h.directory.AccountsInBranch(r.Context(), branch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBranchAccountResponses(accounts))
}
