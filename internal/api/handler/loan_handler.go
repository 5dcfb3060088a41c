package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/domain/loan"
	"log/slog"
	"net/http"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// ApplyLoan handles POST /loans
// @Summary Apply for a loan
// @Description Records a pending loan at the branch serving the customer's city. When months is omitted the default term applies.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.ApplyLoanRequest true "Loan application"
// @Success 201 {object} dto.ApplicationResponse "Loan application recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or term"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
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

	app, err := h.service.Apply(r.Context(), req.CustomerID, amount, req.Months)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to record loan application",
			slog.Int64("customerID", req.CustomerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan application recorded", slog.Int64("loanNumber", app.LoanNumber))
	respondJSON(w, http.StatusCreated, dto.NewApplicationResponse(app))
}

// GetLoan handles GET /loans/{loanNumber}
// @Summary Retrieve a loan
// @Tags Loans
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanNumber} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	l, err := h.service.GetLoan(r.Context(), loanNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// DecideLoan handles POST /loans/{loanNumber}/decision
// @Summary Approve or reject a pending loan
// @Description Approval credits the borrower's primary account and creates the installment schedule. Both outcomes notify the borrower.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Param request body dto.DecisionRequest true "Decision and optional term override"
// @Success 200 {object} dto.DecisionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid decision, loan already decided or no account to credit"
// @Failure 403 {object} dto.ErrorResponse "Caller does not hold the employee role"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanNumber}/decision [post]
// @Security BearerAuth
func (h *LoanHandler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.DecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	outcome, err := h.service.Decide(r.Context(), loanNumber, loan.Decision(req.Decision), req.Months)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to decide loan",
			slog.Int64("loanNumber", loanNumber), slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan decided", slog.Int64("loanNumber", loanNumber), slog.String("decision", req.Decision), requester(r))
	respondJSON(w, http.StatusOK, dto.NewDecisionResponse(outcome))
}

// GetSchedule handles GET /loans/{loanNumber}/payments
// @Summary List the installment schedule
// @Tags Loans
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Success 200 {array} dto.PaymentResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanNumber}/payments [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	payments, err := h.service.GetSchedule(r.Context(), loanNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentResponses(payments))
}

// MakePayment handles POST /loans/{loanNumber}/payments
// @Summary Pay an installment
// @Description Withdraws the installment from the borrower's primary account and marks it paid. The amount must match the installment exactly.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Param request body dto.PaymentRequest true "Installment number and amount"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} dto.ErrorResponse "Amount mismatch, already paid or insufficient funds"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Router /loans/{loanNumber}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	amount, err := dto.ParseMoney("amountPaid", req.AmountPaid)
	if err != nil {
		respondError(w, err)
		return
	}

	receipt, err := h.service.ApplyPayment(r.Context(), loanNumber, req.PaymentNumber, amount)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to apply payment",
			slog.Int64("loanNumber", loanNumber), slog.Int("paymentNumber", req.PaymentNumber), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewReceiptResponse(receipt))
}

// GetOutstanding handles GET /loans/{loanNumber}/outstanding
// @Summary Get the unpaid balance of a loan
// @Tags Loans
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Success 200 {object} dto.OutstandingResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanNumber}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	amount, err := h.service.GetOutstanding(r.Context(), loanNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewOutstandingResponse(loanNumber, amount))
}

// IsDelinquent handles GET /loans/{loanNumber}/delinquent
// @Summary Check whether a loan is delinquent
// @Tags Loans
// @Produce json
// @Param loanNumber path int true "Loan number"
// @Success 200 {object} dto.DelinquentResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanNumber}/delinquent [get]
// @Security BearerAuth
func (h *LoanHandler) IsDelinquent(w http.ResponseWriter, r *http.Request) {
	loanNumber, err := int64Param(r, "loanNumber")
	if err != nil {
		respondError(w, err)
		return
	}
	delinquent, err := h.service.IsDelinquent(r.Context(), loanNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.DelinquentResponse{LoanNumber: loanNumber, IsDelinquent: delinquent})
}

// ListCustomerLoans handles GET /customers/{customerID}/loans
// @Summary List a customer's loans
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.LoanResponse
// @Router /customers/{customerID}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64Param(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	loans, err := h.service.ListCustomerLoans(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponses(loans))
}

// CustomerPayments handles GET /customers/{customerID}/payments
// @Summary List every installment across a customer's loans
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.PaymentResponse
// @Router /customers/{customerID}/payments [get]
// @Security BearerAuth
func (h *LoanHandler) CustomerPayments(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64Param(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	payments, err := h.service.CustomerPayments(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentResponses(payments))
}
