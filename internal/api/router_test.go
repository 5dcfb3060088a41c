package api

import (
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/event"
	"bank-backoffice/internal/infrastructure/database/memory"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *chi.Mux
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := memory.NewDB()
	db.SeedReference()

	notifier := event.NewAsyncNotifier(event.NewLogPublisher(logger), 1, 16, time.Second, logger)
	t.Cleanup(func() { _ = notifier.Close(context.Background()) })

	dir := directory.NewService(memory.NewDirectoryRepository(db), directory.FirstSelector{}, db, logger)
	store := ledger.NewStore(memory.NewLedgerRepository(db), db, ledger.DefaultFloors(), logger)
	accounts := account.NewAccountService(memory.NewAccountRepository(db), store, dir, db, logger)
	loans := loan.NewLoanService(memory.NewLoanRepository(db), store, dir, notifier, db, 12, logger)
	customers := customer.NewCustomerService(memory.NewCustomerRepository(db), accounts, loans, dir, db, logger)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Auth: config.AuthConfig{Enabled: true, JWTSecret: "router-test-secret", TokenTTL: time.Hour},
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}

	return &testServer{router: SetupRouter(Services{
		Customers: customers,
		Accounts:  accounts,
		Loans:     loans,
		Bankers:   dir,
		Staff:     dir,
	}, cfg, logger)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_OpsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/swagger", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)

	rec = s.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody(t, rec)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/loans/{loanNumber}/decision")
	assert.Contains(t, paths, "/branches/{branchName}/accounts")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/customers/1", "/accounts/100001", "/loans/500001", "/employees/1/summary"} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_BankingFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/customers", map[string]string{
		"name": "Jane Doe", "address": "1 Main St", "city": "Brooklyn",
		"email": "jane@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customerID := int64(decodeBody(t, rec)["customerId"].(float64))

	rec = s.do(t, http.MethodPost, "/auth/token", map[string]string{"email": "jane@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.token = decodeBody(t, rec)["token"].(string)

	customerPath := "/customers/" + strconv.FormatInt(customerID, 10)

	rec = s.do(t, http.MethodPost, "/accounts", map[string]any{"customerId": customerID, "type": "savings"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opened := decodeBody(t, rec)
	assert.Equal(t, "Downtown", opened["branchName"])
	accountPath := "/accounts/" + strconv.FormatInt(int64(opened["accountNumber"].(float64)), 10)

	rec = s.do(t, http.MethodPost, accountPath+"/deposit", map[string]string{"amount": "250.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, accountPath+"/withdraw", map[string]string{"amount": "1000.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/loans", map[string]any{"customerId": customerID, "amount": "1200.00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loanPath := "/loans/" + strconv.FormatInt(int64(decodeBody(t, rec)["loanNumber"].(float64)), 10)

	rec = s.do(t, http.MethodPost, loanPath+"/decision", map[string]string{"decision": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "a borrower must not decide their own loan")

	customerToken := s.token
	rec = s.do(t, http.MethodPost, "/auth/employee-token", map[string]string{"email": "ava.patel@bank.local", "password": memory.SeedStaffPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.token = decodeBody(t, rec)["token"].(string)

	rec = s.do(t, http.MethodGet, "/employees/1/loans?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var queue []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	require.Len(t, queue, 1)
	assert.Equal(t, "1200.00", queue[0]["amount"])
	assert.Equal(t, "Jane Doe", queue[0]["customerName"])

	rec = s.do(t, http.MethodPost, loanPath+"/decision", map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decision := decodeBody(t, rec)
	assert.Len(t, decision["schedule"], 12)

	rec = s.do(t, http.MethodPost, loanPath+"/decision", map[string]string{"decision": "rejected"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/employees/1/loans?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	s.token = customerToken

	rec = s.do(t, http.MethodPost, loanPath+"/payments", map[string]any{"paymentNumber": 1, "amountPaid": "100.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, loanPath+"/outstanding", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1100.00", decodeBody(t, rec)["outstandingAmount"])

	rec = s.do(t, http.MethodGet, accountPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1350.00", decodeBody(t, rec)["balance"])

	rec = s.do(t, http.MethodGet, "/branches/Downtown/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var branchAccounts []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &branchAccounts))
	require.Len(t, branchAccounts, 1)
	assert.Equal(t, "1350.00", branchAccounts[0]["balance"])
	assert.Equal(t, float64(customerID), branchAccounts[0]["customerId"])

	rec = s.do(t, http.MethodGet, "/branches/Atlantis/accounts", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, accountPath+"/reconciliation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["consistent"])

	rec = s.do(t, http.MethodGet, accountPath+"/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 3)

	rec = s.do(t, http.MethodGet, customerPath+"/banker", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/employees/1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)
	assert.Equal(t, float64(1), summary["totalAccounts"])
	assert.Equal(t, float64(1), summary["totalLoans"])

	rec = s.do(t, http.MethodDelete, customerPath, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deleted := decodeBody(t, rec)
	assert.Equal(t, float64(1), deleted["accountsClosed"])
	assert.Equal(t, float64(1), deleted["loansRemoved"])

	rec = s.do(t, http.MethodGet, accountPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
