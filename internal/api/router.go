package api

import (
	"bank-backoffice/internal/api/handler"
	mw "bank-backoffice/internal/api/middleware"
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/loan"
	"log/slog"
	"net/http"
	"time"

	_ "bank-backoffice/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services bundles what the HTTP surface calls into.
type Services struct {
	Customers customer.CustomerService
	Accounts  account.AccountService
	Loans     loan.LoanService
	Bankers   handler.BankerDirectory
	Staff     handler.StaffAuthenticator
	// Limiter backs the rate limiter; nil means an in-process bucket per IP.
	Limiter mw.Limiter
}

func SetupRouter(svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, svc.Limiter, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	authHandler := handler.NewAuthHandler(svc.Customers, svc.Staff, cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.IssueToken)
		r.Post("/employee-token", authHandler.IssueStaffToken)
	})

	customerHandler := handler.NewCustomerHandler(svc.Customers, logger)
	accountHandler := handler.NewAccountHandler(svc.Accounts, logger)
	loanHandler := handler.NewLoanHandler(svc.Loans, logger)
	employeeHandler := handler.NewEmployeeHandler(svc.Bankers, logger)

	// Registration stays public so a new customer can obtain a token.
	router.Post("/customers", customerHandler.CreateCustomer)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/", customerHandler.GetCustomer)
			r.Put("/", customerHandler.UpdateCustomer)
			r.Delete("/", customerHandler.DeleteCustomer)
			r.Get("/accounts", accountHandler.ListCustomerAccounts)
			r.Get("/loans", loanHandler.ListCustomerLoans)
			r.Get("/payments", loanHandler.CustomerPayments)
			r.Get("/banker", employeeHandler.Bankers)
		})

		r.Post("/accounts", accountHandler.OpenAccount)
		r.Route("/accounts/{accountNumber}", func(r chi.Router) {
			r.Get("/", accountHandler.GetAccount)
			r.Delete("/", accountHandler.CloseAccount)
			r.Post("/deposit", accountHandler.Deposit)
			r.Post("/withdraw", accountHandler.Withdraw)
			r.Get("/transactions", accountHandler.History)
			r.Get("/reconciliation", accountHandler.Reconciliation)
		})
		r.Post("/transfers", accountHandler.Transfer)

		r.Post("/loans", loanHandler.ApplyLoan)
		r.Route("/loans/{loanNumber}", func(r chi.Router) {
			r.Get("/", loanHandler.GetLoan)
			r.With(mw.RequireRole(cfg.Server.Auth, mw.RoleEmployee, logger)).Post("/decision", loanHandler.DecideLoan)
			r.Get("/payments", loanHandler.GetSchedule)
			r.Post("/payments", loanHandler.MakePayment)
			r.Get("/outstanding", loanHandler.GetOutstanding)
			r.Get("/delinquent", loanHandler.IsDelinquent)
		})

		r.Route("/employees/{employeeID}", func(r chi.Router) {
			r.Get("/summary", employeeHandler.Summary)
			r.Get("/customers", employeeHandler.Customers)
			r.Get("/loans", employeeHandler.Loans)
		})
		r.Get("/branches/{branchName}/accounts", employeeHandler.BranchAccounts)
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, limiter mw.Limiter, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, limiter, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}
