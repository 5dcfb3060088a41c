package main

import (
	_ "bank-backoffice/docs"
	"bank-backoffice/internal/api"
	"bank-backoffice/internal/api/middleware"
	"bank-backoffice/internal/batch"
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/domain/account"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/event"
	"bank-backoffice/internal/infrastructure/cache"
	"bank-backoffice/internal/infrastructure/database/memory"
	"bank-backoffice/internal/infrastructure/database/postgres"
	"bank-backoffice/internal/infrastructure/logging"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Bank Back-Office API
// @version 1.0
// @description Customers, accounts, ledger movements, loans and installment schedules.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	store, err := initializeStorage(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.close()

	rabbitMQConn := setupRabbitMQ(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)
	notifier := initializeNotifier(cfg, rabbitMQConn, logger)

	services, err := initializeServices(cfg, store, notifier, logger)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	overdueJob := batch.NewOverdueScanJob(services.Loans, services.directory, notifier, cfg.Batch.OverdueScanWorkers, logger)
	cronScheduler := startBatchJobs(cfg, logger, overdueJob)

	if redisClient != nil {
		services.Limiter = middleware.NewRedisLimiter(redisClient, cfg.Server.RateLimit.Burst, time.Second)
	}
	router := api.SetupRouter(services.Services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, notifier, rabbitMQConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

// storage holds one backend's repositories behind the domain interfaces.
type storage struct {
	customers customer.CustomerRepository
	accounts  account.Repository
	ledger    ledger.Repository
	loans     loan.Repository
	directory directory.Repository
	tx        txn.Manager
	close     func()
}

func initializeStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.Database.InMemory {
		logger.Info("Using in-memory storage with reference branches and staff")
		db := memory.NewDB()
		db.SeedReference()
		return &storage{
			customers: memory.NewCustomerRepository(db),
			accounts:  memory.NewAccountRepository(db),
			ledger:    memory.NewLedgerRepository(db),
			loans:     memory.NewLoanRepository(db),
			directory: memory.NewDirectoryRepository(db),
			tx:        db,
			close:     func() {},
		}, nil
	}

	if cfg.Database.Migrate {
		logger.Info("Running database migrations...")
		if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	txManager := postgres.NewTxManager(dbPool, cfg.Database.LockTimeout, logger)
	return &storage{
		customers: postgres.NewCustomerRepository(dbPool, logger),
		accounts:  postgres.NewAccountRepository(dbPool, txManager, logger),
		ledger:    postgres.NewLedgerRepository(dbPool, logger),
		loans:     postgres.NewLoanRepository(dbPool, txManager, logger),
		directory: postgres.NewDirectoryRepository(dbPool, logger),
		tx:        txManager,
		close: func() {
			logger.Info("Closing database connection pool...")
			dbPool.Close()
		},
	}, nil
}

type appServices struct {
	api.Services
	directory *directory.Service
}

func initializeServices(cfg *config.Config, store *storage, notifier event.Notifier, logger *slog.Logger) (*appServices, error) {
	logger.Info("Initializing application components...")
	floors, err := ledger.NewFloors(cfg.Ledger.CheckingOverdraft)
	if err != nil {
		return nil, err
	}

	dir := directory.NewService(store.directory, directory.NewRandomSelector(time.Now().UnixNano()), store.tx, logger)
	ledgerStore := ledger.NewStore(store.ledger, store.tx, floors, logger)
	accounts := account.NewAccountService(store.accounts, ledgerStore, dir, store.tx, logger)
	loans := loan.NewLoanService(store.loans, ledgerStore, dir, notifier, store.tx, cfg.Loan.DefaultMonths, logger)
	customers := customer.NewCustomerService(store.customers, accounts, loans, dir, store.tx, logger)

	return &appServices{
		Services: api.Services{
			Customers: customers,
			Accounts:  accounts,
			Loans:     loans,
			Bankers:   dir,
			Staff:     dir,
		},
		directory: dir,
	}, nil
}

func initializeNotifier(cfg *config.Config, conn *amqp.Connection, logger *slog.Logger) *event.AsyncNotifier {
	var publisher event.Publisher = event.NewLogPublisher(logger)
	if conn != nil {
		rabbitPublisher, err := event.NewRabbitMQPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
		if err != nil {
			logger.Error("Failed to create RabbitMQ publisher, notifications will only be logged", "error", err)
		} else {
			publisher = rabbitPublisher
		}
	}
	return event.NewAsyncNotifier(publisher, cfg.Notifier.Workers, cfg.Notifier.QueueSize, cfg.Notifier.PublishTimeout, logger)
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	client, err := cache.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Error("Redis unavailable, rate limiting stays in-process", "error", err)
		return nil
	}
	return client
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, notifier *event.AsyncNotifier, rabbitConn *amqp.Connection,
	redisClient *redis.Client, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	if notifier != nil {
		logger.Info("Draining notification queue...")
		if err := notifier.Close(shutdownCtx); err != nil {
			logger.Warn("Notification queue not fully drained", "error", err)
		}
	}
	if rabbitConn != nil {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", "error", err)
		}
	}
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, overdueJob *batch.OverdueScanJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.OverdueScanSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 2 * * *"
		logger.Warn("Overdue scan schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.OverdueScanTimeout
	if jobTimeout <= 0 {
		jobTimeout = time.Hour
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "OverdueScan")
		jobLogger.Info("Cron triggered: Running overdue installment scan.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		result, runErr := overdueJob.Run(ctx)
		if runErr != nil {
			jobLogger.Error("Overdue scan finished with error", slog.Any("error", runErr))
			return
		}
		jobLogger.Info("Overdue scan finished successfully.",
			"loans_scanned", result.LoansScanned, "loans_overdue", result.LoansOverdue)
	}))

	if err != nil {
		logger.Error("Failed to schedule overdue scan", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled overdue scan", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}

func rabbitMQURI(cfg config.RabbitMQConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("RabbitMQ host is not configured")
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return "", errors.New("RabbitMQ username and password must be provided together")
	}
	port := cfg.Port
	if port == 0 {
		port = 5672
	}
	if cfg.Username != "" {
		return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Host, port), nil
	}
	return fmt.Sprintf("amqp://%s:%d/", cfg.Host, port), nil
}

func connectRabbitMQ(uri string, attempts int, logger *slog.Logger) (*amqp.Connection, error) {
	var err error
	for i := 1; i <= attempts; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")
			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking, 1))
				closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))
				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					if e != nil {
						logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
					}
				}
			}()
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", attempts),
			slog.Any("error", err),
		)
		if i < attempts {
			time.Sleep(time.Duration(i*2) * time.Second)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
}

// setupRabbitMQ returns nil when publishing is disabled or the broker is
// unreachable; notifications then go to the log only.
func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, notifications will be logged")
		return nil
	}
	uri, err := rabbitMQURI(cfg.RabbitMQ)
	if err != nil {
		logger.Error("Invalid RabbitMQ configuration", "error", err)
		return nil
	}
	conn, err := connectRabbitMQ(uri, 5, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		return nil
	}
	return conn
}
