package main

import (
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/event"
	"bank-backoffice/internal/infrastructure/logging"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeApp(t *testing.T) {
	cfg, log := initializeApp()

	assert.NotNil(t, cfg, "Config should not be nil")
	assert.NotNil(t, log, "Logger should not be nil")
}

func TestStartServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
	}
	logger := logging.NewLogger(config.LoggerConfig{})

	srv, serverErrors, shutdownChan := startServer(cfg, http.NewServeMux(), logger)
	t.Cleanup(func() { _ = srv.Close() })

	assert.NotNil(t, srv, "Server should not be nil")
	assert.NotNil(t, serverErrors, "Server errors channel should not be nil")
	assert.NotNil(t, shutdownChan, "Shutdown channel should not be nil")
}

func TestHandleShutdown(t *testing.T) {
	logger := discardLogger()
	notifier := event.NewAsyncNotifier(event.NewLogPublisher(logger), 1, 4, time.Second, logger)
	shutdownChan := make(chan os.Signal, 1)
	shutdownChan <- syscall.SIGINT

	assert.NotPanics(t, func() {
		handleShutdown(&http.Server{}, cron.New(), notifier, nil, nil, shutdownChan, make(chan error, 1), logger)
	})
}

func TestInitializeServices_InMemory(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{InMemory: true},
		Loan:     config.LoanConfig{DefaultMonths: 12},
		Ledger:   config.LedgerConfig{CheckingOverdraft: "100"},
	}
	logger := discardLogger()

	store, err := initializeStorage(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer store.close()

	services, err := initializeServices(cfg, store, initializeNotifier(cfg, nil, logger), logger)
	require.NoError(t, err)
	assert.NotNil(t, services.Customers)
	assert.NotNil(t, services.Accounts)
	assert.NotNil(t, services.Loans)
	assert.NotNil(t, services.Bankers)
	assert.Nil(t, services.Limiter)
}

func TestInitializeServices_BadOverdraft(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{InMemory: true},
		Ledger:   config.LedgerConfig{CheckingOverdraft: "-5"},
	}
	logger := discardLogger()

	store, err := initializeStorage(context.Background(), cfg, logger)
	require.NoError(t, err)

	_, err = initializeServices(cfg, store, initializeNotifier(cfg, nil, logger), logger)
	assert.Error(t, err)
}

func TestRabbitMQURI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RabbitMQConfig
		want    string
		wantErr bool
	}{
		{"with credentials", config.RabbitMQConfig{Host: "mq", Port: 5673, Username: "u", Password: "p"}, "amqp://u:p@mq:5673/", false},
		{"default port", config.RabbitMQConfig{Host: "mq"}, "amqp://mq:5672/", false},
		{"missing host", config.RabbitMQConfig{}, "", true},
		{"half credentials", config.RabbitMQConfig{Host: "mq", Username: "u"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rabbitMQURI(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupRabbitMQ_Disabled(t *testing.T) {
	assert.Nil(t, setupRabbitMQ(&config.Config{}, discardLogger()))
}

func TestStartBatchJobs(t *testing.T) {
	c := startBatchJobs(&config.Config{Batch: config.BatchConfig{OverdueScanSchedule: "@every 1h"}}, discardLogger(), nil)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
