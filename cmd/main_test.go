package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"loan-portfolio/internal/batch"
	"loan-portfolio/internal/config"
	"loan-portfolio/internal/infrastructure/logging"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type runnerFunc func(ctx context.Context) (batch.RefreshResult, error)

func (f runnerFunc) Run(ctx context.Context) (batch.RefreshResult, error) { return f(ctx) }

func fixtureConfig() *config.Config {
	return &config.Config{
		Portfolio: config.PortfolioConfig{
			Source:           config.SourceFixture,
			FixtureSeed:      3,
			FixtureBorrowers: 4,
			FixtureLoans:     9,
		},
	}
}

func TestInitializeApp(t *testing.T) {
	t.Setenv("SERVER_AUTH_JWTSECRET", "test-secret")

	cfg, log := initializeApp()

	require.NotNil(t, cfg, "Config should not be nil")
	assert.NotNil(t, log, "Logger should not be nil")
	assert.Equal(t, config.SourceFixture, cfg.Portfolio.Source)
}

func TestInitializeDataSource_Fixture(t *testing.T) {
	ctx := context.Background()
	source, err := initializeDataSource(ctx, fixtureConfig(), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), testLogger)
	require.NoError(t, err)
	assert.Nil(t, source.pool)

	loans, err := source.loans.ListLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, loans, 9)

	borrowers, err := source.borrowers.ListBorrowers(ctx)
	require.NoError(t, err)
	assert.Len(t, borrowers, 4)
}

func TestInitializeDataSource_Errors(t *testing.T) {
	cfg := fixtureConfig()
	cfg.Portfolio.FixtureBorrowers = 0
	_, err := initializeDataSource(context.Background(), cfg, time.Now(), testLogger)
	assert.Error(t, err)

	cfg.Portfolio.Source = "csv"
	_, err = initializeDataSource(context.Background(), cfg, time.Now(), testLogger)
	assert.ErrorContains(t, err, "unknown portfolio source")
}

func TestInitializeServices_WithoutRedis(t *testing.T) {
	cfg := fixtureConfig()
	source, err := initializeDataSource(context.Background(), cfg, time.Now(), testLogger)
	require.NoError(t, err)

	loanService, borrowerService := initializeServices(source, nil, cfg, testLogger)
	require.NotNil(t, loanService)
	require.NotNil(t, borrowerService)

	l, err := loanService.GetLoan(context.Background(), 1)
	require.NoError(t, err)
	schedule, err := loanService.GetLoanSchedule(context.Background(), l.ID, time.Now())
	require.NoError(t, err)
	assert.Len(t, schedule, l.TermMonths)
}

func TestSetupEventPublisher_Disabled(t *testing.T) {
	conn, publisher := setupEventPublisher(&config.Config{}, testLogger)
	assert.Nil(t, conn)
	assert.NotNil(t, publisher)
}

func TestConnectRabbitMQ_EmptyURL(t *testing.T) {
	_, err := connectRabbitMQ("", 1, testLogger)
	assert.Error(t, err)
}

func TestRunInitialRefresh(t *testing.T) {
	var deadlineSet bool
	runInitialRefresh(runnerFunc(func(ctx context.Context) (batch.RefreshResult, error) {
		_, deadlineSet = ctx.Deadline()
		return batch.RefreshResult{LoanCount: 3}, nil
	}), config.PortfolioConfig{}, testLogger)
	assert.True(t, deadlineSet)

	calls := 0
	runInitialRefresh(runnerFunc(func(ctx context.Context) (batch.RefreshResult, error) {
		calls++
		return batch.RefreshResult{}, errors.New("db down")
	}), config.PortfolioConfig{RefreshTimeout: time.Second}, testLogger)
	assert.Equal(t, 1, calls, "a failed initial refresh is not retried inline")
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
	router := http.NewServeMux()

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)

	assert.NotNil(t, srv, "Server should not be nil")
	assert.NotNil(t, serverErrors, "Server errors channel should not be nil")
	assert.NotNil(t, shutdownChan, "Shutdown channel should not be nil")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestHandleShutdown(t *testing.T) {
	cronScheduler := cron.New()
	cronScheduler.Start()
	srv := &http.Server{}
	shutdownChan := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)

	go func() {
		shutdownChan <- syscall.SIGINT
		serverErrors <- nil
	}()

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, resources{cron: cronScheduler}, shutdownChan, serverErrors, testLogger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("graceful shutdown did not complete")
	}
}
