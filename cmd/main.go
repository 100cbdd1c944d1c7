package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "loan-portfolio/docs"
	"loan-portfolio/internal/api"
	"loan-portfolio/internal/batch"
	"loan-portfolio/internal/config"
	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/event"
	"loan-portfolio/internal/infrastructure/cache"
	"loan-portfolio/internal/infrastructure/database/postgres"
	"loan-portfolio/internal/infrastructure/fixture"
	"loan-portfolio/internal/infrastructure/logging"
	"loan-portfolio/internal/snapshot"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// dataSource is the loan book the service reads from. pool is nil for the
// in-memory fixture book.
type dataSource struct {
	loans     loan.Repository
	borrowers borrower.Repository
	pool      *pgxpool.Pool
}

// resources are the long-lived connections released on shutdown.
type resources struct {
	cron   *cron.Cron
	router *api.Router
	rabbit *amqp.Connection
	redis  *redis.Client
	pool   *pgxpool.Pool
}

// @title Loan Portfolio API
// @version 1.0
// @description Read-only loan portfolio analytics: amortization schedules, borrower and product rollups, delinquency buckets and a derived transaction ledger.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	source, err := initializeDataSource(context.Background(), cfg, time.Now(), logger)
	if err != nil {
		logger.Error("Failed to initialize loan data source", "source", cfg.Portfolio.Source, "error", err)
		os.Exit(1)
	}

	redisClient := initializeRedisClient(cfg, logger)
	rabbitConn, publisher := setupEventPublisher(cfg, logger)

	loanService, borrowerService := initializeServices(source, redisClient, cfg, logger)
	store := snapshot.NewStore()
	refreshJob := batch.NewRefreshPortfolioJob(source.loans, borrowerService, store, publisher, logger)

	runInitialRefresh(refreshJob, cfg.Portfolio, logger)
	cronScheduler := startBatchJobs(cfg, refreshJob, logger)

	router := api.SetupRouter(api.Services{
		Loans:     loanService,
		Borrowers: borrowerService,
		Snapshots: store,
		Refresher: refreshJob,
	}, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, resources{
		cron:   cronScheduler,
		router: router,
		rabbit: rabbitConn,
		redis:  redisClient,
		pool:   source.pool,
	}, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed(), "portfolio_source", cfg.Portfolio.Source)

	return cfg, logger
}

func initializeDataSource(ctx context.Context, cfg *config.Config, now time.Time, logger *slog.Logger) (dataSource, error) {
	switch cfg.Portfolio.Source {
	case config.SourcePostgres:
		return initializeDatabase(ctx, cfg, logger)
	case config.SourceFixture:
		p := cfg.Portfolio
		ds, err := fixture.Generate(p.FixtureSeed, p.FixtureBorrowers, p.FixtureLoans, now)
		if err != nil {
			return dataSource{}, err
		}
		logger.Info("Generated fixture loan book", "seed", p.FixtureSeed, "borrowers", len(ds.Borrowers), "loans", len(ds.Loans), "as_of", ds.AsOf.Format(time.DateOnly))
		return dataSource{
			loans:     fixture.NewLoanRepository(ds, logger),
			borrowers: fixture.NewBorrowerRepository(ds, logger),
		}, nil
	default:
		return dataSource{}, fmt.Errorf("unknown portfolio source %q", cfg.Portfolio.Source)
	}
}

func initializeDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dataSource, error) {
	logger.Info("Initializing database connection pool...")
	if cfg.Database.Migrate {
		if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
			return dataSource{}, err
		}
	}
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return dataSource{}, err
	}
	return dataSource{
		loans:     postgres.NewLoanRepository(dbPool, logger),
		borrowers: postgres.NewBorrowerRepository(dbPool, logger),
		pool:      dbPool,
	}, nil
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, schedules will not be cached.")
		return nil
	}
	rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to initialize Redis client", "error", err)
		os.Exit(1)
	}
	return rdb
}

func initializeServices(source dataSource, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) (loan.LoanService, borrower.BorrowerService) {
	logger.Info("Initializing application components...")
	var scheduleCache loan.ScheduleCache
	if redisClient != nil {
		scheduleCache = cache.NewScheduleCache(redisClient, cfg.Redis.ScheduleTTL, logger)
	}
	return loan.NewLoanService(source.loans, scheduleCache, logger),
		borrower.NewBorrowerService(source.borrowers, logger)
}

func setupEventPublisher(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.EventPublisher) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, portfolio events will be logged only.")
		return nil, event.NewLogPublisher(logger)
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL, 5, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, falling back to log publisher", "error", err)
		return nil, event.NewLogPublisher(logger)
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to set up RabbitMQ publisher, falling back to log publisher", "error", err)
		_ = conn.Close()
		return nil, event.NewLogPublisher(logger)
	}
	return conn, publisher
}

func connectRabbitMQ(uri string, retryCount int, logger *slog.Logger) (*amqp.Connection, error) {
	if uri == "" {
		return nil, fmt.Errorf("RabbitMQ URL is not configured")
	}

	var conn *amqp.Connection
	var err error
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
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
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		if i < retryCount {
			time.Sleep(time.Duration(i*2) * time.Second)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

// runInitialRefresh builds the first snapshot before the server accepts
// traffic. A failure is logged and left to the scheduler to retry.
func runInitialRefresh(job batch.Runner, cfg config.PortfolioConfig, logger *slog.Logger) {
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := job.Run(ctx)
	if err != nil {
		logger.Warn("Initial portfolio refresh failed, serving without a snapshot until the next run", slog.Any("error", err))
		return
	}
	logger.Info("Initial portfolio snapshot ready", "loans", result.LoanCount, "borrowers", result.BorrowerCount, "duration", result.Duration)
}

func startBatchJobs(cfg *config.Config, job batch.Runner, logger *slog.Logger) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c, err := batch.StartScheduler(cfg.Portfolio, job, logger)
	if err != nil {
		logger.Error("Failed to start batch job scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	return c
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

func handleShutdown(srv *http.Server, res resources, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)
	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	cronCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	batch.StopScheduler(cronCtx, res.cron, logger)
	cancel()

	shutdownHTTPServer(srv, serverErrors, logger)
	if res.router != nil {
		res.router.Close()
	}
	closeRabbitMQConnection(res.rabbit, logger)
	closeRedisClient(res.redis, logger)
	closeDatabase(res.pool, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
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

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
		return
	}
	if rabbitConn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := rabbitConn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	} else {
		logger.Info("RabbitMQ connection closed.")
	}
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
	} else {
		logger.Info("Redis client connection closed.")
	}
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	if dbPool == nil {
		return
	}
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}
