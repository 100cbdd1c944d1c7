package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-portfolio/internal/config"

	"github.com/robfig/cron/v3"
)

const (
	defaultRefreshSchedule = "*/15 * * * *"
	defaultRefreshTimeout  = 2 * time.Minute
)

// Runner is the part of a job the scheduler needs.
type Runner interface {
	Run(ctx context.Context) (RefreshResult, error)
}

// StartScheduler registers the portfolio refresh on a new cron scheduler and
// starts it. Each triggered run gets its own timeout.
func StartScheduler(cfg config.PortfolioConfig, job Runner, logger *slog.Logger) (*cron.Cron, error) {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.RefreshSchedule
	if scheduleSpec == "" {
		scheduleSpec = defaultRefreshSchedule
		logger.Warn("Portfolio refresh schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.RefreshTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultRefreshTimeout
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "PortfolioRefresh")
		jobLogger.Info("Cron triggered: Running portfolio refresh job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, runErr := job.Run(ctx); runErr != nil {
			jobLogger.Error("Portfolio refresh job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule portfolio refresh job", "schedule", scheduleSpec, slog.Any("error", err))
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", scheduleSpec, err)
	}
	logger.Info("Scheduled portfolio refresh job", "schedule", scheduleSpec, "job_id", jobID, "timeout", jobTimeout)

	c.Start()
	logger.Info("Cron scheduler started.")
	return c, nil
}

// StopScheduler waits for running jobs to finish or for ctx to expire.
func StopScheduler(ctx context.Context, c *cron.Cron, logger *slog.Logger) {
	if c == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-ctx.Done():
		logger.Warn("Cron scheduler stop timed out.", slog.Any("error", ctx.Err()))
	}
}
