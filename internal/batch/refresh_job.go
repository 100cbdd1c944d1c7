package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/domain/portfolio"
	"loan-portfolio/internal/event"
	"loan-portfolio/internal/infrastructure/monitoring"
	"loan-portfolio/internal/pkg/apperrors"
	"loan-portfolio/internal/snapshot"
)

const riskUpdateWorkers = 8

type RefreshPortfolioJob struct {
	loanRepo        loan.Repository
	borrowerService borrower.BorrowerService
	store           *snapshot.Store
	publisher       event.EventPublisher
	logger          *slog.Logger

	running sync.Mutex
}

// RefreshResult summarizes one run of the job.
type RefreshResult struct {
	LoanCount        int
	BorrowerCount    int
	RiskChanges      int
	UnknownBorrowers int
	InvalidLoans     int
	Errors           int
	TakenAt          time.Time
	Duration         time.Duration
}

func NewRefreshPortfolioJob(
	loanRepo loan.Repository,
	borrowerSvc borrower.BorrowerService,
	store *snapshot.Store,
	publisher event.EventPublisher,
	logger *slog.Logger,
) *RefreshPortfolioJob {
	if loanRepo == nil || borrowerSvc == nil || store == nil || publisher == nil || logger == nil {
		panic("RefreshPortfolioJob dependencies cannot be nil")
	}
	j := &RefreshPortfolioJob{
		loanRepo:        loanRepo,
		borrowerService: borrowerSvc,
		store:           store,
		publisher:       publisher,
		logger:          logger.With("job", "RefreshPortfolio"),
	}
	store.Subscribe(j.observe)
	return j
}

// Run rebuilds the portfolio snapshot, persists borrower risk levels that
// moved and announces the refresh. Concurrent calls fail fast with
// apperrors.ErrConflict.
func (j *RefreshPortfolioJob) Run(ctx context.Context) (RefreshResult, error) {
	if !j.running.TryLock() {
		j.logger.WarnContext(ctx, "Portfolio refresh already in progress, skipping.")
		return RefreshResult{}, fmt.Errorf("%w: portfolio refresh already in progress", apperrors.ErrConflict)
	}
	defer j.running.Unlock()

	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting portfolio refresh job.")

	loans, err := j.loanRepo.ListLoans(ctx)
	if err != nil {
		monitoring.RecordRefresh("error", time.Since(startTime))
		j.logger.ErrorContext(ctx, "Failed to load loans, aborting job.", slog.Any("error", err))
		return RefreshResult{}, fmt.Errorf("cannot refresh portfolio, failed to load loans: %w", err)
	}

	snap := j.store.Refresh(loans)
	result := RefreshResult{
		LoanCount:     len(snap.Loans),
		BorrowerCount: len(snap.Borrowers),
		InvalidLoans:  len(snap.Rejected),
		TakenAt:       snap.TakenAt,
	}
	for _, rejectErr := range snap.Rejected {
		j.logger.WarnContext(ctx, "Loan excluded from portfolio snapshot", slog.Any("error", rejectErr))
	}

	changes, unknown, errCount := j.syncRiskLevels(ctx, snap)
	result.RiskChanges = changes
	result.UnknownBorrowers = unknown
	result.Errors = errCount

	refreshed := event.PortfolioRefreshedEvent{
		EventID:            event.NewEventID(),
		LoanCount:          snap.Summary.LoanCount,
		BorrowerCount:      snap.Summary.BorrowerCount,
		TotalOutstanding:   snap.Summary.TotalOutstanding.StringFixed(2),
		NonPerformingCount: snap.Summary.NonPerformingCount,
		NPLRatio:           snap.Summary.NPLRatio.StringFixed(2),
		RiskChanges:        changes,
		TakenAt:            snap.TakenAt,
		Timestamp:          time.Now().UTC(),
	}
	if err := j.publisher.PublishPortfolioRefreshed(ctx, refreshed); err != nil {
		j.logger.ErrorContext(ctx, "Failed to publish portfolio refreshed event", slog.Any("error", err))
		result.Errors++
	}

	result.Duration = time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", result.Duration),
		slog.Int("loans", result.LoanCount),
		slog.Int("borrowers", result.BorrowerCount),
		slog.Int("risk_changes", result.RiskChanges),
		slog.Int("unknown_borrowers", result.UnknownBorrowers),
		slog.Int("invalid_loans", result.InvalidLoans),
		slog.Int("errors_encountered", result.Errors),
	)

	if result.Errors > 0 {
		monitoring.RecordRefresh("partial", result.Duration)
		summaryLog.WarnContext(ctx, "Portfolio refresh job finished with errors.")
		return result, fmt.Errorf("portfolio refresh completed with %d errors", result.Errors)
	}
	monitoring.RecordRefresh("success", result.Duration)
	if result.InvalidLoans > 0 {
		summaryLog.WarnContext(ctx, "Portfolio refresh job finished, some loans were excluded as invalid.")
		return result, nil
	}
	summaryLog.InfoContext(ctx, "Portfolio refresh job finished successfully.")
	return result, nil
}

func (j *RefreshPortfolioJob) syncRiskLevels(ctx context.Context, snap *snapshot.Snapshot) (changes, unknown, errCount int) {
	borrowers, err := j.borrowerService.ListBorrowers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list borrowers, risk levels not synchronized.", slog.Any("error", err))
		return 0, 0, 1
	}
	stored := make(map[int64]portfolio.RiskLevel, len(borrowers))
	for _, b := range borrowers {
		stored[b.ID] = b.RiskLevel
	}

	var changed, failed atomic.Int32
	var wg sync.WaitGroup
	sem := make(chan struct{}, riskUpdateWorkers)

	for _, rollup := range snap.BorrowerRollups() {
		previous, ok := stored[rollup.BorrowerID]
		if !ok {
			j.logger.WarnContext(ctx, "Loan references unknown borrower (data inconsistency?)", slog.Int64("borrowerID", rollup.BorrowerID))
			unknown++
			continue
		}
		if previous == rollup.RiskLevel {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(r portfolio.BorrowerRollup, previous portfolio.RiskLevel) {
			defer wg.Done()
			defer func() { <-sem }()

			logCtx := j.logger.With(slog.Int64("borrowerID", r.BorrowerID))
			updated, err := j.borrowerService.UpdateRiskLevel(ctx, r.BorrowerID, r.RiskLevel)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Borrower removed before risk update", slog.Any("error", err))
				} else {
					logCtx.ErrorContext(ctx, "Failed to update borrower risk level", slog.Any("error", err))
				}
				failed.Add(1)
				return
			}
			if !updated {
				return
			}
			changed.Add(1)

			evt := event.BorrowerRiskChangedEvent{
				EventID:        event.NewEventID(),
				BorrowerID:     r.BorrowerID,
				OldRiskLevel:   string(previous),
				NewRiskLevel:   string(r.RiskLevel),
				MaxDaysPastDue: r.MaxDaysPastDue,
				Timestamp:      time.Now().UTC(),
			}
			if err := j.publisher.PublishBorrowerRiskChanged(ctx, evt); err != nil {
				logCtx.ErrorContext(ctx, "Risk level updated, but FAILED to publish change event", slog.Any("error", err))
				failed.Add(1)
			}
		}(rollup, previous)
	}

	wg.Wait()
	return int(changed.Load()), unknown, int(failed.Load())
}

func (j *RefreshPortfolioJob) observe(prev, next *snapshot.Snapshot) {
	outstanding, _ := next.Summary.TotalOutstanding.Float64()
	npl, _ := next.Summary.NPLRatio.Float64()
	monitoring.SetPortfolioGauges(next.Summary.LoanCount, outstanding, npl)

	if prev != nil && len(prev.Loans) != len(next.Loans) {
		j.logger.Info("Loan book size changed", "previous", len(prev.Loans), "current", len(next.Loans))
	}
}
