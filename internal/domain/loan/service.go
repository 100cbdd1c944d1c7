package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-portfolio/internal/infrastructure/monitoring"
	"loan-portfolio/internal/pkg/apperrors"
)

type LoanService interface {
	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, filter Filter) ([]Loan, error)

	ListOverdueLoans(ctx context.Context) ([]Loan, error)

	GetLoanSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]ScheduleEntry, error)
}

type loanServiceImpl struct {
	repo   Repository
	cache  ScheduleCache
	logger *slog.Logger
}

// NewLoanService wires the loan read service. cache may be nil, in which case
// schedules are generated on every request.
func NewLoanService(r Repository, cache ScheduleCache, logger *slog.Logger) LoanService {
	if r == nil {
		panic("loan repository cannot be nil")
	}
	return &loanServiceImpl{repo: r, cache: cache, logger: logger.With("component", "LoanService")}
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.DebugContext(ctx, "Getting loan details", "loanID", loanID)
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, filter Filter) ([]Loan, error) {
	s.logger.DebugContext(ctx, "Listing loans", "status", filter.Status, "borrowerID", filter.BorrowerID, "product", filter.ProductName)
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "error", err)
		return nil, fmt.Errorf("%w: failed to list loans: %v", apperrors.ErrInternalServer, err)
	}
	return Apply(loans, filter), nil
}

func (s *loanServiceImpl) ListOverdueLoans(ctx context.Context) ([]Loan, error) {
	return s.ListLoans(ctx, Filter{OverdueOnly: true})
}

func (s *loanServiceImpl) GetLoanSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]ScheduleEntry, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	key := ScheduleCacheKey(l, asOf)
	if cached, ok := s.lookupSchedule(ctx, key); ok {
		return cached, nil
	}

	schedule, err := GenerateSchedule(*l, asOf)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to generate schedule", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to generate schedule for loan %d: %w", loanID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetSchedule(ctx, key, schedule); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache schedule", "loanID", loanID, "error", err)
		}
	}
	return schedule, nil
}

func (s *loanServiceImpl) lookupSchedule(ctx context.Context, key string) ([]ScheduleEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	schedule, found, err := s.cache.GetSchedule(ctx, key)
	switch {
	case err != nil:
		monitoring.RecordCacheLookup("error")
		s.logger.WarnContext(ctx, "Schedule cache lookup failed, regenerating", "key", key, "error", err)
		return nil, false
	case !found:
		monitoring.RecordCacheLookup("miss")
		return nil, false
	default:
		monitoring.RecordCacheLookup("hit")
		return schedule, true
	}
}
