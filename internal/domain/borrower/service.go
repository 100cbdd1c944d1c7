package borrower

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loan-portfolio/internal/domain/portfolio"
	"loan-portfolio/internal/pkg/apperrors"
)

const borrowerNotFound = "Borrower not found by repository"

type BorrowerService interface {
	GetBorrower(ctx context.Context, borrowerID int64) (*Borrower, error)

	ListBorrowers(ctx context.Context) ([]Borrower, error)

	// UpdateRiskLevel persists a new classification. It reports false without
	// writing when the stored level already matches.
	UpdateRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) (bool, error)
}

var _ BorrowerService = (*borrowerServiceImpl)(nil)

type borrowerServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewBorrowerService(repo Repository, logger *slog.Logger) BorrowerService {
	if repo == nil {
		panic("borrower repository cannot be nil")
	}
	return &borrowerServiceImpl{
		repo:   repo,
		logger: logger.With(slog.String("component", "BorrowerService")),
	}
}

func (s *borrowerServiceImpl) GetBorrower(ctx context.Context, borrowerID int64) (*Borrower, error) {
	logger := s.logger.With(slog.Int64("borrowerID", borrowerID))
	logger.DebugContext(ctx, "Getting borrower")

	b, err := s.repo.GetBorrowerByID(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, borrowerNotFound)
			return nil, fmt.Errorf("%w: borrower with ID %d not found", apperrors.ErrNotFound, borrowerID)
		}
		logger.ErrorContext(ctx, "Repository error finding borrower", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get borrower %d: %v", apperrors.ErrInternalServer, borrowerID, err)
	}
	return b, nil
}

func (s *borrowerServiceImpl) ListBorrowers(ctx context.Context) ([]Borrower, error) {
	borrowers, err := s.repo.ListBorrowers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing borrowers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list borrowers: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.DebugContext(ctx, "Listed borrowers", slog.Int("count", len(borrowers)))
	return borrowers, nil
}

func (s *borrowerServiceImpl) UpdateRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) (bool, error) {
	logger := s.logger.With(slog.Int64("borrowerID", borrowerID), slog.String("riskLevel", string(level)))

	if _, err := portfolio.ParseRiskLevel(string(level)); err != nil {
		logger.WarnContext(ctx, "Rejected unknown risk level")
		return false, err
	}

	current, err := s.GetBorrower(ctx, borrowerID)
	if err != nil {
		return false, err
	}
	if !current.SetRiskLevel(level) {
		logger.DebugContext(ctx, "Risk level unchanged, skipping save")
		return false, nil
	}

	if err := s.repo.SetRiskLevel(ctx, borrowerID, level); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, "Borrower disappeared before risk level update")
			return false, fmt.Errorf("%w: borrower with ID %d not found", apperrors.ErrNotFound, borrowerID)
		}
		logger.ErrorContext(ctx, "Repository failed to save risk level", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to update risk level for borrower %d: %v", apperrors.ErrInternalServer, borrowerID, err)
	}

	logger.InfoContext(ctx, "Borrower risk level updated")
	return true, nil
}
