package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/portfolio"
	"loan-portfolio/internal/infrastructure/monitoring"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const (
	listBorrowersQuery = `
        SELECT id, name, email, phone, credit_score, risk_level, created_at, updated_at
        FROM borrowers
        ORDER BY id ASC`

	getBorrowerByIDQuery = `
        SELECT id, name, email, phone, credit_score, risk_level, created_at, updated_at
        FROM borrowers
        WHERE id = $1`

	setRiskLevelQuery = `UPDATE borrowers SET risk_level = $1, updated_at = NOW() WHERE id = $2`
)

type BorrowerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ borrower.Repository = (*BorrowerRepository)(nil)

func NewBorrowerRepository(db DBPool, logger *slog.Logger) *BorrowerRepository {
	if db == nil {
		panic("DBPool cannot be nil for BorrowerRepository")
	}
	return &BorrowerRepository{
		db:     db,
		logger: logger.With("component", "BorrowerRepository"),
	}
}

func (r *BorrowerRepository) ListBorrowers(ctx context.Context) ([]borrower.Borrower, error) {
	startTime := time.Now()
	rows, err := r.db.Query(ctx, listBorrowersQuery)
	if err != nil {
		monitoring.RecordDBQuery("ListBorrowers", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query borrowers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query borrowers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	borrowers := make([]borrower.Borrower, 0)
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			monitoring.RecordDBQuery("ListBorrowers", "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan borrower row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan borrower row: %w", apperrors.ErrDatabase, err)
		}
		borrowers = append(borrowers, *b)
	}

	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("ListBorrowers", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Error iterating borrower rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating borrower rows: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("ListBorrowers", "success", time.Since(startTime))
	r.logger.DebugContext(ctx, "Finished listing borrowers", slog.Int("count", len(borrowers)))
	return borrowers, nil
}

func (r *BorrowerRepository) GetBorrowerByID(ctx context.Context, borrowerID int64) (*borrower.Borrower, error) {
	startTime := time.Now()
	b, err := scanBorrower(r.db.QueryRow(ctx, getBorrowerByIDQuery, borrowerID))
	if err != nil {
		monitoring.RecordDBQuery("GetBorrowerByID", "error", time.Since(startTime))
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Borrower not found", slog.Int64("borrowerID", borrowerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan borrower by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get borrower by ID: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("GetBorrowerByID", "success", time.Since(startTime))
	return b, nil
}

func (r *BorrowerRepository) SetRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) error {
	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, setRiskLevelQuery, string(level), borrowerID)
	if err != nil {
		monitoring.RecordDBQuery("SetRiskLevel", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to execute update risk level", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update risk level: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("SetRiskLevel", "success", time.Since(startTime))

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update risk level affected zero rows, borrower likely not found", slog.Int64("borrowerID", borrowerID))
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Borrower risk level updated successfully", slog.Int64("borrowerID", borrowerID), slog.String("riskLevel", string(level)))
	return nil
}

func scanBorrower(row pgx.Row) (*borrower.Borrower, error) {
	var (
		b    borrower.Borrower
		risk string
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.CreditScore, &risk, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	level, err := portfolio.ParseRiskLevel(risk)
	if err != nil {
		return nil, fmt.Errorf("borrower %d: %w", b.ID, err)
	}
	b.RiskLevel = level
	return &b, nil
}
