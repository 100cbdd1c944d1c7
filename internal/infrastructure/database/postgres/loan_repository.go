package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/infrastructure/monitoring"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `id, borrower_id, product_name, principal, disbursed_amount, interest_rate, term_months,
        monthly_payment, payments_completed, disbursed_at, outstanding_balance, total_paid,
        days_past_due, status, created_at, updated_at`

const (
	listLoansQuery = `
        SELECT ` + loanColumns + `
        FROM loans
        ORDER BY id ASC`

	getLoanByIDQuery = `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE id = $1`
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]loan.Loan, error) {
	status := "success"
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("ListLoans", status, time.Since(startTime)) }()

	rows, err := r.db.Query(ctx, listLoansQuery)
	if err != nil {
		status = "error"
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			status = "error"
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, *l)
	}

	if err = rows.Err(); err != nil {
		status = "error"
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Loaded loans", "count", len(loans))
	return loans, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	status := "success"
	startTime := time.Now()

	l, err := scanLoan(r.db.QueryRow(ctx, getLoanByIDQuery, loanID))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l      loan.Loan
		status string
	)
	err := row.Scan(
		&l.ID, &l.BorrowerID, &l.ProductName, &l.Principal, &l.DisbursedAmount, &l.InterestRate, &l.TermMonths,
		&l.MonthlyPayment, &l.PaymentsCompleted, &l.DisbursedAt, &l.OutstandingBalance, &l.TotalPaid,
		&l.DaysPastDue, &status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status, err = loan.ParseLoanStatus(status)
	if err != nil {
		return nil, fmt.Errorf("loan %d: %w", l.ID, err)
	}
	return &l, nil
}
