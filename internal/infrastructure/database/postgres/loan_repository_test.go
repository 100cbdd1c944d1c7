package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var loanRowColumns = []string{
	"id", "borrower_id", "product_name", "principal", "disbursed_amount", "interest_rate", "term_months",
	"monthly_payment", "payments_completed", "disbursed_at", "outstanding_balance", "total_paid",
	"days_past_due", "status", "created_at", "updated_at",
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewLoanRepository(mockPool, logger), mockPool
}

func addLoanRow(rows *pgxmock.Rows, id, borrowerID int64, status string) *pgxmock.Rows {
	disbursed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, borrowerID, "SME", decimal.RequireFromString("3000000.00"), decimal.RequireFromString("2970000.00"),
		decimal.RequireFromString("12.0000"), 24, decimal.RequireFromString("141250.00"), 4, disbursed,
		decimal.RequireFromString("2550000.00"), decimal.RequireFromString("565000.00"), 0, status, disbursed, disbursed,
	)
}

func TestListLoansReturnsAllRows(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	rows := pgxmock.NewRows(loanRowColumns)
	addLoanRow(rows, 1, 10, "ACTIVE")
	addLoanRow(rows, 2, 11, "OVERDUE")
	mockPool.ExpectQuery(regexp.QuoteMeta(listLoansQuery)).WillReturnRows(rows)

	loans, err := repo.ListLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, int64(1), loans[0].ID)
	assert.Equal(t, loan.StatusOverdue, loans[1].Status)
	assert.Equal(t, "3000000", loans[0].Principal.String())
	assert.Equal(t, 24, loans[0].TermMonths)
	assert.Equal(t, 4, loans[0].PaymentsCompleted)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListLoansWhenQueryFails(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(listLoansQuery)).WillReturnError(errors.New("connection refused"))

	_, err := repo.ListLoans(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListLoansRejectsUnknownStatus(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	rows := pgxmock.NewRows(loanRowColumns)
	addLoanRow(rows, 1, 10, "WRITTEN_OFF")
	mockPool.ExpectQuery(regexp.QuoteMeta(listLoansQuery)).WillReturnRows(rows)

	_, err := repo.ListLoans(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetLoanByIDReturnOne(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	rows := pgxmock.NewRows(loanRowColumns)
	addLoanRow(rows, 7, 10, "DEFAULTED")
	mockPool.ExpectQuery(regexp.QuoteMeta(getLoanByIDQuery)).WithArgs(int64(7)).WillReturnRows(rows)

	l, err := repo.GetLoanByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), l.ID)
	assert.Equal(t, loan.StatusDefaulted, l.Status)
	assert.Equal(t, "2970000", l.Disbursed().String())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetLoanByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(getLoanByIDQuery)).WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetLoanByID(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetLoanByIDWhenDatabaseFails(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(getLoanByIDQuery)).WithArgs(int64(1)).WillReturnError(errors.New("timeout"))

	_, err := repo.GetLoanByID(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
