package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"loan-portfolio/internal/domain/portfolio"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var borrowerRowColumns = []string{"id", "name", "email", "phone", "credit_score", "risk_level", "created_at", "updated_at"}

func setupBorrowerRepo(t *testing.T) (context.Context, *BorrowerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewBorrowerRepository(mockPool, logger), mockPool
}

func TestListBorrowersReturnsAll(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(borrowerRowColumns).
		AddRow(int64(1), "Ayu Santoso", "ayu@example.com", "+62-811-0000-0001", 720, "LOW", now, now).
		AddRow(int64(2), "Budi Wijaya", "budi@example.com", "", 540, "HIGH", now, now)
	mockPool.ExpectQuery(regexp.QuoteMeta(listBorrowersQuery)).WillReturnRows(rows)

	borrowers, err := repo.ListBorrowers(ctx)
	require.NoError(t, err)
	require.Len(t, borrowers, 2)
	assert.Equal(t, "Ayu Santoso", borrowers[0].Name)
	assert.Equal(t, portfolio.RiskHigh, borrowers[1].RiskLevel)
	assert.Equal(t, 540, borrowers[1].CreditScore)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListBorrowersWhenQueryFails(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(listBorrowersQuery)).WillReturnError(errors.New("boom"))

	_, err := repo.ListBorrowers(ctx)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

func TestFindBorrowerByIDReturnOne(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mockPool.ExpectQuery(regexp.QuoteMeta(getBorrowerByIDQuery)).WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(borrowerRowColumns).AddRow(int64(3), "Citra Kusuma", "citra@example.com", "", 610, "MEDIUM", now, now))

	b, err := repo.GetBorrowerByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.ID)
	assert.Equal(t, portfolio.RiskMedium, b.RiskLevel)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindBorrowerByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(getBorrowerByIDQuery)).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetBorrowerByID(ctx, 9)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSetRiskLevelWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(setRiskLevelQuery)).WithArgs("HIGH", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetRiskLevel(ctx, 5, portfolio.RiskHigh)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetRiskLevelWhenBorrowerMissing(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(setRiskLevelQuery)).WithArgs("LOW", int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetRiskLevel(ctx, 6, portfolio.RiskLow)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSetRiskLevelWhenExecFails(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(setRiskLevelQuery)).WithArgs("LOW", int64(6)).
		WillReturnError(errors.New("deadlock detected"))

	err := repo.SetRiskLevel(ctx, 6, portfolio.RiskLow)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}
