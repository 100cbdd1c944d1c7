package borrower

import (
	"context"

	"loan-portfolio/internal/domain/portfolio"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListBorrowers(ctx context.Context) ([]Borrower, error) {
	args := m.Called(ctx)
	if borrowers, ok := args.Get(0).([]Borrower); ok {
		return borrowers, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetBorrowerByID(ctx context.Context, borrowerID int64) (*Borrower, error) {
	args := m.Called(ctx, borrowerID)
	if b, ok := args.Get(0).(*Borrower); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) SetRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) error {
	args := m.Called(ctx, borrowerID, level)
	return args.Error(0)
}
