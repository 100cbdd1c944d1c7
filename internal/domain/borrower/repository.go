package borrower

import (
	"context"

	"loan-portfolio/internal/domain/portfolio"
)

type Repository interface {
	ListBorrowers(ctx context.Context) ([]Borrower, error)

	GetBorrowerByID(ctx context.Context, borrowerID int64) (*Borrower, error)

	SetRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) error
}
