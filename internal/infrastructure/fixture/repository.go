package fixture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/domain/portfolio"
	"loan-portfolio/internal/pkg/apperrors"
)

// LoanRepository serves a generated loan book from memory.
type LoanRepository struct {
	loans  []loan.Loan
	byID   map[int64]int
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(ds Dataset, logger *slog.Logger) *LoanRepository {
	r := &LoanRepository{
		loans:  ds.Loans,
		byID:   make(map[int64]int, len(ds.Loans)),
		logger: logger.With("component", "FixtureLoanRepository"),
	}
	for i, l := range ds.Loans {
		r.byID[l.ID] = i
	}
	return r
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]loan.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]loan.Loan, len(r.loans))
	copy(out, r.loans)
	return out, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := r.byID[loanID]
	if !ok {
		r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
		return nil, apperrors.ErrNotFound
	}
	l := r.loans[i]
	return &l, nil
}

// BorrowerRepository keeps generated borrowers in memory. Risk level updates
// are retained for the life of the process.
type BorrowerRepository struct {
	mu        sync.RWMutex
	borrowers []borrower.Borrower
	byID      map[int64]int
	logger    *slog.Logger
}

var _ borrower.Repository = (*BorrowerRepository)(nil)

func NewBorrowerRepository(ds Dataset, logger *slog.Logger) *BorrowerRepository {
	r := &BorrowerRepository{
		borrowers: make([]borrower.Borrower, len(ds.Borrowers)),
		byID:      make(map[int64]int, len(ds.Borrowers)),
		logger:    logger.With("component", "FixtureBorrowerRepository"),
	}
	copy(r.borrowers, ds.Borrowers)
	for i, b := range r.borrowers {
		r.byID[b.ID] = i
	}
	return r
}

func (r *BorrowerRepository) ListBorrowers(ctx context.Context) ([]borrower.Borrower, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]borrower.Borrower, len(r.borrowers))
	copy(out, r.borrowers)
	return out, nil
}

func (r *BorrowerRepository) GetBorrowerByID(ctx context.Context, borrowerID int64) (*borrower.Borrower, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[borrowerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	b := r.borrowers[i]
	return &b, nil
}

func (r *BorrowerRepository) SetRiskLevel(ctx context.Context, borrowerID int64, level portfolio.RiskLevel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[borrowerID]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.borrowers[i].RiskLevel = level
	r.borrowers[i].UpdatedAt = time.Now()
	r.logger.DebugContext(ctx, "Risk level stored", "borrower_id", borrowerID, "risk_level", level)
	return nil
}
