package borrower

import (
	"time"

	"loan-portfolio/internal/domain/portfolio"
)

type Borrower struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	CreditScore int
	RiskLevel   portfolio.RiskLevel
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetRiskLevel records a new classification and reports whether it changed.
func (b *Borrower) SetRiskLevel(level portfolio.RiskLevel) bool {
	if b.RiskLevel == level {
		return false
	}
	b.RiskLevel = level
	b.UpdatedAt = time.Now()
	return true
}
