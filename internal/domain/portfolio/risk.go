package portfolio

import (
	"fmt"
	"strings"

	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

const (
	mediumRiskDaysPastDue = 30
	highRiskDaysPastDue   = 90
)

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	}
	return "", apperrors.NewValidationError("riskLevel", fmt.Sprintf("unknown risk level %q", s))
}

func (r RiskLevel) severity() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of two levels.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.severity() > r.severity() {
		return other
	}
	return r
}

// ClassifyRisk maps a loan's delinquency to a risk level. Defaulted loans are
// always high risk regardless of their day count.
func ClassifyRisk(daysPastDue int, status loan.LoanStatus) RiskLevel {
	switch {
	case status == loan.StatusDefaulted:
		return RiskHigh
	case daysPastDue > highRiskDaysPastDue:
		return RiskHigh
	case daysPastDue > mediumRiskDaysPastDue:
		return RiskMedium
	default:
		return RiskLow
	}
}

// IsNonPerforming reports whether a loan counts toward the NPL ratio.
func IsNonPerforming(l loan.Loan) bool {
	return l.Status == loan.StatusDefaulted || l.DaysPastDue > highRiskDaysPastDue
}
