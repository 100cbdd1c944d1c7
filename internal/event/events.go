package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RoutingKeyPortfolioRefreshed  = "portfolio.refreshed"
	RoutingKeyBorrowerRiskChanged = "borrower.risk.changed"
)

type EventPublisher interface {
	PublishPortfolioRefreshed(ctx context.Context, event PortfolioRefreshedEvent) error
	PublishBorrowerRiskChanged(ctx context.Context, event BorrowerRiskChangedEvent) error
}

type PortfolioRefreshedEvent struct {
	EventID            string    `json:"eventId"`
	LoanCount          int       `json:"loanCount"`
	BorrowerCount      int       `json:"borrowerCount"`
	TotalOutstanding   string    `json:"totalOutstanding"`
	NonPerformingCount int       `json:"nonPerformingCount"`
	NPLRatio           string    `json:"nplRatio"`
	RiskChanges        int       `json:"riskChanges"`
	TakenAt            time.Time `json:"takenAt"`
	Timestamp          time.Time `json:"timestamp"`
}

type BorrowerRiskChangedEvent struct {
	EventID        string    `json:"eventId"`
	BorrowerID     int64     `json:"borrowerId"`
	OldRiskLevel   string    `json:"oldRiskLevel"`
	NewRiskLevel   string    `json:"newRiskLevel"`
	MaxDaysPastDue int       `json:"maxDaysPastDue"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEventID returns a random identifier consumers can use to deduplicate
// redelivered messages.
func NewEventID() string {
	return uuid.NewString()
}
