package event

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the log instead of a broker. It is used when
// RabbitMQ is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "LogPublisher")}
}

func (p *LogPublisher) PublishPortfolioRefreshed(ctx context.Context, event PortfolioRefreshedEvent) error {
	p.logger.InfoContext(ctx, "Portfolio refreshed",
		"eventId", event.EventID,
		"loanCount", event.LoanCount,
		"totalOutstanding", event.TotalOutstanding,
		"nplRatio", event.NPLRatio,
	)
	return nil
}

func (p *LogPublisher) PublishBorrowerRiskChanged(ctx context.Context, event BorrowerRiskChangedEvent) error {
	p.logger.InfoContext(ctx, "Borrower risk changed",
		"eventId", event.EventID,
		"borrowerId", event.BorrowerID,
		"from", event.OldRiskLevel,
		"to", event.NewRiskLevel,
	)
	return nil
}
