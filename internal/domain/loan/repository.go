package loan

import (
	"context"
	"fmt"
	"time"
)

type Repository interface {
	ListLoans(ctx context.Context) ([]Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)
}

// ScheduleCache stores generated schedules. Implementations report a miss with
// found == false and a nil error.
type ScheduleCache interface {
	GetSchedule(ctx context.Context, key string) (schedule []ScheduleEntry, found bool, err error)

	SetSchedule(ctx context.Context, key string, schedule []ScheduleEntry) error
}

// ScheduleCacheKey changes whenever the loan record changes or the
// observation day rolls over, since either can alter entry statuses.
func ScheduleCacheKey(l *Loan, asOf time.Time) string {
	return fmt.Sprintf("schedule:%d:%d:%s", l.ID, l.UpdatedAt.UnixNano(), asOf.UTC().Format(time.DateOnly))
}
