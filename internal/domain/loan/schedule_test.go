package loan

import (
	"testing"
	"time"

	"loan-portfolio/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumPrincipal(schedule []ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range schedule {
		total = total.Add(e.Principal)
	}
	return total
}

func TestGenerateSchedule(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("scenario: 3,000,000 at 12% over 24 months with 4 payments made", func(t *testing.T) {
		l := validLoan()
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		require.Len(t, schedule, 24)

		for i := 0; i < 4; i++ {
			assert.Equal(t, SchedulePaid, schedule[i].Status, "entry %d", i+1)
			require.NotNil(t, schedule[i].PaidAt)
			assert.Equal(t, schedule[i].DueDate, *schedule[i].PaidAt)
		}
		assert.Equal(t, schedule[3].DueDate.AddDate(0, 1, 0), schedule[4].DueDate)

		assert.True(t, schedule[0].Interest.Equal(decimal.NewFromInt(30_000)))
		assert.True(t, schedule[0].Principal.Equal(decimal.NewFromInt(111_250)))

		for i := 1; i < len(schedule); i++ {
			assert.True(t, schedule[i].Interest.LessThanOrEqual(schedule[i-1].Interest),
				"interest of entry %d should not exceed entry %d", i+1, i)
		}
	})

	t.Run("principal portions sum to the principal and balance ends at zero", func(t *testing.T) {
		l := validLoan()
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)

		assert.True(t, sumPrincipal(schedule).Equal(l.Principal), "sum %s", sumPrincipal(schedule))
		assert.True(t, schedule[len(schedule)-1].RemainingBalance.IsZero())
		for _, e := range schedule {
			assert.False(t, e.Principal.IsNegative())
			assert.False(t, e.RemainingBalance.IsNegative())
			assert.True(t, e.Total.Equal(e.Principal.Add(e.Interest)))
		}
	})

	t.Run("length always equals term", func(t *testing.T) {
		for _, term := range []int{1, 6, 12, 36, 60} {
			l := validLoan()
			l.TermMonths, l.PaymentsCompleted = term, 0
			l.MonthlyPayment = decimal.Zero

			schedule, err := GenerateSchedule(l, asOf)
			require.NoError(t, err)
			assert.Len(t, schedule, term)
			assert.True(t, sumPrincipal(schedule).Equal(l.Principal))
		}
	})

	t.Run("due dates follow disbursement by whole months", func(t *testing.T) {
		l := validLoan()
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		for i, e := range schedule {
			assert.Equal(t, l.DisbursedAt.AddDate(0, i+1, 0), e.DueDate)
		}
	})

	t.Run("month-end disbursement is pinned to the last day of shorter months", func(t *testing.T) {
		l := validLoan()
		l.DisbursedAt = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
		assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
		assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
	})

	t.Run("zero term yields an empty schedule", func(t *testing.T) {
		l := validLoan()
		l.TermMonths, l.PaymentsCompleted = 0, 0
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.Empty(t, schedule)
	})

	t.Run("invalid loan data is reported", func(t *testing.T) {
		l := validLoan()
		l.InterestRate = decimal.NewFromInt(-3)
		_, err := GenerateSchedule(l, asOf)
		assert.ErrorIs(t, err, apperrors.ErrInvalidLoanData)
	})

	t.Run("unpaid installments more than 30 days late are overdue", func(t *testing.T) {
		l := validLoan()
		l.PaymentsCompleted = 2
		l.TotalPaid = decimal.NewFromInt(282_500)

		// entries 3 (2024-04-15) and 4 (2024-05-15) relative to 2024-06-01
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.Equal(t, ScheduleOverdue, schedule[2].Status)
		assert.Equal(t, SchedulePending, schedule[3].Status)
		assert.Equal(t, SchedulePending, schedule[4].Status)
		assert.Nil(t, schedule[2].PaidAt)
	})

	t.Run("payment on the grace boundary is still pending", func(t *testing.T) {
		l := validLoan()
		l.PaymentsCompleted, l.TotalPaid = 0, decimal.Zero
		boundary := l.DueDate(1).AddDate(0, 0, OverdueGraceDays)

		schedule, err := GenerateSchedule(l, boundary)
		require.NoError(t, err)
		assert.Equal(t, SchedulePending, schedule[0].Status)

		schedule, err = GenerateSchedule(l, boundary.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, ScheduleOverdue, schedule[0].Status)
	})

	t.Run("extra paid beyond completed installments marks the next one partial", func(t *testing.T) {
		l := validLoan()
		l.TotalPaid = decimal.NewFromInt(600_000)
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.Equal(t, SchedulePaid, schedule[3].Status)
		assert.Equal(t, SchedulePartial, schedule[4].Status)
		assert.NotEqual(t, SchedulePartial, schedule[5].Status)
	})

	t.Run("payment below interest never produces negative principal", func(t *testing.T) {
		l := validLoan()
		l.MonthlyPayment = decimal.NewFromInt(10_000)
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		for _, e := range schedule[:len(schedule)-1] {
			assert.True(t, e.Principal.IsZero())
		}
		last := schedule[len(schedule)-1]
		assert.True(t, last.Principal.Equal(l.Principal))
		assert.True(t, last.RemainingBalance.IsZero())
	})

	t.Run("overpaying schedule pays off early and stays at zero", func(t *testing.T) {
		l := validLoan()
		l.MonthlyPayment = decimal.NewFromInt(1_000_000)
		schedule, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.True(t, schedule[3].RemainingBalance.IsZero())
		for _, e := range schedule[4:] {
			assert.True(t, e.Principal.IsZero())
			assert.True(t, e.Interest.IsZero())
		}
		assert.True(t, sumPrincipal(schedule).Equal(l.Principal))
	})

	t.Run("idempotent", func(t *testing.T) {
		l := validLoan()
		first, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		second, err := GenerateSchedule(l, asOf)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestAnnuityPayment(t *testing.T) {
	t.Run("standard annuity", func(t *testing.T) {
		got := AnnuityPayment(decimal.NewFromInt(3_000_000), decimal.NewFromFloat(0.01), 24)
		assert.True(t, got.Equal(decimal.RequireFromString("141220.42")), "got %s", got)
	})

	t.Run("zero rate splits evenly", func(t *testing.T) {
		got := AnnuityPayment(decimal.NewFromInt(1200), decimal.Zero, 12)
		assert.True(t, got.Equal(decimal.NewFromInt(100)))
	})

	t.Run("zero term", func(t *testing.T) {
		assert.True(t, AnnuityPayment(decimal.NewFromInt(1200), decimal.Zero, 0).IsZero())
	})
}

func TestInstallment(t *testing.T) {
	l := validLoan()
	assert.True(t, l.Installment().Equal(decimal.NewFromInt(141_250)))

	l.MonthlyPayment = decimal.Zero
	assert.True(t, l.Installment().Equal(decimal.RequireFromString("141220.42")))
}
