package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// OverdueGraceDays is how long an unpaid installment may sit past its due date
// before the schedule reports it as overdue.
const OverdueGraceDays = 30

var hundredTwelve = decimal.NewFromInt(1200)

// MonthlyRate converts the annual percentage rate to a per-month fraction.
func (l *Loan) MonthlyRate() decimal.Decimal {
	return l.InterestRate.Div(hundredTwelve)
}

// Installment returns the stored monthly payment, or the level annuity payment
// for the principal, rate and term when none is stored.
func (l *Loan) Installment() decimal.Decimal {
	if l.MonthlyPayment.IsPositive() || l.TermMonths <= 0 {
		return l.MonthlyPayment
	}
	return AnnuityPayment(l.Principal, l.MonthlyRate(), l.TermMonths)
}

// AnnuityPayment computes P * r * (1+r)^n / ((1+r)^n - 1), rounded to cents.
func AnnuityPayment(principal, monthlyRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}
	if monthlyRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	}
	r := monthlyRate.InexactFloat64()
	factor := math.Pow(1+r, float64(termMonths))
	payment := principal.InexactFloat64() * r * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(2)
}

// DueDate returns the date of installment n: the disbursement date moved n
// calendar months forward, pinned to the last day of shorter months.
func (l *Loan) DueDate(n int) time.Time {
	return addMonths(l.DisbursedAt, n)
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}

// GenerateSchedule derives the payment-by-payment amortization schedule of a
// loan as seen on asOf. The final installment absorbs rounding drift so the
// remaining balance always reaches exactly zero.
func GenerateSchedule(l Loan, asOf time.Time) ([]ScheduleEntry, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.TermMonths == 0 {
		return []ScheduleEntry{}, nil
	}

	payment := l.Installment()
	rate := l.MonthlyRate()
	remaining := l.Principal

	coveredByInstallments := payment.Mul(decimal.NewFromInt(int64(l.PaymentsCompleted)))
	hasPartial := payment.IsPositive() && l.TotalPaid.GreaterThan(coveredByInstallments)

	schedule := make([]ScheduleEntry, 0, l.TermMonths)
	for i := 1; i <= l.TermMonths; i++ {
		interest := remaining.Mul(rate).Round(2)

		principal := payment.Sub(interest)
		if principal.IsNegative() {
			principal = decimal.Zero
		}
		if principal.GreaterThan(remaining) || i == l.TermMonths {
			principal = remaining
		}
		remaining = remaining.Sub(principal)

		entry := ScheduleEntry{
			PaymentNumber:    i,
			DueDate:          l.DueDate(i),
			Principal:        principal,
			Interest:         interest,
			Total:            principal.Add(interest),
			RemainingBalance: remaining,
		}

		switch {
		case i <= l.PaymentsCompleted:
			entry.Status = SchedulePaid
			paidAt := entry.DueDate
			entry.PaidAt = &paidAt
		case i == l.PaymentsCompleted+1 && hasPartial:
			entry.Status = SchedulePartial
		case entry.DueDate.AddDate(0, 0, OverdueGraceDays).Before(asOf):
			entry.Status = ScheduleOverdue
		default:
			entry.Status = SchedulePending
		}

		schedule = append(schedule, entry)
	}

	return schedule, nil
}
