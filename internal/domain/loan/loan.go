package loan

import (
	"fmt"
	"strings"
	"time"

	"loan-portfolio/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusActive    LoanStatus = "ACTIVE"
	StatusOverdue   LoanStatus = "OVERDUE"
	StatusDefaulted LoanStatus = "DEFAULTED"
	StatusClosed    LoanStatus = "CLOSED"
)

var loanStatuses = []LoanStatus{StatusActive, StatusOverdue, StatusDefaulted, StatusClosed}

// ParseLoanStatus accepts any casing and rejects values outside the closed set.
func ParseLoanStatus(s string) (LoanStatus, error) {
	candidate := LoanStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range loanStatuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", apperrors.NewValidationError("status", fmt.Sprintf("unknown loan status %q", s))
}

type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	SchedulePaid    ScheduleStatus = "PAID"
	ScheduleOverdue ScheduleStatus = "OVERDUE"
	SchedulePartial ScheduleStatus = "PARTIAL"
)

type Loan struct {
	ID                 int64
	BorrowerID         int64
	ProductName        string
	Principal          decimal.Decimal
	DisbursedAmount    decimal.Decimal
	InterestRate       decimal.Decimal
	TermMonths         int
	MonthlyPayment     decimal.Decimal
	PaymentsCompleted  int
	DisbursedAt        time.Time
	OutstandingBalance decimal.Decimal
	TotalPaid          decimal.Decimal
	DaysPastDue        int
	Status             LoanStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ScheduleEntry struct {
	PaymentNumber    int
	DueDate          time.Time
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
	Status           ScheduleStatus
	PaidAt           *time.Time
}

// InvalidLoanDataError reports a loan record the schedule engine refuses to
// compute over. It unwraps to apperrors.ErrInvalidLoanData.
type InvalidLoanDataError struct {
	LoanID int64
	Field  string
	Reason string
}

func (e *InvalidLoanDataError) Error() string {
	return fmt.Sprintf("invalid loan data for loan %d: %s %s", e.LoanID, e.Field, e.Reason)
}

func (e *InvalidLoanDataError) Unwrap() error {
	return apperrors.ErrInvalidLoanData
}

func (l *Loan) invalid(field, reason string) error {
	return &InvalidLoanDataError{LoanID: l.ID, Field: field, Reason: reason}
}

func (l *Loan) Validate() error {
	switch {
	case l.TermMonths < 0:
		return l.invalid("termMonths", "must not be negative")
	case l.InterestRate.IsNegative():
		return l.invalid("interestRate", "must not be negative")
	case !l.Principal.IsPositive():
		return l.invalid("principal", "must be positive")
	case l.MonthlyPayment.IsNegative():
		return l.invalid("monthlyPayment", "must not be negative")
	case l.DisbursedAmount.IsNegative():
		return l.invalid("disbursedAmount", "must not be negative")
	case l.PaymentsCompleted < 0:
		return l.invalid("paymentsCompleted", "must not be negative")
	case l.PaymentsCompleted > l.TermMonths:
		return l.invalid("paymentsCompleted", fmt.Sprintf("exceeds term of %d months", l.TermMonths))
	}
	return nil
}

// Disbursed is the cash paid out to the borrower, falling back to the
// contractual principal when the record carries no separate figure.
func (l *Loan) Disbursed() decimal.Decimal {
	if l.DisbursedAmount.IsZero() {
		return l.Principal
	}
	return l.DisbursedAmount
}

func (l *Loan) IsOverdue() bool {
	return l.DaysPastDue > 0
}

// Filter narrows a loan list. Zero-valued fields match everything.
type Filter struct {
	Status      LoanStatus
	BorrowerID  int64
	ProductName string
	OverdueOnly bool
}

func (f Filter) Matches(l Loan) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.BorrowerID != 0 && l.BorrowerID != f.BorrowerID {
		return false
	}
	if f.ProductName != "" && !strings.EqualFold(l.ProductName, f.ProductName) {
		return false
	}
	if f.OverdueOnly && !l.IsOverdue() {
		return false
	}
	return true
}

func Apply(loans []Loan, f Filter) []Loan {
	out := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// FilterOverdue returns loans with at least one day past due.
func FilterOverdue(loans []Loan) []Loan {
	return Apply(loans, Filter{OverdueOnly: true})
}
