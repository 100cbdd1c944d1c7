package portfolio

import (
	"loan-portfolio/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type StatusCounts struct {
	Active    int
	Overdue   int
	Defaulted int
	Closed    int
}

func (c *StatusCounts) add(status loan.LoanStatus) {
	switch status {
	case loan.StatusActive:
		c.Active++
	case loan.StatusOverdue:
		c.Overdue++
	case loan.StatusDefaulted:
		c.Defaulted++
	case loan.StatusClosed:
		c.Closed++
	}
}

// BorrowerRollup totals one borrower's loans. TotalBorrowed sums contractual
// principal; TotalDisbursed sums the cash paid out after fees and reconciles
// with ProductRollup.TotalDisbursed and Summary.TotalDisbursed.
type BorrowerRollup struct {
	BorrowerID       int64
	LoanCount        int
	Statuses         StatusCounts
	TotalBorrowed    decimal.Decimal
	TotalDisbursed   decimal.Decimal
	TotalPaid        decimal.Decimal
	TotalOutstanding decimal.Decimal
	MaxDaysPastDue   int
	RiskLevel        RiskLevel
}

type ProductRollup struct {
	ProductName         string
	LoanCount           int
	Statuses            StatusCounts
	NonPerformingCount  int
	TotalDisbursed      decimal.Decimal
	TotalPaid           decimal.Decimal
	TotalOutstanding    decimal.Decimal
	RepaymentRate       decimal.Decimal
	AverageInterestRate decimal.Decimal
}

// AggregateByBorrower groups loans by borrower in a single pass. The result
// depends only on the multiset of loans, never on their order.
func AggregateByBorrower(loans []loan.Loan) map[int64]BorrowerRollup {
	rollups := make(map[int64]BorrowerRollup)
	for _, l := range loans {
		r, ok := rollups[l.BorrowerID]
		if !ok {
			r = BorrowerRollup{BorrowerID: l.BorrowerID, RiskLevel: RiskLow}
		}
		r.LoanCount++
		r.Statuses.add(l.Status)
		r.TotalBorrowed = r.TotalBorrowed.Add(l.Principal)
		r.TotalDisbursed = r.TotalDisbursed.Add(l.Disbursed())
		r.TotalPaid = r.TotalPaid.Add(l.TotalPaid)
		r.TotalOutstanding = r.TotalOutstanding.Add(l.OutstandingBalance)
		if l.DaysPastDue > r.MaxDaysPastDue {
			r.MaxDaysPastDue = l.DaysPastDue
		}
		r.RiskLevel = r.RiskLevel.Max(ClassifyRisk(l.DaysPastDue, l.Status))
		rollups[l.BorrowerID] = r
	}
	return rollups
}

func AggregateByProduct(loans []loan.Loan) map[string]ProductRollup {
	rollups := make(map[string]ProductRollup)
	rateSums := make(map[string]decimal.Decimal)
	for _, l := range loans {
		r, ok := rollups[l.ProductName]
		if !ok {
			r = ProductRollup{ProductName: l.ProductName}
		}
		r.LoanCount++
		r.Statuses.add(l.Status)
		if IsNonPerforming(l) {
			r.NonPerformingCount++
		}
		r.TotalDisbursed = r.TotalDisbursed.Add(l.Disbursed())
		r.TotalPaid = r.TotalPaid.Add(l.TotalPaid)
		r.TotalOutstanding = r.TotalOutstanding.Add(l.OutstandingBalance)
		rateSums[l.ProductName] = rateSums[l.ProductName].Add(l.InterestRate)
		rollups[l.ProductName] = r
	}

	for name, r := range rollups {
		r.RepaymentRate = percentOf(r.TotalPaid, r.TotalPaid.Add(r.TotalOutstanding))
		r.AverageInterestRate = rateSums[name].Div(decimal.NewFromInt(int64(r.LoanCount))).Round(2)
		rollups[name] = r
	}
	return rollups
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}
