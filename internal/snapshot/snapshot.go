package snapshot

import (
	"sort"
	"time"

	"loan-portfolio/internal/domain/ledger"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/domain/portfolio"
)

// Snapshot is an immutable view of the loan book and everything derived from
// it. Callers must not modify the slices or maps it exposes.
type Snapshot struct {
	Loans       []loan.Loan
	Borrowers   map[int64]portfolio.BorrowerRollup
	Products    map[string]portfolio.ProductRollup
	Summary     portfolio.Summary
	Delinquency []portfolio.BucketStats
	Ledger      []ledger.Entry
	Revenue     ledger.RevenueReport
	TakenAt     time.Time

	// Rejected holds one *loan.InvalidLoanDataError per loan that failed
	// validation. Rejected loans are left out of every view above.
	Rejected []error
}

// Build computes every derived view of the valid loans once. The input slice
// is copied.
func Build(loans []loan.Loan, takenAt time.Time) *Snapshot {
	owned := make([]loan.Loan, 0, len(loans))
	var rejected []error
	for _, l := range loans {
		if err := l.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		owned = append(owned, l)
	}
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	entries := ledger.BuildLedger(owned)
	return &Snapshot{
		Loans:       owned,
		Borrowers:   portfolio.AggregateByBorrower(owned),
		Products:    portfolio.AggregateByProduct(owned),
		Summary:     portfolio.Summarize(owned),
		Delinquency: portfolio.DelinquencyReport(owned),
		Ledger:      entries,
		Revenue:     ledger.SummarizeRevenue(entries),
		TakenAt:     takenAt,
		Rejected:    rejected,
	}
}

// BorrowerRollups returns the borrower rollups ordered by borrower ID.
func (s *Snapshot) BorrowerRollups() []portfolio.BorrowerRollup {
	out := make([]portfolio.BorrowerRollup, 0, len(s.Borrowers))
	for _, r := range s.Borrowers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowerID < out[j].BorrowerID })
	return out
}

// ProductRollups returns the product rollups ordered by product name.
func (s *Snapshot) ProductRollups() []portfolio.ProductRollup {
	out := make([]portfolio.ProductRollup, 0, len(s.Products))
	for _, r := range s.Products {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out
}

func (s *Snapshot) BorrowerRollup(borrowerID int64) (portfolio.BorrowerRollup, bool) {
	r, ok := s.Borrowers[borrowerID]
	return r, ok
}
