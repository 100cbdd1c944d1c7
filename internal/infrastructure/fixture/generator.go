package fixture

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/domain/portfolio"

	"github.com/shopspring/decimal"
)

type product struct {
	name         string
	minPrincipal int64
	maxPrincipal int64
	step         int64
	minRate      int64
	maxRate      int64
	terms        []int
	feePermille  int64
}

var products = []product{
	{name: "Microfinance", minPrincipal: 2_000_000, maxPrincipal: 20_000_000, step: 500_000, minRate: 18, maxRate: 24, terms: []int{6, 12, 18}, feePermille: 20},
	{name: "SME", minPrincipal: 50_000_000, maxPrincipal: 500_000_000, step: 5_000_000, minRate: 10, maxRate: 14, terms: []int{12, 24, 36}, feePermille: 10},
	{name: "Agriculture", minPrincipal: 10_000_000, maxPrincipal: 100_000_000, step: 1_000_000, minRate: 8, maxRate: 12, terms: []int{6, 12}, feePermille: 15},
	{name: "Consumer", minPrincipal: 5_000_000, maxPrincipal: 50_000_000, step: 1_000_000, minRate: 14, maxRate: 20, terms: []int{12, 24}, feePermille: 25},
}

var (
	firstNames = []string{"Ayu", "Budi", "Citra", "Dewi", "Eko", "Fajar", "Gita", "Hadi", "Indah", "Joko", "Kartika", "Lestari", "Made", "Nur", "Putu", "Rina", "Sari", "Tono", "Wahyu", "Yanti"}
	lastNames  = []string{"Santoso", "Wijaya", "Pratama", "Saputra", "Hidayat", "Kusuma", "Nugroho", "Siregar", "Halim", "Gunawan"}
)

// Dataset is a generated loan book with its borrowers.
type Dataset struct {
	Borrowers []borrower.Borrower
	Loans     []loan.Loan
	AsOf      time.Time
}

// Generator produces a reproducible loan book. The same seed, sizes and asOf
// always yield the same dataset.
type Generator struct {
	rng  *rand.Rand
	asOf time.Time
}

func NewGenerator(seed uint64, asOf time.Time) *Generator {
	y, m, d := asOf.UTC().Date()
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		asOf: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

func Generate(seed uint64, borrowers, loans int, asOf time.Time) (Dataset, error) {
	if borrowers <= 0 {
		return Dataset{}, fmt.Errorf("fixture needs at least one borrower, got %d", borrowers)
	}
	if loans < 0 {
		return Dataset{}, fmt.Errorf("fixture loan count must not be negative, got %d", loans)
	}
	g := NewGenerator(seed, asOf)
	ds := Dataset{Borrowers: g.Borrowers(borrowers), AsOf: g.asOf}
	generated, err := g.Loans(loans, borrowers)
	if err != nil {
		return Dataset{}, err
	}
	ds.Loans = generated
	return ds, nil
}

func (g *Generator) Borrowers(n int) []borrower.Borrower {
	out := make([]borrower.Borrower, 0, n)
	for i := 1; i <= n; i++ {
		first := firstNames[g.rng.IntN(len(firstNames))]
		last := lastNames[g.rng.IntN(len(lastNames))]
		joined := g.asOf.AddDate(0, -(12 + g.rng.IntN(48)), -g.rng.IntN(28))
		out = append(out, borrower.Borrower{
			ID:          int64(i),
			Name:        first + " " + last,
			Email:       fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			Phone:       fmt.Sprintf("+62-8%02d-%04d-%04d", 11+g.rng.IntN(89), g.rng.IntN(10000), g.rng.IntN(10000)),
			CreditScore: 450 + g.rng.IntN(401),
			RiskLevel:   portfolio.RiskLow,
			CreatedAt:   joined,
			UpdatedAt:   joined,
		})
	}
	return out
}

// Loans generates n loans spread over borrowerCount borrowers. Repayment
// counters, balances and delinquency are derived from each loan's own
// amortization schedule so the records reconcile.
func (g *Generator) Loans(n, borrowerCount int) ([]loan.Loan, error) {
	out := make([]loan.Loan, 0, n)
	for i := 1; i <= n; i++ {
		l, err := g.loan(int64(i), int64(1+g.rng.IntN(borrowerCount)))
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (g *Generator) loan(id, borrowerID int64) (loan.Loan, error) {
	p := products[g.rng.IntN(len(products))]
	steps := (p.maxPrincipal - p.minPrincipal) / p.step
	principal := decimal.NewFromInt(p.minPrincipal + g.rng.Int64N(steps+1)*p.step)
	rate := decimal.New(p.minRate*10+int64(g.rng.IntN(int(p.maxRate-p.minRate)*2+1))*5, -1)
	term := p.terms[g.rng.IntN(len(p.terms))]
	fee := principal.Mul(decimal.New(p.feePermille, -3)).Round(0)

	monthsAgo := 1 + g.rng.IntN(term+3)
	disbursedAt := g.asOf.AddDate(0, -monthsAgo, -g.rng.IntN(28))

	l := loan.Loan{
		ID:              id,
		BorrowerID:      borrowerID,
		ProductName:     p.name,
		Principal:       principal,
		DisbursedAmount: principal.Sub(fee),
		InterestRate:    rate,
		TermMonths:      term,
		DisbursedAt:     disbursedAt,
		CreatedAt:       disbursedAt,
		UpdatedAt:       g.asOf,
	}
	l.MonthlyPayment = loan.AnnuityPayment(principal, l.MonthlyRate(), term)

	due := 0
	for due < term && !l.DueDate(due+1).After(g.asOf) {
		due++
	}

	behaviour := g.rng.Float64()
	missed := 0
	switch {
	case behaviour < 0.70:
	case behaviour < 0.85:
		missed = 1
	case behaviour < 0.95:
		missed = 2 + g.rng.IntN(2)
	default:
		missed = 4 + g.rng.IntN(3)
	}
	l.PaymentsCompleted = max(due-missed, 0)

	schedule, err := loan.GenerateSchedule(l, g.asOf)
	if err != nil {
		return loan.Loan{}, fmt.Errorf("generating fixture loan %d: %w", id, err)
	}

	l.TotalPaid = decimal.Zero
	for _, e := range schedule[:l.PaymentsCompleted] {
		l.TotalPaid = l.TotalPaid.Add(e.Total)
	}
	l.OutstandingBalance = principal
	if l.PaymentsCompleted > 0 {
		l.OutstandingBalance = schedule[l.PaymentsCompleted-1].RemainingBalance
	}

	switch {
	case l.PaymentsCompleted == term:
		l.Status = loan.StatusClosed
	case l.PaymentsCompleted == due:
		l.Status = loan.StatusActive
	default:
		oldestUnpaid := l.DueDate(l.PaymentsCompleted + 1)
		l.DaysPastDue = int(g.asOf.Sub(oldestUnpaid).Hours() / 24)
		if l.DaysPastDue == 0 {
			l.Status = loan.StatusActive
			break
		}
		l.Status = loan.StatusOverdue
		if l.DaysPastDue > 180 || (missed >= 4 && l.DaysPastDue > 90) {
			l.Status = loan.StatusDefaulted
		}
		if missed == 1 && g.rng.IntN(3) == 0 {
			l.TotalPaid = l.TotalPaid.Add(l.MonthlyPayment.Div(decimal.NewFromInt(2)).Round(2))
		}
	}
	return l, nil
}
