package ledger

import (
	"fmt"
	"sort"
	"time"

	"loan-portfolio/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	TypeDisbursement       EntryType = "DISBURSEMENT"
	TypePrincipalRepayment EntryType = "PRINCIPAL_REPAYMENT"
	TypeInterestIncome     EntryType = "INTEREST_INCOME"
)

// MaxMaterializedRepayments caps how many completed installments per loan are
// turned into ledger lines. Loans with more completed payments show a partial
// history.
const MaxMaterializedRepayments = 5

var principalShare = decimal.RequireFromString("0.70")

type Entry struct {
	ID          string
	LoanID      int64
	BorrowerID  int64
	ProductName string
	Date        time.Time
	Type        EntryType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
	Description string

	seq int
}

// BuildLedger synthesizes the transaction log of a loan collection. Entries are
// folded into a single running balance in ascending date order and returned
// newest first. Loans must pass loan.Validate; snapshot.Build filters out the
// ones that do not.
func BuildLedger(loans []loan.Loan) []Entry {
	entries := make([]Entry, 0, len(loans)*(1+2*MaxMaterializedRepayments))
	for _, l := range loans {
		entries = append(entries, loanEntries(l)...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.LoanID != b.LoanID {
			return a.LoanID < b.LoanID
		}
		return a.seq < b.seq
	})

	foldBalance(entries)

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// foldBalance sets each entry's running balance, oldest entry first.
func foldBalance(ascending []Entry) {
	balance := decimal.Zero
	for i := range ascending {
		balance = balance.Add(ascending[i].Debit).Sub(ascending[i].Credit)
		ascending[i].Balance = balance
	}
}

func loanEntries(l loan.Loan) []Entry {
	repayments := min(l.PaymentsCompleted, MaxMaterializedRepayments)

	out := make([]Entry, 0, 1+2*MaxMaterializedRepayments)
	out = append(out, Entry{
		ID:          fmt.Sprintf("LN%d-DSB", l.ID),
		LoanID:      l.ID,
		BorrowerID:  l.BorrowerID,
		ProductName: l.ProductName,
		Date:        l.DisbursedAt,
		Type:        TypeDisbursement,
		Debit:       l.Disbursed(),
		Credit:      decimal.Zero,
		Description: fmt.Sprintf("Disbursement of loan %d", l.ID),
	})

	payment := l.Installment()
	principal := payment.Mul(principalShare).Round(2)
	interest := payment.Sub(principal)

	for n := 1; n <= repayments; n++ {
		date := l.DueDate(n)
		out = append(out,
			Entry{
				ID:          fmt.Sprintf("LN%d-R%02d-P", l.ID, n),
				LoanID:      l.ID,
				BorrowerID:  l.BorrowerID,
				ProductName: l.ProductName,
				Date:        date,
				Type:        TypePrincipalRepayment,
				Debit:       decimal.Zero,
				Credit:      principal,
				Description: fmt.Sprintf("Installment %d principal, loan %d", n, l.ID),
				seq:         2*n - 1,
			},
			Entry{
				ID:          fmt.Sprintf("LN%d-R%02d-I", l.ID, n),
				LoanID:      l.ID,
				BorrowerID:  l.BorrowerID,
				ProductName: l.ProductName,
				Date:        date,
				Type:        TypeInterestIncome,
				Debit:       decimal.Zero,
				Credit:      interest,
				Description: fmt.Sprintf("Installment %d interest, loan %d", n, l.ID),
				seq:         2 * n,
			},
		)
	}
	return out
}

// ForLoan returns the entries belonging to one loan, newest first, with the
// running balance recomputed over that loan alone. entries must be ordered
// newest first, as BuildLedger returns them.
func ForLoan(entries []Entry, loanID int64) []Entry {
	out := make([]Entry, 0)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].LoanID == loanID {
			out = append(out, entries[i])
		}
	}
	foldBalance(out)

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
