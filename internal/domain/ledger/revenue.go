package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

type MonthlyRevenue struct {
	Month          string
	InterestIncome decimal.Decimal
	EntryCount     int
}

type RevenueReport struct {
	Months []MonthlyRevenue
	Total  decimal.Decimal
}

// SummarizeRevenue totals interest income per calendar month, oldest month first.
func SummarizeRevenue(entries []Entry) RevenueReport {
	byMonth := make(map[string]*MonthlyRevenue)
	total := decimal.Zero
	for _, e := range entries {
		if e.Type != TypeInterestIncome {
			continue
		}
		key := e.Date.UTC().Format(monthLayout)
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyRevenue{Month: key, InterestIncome: decimal.Zero}
			byMonth[key] = m
		}
		m.InterestIncome = m.InterestIncome.Add(e.Credit)
		m.EntryCount++
		total = total.Add(e.Credit)
	}

	months := make([]MonthlyRevenue, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	return RevenueReport{Months: months, Total: total}
}
