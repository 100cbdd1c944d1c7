package portfolio

import (
	"sort"

	"loan-portfolio/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type Summary struct {
	LoanCount           int
	BorrowerCount       int
	Statuses            StatusCounts
	TotalDisbursed      decimal.Decimal
	TotalOutstanding    decimal.Decimal
	TotalPaid           decimal.Decimal
	NonPerformingCount  int
	NPLRatio            decimal.Decimal
	CollectionRate      decimal.Decimal
	AverageInterestRate decimal.Decimal
}

// Summarize computes the dashboard headline figures for a loan collection.
func Summarize(loans []loan.Loan) Summary {
	s := Summary{}
	borrowers := make(map[int64]struct{})
	rateSum := decimal.Zero
	for _, l := range loans {
		s.LoanCount++
		borrowers[l.BorrowerID] = struct{}{}
		s.Statuses.add(l.Status)
		s.TotalDisbursed = s.TotalDisbursed.Add(l.Disbursed())
		s.TotalOutstanding = s.TotalOutstanding.Add(l.OutstandingBalance)
		s.TotalPaid = s.TotalPaid.Add(l.TotalPaid)
		rateSum = rateSum.Add(l.InterestRate)
		if IsNonPerforming(l) {
			s.NonPerformingCount++
		}
	}
	s.BorrowerCount = len(borrowers)
	if s.LoanCount > 0 {
		count := decimal.NewFromInt(int64(s.LoanCount))
		s.NPLRatio = percentOf(decimal.NewFromInt(int64(s.NonPerformingCount)), count)
		s.AverageInterestRate = rateSum.Div(count).Round(2)
	}
	s.CollectionRate = percentOf(s.TotalPaid, s.TotalPaid.Add(s.TotalOutstanding))
	return s
}

type DelinquencyBucket string

const (
	BucketCurrent DelinquencyBucket = "CURRENT"
	Bucket1To30   DelinquencyBucket = "DPD_1_30"
	Bucket31To60  DelinquencyBucket = "DPD_31_60"
	Bucket61To90  DelinquencyBucket = "DPD_61_90"
	BucketOver90  DelinquencyBucket = "DPD_90_PLUS"
)

// Buckets lists the delinquency buckets from least to most severe.
var Buckets = []DelinquencyBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

func BucketFor(daysPastDue int) DelinquencyBucket {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

type BucketStats struct {
	Bucket           DelinquencyBucket
	LoanCount        int
	TotalOutstanding decimal.Decimal
	LoanIDs          []int64
}

// DelinquencyReport returns one row per bucket, in Buckets order, including
// empty buckets. Loan IDs within a bucket are ascending.
func DelinquencyReport(loans []loan.Loan) []BucketStats {
	index := make(map[DelinquencyBucket]int, len(Buckets))
	report := make([]BucketStats, len(Buckets))
	for i, b := range Buckets {
		index[b] = i
		report[i] = BucketStats{Bucket: b, TotalOutstanding: decimal.Zero, LoanIDs: []int64{}}
	}

	for _, l := range loans {
		if l.Status == loan.StatusClosed {
			continue
		}
		row := &report[index[BucketFor(l.DaysPastDue)]]
		row.LoanCount++
		row.TotalOutstanding = row.TotalOutstanding.Add(l.OutstandingBalance)
		row.LoanIDs = append(row.LoanIDs, l.ID)
	}

	for i := range report {
		sort.Slice(report[i].LoanIDs, func(a, b int) bool { return report[i].LoanIDs[a] < report[i].LoanIDs[b] })
	}
	return report
}
