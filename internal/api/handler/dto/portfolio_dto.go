package dto

import (
	"time"

	"loan-portfolio/internal/domain/portfolio"
)

type SummaryResponse struct {
	LoanCount           int                  `json:"loanCount"`
	BorrowerCount       int                  `json:"borrowerCount"`
	Statuses            StatusCountsResponse `json:"statuses"`
	TotalDisbursed      string               `json:"totalDisbursed"`
	TotalOutstanding    string               `json:"totalOutstanding"`
	TotalPaid           string               `json:"totalPaid"`
	NonPerformingCount  int                  `json:"nonPerformingCount"`
	NPLRatio            string               `json:"nplRatio"`
	CollectionRate      string               `json:"collectionRate"`
	AverageInterestRate string               `json:"averageInterestRate"`
	TakenAt             time.Time            `json:"takenAt"`
}

func NewSummaryResponse(s portfolio.Summary, takenAt time.Time) SummaryResponse {
	return SummaryResponse{
		LoanCount:           s.LoanCount,
		BorrowerCount:       s.BorrowerCount,
		Statuses:            newStatusCounts(s.Statuses),
		TotalDisbursed:      money(s.TotalDisbursed),
		TotalOutstanding:    money(s.TotalOutstanding),
		TotalPaid:           money(s.TotalPaid),
		NonPerformingCount:  s.NonPerformingCount,
		NPLRatio:            money(s.NPLRatio),
		CollectionRate:      money(s.CollectionRate),
		AverageInterestRate: money(s.AverageInterestRate),
		TakenAt:             takenAt,
	}
}

type BorrowerRollupListResponse struct {
	Borrowers []BorrowerRollupResponse `json:"borrowers"`
	Count     int                      `json:"count"`
	TakenAt   time.Time                `json:"takenAt"`
}

func NewBorrowerRollupListResponse(rollups []portfolio.BorrowerRollup, takenAt time.Time) BorrowerRollupListResponse {
	resp := BorrowerRollupListResponse{Borrowers: make([]BorrowerRollupResponse, 0, len(rollups)), Count: len(rollups), TakenAt: takenAt}
	for _, r := range rollups {
		resp.Borrowers = append(resp.Borrowers, NewBorrowerRollupResponse(r))
	}
	return resp
}

type ProductRollupResponse struct {
	ProductName         string               `json:"productName"`
	LoanCount           int                  `json:"loanCount"`
	Statuses            StatusCountsResponse `json:"statuses"`
	NonPerformingCount  int                  `json:"nonPerformingCount"`
	TotalDisbursed      string               `json:"totalDisbursed"`
	TotalPaid           string               `json:"totalPaid"`
	TotalOutstanding    string               `json:"totalOutstanding"`
	RepaymentRate       string               `json:"repaymentRate"`
	AverageInterestRate string               `json:"averageInterestRate"`
}

type ProductRollupListResponse struct {
	Products []ProductRollupResponse `json:"products"`
	Count    int                     `json:"count"`
	TakenAt  time.Time               `json:"takenAt"`
}

func NewProductRollupListResponse(rollups []portfolio.ProductRollup, takenAt time.Time) ProductRollupListResponse {
	resp := ProductRollupListResponse{Products: make([]ProductRollupResponse, 0, len(rollups)), Count: len(rollups), TakenAt: takenAt}
	for _, r := range rollups {
		resp.Products = append(resp.Products, ProductRollupResponse{
			ProductName:         r.ProductName,
			LoanCount:           r.LoanCount,
			Statuses:            newStatusCounts(r.Statuses),
			NonPerformingCount:  r.NonPerformingCount,
			TotalDisbursed:      money(r.TotalDisbursed),
			TotalPaid:           money(r.TotalPaid),
			TotalOutstanding:    money(r.TotalOutstanding),
			RepaymentRate:       money(r.RepaymentRate),
			AverageInterestRate: money(r.AverageInterestRate),
		})
	}
	return resp
}

type BucketResponse struct {
	Bucket           string  `json:"bucket"`
	LoanCount        int     `json:"loanCount"`
	TotalOutstanding string  `json:"totalOutstanding"`
	LoanIDs          []int64 `json:"loanIds"`
}

type DelinquencyResponse struct {
	Buckets []BucketResponse `json:"buckets"`
	TakenAt time.Time        `json:"takenAt"`
}

func NewDelinquencyResponse(report []portfolio.BucketStats, takenAt time.Time) DelinquencyResponse {
	resp := DelinquencyResponse{Buckets: make([]BucketResponse, 0, len(report)), TakenAt: takenAt}
	for _, b := range report {
		resp.Buckets = append(resp.Buckets, BucketResponse{
			Bucket:           string(b.Bucket),
			LoanCount:        b.LoanCount,
			TotalOutstanding: money(b.TotalOutstanding),
			LoanIDs:          b.LoanIDs,
		})
	}
	return resp
}

type RefreshResponse struct {
	LoanCount        int       `json:"loanCount"`
	BorrowerCount    int       `json:"borrowerCount"`
	RiskChanges      int       `json:"riskChanges"`
	UnknownBorrowers int       `json:"unknownBorrowers"`
	InvalidLoans     int       `json:"invalidLoans"`
	Errors           int       `json:"errors"`
	TakenAt          time.Time `json:"takenAt"`
	DurationMs       int64     `json:"durationMs"`
}
