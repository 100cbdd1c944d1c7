package dto

import (
	"strconv"
	"time"

	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/portfolio"
)

type BorrowerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CreditScore int       `json:"creditScore"`
	RiskLevel   string    `json:"riskLevel"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewBorrowerResponse(b *borrower.Borrower) BorrowerResponse {
	if b == nil {
		return BorrowerResponse{}
	}
	return BorrowerResponse{
		ID:          strconv.FormatInt(b.ID, 10),
		Name:        b.Name,
		Email:       b.Email,
		Phone:       b.Phone,
		CreditScore: b.CreditScore,
		RiskLevel:   string(b.RiskLevel),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type BorrowerListResponse struct {
	Borrowers []BorrowerResponse `json:"borrowers"`
	Count     int                `json:"count"`
}

func NewBorrowerListResponse(borrowers []borrower.Borrower) BorrowerListResponse {
	resp := BorrowerListResponse{Borrowers: make([]BorrowerResponse, 0, len(borrowers)), Count: len(borrowers)}
	for i := range borrowers {
		resp.Borrowers = append(resp.Borrowers, NewBorrowerResponse(&borrowers[i]))
	}
	return resp
}

type StatusCountsResponse struct {
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
	Defaulted int `json:"defaulted"`
	Closed    int `json:"closed"`
}

func newStatusCounts(c portfolio.StatusCounts) StatusCountsResponse {
	return StatusCountsResponse{Active: c.Active, Overdue: c.Overdue, Defaulted: c.Defaulted, Closed: c.Closed}
}

type BorrowerRollupResponse struct {
	BorrowerID       string               `json:"borrowerId"`
	LoanCount        int                  `json:"loanCount"`
	Statuses         StatusCountsResponse `json:"statuses"`
	TotalBorrowed    string               `json:"totalBorrowed"`
	TotalDisbursed   string               `json:"totalDisbursed"`
	TotalPaid        string               `json:"totalPaid"`
	TotalOutstanding string               `json:"totalOutstanding"`
	MaxDaysPastDue   int                  `json:"maxDaysPastDue"`
	RiskLevel        string               `json:"riskLevel"`
}

func NewBorrowerRollupResponse(r portfolio.BorrowerRollup) BorrowerRollupResponse {
	return BorrowerRollupResponse{
		BorrowerID:       strconv.FormatInt(r.BorrowerID, 10),
		LoanCount:        r.LoanCount,
		Statuses:         newStatusCounts(r.Statuses),
		TotalBorrowed:    money(r.TotalBorrowed),
		TotalDisbursed:   money(r.TotalDisbursed),
		TotalPaid:        money(r.TotalPaid),
		TotalOutstanding: money(r.TotalOutstanding),
		MaxDaysPastDue:   r.MaxDaysPastDue,
		RiskLevel:        string(r.RiskLevel),
	}
}
