package dto

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"loan-portfolio/internal/domain/loan"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// LoanListQuery carries the optional filters of GET /loans.
type LoanListQuery struct {
	Status     string `query:"status" validate:"omitempty,oneof=ACTIVE OVERDUE DEFAULTED CLOSED"`
	BorrowerID string `query:"borrowerId" validate:"omitempty,number"`
	Product    string `query:"product" validate:"omitempty,max=64"`
}

func NewLoanListQuery(values url.Values) LoanListQuery {
	return LoanListQuery{
		Status:     strings.ToUpper(strings.TrimSpace(values.Get("status"))),
		BorrowerID: strings.TrimSpace(values.Get("borrowerId")),
		Product:    strings.TrimSpace(values.Get("product")),
	}
}

// Filter converts a validated query into a domain filter.
func (q LoanListQuery) Filter() (loan.Filter, error) {
	f := loan.Filter{ProductName: q.Product}
	if q.Status != "" {
		status, err := loan.ParseLoanStatus(q.Status)
		if err != nil {
			return loan.Filter{}, err
		}
		f.Status = status
	}
	if q.BorrowerID != "" {
		id, err := strconv.ParseInt(q.BorrowerID, 10, 64)
		if err != nil {
			return loan.Filter{}, err
		}
		f.BorrowerID = id
	}
	return f, nil
}

type ScheduleQuery struct {
	AsOf string `query:"asOf" validate:"omitempty,datetime=2006-01-02"`
}

// Date returns the requested observation date, or today (UTC) when absent.
func (q ScheduleQuery) Date(now time.Time) time.Time {
	if q.AsOf != "" {
		if t, err := time.Parse(time.DateOnly, q.AsOf); err == nil {
			return t
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type LoanResponse struct {
	ID                 string    `json:"id"`
	BorrowerID         string    `json:"borrowerId"`
	ProductName        string    `json:"productName"`
	Principal          string    `json:"principal"`
	DisbursedAmount    string    `json:"disbursedAmount"`
	InterestRate       string    `json:"interestRate"`
	TermMonths         int       `json:"termMonths"`
	MonthlyPayment     string    `json:"monthlyPayment"`
	PaymentsCompleted  int       `json:"paymentsCompleted"`
	DisbursedAt        time.Time `json:"disbursedAt"`
	OutstandingBalance string    `json:"outstandingBalance"`
	TotalPaid          string    `json:"totalPaid"`
	DaysPastDue        int       `json:"daysPastDue"`
	Status             string    `json:"status"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	if l == nil {
		return LoanResponse{}
	}
	return LoanResponse{
		ID:                 strconv.FormatInt(l.ID, 10),
		BorrowerID:         strconv.FormatInt(l.BorrowerID, 10),
		ProductName:        l.ProductName,
		Principal:          money(l.Principal),
		DisbursedAmount:    money(l.Disbursed()),
		InterestRate:       money(l.InterestRate),
		TermMonths:         l.TermMonths,
		MonthlyPayment:     money(l.Installment()),
		PaymentsCompleted:  l.PaymentsCompleted,
		DisbursedAt:        l.DisbursedAt,
		OutstandingBalance: money(l.OutstandingBalance),
		TotalPaid:          money(l.TotalPaid),
		DaysPastDue:        l.DaysPastDue,
		Status:             string(l.Status),
	}
}

type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
	Count int            `json:"count"`
}

func NewLoanListResponse(loans []loan.Loan) LoanListResponse {
	resp := LoanListResponse{Loans: make([]LoanResponse, 0, len(loans)), Count: len(loans)}
	for i := range loans {
		resp.Loans = append(resp.Loans, NewLoanResponse(&loans[i]))
	}
	return resp
}

type ScheduleEntryResponse struct {
	PaymentNumber    int        `json:"paymentNumber"`
	DueDate          string     `json:"dueDate"`
	Principal        string     `json:"principal"`
	Interest         string     `json:"interest"`
	Total            string     `json:"total"`
	RemainingBalance string     `json:"remainingBalance"`
	Status           string     `json:"status"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
}

type ScheduleResponse struct {
	LoanID         string                  `json:"loanId"`
	AsOf           string                  `json:"asOf"`
	TotalPrincipal string                  `json:"totalPrincipal"`
	TotalInterest  string                  `json:"totalInterest"`
	Entries        []ScheduleEntryResponse `json:"entries"`
}

func NewScheduleResponse(loanID int64, asOf time.Time, schedule []loan.ScheduleEntry) ScheduleResponse {
	resp := ScheduleResponse{
		LoanID:  strconv.FormatInt(loanID, 10),
		AsOf:    asOf.Format(time.DateOnly),
		Entries: make([]ScheduleEntryResponse, 0, len(schedule)),
	}
	principal, interest := decimal.Zero, decimal.Zero
	for _, e := range schedule {
		principal = principal.Add(e.Principal)
		interest = interest.Add(e.Interest)
		resp.Entries = append(resp.Entries, ScheduleEntryResponse{
			PaymentNumber:    e.PaymentNumber,
			DueDate:          e.DueDate.Format(time.DateOnly),
			Principal:        money(e.Principal),
			Interest:         money(e.Interest),
			Total:            money(e.Total),
			RemainingBalance: money(e.RemainingBalance),
			Status:           string(e.Status),
			PaidAt:           e.PaidAt,
		})
	}
	resp.TotalPrincipal = money(principal)
	resp.TotalInterest = money(interest)
	return resp
}
