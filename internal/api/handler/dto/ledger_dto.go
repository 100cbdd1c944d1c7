package dto

import (
	"strconv"
	"time"

	"loan-portfolio/internal/domain/ledger"
)

type LedgerQuery struct {
	LoanID string `query:"loanId" validate:"omitempty,number"`
	Limit  string `query:"limit" validate:"omitempty,number"`
}

// Bounds returns the parsed loan filter (0 for all loans) and page size
// (0 for no limit).
func (q LedgerQuery) Bounds() (loanID int64, limit int, err error) {
	if q.LoanID != "" {
		if loanID, err = strconv.ParseInt(q.LoanID, 10, 64); err != nil {
			return 0, 0, err
		}
	}
	if q.Limit != "" {
		if limit, err = strconv.Atoi(q.Limit); err != nil {
			return 0, 0, err
		}
	}
	return loanID, limit, nil
}

type LedgerEntryResponse struct {
	ID          string `json:"id"`
	LoanID      string `json:"loanId"`
	BorrowerID  string `json:"borrowerId"`
	ProductName string `json:"productName"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
	Description string `json:"description"`
}

type LedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Count   int                   `json:"count"`
	Total   int                   `json:"total"`
	TakenAt time.Time             `json:"takenAt"`
}

// NewLedgerResponse renders up to limit entries (all when limit is 0) and
// reports the unpaged total.
func NewLedgerResponse(entries []ledger.Entry, limit int, takenAt time.Time) LedgerResponse {
	total := len(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	resp := LedgerResponse{Entries: make([]LedgerEntryResponse, 0, len(entries)), Count: len(entries), Total: total, TakenAt: takenAt}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LedgerEntryResponse{
			ID:          e.ID,
			LoanID:      strconv.FormatInt(e.LoanID, 10),
			BorrowerID:  strconv.FormatInt(e.BorrowerID, 10),
			ProductName: e.ProductName,
			Date:        e.Date.Format(time.DateOnly),
			Type:        string(e.Type),
			Debit:       money(e.Debit),
			Credit:      money(e.Credit),
			Balance:     money(e.Balance),
			Description: e.Description,
		})
	}
	return resp
}

type MonthlyRevenueResponse struct {
	Month          string `json:"month"`
	InterestIncome string `json:"interestIncome"`
	EntryCount     int    `json:"entryCount"`
}

type RevenueResponse struct {
	Months  []MonthlyRevenueResponse `json:"months"`
	Total   string                   `json:"total"`
	TakenAt time.Time                `json:"takenAt"`
}

func NewRevenueResponse(r ledger.RevenueReport, takenAt time.Time) RevenueResponse {
	resp := RevenueResponse{Months: make([]MonthlyRevenueResponse, 0, len(r.Months)), Total: money(r.Total), TakenAt: takenAt}
	for _, m := range r.Months {
		resp.Months = append(resp.Months, MonthlyRevenueResponse{
			Month:          m.Month,
			InterestIncome: money(m.InterestIncome),
			EntryCount:     m.EntryCount,
		})
	}
	return resp
}
