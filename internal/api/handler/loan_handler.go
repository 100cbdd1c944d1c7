package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
		now:     time.Now,
	}
}

// ListLoans lists loans, optionally filtered.
//
// @Summary List loans
// @Description Lists loans from the source of record. Filters combine with AND.
// @Tags Loans
// @Produce json
// @Param status query string false "Loan status (ACTIVE, OVERDUE, DEFAULTED, CLOSED)"
// @Param borrowerId query int false "Borrower ID"
// @Param product query string false "Product name (case-insensitive)"
// @Success 200 {object} dto.LoanListResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	query := dto.NewLoanListQuery(r.URL.Query())
	if err := dto.Validate(query); err != nil {
		respondError(w, err)
		return
	}
	filter, err := query.Filter()
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	loans, err := h.service.ListLoans(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// ListOverdueLoans lists loans with at least one day past due.
//
// @Summary List overdue loans
// @Tags Loans
// @Produce json
// @Success 200 {object} dto.LoanListResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/overdue [get]
// @Security BearerAuth
func (h *LoanHandler) ListOverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListOverdueLoans(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// GetLoanSchedule returns the amortization schedule of a loan.
//
// @Summary Retrieve the repayment schedule
// @Description Generates the month-by-month amortization schedule. Entry statuses are evaluated as of the given date (default today, UTC).
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param asOf query string false "Observation date, YYYY-MM-DD"
// @Success 200 {object} dto.ScheduleResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or date"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 422 {object} dto.ErrorResponse "Loan record cannot be amortized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoanSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}
	query := dto.ScheduleQuery{AsOf: r.URL.Query().Get("asOf")}
	if err := dto.Validate(query); err != nil {
		respondError(w, err)
		return
	}
	asOf := query.Date(h.now())

	schedule, err := h.service.GetLoanSchedule(r.Context(), loanID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(loanID, asOf, schedule))
}
