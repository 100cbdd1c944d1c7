package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/domain/ledger"
	"loan-portfolio/internal/pkg/apperrors"
)

type LedgerHandler struct {
	snapshots SnapshotReader
	logger    *slog.Logger
}

func NewLedgerHandler(snapshots SnapshotReader, l *slog.Logger) *LedgerHandler {
	return &LedgerHandler{snapshots: snapshots, logger: l.With("component", "LedgerHandler")}
}

// GetLedger returns accounting entries, newest first.
//
// @Summary Accounting ledger
// @Description Disbursements and the first repayments of each loan with a running balance across the whole book, or across the one loan when loanId is set.
// @Tags Ledger
// @Produce json
// @Param loanId query int false "Only entries of this loan"
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} dto.LedgerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query"
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /ledger [get]
// @Security BearerAuth
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	query := dto.LedgerQuery{LoanID: r.URL.Query().Get("loanId"), Limit: r.URL.Query().Get("limit")}
	if err := dto.Validate(query); err != nil {
		respondError(w, err)
		return
	}
	loanID, limit, err := query.Bounds()
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	snap, err := h.snapshots.Current()
	if err != nil {
		respondError(w, err)
		return
	}
	entries := snap.Ledger
	if loanID != 0 {
		entries = ledger.ForLoan(entries, loanID)
	}
	respondJSON(w, http.StatusOK, dto.NewLedgerResponse(entries, limit, snap.TakenAt))
}

// GetRevenue returns interest income per month.
//
// @Summary Monthly interest revenue
// @Tags Ledger
// @Produce json
// @Success 200 {object} dto.RevenueResponse
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /ledger/revenue [get]
// @Security BearerAuth
func (h *LedgerHandler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Current()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewRevenueResponse(snap.Revenue, snap.TakenAt))
}
