package handler

import (
	"context"
	"log/slog"
	"net/http"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/batch"
	"loan-portfolio/internal/snapshot"
)

// SnapshotReader exposes the current portfolio snapshot.
type SnapshotReader interface {
	Current() (*snapshot.Snapshot, error)
}

// Refresher rebuilds the portfolio snapshot on demand.
type Refresher interface {
	Run(ctx context.Context) (batch.RefreshResult, error)
}

type PortfolioHandler struct {
	snapshots SnapshotReader
	refresher Refresher
	logger    *slog.Logger
}

func NewPortfolioHandler(snapshots SnapshotReader, refresher Refresher, l *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		snapshots: snapshots,
		refresher: refresher,
		logger:    l.With("component", "PortfolioHandler"),
	}
}

func (h *PortfolioHandler) current(w http.ResponseWriter) (*snapshot.Snapshot, bool) {
	snap, err := h.snapshots.Current()
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return snap, true
}

// GetSummary returns the dashboard headline figures.
//
// @Summary Portfolio summary
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.SummaryResponse
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /portfolio/summary [get]
// @Security BearerAuth
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dto.NewSummaryResponse(snap.Summary, snap.TakenAt))
}

// ListBorrowerRollups returns one rollup per borrower, ordered by borrower ID.
//
// @Summary Portfolio by borrower
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.BorrowerRollupListResponse
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /portfolio/borrowers [get]
// @Security BearerAuth
func (h *PortfolioHandler) ListBorrowerRollups(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerRollupListResponse(snap.BorrowerRollups(), snap.TakenAt))
}

// ListProductRollups returns one rollup per product, ordered by name.
//
// @Summary Portfolio by product
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.ProductRollupListResponse
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /portfolio/products [get]
// @Security BearerAuth
func (h *PortfolioHandler) ListProductRollups(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dto.NewProductRollupListResponse(snap.ProductRollups(), snap.TakenAt))
}

// GetDelinquency returns the days-past-due bucket report.
//
// @Summary Delinquency buckets
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.DelinquencyResponse
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /portfolio/delinquency [get]
// @Security BearerAuth
func (h *PortfolioHandler) GetDelinquency(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDelinquencyResponse(snap.Delinquency, snap.TakenAt))
}

// Refresh rebuilds the snapshot immediately.
//
// @Summary Refresh the portfolio snapshot
// @Description Reloads all loans and rebuilds every derived view. Returns 409 when a refresh is already running.
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.RefreshResponse
// @Failure 409 {object} dto.ErrorResponse "Refresh already in progress"
// @Failure 500 {object} dto.ErrorResponse "Refresh failed"
// @Router /portfolio/refresh [post]
// @Security BearerAuth
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.Run(r.Context())
	resp := dto.RefreshResponse{
		LoanCount:        result.LoanCount,
		BorrowerCount:    result.BorrowerCount,
		RiskChanges:      result.RiskChanges,
		UnknownBorrowers: result.UnknownBorrowers,
		InvalidLoans:     result.InvalidLoans,
		Errors:           result.Errors,
		TakenAt:          result.TakenAt,
		DurationMs:       result.Duration.Milliseconds(),
	}
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, resp)
	case !result.TakenAt.IsZero():
		// The snapshot was rebuilt; only side effects failed.
		h.logger.WarnContext(r.Context(), "Manual refresh completed with errors", "error", err)
		respondJSON(w, http.StatusOK, resp)
	default:
		respondError(w, err)
	}
}
