package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/pkg/apperrors"
)

type BorrowerHandler struct {
	service   borrower.BorrowerService
	snapshots SnapshotReader
	logger    *slog.Logger
}

func NewBorrowerHandler(s borrower.BorrowerService, snapshots SnapshotReader, l *slog.Logger) *BorrowerHandler {
	return &BorrowerHandler{
		service:   s,
		snapshots: snapshots,
		logger:    l.With("component", "BorrowerHandler"),
	}
}

// ListBorrowers lists all borrowers.
//
// @Summary List borrowers
// @Tags Borrowers
// @Produce json
// @Success 200 {object} dto.BorrowerListResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers [get]
// @Security BearerAuth
func (h *BorrowerHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	borrowers, err := h.service.ListBorrowers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerListResponse(borrowers))
}

// GetBorrower retrieves a borrower by ID.
//
// @Summary Retrieve borrower details
// @Tags Borrowers
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Success 200 {object} dto.BorrowerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID"
// @Failure 404 {object} dto.ErrorResponse "Borrower not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /borrowers/{borrowerID} [get]
// @Security BearerAuth
func (h *BorrowerHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := idFromURL(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}

	b, err := h.service.GetBorrower(r.Context(), borrowerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponse(b))
}

// GetBorrowerRollup returns the borrower's aggregate position from the
// current portfolio snapshot.
//
// @Summary Retrieve a borrower's portfolio rollup
// @Tags Borrowers
// @Produce json
// @Param borrowerID path int true "Borrower ID"
// @Success 200 {object} dto.BorrowerRollupResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid borrower ID"
// @Failure 404 {object} dto.ErrorResponse "Borrower has no loans in the snapshot"
// @Failure 503 {object} dto.ErrorResponse "Snapshot not built yet"
// @Router /borrowers/{borrowerID}/rollup [get]
// @Security BearerAuth
func (h *BorrowerHandler) GetBorrowerRollup(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := idFromURL(r, "borrowerID")
	if err != nil {
		respondError(w, err)
		return
	}
	snap, err := h.snapshots.Current()
	if err != nil {
		respondError(w, err)
		return
	}

	rollup, ok := snap.BorrowerRollup(borrowerID)
	if !ok {
		respondError(w, fmt.Errorf("%w: borrower %d has no loans in the portfolio", apperrors.ErrNotFound, borrowerID))
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerRollupResponse(rollup))
}
