package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/domain/loan"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, filter loan.Filter) ([]loan.Loan, error) {
	args := m.Called(ctx, filter)
	if loans, ok := args.Get(0).([]loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListOverdueLoans(ctx context.Context) ([]loan.Loan, error) {
	args := m.Called(ctx)
	if loans, ok := args.Get(0).([]loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoanSchedule(ctx context.Context, loanID int64, asOf time.Time) ([]loan.ScheduleEntry, error) {
	args := m.Called(ctx, loanID, asOf)
	if schedule, ok := args.Get(0).([]loan.ScheduleEntry); ok {
		return schedule, args.Error(1)
	}
	return nil, args.Error(1)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sampleLoan(id int64) loan.Loan {
	return loan.Loan{
		ID:                 id,
		BorrowerID:         3,
		ProductName:        "SME",
		Principal:          decimal.NewFromInt(3_000_000),
		InterestRate:       decimal.NewFromInt(12),
		TermMonths:         24,
		MonthlyPayment:     decimal.RequireFromString("141220.42"),
		PaymentsCompleted:  2,
		DisbursedAt:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		OutstandingBalance: decimal.RequireFromString("2777000"),
		TotalPaid:          decimal.RequireFromString("282440.84"),
		Status:             loan.StatusActive,
	}
}

func TestLoanHandlerGetLoan(t *testing.T) {
	mockService := new(MockLoanService)
	handler := NewLoanHandler(mockService, logger)

	t.Run("successfully retrieves loan details", func(t *testing.T) {
		l := sampleLoan(123)
		mockService.On("GetLoan", mock.Anything, int64(123)).Return(&l, nil).Once()

		rec := httptest.NewRecorder()
		handler.GetLoan(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/123", nil), "loanID", "123"))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.LoanResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "123", resp.ID)
		assert.Equal(t, "141220.42", resp.MonthlyPayment)
		assert.Equal(t, "ACTIVE", resp.Status)
	})

	t.Run("returns error for invalid loan ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.GetLoan(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/invalid", nil), "loanID", "invalid"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "loanID", decodeError(t, rec).Error.Field)
	})

	t.Run("returns error when loan not found", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, int64(2)).Return(nil, apperrors.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		handler.GetLoan(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/2", nil), "loanID", "2"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Resource not found.", decodeError(t, rec).Error.Message)
	})

	t.Run("returns internal error", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, int64(5)).Return(nil, errors.New("boom")).Once()

		rec := httptest.NewRecorder()
		handler.GetLoan(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/5", nil), "loanID", "5"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	mockService.AssertExpectations(t)
}

func TestLoanHandlerListLoans(t *testing.T) {
	t.Run("passes parsed filter to service", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)
		want := loan.Filter{Status: loan.StatusOverdue, BorrowerID: 3, ProductName: "SME"}
		mockService.On("ListLoans", mock.Anything, want).Return([]loan.Loan{sampleLoan(1), sampleLoan(2)}, nil)

		rec := httptest.NewRecorder()
		handler.ListLoans(rec, httptest.NewRequest(http.MethodGet, "/loans?status=overdue&borrowerId=3&product=SME", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.LoanListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Count)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)

		rec := httptest.NewRecorder()
		handler.ListLoans(rec, httptest.NewRequest(http.MethodGet, "/loans?status=LATE", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "status", decodeError(t, rec).Error.Field)
		mockService.AssertNotCalled(t, "ListLoans", mock.Anything, mock.Anything)
	})

	t.Run("overdue endpoint", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)
		mockService.On("ListOverdueLoans", mock.Anything).Return([]loan.Loan{}, nil)

		rec := httptest.NewRecorder()
		handler.ListOverdueLoans(rec, httptest.NewRequest(http.MethodGet, "/loans/overdue", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"loans":[],"count":0}`, rec.Body.String())
	})
}

func TestLoanHandlerGetLoanSchedule(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("generates schedule as of query date", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)
		schedule, err := loan.GenerateSchedule(sampleLoan(9), asOf)
		require.NoError(t, err)
		mockService.On("GetLoanSchedule", mock.Anything, int64(9), asOf).Return(schedule, nil)

		rec := httptest.NewRecorder()
		handler.GetLoanSchedule(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/9/schedule?asOf=2024-06-01", nil), "loanID", "9"))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.ScheduleResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Entries, 24)
		assert.Equal(t, "3000000.00", resp.TotalPrincipal)
		assert.Equal(t, "PAID", resp.Entries[0].Status)
		assert.Equal(t, "2024-06-01", resp.AsOf)
	})

	t.Run("defaults to today", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)
		handler.now = func() time.Time { return time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC) }
		mockService.On("GetLoanSchedule", mock.Anything, int64(9), asOf).Return([]loan.ScheduleEntry{}, nil)

		rec := httptest.NewRecorder()
		handler.GetLoanSchedule(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/9/schedule", nil), "loanID", "9"))
		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		handler := NewLoanHandler(new(MockLoanService), logger)

		rec := httptest.NewRecorder()
		handler.GetLoanSchedule(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/9/schedule?asOf=June", nil), "loanID", "9"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "asOf", decodeError(t, rec).Error.Field)
	})

	t.Run("invalid loan data maps to 422", func(t *testing.T) {
		mockService := new(MockLoanService)
		handler := NewLoanHandler(mockService, logger)
		mockService.On("GetLoanSchedule", mock.Anything, int64(4), asOf).
			Return(nil, &loan.InvalidLoanDataError{LoanID: 4, Field: "principal", Reason: "must be positive"})

		rec := httptest.NewRecorder()
		handler.GetLoanSchedule(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loans/4/schedule?asOf=2024-06-01", nil), "loanID", "4"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error.Message, "principal")
	})
}
