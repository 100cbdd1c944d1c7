package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const testSecret = "test-jwt-secret-key"

func TestGenerateBearerToken(t *testing.T) {
	handler := NewAuthHandler(config.AuthConfig{Enabled: true, JWTSecret: testSecret, TokenTTL: time.Hour}, logger)
	issued := time.Now().Truncate(time.Second)
	handler.now = func() time.Time { return issued }

	t.Run("successfully generates token", func(t *testing.T) {
		body, _ := json.Marshal(dto.TokenRequest{Username: "analyst"})
		rec := httptest.NewRecorder()
		handler.GenerateBearerToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.True(t, resp.ExpiresAt.Equal(issued.Add(time.Hour)))

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "analyst", claims.Subject)
	})

	t.Run("fails with invalid request body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.GenerateBearerToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte("invalid json"))))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error.Message, "invalid argument")
	})

	t.Run("fails with missing username", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.GenerateBearerToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte(`{"username":""}`))))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "username", resp.Error.Field)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.GenerateBearerToken(rec, httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte(`{"username":"a","role":"admin"}`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewAuthHandler_DefaultTTL(t *testing.T) {
	h := NewAuthHandler(config.AuthConfig{JWTSecret: testSecret}, logger)
	assert.Equal(t, defaultTokenTTL, h.cfg.TokenTTL)
}
