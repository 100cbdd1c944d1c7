package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loan-portfolio/internal/api/handler/dto"
	"loan-portfolio/internal/config"
	"loan-portfolio/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
		now:    time.Now,
	}
}

// GenerateBearerToken issues a signed JWT for the given username.
//
// @Summary Generate a JWT bearer token
// @Description Issues an HS256 token for API access. The username becomes the token subject.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Token request"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode token request", "error", err)
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := dto.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	issuedAt := h.now()
	expiresAt := issuedAt.Add(h.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   req.Username,
		Issuer:    "loan-portfolio",
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.Error("Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("%w: signing token: %v", apperrors.ErrInternalServer, err))
		return
	}

	h.logger.Info("Issued bearer token", "subject", req.Username, "expires_at", expiresAt)
	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     tokenString,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC(),
	})
}
