package dto

import "time"

type TokenRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}
