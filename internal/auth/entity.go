package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshSession represents a persisted refresh session.
type RefreshSession struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ClientID  string    `db:"client_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Claims are carried by access tokens.
type Claims struct {
	Username    string `json:"username"`
	IsStaff     bool   `json:"is_staff,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	jwt.RegisteredClaims
}

// Tokens is the token endpoint response body.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
