package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// RefreshStore persists opaque refresh tokens.
type RefreshStore interface {
	Save(ctx context.Context, token string, id, userID int64, clientID string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (id, userID int64, clientID string, expiresAt time.Time, err error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// Service issues and verifies HS256 access tokens and rotates refresh tokens.
type Service struct {
	cfg     Config
	key     []byte
	refresh RefreshStore
	now     func() time.Time
}

func NewService(cfg Config, refresh RefreshStore) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Service{cfg: cfg, key: []byte(cfg.Secret), refresh: refresh, now: time.Now}, nil
}

// IssueTokens creates an access token and a persisted refresh token for u.
func (s *Service) IssueTokens(ctx context.Context, u *userentity.MinimalAuthView, clientID string) (*Tokens, error) {
	now := s.now()
	claims := Claims{
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			ID:        utilities.NewKSUID(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	rtBytes := make([]byte, 32)
	if _, err := rand.Read(rtBytes); err != nil {
		return nil, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(rtBytes)
	if err := s.refresh.Save(ctx, refresh, utilities.NewID(), u.ID, clientID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// ParseAccessToken verifies signature, issuer and expiry of an access token.
func (s *Service) ParseAccessToken(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// ValidateRefreshToken checks an opaque refresh token and returns the session if valid.
func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (*RefreshSession, bool) {
	id, userID, clientID, expiresAt, err := s.refresh.Get(ctx, token)
	if err != nil {
		return nil, false
	}
	rs := RefreshSession{ID: id, UserID: userID, ClientID: clientID, ExpiresAt: expiresAt}
	if rs.ExpiresAt.Before(s.now()) {
		return nil, false
	}
	return &rs, true
}

// ConsumeRefreshToken validates token and revokes it so it cannot be used
// again. The caller issues a fresh pair for the returned session.
func (s *Service) ConsumeRefreshToken(ctx context.Context, token string) (*RefreshSession, error) {
	rs, ok := s.ValidateRefreshToken(ctx, token)
	if !ok {
		return nil, ErrInvalidRefresh
	}
	deleted, err := s.refresh.Delete(ctx, token)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrInvalidRefresh
	}
	return rs, nil
}

// RevokeRefreshToken removes a refresh token from store.
func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := s.refresh.Delete(ctx, token)
	return err
}

// PurgeExpired deletes refresh sessions that can no longer be used.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.refresh.DeleteExpired(ctx, s.now())
}
