package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

// Authenticator resolves credentials and user ids to token claims.
type Authenticator interface {
	AuthenticatePassword(ctx context.Context, identifier, password string) (*userentity.MinimalAuthView, error)
	GetMinimalAuthView(ctx context.Context, id int64) (*userentity.MinimalAuthView, error)
}

type Handler struct {
	svc    *Service
	users  Authenticator
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, users Authenticator, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, logger: logger}
}

type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeOAuthError(w http.ResponseWriter, status int, code, desc string) {
	response.JSON(w, status, oauthError{Error: code, Description: desc})
}

// Token serves POST /api/auth/token for the password and refresh_token grants.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	clientID := r.Form.Get("client_id")
	switch r.Form.Get("grant_type") {
	case "password":
		h.passwordGrant(w, r, clientID)
	case "refresh_token":
		h.refreshGrant(w, r)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "")
	}
}

func (h *Handler) passwordGrant(w http.ResponseWriter, r *http.Request, clientID string) {
	username := r.Form.Get("username")
	v, err := h.users.AuthenticatePassword(r.Context(), username, r.Form.Get("password"))
	if err != nil {
		h.logger.Debugw("login failed", "username", username, "err", err)
		switch {
		case errors.Is(err, user.ErrBadCredentials):
			writeOAuthError(w, http.StatusUnauthorized, "invalid_grant", "invalid credentials")
		case errors.Is(err, user.ErrLocked):
			writeOAuthError(w, http.StatusForbidden, "invalid_grant", "account locked")
		case errors.Is(err, user.ErrDisabled):
			writeOAuthError(w, http.StatusForbidden, "invalid_grant", "account disabled")
		default:
			h.logger.Errorw("password grant failed", "err", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}
	h.issue(w, r, v, clientID)
}

// refreshGrant rotates the refresh token: the old one is revoked before a new pair is issued.
func (h *Handler) refreshGrant(w http.ResponseWriter, r *http.Request) {
	rt := r.Form.Get("refresh_token")
	if rt == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}
	session, err := h.svc.ConsumeRefreshToken(r.Context(), rt)
	if err != nil {
		if !errors.Is(err, ErrInvalidRefresh) {
			h.logger.Errorw("refresh grant failed", "err", err)
		}
		writeOAuthError(w, http.StatusUnauthorized, "invalid_grant", "")
		return
	}
	v, err := h.users.GetMinimalAuthView(r.Context(), session.UserID)
	if err != nil {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_grant", "")
		return
	}
	h.issue(w, r, v, session.ClientID)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, v *userentity.MinimalAuthView, clientID string) {
	tokens, err := h.svc.IssueTokens(r.Context(), v, clientID)
	if err != nil {
		h.logger.Errorw("issue tokens failed", "user_id", v.ID, "err", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, http.StatusOK, tokens)
}

// Revoke implements RFC 7009 token revocation for refresh tokens. It returns
// 200 even if the token is unknown.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	token := r.Form.Get("token")
	if token == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}
	if err := h.svc.RevokeRefreshToken(r.Context(), token); err != nil {
		h.logger.Warnw("revoke refresh token failed", "err", err)
	}
	w.WriteHeader(http.StatusOK)
}
