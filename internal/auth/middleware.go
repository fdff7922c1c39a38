package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/principal"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgInvalidToken     = "Given token not valid for any token type"
	msgForbidden        = "You do not have permission to perform this action."
)

// PermissionChecker reports whether a user holds a named capability.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, perm string) (bool, error)
}

// Authenticate resolves a Bearer token into a principal on the request
// context. Requests without a token pass through as anonymous; a token that
// fails verification is rejected with 401.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			unauthorized(w, msgInvalidToken)
			return
		}
		claims, err := s.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			unauthorized(w, msgInvalidToken)
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			unauthorized(w, msgInvalidToken)
			return
		}
		p := principal.Principal{
			UserID:      id,
			Username:    claims.Username,
			IsStaff:     claims.IsStaff,
			IsSuperuser: claims.IsSuperuser,
		}
		next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(r.Context(), p)))
	})
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principal.FromContext(r.Context()); !ok {
			unauthorized(w, msgNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser admits only superusers.
func RequireSuperuser(next http.Handler) http.Handler {
	return RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := principal.FromContext(r.Context())
		if !p.IsSuperuser {
			response.Error(w, http.StatusForbidden, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequirePermission admits superusers and users whose groups grant perm.
func RequirePermission(checker PermissionChecker, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := principal.FromContext(r.Context())
			if !p.IsSuperuser {
				ok, err := checker.HasPermission(r.Context(), p.UserID, perm)
				if err != nil {
					response.Error(w, http.StatusInternalServerError, "A server error occurred.")
					return
				}
				if !ok {
					response.Error(w, http.StatusForbidden, msgForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	response.Error(w, http.StatusUnauthorized, detail)
}
