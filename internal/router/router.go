package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/author"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/group"
	groupentity "github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/library"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

// Deps lists everything the router mounts. Limiter, Media and Ready are optional.
type Deps struct {
	Logger *zap.SugaredLogger

	Books     *book.Handler
	Authors   *author.Handler
	Auth      *auth.Handler
	Users     *user.Handler
	Groups    *group.Handler
	Libraries *library.Handler
	Profiles  *profile.Handler

	// Tokens verifies bearer tokens on every request.
	Tokens      *auth.Service
	Permissions auth.PermissionChecker

	// Limiter throttles the token endpoint.
	Limiter interface {
		Middleware(http.Handler) http.Handler
	}
	// Media serves stored profile photos under /media/.
	Media http.Handler
	Ready func(ctx context.Context) error
}

// RegisterRoutes mounts every endpoint on a ServeMux and wraps it with the
// shared middleware chain.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler { return auth.RequireAuthenticated(h) }
	super := func(h http.HandlerFunc) http.Handler { return auth.RequireSuperuser(h) }
	can := func(perm string, h http.HandlerFunc) http.Handler {
		return auth.RequirePermission(d.Permissions, perm)(h)
	}

	mux.HandleFunc("GET /api/{$}", overview)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/ready", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				d.Logger.Warnw("readiness check failed", "err", err)
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// books: separate endpoints
	mux.HandleFunc("GET /api/books/{$}", d.Books.List)
	mux.HandleFunc("GET /api/books/{id}/{$}", d.Books.Retrieve)
	mux.Handle("POST /api/books/create/{$}", authed(d.Books.Create))
	mux.Handle("PUT /api/books/{id}/update/{$}", authed(d.Books.Update))
	mux.Handle("PATCH /api/books/{id}/update/{$}", authed(d.Books.Update))
	mux.Handle("DELETE /api/books/{id}/delete/{$}", authed(d.Books.Delete))

	// books: combined endpoints
	mux.HandleFunc("GET /api/books/legacy/{$}", d.Books.List)
	mux.Handle("POST /api/books/legacy/{$}", authed(d.Books.CreateBare))
	mux.HandleFunc("GET /api/books/{id}/legacy/{$}", d.Books.Retrieve)
	mux.Handle("PUT /api/books/{id}/legacy/{$}", authed(d.Books.UpdateBare))
	mux.Handle("PATCH /api/books/{id}/legacy/{$}", authed(d.Books.UpdateBare))
	mux.Handle("DELETE /api/books/{id}/legacy/{$}", authed(d.Books.DeleteBare))

	// authors
	mux.HandleFunc("GET /api/authors/{$}", d.Authors.List)
	mux.Handle("POST /api/authors/{$}", authed(d.Authors.CreateBare))
	mux.HandleFunc("GET /api/authors/{id}/{$}", d.Authors.Retrieve)
	mux.Handle("PUT /api/authors/{id}/{$}", authed(d.Authors.UpdateBare))
	mux.Handle("PATCH /api/authors/{id}/{$}", authed(d.Authors.UpdateBare))
	mux.Handle("DELETE /api/authors/{id}/{$}", authed(d.Authors.DeleteBare))
	mux.Handle("POST /api/authors/create/{$}", authed(d.Authors.Create))
	mux.Handle("PUT /api/authors/{id}/update/{$}", authed(d.Authors.Update))
	mux.Handle("PATCH /api/authors/{id}/update/{$}", authed(d.Authors.Update))
	mux.Handle("DELETE /api/authors/{id}/delete/{$}", authed(d.Authors.Delete))

	// accounts
	token := http.Handler(http.HandlerFunc(d.Auth.Token))
	if d.Limiter != nil {
		token = d.Limiter.Middleware(token)
	}
	mux.HandleFunc("POST /api/auth/register", d.Users.Register)
	mux.Handle("POST /api/auth/token", token)
	mux.HandleFunc("POST /api/auth/revoke", d.Auth.Revoke)
	mux.Handle("GET /api/auth/me", authed(d.Users.Me))
	mux.Handle("PATCH /api/users/me", authed(d.Users.UpdateMe))
	mux.Handle("PUT /api/users/me/photo", authed(d.Users.UploadPhoto))
	mux.Handle("PUT /api/users/{id}/role/{$}", super(d.Profiles.SetRole))
	mux.Handle("GET /api/roles/{role}/{$}", authed(d.Profiles.RoleView))

	// groups
	mux.Handle("GET /api/groups/{$}", super(d.Groups.List))
	mux.Handle("POST /api/groups/{$}", super(d.Groups.Create))
	mux.Handle("GET /api/groups/{id}/{$}", super(d.Groups.Retrieve))
	mux.Handle("PUT /api/groups/{id}/{$}", super(d.Groups.Update))
	mux.Handle("PATCH /api/groups/{id}/{$}", super(d.Groups.Update))
	mux.Handle("DELETE /api/groups/{id}/{$}", super(d.Groups.Delete))
	mux.Handle("POST /api/groups/{id}/members/{$}", super(d.Groups.AddMember))
	mux.Handle("DELETE /api/groups/{id}/members/{user_id}/{$}", super(d.Groups.RemoveMember))

	// libraries
	mux.Handle("GET /api/libraries/{$}", can(groupentity.CanView, d.Libraries.List))
	mux.Handle("POST /api/libraries/{$}", can(groupentity.CanCreate, d.Libraries.Create))
	mux.Handle("GET /api/libraries/{id}/{$}", can(groupentity.CanView, d.Libraries.Retrieve))
	mux.Handle("PUT /api/libraries/{id}/{$}", can(groupentity.CanEdit, d.Libraries.Update))
	mux.Handle("PATCH /api/libraries/{id}/{$}", can(groupentity.CanEdit, d.Libraries.Update))
	mux.Handle("DELETE /api/libraries/{id}/{$}", can(groupentity.CanDelete, d.Libraries.Delete))
	mux.Handle("PUT /api/libraries/{id}/librarian/{$}", can(groupentity.CanEdit, d.Libraries.SetLibrarian))

	if d.Media != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", d.Media))
	}

	var handler http.Handler = mux
	handler = d.Tokens.Authenticate(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(d.Logger)(handler)
	return RequestIDMiddleware()(handler)
}

type endpoint struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
	Auth    string   `json:"auth"`
}

var endpoints = []endpoint{
	{"/api/books/", []string{"GET"}, "public"},
	{"/api/books/{id}/", []string{"GET"}, "public"},
	{"/api/books/create/", []string{"POST"}, "authenticated"},
	{"/api/books/{id}/update/", []string{"PUT", "PATCH"}, "authenticated"},
	{"/api/books/{id}/delete/", []string{"DELETE"}, "authenticated"},
	{"/api/books/legacy/", []string{"GET", "POST"}, "public read, authenticated write"},
	{"/api/books/{id}/legacy/", []string{"GET", "PUT", "PATCH", "DELETE"}, "public read, authenticated write"},
	{"/api/authors/", []string{"GET", "POST"}, "public read, authenticated write"},
	{"/api/authors/{id}/", []string{"GET", "PUT", "PATCH", "DELETE"}, "public read, authenticated write"},
	{"/api/authors/create/", []string{"POST"}, "authenticated"},
	{"/api/authors/{id}/update/", []string{"PUT", "PATCH"}, "authenticated"},
	{"/api/authors/{id}/delete/", []string{"DELETE"}, "authenticated"},
	{"/api/auth/register", []string{"POST"}, "public"},
	{"/api/auth/token", []string{"POST"}, "public"},
	{"/api/auth/revoke", []string{"POST"}, "public"},
	{"/api/auth/me", []string{"GET"}, "authenticated"},
	{"/api/users/me", []string{"PATCH"}, "authenticated"},
	{"/api/users/me/photo", []string{"PUT"}, "authenticated"},
	{"/api/users/{id}/role/", []string{"PUT"}, "superuser"},
	{"/api/roles/{role}/", []string{"GET"}, "role"},
	{"/api/groups/", []string{"GET", "POST"}, "superuser"},
	{"/api/groups/{id}/", []string{"GET", "PUT", "PATCH", "DELETE"}, "superuser"},
	{"/api/groups/{id}/members/", []string{"POST"}, "superuser"},
	{"/api/groups/{id}/members/{user_id}/", []string{"DELETE"}, "superuser"},
	{"/api/libraries/", []string{"GET", "POST"}, "can_view, can_create"},
	{"/api/libraries/{id}/", []string{"GET", "PUT", "PATCH", "DELETE"}, "can_view, can_edit, can_delete"},
	{"/api/libraries/{id}/librarian/", []string{"PUT"}, "can_edit"},
	{"/api/health", []string{"GET"}, "public"},
	{"/api/ready", []string{"GET"}, "public"},
}

func overview(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"message":   "Library catalogue API",
		"endpoints": endpoints,
	})
}
