// Package app assembles repositories, services and HTTP handlers for the
// configured storage driver.
package app

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/author"
	authorrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/author/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book"
	bookrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/book/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/group"
	grouprepo "github.com/ovaphlow/pitchfork/service-library-go/internal/group/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/library"
	libraryrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/library/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile"
	profilerepo "github.com/ovaphlow/pitchfork/service-library-go/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/user/repo"
)

type BookStore interface {
	book.Repository
	author.BookLister
}

type AuthorStore interface {
	author.Repository
	book.AuthorLookup
}

type UserStore interface {
	user.Repository
	group.UserLookup
}

// Repos is one implementation of every persistence port.
type Repos struct {
	Books     BookStore
	Authors   AuthorStore
	Users     UserStore
	Refresh   auth.RefreshStore
	Groups    group.Repository
	Libraries library.Repository
	Profiles  profile.Repository
}

func PostgresRepos(db *sqlx.DB) Repos {
	return Repos{
		Books:     bookrepo.NewBookRepo(db),
		Authors:   authorrepo.NewAuthorRepo(db),
		Users:     userrepo.NewUserRepo(db),
		Refresh:   authrepo.NewRefreshRepo(db),
		Groups:    grouprepo.NewRepo(db),
		Libraries: libraryrepo.NewLibraryRepo(db),
		Profiles:  profilerepo.NewProfileRepo(db),
	}
}

func MemoryRepos(s *memstore.Store) Repos {
	return Repos{
		Books:     s.Books(),
		Authors:   s.Authors(),
		Users:     s.Users(),
		Refresh:   s.Refresh(),
		Groups:    s.Groups(),
		Libraries: s.Libraries(),
		Profiles:  s.Profiles(),
	}
}

// Services holds the domain services built over one Repos.
type Services struct {
	Books     *book.Service
	Authors   *author.Service
	Users     *user.UserService
	Tokens    *auth.Service
	Groups    *group.Service
	Libraries *library.Service
	Profiles  *profile.Service
}

// NewServices builds every service. hasher may be nil for the bcrypt default.
func NewServices(cfg config.Config, r Repos, hasher user.PasswordHasher, photos storage.ObjectStore, logger *zap.SugaredLogger) (*Services, error) {
	tokens, err := auth.NewService(auth.Config{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	}, r.Refresh)
	if err != nil {
		return nil, err
	}
	users := user.NewUserService(r.Users, hasher, photos, logger)
	if cfg.Auth.MaxFailed > 0 {
		users.MaxFailed = cfg.Auth.MaxFailed
	}
	if cfg.Auth.LockMinutes > 0 {
		users.LockMinutes = cfg.Auth.LockMinutes
	}
	profiles := profile.NewService(r.Profiles)
	users.OnCreate(profiles.OnUserCreated)

	return &Services{
		Books:     book.NewService(r.Books, r.Authors),
		Authors:   author.NewService(r.Authors, r.Books),
		Users:     users,
		Tokens:    tokens,
		Groups:    group.NewService(r.Groups, r.Users),
		Libraries: library.NewService(r.Libraries, r.Books),
		Profiles:  profiles,
	}, nil
}

// Options carries the optional HTTP collaborators.
type Options struct {
	MaxUploadBytes int64
	Limiter        interface {
		Middleware(http.Handler) http.Handler
	}
	Media http.Handler
	Ready func(ctx context.Context) error
}

// Handler mounts every endpoint over s.
func (s *Services) Handler(logger *zap.SugaredLogger, opts Options) http.Handler {
	d := router.Deps{
		Logger:      logger,
		Books:       book.NewHandler(s.Books, logger),
		Authors:     author.NewHandler(s.Authors, logger),
		Auth:        auth.NewHandler(s.Tokens, s.Users, logger),
		Users:       user.NewHandler(s.Users, logger, opts.MaxUploadBytes),
		Groups:      group.NewHandler(s.Groups, logger),
		Libraries:   library.NewHandler(s.Libraries, logger),
		Profiles:    profile.NewHandler(s.Profiles, logger),
		Tokens:      s.Tokens,
		Permissions: s.Groups,
		Media:       opts.Media,
		Ready:       opts.Ready,
	}
	if opts.Limiter != nil {
		d.Limiter = opts.Limiter
	}
	return router.RegisterRoutes(d)
}
