package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

// ErrWrongRole is returned when the caller's profile does not carry the
// role a view requires.
var ErrWrongRole = errors.New("role not permitted")

// Repository is the persistence port for profiles.
type Repository interface {
	Create(ctx context.Context, p *entity.UserProfile) error
	Get(ctx context.Context, userID int64) (*entity.UserProfile, error)
	SetRole(ctx context.Context, userID int64, role string) error
}

type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// OnUserCreated attaches a Member profile to a new user. Superusers start as Admin.
func (s *Service) OnUserCreated(ctx context.Context, u *userentity.User) error {
	role := entity.RoleMember
	if u.IsSuperuser {
		role = entity.RoleAdmin
	}
	return s.repo.Create(ctx, &entity.UserProfile{UserID: u.ID, Role: role})
}

// Get returns the user's profile. Users created before profiles existed
// read as Member.
func (s *Service) Get(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return &entity.UserProfile{UserID: userID, Role: entity.RoleMember}, nil
	}
	return p, err
}

func (s *Service) SetRole(ctx context.Context, userID int64, role string) (*entity.UserProfile, error) {
	canonical, ok := entity.ParseRole(strings.TrimSpace(role))
	if !ok {
		return nil, common.ValidationError{"role": {"\"" + role + "\" is not a valid choice."}}
	}
	if err := s.repo.SetRole(ctx, userID, canonical); err != nil {
		return nil, err
	}
	return &entity.UserProfile{UserID: userID, Role: canonical}, nil
}

// Require checks that userID holds role.
func (s *Service) Require(ctx context.Context, userID int64, role string) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.Role != role {
		return ErrWrongRole
	}
	return nil
}
