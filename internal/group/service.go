package group

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// Repository is the persistence port for groups and memberships.
type Repository interface {
	List(ctx context.Context) ([]entity.Group, error)
	GetByID(ctx context.Context, id int64) (*entity.Group, error)
	Create(ctx context.Context, g *entity.Group) error
	Update(ctx context.Context, g *entity.Group) error
	Delete(ctx context.Context, id int64) error
	Members(ctx context.Context, groupID int64) ([]int64, error)
	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	HasPermission(ctx context.Context, userID int64, perm string) (bool, error)
}

// UserLookup checks that a user exists before it joins a group.
type UserLookup interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Service encapsulates business logic for groups and depends on a repo.
type Service struct {
	repo  Repository
	users UserLookup
}

// NewService constructs a Service with the provided repository.
func NewService(r Repository, users UserLookup) *Service {
	return &Service{repo: r, users: users}
}

const maxNameLength = 150

// Input carries writable group fields. Nil means absent.
type Input struct {
	Name        *string   `json:"name"`
	Permissions *[]string `json:"permissions"`
}

func (s *Service) List(ctx context.Context) ([]entity.Group, error) {
	return s.repo.List(ctx)
}

// Get returns a group with its members.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Detail, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.Members(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.Detail{Group: *g, Members: members}, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.Group, error) {
	g := entity.Group{Permissions: []string{}}
	if err := apply(&g, in, false); err != nil {
		return nil, err
	}
	g.ID = utilities.NewID()
	if err := s.repo.Create(ctx, &g); err != nil {
		return nil, conflict(err)
	}
	return &g, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input, partial bool) (*entity.Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(g, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, conflict(err)
	}
	return g, nil
}

// Delete removes a group by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AddMember puts userID into the group. Both must exist.
func (s *Service) AddMember(ctx context.Context, groupID, userID int64) error {
	if _, err := s.repo.GetByID(ctx, groupID); err != nil {
		return err
	}
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ValidationError{"user_id": {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", userID)}}
	}
	return s.repo.AddMember(ctx, groupID, userID)
}

func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// HasPermission reports whether one of the user's groups grants perm.
func (s *Service) HasPermission(ctx context.Context, userID int64, perm string) (bool, error) {
	return s.repo.HasPermission(ctx, userID, perm)
}

func apply(g *entity.Group, in Input, partial bool) error {
	verr := common.ValidationError{}
	if in.Name == nil && !partial {
		verr.Add("name", "This field is required.")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			verr.Add("name", "This field may not be blank.")
		case utf8.RuneCountInString(name) > maxNameLength:
			verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
		default:
			g.Name = name
		}
	}
	if in.Permissions != nil {
		perms, bad := normalizePermissions(*in.Permissions)
		for _, p := range bad {
			verr.Add("permissions", fmt.Sprintf("\"%s\" is not a valid choice.", p))
		}
		if len(bad) == 0 {
			g.Permissions = perms
		}
	}
	return verr.Err()
}

// normalizePermissions dedupes and sorts perms into display order.
func normalizePermissions(perms []string) ([]string, []string) {
	set := map[string]bool{}
	var bad []string
	for _, p := range perms {
		if !entity.IsPermission(p) {
			bad = append(bad, p)
			continue
		}
		set[p] = true
	}
	out := make([]string, 0, len(set))
	for _, p := range entity.Permissions {
		if set[p] {
			out = append(out, p)
		}
	}
	sort.Strings(bad)
	return out, bad
}

func conflict(err error) error {
	if errors.Is(err, common.ErrConflict) {
		return common.ValidationError{"name": {"group with this name already exists."}}
	}
	return err
}
