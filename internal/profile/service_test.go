package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

func TestParseRole(t *testing.T) {
	r, ok := entity.ParseRole("librarian")
	assert.True(t, ok)
	assert.Equal(t, entity.RoleLibrarian, r)
	_, ok = entity.ParseRole("janitor")
	assert.False(t, ok)
}

func TestUserCreatedHookAssignsRole(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewService(store.Profiles())
	member := &userentity.User{ID: 1, Username: "m"}
	admin := &userentity.User{ID: 2, Username: "a", IsSuperuser: true}
	require.NoError(t, store.Users().Create(ctx, member))
	require.NoError(t, store.Users().Create(ctx, admin))

	require.NoError(t, svc.OnUserCreated(ctx, member))
	require.NoError(t, svc.OnUserCreated(ctx, admin))

	assert.NoError(t, svc.Require(ctx, 1, entity.RoleMember))
	assert.ErrorIs(t, svc.Require(ctx, 1, entity.RoleAdmin), ErrWrongRole)
	assert.NoError(t, svc.Require(ctx, 2, entity.RoleAdmin))
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewService(store.Profiles())
	require.NoError(t, store.Users().Create(ctx, &userentity.User{ID: 1, Username: "m"}))

	p, err := svc.SetRole(ctx, 1, "LIBRARIAN")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleLibrarian, p.Role)
	assert.NoError(t, svc.Require(ctx, 1, entity.RoleLibrarian))

	_, err = svc.SetRole(ctx, 1, "janitor")
	_, ok := common.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.SetRole(ctx, 404, entity.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMissingProfileReadsAsMember(t *testing.T) {
	svc := NewService(memstore.New().Profiles())
	p, err := svc.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, p.Role)
}
