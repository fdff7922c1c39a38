package group

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewService(store.Groups(), store.Users()), store
}

func strp(s string) *string { return &s }

func TestCreateNormalizesPermissions(t *testing.T) {
	svc, _ := newTestService(t)
	perms := []string{entity.CanDelete, entity.CanView, entity.CanDelete}

	g, err := svc.Create(context.Background(), Input{Name: strp(" Librarians "), Permissions: &perms})
	require.NoError(t, err)
	assert.Equal(t, "Librarians", g.Name)
	assert.Equal(t, []string{entity.CanView, entity.CanDelete}, g.Permissions)
}

func TestCreateRejectsUnknownPermission(t *testing.T) {
	svc, _ := newTestService(t)
	perms := []string{"can_fly", entity.CanEdit}

	_, err := svc.Create(context.Background(), Input{Name: strp("x"), Permissions: &perms})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{`"can_fly" is not a valid choice.`}, verr["permissions"])
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), Input{Name: strp("staff")})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Input{Name: strp("staff")})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"group with this name already exists."}, verr["name"])
}

func TestMembershipGrantsPermission(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &userentity.User{ID: 7, Username: "carol", Status: userentity.StatusActive}))
	perms := []string{entity.CanView}
	g, err := svc.Create(ctx, Input{Name: strp("readers"), Permissions: &perms})
	require.NoError(t, err)

	err = svc.AddMember(ctx, g.ID, 8)
	_, ok := common.AsValidation(err)
	assert.True(t, ok, "unknown user is a validation error")

	require.NoError(t, svc.AddMember(ctx, g.ID, 7))
	has, err := svc.HasPermission(ctx, 7, entity.CanView)
	require.NoError(t, err)
	assert.True(t, has)

	d, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, common.IDs{7}, d.Members)

	require.NoError(t, svc.RemoveMember(ctx, g.ID, 7))
	has, _ = svc.HasPermission(ctx, 7, entity.CanView)
	assert.False(t, has)
	assert.ErrorIs(t, svc.RemoveMember(ctx, g.ID, 7), common.ErrNotFound)
}

func TestPartialUpdateKeepsPermissions(t *testing.T) {
	svc, _ := newTestService(t)
	perms := []string{entity.CanEdit}
	g, err := svc.Create(context.Background(), Input{Name: strp("editors"), Permissions: &perms})
	require.NoError(t, err)

	g, err = svc.Update(context.Background(), g.ID, Input{Name: strp("copy editors")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{entity.CanEdit}, g.Permissions)

	_, err = svc.Update(context.Background(), g.ID, Input{}, false)
	_, ok := common.AsValidation(err)
	assert.True(t, ok)
}
