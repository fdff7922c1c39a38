package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

func newTestService(t *testing.T) (*UserService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	photos, err := storage.NewDiskStore(t.TempDir(), "/media")
	require.NoError(t, err)
	return NewUserService(store.Users(), BcryptHasher{Cost: bcrypt.MinCost}, photos, utilities.NewNop()), store
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), NewUser{
		Email:       "not-an-address",
		Password:    "short",
		DateOfBirth: "01/02/1990",
	})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"This field is required."}, verr["username"])
	assert.Contains(t, verr, "email")
	assert.Contains(t, verr, "password")
	assert.Contains(t, verr, "date_of_birth")
}

func TestCreateUserNormalizesEmailAndRunsHooks(t *testing.T) {
	svc, _ := newTestService(t)
	var seen []int64
	svc.OnCreate(func(_ context.Context, u *entity.User) error {
		seen = append(seen, u.ID)
		return nil
	})

	u, err := svc.CreateUser(context.Background(), NewUser{
		Username:    "ann",
		Email:       "Ann@Example.COM",
		Password:    "correct horse",
		DateOfBirth: "1990-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann@example.com", u.Email)
	assert.False(t, u.IsSuperuser)
	assert.Equal(t, []int64{u.ID}, seen)
	require.NotNil(t, u.DateOfBirth)
	assert.Equal(t, "1990-04-01", u.DateOfBirth.Format(entity.DateLayout))

	_, err = svc.CreateUser(context.Background(), NewUser{Username: "ann", Password: "another pass"})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A user with that username already exists."}, verr["username"])
}

func TestCreateUserRejectsPasswordBcryptCannotHash(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), NewUser{Username: "long", Password: strings.Repeat("p", 80)})
	verr, ok := common.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, verr["password"])

	// multi-byte runes count by bytes
	_, err = svc.CreateUser(context.Background(), NewUser{Username: "runes", Password: strings.Repeat("é", 37)})
	_, ok = common.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.CreateUser(context.Background(), NewUser{Username: "edge", Password: strings.Repeat("p", 72)})
	assert.NoError(t, err)
}

func TestCreateUserSurvivesFailingHook(t *testing.T) {
	svc, store := newTestService(t)
	svc.OnCreate(func(context.Context, *entity.User) error { return errors.New("profile table missing") })

	u, err := svc.CreateUser(context.Background(), NewUser{Username: "frank", Password: "good password"})
	require.NoError(t, err)

	stored, err := store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "frank", stored.Username)
}

func TestAuthenticatePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.CreateSuperuser(ctx, NewUser{Username: "root", Email: "root@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	v, err := svc.AuthenticatePassword(ctx, "root", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, v.ID)
	assert.True(t, v.IsSuperuser)

	v, err = svc.AuthenticatePassword(ctx, "ROOT@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, v.ID)

	_, err = svc.AuthenticatePassword(ctx, "root", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.AuthenticatePassword(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	svc.MaxFailed = 3
	_, err := svc.CreateUser(ctx, NewUser{Username: "bob", Password: "good password"})
	require.NoError(t, err)

	// lock as if it happened an hour ago
	store.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	for range 3 {
		_, err = svc.AuthenticatePassword(ctx, "bob", "bad")
		assert.ErrorIs(t, err, ErrBadCredentials)
	}
	_, err = svc.AuthenticatePassword(ctx, "bob", "good password")
	assert.ErrorIs(t, err, ErrLocked)

	store.Now = time.Now
	_, err = svc.AuthenticatePassword(ctx, "bob", "good password")
	assert.NoError(t, err)
}

func TestRehashOnCostChange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUser{Username: "carol", Password: "good password"})
	require.NoError(t, err)

	svc.hasher = BcryptHasher{Cost: bcrypt.MinCost + 1}
	_, err = svc.AuthenticatePassword(ctx, "carol", "good password")
	require.NoError(t, err)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(*stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestSetPhotoReplacesPrevious(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUser{Username: "dana", Password: "good password"})
	require.NoError(t, err)

	_, err = svc.SetPhoto(ctx, u.ID, strings.NewReader("text"), 4, "text/plain")
	_, ok := common.AsValidation(err)
	assert.True(t, ok)

	v, err := svc.SetPhoto(ctx, u.ID, strings.NewReader("png-1"), 5, "image/png")
	require.NoError(t, err)
	require.NotNil(t, v.ProfilePhoto)
	first := *v.ProfilePhoto
	assert.True(t, strings.HasPrefix(first, "/media/profile_photos/"))
	assert.True(t, strings.HasSuffix(first, ".png"))

	v, err = svc.SetPhoto(ctx, u.ID, strings.NewReader("png-2"), 5, "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, first, *v.ProfilePhoto)
}

func TestUpdateMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUser{Username: "erin", Email: "erin@example.com", Password: "good password"})
	require.NoError(t, err)

	dob := "2000-02-29"
	v, err := svc.UpdateMe(ctx, u.ID, ProfileUpdate{DateOfBirth: &dob})
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", v.Email)
	require.NotNil(t, v.DateOfBirth)
	assert.Equal(t, dob, *v.DateOfBirth)

	bad := "erin at example"
	_, err = svc.UpdateMe(ctx, u.ID, ProfileUpdate{Email: &bad})
	_, ok := common.AsValidation(err)
	assert.True(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]struct {
		want string
		ok   bool
	}{
		"":                  {"", true},
		" a.B@Example.org ": {"a.B@example.org", true},
		"Name <a@b.org>":    {"", false},
		"missing-at-sign":   {"", false},
	}
	for in, c := range cases {
		got, ok := NormalizeEmail(in)
		assert.Equal(t, c.ok, ok, in)
		assert.Equal(t, c.want, got, in)
	}
}
