package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// Repository is the persistence port for users.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error)
	IncrementFailedLogin(ctx context.Context, id int64) (int, error)
	LockIfThreshold(ctx context.Context, id int64, threshold int, lockMinutes int) (bool, error)
	UnlockIfExpired(ctx context.Context, id int64) (bool, error)
	ResetLoginSuccess(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, u *entity.User) error
	SetPhoto(ctx context.Context, id int64, key string) error
	UpdatePassword(ctx context.Context, id int64, hash, algo string) error
}

// CreatedHook runs after a user row is stored, e.g. to attach a profile.
type CreatedHook func(ctx context.Context, u *entity.User) error

// UserService orchestrates authentication and user lifecycle flows.
type UserService struct {
	repo   Repository
	hasher PasswordHasher
	photos storage.ObjectStore
	hooks  []CreatedHook
	logger *zap.SugaredLogger
	// configuration knobs
	MaxFailed   int
	LockMinutes int
	PhotoURLTTL time.Duration
}

func NewUserService(r Repository, hasher PasswordHasher, photos storage.ObjectStore, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{
		repo:        r,
		hasher:      hasher,
		photos:      photos,
		logger:      logger,
		MaxFailed:   6,
		LockMinutes: 15,
		PhotoURLTTL: time.Hour,
	}
}

// OnCreate registers a hook that runs for every new user.
func (s *UserService) OnCreate(h CreatedHook) {
	s.hooks = append(s.hooks, h)
}

var (
	ErrLocked         = errors.New("user locked")
	ErrDisabled       = errors.New("user disabled")
	ErrBadCredentials = errors.New("invalid credentials")
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

// NewUser holds the fields accepted when creating an account.
type NewUser struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

// CreateUser validates nu, normalises the email, hashes the password and
// stores a regular account.
func (s *UserService) CreateUser(ctx context.Context, nu NewUser) (*entity.User, error) {
	return s.create(ctx, nu, false)
}

// CreateSuperuser stores an account with staff and superuser flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, nu NewUser) (*entity.User, error) {
	return s.create(ctx, nu, true)
}

func (s *UserService) create(ctx context.Context, nu NewUser, super bool) (*entity.User, error) {
	verr := common.ValidationError{}
	username := strings.TrimSpace(nu.Username)
	switch {
	case username == "":
		verr.Add("username", "This field is required.")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength))
	}
	email, ok := NormalizeEmail(nu.Email)
	if !ok {
		verr.Add("email", "Enter a valid email address.")
	}
	switch {
	case utf8.RuneCountInString(nu.Password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	case len(nu.Password) > maxPasswordBytes:
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordBytes))
	}
	dob, ok := parseDate(nu.DateOfBirth)
	if !ok {
		verr.Add("date_of_birth", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	hash, algo, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		ID:           utilities.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		PasswordAlgo: &algo,
		DateOfBirth:  dob,
		IsStaff:      super,
		IsSuperuser:  super,
		Status:       entity.StatusActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ValidationError{"username": {"A user with that username already exists."}}
		}
		return nil, err
	}
	// Hooks are best effort; a user without a profile reads as Member.
	for _, h := range s.hooks {
		if err := h(ctx, u); err != nil {
			s.logger.Errorw("user created hook failed", "user_id", u.ID, "err", err)
		}
	}
	return u, nil
}

// NormalizeEmail lowercases the domain part of an address. An empty address is
// allowed; an unparseable one is not.
func NormalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", true
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	at := strings.LastIndex(email, "@")
	return email[:at] + strings.ToLower(email[at:]), true
}

func parseDate(v string) (*time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// AuthenticatePassword performs password authentication by email or username.
// On success resets counters and returns the user minimal auth view.
func (s *UserService) AuthenticatePassword(ctx context.Context, identifier, password string) (*entity.MinimalAuthView, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBadCredentials
	}

	var u *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.repo.GetByEmail(ctx, identifier)
	} else {
		u, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrBadCredentials
		} // avoid user enumeration
		return nil, err
	}

	// Expired lock auto-unlock attempt
	if u.Status == entity.StatusLocked && u.LockedUntil != nil && u.LockedUntil.Before(time.Now()) {
		if unlocked, _ := s.repo.UnlockIfExpired(ctx, u.ID); unlocked {
			u.Status = entity.StatusActive
			u.LockedUntil = nil
		}
	}

	switch u.Status {
	case entity.StatusLocked:
		return nil, ErrLocked
	case entity.StatusDisabled:
		return nil, ErrDisabled
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}

	if !s.hasher.Verify(*u.PasswordHash, password) {
		if _, incErr := s.repo.IncrementFailedLogin(ctx, u.ID); incErr == nil {
			if locked, _ := s.repo.LockIfThreshold(ctx, u.ID, s.MaxFailed, s.LockMinutes); locked {
				s.logger.Warnw("account locked after failed logins", "user_id", u.ID)
			}
		}
		return nil, ErrBadCredentials
	}

	if err := s.repo.ResetLoginSuccess(ctx, u.ID); err != nil {
		return nil, err
	}

	if s.hasher.NeedsRehash(*u.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			_ = s.repo.UpdatePassword(ctx, u.ID, newHash, algo)
		}
	}
	return s.repo.GetMinimalAuthView(ctx, u.ID)
}

// GetMinimalAuthView retrieves the minimal projection for an active user by ID.
func (s *UserService) GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error) {
	return s.repo.GetMinimalAuthView(ctx, id)
}

// UserExists reports whether id names a stored user.
func (s *UserService) UserExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// View loads the public representation of the user.
func (s *UserService) View(ctx context.Context, id int64) (*entity.View, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, u), nil
}

func (s *UserService) view(ctx context.Context, u *entity.User) *entity.View {
	var photoURL string
	if u.ProfilePhoto != "" && s.photos != nil {
		url, err := s.photos.PresignGet(ctx, u.ProfilePhoto, s.PhotoURLTTL)
		if err != nil {
			s.logger.Warnw("presign profile photo failed", "user_id", u.ID, "err", err)
		} else {
			photoURL = url
		}
	}
	v := entity.NewView(u, photoURL)
	return &v
}

// ProfileUpdate carries the self-service fields. Nil means unchanged.
type ProfileUpdate struct {
	Email       *string `json:"email"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateMe applies a partial update to the caller's own account.
func (s *UserService) UpdateMe(ctx context.Context, id int64, in ProfileUpdate) (*entity.View, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := common.ValidationError{}
	if in.Email != nil {
		if email, ok := NormalizeEmail(*in.Email); ok {
			u.Email = email
		} else {
			verr.Add("email", "Enter a valid email address.")
		}
	}
	if in.DateOfBirth != nil {
		if dob, ok := parseDate(*in.DateOfBirth); ok {
			u.DateOfBirth = dob
		} else {
			verr.Add("date_of_birth", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return s.view(ctx, u), nil
}

var photoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SetPhoto uploads a new profile photo and replaces the previous one.
func (s *UserService) SetPhoto(ctx context.Context, id int64, r io.Reader, size int64, contentType string) (*entity.View, error) {
	ext, ok := photoTypes[contentType]
	if !ok {
		return nil, common.ValidationError{"profile_photo": {"Upload a valid image. The file you uploaded was either not an image or a corrupted image."}}
	}
	if s.photos == nil {
		return nil, errors.New("photo storage is not configured")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key := path.Join("profile_photos", fmt.Sprintf("%d", id), utilities.NewKSUID()+ext)
	if err := s.photos.Put(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.SetPhoto(ctx, id, key); err != nil {
		_ = s.photos.Delete(ctx, key)
		return nil, err
	}
	if old := u.ProfilePhoto; old != "" {
		if err := s.photos.Delete(ctx, old); err != nil {
			s.logger.Warnw("delete old profile photo failed", "user_id", id, "key", old, "err", err)
		}
	}
	u.ProfilePhoto = key
	return s.view(ctx, u), nil
}
