package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	profileentity "github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

// Users implements user.Repository.
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *userentity.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username {
			return common.ErrConflict
		}
	}
	now := u.s.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	u.s.users[user.ID] = *user
	return nil
}

func (u *Users) GetByID(_ context.Context, id int64) (*userentity.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (u *Users) GetByUsername(_ context.Context, username string) (*userentity.User, error) {
	return u.find(func(x userentity.User) bool { return x.Username == username })
}

func (u *Users) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	return u.find(func(x userentity.User) bool { return strings.EqualFold(x.Email, email) })
}

// find returns the lowest-id user matching pred.
func (u *Users) find(pred func(userentity.User) bool) (*userentity.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var found *userentity.User
	for _, x := range u.s.users {
		if pred(x) && (found == nil || x.ID < found.ID) {
			x := x
			found = &x
		}
	}
	if found == nil {
		return nil, common.ErrNotFound
	}
	return found, nil
}

func (u *Users) UserExists(_ context.Context, id int64) (bool, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	_, ok := u.s.users[id]
	return ok, nil
}

func (u *Users) GetMinimalAuthView(_ context.Context, id int64) (*userentity.MinimalAuthView, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok || user.Status != userentity.StatusActive {
		return nil, common.ErrNotFound
	}
	return &userentity.MinimalAuthView{ID: user.ID, Username: user.Username, IsStaff: user.IsStaff, IsSuperuser: user.IsSuperuser}, nil
}

func (u *Users) IncrementFailedLogin(_ context.Context, id int64) (int, error) {
	var n int
	err := u.update(id, func(x *userentity.User) {
		x.LoginFailedAttempts++
		n = x.LoginFailedAttempts
	})
	return n, err
}

func (u *Users) LockIfThreshold(_ context.Context, id int64, threshold int, lockMinutes int) (bool, error) {
	locked := false
	err := u.update(id, func(x *userentity.User) {
		if x.Status == userentity.StatusActive && x.LoginFailedAttempts >= threshold {
			until := u.s.Now().Add(time.Duration(lockMinutes) * time.Minute)
			x.Status = userentity.StatusLocked
			x.LockedUntil = &until
			locked = true
		}
	})
	return locked, err
}

func (u *Users) UnlockIfExpired(_ context.Context, id int64) (bool, error) {
	unlocked := false
	err := u.update(id, func(x *userentity.User) {
		if x.Status == userentity.StatusLocked && x.LockedUntil != nil && x.LockedUntil.Before(u.s.Now()) {
			x.Status = userentity.StatusActive
			x.LockedUntil = nil
			x.LoginFailedAttempts = 0
			unlocked = true
		}
	})
	return unlocked, err
}

func (u *Users) ResetLoginSuccess(_ context.Context, id int64) error {
	return u.update(id, func(x *userentity.User) {
		now := u.s.Now()
		x.LoginFailedAttempts = 0
		x.LockedUntil = nil
		x.LastLoginAt = &now
	})
}

func (u *Users) UpdateProfile(_ context.Context, user *userentity.User) error {
	return u.update(user.ID, func(x *userentity.User) {
		x.Email = user.Email
		x.DateOfBirth = user.DateOfBirth
	})
}

func (u *Users) SetPhoto(_ context.Context, id int64, key string) error {
	return u.update(id, func(x *userentity.User) { x.ProfilePhoto = key })
}

func (u *Users) UpdatePassword(_ context.Context, id int64, hash, algo string) error {
	return u.update(id, func(x *userentity.User) {
		x.PasswordHash = &hash
		x.PasswordAlgo = &algo
	})
}

func (u *Users) update(id int64, fn func(*userentity.User)) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = u.s.Now()
	u.s.users[id] = user
	return nil
}

// Refresh implements auth.RefreshStore.
type Refresh struct{ s *Store }

func (r *Refresh) Save(_ context.Context, token string, id, userID int64, clientID string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refresh[token] = refreshSession{id: id, userID: userID, clientID: clientID, expiresAt: expiresAt}
	return nil
}

func (r *Refresh) Get(_ context.Context, token string) (int64, int64, string, time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rs, ok := r.s.refresh[token]
	if !ok {
		return 0, 0, "", time.Time{}, common.ErrNotFound
	}
	return rs.id, rs.userID, rs.clientID, rs.expiresAt, nil
}

func (r *Refresh) Delete(_ context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.refresh[token]
	delete(r.s.refresh, token)
	return ok, nil
}

func (r *Refresh) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for tok, rs := range r.s.refresh {
		if rs.expiresAt.Before(now) {
			delete(r.s.refresh, tok)
			n++
		}
	}
	return n, nil
}

// Profiles implements profile.Repository.
type Profiles struct{ s *Store }

func (p *Profiles) Create(_ context.Context, prof *profileentity.UserProfile) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.users[prof.UserID]; !ok {
		return common.ErrNotFound
	}
	if _, ok := p.s.profiles[prof.UserID]; !ok {
		p.s.profiles[prof.UserID] = *prof
	}
	return nil
}

func (p *Profiles) Get(_ context.Context, userID int64) (*profileentity.UserProfile, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &prof, nil
}

func (p *Profiles) SetRole(_ context.Context, userID int64, role string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.users[userID]; !ok {
		return common.ErrNotFound
	}
	p.s.profiles[userID] = profileentity.UserProfile{UserID: userID, Role: role}
	return nil
}
