package entity

import "time"

const (
	StatusActive   = "active"
	StatusLocked   = "locked"
	StatusDisabled = "disabled"
)

// User represents an account row in the `users` table.
type User struct {
	ID                  int64      `db:"id"`
	Username            string     `db:"username"`
	Email               string     `db:"email"`
	PasswordHash        *string    `db:"password_hash"`
	PasswordAlgo        *string    `db:"password_algo"`
	DateOfBirth         *time.Time `db:"date_of_birth"`
	ProfilePhoto        string     `db:"profile_photo"` // object key, empty when unset
	IsStaff             bool       `db:"is_staff"`
	IsSuperuser         bool       `db:"is_superuser"`
	Status              string     `db:"status"` // active / locked / disabled
	LoginFailedAttempts int        `db:"login_failed_attempts"`
	LockedUntil         *time.Time `db:"locked_until"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// MinimalAuthView is the minimal projection required for token claim hydration.
type MinimalAuthView struct {
	ID          int64  `db:"id"`
	Username    string `db:"username"`
	IsStaff     bool   `db:"is_staff"`
	IsSuperuser bool   `db:"is_superuser"`
}

// View is the public representation of a user.
type View struct {
	ID           int64   `json:"id,string"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	DateOfBirth  *string `json:"date_of_birth"`
	ProfilePhoto *string `json:"profile_photo"`
	IsStaff      bool    `json:"is_staff"`
	IsSuperuser  bool    `json:"is_superuser"`
}

// DateLayout is the wire format of date_of_birth.
const DateLayout = "2006-01-02"

// NewView projects u; photoURL is the resolved URL of the profile photo, if any.
func NewView(u *User, photoURL string) View {
	v := View{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
	if u.DateOfBirth != nil {
		d := u.DateOfBirth.Format(DateLayout)
		v.DateOfBirth = &d
	}
	if photoURL != "" {
		v.ProfilePhoto = &photoURL
	}
	return v
}
