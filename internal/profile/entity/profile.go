package entity

import "strings"

// Roles a profile can hold.
const (
	RoleAdmin     = "Admin"
	RoleLibrarian = "Librarian"
	RoleMember    = "Member"
)

// Roles lists every role in display order.
var Roles = []string{RoleAdmin, RoleLibrarian, RoleMember}

// ParseRole maps a case-insensitive role name to its canonical form.
func ParseRole(s string) (string, bool) {
	for _, r := range Roles {
		if strings.EqualFold(r, s) {
			return r, true
		}
	}
	return "", false
}

// UserProfile is the one-to-one role record created for every user.
type UserProfile struct {
	UserID int64  `json:"user_id,string" db:"user_id"`
	Role   string `json:"role" db:"role"`
}
