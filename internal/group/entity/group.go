package entity

import "github.com/ovaphlow/pitchfork/service-library-go/internal/common"

// Capabilities a group can grant.
const (
	CanView   = "can_view"
	CanCreate = "can_create"
	CanEdit   = "can_edit"
	CanDelete = "can_delete"
)

// Permissions lists every capability in display order.
var Permissions = []string{CanView, CanCreate, CanEdit, CanDelete}

// IsPermission reports whether p is a known capability.
func IsPermission(p string) bool {
	for _, known := range Permissions {
		if p == known {
			return true
		}
	}
	return false
}

// Group is a named set of capabilities assigned to users.
type Group struct {
	ID          int64    `json:"id,string" db:"id"`
	Name        string   `json:"name" db:"name"`
	Permissions []string `json:"permissions" db:"-"`
}

// Detail adds the member user ids.
type Detail struct {
	Group
	Members common.IDs `json:"members"`
}
