package models

import (
	"time"
)

// Group is a tenant sub-organization that owns projects and L1/L2 prompts.
type Group struct {
	ID          string    `json:"group_id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Admins      []string  `json:"admins" db:"admins"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HasAdmin reports whether userID administers the group
func (g *Group) HasAdmin(userID string) bool {
	for _, admin := range g.Admins {
		if admin == userID {
			return true
		}
	}
	return false
}
