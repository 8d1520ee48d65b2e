package models

import "time"

// AccessRole is the permission a share link grants on its board.
type AccessRole string

const (
	AccessRoleViewer AccessRole = "viewer"
	AccessRoleEditor AccessRole = "editor"
)

func (r AccessRole) Valid() bool {
	return r == AccessRoleViewer || r == AccessRoleEditor
}

// AccessLink is a password protected share link to a board. Only the bcrypt
// hash of the password is stored.
type AccessLink struct {
	ID           string     `json:"id"`
	BoardID      string     `json:"board_id"`
	Role         AccessRole `json:"role"`
	PasswordHash string     `json:"password_hash"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether the link stopped working before now. Links without
// an expiry never expire.
func (l *AccessLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
