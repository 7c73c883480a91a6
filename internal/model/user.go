package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. Using a dedicated type keeps
// role checks exhaustive: an unknown role fails at construction instead of
// silently slipping past a guard.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User mirrors the `users` table. PasswordHash is a bcrypt digest; the
// plaintext is never stored. PasswordResetHash holds only the SHA-256 hex of
// an outstanding reset token, never the token itself.
//
// Fields:
//  ID                   – primary key identifier.
//  Name                 – display name.
//  Email                – unique, lowercased email address.
//  Photo                – profile image filename.
//  Role                 – account role (closed set).
//  PasswordHash         – bcrypt hash of the password.
//  PasswordChangedAt    – set whenever the password changes; tokens issued
//                         before this instant are rejected.
//  PasswordResetHash    – SHA-256 hex of the pending reset token (nullable).
//  PasswordResetExpires – reset token expiry (nullable).
//  Active               – soft-delete flag; inactive users are invisible to
//                         normal queries.
type User struct {
	ID                   uint64     // users.id
	Name                 string     // users.name
	Email                string     // users.email
	Photo                string     // users.photo
	Role                 Role       // users.role
	PasswordHash         string     // users.password_hash
	PasswordChangedAt    *time.Time // users.password_changed_at (nullable)
	PasswordResetHash    *string    // users.password_reset_hash (nullable)
	PasswordResetExpires *time.Time // users.password_reset_expires (nullable)
	Active               bool       // users.active
	Version              int        // users.row_version
	CreatedAt            time.Time  // users.created_at
	UpdatedAt            time.Time  // users.updated_at
}

// ChangedPasswordAfter reports whether the password changed at or after the
// given token issue time. The comparison is at second granularity, matching
// the resolution of the token's iat claim.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() >= issuedAt.Unix()
}
