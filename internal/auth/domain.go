package auth

import "time"

// User represents an account. Users are the tenancy boundary: every other
// table is scoped by the owning user id.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AccessToken is the persisted form of an issued bearer token. Only the
// SHA-256 hash of the raw token is stored; the raw value is returned to the
// client exactly once at login.
type AccessToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// PasswordReset is a single-use 6-digit reset code, stored hashed.
type PasswordReset struct {
	ID        int64
	UserID    int64
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
