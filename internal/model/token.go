package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table. The user_id column carries
// a UNIQUE key: at most one non-deleted refresh token exists per user, and a
// new login replaces the previous session's token.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
}

// Expired reports whether the token's absolute expiry has passed.
func (t RefreshToken) Expired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}

// PasswordResetToken mirrors the 'password_reset_tokens' table. One row per
// user (UNIQUE user_id); a repeat reset request overwrites token and expiry
// in place. The row is deleted on redemption or when found expired.
type PasswordResetToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the reset token's expiry has passed.
func (t PasswordResetToken) Expired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}
