package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/superc/price-alert/internal/model"
)

// ResetTokenRepo persists password reset tokens, one row per user. The
// user_id column carries a UNIQUE key; a repeat "forgot password" request
// overwrites the token value and expiry in place instead of adding rows.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Upsert installs or refreshes the user's reset token. The ON DUPLICATE KEY
// form is atomic against concurrent requests for the same account, so the
// at-most-one-active-token invariant holds without an explicit lock.
func (r *ResetTokenRepo) Upsert(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE token=VALUES(token), expires_at=VALUES(expires_at)`,
		userID, token, expiresAt)
	return err
}

// FindByToken looks up a reset token row by its value.
func (r *ResetTokenRepo) FindByToken(ctx context.Context, token string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.PasswordResetToken{}, ErrTokenNotFound
	}
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	return t, nil
}

// Delete removes a reset token row by id. Redemption calls this
// unconditionally once the row has been fetched: the token is single-use
// whether the password rewrite succeeded or not.
func (r *ResetTokenRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE id=?", id)
	return err
}
