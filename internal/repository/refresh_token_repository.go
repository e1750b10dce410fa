package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/superc/price-alert/internal/model"
)

// RefreshTokenRepo persists refresh tokens, one active row per user. Only the
// SHA-256 digest of a token is ever stored or looked up. The user_id column
// carries a UNIQUE key so the single-session invariant survives even a race
// that slips past the transaction below.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Create replaces the user's refresh token: any previous row is deleted and
// the new hash inserted inside a single transaction, so two concurrent logins
// for the same account cannot leave two valid tokens or silently drop the
// winner's row. Returns ErrUserNotFound if the user does not exist.
func (r *RefreshTokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? LIMIT 1", userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByToken looks up a refresh token row by digest. Expiry is not checked
// here; callers pass the row to VerifyNotExpired.
func (r *RefreshTokenRepo) FindByToken(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	return t, nil
}

// VerifyNotExpired checks the row's absolute expiry. An expired row is
// deleted on the spot and ErrRefreshExpired returned, forcing a full
// re-login; the store cleans itself as expiry is detected.
func (r *RefreshTokenRepo) VerifyNotExpired(ctx context.Context, t model.RefreshToken) error {
	if !t.Expired() {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE id=?", t.ID); err != nil {
		return err
	}
	return ErrRefreshExpired
}

// Delete removes a refresh token by digest. Deleting an absent token is a
// no-op, which makes logout idempotent.
func (r *RefreshTokenRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteAllForUser removes the user's refresh token, ending their session
// everywhere. Unlike access-token expiry this is a real revocation.
func (r *RefreshTokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
