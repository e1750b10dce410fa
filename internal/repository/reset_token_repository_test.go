package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokenRepo_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewResetTokenRepo(db)

	exp := time.Now().UTC().Add(time.Hour)

	// The same statement serves first and repeat requests; the unique
	// user_id key turns the second into an in-place overwrite.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?,?,?)")).
		WithArgs(uint64(7), "tok-1", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?,?,?)")).
		WithArgs(uint64(7), "tok-2", exp).
		WillReturnResult(sqlmock.NewResult(1, 2))

	require.NoError(t, repo.Upsert(context.Background(), 7, "tok-1", exp))
	require.NoError(t, repo.Upsert(context.Background(), 7, "tok-2", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetTokenRepo_FindByToken(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewResetTokenRepo(db)

	exp := time.Now().UTC().Add(time.Hour)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token=? LIMIT 1")).
			WithArgs("tok-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at"}).
				AddRow(3, 7, "tok-1", exp))

		row, err := repo.FindByToken(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(7), row.UserID)
		assert.False(t, row.Expired())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token=? LIMIT 1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByToken(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetTokenRepo_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewResetTokenRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_tokens WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
