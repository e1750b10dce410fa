package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingRepo_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTrackingRepo(db)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tracking_requests (user_id, product_number, max_price) VALUES (?,?,?)")).
			WithArgs(uint64(7), "12345", 9.99).
			WillReturnResult(sqlmock.NewResult(3, 1))

		id, err := repo.Create(context.Background(), 7, "12345", 9.99)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), id)
	})

	t.Run("duplicate product for user", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tracking_requests (user_id, product_number, max_price) VALUES (?,?,?)")).
			WithArgs(uint64(7), "12345", 9.99).
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-12345'"))

		_, err := repo.Create(context.Background(), 7, "12345", 9.99)
		assert.ErrorIs(t, err, ErrAlreadyTracking)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackingRepo_Delete_Ownership(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTrackingRepo(db)

	t.Run("owner deletes", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM tracking_requests WHERE id=? LIMIT 1")).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tracking_requests WHERE id=?")).
			WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), 3, 7))
	})

	t.Run("not the owner", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM tracking_requests WHERE id=? LIMIT 1")).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

		assert.ErrorIs(t, repo.Delete(context.Background(), 3, 8), ErrNotOwner)
	})

	t.Run("unknown request", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM tracking_requests WHERE id=? LIMIT 1")).
			WithArgs(uint64(99)).
			WillReturnError(sql.ErrNoRows)

		assert.ErrorIs(t, repo.Delete(context.Background(), 99, 7), ErrRequestNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackingRepo_ListByUser(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTrackingRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, product_number, max_price, created_at FROM tracking_requests WHERE user_id=? ORDER BY id")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_number", "max_price", "created_at"}).
			AddRow(1, 7, "12345", 9.99, now).
			AddRow(2, 7, "67890", 4.50, now))

	items, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "12345", items[0].ProductNumber)
	assert.Equal(t, 4.50, items[1].MaxPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}
