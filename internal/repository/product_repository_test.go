package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepo_UpsertPrice(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	// The duplicate-key branch must only take a non-empty name; a sweep that
	// saw no title on the page keeps the stored catalog name intact.
	stmt := regexp.QuoteMeta("ON DUPLICATE KEY UPDATE name=IF(VALUES(name)='', name, VALUES(name)),")

	mock.ExpectExec(stmt).
		WithArgs("1234", "Oasis Orange Juice", 4.99).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.UpsertPrice(context.Background(), "1234", "Oasis Orange Juice", 4.99))

	mock.ExpectExec(stmt).
		WithArgs("1234", "", 4.49).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.UpsertPrice(context.Background(), "1234", "", 4.49))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_Search(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, product_number, name, image_url, unit, current_price, updated_at")).
		WithArgs("%juice%", "%juice%", 25).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "product_number", "name", "image_url", "unit", "current_price", "updated_at"}).
			AddRow(1, "1234", "Oasis Orange Juice", "", "each", 4.99, now))

	items, err := repo.Search(context.Background(), "juice", 25)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Oasis Orange Juice", items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
