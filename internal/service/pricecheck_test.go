package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superc/price-alert/internal/repository"
)

type fakeFetcher struct {
	prices map[string]float64
	calls  map[string]int
}

func (f *fakeFetcher) Fetch(_ context.Context, productNumber string) (string, float64, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[productNumber]++
	price, ok := f.prices[productNumber]
	if !ok {
		return "", 0, fmt.Errorf("product %s unavailable", productNumber)
	}
	return "Product " + productNumber, price, nil
}

type captureNotifier struct {
	alerts []string // "email/productNumber"
}

func (c *captureNotifier) PasswordReset(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (c *captureNotifier) PriceAlert(_ context.Context, email, productNumber, _ string, _, _ float64) error {
	c.alerts = append(c.alerts, email+"/"+productNumber)
	return nil
}

func expectTrackingList(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, product_number, max_price, created_at FROM tracking_requests ORDER BY id")).
		WillReturnRows(rows)
}

func expectSweepUser(mock sqlmock.Sqlmock, id uint64, email string) {
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,email,password_hash,created_at,updated_at FROM users WHERE id=? LIMIT 1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(id, email, "hash", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id=r.id WHERE ur.user_id=? ORDER BY r.name")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("USER"))
}

func TestPriceChecker_AlertsOnlyBelowThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	// User 1 would pay up to 5.00, user 2 only up to 3.00. Current price is
	// 4.49, so only user 1 gets an alert.
	expectTrackingList(mock, sqlmock.NewRows(
		[]string{"id", "user_id", "product_number", "max_price", "created_at"}).
		AddRow(1, 1, "1234", 5.00, now).
		AddRow(2, 2, "1234", 3.00, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products (product_number, name, image_url, unit, current_price, updated_at)")).
		WithArgs("1234", "Product 1234", 4.49).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectSweepUser(mock, 1, "one@x.com")

	fetcher := &fakeFetcher{prices: map[string]float64{"1234": 4.49}}
	notifier := &captureNotifier{}
	checker := &PriceChecker{
		Tracking: repository.NewTrackingRepo(db),
		Users:    repository.NewUserRepo(db),
		Products: repository.NewProductRepo(db),
		Fetcher:  fetcher,
		Notifier: notifier,
	}
	checker.Run(context.Background())

	assert.Equal(t, []string{"one@x.com/1234"}, notifier.alerts)
	// One fetch serves both trackers of the same product.
	assert.Equal(t, 1, fetcher.calls["1234"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceChecker_FetchFailureSkipsProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	expectTrackingList(mock, sqlmock.NewRows(
		[]string{"id", "user_id", "product_number", "max_price", "created_at"}).
		AddRow(1, 1, "broken", 5.00, now).
		AddRow(2, 1, "1234", 5.00, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products (product_number, name, image_url, unit, current_price, updated_at)")).
		WithArgs("1234", "Product 1234", 2.99).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectSweepUser(mock, 1, "one@x.com")

	notifier := &captureNotifier{}
	checker := &PriceChecker{
		Tracking: repository.NewTrackingRepo(db),
		Users:    repository.NewUserRepo(db),
		Products: repository.NewProductRepo(db),
		Fetcher:  &fakeFetcher{prices: map[string]float64{"1234": 2.99}},
		Notifier: notifier,
	}
	checker.Run(context.Background())

	// The broken product is skipped; the healthy one still alerts.
	assert.Equal(t, []string{"one@x.com/1234"}, notifier.alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHTTPFetcher_ExtractsNameAndFirstPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><div class="head__title">Oasis Orange Juice</div>`+
			`<div class="pricing__sale-price">$4.99 / each (was 6.49)</div></html>`)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL + "/search?filter="}
	name, price, err := f.Fetch(context.Background(), "1234")
	require.NoError(t, err)
	// The name feeds the catalog upsert and the alert wording; it must come
	// back alongside the price.
	assert.Equal(t, "Oasis Orange Juice", name)
	assert.Equal(t, 4.99, price)
}

func TestHTTPFetcher_MissingTitleStillYieldsPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><div class="pricing">$4.99 / each</div></html>`)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL + "/search?filter="}
	name, price, err := f.Fetch(context.Background(), "1234")
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Equal(t, 4.99, price)
}

func TestHTTPFetcher_NoPriceOnPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>no results</html>`)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL + "/search?filter="}
	_, _, err := f.Fetch(context.Background(), "1234")
	assert.Error(t, err)
}

func TestHTTPFetcher_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL + "/search?filter="}
	_, _, err := f.Fetch(context.Background(), "1234")
	assert.Error(t, err)
}
