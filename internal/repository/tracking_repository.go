package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/superc/price-alert/internal/model"
)

// TrackingRepo persists price tracking requests.
type TrackingRepo struct{ DB *sql.DB }

func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{DB: db} }

// Create inserts a tracking request. The unique (user_id, product_number) key
// rejects a duplicate request for the same product as ErrAlreadyTracking.
func (r *TrackingRepo) Create(ctx context.Context, userID uint64, productNumber string, maxPrice float64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tracking_requests (user_id, product_number, max_price) VALUES (?,?,?)",
		userID, productNumber, maxPrice)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrAlreadyTracking
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns the user's tracking requests.
func (r *TrackingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.TrackingRequest, error) {
	return r.list(ctx,
		"SELECT id, user_id, product_number, max_price, created_at FROM tracking_requests WHERE user_id=? ORDER BY id",
		userID)
}

// ListAll returns every tracking request; used by the price sweep and the
// admin listing.
func (r *TrackingRepo) ListAll(ctx context.Context) ([]model.TrackingRequest, error) {
	return r.list(ctx,
		"SELECT id, user_id, product_number, max_price, created_at FROM tracking_requests ORDER BY id")
}

func (r *TrackingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.TrackingRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrackingRequest
	for rows.Next() {
		var t model.TrackingRequest
		if err := rows.Scan(&t.ID, &t.UserID, &t.ProductNumber, &t.MaxPrice, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a tracking request after checking ownership. Returns
// ErrRequestNotFound for an unknown id and ErrNotOwner when the request
// belongs to a different user.
func (r *TrackingRepo) Delete(ctx context.Context, requestID, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM tracking_requests WHERE id=? LIMIT 1", requestID).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotOwner
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM tracking_requests WHERE id=?", requestID)
	return err
}

// Dashboard joins the user's tracking requests with catalog prices.
func (r *TrackingRepo) Dashboard(ctx context.Context, userID uint64) ([]model.DashboardEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, t.product_number, COALESCE(p.name,''), COALESCE(p.image_url,''),
		        COALESCE(p.current_price,0), t.max_price
		 FROM tracking_requests t
		 LEFT JOIN products p ON p.product_number = t.product_number
		 WHERE t.user_id=? ORDER BY t.id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DashboardEntry
	for rows.Next() {
		var e model.DashboardEntry
		if err := rows.Scan(&e.RequestID, &e.ProductNumber, &e.ProductName, &e.ImageURL, &e.CurrentPrice, &e.MaxPrice); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
