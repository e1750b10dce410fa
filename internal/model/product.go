package model

import "time"

// Product mirrors the 'products' table: a scraped catalog entry identified by
// the store's product number.
type Product struct {
	ID            uint64
	ProductNumber string
	Name          string
	ImageURL      string
	Unit          string
	CurrentPrice  float64
	UpdatedAt     time.Time
}

// TrackingRequest mirrors the 'tracking_requests' table. A user tracks a
// product number with a price threshold; (user_id, product_number) is unique
// so the same product cannot be tracked twice by one account.
type TrackingRequest struct {
	ID            uint64
	UserID        uint64
	ProductNumber string
	MaxPrice      float64
	CreatedAt     time.Time
}

// DashboardEntry joins a tracking request with the latest known product data
// for the user dashboard.
type DashboardEntry struct {
	RequestID     uint64
	ProductNumber string
	ProductName   string
	ImageURL      string
	CurrentPrice  float64
	MaxPrice      float64
}
