package repository

import (
	"context"
	"database/sql"

	"github.com/superc/price-alert/internal/model"
)

// ProductRepo persists the scraped product catalog.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

// Search returns products whose name or product number matches the query.
// Served on a public route and cached by the response middleware.
func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	like := "%" + q + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, product_number, name, image_url, unit, current_price, updated_at
		 FROM products WHERE name LIKE ? OR product_number LIKE ? ORDER BY name LIMIT ?`,
		like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ProductNumber, &p.Name, &p.ImageURL, &p.Unit, &p.CurrentPrice, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertPrice records the latest observed price for a product number,
// creating the catalog row if the sweep sees the product for the first time.
// A sweep that could not extract a name must not blank one already stored, so
// the name column only updates on a non-empty value.
func (r *ProductRepo) UpsertPrice(ctx context.Context, productNumber, name string, price float64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (product_number, name, image_url, unit, current_price, updated_at)
		 VALUES (?,?,'','',?,NOW())
		 ON DUPLICATE KEY UPDATE name=IF(VALUES(name)='', name, VALUES(name)),
		                         current_price=VALUES(current_price), updated_at=NOW()`,
		productNumber, name, price)
	return err
}
