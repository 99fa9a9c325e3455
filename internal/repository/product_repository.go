package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Category is the enumerated product tag.  Values mirror the catalog's
// fixed category set; anything else is rejected at validation time.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHome        Category = "Home"
	CategorySports      Category = "Sports"
	CategoryBooks       Category = "Books"
	CategoryToys        Category = "Toys"
	CategoryOther       Category = "Other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryHome,
		CategorySports, CategoryBooks, CategoryToys, CategoryOther:
		return true
	}
	return false
}

// Product mirrors the 'products' table.  Prices are stored in integer
// cents; the JSON layer converts to a decimal amount.  IsDeleted implements
// soft delete: flagged rows are excluded from every read.
type Product struct {
	ID            uint64
	Name          string
	Description   string
	SKU           string
	PriceCents    uint64
	StockQuantity int
	Category      Category
	ImageURL      string
	IsActive      bool
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ProductRepo struct{ db *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id,name,description,sku,price_cents,stock_quantity,category,image_url,is_active,is_deleted,created_at,updated_at"

// Create inserts a new product.  On success the ID, CreatedAt and UpdatedAt
// fields are populated from the stored row.  A SKU collision with any
// existing row, soft-deleted or not, maps to ErrSKUExists.
func (r *ProductRepo) Create(ctx context.Context, p *Product) error {
	const q = `INSERT INTO products
	           (name, description, sku, price_cents, stock_quantity, category, image_url, is_active)
	           VALUES (?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.SKU, p.PriceCents, p.StockQuantity, string(p.Category), p.ImageURL, p.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSKUExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	// Follow-up SELECT to populate DB-assigned timestamps.
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM products WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a product by id, excluding soft-deleted rows.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*Product, error) {
	const q = "SELECT " + productColumns + " FROM products WHERE id=? AND is_deleted=0 LIMIT 1"
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// List returns one page of non-deleted products ordered by creation time
// descending, plus the total count of the filtered set before pagination.
func (r *ProductRepo) List(ctx context.Context, page, size int) ([]*Product, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE is_deleted=0").Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = "SELECT " + productColumns + ` FROM products
	           WHERE is_deleted=0
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update replaces all mutable fields of a non-deleted product.  Returns
// ErrProductNotFound when the row is absent or soft-deleted and ErrSKUExists
// when the new SKU collides with another product.
func (r *ProductRepo) Update(ctx context.Context, p *Product) error {
	const q = `UPDATE products
	           SET name=?, description=?, sku=?, price_cents=?, stock_quantity=?, category=?, image_url=?, is_active=?
	           WHERE id=? AND is_deleted=0`
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.SKU, p.PriceCents, p.StockQuantity, string(p.Category), p.ImageURL, p.IsActive, p.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSKUExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for an identical update as well, so
		// confirm the row actually exists before declaring it missing.
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	// Re-read to pick up the refreshed updated_at.
	const qSelect = "SELECT " + productColumns + " FROM products WHERE id=? LIMIT 1"
	got, err := r.scanOne(r.db.QueryRowContext(ctx, qSelect, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// SoftDelete flags a product as deleted.  Unknown ids are a silent no-op;
// deletion is idempotent.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE products SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
	return err
}

// Search returns non-deleted products whose name, description or SKU
// contains the term, case-insensitively.  Results are unpaginated.
func (r *ProductRepo) Search(ctx context.Context, term string) ([]*Product, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	const q = "SELECT " + productColumns + ` FROM products
	           WHERE is_deleted=0
	             AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?)
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *ProductRepo) scanOne(row *sql.Row) (*Product, error) {
	var p Product
	var category string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.PriceCents, &p.StockQuantity,
		&category, &p.ImageURL, &p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Category = Category(category)
	return &p, nil
}

func (r *ProductRepo) collect(rows *sql.Rows) ([]*Product, error) {
	var out []*Product
	for rows.Next() {
		var p Product
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.PriceCents, &p.StockQuantity,
			&category, &p.ImageURL, &p.IsActive, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Category = Category(category)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
