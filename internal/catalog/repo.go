package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kusina-ph/kusina-backend/internal/postgres"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	Create(ctx context.Context, p *Product, initialStock, reorderLevel int) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, id, sellerID string, u Update) (*Product, error)
}

type PGRepo struct{ DB *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{DB: db} }

// Create inserts the product together with its inventory row. Every product
// gets an inventory record up front: a product without one counts as out of
// stock, so selling it requires the row to exist.
func (r *PGRepo) Create(ctx context.Context, p *Product, initialStock, reorderLevel int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO products (id, seller_id, name, description, category, image_url, unit_price, is_available, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		`, p.ID, p.SellerID, p.Name, p.Description, p.Category, p.ImageURL, p.UnitPrice.String(), p.IsAvailable); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory (product_id, quantity_in_stock, reorder_level, last_restocked, updated_at)
			VALUES ($1,$2,$3,NOW(),NOW())
		`, p.ID, initialStock, reorderLevel)
		return err
	})
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.DB.QueryRow(ctx, `
		SELECT id, seller_id, name, description, category, image_url, unit_price::text, is_available, created_at, updated_at
		FROM products WHERE id=$1
	`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(q.Q)

	rows, err := r.DB.Query(ctx, `
		SELECT id, seller_id, name, description, category, image_url, unit_price::text, is_available, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR seller_id = $3)
		  AND (NOT $4 OR is_available)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`, search, q.Category, q.SellerID, q.AvailableOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update applies a partial mutation, scoped to the owning seller.
func (r *PGRepo) Update(ctx context.Context, id, sellerID string, u Update) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var price *string
	if u.UnitPrice != nil {
		s := u.UnitPrice.String()
		price = &s
	}
	tag, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name        = COALESCE($3, name),
		    description = COALESCE($4, description),
		    category    = COALESCE($5, category),
		    image_url   = COALESCE($6, image_url),
		    unit_price  = COALESCE($7::numeric, unit_price),
		    is_available = COALESCE($8, is_available),
		    updated_at  = NOW()
		WHERE id = $1 AND seller_id = $2
	`, id, sellerID, u.Name, u.Description, u.Category, u.ImageURL, price, u.IsAvailable)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var price string
	if err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Category, &p.ImageURL,
		&price, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	p.UnitPrice = d
	return &p, nil
}
