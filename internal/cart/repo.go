package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("cart item not found")

type Repository interface {
	GetOrCreate(ctx context.Context, customerID string) (*Cart, error)
	AddItem(ctx context.Context, cartID, productID string, qty int) error
	UpdateItem(ctx context.Context, cartID, itemID string, qty int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	Clear(ctx context.Context, cartID string) error
}

type PGRepo struct{ DB *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{DB: db} }

func (r *PGRepo) GetOrCreate(ctx context.Context, customerID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, created_at, updated_at
		FROM carts WHERE customer_id=$1
		ORDER BY created_at DESC LIMIT 1
	`, customerID).Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		c = Cart{ID: uuid.NewString(), CustomerID: customerID}
		err = r.DB.QueryRow(ctx, `
			INSERT INTO carts (id, customer_id, created_at, updated_at)
			VALUES ($1,$2,NOW(),NOW())
			RETURNING created_at, updated_at
		`, c.ID, customerID).Scan(&c.CreatedAt, &c.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AddItem upserts: adding a product already in the cart bumps its quantity.
func (r *PGRepo) AddItem(ctx context.Context, cartID, productID string, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.NewString(), cartID, productID, qty)
	return err
}

func (r *PGRepo) UpdateItem(ctx context.Context, cartID, itemID string, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity=$3 WHERE id=$1 AND cart_id=$2
	`, itemID, cartID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND cart_id=$2`, itemID, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PGRepo) Clear(ctx context.Context, cartID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return err
}

func (r *PGRepo) loadItems(ctx context.Context, c *Cart) error {
	// stable line order so checkout builds the same order every read
	rows, err := r.DB.Query(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items WHERE cart_id=$1
		ORDER BY id
	`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return err
		}
		c.Items = append(c.Items, it)
	}
	return rows.Err()
}
