// Package inventory is the single source of truth for product stock. Stock
// only ever changes through ledger operations, and the reserve path is an
// atomic compare-and-swap so concurrent orders cannot oversell.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kusina-ph/kusina-backend/internal/postgres"
)

var ErrNoRecord = errors.New("no inventory record")

// InsufficientStockError reports how short a reservation fell.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type Ledger struct{ DB *pgxpool.Pool }

func NewLedger(db *pgxpool.Pool) *Ledger { return &Ledger{DB: db} }

// CheckAvailability reports whether qty units can currently be reserved.
// A product with no inventory row counts as zero stock: only products the
// seller has explicitly stocked can be sold.
func (l *Ledger) CheckAvailability(ctx context.Context, productID string, qty int) (bool, int, error) {
	return checkAvailability(ctx, l.DB, productID, qty)
}

func checkAvailability(ctx context.Context, q postgres.Querier, productID string, qty int) (bool, int, error) {
	var stock int
	err := q.QueryRow(ctx, `SELECT quantity_in_stock FROM inventory WHERE product_id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return stock >= qty, stock, nil
}

// Reserve decrements stock by qty inside the caller's transaction. The WHERE
// guard is the authoritative availability check: zero rows affected means the
// stock moved under us (or never existed) and the order must not go through.
// last_restocked is untouched; reservations are not restocks.
func (l *Ledger) Reserve(ctx context.Context, q postgres.Querier, productID string, qty int) error {
	tag, err := q.Exec(ctx, `
		UPDATE inventory
		SET quantity_in_stock = quantity_in_stock - $2, updated_at = NOW()
		WHERE product_id = $1 AND quantity_in_stock >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		_, available, err := checkAvailability(ctx, q, productID, qty)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	return nil
}

// Release credits qty back, used when an order is cancelled. No upper bound:
// the quantity released is exactly the quantity that was reserved.
func (l *Ledger) Release(ctx context.Context, q postgres.Querier, productID string, qty int) error {
	tag, err := q.Exec(ctx, `
		UPDATE inventory
		SET quantity_in_stock = quantity_in_stock + $2, updated_at = NOW()
		WHERE product_id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRecord
	}
	return nil
}

// Deduct is a manual downward adjustment (spoilage, shrinkage, correction).
// It goes through the same guarded decrement as a reservation, so it can
// never push stock negative.
func (l *Ledger) Deduct(ctx context.Context, productID string, qty int) (*Record, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("deduct quantity must be positive, got %d", qty)
	}
	if err := l.Reserve(ctx, l.DB, productID, qty); err != nil {
		return nil, err
	}
	return l.Get(ctx, productID)
}

// Restock adds seller-supplied stock and refreshes last_restocked.
func (l *Ledger) Restock(ctx context.Context, productID string, qty int) (*Record, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("restock quantity must be positive, got %d", qty)
	}
	tag, err := l.DB.Exec(ctx, `
		UPDATE inventory
		SET quantity_in_stock = quantity_in_stock + $2, last_restocked = NOW(), updated_at = NOW()
		WHERE product_id = $1
	`, productID, qty)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRecord
	}
	return l.Get(ctx, productID)
}

// SetReorderLevel updates the threshold below which the product is flagged
// for reordering.
func (l *Ledger) SetReorderLevel(ctx context.Context, productID string, level int) error {
	tag, err := l.DB.Exec(ctx, `
		UPDATE inventory SET reorder_level = $2, updated_at = NOW() WHERE product_id = $1
	`, productID, level)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRecord
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, productID string) (*Record, error) {
	var rec Record
	err := l.DB.QueryRow(ctx, `
		SELECT product_id, quantity_in_stock, reorder_level, last_restocked, updated_at
		FROM inventory WHERE product_id=$1
	`, productID).Scan(&rec.ProductID, &rec.QuantityInStock, &rec.ReorderLevel, &rec.LastRestocked, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LowStock returns the subset of productIDs at or below their reorder level.
func (l *Ledger) LowStock(ctx context.Context, productIDs []string) ([]Record, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	rows, err := l.DB.Query(ctx, `
		SELECT product_id, quantity_in_stock, reorder_level, last_restocked, updated_at
		FROM inventory
		WHERE product_id = ANY($1) AND quantity_in_stock <= reorder_level
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ProductID, &rec.QuantityInStock, &rec.ReorderLevel, &rec.LastRestocked, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
