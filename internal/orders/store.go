package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kusina-ph/kusina-backend/internal/inventory"
	"github.com/kusina-ph/kusina-backend/internal/postgres"
)

// PGStore is the Postgres order store. Every mutating method runs one
// transaction covering both the order tables and the inventory ledger.
type PGStore struct {
	DB     *pgxpool.Pool
	Ledger *inventory.Ledger
}

func NewPGStore(db *pgxpool.Pool, ledger *inventory.Ledger) *PGStore {
	return &PGStore{DB: db, Ledger: ledger}
}

// Create reserves stock for every line and inserts the order, its items and
// the delivery record in a single transaction. The ledger's guarded UPDATE is
// the authoritative stock check; a race on the last unit rolls everything
// back with an InsufficientStockError.
func (s *PGStore) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return postgres.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		for _, it := range o.Items {
			if err := s.Ledger.Reserve(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO orders (id, customer_id, seller_id, order_date, status, type, total_amount, delivery_address, notes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, o.ID, o.CustomerID, o.SellerID, o.OrderDate, o.Status, o.Type, o.TotalAmount.String(),
			o.DeliveryAddress, o.Notes, o.CreatedAt, o.UpdatedAt); err != nil {
			return err
		}
		// line_no keeps the items in the order the customer submitted them
		for i, it := range o.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, line_no, product_id, quantity, subtotal)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, it.ID, o.ID, i, it.ProductID, it.Quantity, it.Subtotal.String()); err != nil {
				return err
			}
		}
		if o.Delivery != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO deliveries (id, order_id, delivery_address, estimated_time, courier_status, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, o.Delivery.ID, o.ID, o.Delivery.DeliveryAddress, o.Delivery.EstimatedTime,
				o.Delivery.CourierStatus, o.CreatedAt, o.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PGStore) Get(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.DB.QueryRow(ctx, `
		SELECT id, customer_id, seller_id, order_date, status, type, total_amount::text, delivery_address, notes, created_at, updated_at
		FROM orders WHERE id=$1
	`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.hydrate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID string, status Status) ([]Order, error) {
	return s.list(ctx, `customer_id`, customerID, status)
}

func (s *PGStore) ListBySeller(ctx context.Context, sellerID string, status Status) ([]Order, error) {
	return s.list(ctx, `seller_id`, sellerID, status)
}

func (s *PGStore) list(ctx context.Context, ownerCol, ownerID string, status Status) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.DB.Query(ctx, `
		SELECT id, customer_id, seller_id, order_date, status, type, total_amount::text, delivery_address, notes, created_at, updated_at
		FROM orders
		WHERE `+ownerCol+` = $1 AND ($2 = '' OR status = $2)
		ORDER BY order_date DESC
	`, ownerID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.hydrate(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Cancel flips the order to Cancelled and credits every line's quantity back
// to stock, atomically. The status row is locked first so a concurrent
// transition cannot slip between the check and the update.
func (s *PGStore) Cancel(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := postgres.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var st Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&st)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !st.Cancellable() {
			return &InvalidTransitionError{From: st, To: StatusCancelled}
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, StatusCancelled); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1`, id)
		if err != nil {
			return err
		}
		type line struct {
			pid string
			qty int
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.pid, &l.qty); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.Ledger.Release(ctx, tx, l.pid, l.qty); err != nil {
				// A line may predate inventory tracking; releasing nothing is
				// correct for it.
				if errors.Is(err, inventory.ErrNoRecord) {
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AddPayment inserts the order's single payment and advances the status to
// Confirmed in the same transaction. Terminal orders are refused: a cancelled
// order's stock has already been credited back, so payment must not revive it.
func (s *PGStore) AddPayment(ctx context.Context, orderID string, p *Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return postgres.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var st Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&st)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if st.Terminal() {
			return &InvalidTransitionError{From: st, To: StatusConfirmed}
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE order_id=$1)`, orderID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrPaymentExists
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (id, order_id, payment_date, amount, method, status, transaction_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, p.ID, orderID, p.PaymentDate, p.Amount.String(), p.Method, p.Status, p.TransactionID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, orderID, StatusConfirmed)
		return err
	})
}

// SetStatus is the seller-side overwrite. Terminal orders are refused; any
// other current status accepts any allow-listed target.
func (s *PGStore) SetStatus(ctx context.Context, id string, st Status) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := postgres.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var cur Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&cur)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if cur.Terminal() {
			return &InvalidTransitionError{From: cur, To: st}
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, st)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PGStore) hydrate(ctx context.Context, o *Order) error {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, subtotal::text
		FROM order_items WHERE order_id=$1 ORDER BY line_no
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		var sub string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &sub); err != nil {
			return err
		}
		if it.Subtotal, err = decimal.NewFromString(sub); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var d Delivery
	err = s.DB.QueryRow(ctx, `
		SELECT id, order_id, delivery_address, estimated_time, actual_delivery_time, courier_status, COALESCE(driver_name,''), COALESCE(driver_phone,'')
		FROM deliveries WHERE order_id=$1
	`, o.ID).Scan(&d.ID, &d.OrderID, &d.DeliveryAddress, &d.EstimatedTime, &d.ActualTime,
		&d.CourierStatus, &d.DriverName, &d.DriverPhone)
	if err == nil {
		o.Delivery = &d
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var p Payment
	var amount string
	err = s.DB.QueryRow(ctx, `
		SELECT id, order_id, payment_date, amount::text, method, status, transaction_id
		FROM payments WHERE order_id=$1
	`, o.ID).Scan(&p.ID, &p.OrderID, &p.PaymentDate, &amount, &p.Method, &p.Status, &p.TransactionID)
	if err == nil {
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return err
		}
		o.Payment = &p
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total string
	if err := row.Scan(&o.ID, &o.CustomerID, &o.SellerID, &o.OrderDate, &o.Status, &o.Type,
		&total, &o.DeliveryAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = t
	return &o, nil
}
