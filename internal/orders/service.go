// Package orders holds the order assembler and lifecycle: the only part of
// the system allowed to turn requested line items into persisted orders and
// to move orders between statuses.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	"github.com/kusina-ph/kusina-backend/internal/catalog"
	"github.com/kusina-ph/kusina-backend/internal/inventory"
)

// Catalog is the slice of the product catalog the assembler needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
}

// Ledger answers the advisory availability question during assembly. The
// authoritative check is the atomic decrement inside Store.Create.
type Ledger interface {
	CheckAvailability(ctx context.Context, productID string, qty int) (bool, int, error)
}

// Store persists orders. Create, Cancel and AddPayment are each one
// all-or-nothing transaction including their inventory side effects.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string, status Status) ([]Order, error)
	ListBySeller(ctx context.Context, sellerID string, status Status) ([]Order, error)
	Cancel(ctx context.Context, id string) (*Order, error)
	AddPayment(ctx context.Context, orderID string, p *Payment) error
	SetStatus(ctx context.Context, id string, st Status) (*Order, error)
}

type Service struct {
	catalog Catalog
	ledger  Ledger
	store   Store
}

func NewService(c Catalog, l Ledger, s Store) *Service {
	return &Service{catalog: c, ledger: l, store: s}
}

// Create validates the requested lines against catalog and stock, prices
// them, and persists the order, its items and (for delivery orders) the
// delivery record as a single unit. No partial order survives a failure:
// validation errors abort before any write, and stock races roll the whole
// transaction back inside the store.
func (s *Service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Order, error) {
	if !p.IsCustomer() {
		return nil, fmt.Errorf("only customers can create orders: %w", ErrForbidden)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order items are required: %w", ErrValidation)
	}

	ftype := TypeDelivery
	if req.Type != "" {
		t, ok := ParseFulfillmentType(req.Type)
		if !ok {
			return nil, fmt.Errorf("unknown order type %q: %w", req.Type, ErrValidation)
		}
		ftype = t
	}
	if ftype == TypeDelivery && req.DeliveryAddress == "" {
		return nil, fmt.Errorf("delivery address is required for delivery orders: %w", ErrValidation)
	}
	for i, line := range req.Items {
		if line.ProductID == "" {
			return nil, fmt.Errorf("item %d missing productId: %w", i, ErrValidation)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("item %d has non-positive quantity: %w", i, ErrValidation)
		}
	}

	// Resolve every line, in input order, before touching anything. The order
	// belongs to the seller of the first line's product; mixed-seller carts
	// are not supported by this model.
	var (
		sellerID string
		items    []Item
		total    = decimal.Zero
		now      = time.Now().UTC()
		orderID  = uuid.NewString()
	)
	for _, line := range req.Items {
		prod, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrProductNotFound)
			}
			return nil, err
		}
		if sellerID == "" {
			sellerID = prod.SellerID
		}
		if !prod.IsAvailable {
			return nil, fmt.Errorf("product %s: %w", prod.Name, ErrProductUnavailable)
		}
		ok, available, err := s.ledger.CheckAvailability(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &inventory.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			}
		}

		price := prod.UnitPrice
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
	}

	o := &Order{
		ID:              orderID,
		CustomerID:      p.ID,
		SellerID:        sellerID,
		OrderDate:       now,
		Status:          StatusPending,
		Type:            ftype,
		TotalAmount:     total,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ftype == TypeDelivery {
		o.Delivery = &Delivery{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			DeliveryAddress: req.DeliveryAddress,
			EstimatedTime:   req.EstimatedTime,
			CourierStatus:   DeliveryScheduled,
		}
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get returns one order; customers only see their own, sellers only orders
// placed against their store.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, p auth.Principal, statusFilter string) ([]Order, error) {
	st, err := parseFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case auth.RoleCustomer:
		return s.store.ListByCustomer(ctx, p.ID, st)
	case auth.RoleSeller:
		return s.store.ListBySeller(ctx, p.ID, st)
	default:
		return nil, fmt.Errorf("role %s has no order list: %w", p.Role, ErrForbidden)
	}
}

// Cancel moves a Pending or Confirmed order to Cancelled and credits every
// reserved quantity back to stock, all in one transaction. The released
// quantities are exactly those reserved at creation; current catalog state is
// not re-validated.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, id string) (*Order, error) {
	if !p.IsCustomer() {
		return nil, fmt.Errorf("only customers can cancel orders: %w", ErrForbidden)
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID {
		return nil, fmt.Errorf("order %s belongs to another customer: %w", id, ErrForbidden)
	}
	return s.store.Cancel(ctx, id)
}

// RecordPayment attaches the one allowed payment to an order and advances it
// to Confirmed. This records a settled payment; gateway processing lives
// elsewhere.
func (s *Service) RecordPayment(ctx context.Context, p auth.Principal, orderID, method string) (*Order, error) {
	if !p.IsCustomer() {
		return nil, fmt.Errorf("only customers can make payments: %w", ErrForbidden)
	}
	m, ok := ParsePaymentMethod(method)
	if !ok {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, ErrValidation)
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID {
		return nil, fmt.Errorf("order %s belongs to another customer: %w", orderID, ErrForbidden)
	}

	pay := &Payment{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		PaymentDate:   time.Now().UTC(),
		Amount:        o.TotalAmount,
		Method:        m,
		Status:        PaymentSuccessful,
		TransactionID: uuid.NewString(),
	}
	if err := s.store.AddPayment(ctx, orderID, pay); err != nil {
		return nil, err
	}
	o.Payment = pay
	o.Status = StatusConfirmed
	return o, nil
}

func (s *Service) GetPayment(ctx context.Context, p auth.Principal, orderID string) (*Payment, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, o); err != nil {
		return nil, err
	}
	if o.Payment == nil {
		return nil, ErrPaymentNotFound
	}
	return o.Payment, nil
}

// UpdateStatus is the seller-side status overwrite. The new status only has
// to be on the allow-list and the order must not already be terminal; there
// is no stricter ordering rule.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, orderID, status string) (*Order, error) {
	if !p.IsSeller() {
		return nil, fmt.Errorf("only sellers can update order status: %w", ErrForbidden)
	}
	st, ok := ParseStatus(status)
	if !ok || !SellerAssignable(st) {
		return nil, fmt.Errorf("invalid status %q: %w", status, ErrValidation)
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SellerID != p.ID {
		return nil, fmt.Errorf("order %s belongs to another seller: %w", orderID, ErrForbidden)
	}
	return s.store.SetStatus(ctx, orderID, st)
}

// Authorize checks that the principal may see the order: customers their own
// orders, sellers the orders placed against their store.
func Authorize(p auth.Principal, o *Order) error {
	switch p.Role {
	case auth.RoleCustomer:
		if o.CustomerID != p.ID {
			return fmt.Errorf("order %s belongs to another customer: %w", o.ID, ErrForbidden)
		}
	case auth.RoleSeller:
		if o.SellerID != p.ID {
			return fmt.Errorf("order %s belongs to another seller: %w", o.ID, ErrForbidden)
		}
	}
	return nil
}

func parseFilter(status string) (Status, error) {
	if status == "" {
		return "", nil
	}
	st, ok := ParseStatus(status)
	if !ok {
		return "", fmt.Errorf("unknown status filter %q: %w", status, ErrValidation)
	}
	return st, nil
}
