package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	"github.com/kusina-ph/kusina-backend/internal/cart"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
)

// CartHandler is the customer's cart surface. Checkout hands the cart's
// lines to the order assembler; a failed checkout leaves the cart intact so
// the customer can fix it and retry.
type CartHandler struct {
	Repo    cart.Repository
	Service *orders.Service
	Created *kafkax.Producer
	Name    string
}

type addCartItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemReq struct {
	Quantity int `json:"quantity"`
}

type checkoutReq struct {
	Type            string     `json:"type"`
	DeliveryAddress string     `json:"deliveryAddress"`
	Notes           string     `json:"notes"`
	EstimatedTime   *time.Time `json:"estimatedTime,omitempty"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(Principal)
		r.Get("/", h.get)
		r.Post("/items", h.addItem)
		r.Put("/items/{itemId}", h.updateItem)
		r.Delete("/items/{itemId}", h.removeItem)
		r.Delete("/", h.clear)
		r.Post("/checkout", h.checkout)
	})
}

// myCart resolves the calling customer's cart, creating it on first use.
func (h *CartHandler) myCart(ctx context.Context, r *http.Request) (*cart.Cart, error) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		return nil, err
	}
	if !p.IsCustomer() {
		return nil, fmt.Errorf("only customers have carts: %w", orders.ErrForbidden)
	}
	return h.Repo.GetOrCreate(ctx, p.ID)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, fmt.Errorf("productId and a positive quantity are required: %w", orders.ErrValidation))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.AddItem(ctx, c.ID, req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	c, err = h.Repo.GetOrCreate(ctx, c.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	itemID := chi.URLParam(r, "itemId")

	// Quantity zero or below removes the line, matching how customers expect
	// a cart to behave.
	if req.Quantity <= 0 {
		err = h.Repo.RemoveItem(ctx, c.ID, itemID)
	} else {
		err = h.Repo.UpdateItem(ctx, c.ID, itemID, req.Quantity)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	c, err = h.Repo.GetOrCreate(ctx, c.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.RemoveItem(ctx, c.ID, chi.URLParam(r, "itemId")); err != nil {
		writeError(w, err)
		return
	}
	c, err = h.Repo.GetOrCreate(ctx, c.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.Clear(ctx, c.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

// checkout turns the cart into an order. The cart is only cleared after the
// order transaction commits; any assembler failure leaves it untouched.
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := h.myCart(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(c.Items) == 0 {
		writeError(w, fmt.Errorf("cart is empty: %w", orders.ErrValidation))
		return
	}

	create := orders.CreateRequest{
		Type:            req.Type,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		EstimatedTime:   req.EstimatedTime,
	}
	for _, it := range c.Items {
		create.Items = append(create.Items, orders.LineInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	o, err := h.Service.Create(ctx, p, create)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.Clear(ctx, c.ID); err != nil {
		// The order exists either way; an unswept cart is an annoyance, not
		// a correctness problem.
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "order placed, cart not cleared",
			"order":   o,
		})
		return
	}

	if h.Created != nil {
		ev := kafkax.NewEnvelope(orders.EventOrderCreated, h.Name, requestID(r), o.ID, orders.OrderCreatedPayload{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			SellerID:   o.SellerID,
			Items:      orders.EventItems(o.Items),
			Total:      o.TotalAmount.String(),
		})
		h.Created.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev), eventHeaders(ev.EventType)...)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "order placed",
		"order":   o,
	})
}
