package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/redisx"
)

// OrdersHandler owns the /orders surface. Each mutating endpoint publishes
// its domain event after the transaction commits and drops the cached copy of
// the order so the next read re-hydrates from Postgres.
type OrdersHandler struct {
	Service   *orders.Service
	Redis     *redis.Client
	Created   *kafkax.Producer
	Cancelled *kafkax.Producer
	Paid      *kafkax.Producer
	Status    *kafkax.Producer
	Name      string
}

type paymentReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(Principal)
		r.Post("/", h.create)
		r.Get("/my", h.listMine)
		r.Get("/seller", h.listMine)
		r.Get("/{id}", h.get)
		r.Put("/{id}/cancel", h.cancel)
		r.Post("/{id}/payment", h.recordPayment)
		r.Get("/{id}/payment", h.getPayment)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req orders.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.Create(ctx, p, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheOrder(ctx, o)
	ev := kafkax.NewEnvelope(orders.EventOrderCreated, h.Name, requestID(r), o.ID, orders.OrderCreatedPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		SellerID:   o.SellerID,
		Items:      orders.EventItems(o.Items),
		Total:      o.TotalAmount.String(),
	})
	h.publish(h.Created, o.ID, ev)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "order placed",
		"order":   o,
	})
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Service.ListMine(ctx, p, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": os, "count": len(os)})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Cache fast path. Authorization still runs against the cached copy.
	if o, ok := h.cachedOrder(ctx, id); ok {
		if err := orders.Authorize(p, o); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
		return
	}

	o, err := h.Service.Get(ctx, p, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.Cancel(ctx, p, id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(ctx, id)
	ev := kafkax.NewEnvelope(orders.EventOrderCancelled, h.Name, requestID(r), o.ID, orders.OrderCancelledPayload{
		OrderID: o.ID,
		Items:   orders.EventItems(o.Items),
	})
	h.publish(h.Cancelled, o.ID, ev)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "order cancelled",
		"order":   o,
	})
}

func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var req paymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.RecordPayment(ctx, p, id, req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(ctx, id)
	ev := kafkax.NewEnvelope(orders.EventPaymentRecorded, h.Name, requestID(r), o.ID, orders.PaymentRecordedPayload{
		OrderID:       o.ID,
		PaymentID:     o.Payment.ID,
		Method:        string(o.Payment.Method),
		Amount:        o.Payment.Amount.String(),
		TransactionID: o.Payment.TransactionID,
	})
	h.publish(h.Paid, o.ID, ev)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "payment recorded",
		"payment": o.Payment,
		"order":   o,
	})
}

func (h *OrdersHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pay, err := h.Service.GetPayment(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateStatus(ctx, p, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(ctx, id)
	ev := kafkax.NewEnvelope(orders.EventStatusChanged, h.Name, requestID(r), o.ID, orders.StatusChangedPayload{
		OrderID: o.ID,
		Status:  string(o.Status),
	})
	h.publish(h.Status, o.ID, ev)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "order status updated",
		"order":   o,
	})
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, o *orders.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, o.ID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) cachedOrder(ctx context.Context, id string) (*orders.Order, bool) {
	key := fmt.Sprintf(redisx.KeyOrder, id)
	b, err := h.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (h *OrdersHandler) invalidate(ctx context.Context, id string) {
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, orderID string, ev kafkax.Envelope) {
	if p == nil {
		return
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev), eventHeaders(ev.EventType)...)
}

func eventHeaders(eventType string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte("1")},
	}
}

func requestID(r *http.Request) string { return r.Header.Get("X-Request-Id") }
