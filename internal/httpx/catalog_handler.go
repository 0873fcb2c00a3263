package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	"github.com/kusina-ph/kusina-backend/internal/catalog"
	"github.com/kusina-ph/kusina-backend/internal/inventory"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
)

// StockLedger is the slice of the inventory ledger the catalog surface
// needs. *inventory.Ledger satisfies it.
type StockLedger interface {
	Get(ctx context.Context, productID string) (*inventory.Record, error)
	Restock(ctx context.Context, productID string, qty int) (*inventory.Record, error)
	Deduct(ctx context.Context, productID string, qty int) (*inventory.Record, error)
	SetReorderLevel(ctx context.Context, productID string, level int) error
}

// CatalogHandler serves the product catalog and the seller-side inventory
// adjustments. Listing and reading products is public; everything that
// mutates is scoped to the owning seller.
type CatalogHandler struct {
	Repo      catalog.Repository
	Ledger    StockLedger
	Restocked *kafkax.Producer
	Name      string
}

type createProductReq struct {
	Name         string  `json:"productName"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"imageUrl"`
	UnitPrice    string  `json:"unitPrice"`
	IsAvailable  *bool   `json:"isAvailable"`
	InitialStock int     `json:"initialStock"`
	ReorderLevel int     `json:"reorderLevel"`
}

type updateProductReq struct {
	Name        *string `json:"productName"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"imageUrl"`
	UnitPrice   *string `json:"unitPrice"`
	IsAvailable *bool   `json:"isAvailable"`
}

type adjustInventoryReq struct {
	QuantityChange int  `json:"quantityChange"`
	ReorderLevel   *int `json:"reorderLevel"`
}

type productView struct {
	*catalog.Product
	Inventory *inventoryView `json:"inventory,omitempty"`
}

type inventoryView struct {
	QuantityInStock int       `json:"quantityInStock"`
	ReorderLevel    int       `json:"reorderLevel"`
	NeedsReorder    bool      `json:"needsReorder"`
	LastRestocked   time.Time `json:"lastRestocked"`
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(Principal)
		r.Post("/products", h.create)
		r.Put("/products/{id}", h.update)
		r.Put("/products/{id}/inventory", h.adjustInventory)
	})
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	qs := r.URL.Query()
	q := catalog.Query{
		Q:             qs.Get("q"),
		Category:      qs.Get("category"),
		SellerID:      qs.Get("sellerId"),
		AvailableOnly: qs.Get("available") == "true",
	}
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))
	q.Offset, _ = strconv.Atoi(qs.Get("offset"))

	ps, err := h.Repo.List(ctx, q)
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps, "count": len(ps)})
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	view := productView{Product: p}
	if rec, err := h.Ledger.Get(ctx, p.ID); err == nil {
		view.Inventory = &inventoryView{
			QuantityInStock: rec.QuantityInStock,
			ReorderLevel:    rec.ReorderLevel,
			NeedsReorder:    rec.NeedsReorder(),
			LastRestocked:   rec.LastRestocked,
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsSeller() {
		writeError(w, fmt.Errorf("only sellers can create products: %w", orders.ErrForbidden))
		return
	}
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.UnitPrice == "" {
		writeError(w, fmt.Errorf("productName and unitPrice are required: %w", orders.ErrValidation))
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		writeError(w, fmt.Errorf("invalid unitPrice %q: %w", req.UnitPrice, orders.ErrValidation))
		return
	}
	if req.InitialStock < 0 || req.ReorderLevel < 0 {
		writeError(w, fmt.Errorf("initialStock and reorderLevel must not be negative: %w", orders.ErrValidation))
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	prod := &catalog.Product{
		SellerID:    p.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		UnitPrice:   price,
		IsAvailable: available,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Create(ctx, prod, req.InitialStock, req.ReorderLevel); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "product created",
		"product": prod,
	})
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsSeller() {
		writeError(w, fmt.Errorf("only sellers can update products: %w", orders.ErrForbidden))
		return
	}
	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	u := catalog.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
	}
	if req.UnitPrice != nil {
		price, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil || price.IsNegative() {
			writeError(w, fmt.Errorf("invalid unitPrice %q: %w", *req.UnitPrice, orders.ErrValidation))
			return
		}
		u.UnitPrice = &price
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	prod, err := h.Repo.Update(ctx, chi.URLParam(r, "id"), p.ID, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "product updated",
		"product": prod,
	})
}

// adjustInventory restocks (positive change), deducts (negative change) and
// retunes the reorder level, all seller-scoped through product ownership.
func (h *CatalogHandler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsSeller() {
		writeError(w, fmt.Errorf("only sellers can adjust inventory: %w", orders.ErrForbidden))
		return
	}
	var req adjustInventoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	prod, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if prod.SellerID != p.ID {
		writeError(w, fmt.Errorf("product %s belongs to another seller: %w", id, orders.ErrForbidden))
		return
	}

	var rec *inventory.Record
	switch {
	case req.QuantityChange > 0:
		rec, err = h.Ledger.Restock(ctx, id, req.QuantityChange)
		if err == nil {
			ev := kafkax.NewEnvelope(inventory.EventRestocked, h.Name, requestID(r), id, inventory.RestockedPayload{
				ProductID:  id,
				Added:      req.QuantityChange,
				NewInStock: rec.QuantityInStock,
			})
			if h.Restocked != nil {
				h.Restocked.Publish([]byte(id), kafkax.MustMarshal(ev), eventHeaders(ev.EventType)...)
			}
		}
	case req.QuantityChange < 0:
		rec, err = h.Ledger.Deduct(ctx, id, -req.QuantityChange)
	default:
		rec, err = h.Ledger.Get(ctx, id)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if req.ReorderLevel != nil {
		if err := h.Ledger.SetReorderLevel(ctx, id, *req.ReorderLevel); err != nil {
			writeError(w, err)
			return
		}
		if rec, err = h.Ledger.Get(ctx, id); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "inventory updated",
		"inventory": rec,
	})
}
