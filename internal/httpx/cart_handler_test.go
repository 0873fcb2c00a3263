package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusina-ph/kusina-backend/internal/cart"
	"github.com/kusina-ph/kusina-backend/internal/catalog"
	"github.com/kusina-ph/kusina-backend/internal/orders"
)

type stubCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart // by customer id
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]*cart.Cart)}
}

func (s *stubCartRepo) GetOrCreate(ctx context.Context, customerID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[customerID]
	if !ok {
		c = &cart.Cart{ID: uuid.NewString(), CustomerID: customerID}
		s.carts[customerID] = c
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (s *stubCartRepo) AddItem(ctx context.Context, cartID, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCart(cartID)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return nil
		}
	}
	c.Items = append(c.Items, cart.Item{ID: uuid.NewString(), CartID: cartID, ProductID: productID, Quantity: qty})
	return nil
}

func (s *stubCartRepo) UpdateItem(ctx context.Context, cartID, itemID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCart(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = qty
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (s *stubCartRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCart(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (s *stubCartRepo) Clear(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCart(cartID).Items = nil
	return nil
}

func (s *stubCartRepo) findCart(cartID string) *cart.Cart {
	for _, c := range s.carts {
		if c.ID == cartID {
			return c
		}
	}
	c := &cart.Cart{ID: cartID}
	return c
}

func newCartServer(t *testing.T, stock map[string]int) (*httptest.Server, *stubStore, *stubCartRepo) {
	t.Helper()
	cat := &stubCatalog{products: map[string]*catalog.Product{
		"lumpia": {ID: "lumpia", SellerID: "seller-1", Name: "Lumpiang Shanghai", UnitPrice: dec(t, "120.00"), IsAvailable: true},
	}}
	ledger := &stubLedger{stock: stock}
	store := &stubStore{ledger: ledger, orders: make(map[string]*orders.Order)}
	svc := orders.NewService(cat, ledger, store)

	repo := newStubCartRepo()
	router := NewRouter()
	(&CartHandler{Repo: repo, Service: svc, Name: "test"}).Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store, repo
}

func TestCartAddUpdateRemove(t *testing.T) {
	srv, _, _ := newCartServer(t, map[string]int{"lumpia": 10})

	resp := doJSON(t, http.MethodGet, srv.URL+"/cart", customerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeBody(t, resp)
	assert.Equal(t, "cust-1", c["customerId"])

	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", customerHdr,
		map[string]any{"productId": "lumpia", "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c = decodeBody(t, resp)
	items := c["items"].([]any)
	require.Len(t, items, 1)
	itemID := items[0].(map[string]any)["cartItemId"].(string)

	// adding the same product again merges lines
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", customerHdr,
		map[string]any{"productId": "lumpia", "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c = decodeBody(t, resp)
	items = c["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(3), items[0].(map[string]any)["quantity"])

	resp = doJSON(t, http.MethodPut, srv.URL+"/cart/items/"+itemID, customerHdr,
		map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c = decodeBody(t, resp)
	assert.Equal(t, float64(5), c["items"].([]any)[0].(map[string]any)["quantity"])

	// zero quantity removes the line
	resp = doJSON(t, http.MethodPut, srv.URL+"/cart/items/"+itemID, customerHdr,
		map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c = decodeBody(t, resp)
	assert.Empty(t, c["items"])

	resp = doJSON(t, http.MethodDelete, srv.URL+"/cart/items/"+itemID, customerHdr, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartAddValidation(t *testing.T) {
	srv, _, _ := newCartServer(t, map[string]int{"lumpia": 10})

	resp := doJSON(t, http.MethodPost, srv.URL+"/cart/items", customerHdr,
		map[string]any{"productId": "", "quantity": 2})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", sellerHdr, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCartCheckout(t *testing.T) {
	srv, store, _ := newCartServer(t, map[string]int{"lumpia": 10})

	resp := doJSON(t, http.MethodPost, srv.URL+"/cart/items", customerHdr,
		map[string]any{"productId": "lumpia", "quantity": 2})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/checkout", customerHdr,
		map[string]any{"type": "Pickup"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	order := body["order"].(map[string]any)
	assert.Equal(t, "240.00", order["totalAmount"])
	assert.Len(t, store.orders, 1)

	// checkout drained the cart
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", customerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeBody(t, resp)
	assert.Empty(t, c["items"])

	// and an empty cart cannot check out again
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/checkout", customerHdr,
		map[string]any{"type": "Pickup"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartCheckout_StockFailureKeepsCart(t *testing.T) {
	srv, store, _ := newCartServer(t, map[string]int{"lumpia": 1})

	resp := doJSON(t, http.MethodPost, srv.URL+"/cart/items", customerHdr,
		map[string]any{"productId": "lumpia", "quantity": 3})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/checkout", customerHdr,
		map[string]any{"type": "Pickup"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, store.orders)

	// the cart survives so the customer can fix quantities
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", customerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeBody(t, resp)
	assert.Len(t, c["items"], 1)
}
