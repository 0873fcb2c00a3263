package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusina-ph/kusina-backend/internal/reservations"
)

type stubReservations struct {
	mu   sync.Mutex
	byID map[string]*reservations.Reservation
}

func newStubReservations() *stubReservations {
	return &stubReservations{byID: make(map[string]*reservations.Reservation)}
}

func (s *stubReservations) Create(ctx context.Context, r *reservations.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = reservations.StatusPending
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *stubReservations) GetByID(ctx context.Context, id string) (*reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, reservations.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *stubReservations) ListByCustomer(ctx context.Context, customerID string) ([]reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reservations.Reservation
	for _, r := range s.byID {
		if r.CustomerID == customerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubReservations) ListAll(ctx context.Context, status reservations.Status) ([]reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reservations.Reservation
	for _, r := range s.byID {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubReservations) SetStatus(ctx context.Context, id string, st reservations.Status) (*reservations.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, reservations.ErrNotFound
	}
	r.Status = st
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

func newReservationsServer(t *testing.T) (*httptest.Server, *stubReservations) {
	t.Helper()
	repo := newStubReservations()
	router := NewRouter()
	(&ReservationsHandler{Repo: repo}).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestReservationsCreateAndGet(t *testing.T) {
	srv, _ := newReservationsServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/reservations", customerHdr, map[string]any{
		"reservationDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"numberOfPeople":  4,
		"specialRequests": "window table",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	res := body["reservation"].(map[string]any)
	assert.Equal(t, "Pending", res["status"])
	assert.Equal(t, "cust-1", res["customerId"])
	id := res["reservationId"].(string)

	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations/"+id, customerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody(t, resp)
	assert.Equal(t, float64(4), got["numberOfPeople"])

	// other customers cannot peek
	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations/"+id,
		map[string]string{"X-User-Role": "customer", "X-User-ID": "cust-2"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReservationsCreate_Validation(t *testing.T) {
	srv, _ := newReservationsServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/reservations", customerHdr, map[string]any{
		"numberOfPeople": 0,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", sellerHdr, map[string]any{
		"reservationDate": time.Now().Format(time.RFC3339),
		"numberOfPeople":  2,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReservationsCancel(t *testing.T) {
	srv, _ := newReservationsServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/reservations", customerHdr, map[string]any{
		"reservationDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"numberOfPeople":  2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["reservation"].(map[string]any)["reservationId"].(string)

	resp = doJSON(t, http.MethodPut, srv.URL+"/reservations/"+id+"/cancel", customerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Cancelled", body["reservation"].(map[string]any)["status"])

	// cancelled is final for the customer
	resp = doJSON(t, http.MethodPut, srv.URL+"/reservations/"+id+"/cancel", customerHdr, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReservationsStaffFlow(t *testing.T) {
	srv, _ := newReservationsServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/reservations", customerHdr, map[string]any{
		"reservationDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"numberOfPeople":  6,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["reservation"].(map[string]any)["reservationId"].(string)

	// customers cannot list everything
	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations", customerHdr, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations?status=Pending", sellerHdr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody(t, resp)
	assert.Equal(t, float64(1), list["count"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations?status=Someday", sellerHdr, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/reservations/"+id+"/status", sellerHdr,
		map[string]string{"status": "No-show"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "No-show", body["reservation"].(map[string]any)["status"])

	resp = doJSON(t, http.MethodPut, srv.URL+"/reservations/"+id+"/status", sellerHdr,
		map[string]string{"status": "Ghosted"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
