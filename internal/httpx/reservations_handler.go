package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/reservations"
)

// ReservationsHandler covers table bookings. Customers create and cancel
// their own reservations; staff see all of them and move them through the
// status list.
type ReservationsHandler struct {
	Repo reservations.Repository
}

type createReservationReq struct {
	ReservationDate time.Time `json:"reservationDate"`
	NumberOfPeople  int       `json:"numberOfPeople"`
	SpecialRequests string    `json:"specialRequests"`
}

type reservationStatusReq struct {
	Status string `json:"status"`
}

func (h *ReservationsHandler) Register(r chi.Router) {
	r.Route("/reservations", func(r chi.Router) {
		r.Use(Principal)
		r.Post("/", h.create)
		r.Get("/my", h.listMine)
		r.Get("/", h.listAll)
		r.Get("/{id}", h.get)
		r.Put("/{id}/cancel", h.cancel)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func (h *ReservationsHandler) create(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsCustomer() {
		writeError(w, fmt.Errorf("only customers can book reservations: %w", orders.ErrForbidden))
		return
	}
	var req createReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ReservationDate.IsZero() || req.NumberOfPeople <= 0 {
		writeError(w, fmt.Errorf("reservationDate and a positive numberOfPeople are required: %w", orders.ErrValidation))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := &reservations.Reservation{
		CustomerID:      p.ID,
		ReservationDate: req.ReservationDate,
		NumberOfPeople:  req.NumberOfPeople,
		SpecialRequests: req.SpecialRequests,
	}
	if err := h.Repo.Create(ctx, res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "reservation booked",
		"reservation": res,
	})
}

func (h *ReservationsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rs, err := h.Repo.ListByCustomer(ctx, p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rs == nil {
		rs = []reservations.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs, "count": len(rs)})
}

func (h *ReservationsHandler) listAll(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsSeller() {
		writeError(w, fmt.Errorf("only staff can list all reservations: %w", orders.ErrForbidden))
		return
	}

	var st reservations.Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := reservations.ParseStatus(s)
		if !ok {
			writeError(w, fmt.Errorf("unknown status filter %q: %w", s, orders.ErrValidation))
			return
		}
		st = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rs, err := h.Repo.ListAll(ctx, st)
	if err != nil {
		writeError(w, err)
		return
	}
	if rs == nil {
		rs = []reservations.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs, "count": len(rs)})
}

func (h *ReservationsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Repo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if p.IsCustomer() && res.CustomerID != p.ID {
		writeError(w, fmt.Errorf("reservation %s belongs to another customer: %w", res.ID, orders.ErrForbidden))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsCustomer() {
		writeError(w, fmt.Errorf("only customers can cancel their reservations: %w", orders.ErrForbidden))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	res, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.CustomerID != p.ID {
		writeError(w, fmt.Errorf("reservation %s belongs to another customer: %w", id, orders.ErrForbidden))
		return
	}
	switch res.Status {
	case reservations.StatusCompleted, reservations.StatusCancelled, reservations.StatusNoShow:
		writeError(w, fmt.Errorf("reservation is already %s: %w", res.Status, orders.ErrValidation))
		return
	}

	res, err = h.Repo.SetStatus(ctx, id, reservations.StatusCancelled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "reservation cancelled",
		"reservation": res,
	})
}

func (h *ReservationsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsSeller() {
		writeError(w, fmt.Errorf("only staff can update reservation status: %w", orders.ErrForbidden))
		return
	}
	var req reservationStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	st, ok := reservations.ParseStatus(req.Status)
	if !ok {
		writeError(w, fmt.Errorf("invalid status %q: %w", req.Status, orders.ErrValidation))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.SetStatus(ctx, chi.URLParam(r, "id"), st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "reservation status updated",
		"reservation": res,
	})
}
