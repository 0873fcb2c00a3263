package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kusina-ph/kusina-backend/internal/auth"
	"github.com/kusina-ph/kusina-backend/internal/cart"
	"github.com/kusina-ph/kusina-backend/internal/catalog"
	"github.com/kusina-ph/kusina-backend/internal/inventory"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/reservations"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the HTTP status taxonomy. Stock
// shortfalls keep their requested/available detail so clients can adjust and
// retry.
func writeError(w http.ResponseWriter, err error) {
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}
	var transErr *orders.InvalidTransitionError
	if errors.As(err, &transErr) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": transErr.Error()})
		return
	}

	switch {
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrNoPrincipal):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrPaymentNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, reservations.ErrNotFound),
		errors.Is(err, inventory.ErrNoRecord):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrProductUnavailable),
		errors.Is(err, orders.ErrPaymentExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("[http] unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
