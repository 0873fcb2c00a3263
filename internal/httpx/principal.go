package httpx

import (
	"net/http"

	"github.com/kusina-ph/kusina-backend/internal/auth"
)

// Principal lifts the identity headers set by the auth gateway into a typed
// principal on the request context. Requests without one are rejected before
// they reach a handler.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := auth.ParseRole(r.Header.Get("X-User-Role"))
		id := r.Header.Get("X-User-ID")
		if !ok || id == "" {
			writeError(w, auth.ErrNoPrincipal)
			return
		}
		ctx := auth.WithPrincipal(r.Context(), auth.Principal{Role: role, ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
