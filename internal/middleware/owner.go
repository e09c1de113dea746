package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type StoreOwnerStore interface {
	OwnerID(ctx context.Context, storeID string) (string, error)
}

// RequireStoreOwner gates a route on the caller owning the store named by the
// {id} URL parameter. Token-economics changes go only through owner-gated,
// audited routes.
func RequireStoreOwner(stores StoreOwnerStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			storeID := chi.URLParam(r, "id")
			if storeID == "" {
				http.Error(w, "missing store id", http.StatusBadRequest)
				return
			}
			ownerID, err := stores.OwnerID(r.Context(), storeID)
			if err != nil {
				http.Error(w, "store not found", http.StatusNotFound)
				return
			}
			if ownerID != userID {
				http.Error(w, "store owner required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
