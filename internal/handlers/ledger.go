package handlers

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/token"
	"storefront/internal/websocket"
)

func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.accounts.Reconcile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	accounts := make([]map[string]any, 0, len(rows))
	consistent := true
	for _, row := range rows {
		if row.Difference != 0 {
			consistent = false
		}
		accounts = append(accounts, map[string]any{
			"store_id":                 row.StoreID,
			"balance":                  row.Balance,
			"balance_display":          token.FormatMinor(row.Balance),
			"distribution_sum":         row.DistributionSum,
			"distribution_sum_display": token.FormatMinor(row.DistributionSum),
			"difference":               row.Difference,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"consistent": consistent,
		"accounts":   accounts,
	})
}

func (h *Handler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		respondError(w, http.StatusBadRequest, "store_id is required")
		return
	}
	limit, offset := parsePagination(r)
	distributions, err := h.distributions.ListByAccount(r.Context(), userID, storeID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total, err := h.distributions.SumByAccount(r.Context(), userID, storeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"distributions": distributions,
		"total":         token.FormatMinor(total),
	})
}

// WSUpdates authenticates from the query string because browser WebSocket
// clients cannot set an Authorization header.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, raw)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
