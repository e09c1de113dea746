package handlers

import (
	"encoding/json"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/store"
	"storefront/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createPurchaseRequest struct {
	TotalPrice string `json:"total_price"`
}

func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := chi.URLParam(r, "id")
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	totalPrice, err := parseAmountMinor(req.TotalPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if _, err := h.stores.GetByID(r.Context(), storeID); err != nil {
		respondError(w, http.StatusNotFound, "store not found")
		return
	}
	purchaseID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.purchases.Create(r.Context(), tx, store.PurchaseInput{
			ID:         purchaseID,
			UserID:     userID,
			StoreID:    storeID,
			TotalPrice: totalPrice,
			Status:     "pending",
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create purchase")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":          purchaseID,
		"store_id":    storeID,
		"total_price": token.FormatMinor(totalPrice),
		"status":      "pending",
	})
}

// CompletePurchase is the at-least-once completion hook from the payment
// subsystem. Redelivery is safe: issuance dedups on the purchase id.
func (h *Handler) CompletePurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "id")
	result, err := h.rewards.CompletePurchase(r.Context(), purchaseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	payload := map[string]any{
		"purchase_id":   purchaseID,
		"status":        "completed",
		"reward_issued": result.Credited,
	}
	if result.Credited {
		payload["tokens_earned"] = token.FormatMinor(result.Amount)
		payload["new_balance"] = token.FormatMinor(result.NewBalance)
	}
	respondJSON(w, http.StatusOK, payload)
}

// IssueReward issues the reward for a purchase that is already completed,
// the recovery path when a completion hook was processed before the reward
// subsystem was reachable.
func (h *Handler) IssueReward(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "id")
	result, err := h.rewards.IssueReward(r.Context(), purchaseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	payload := map[string]any{
		"purchase_id":   purchaseID,
		"reward_issued": result.Credited,
	}
	if result.Credited {
		payload["tokens_earned"] = token.FormatMinor(result.Amount)
		payload["new_balance"] = token.FormatMinor(result.NewBalance)
	}
	respondJSON(w, http.StatusOK, payload)
}

// FailPurchase is the payment subsystem's failure hook. Failing is terminal
// and never touches balances.
func (h *Handler) FailPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "id")
	if err := h.rewards.FailPurchase(r.Context(), purchaseID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"purchase_id": purchaseID,
		"status":      "failed",
	})
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	purchases, err := h.purchases.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load purchases")
		return
	}
	var totalSpent, totalEarned int64
	normalized := make([]map[string]any, 0, len(purchases))
	for _, purchase := range purchases {
		if purchase.Status == "completed" {
			totalSpent += purchase.TotalPrice
			totalEarned += purchase.TokensEarned
		}
		normalized = append(normalized, map[string]any{
			"id":            purchase.ID,
			"store_id":      purchase.StoreID,
			"total_price":   token.FormatMinor(purchase.TotalPrice),
			"status":        purchase.Status,
			"tokens_earned": token.FormatMinor(purchase.TokensEarned),
			"created_at":    purchase.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"purchases":           normalized,
		"total_spent":         token.FormatMinor(totalSpent),
		"total_tokens_earned": token.FormatMinor(totalEarned),
	})
}
