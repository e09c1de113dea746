package handlers

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) JoinStore(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := chi.URLParam(r, "id")
	membership, err := h.membership.JoinBasic(r.Context(), userID, storeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, membership)
}

func (h *Handler) UpgradeMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := chi.URLParam(r, "id")
	membership, err := h.membership.UpgradeToPremium(r.Context(), userID, storeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, membership)
}

func (h *Handler) GetMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := chi.URLParam(r, "id")
	view, err := h.membership.GetMembership(r.Context(), userID, storeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
