package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/store"
	"storefront/internal/token"
	"storefront/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createStoreRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	TokenName         string `json:"token_name"`
	TokenSymbol       string `json:"token_symbol"`
	RewardRate        string `json:"reward_rate"`
	MembershipFee     string `json:"membership_fee"`
	PremiumFee        string `json:"premium_fee"`
	HasPremium        bool   `json:"has_premium"`
	MinProposalTokens string `json:"min_proposal_tokens"`
}

func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateTokenSymbol(req.TokenSymbol); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rate, err := token.ParseRate(req.RewardRate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_reward_rate")
		return
	}
	membershipFee, err := parseFee(req.MembershipFee)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_membership_fee")
		return
	}
	premiumFee, err := parseFee(req.PremiumFee)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_premium_fee")
		return
	}
	minProposalTokens, err := parseFee(req.MinProposalTokens)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_min_proposal_tokens")
		return
	}
	storeID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.stores.Create(r.Context(), tx, store.StoreInput{
			ID:                storeID,
			OwnerID:           userID,
			Name:              req.Name,
			Description:       req.Description,
			TokenName:         req.TokenName,
			TokenSymbol:       req.TokenSymbol,
			RewardRate:        rate.String(),
			MembershipFee:     membershipFee,
			PremiumFee:        premiumFee,
			HasPremium:        req.HasPremium,
			MinProposalTokens: minProposalTokens,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create store")
		return
	}
	created, err := h.stores.GetByID(r.Context(), storeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load store")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	stores, err := h.stores.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load stores")
		return
	}
	respondJSON(w, http.StatusOK, stores)
}

func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "id")
	st, err := h.stores.GetByID(r.Context(), storeID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load store")
		return
	}
	holderCount, err := h.accounts.CountHolders(r.Context(), storeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load holders")
		return
	}
	memberCount, err := h.memberships.CountActiveByStore(r.Context(), storeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load members")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"store":        st,
		"holder_count": holderCount,
		"member_count": memberCount,
	})
}

type economicsRequest struct {
	RewardRate        string `json:"reward_rate"`
	MembershipFee     string `json:"membership_fee"`
	PremiumFee        string `json:"premium_fee"`
	MinProposalTokens string `json:"min_proposal_tokens"`
}

// UpdateStoreEconomics is owner-gated by the router. The change runs in one
// transaction and the new economics only apply to later rewards and joins;
// issued distributions are immutable.
func (h *Handler) UpdateStoreEconomics(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "id")
	var req economicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rate, err := token.ParseRate(req.RewardRate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_reward_rate")
		return
	}
	membershipFee, err := parseFee(req.MembershipFee)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_membership_fee")
		return
	}
	premiumFee, err := parseFee(req.PremiumFee)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_premium_fee")
		return
	}
	minProposalTokens, err := parseFee(req.MinProposalTokens)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_min_proposal_tokens")
		return
	}
	var updated int64
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var txErr error
		updated, txErr = h.stores.UpdateEconomics(r.Context(), tx, storeID, store.EconomicsInput{
			RewardRate:        rate.String(),
			MembershipFee:     membershipFee,
			PremiumFee:        premiumFee,
			MinProposalTokens: minProposalTokens,
		})
		return txErr
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update economics")
		return
	}
	if updated == 0 {
		respondError(w, http.StatusNotFound, "store not found")
		return
	}
	st, err := h.stores.GetByID(r.Context(), storeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load store")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handler) GetStoreBalance(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, map[string]any{
		"store_id":            storeID,
		"balance":             token.FormatMinor(view.Balance),
		"can_vote":            view.CanVote,
		"can_create_proposal": view.CanCreateProposal,
	})
}

func (h *Handler) ListStoreMembers(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "id")
	limit, offset := parsePagination(r)
	members, err := h.memberships.ListActiveByStore(r.Context(), storeID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load members")
		return
	}
	holders, err := h.accounts.ListHolders(r.Context(), storeID, 10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load holders")
		return
	}
	normalized := make([]map[string]any, 0, len(members))
	for _, member := range members {
		normalized = append(normalized, map[string]any{
			"user_id":   member.UserID,
			"username":  member.Username,
			"tier":      member.Tier,
			"balance":   token.FormatMinor(member.Balance),
			"joined_at": member.JoinedAt,
		})
	}
	topHolders := make([]map[string]any, 0, len(holders))
	for _, holder := range holders {
		topHolders = append(topHolders, map[string]any{
			"user_id":  holder.UserID,
			"username": holder.Username,
			"balance":  token.FormatMinor(holder.Balance),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"members":     normalized,
		"top_holders": topHolders,
	})
}

func parseFee(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	fee, err := token.ParseMinor(raw)
	if err != nil || fee < 0 {
		return 0, token.ErrInvalidAmount
	}
	return fee, nil
}
