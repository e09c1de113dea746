package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-chi/chi/v5"
)

type createProposalRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ProposalType     string `json:"proposal_type"`
	MinTokensToVote  int64  `json:"min_tokens_to_vote"`
	VotingPeriodDays int    `json:"voting_period_days"`
}

func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	storeID := chi.URLParam(r, "id")

	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proposal, err := h.governance.CreateProposal(r.Context(), services.CreateProposalRequest{
		StoreID:          storeID,
		CreatorID:        userID,
		Title:            req.Title,
		Description:      req.Description,
		ProposalType:     req.ProposalType,
		MinTokensToVote:  req.MinTokensToVote,
		VotingPeriodDays: req.VotingPeriodDays,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "id")
	if active, _ := strconv.ParseBool(r.URL.Query().Get("active")); active {
		proposals, err := h.governance.ListActiveProposals(r.Context(), storeID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
		return
	}
	limit, offset := parsePagination(r)
	proposals, err := h.governance.ListProposals(r.Context(), storeID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "id")
	detail, err := h.governance.GetProposal(r.Context(), proposalID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type castVoteRequest struct {
	VoteType string `json:"vote_type"`
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	proposalID := chi.URLParam(r, "id")

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VoteType != "for" && req.VoteType != "against" {
		respondError(w, http.StatusBadRequest, "vote_type must be \"for\" or \"against\"")
		return
	}

	vote, err := h.governance.CastVote(r.Context(), userID, proposalID, req.VoteType)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}

func (h *Handler) GetOwnVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	proposalID := chi.URLParam(r, "id")
	vote, err := h.governance.GetVote(r.Context(), proposalID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vote)
}
