package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/services"
	"storefront/internal/token"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Shortfall errors carry the concrete numbers so the UI can say how many
// tokens are missing.
func respondServiceError(w http.ResponseWriter, err error) {
	var sf *services.ShortfallError
	if errors.As(err, &sf) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":    serviceErrorCode(sf.Err),
			"current":  token.FormatMinor(sf.Current),
			"required": token.FormatMinor(sf.Required),
		})
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyPremium),
		errors.Is(err, services.ErrProposalNotActive):
		respondError(w, http.StatusConflict, serviceErrorCode(err))
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidProposal),
		errors.Is(err, services.ErrInvalidRewardInput),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrThresholdNotMet),
		errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrPremiumUnavailable),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrMembershipInactive):
		respondError(w, http.StatusBadRequest, serviceErrorCode(err))
	default:
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func serviceErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, services.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, services.ErrThresholdNotMet):
		return "threshold_not_met"
	case errors.Is(err, services.ErrProposalNotActive):
		return "proposal_not_active"
	case errors.Is(err, services.ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, services.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, services.ErrInvalidRewardInput):
		return "invalid_reward_input"
	case errors.Is(err, services.ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, services.ErrAlreadyPremium):
		return "already_premium"
	case errors.Is(err, services.ErrPremiumUnavailable):
		return "premium_unavailable"
	case errors.Is(err, services.ErrNotMember):
		return "not_member"
	case errors.Is(err, services.ErrMembershipInactive):
		return "membership_inactive"
	case errors.Is(err, services.ErrInvalidProposal):
		return "invalid_proposal"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func parseAmountMinor(raw string) (int64, error) {
	amount, err := token.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, token.ErrInvalidAmount
	}
	return amount, nil
}
