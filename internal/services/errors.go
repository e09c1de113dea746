package services

import (
	"errors"
	"fmt"

	"storefront/internal/token"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrThresholdNotMet     = errors.New("proposal threshold not met")
	ErrProposalNotActive   = errors.New("proposal not active")
	ErrDuplicateVote       = errors.New("already voted on proposal")
	ErrNotEligible         = errors.New("not eligible to vote")
	ErrInvalidRewardInput  = errors.New("invalid reward input")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyMember       = errors.New("already a member")
	ErrNotMember           = errors.New("not a member")
	ErrAlreadyPremium      = errors.New("membership already premium")
	ErrPremiumUnavailable  = errors.New("store has no premium membership")
	ErrMembershipInactive  = errors.New("membership inactive")
	ErrInvalidProposal     = errors.New("invalid proposal")
	ErrNotStoreOwner       = errors.New("not the store owner")
)

// ShortfallError wraps ErrInsufficientBalance, ErrThresholdNotMet or
// ErrNotEligible with the concrete numbers, so callers can tell the user how
// far short they are instead of showing a generic failure.
type ShortfallError struct {
	Err      error
	Current  int64
	Required int64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%v: have %s, need %s", e.Err,
		token.FormatMinor(e.Current), token.FormatMinor(e.Required))
}

func (e *ShortfallError) Unwrap() error {
	return e.Err
}

func shortfall(sentinel error, current, required int64) error {
	return &ShortfallError{Err: sentinel, Current: current, Required: required}
}
