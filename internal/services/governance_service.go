package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/db"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/token"
	"storefront/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ProposalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ProposalInput) error
	GetByID(ctx context.Context, proposalID string) (models.Proposal, error)
	GetForUpdate(ctx context.Context, tx store.Getter, proposalID string) (models.Proposal, error)
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error)
	ListActiveByStore(ctx context.Context, storeID string) ([]models.Proposal, error)
	IncrementTally(ctx context.Context, tx store.Execer, proposalID, voteType string, weight int64) (int64, error)
	SweepExpired(ctx context.Context, tx store.Execer) (int64, error)
	SweepOne(ctx context.Context, tx store.Execer, proposalID string) (int64, error)
	Participation(ctx context.Context, proposalID string) (store.ParticipationRow, error)
}

type VoteStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.VoteInput) (int64, error)
	Get(ctx context.Context, proposalID, userID string) (models.Vote, error)
	ListByProposal(ctx context.Context, proposalID string, limit, offset int) ([]models.Vote, error)
}

var validProposalTypes = map[string]bool{
	"product":    true,
	"operations": true,
	"financial":  true,
}

var validVotingPeriods = map[int]bool{3: true, 7: true, 14: true, 30: true}

// GovernanceService owns the proposal lifecycle and balance-weighted voting.
type GovernanceService struct {
	txRunner    db.TxRunner
	proposals   ProposalStore
	votes       VoteStore
	stores      StoreStore
	memberships MembershipStore
	ledger      Ledger
	hub         UpdateHub
}

func NewGovernanceService(txRunner db.TxRunner, proposals ProposalStore, votes VoteStore, stores StoreStore, memberships MembershipStore, ledger Ledger, hub UpdateHub) *GovernanceService {
	return &GovernanceService{
		txRunner:    txRunner,
		proposals:   proposals,
		votes:       votes,
		stores:      stores,
		memberships: memberships,
		ledger:      ledger,
		hub:         hub,
	}
}

type CreateProposalRequest struct {
	StoreID          string
	CreatorID        string
	Title            string
	Description      string
	ProposalType     string
	MinTokensToVote  int64
	VotingPeriodDays int
}

func (s *GovernanceService) CreateProposal(ctx context.Context, req CreateProposalRequest) (models.Proposal, error) {
	if req.Title == "" || !validProposalTypes[req.ProposalType] {
		return models.Proposal{}, ErrInvalidProposal
	}
	if req.VotingPeriodDays == 0 {
		req.VotingPeriodDays = 7
	}
	if !validVotingPeriods[req.VotingPeriodDays] {
		return models.Proposal{}, ErrInvalidProposal
	}
	if req.MinTokensToVote <= 0 {
		req.MinTokensToVote = 1
	}
	proposalID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		st, err := s.stores.GetByIDTx(ctx, tx, req.StoreID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		membership, err := s.memberships.GetTx(ctx, tx, req.CreatorID, req.StoreID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}
		if !membership.IsActive {
			return ErrMembershipInactive
		}
		balance, err := s.ledger.GetBalanceTx(ctx, tx, req.CreatorID, req.StoreID)
		if err != nil {
			return err
		}
		if balance < st.MinProposalTokens {
			return shortfall(ErrThresholdNotMet, balance, st.MinProposalTokens)
		}
		return s.proposals.Create(ctx, tx, store.ProposalInput{
			ID:              proposalID,
			StoreID:         req.StoreID,
			CreatorID:       req.CreatorID,
			Title:           req.Title,
			Description:     req.Description,
			ProposalType:    req.ProposalType,
			MinTokensToVote: req.MinTokensToVote,
			ExpiresAt:       time.Now().UTC().AddDate(0, 0, req.VotingPeriodDays),
		})
	})
	if err != nil {
		return models.Proposal{}, err
	}
	return s.proposals.GetByID(ctx, proposalID)
}

// CastVote records one immutable, balance-weighted vote. The vote row's
// unique constraint and the tally increment run in the same transaction, so
// concurrent attempts by one user yield exactly one success.
func (s *GovernanceService) CastVote(ctx context.Context, userID, proposalID, voteType string) (models.Vote, error) {
	if voteType != "for" && voteType != "against" {
		return models.Vote{}, ErrInvalidProposal
	}
	var weight int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.proposals.GetForUpdate(ctx, tx, proposalID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if proposal.Status != "active" {
			return ErrProposalNotActive
		}
		if !proposal.ExpiresAt.After(time.Now()) {
			// Expired but unswept; settle it now instead of taking a stale vote.
			if _, err := s.proposals.SweepOne(ctx, tx, proposalID); err != nil {
				return err
			}
			return ErrProposalNotActive
		}
		balance, err := s.ledger.GetBalanceTx(ctx, tx, userID, proposal.StoreID)
		if err != nil {
			return err
		}
		if balance < proposal.MinTokensToVote {
			return shortfall(ErrNotEligible, balance, proposal.MinTokensToVote)
		}
		weight = balance
		inserted, err := s.votes.Insert(ctx, tx, store.VoteInput{
			ID:          uuid.NewString(),
			ProposalID:  proposalID,
			UserID:      userID,
			VoteType:    voteType,
			TokenWeight: weight,
		})
		if err != nil {
			return err
		}
		if inserted == 0 {
			return ErrDuplicateVote
		}
		tallied, err := s.proposals.IncrementTally(ctx, tx, proposalID, voteType, weight)
		if err != nil {
			return err
		}
		if tallied == 0 {
			return ErrProposalNotActive
		}
		return nil
	})
	if err != nil {
		return models.Vote{}, err
	}
	s.broadcastProposal(ctx, proposalID)
	return s.votes.Get(ctx, proposalID, userID)
}

// GetVote lets a caller that timed out on CastVote find out whether the vote
// landed before retrying, so a retry cannot misread DuplicateVote as failure.
func (s *GovernanceService) GetVote(ctx context.Context, proposalID, userID string) (models.Vote, error) {
	vote, err := s.votes.Get(ctx, proposalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, ErrNotFound
	}
	return vote, err
}

// Sweep settles every expired proposal. Safe to run concurrently with itself
// and with inline sweeps; already-terminal proposals are untouched.
func (s *GovernanceService) Sweep(ctx context.Context) (int64, error) {
	var swept int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		swept, err = s.proposals.SweepExpired(ctx, tx)
		return err
	})
	return swept, err
}

// ListProposals sweeps lazily so readers never see an active proposal past
// its deadline.
func (s *GovernanceService) ListProposals(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.proposals.ListByStore(ctx, storeID, limit, offset)
}

func (s *GovernanceService) ListActiveProposals(ctx context.Context, storeID string) ([]models.Proposal, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.proposals.ListActiveByStore(ctx, storeID)
}

type ProposalDetail struct {
	Proposal      models.Proposal `json:"proposal"`
	VoterCount    int64           `json:"voter_count"`
	TotalWeight   int64           `json:"total_weight"`
	Participation string          `json:"total_weight_display"`
	RecentVotes   []models.Vote   `json:"recent_votes"`
}

// recentVoteLimit caps the vote sample on proposal detail; the tallies on the
// proposal row are the authoritative totals.
const recentVoteLimit = 20

func (s *GovernanceService) GetProposal(ctx context.Context, proposalID string) (ProposalDetail, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return ProposalDetail{}, err
	}
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if errors.Is(err, sql.ErrNoRows) {
		return ProposalDetail{}, ErrNotFound
	}
	if err != nil {
		return ProposalDetail{}, err
	}
	participation, err := s.proposals.Participation(ctx, proposalID)
	if err != nil {
		return ProposalDetail{}, err
	}
	votes, err := s.votes.ListByProposal(ctx, proposalID, recentVoteLimit, 0)
	if err != nil {
		return ProposalDetail{}, err
	}
	return ProposalDetail{
		Proposal:      proposal,
		VoterCount:    participation.VoterCount,
		TotalWeight:   participation.TotalWeight,
		Participation: token.FormatMinor(participation.TotalWeight),
		RecentVotes:   votes,
	}, nil
}

func (s *GovernanceService) broadcastProposal(ctx context.Context, proposalID string) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return
	}
	s.hub.BroadcastProposal(websocket.ProposalUpdate{
		ProposalID:   proposal.ID,
		StoreID:      proposal.StoreID,
		Status:       proposal.Status,
		VotesFor:     token.FormatMinor(proposal.VotesFor),
		VotesAgainst: token.FormatMinor(proposal.VotesAgainst),
	})
}
