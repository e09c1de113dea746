package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

type ProposalStore struct {
	db DB
}

type ProposalInput struct {
	ID              string
	StoreID         string
	CreatorID       string
	Title           string
	Description     string
	ProposalType    string
	MinTokensToVote int64
	ExpiresAt       time.Time
}

type ParticipationRow struct {
	VoterCount  int64 `db:"voter_count"`
	TotalWeight int64 `db:"total_weight"`
}

func NewProposalStore(db DB) *ProposalStore {
	return &ProposalStore{db: db}
}

func (s *ProposalStore) Create(ctx context.Context, tx Execer, input ProposalInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO proposals (id, store_id, creator_id, title, description, proposal_type,
		                       status, min_tokens_to_vote, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8)
	`, input.ID, input.StoreID, input.CreatorID, input.Title, input.Description,
		input.ProposalType, input.MinTokensToVote, input.ExpiresAt)
	return err
}

func (s *ProposalStore) GetByID(ctx context.Context, proposalID string) (models.Proposal, error) {
	var row models.Proposal
	err := s.db.GetContext(ctx, &row, `
		SELECT id, store_id, creator_id, title, description, proposal_type, status,
		       votes_for, votes_against, min_tokens_to_vote, expires_at, created_at
		FROM proposals
		WHERE id = $1
	`, proposalID)
	if err != nil {
		return models.Proposal{}, err
	}
	return row, nil
}

func (s *ProposalStore) GetForUpdate(ctx context.Context, tx Getter, proposalID string) (models.Proposal, error) {
	var row models.Proposal
	err := tx.GetContext(ctx, &row, `
		SELECT id, store_id, creator_id, title, description, proposal_type, status,
		       votes_for, votes_against, min_tokens_to_vote, expires_at, created_at
		FROM proposals
		WHERE id = $1
		FOR UPDATE
	`, proposalID)
	if err != nil {
		return models.Proposal{}, err
	}
	return row, nil
}

func (s *ProposalStore) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, store_id, creator_id, title, description, proposal_type, status,
		       votes_for, votes_against, min_tokens_to_vote, expires_at, created_at
		FROM proposals
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, storeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ProposalStore) ListActiveByStore(ctx context.Context, storeID string) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, store_id, creator_id, title, description, proposal_type, status,
		       votes_for, votes_against, min_tokens_to_vote, expires_at, created_at
		FROM proposals
		WHERE store_id = $1 AND status = 'active'
		ORDER BY created_at DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementTally adds a cast vote's snapshot weight to one side of an active
// proposal. The increment is in-database; tallies are never written from a
// read copy of the row.
func (s *ProposalStore) IncrementTally(ctx context.Context, tx Execer, proposalID, voteType string, weight int64) (int64, error) {
	column := "votes_for"
	if voteType == "against" {
		column = "votes_against"
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE proposals
		SET `+column+` = `+column+` + $1
		WHERE id = $2 AND status = 'active'
	`, weight, proposalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepExpired moves every active proposal past its deadline to a terminal
// status: passed when for strictly exceeds against, expired when nobody
// voted, rejected otherwise. Ties go to rejected; the status quo wins. The
// status guard makes a repeated sweep a no-op.
func (s *ProposalStore) SweepExpired(ctx context.Context, tx Execer) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE proposals
		SET status = CASE
			WHEN votes_for = 0 AND votes_against = 0 THEN 'expired'
			WHEN votes_for > votes_against THEN 'passed'
			ELSE 'rejected'
		END
		WHERE status = 'active' AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepOne applies the same terminal transition to a single proposal, used
// inline on read and vote paths.
func (s *ProposalStore) SweepOne(ctx context.Context, tx Execer, proposalID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE proposals
		SET status = CASE
			WHEN votes_for = 0 AND votes_against = 0 THEN 'expired'
			WHEN votes_for > votes_against THEN 'passed'
			ELSE 'rejected'
		END
		WHERE id = $1 AND status = 'active' AND expires_at <= NOW()
	`, proposalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ProposalStore) Participation(ctx context.Context, proposalID string) (ParticipationRow, error) {
	var row ParticipationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS voter_count,
		       COALESCE(SUM(token_weight), 0) AS total_weight
		FROM votes
		WHERE proposal_id = $1
	`, proposalID)
	return row, err
}
