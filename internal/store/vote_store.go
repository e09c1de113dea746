package store

import (
	"context"

	"storefront/internal/models"
)

type VoteStore struct {
	db DB
}

type VoteInput struct {
	ID          string
	ProposalID  string
	UserID      string
	VoteType    string
	TokenWeight int64
}

func NewVoteStore(db DB) *VoteStore {
	return &VoteStore{db: db}
}

// Insert records a vote. The unique (proposal_id, user_id) constraint is the
// concurrency guard: a zero row count means this user already voted and the
// caller must not touch the tallies.
func (s *VoteStore) Insert(ctx context.Context, tx Execer, input VoteInput) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO votes (id, proposal_id, user_id, vote_type, token_weight)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (proposal_id, user_id) DO NOTHING
	`, input.ID, input.ProposalID, input.UserID, input.VoteType, input.TokenWeight)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *VoteStore) Get(ctx context.Context, proposalID, userID string) (models.Vote, error) {
	var row models.Vote
	err := s.db.GetContext(ctx, &row, `
		SELECT id, proposal_id, user_id, vote_type, token_weight, created_at
		FROM votes
		WHERE proposal_id = $1 AND user_id = $2
	`, proposalID, userID)
	if err != nil {
		return models.Vote{}, err
	}
	return row, nil
}

func (s *VoteStore) ListByProposal(ctx context.Context, proposalID string, limit, offset int) ([]models.Vote, error) {
	var rows []models.Vote
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, proposal_id, user_id, vote_type, token_weight, created_at
		FROM votes
		WHERE proposal_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, proposalID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
