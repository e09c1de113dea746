package store

import (
	"context"

	"storefront/internal/models"
)

type StoreStore struct {
	db DB
}

type StoreInput struct {
	ID                string
	OwnerID           string
	Name              string
	Description       string
	TokenName         string
	TokenSymbol       string
	RewardRate        string
	MembershipFee     int64
	PremiumFee        int64
	HasPremium        bool
	MinProposalTokens int64
}

type EconomicsInput struct {
	RewardRate        string
	MembershipFee     int64
	PremiumFee        int64
	MinProposalTokens int64
}

func NewStoreStore(db DB) *StoreStore {
	return &StoreStore{db: db}
}

func (s *StoreStore) Create(ctx context.Context, tx Execer, input StoreInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stores (id, owner_id, name, description, token_name, token_symbol,
		                    reward_rate, membership_fee, premium_fee, has_premium, min_proposal_tokens)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, input.ID, input.OwnerID, input.Name, input.Description, input.TokenName, input.TokenSymbol,
		input.RewardRate, input.MembershipFee, input.PremiumFee, input.HasPremium, input.MinProposalTokens)
	return err
}

func (s *StoreStore) GetByID(ctx context.Context, storeID string) (models.Store, error) {
	var row models.Store
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, name, description, token_name, token_symbol,
		       reward_rate, membership_fee, premium_fee, has_premium, min_proposal_tokens, created_at
		FROM stores
		WHERE id = $1
	`, storeID)
	if err != nil {
		return models.Store{}, err
	}
	return row, nil
}

func (s *StoreStore) GetByIDTx(ctx context.Context, tx Getter, storeID string) (models.Store, error) {
	var row models.Store
	err := tx.GetContext(ctx, &row, `
		SELECT id, owner_id, name, description, token_name, token_symbol,
		       reward_rate, membership_fee, premium_fee, has_premium, min_proposal_tokens, created_at
		FROM stores
		WHERE id = $1
	`, storeID)
	if err != nil {
		return models.Store{}, err
	}
	return row, nil
}

func (s *StoreStore) OwnerID(ctx context.Context, storeID string) (string, error) {
	var ownerID string
	err := s.db.GetContext(ctx, &ownerID, `
		SELECT owner_id FROM stores WHERE id = $1
	`, storeID)
	return ownerID, err
}

func (s *StoreStore) List(ctx context.Context, limit, offset int) ([]models.Store, error) {
	var rows []models.Store
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, owner_id, name, description, token_name, token_symbol,
		       reward_rate, membership_fee, premium_fee, has_premium, min_proposal_tokens, created_at
		FROM stores
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateEconomics changes the token economics of a store. Callers must gate
// this on store ownership and record the change in the audit trail.
func (s *StoreStore) UpdateEconomics(ctx context.Context, tx Execer, storeID string, input EconomicsInput) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE stores
		SET reward_rate = $1, membership_fee = $2, premium_fee = $3,
		    min_proposal_tokens = $4, updated_at = NOW()
		WHERE id = $5
	`, input.RewardRate, input.MembershipFee, input.PremiumFee, input.MinProposalTokens, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
