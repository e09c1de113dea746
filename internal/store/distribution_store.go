package store

import (
	"context"

	"storefront/internal/models"
)

type DistributionStore struct {
	db DB
}

type DistributionInput struct {
	ID         string
	PurchaseID *string
	UserID     string
	StoreID    string
	Amount     int64
	Reason     string
}

func NewDistributionStore(db DB) *DistributionStore {
	return &DistributionStore{db: db}
}

// Insert appends an audit row for a balance mutation. It must run in the same
// transaction as the balance change.
func (s *DistributionStore) Insert(ctx context.Context, tx Execer, input DistributionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO token_distributions (id, purchase_id, user_id, store_id, amount, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.ID, input.PurchaseID, input.UserID, input.StoreID, input.Amount, input.Reason)
	return err
}

// InsertForPurchase inserts a distribution keyed by purchase_id, relying on
// the unique constraint to make reward issuance exactly-once. The returned
// count is 0 when a distribution for the purchase already exists.
func (s *DistributionStore) InsertForPurchase(ctx context.Context, tx Execer, input DistributionInput) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO token_distributions (id, purchase_id, user_id, store_id, amount, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (purchase_id) DO NOTHING
	`, input.ID, input.PurchaseID, input.UserID, input.StoreID, input.Amount, input.Reason)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DistributionStore) ListByAccount(ctx context.Context, userID, storeID string, limit, offset int) ([]models.TokenDistribution, error) {
	var rows []models.TokenDistribution
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, purchase_id, user_id, store_id, amount, reason, created_at
		FROM token_distributions
		WHERE user_id = $1 AND store_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, storeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DistributionStore) SumByAccount(ctx context.Context, userID, storeID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM token_distributions
		WHERE user_id = $1 AND store_id = $2
	`, userID, storeID)
	return sum, err
}
