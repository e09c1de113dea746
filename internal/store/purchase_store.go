package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

type PurchaseStore struct {
	db DB
}

type PurchaseInput struct {
	ID         string
	UserID     string
	StoreID    string
	TotalPrice int64
	Status     string
}

type PurchaseWithTokens struct {
	ID           string    `db:"id"`
	StoreID      string    `db:"store_id"`
	TotalPrice   int64     `db:"total_price"`
	Status       string    `db:"status"`
	TokensEarned int64     `db:"tokens_earned"`
	CreatedAt    time.Time `db:"created_at"`
}

func NewPurchaseStore(db DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func (s *PurchaseStore) Create(ctx context.Context, tx Execer, input PurchaseInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, store_id, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
	`, input.ID, input.UserID, input.StoreID, input.TotalPrice, input.Status)
	return err
}

func (s *PurchaseStore) GetByID(ctx context.Context, purchaseID string) (models.Purchase, error) {
	var row models.Purchase
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, store_id, total_price, status, created_at
		FROM purchases
		WHERE id = $1
	`, purchaseID)
	if err != nil {
		return models.Purchase{}, err
	}
	return row, nil
}

func (s *PurchaseStore) GetByIDTx(ctx context.Context, tx Getter, purchaseID string) (models.Purchase, error) {
	var row models.Purchase
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, store_id, total_price, status, created_at
		FROM purchases
		WHERE id = $1
	`, purchaseID)
	if err != nil {
		return models.Purchase{}, err
	}
	return row, nil
}

// MarkCompleted transitions a pending purchase to completed. The status guard
// makes the transition fire at most once; redelivered completion events see a
// zero row count.
func (s *PurchaseStore) MarkCompleted(ctx context.Context, tx Execer, purchaseID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = 'completed'
		WHERE id = $1 AND status = 'pending'
	`, purchaseID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PurchaseStore) MarkFailed(ctx context.Context, tx Execer, purchaseID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
	`, purchaseID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser joins each purchase with its distribution row so history shows
// the tokens the purchase actually earned, not a recomputed figure.
func (s *PurchaseStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]PurchaseWithTokens, error) {
	var rows []PurchaseWithTokens
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.id, p.store_id, p.total_price, p.status,
		       COALESCE(d.amount, 0) AS tokens_earned,
		       p.created_at
		FROM purchases p
		LEFT JOIN token_distributions d ON d.purchase_id = p.id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
