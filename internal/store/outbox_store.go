package store

import "context"

type OutboxStore struct {
	db DB
}

type OutboxEntry struct {
	ID             string `db:"id"`
	DistributionID string `db:"distribution_id"`
	StoreID        string `db:"store_id"`
	UserID         string `db:"user_id"`
	Amount         int64  `db:"amount"`
	Attempts       int    `db:"attempts"`
}

func NewOutboxStore(db DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Enqueue records the intent to mirror a ledger credit on chain. It runs in
// the same transaction as the credit so the intent can never be lost or
// duplicated relative to the ledger.
func (s *OutboxStore) Enqueue(ctx context.Context, tx Execer, id, distributionID, storeID, userID string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO chain_outbox (id, distribution_id, store_id, user_id, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, id, distributionID, storeID, userID, amount)
	return err
}

func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	var rows []OutboxEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, distribution_id, store_id, user_id, amount, attempts
		FROM chain_outbox
		WHERE dispatched_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkDispatched claims an entry. The NULL guard makes concurrent dispatchers
// settle on exactly one winner per entry.
func (s *OutboxStore) MarkDispatched(ctx context.Context, entryID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chain_outbox
		SET dispatched_at = NOW(), attempts = attempts + 1
		WHERE id = $1 AND dispatched_at IS NULL
	`, entryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *OutboxStore) RecordAttempt(ctx context.Context, entryID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chain_outbox
		SET attempts = attempts + 1
		WHERE id = $1 AND dispatched_at IS NULL
	`, entryID)
	return err
}
