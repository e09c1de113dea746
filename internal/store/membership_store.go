package store

import (
	"context"
	"time"

	"storefront/internal/models"
)

type MembershipStore struct {
	db DB
}

type MemberRow struct {
	UserID   string    `db:"user_id"`
	Username string    `db:"username"`
	Tier     string    `db:"tier"`
	Balance  int64     `db:"balance"`
	JoinedAt time.Time `db:"joined_at"`
}

func NewMembershipStore(db DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// Create inserts the membership row. The unique (user_id, store_id)
// constraint rejects a second join; callers map that to an already-member
// error via the unique-violation check.
func (s *MembershipStore) Create(ctx context.Context, tx Execer, id, userID, storeID, tier string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, store_id, tier, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, id, userID, storeID, tier)
	return err
}

func (s *MembershipStore) Get(ctx context.Context, userID, storeID string) (models.Membership, error) {
	var row models.Membership
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, store_id, tier, is_active, joined_at
		FROM memberships
		WHERE user_id = $1 AND store_id = $2
	`, userID, storeID)
	if err != nil {
		return models.Membership{}, err
	}
	return row, nil
}

func (s *MembershipStore) GetTx(ctx context.Context, tx Getter, userID, storeID string) (models.Membership, error) {
	var row models.Membership
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, store_id, tier, is_active, joined_at
		FROM memberships
		WHERE user_id = $1 AND store_id = $2
	`, userID, storeID)
	if err != nil {
		return models.Membership{}, err
	}
	return row, nil
}

// Upgrade moves an active basic membership to premium. The tier guard keeps
// the transition one-way and makes a repeated upgrade a zero-row result.
func (s *MembershipStore) Upgrade(ctx context.Context, tx Execer, userID, storeID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE memberships
		SET tier = 'premium'
		WHERE user_id = $1 AND store_id = $2 AND tier = 'basic' AND is_active
	`, userID, storeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *MembershipStore) ListActiveByStore(ctx context.Context, storeID string, limit, offset int) ([]MemberRow, error) {
	var rows []MemberRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT m.user_id, u.username, m.tier,
		       COALESCE(a.balance, 0) AS balance,
		       m.joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN accounts a ON a.user_id = m.user_id AND a.store_id = m.store_id
		WHERE m.store_id = $1 AND m.is_active
		ORDER BY m.joined_at DESC
		LIMIT $2 OFFSET $3
	`, storeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MembershipStore) CountActiveByStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM memberships
		WHERE store_id = $1 AND is_active
	`, storeID)
	return count, err
}
