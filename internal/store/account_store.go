package store

import (
	"context"
	"database/sql"
	"errors"
)

// ErrBalanceTooLow is returned by ApplyDebit when the guarded update matched
// no row, either because the account does not exist or its balance is below
// the requested amount. The service layer maps it to the user-facing
// insufficient-balance error with the concrete shortfall.
var ErrBalanceTooLow = errors.New("balance below requested amount")

type AccountStore struct {
	db DB
}

type AccountReconciliation struct {
	UserID          string `db:"user_id"`
	StoreID         string `db:"store_id"`
	Balance         int64  `db:"balance"`
	DistributionSum int64  `db:"distribution_sum"`
	Difference      int64  `db:"difference"`
}

type HolderRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	Balance  int64  `db:"balance"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

// ApplyCredit adds amount to the (user, store) account, creating the account
// row lazily on first credit. The add is a single upsert; concurrent credits
// serialize on the row, never on an application-level read-modify-write.
func (s *AccountStore) ApplyCredit(ctx context.Context, tx Tx, id, userID, storeID string, amount int64) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
		INSERT INTO accounts (id, user_id, store_id, balance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, store_id)
		DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`, id, userID, storeID, amount)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplyDebit subtracts amount, guarded by the current balance in the same
// statement. A zero-row result means the balance was insufficient.
func (s *AccountStore) ApplyDebit(ctx context.Context, tx Tx, userID, storeID string, amount int64) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND store_id = $3 AND balance >= $1
		RETURNING balance
	`, amount, userID, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBalanceTooLow
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetBalance reports 0 for a (user, store) pair that has never been credited;
// no account row is required to exist.
func (s *AccountStore) GetBalance(ctx context.Context, userID, storeID string) (int64, error) {
	var balance int64
	err := s.db.GetContext(ctx, &balance, `
		SELECT COALESCE(
			(SELECT balance FROM accounts WHERE user_id = $1 AND store_id = $2),
			0
		)
	`, userID, storeID)
	return balance, err
}

func (s *AccountStore) GetBalanceTx(ctx context.Context, tx Getter, userID, storeID string) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
		SELECT COALESCE(
			(SELECT balance FROM accounts WHERE user_id = $1 AND store_id = $2),
			0
		)
	`, userID, storeID)
	return balance, err
}

func (s *AccountStore) CountHolders(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM accounts
		WHERE store_id = $1 AND balance > 0
	`, storeID)
	return count, err
}

func (s *AccountStore) ListHolders(ctx context.Context, storeID string, limit int) ([]HolderRow, error) {
	var rows []HolderRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.user_id, u.username, a.balance
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.store_id = $1 AND a.balance > 0
		ORDER BY a.balance DESC
		LIMIT $2
	`, storeID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Reconcile compares each account's stored balance against the sum of its
// distribution rows. A nonzero difference means a balance changed without an
// audit row, which the ledger never allows.
func (s *AccountStore) Reconcile(ctx context.Context, userID string) ([]AccountReconciliation, error) {
	var rows []AccountReconciliation
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.user_id,
		       a.store_id,
		       a.balance,
		       COALESCE(SUM(d.amount), 0) AS distribution_sum,
		       (a.balance - COALESCE(SUM(d.amount), 0)) AS difference
		FROM accounts a
		LEFT JOIN token_distributions d
		  ON d.user_id = a.user_id AND d.store_id = a.store_id
		WHERE a.user_id = $1
		GROUP BY a.user_id, a.store_id, a.balance
		ORDER BY a.store_id
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
