package services

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/db"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/token"

	"github.com/jmoiron/sqlx"
)

// Ledger is the balance-mutation surface the other services are allowed to
// use. Nothing outside LedgerService writes account balances.
type Ledger interface {
	CreditTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error)
	DebitTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error)
	CreditPurchaseTx(ctx context.Context, tx store.Tx, purchaseID, userID, storeID string, amount int64) (bool, int64, error)
	GetBalance(ctx context.Context, userID, storeID string) (int64, error)
	GetBalanceTx(ctx context.Context, tx store.Getter, userID, storeID string) (int64, error)
	BroadcastBalance(userID, storeID string, balance int64)
}

type PurchaseStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PurchaseInput) error
	GetByID(ctx context.Context, purchaseID string) (models.Purchase, error)
	GetByIDTx(ctx context.Context, tx store.Getter, purchaseID string) (models.Purchase, error)
	MarkCompleted(ctx context.Context, tx store.Execer, purchaseID string) (int64, error)
	MarkFailed(ctx context.Context, tx store.Execer, purchaseID string) (int64, error)
}

type StoreStore interface {
	GetByID(ctx context.Context, storeID string) (models.Store, error)
	GetByIDTx(ctx context.Context, tx store.Getter, storeID string) (models.Store, error)
}

// RewardService turns a purchase's completed transition into exactly one
// token credit. Completion events arrive at least once; the distribution
// row's unique purchase_id is the sole dedup authority.
type RewardService struct {
	txRunner  db.TxRunner
	purchases PurchaseStore
	stores    StoreStore
	ledger    Ledger
}

func NewRewardService(txRunner db.TxRunner, purchases PurchaseStore, stores StoreStore, ledger Ledger) *RewardService {
	return &RewardService{
		txRunner:  txRunner,
		purchases: purchases,
		stores:    stores,
		ledger:    ledger,
	}
}

type RewardResult struct {
	Credited   bool
	Amount     int64
	NewBalance int64
}

// CompletePurchase marks a pending purchase completed and issues its reward
// in one transaction. Redelivered for an already-completed purchase it
// degrades to issuance alone, which the distribution constraint makes a
// no-op. A failed purchase cannot be completed.
func (s *RewardService) CompletePurchase(ctx context.Context, purchaseID string) (RewardResult, error) {
	var result RewardResult
	var userID, storeID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := s.purchases.GetByIDTx(ctx, tx, purchaseID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if purchase.Status == "failed" {
			return ErrInvalidRewardInput
		}
		if purchase.Status == "pending" {
			if _, err := s.purchases.MarkCompleted(ctx, tx, purchaseID); err != nil {
				return err
			}
		}
		userID, storeID = purchase.UserID, purchase.StoreID
		result, err = s.issueTx(ctx, tx, purchase)
		return err
	})
	if err != nil {
		return RewardResult{}, err
	}
	if result.Credited {
		s.ledger.BroadcastBalance(userID, storeID, result.NewBalance)
	}
	return result, nil
}

// IssueReward issues the reward for a purchase that is already completed,
// the path taken when completion is observed by polling rather than the
// completion endpoint.
func (s *RewardService) IssueReward(ctx context.Context, purchaseID string) (RewardResult, error) {
	var result RewardResult
	var userID, storeID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := s.purchases.GetByIDTx(ctx, tx, purchaseID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if purchase.Status != "completed" {
			return ErrInvalidRewardInput
		}
		userID, storeID = purchase.UserID, purchase.StoreID
		result, err = s.issueTx(ctx, tx, purchase)
		return err
	})
	if err != nil {
		return RewardResult{}, err
	}
	if result.Credited {
		s.ledger.BroadcastBalance(userID, storeID, result.NewBalance)
	}
	return result, nil
}

// FailPurchase records a payment failure. Only a pending purchase can fail;
// a completed purchase is already rewarded and cannot be unwound. Repeating
// the failure is a no-op.
func (s *RewardService) FailPurchase(ctx context.Context, purchaseID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := s.purchases.GetByIDTx(ctx, tx, purchaseID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		switch purchase.Status {
		case "failed":
			return nil
		case "completed":
			return ErrInvalidRewardInput
		}
		_, err = s.purchases.MarkFailed(ctx, tx, purchaseID)
		return err
	})
}

func (s *RewardService) issueTx(ctx context.Context, tx *sqlx.Tx, purchase models.Purchase) (RewardResult, error) {
	if purchase.TotalPrice <= 0 {
		return RewardResult{}, ErrInvalidRewardInput
	}
	st, err := s.stores.GetByIDTx(ctx, tx, purchase.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return RewardResult{}, ErrNotFound
	}
	if err != nil {
		return RewardResult{}, err
	}
	rate, err := token.ParseRate(st.RewardRate)
	if err != nil {
		return RewardResult{}, ErrInvalidRewardInput
	}
	reward := token.Reward(purchase.TotalPrice, rate)
	if reward == 0 {
		// Price times rate floors to nothing; completed but nothing to credit.
		return RewardResult{}, nil
	}
	credited, newBalance, err := s.ledger.CreditPurchaseTx(ctx, tx, purchase.ID, purchase.UserID, purchase.StoreID, reward)
	if err != nil {
		return RewardResult{}, err
	}
	return RewardResult{Credited: credited, Amount: reward, NewBalance: newBalance}, nil
}
