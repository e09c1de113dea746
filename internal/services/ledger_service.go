package services

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/store"
	"storefront/internal/token"
	"storefront/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Reasons recorded on distribution rows.
const (
	ReasonPurchaseReward = "purchase_reward"
	ReasonMembershipFee  = "membership_fee"
	ReasonPremiumFee     = "premium_fee"
)

type AccountStore interface {
	ApplyCredit(ctx context.Context, tx store.Tx, id, userID, storeID string, amount int64) (int64, error)
	ApplyDebit(ctx context.Context, tx store.Tx, userID, storeID string, amount int64) (int64, error)
	GetBalance(ctx context.Context, userID, storeID string) (int64, error)
	GetBalanceTx(ctx context.Context, tx store.Getter, userID, storeID string) (int64, error)
}

type DistributionStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.DistributionInput) error
	InsertForPurchase(ctx context.Context, tx store.Execer, input store.DistributionInput) (int64, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, tx store.Execer, id, distributionID, storeID, userID string, amount int64) error
}

type UpdateHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
	BroadcastProposal(update websocket.ProposalUpdate)
}

// LedgerService is the only writer of account balances. Every mutation is a
// single guarded statement paired with a distribution audit row and an
// on-chain outbox entry in one transaction.
type LedgerService struct {
	txRunner      db.TxRunner
	accounts      AccountStore
	distributions DistributionStore
	outbox        OutboxStore
	hub           UpdateHub
}

var _ Ledger = (*LedgerService)(nil)

func NewLedgerService(txRunner db.TxRunner, accounts AccountStore, distributions DistributionStore, outbox OutboxStore, hub UpdateHub) *LedgerService {
	return &LedgerService{
		txRunner:      txRunner,
		accounts:      accounts,
		distributions: distributions,
		outbox:        outbox,
		hub:           hub,
	}
}

func (s *LedgerService) Credit(ctx context.Context, userID, storeID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		newBalance, err = s.CreditTx(ctx, tx, userID, storeID, amount, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		StoreID: storeID,
		Balance: token.FormatMinor(newBalance),
	})
	return newBalance, nil
}

// CreditTx applies a credit inside a caller-owned transaction. The caller
// broadcasts the balance after its commit.
func (s *LedgerService) CreditTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.accounts.ApplyCredit(ctx, tx, uuid.NewString(), userID, storeID, amount)
	if err != nil {
		return 0, err
	}
	distributionID := uuid.NewString()
	if err := s.distributions.Insert(ctx, tx, store.DistributionInput{
		ID:      distributionID,
		UserID:  userID,
		StoreID: storeID,
		Amount:  amount,
		Reason:  reason,
	}); err != nil {
		return 0, err
	}
	if err := s.outbox.Enqueue(ctx, tx, uuid.NewString(), distributionID, storeID, userID, amount); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *LedgerService) Debit(ctx context.Context, userID, storeID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		newBalance, err = s.DebitTx(ctx, tx, userID, storeID, amount, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		StoreID: storeID,
		Balance: token.FormatMinor(newBalance),
	})
	return newBalance, nil
}

// DebitTx subtracts inside a caller-owned transaction. The check and the
// subtract are one guarded statement; an insufficient balance surfaces as a
// ShortfallError with the current balance read under the same transaction.
func (s *LedgerService) DebitTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.accounts.ApplyDebit(ctx, tx, userID, storeID, amount)
	if err == store.ErrBalanceTooLow {
		current, readErr := s.accounts.GetBalanceTx(ctx, tx, userID, storeID)
		if readErr != nil {
			return 0, readErr
		}
		return 0, shortfall(ErrInsufficientBalance, current, amount)
	}
	if err != nil {
		return 0, err
	}
	distributionID := uuid.NewString()
	if err := s.distributions.Insert(ctx, tx, store.DistributionInput{
		ID:      distributionID,
		UserID:  userID,
		StoreID: storeID,
		Amount:  -amount,
		Reason:  reason,
	}); err != nil {
		return 0, err
	}
	if err := s.outbox.Enqueue(ctx, tx, uuid.NewString(), distributionID, storeID, userID, -amount); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreditPurchaseTx credits a purchase reward exactly once. The distribution
// insert keyed by purchase_id decides: if the row already exists the whole
// call is a no-op success and credited is false.
func (s *LedgerService) CreditPurchaseTx(ctx context.Context, tx store.Tx, purchaseID, userID, storeID string, amount int64) (bool, int64, error) {
	if amount <= 0 {
		return false, 0, ErrInvalidAmount
	}
	distributionID := uuid.NewString()
	inserted, err := s.distributions.InsertForPurchase(ctx, tx, store.DistributionInput{
		ID:         distributionID,
		PurchaseID: &purchaseID,
		UserID:     userID,
		StoreID:    storeID,
		Amount:     amount,
		Reason:     ReasonPurchaseReward,
	})
	if err != nil {
		return false, 0, err
	}
	if inserted == 0 {
		return false, 0, nil
	}
	newBalance, err := s.accounts.ApplyCredit(ctx, tx, uuid.NewString(), userID, storeID, amount)
	if err != nil {
		return false, 0, err
	}
	if err := s.outbox.Enqueue(ctx, tx, uuid.NewString(), distributionID, storeID, userID, amount); err != nil {
		return false, 0, err
	}
	return true, newBalance, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID, storeID string) (int64, error) {
	return s.accounts.GetBalance(ctx, userID, storeID)
}

// GetBalanceTx reads the balance under the caller's transaction, the read the
// governance checks use so eligibility and weight see the same snapshot.
func (s *LedgerService) GetBalanceTx(ctx context.Context, tx store.Getter, userID, storeID string) (int64, error) {
	return s.accounts.GetBalanceTx(ctx, tx, userID, storeID)
}

func (s *LedgerService) BroadcastBalance(userID, storeID string, balance int64) {
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		StoreID: storeID,
		Balance: token.FormatMinor(balance),
	})
}
