package services

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	applyCreditFn  func(ctx context.Context, tx store.Tx, id, userID, storeID string, amount int64) (int64, error)
	applyDebitFn   func(ctx context.Context, tx store.Tx, userID, storeID string, amount int64) (int64, error)
	getBalanceFn   func(ctx context.Context, userID, storeID string) (int64, error)
	getBalanceTxFn func(ctx context.Context, tx store.Getter, userID, storeID string) (int64, error)
}

func (s stubAccountStore) ApplyCredit(ctx context.Context, tx store.Tx, id, userID, storeID string, amount int64) (int64, error) {
	if s.applyCreditFn == nil {
		return amount, nil
	}
	return s.applyCreditFn(ctx, tx, id, userID, storeID, amount)
}

func (s stubAccountStore) ApplyDebit(ctx context.Context, tx store.Tx, userID, storeID string, amount int64) (int64, error) {
	if s.applyDebitFn == nil {
		return 0, nil
	}
	return s.applyDebitFn(ctx, tx, userID, storeID, amount)
}

func (s stubAccountStore) GetBalance(ctx context.Context, userID, storeID string) (int64, error) {
	if s.getBalanceFn == nil {
		return 0, nil
	}
	return s.getBalanceFn(ctx, userID, storeID)
}

func (s stubAccountStore) GetBalanceTx(ctx context.Context, tx store.Getter, userID, storeID string) (int64, error) {
	if s.getBalanceTxFn == nil {
		return 0, nil
	}
	return s.getBalanceTxFn(ctx, tx, userID, storeID)
}

type stubDistributionStore struct {
	insertFn            func(ctx context.Context, tx store.Execer, input store.DistributionInput) error
	insertForPurchaseFn func(ctx context.Context, tx store.Execer, input store.DistributionInput) (int64, error)
}

func (s *stubDistributionStore) Insert(ctx context.Context, tx store.Execer, input store.DistributionInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s *stubDistributionStore) InsertForPurchase(ctx context.Context, tx store.Execer, input store.DistributionInput) (int64, error) {
	if s.insertForPurchaseFn == nil {
		return 1, nil
	}
	return s.insertForPurchaseFn(ctx, tx, input)
}

type stubOutboxStore struct {
	entries []int64
	err     error
}

func (s *stubOutboxStore) Enqueue(_ context.Context, _ store.Execer, _, _, _, _ string, amount int64) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, amount)
	return nil
}

type stubHub struct {
	balances  []websocket.BalanceUpdate
	proposals []websocket.ProposalUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.balances = append(s.balances, update)
}

func (s *stubHub) BroadcastProposal(update websocket.ProposalUpdate) {
	s.proposals = append(s.proposals, update)
}

type stubPurchaseStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.PurchaseInput) error
	getByIDFn       func(ctx context.Context, purchaseID string) (models.Purchase, error)
	getByIDTxFn     func(ctx context.Context, tx store.Getter, purchaseID string) (models.Purchase, error)
	markCompletedFn func(ctx context.Context, tx store.Execer, purchaseID string) (int64, error)
	markFailedFn    func(ctx context.Context, tx store.Execer, purchaseID string) (int64, error)
}

func (s *stubPurchaseStore) Create(ctx context.Context, tx store.Execer, input store.PurchaseInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s *stubPurchaseStore) GetByID(ctx context.Context, purchaseID string) (models.Purchase, error) {
	return s.getByIDFn(ctx, purchaseID)
}

func (s *stubPurchaseStore) GetByIDTx(ctx context.Context, tx store.Getter, purchaseID string) (models.Purchase, error) {
	return s.getByIDTxFn(ctx, tx, purchaseID)
}

func (s *stubPurchaseStore) MarkCompleted(ctx context.Context, tx store.Execer, purchaseID string) (int64, error) {
	if s.markCompletedFn == nil {
		return 1, nil
	}
	return s.markCompletedFn(ctx, tx, purchaseID)
}

func (s *stubPurchaseStore) MarkFailed(ctx context.Context, tx store.Execer, purchaseID string) (int64, error) {
	if s.markFailedFn == nil {
		return 1, nil
	}
	return s.markFailedFn(ctx, tx, purchaseID)
}

type stubStoreStore struct {
	getByIDFn func(ctx context.Context, storeID string) (models.Store, error)
}

func (s stubStoreStore) GetByID(ctx context.Context, storeID string) (models.Store, error) {
	return s.getByIDFn(ctx, storeID)
}

func (s stubStoreStore) GetByIDTx(ctx context.Context, _ store.Getter, storeID string) (models.Store, error) {
	return s.getByIDFn(ctx, storeID)
}

type stubMembershipStore struct {
	createFn  func(ctx context.Context, tx store.Execer, id, userID, storeID, tier string) error
	getFn     func(ctx context.Context, userID, storeID string) (models.Membership, error)
	upgradeFn func(ctx context.Context, tx store.Execer, userID, storeID string) (int64, error)
}

func (s *stubMembershipStore) Create(ctx context.Context, tx store.Execer, id, userID, storeID, tier string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, storeID, tier)
}

func (s *stubMembershipStore) Get(ctx context.Context, userID, storeID string) (models.Membership, error) {
	return s.getFn(ctx, userID, storeID)
}

func (s *stubMembershipStore) GetTx(ctx context.Context, _ store.Getter, userID, storeID string) (models.Membership, error) {
	return s.getFn(ctx, userID, storeID)
}

func (s *stubMembershipStore) Upgrade(ctx context.Context, tx store.Execer, userID, storeID string) (int64, error) {
	if s.upgradeFn == nil {
		return 1, nil
	}
	return s.upgradeFn(ctx, tx, userID, storeID)
}

type stubProposalStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.ProposalInput) error
	getByIDFn        func(ctx context.Context, proposalID string) (models.Proposal, error)
	getForUpdateFn   func(ctx context.Context, tx store.Getter, proposalID string) (models.Proposal, error)
	incrementFn      func(ctx context.Context, tx store.Execer, proposalID, voteType string, weight int64) (int64, error)
	sweepExpiredFn   func(ctx context.Context, tx store.Execer) (int64, error)
	sweepOneFn       func(ctx context.Context, tx store.Execer, proposalID string) (int64, error)
	participationFn  func(ctx context.Context, proposalID string) (store.ParticipationRow, error)
	listByStoreFn    func(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error)
	listActiveFn     func(ctx context.Context, storeID string) ([]models.Proposal, error)
}

func (s *stubProposalStore) Create(ctx context.Context, tx store.Execer, input store.ProposalInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s *stubProposalStore) GetByID(ctx context.Context, proposalID string) (models.Proposal, error) {
	return s.getByIDFn(ctx, proposalID)
}

func (s *stubProposalStore) GetForUpdate(ctx context.Context, tx store.Getter, proposalID string) (models.Proposal, error) {
	return s.getForUpdateFn(ctx, tx, proposalID)
}

func (s *stubProposalStore) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error) {
	return s.listByStoreFn(ctx, storeID, limit, offset)
}

func (s *stubProposalStore) ListActiveByStore(ctx context.Context, storeID string) ([]models.Proposal, error) {
	return s.listActiveFn(ctx, storeID)
}

func (s *stubProposalStore) IncrementTally(ctx context.Context, tx store.Execer, proposalID, voteType string, weight int64) (int64, error) {
	if s.incrementFn == nil {
		return 1, nil
	}
	return s.incrementFn(ctx, tx, proposalID, voteType, weight)
}

func (s *stubProposalStore) SweepExpired(ctx context.Context, tx store.Execer) (int64, error) {
	if s.sweepExpiredFn == nil {
		return 0, nil
	}
	return s.sweepExpiredFn(ctx, tx)
}

func (s *stubProposalStore) SweepOne(ctx context.Context, tx store.Execer, proposalID string) (int64, error) {
	if s.sweepOneFn == nil {
		return 1, nil
	}
	return s.sweepOneFn(ctx, tx, proposalID)
}

func (s *stubProposalStore) Participation(ctx context.Context, proposalID string) (store.ParticipationRow, error) {
	if s.participationFn == nil {
		return store.ParticipationRow{}, nil
	}
	return s.participationFn(ctx, proposalID)
}

type stubVoteStore struct {
	insertFn         func(ctx context.Context, tx store.Execer, input store.VoteInput) (int64, error)
	getFn            func(ctx context.Context, proposalID, userID string) (models.Vote, error)
	listByProposalFn func(ctx context.Context, proposalID string, limit, offset int) ([]models.Vote, error)
}

func (s *stubVoteStore) Insert(ctx context.Context, tx store.Execer, input store.VoteInput) (int64, error) {
	if s.insertFn == nil {
		return 1, nil
	}
	return s.insertFn(ctx, tx, input)
}

func (s *stubVoteStore) Get(ctx context.Context, proposalID, userID string) (models.Vote, error) {
	if s.getFn == nil {
		return models.Vote{ProposalID: proposalID, UserID: userID}, nil
	}
	return s.getFn(ctx, proposalID, userID)
}

func (s *stubVoteStore) ListByProposal(ctx context.Context, proposalID string, limit, offset int) ([]models.Vote, error) {
	if s.listByProposalFn == nil {
		return nil, nil
	}
	return s.listByProposalFn(ctx, proposalID, limit, offset)
}

type stubLedger struct {
	creditTxFn         func(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error)
	debitTxFn          func(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error)
	creditPurchaseTxFn func(ctx context.Context, tx store.Tx, purchaseID, userID, storeID string, amount int64) (bool, int64, error)
	getBalanceFn       func(ctx context.Context, userID, storeID string) (int64, error)
	broadcasts         []int64
}

func (s *stubLedger) CreditTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error) {
	if s.creditTxFn == nil {
		return amount, nil
	}
	return s.creditTxFn(ctx, tx, userID, storeID, amount, reason)
}

func (s *stubLedger) DebitTx(ctx context.Context, tx store.Tx, userID, storeID string, amount int64, reason string) (int64, error) {
	if s.debitTxFn == nil {
		return 0, nil
	}
	return s.debitTxFn(ctx, tx, userID, storeID, amount, reason)
}

func (s *stubLedger) CreditPurchaseTx(ctx context.Context, tx store.Tx, purchaseID, userID, storeID string, amount int64) (bool, int64, error) {
	if s.creditPurchaseTxFn == nil {
		return true, amount, nil
	}
	return s.creditPurchaseTxFn(ctx, tx, purchaseID, userID, storeID, amount)
}

func (s *stubLedger) GetBalance(ctx context.Context, userID, storeID string) (int64, error) {
	if s.getBalanceFn == nil {
		return 0, nil
	}
	return s.getBalanceFn(ctx, userID, storeID)
}

func (s *stubLedger) GetBalanceTx(ctx context.Context, _ store.Getter, userID, storeID string) (int64, error) {
	if s.getBalanceFn == nil {
		return 0, nil
	}
	return s.getBalanceFn(ctx, userID, storeID)
}

func (s *stubLedger) BroadcastBalance(_, _ string, balance int64) {
	s.broadcasts = append(s.broadcasts, balance)
}
