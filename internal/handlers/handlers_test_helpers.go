package handlers

import (
	"context"
	"time"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/store"
	"storefront/internal/websocket"

	"github.com/jmoiron/sqlx"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
}

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubStoreStore struct {
	createFn          func(ctx context.Context, tx store.Execer, input store.StoreInput) error
	getByIDFn         func(ctx context.Context, storeID string) (models.Store, error)
	ownerIDFn         func(ctx context.Context, storeID string) (string, error)
	listFn            func(ctx context.Context, limit, offset int) ([]models.Store, error)
	updateEconomicsFn func(ctx context.Context, tx store.Execer, storeID string, input store.EconomicsInput) (int64, error)
}

func (s stubStoreStore) Create(ctx context.Context, tx store.Execer, input store.StoreInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubStoreStore) GetByID(ctx context.Context, storeID string) (models.Store, error) {
	if s.getByIDFn == nil {
		return models.Store{ID: storeID}, nil
	}
	return s.getByIDFn(ctx, storeID)
}

func (s stubStoreStore) OwnerID(ctx context.Context, storeID string) (string, error) {
	if s.ownerIDFn == nil {
		return "owner-1", nil
	}
	return s.ownerIDFn(ctx, storeID)
}

func (s stubStoreStore) List(ctx context.Context, limit, offset int) ([]models.Store, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

func (s stubStoreStore) UpdateEconomics(ctx context.Context, tx store.Execer, storeID string, input store.EconomicsInput) (int64, error) {
	if s.updateEconomicsFn == nil {
		return 1, nil
	}
	return s.updateEconomicsFn(ctx, tx, storeID, input)
}

type stubAccountStore struct {
	countHoldersFn func(ctx context.Context, storeID string) (int64, error)
	listHoldersFn  func(ctx context.Context, storeID string, limit int) ([]store.HolderRow, error)
	reconcileFn    func(ctx context.Context, userID string) ([]store.AccountReconciliation, error)
}

func (s stubAccountStore) CountHolders(ctx context.Context, storeID string) (int64, error) {
	if s.countHoldersFn == nil {
		return 0, nil
	}
	return s.countHoldersFn(ctx, storeID)
}

func (s stubAccountStore) ListHolders(ctx context.Context, storeID string, limit int) ([]store.HolderRow, error) {
	if s.listHoldersFn == nil {
		return nil, nil
	}
	return s.listHoldersFn(ctx, storeID, limit)
}

func (s stubAccountStore) Reconcile(ctx context.Context, userID string) ([]store.AccountReconciliation, error) {
	if s.reconcileFn == nil {
		return nil, nil
	}
	return s.reconcileFn(ctx, userID)
}

type stubPurchaseStore struct {
	createFn     func(ctx context.Context, tx store.Execer, input store.PurchaseInput) error
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]store.PurchaseWithTokens, error)
}

func (s stubPurchaseStore) Create(ctx context.Context, tx store.Execer, input store.PurchaseInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubPurchaseStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.PurchaseWithTokens, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubMembershipStore struct {
	listActiveFn  func(ctx context.Context, storeID string, limit, offset int) ([]store.MemberRow, error)
	countActiveFn func(ctx context.Context, storeID string) (int64, error)
}

func (s stubMembershipStore) ListActiveByStore(ctx context.Context, storeID string, limit, offset int) ([]store.MemberRow, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx, storeID, limit, offset)
}

func (s stubMembershipStore) CountActiveByStore(ctx context.Context, storeID string) (int64, error) {
	if s.countActiveFn == nil {
		return 0, nil
	}
	return s.countActiveFn(ctx, storeID)
}

type stubDistributionStore struct {
	listByAccountFn func(ctx context.Context, userID, storeID string, limit, offset int) ([]models.TokenDistribution, error)
	sumByAccountFn  func(ctx context.Context, userID, storeID string) (int64, error)
}

func (s stubDistributionStore) ListByAccount(ctx context.Context, userID, storeID string, limit, offset int) ([]models.TokenDistribution, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, userID, storeID, limit, offset)
}

func (s stubDistributionStore) SumByAccount(ctx context.Context, userID, storeID string) (int64, error) {
	if s.sumByAccountFn == nil {
		return 0, nil
	}
	return s.sumByAccountFn(ctx, userID, storeID)
}

type stubLedgerService struct {
	getBalanceFn func(ctx context.Context, userID, storeID string) (int64, error)
}

func (s stubLedgerService) GetBalance(ctx context.Context, userID, storeID string) (int64, error) {
	if s.getBalanceFn == nil {
		return 0, nil
	}
	return s.getBalanceFn(ctx, userID, storeID)
}

type stubRewardService struct {
	completeFn func(ctx context.Context, purchaseID string) (services.RewardResult, error)
	issueFn    func(ctx context.Context, purchaseID string) (services.RewardResult, error)
	failFn     func(ctx context.Context, purchaseID string) error
}

func (s stubRewardService) CompletePurchase(ctx context.Context, purchaseID string) (services.RewardResult, error) {
	return s.completeFn(ctx, purchaseID)
}

func (s stubRewardService) IssueReward(ctx context.Context, purchaseID string) (services.RewardResult, error) {
	if s.issueFn == nil {
		return services.RewardResult{}, nil
	}
	return s.issueFn(ctx, purchaseID)
}

func (s stubRewardService) FailPurchase(ctx context.Context, purchaseID string) error {
	if s.failFn == nil {
		return nil
	}
	return s.failFn(ctx, purchaseID)
}

type stubMembershipService struct {
	joinFn    func(ctx context.Context, userID, storeID string) (models.Membership, error)
	upgradeFn func(ctx context.Context, userID, storeID string) (models.Membership, error)
	getFn     func(ctx context.Context, userID, storeID string) (services.MembershipView, error)
}

func (s stubMembershipService) JoinBasic(ctx context.Context, userID, storeID string) (models.Membership, error) {
	return s.joinFn(ctx, userID, storeID)
}

func (s stubMembershipService) UpgradeToPremium(ctx context.Context, userID, storeID string) (models.Membership, error) {
	return s.upgradeFn(ctx, userID, storeID)
}

func (s stubMembershipService) GetMembership(ctx context.Context, userID, storeID string) (services.MembershipView, error) {
	if s.getFn == nil {
		return services.MembershipView{}, nil
	}
	return s.getFn(ctx, userID, storeID)
}

type stubGovernanceService struct {
	createFn     func(ctx context.Context, req services.CreateProposalRequest) (models.Proposal, error)
	castVoteFn   func(ctx context.Context, userID, proposalID, voteType string) (models.Vote, error)
	getVoteFn    func(ctx context.Context, proposalID, userID string) (models.Vote, error)
	listFn       func(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error)
	listActiveFn func(ctx context.Context, storeID string) ([]models.Proposal, error)
	getFn        func(ctx context.Context, proposalID string) (services.ProposalDetail, error)
}

func (s stubGovernanceService) CreateProposal(ctx context.Context, req services.CreateProposalRequest) (models.Proposal, error) {
	return s.createFn(ctx, req)
}

func (s stubGovernanceService) CastVote(ctx context.Context, userID, proposalID, voteType string) (models.Vote, error) {
	return s.castVoteFn(ctx, userID, proposalID, voteType)
}

func (s stubGovernanceService) GetVote(ctx context.Context, proposalID, userID string) (models.Vote, error) {
	return s.getVoteFn(ctx, proposalID, userID)
}

func (s stubGovernanceService) ListProposals(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, storeID, limit, offset)
}

func (s stubGovernanceService) ListActiveProposals(ctx context.Context, storeID string) ([]models.Proposal, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx, storeID)
}

func (s stubGovernanceService) GetProposal(ctx context.Context, proposalID string) (services.ProposalDetail, error) {
	return s.getFn(ctx, proposalID)
}

type testDeps struct {
	txRunner      fakeTxRunner
	users         stubUserStore
	stores        stubStoreStore
	accounts      stubAccountStore
	purchases     stubPurchaseStore
	memberships   stubMembershipStore
	distributions stubDistributionStore
	ledger        stubLedgerService
	rewards       stubRewardService
	membership    stubMembershipService
	governance    stubGovernanceService
}

func newTestHandler(deps testDeps) *Handler {
	return New(testConfig(), deps.txRunner, deps.users, deps.stores, deps.accounts,
		deps.purchases, deps.memberships, deps.distributions, deps.ledger,
		deps.rewards, deps.membership, deps.governance, websocket.NewHub())
}
