package handlers

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type StoreStore interface {
	Create(ctx context.Context, tx store.Execer, input store.StoreInput) error
	GetByID(ctx context.Context, storeID string) (models.Store, error)
	OwnerID(ctx context.Context, storeID string) (string, error)
	List(ctx context.Context, limit, offset int) ([]models.Store, error)
	UpdateEconomics(ctx context.Context, tx store.Execer, storeID string, input store.EconomicsInput) (int64, error)
}

type AccountStore interface {
	CountHolders(ctx context.Context, storeID string) (int64, error)
	ListHolders(ctx context.Context, storeID string, limit int) ([]store.HolderRow, error)
	Reconcile(ctx context.Context, userID string) ([]store.AccountReconciliation, error)
}

type PurchaseStore interface {
	Create(ctx context.Context, tx store.Execer, input store.PurchaseInput) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.PurchaseWithTokens, error)
}

type MembershipStore interface {
	ListActiveByStore(ctx context.Context, storeID string, limit, offset int) ([]store.MemberRow, error)
	CountActiveByStore(ctx context.Context, storeID string) (int64, error)
}

type DistributionStore interface {
	ListByAccount(ctx context.Context, userID, storeID string, limit, offset int) ([]models.TokenDistribution, error)
	SumByAccount(ctx context.Context, userID, storeID string) (int64, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, userID, storeID string) (int64, error)
}

type RewardService interface {
	CompletePurchase(ctx context.Context, purchaseID string) (services.RewardResult, error)
	IssueReward(ctx context.Context, purchaseID string) (services.RewardResult, error)
	FailPurchase(ctx context.Context, purchaseID string) error
}

type MembershipService interface {
	JoinBasic(ctx context.Context, userID, storeID string) (models.Membership, error)
	UpgradeToPremium(ctx context.Context, userID, storeID string) (models.Membership, error)
	GetMembership(ctx context.Context, userID, storeID string) (services.MembershipView, error)
}

type GovernanceService interface {
	CreateProposal(ctx context.Context, req services.CreateProposalRequest) (models.Proposal, error)
	CastVote(ctx context.Context, userID, proposalID, voteType string) (models.Vote, error)
	GetVote(ctx context.Context, proposalID, userID string) (models.Vote, error)
	ListProposals(ctx context.Context, storeID string, limit, offset int) ([]models.Proposal, error)
	ListActiveProposals(ctx context.Context, storeID string) ([]models.Proposal, error)
	GetProposal(ctx context.Context, proposalID string) (services.ProposalDetail, error)
}
