package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Store struct {
	ID                string    `db:"id" json:"id"`
	OwnerID           string    `db:"owner_id" json:"owner_id"`
	Name              string    `db:"name" json:"name"`
	Description       string    `db:"description" json:"description"`
	TokenName         string    `db:"token_name" json:"token_name"`
	TokenSymbol       string    `db:"token_symbol" json:"token_symbol"`
	RewardRate        string    `db:"reward_rate" json:"reward_rate"`
	MembershipFee     int64     `db:"membership_fee" json:"membership_fee"`
	PremiumFee        int64     `db:"premium_fee" json:"premium_fee"`
	HasPremium        bool      `db:"has_premium" json:"has_premium"`
	MinProposalTokens int64     `db:"min_proposal_tokens" json:"min_proposal_tokens"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type Account struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	StoreID   string    `db:"store_id" json:"store_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Purchase struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	StoreID    string    `db:"store_id" json:"store_id"`
	TotalPrice int64     `db:"total_price" json:"total_price"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type TokenDistribution struct {
	ID         string    `db:"id" json:"id"`
	PurchaseID *string   `db:"purchase_id" json:"purchase_id,omitempty"`
	UserID     string    `db:"user_id" json:"user_id"`
	StoreID    string    `db:"store_id" json:"store_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Membership struct {
	ID       string    `db:"id" json:"id"`
	UserID   string    `db:"user_id" json:"user_id"`
	StoreID  string    `db:"store_id" json:"store_id"`
	Tier     string    `db:"tier" json:"tier"`
	IsActive bool      `db:"is_active" json:"is_active"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

type Proposal struct {
	ID              string    `db:"id" json:"id"`
	StoreID         string    `db:"store_id" json:"store_id"`
	CreatorID       string    `db:"creator_id" json:"creator_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	ProposalType    string    `db:"proposal_type" json:"proposal_type"`
	Status          string    `db:"status" json:"status"`
	VotesFor        int64     `db:"votes_for" json:"votes_for"`
	VotesAgainst    int64     `db:"votes_against" json:"votes_against"`
	MinTokensToVote int64     `db:"min_tokens_to_vote" json:"min_tokens_to_vote"`
	ExpiresAt       time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type Vote struct {
	ID          string    `db:"id" json:"id"`
	ProposalID  string    `db:"proposal_id" json:"proposal_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	VoteType    string    `db:"vote_type" json:"vote_type"`
	TokenWeight int64     `db:"token_weight" json:"token_weight"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
