package services

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/db"
	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MembershipStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID, storeID, tier string) error
	Get(ctx context.Context, userID, storeID string) (models.Membership, error)
	GetTx(ctx context.Context, tx store.Getter, userID, storeID string) (models.Membership, error)
	Upgrade(ctx context.Context, tx store.Execer, userID, storeID string) (int64, error)
}

// MembershipService runs the NONE -> BASIC -> PREMIUM state machine. Each
// transition couples the fee debit and the membership write in one
// transaction: a failed debit leaves no membership, a failed write refunds
// nothing because nothing was taken.
type MembershipService struct {
	txRunner    db.TxRunner
	memberships MembershipStore
	stores      StoreStore
	ledger      Ledger
}

func NewMembershipService(txRunner db.TxRunner, memberships MembershipStore, stores StoreStore, ledger Ledger) *MembershipService {
	return &MembershipService{
		txRunner:    txRunner,
		memberships: memberships,
		stores:      stores,
		ledger:      ledger,
	}
}

// MembershipView is a read model: the stored row plus capability flags
// recomputed from the live balance on every read, never persisted.
type MembershipView struct {
	Membership        *models.Membership `json:"membership"`
	Balance           int64              `json:"balance"`
	CanVote           bool               `json:"can_vote"`
	CanCreateProposal bool               `json:"can_create_proposal"`
}

func (s *MembershipService) JoinBasic(ctx context.Context, userID, storeID string) (models.Membership, error) {
	var balanceAfter int64
	var debited bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		st, err := s.stores.GetByIDTx(ctx, tx, storeID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = s.memberships.GetTx(ctx, tx, userID, storeID)
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if st.MembershipFee > 0 {
			balanceAfter, err = s.ledger.DebitTx(ctx, tx, userID, storeID, st.MembershipFee, ReasonMembershipFee)
			if err != nil {
				return err
			}
			debited = true
		}
		if err := s.memberships.Create(ctx, tx, uuid.NewString(), userID, storeID, "basic"); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Membership{}, err
	}
	if debited {
		s.ledger.BroadcastBalance(userID, storeID, balanceAfter)
	}
	return s.memberships.Get(ctx, userID, storeID)
}

func (s *MembershipService) UpgradeToPremium(ctx context.Context, userID, storeID string) (models.Membership, error) {
	var balanceAfter int64
	var debited bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		st, err := s.stores.GetByIDTx(ctx, tx, storeID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !st.HasPremium {
			return ErrPremiumUnavailable
		}
		membership, err := s.memberships.GetTx(ctx, tx, userID, storeID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}
		if !membership.IsActive {
			return ErrMembershipInactive
		}
		if membership.Tier == "premium" {
			return ErrAlreadyPremium
		}
		if st.PremiumFee > 0 {
			balanceAfter, err = s.ledger.DebitTx(ctx, tx, userID, storeID, st.PremiumFee, ReasonPremiumFee)
			if err != nil {
				return err
			}
			debited = true
		}
		upgraded, err := s.memberships.Upgrade(ctx, tx, userID, storeID)
		if err != nil {
			return err
		}
		if upgraded == 0 {
			return ErrAlreadyPremium
		}
		return nil
	})
	if err != nil {
		return models.Membership{}, err
	}
	if debited {
		s.ledger.BroadcastBalance(userID, storeID, balanceAfter)
	}
	return s.memberships.Get(ctx, userID, storeID)
}

// GetMembership returns the membership (nil when the user never joined) with
// capability flags derived from the current balance and the store thresholds.
func (s *MembershipService) GetMembership(ctx context.Context, userID, storeID string) (MembershipView, error) {
	st, err := s.stores.GetByID(ctx, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return MembershipView{}, ErrNotFound
	}
	if err != nil {
		return MembershipView{}, err
	}
	balance, err := s.ledger.GetBalance(ctx, userID, storeID)
	if err != nil {
		return MembershipView{}, err
	}
	view := MembershipView{Balance: balance}
	membership, err := s.memberships.Get(ctx, userID, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return view, nil
	}
	if err != nil {
		return MembershipView{}, err
	}
	view.Membership = &membership
	active := membership.IsActive
	view.CanVote = active && balance > 0
	view.CanCreateProposal = active && balance >= st.MinProposalTokens
	return view, nil
}
