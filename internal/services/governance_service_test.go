package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
)

func governanceFixture(t *testing.T, proposals *stubProposalStore, votes *stubVoteStore, balance int64) (*GovernanceService, *stubHub) {
	t.Helper()
	hub := &stubHub{}
	memberships := &stubMembershipStore{
		getFn: func(_ context.Context, _, _ string) (models.Membership, error) {
			return models.Membership{Tier: "basic", IsActive: true}, nil
		},
	}
	stores := stubStoreStore{
		getByIDFn: func(_ context.Context, storeID string) (models.Store, error) {
			return models.Store{ID: storeID, MinProposalTokens: 100000}, nil
		},
	}
	ledger := &stubLedger{
		getBalanceFn: func(_ context.Context, _, _ string) (int64, error) {
			return balance, nil
		},
	}
	return NewGovernanceService(fakeTxRunner{}, proposals, votes, stores, memberships, ledger, hub), hub
}

func activeProposal(expiresAt time.Time) models.Proposal {
	return models.Proposal{
		ID:              "prop-1",
		StoreID:         "store-1",
		Status:          "active",
		MinTokensToVote: 100,
		ExpiresAt:       expiresAt,
	}
}

func TestCreateProposalThresholdNotMet(t *testing.T) {
	proposals := &stubProposalStore{
		createFn: func(_ context.Context, _ store.Execer, _ store.ProposalInput) error {
			t.Fatalf("a below-threshold creator must not create a proposal")
			return nil
		},
	}
	// 999.00 against a 1000.00 threshold.
	service, _ := governanceFixture(t, proposals, &stubVoteStore{}, 99900)

	_, err := service.CreateProposal(context.Background(), CreateProposalRequest{
		StoreID: "store-1", CreatorID: "user-1", Title: "Restock the roastery", ProposalType: "product",
	})
	if !errors.Is(err, ErrThresholdNotMet) {
		t.Fatalf("expected ErrThresholdNotMet, got %v", err)
	}
	var sfe *ShortfallError
	if !errors.As(err, &sfe) {
		t.Fatalf("expected ShortfallError, got %T", err)
	}
	if sfe.Current != 99900 || sfe.Required != 100000 {
		t.Fatalf("unexpected shortfall: %+v", sfe)
	}
}

func TestCreateProposalAtThreshold(t *testing.T) {
	var created store.ProposalInput
	proposals := &stubProposalStore{
		createFn: func(_ context.Context, _ store.Execer, input store.ProposalInput) error {
			created = input
			return nil
		},
		getByIDFn: func(_ context.Context, proposalID string) (models.Proposal, error) {
			return models.Proposal{ID: proposalID, Status: "active"}, nil
		},
	}
	service, _ := governanceFixture(t, proposals, &stubVoteStore{}, 100000)

	before := time.Now().UTC()
	if _, err := service.CreateProposal(context.Background(), CreateProposalRequest{
		StoreID: "store-1", CreatorID: "user-1", Title: "Restock the roastery", ProposalType: "product",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.MinTokensToVote != 1 {
		t.Fatalf("vote threshold must default to 1, got %d", created.MinTokensToVote)
	}
	expected := before.AddDate(0, 0, 7)
	if created.ExpiresAt.Before(expected.Add(-time.Minute)) || created.ExpiresAt.After(expected.Add(time.Minute)) {
		t.Fatalf("voting period must default to 7 days, got %v", created.ExpiresAt)
	}
}

func TestCreateProposalValidation(t *testing.T) {
	service, _ := governanceFixture(t, &stubProposalStore{}, &stubVoteStore{}, 100000)
	cases := []CreateProposalRequest{
		{StoreID: "store-1", CreatorID: "user-1", Title: "", ProposalType: "product"},
		{StoreID: "store-1", CreatorID: "user-1", Title: "t", ProposalType: "marketing"},
		{StoreID: "store-1", CreatorID: "user-1", Title: "t", ProposalType: "product", VotingPeriodDays: 5},
	}
	for _, req := range cases {
		if _, err := service.CreateProposal(context.Background(), req); !errors.Is(err, ErrInvalidProposal) {
			t.Fatalf("expected ErrInvalidProposal for %+v, got %v", req, err)
		}
	}
}

func TestCastVoteSnapshotsWeight(t *testing.T) {
	var inserted store.VoteInput
	var tallied int64
	proposals := &stubProposalStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, _ string) (models.Proposal, error) {
			return activeProposal(time.Now().Add(24 * time.Hour)), nil
		},
		incrementFn: func(_ context.Context, _ store.Execer, _, voteType string, weight int64) (int64, error) {
			if voteType != "for" {
				t.Fatalf("unexpected vote type: %s", voteType)
			}
			tallied = weight
			return 1, nil
		},
		getByIDFn: func(_ context.Context, proposalID string) (models.Proposal, error) {
			return models.Proposal{ID: proposalID, Status: "active", VotesFor: 4000}, nil
		},
	}
	votes := &stubVoteStore{
		insertFn: func(_ context.Context, _ store.Execer, input store.VoteInput) (int64, error) {
			inserted = input
			return 1, nil
		},
		getFn: func(_ context.Context, proposalID, userID string) (models.Vote, error) {
			return models.Vote{ProposalID: proposalID, UserID: userID, VoteType: inserted.VoteType, TokenWeight: inserted.TokenWeight}, nil
		},
	}
	service, hub := governanceFixture(t, proposals, votes, 4000)

	vote, err := service.CastVote(context.Background(), "user-1", "prop-1", "for")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The weight is the balance at cast time and both writes carry it.
	if inserted.TokenWeight != 4000 || tallied != 4000 || vote.TokenWeight != 4000 {
		t.Fatalf("weight mismatch: inserted=%d tallied=%d vote=%d", inserted.TokenWeight, tallied, vote.TokenWeight)
	}
	if len(hub.proposals) != 1 {
		t.Fatalf("expected a proposal broadcast: %#v", hub.proposals)
	}
}

func TestCastVoteDuplicate(t *testing.T) {
	proposals := &stubProposalStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, _ string) (models.Proposal, error) {
			return activeProposal(time.Now().Add(24 * time.Hour)), nil
		},
		incrementFn: func(_ context.Context, _ store.Execer, _, _ string, _ int64) (int64, error) {
			t.Fatalf("a duplicate vote must not touch the tallies")
			return 0, nil
		},
	}
	votes := &stubVoteStore{
		insertFn: func(_ context.Context, _ store.Execer, _ store.VoteInput) (int64, error) {
			return 0, nil
		},
	}
	service, _ := governanceFixture(t, proposals, votes, 4000)
	if _, err := service.CastVote(context.Background(), "user-1", "prop-1", "against"); !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
}

func TestCastVoteBelowVoteThreshold(t *testing.T) {
	proposals := &stubProposalStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, _ string) (models.Proposal, error) {
			return activeProposal(time.Now().Add(24 * time.Hour)), nil
		},
	}
	votes := &stubVoteStore{
		insertFn: func(_ context.Context, _ store.Execer, _ store.VoteInput) (int64, error) {
			t.Fatalf("an ineligible voter must not insert a vote")
			return 0, nil
		},
	}
	service, _ := governanceFixture(t, proposals, votes, 99)
	_, err := service.CastVote(context.Background(), "user-1", "prop-1", "for")
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	var sfe *ShortfallError
	if !errors.As(err, &sfe) || sfe.Current != 99 || sfe.Required != 100 {
		t.Fatalf("unexpected shortfall: %v", err)
	}
}

func TestCastVoteSettledProposal(t *testing.T) {
	proposals := &stubProposalStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, _ string) (models.Proposal, error) {
			p := activeProposal(time.Now().Add(24 * time.Hour))
			p.Status = "passed"
			return p, nil
		},
	}
	service, _ := governanceFixture(t, proposals, &stubVoteStore{}, 4000)
	if _, err := service.CastVote(context.Background(), "user-1", "prop-1", "for"); !errors.Is(err, ErrProposalNotActive) {
		t.Fatalf("expected ErrProposalNotActive, got %v", err)
	}
}

func TestCastVoteExpiredSweepsInline(t *testing.T) {
	swept := 0
	proposals := &stubProposalStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, _ string) (models.Proposal, error) {
			return activeProposal(time.Now().Add(-time.Minute)), nil
		},
		sweepOneFn: func(_ context.Context, _ store.Execer, _ string) (int64, error) {
			swept++
			return 1, nil
		},
	}
	votes := &stubVoteStore{
		insertFn: func(_ context.Context, _ store.Execer, _ store.VoteInput) (int64, error) {
			t.Fatalf("an expired proposal must not take votes")
			return 0, nil
		},
	}
	service, _ := governanceFixture(t, proposals, votes, 4000)
	if _, err := service.CastVote(context.Background(), "user-1", "prop-1", "for"); !errors.Is(err, ErrProposalNotActive) {
		t.Fatalf("expected ErrProposalNotActive, got %v", err)
	}
	if swept != 1 {
		t.Fatalf("the stale proposal must be settled on the vote path, swept=%d", swept)
	}
}

func TestCastVoteInvalidType(t *testing.T) {
	service, _ := governanceFixture(t, &stubProposalStore{}, &stubVoteStore{}, 4000)
	if _, err := service.CastVote(context.Background(), "user-1", "prop-1", "abstain"); !errors.Is(err, ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal, got %v", err)
	}
}

func TestGetVoteNotFound(t *testing.T) {
	votes := &stubVoteStore{
		getFn: func(_ context.Context, _, _ string) (models.Vote, error) {
			return models.Vote{}, sql.ErrNoRows
		},
	}
	service, _ := governanceFixture(t, &stubProposalStore{}, votes, 0)
	if _, err := service.GetVote(context.Background(), "prop-1", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProposalIncludesRecentVotes(t *testing.T) {
	proposals := &stubProposalStore{
		getByIDFn: func(_ context.Context, proposalID string) (models.Proposal, error) {
			return activeProposal(time.Now().Add(time.Hour)), nil
		},
		participationFn: func(_ context.Context, _ string) (store.ParticipationRow, error) {
			return store.ParticipationRow{VoterCount: 2, TotalWeight: 7000}, nil
		},
	}
	votes := &stubVoteStore{
		listByProposalFn: func(_ context.Context, proposalID string, limit, _ int) ([]models.Vote, error) {
			if proposalID != "prop-1" {
				t.Fatalf("unexpected proposal: %s", proposalID)
			}
			if limit != recentVoteLimit {
				t.Fatalf("unexpected limit: %d", limit)
			}
			return []models.Vote{
				{ProposalID: proposalID, UserID: "user-1", VoteType: "for", TokenWeight: 4000},
				{ProposalID: proposalID, UserID: "user-2", VoteType: "against", TokenWeight: 3000},
			}, nil
		},
	}
	service, _ := governanceFixture(t, proposals, votes, 0)

	detail, err := service.GetProposal(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.VoterCount != 2 || detail.Participation != "70.00" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if len(detail.RecentVotes) != 2 || detail.RecentVotes[0].TokenWeight != 4000 {
		t.Fatalf("unexpected votes: %#v", detail.RecentVotes)
	}
}

func TestSweepReportsSettledCount(t *testing.T) {
	proposals := &stubProposalStore{
		sweepExpiredFn: func(_ context.Context, _ store.Execer) (int64, error) {
			return 3, nil
		},
	}
	service, _ := governanceFixture(t, proposals, &stubVoteStore{}, 0)
	swept, err := service.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 3 {
		t.Fatalf("unexpected count: %d", swept)
	}
}
