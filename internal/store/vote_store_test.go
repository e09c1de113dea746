package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestVoteStoreInsertFirstVote(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (proposal_id, user_id) DO NOTHING") {
				t.Fatalf("vote insert must dedupe per voter: %s", query)
			}
			if args[4] != int64(40) {
				t.Fatalf("unexpected weight arg: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewVoteStore(stubDB{})
	rows, err := store.Insert(ctx, execer, VoteInput{
		ID: "vote-1", ProposalID: "prop-1", UserID: "user-1", VoteType: "for", TokenWeight: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row, got %d", rows)
	}
}

func TestVoteStoreInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewVoteStore(stubDB{})
	rows, err := store.Insert(ctx, execer, VoteInput{
		ID: "vote-2", ProposalID: "prop-1", UserID: "user-1", VoteType: "against", TokenWeight: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Fatalf("duplicate vote must affect no rows, got %d", rows)
	}
}
