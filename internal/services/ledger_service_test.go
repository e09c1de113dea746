package services

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/store"
)

func TestCreditInvalidAmount(t *testing.T) {
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{}, &stubDistributionStore{}, &stubOutboxStore{}, &stubHub{})
	for _, amount := range []int64{0, -100} {
		if _, err := service.Credit(context.Background(), "user-1", "store-1", amount, ReasonPurchaseReward); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Credit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestCreditWritesAuditAndOutbox(t *testing.T) {
	var recorded []store.DistributionInput
	distributions := &stubDistributionStore{
		insertFn: func(_ context.Context, _ store.Execer, input store.DistributionInput) error {
			recorded = append(recorded, input)
			return nil
		},
	}
	outbox := &stubOutboxStore{}
	hub := &stubHub{}
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		applyCreditFn: func(_ context.Context, _ store.Tx, _, _, _ string, amount int64) (int64, error) {
			return 2500 + amount, nil
		},
	}, distributions, outbox, hub)

	balance, err := service.Credit(context.Background(), "user-1", "store-1", 1000, ReasonPurchaseReward)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 3500 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if len(recorded) != 1 || recorded[0].Amount != 1000 || recorded[0].Reason != ReasonPurchaseReward {
		t.Fatalf("unexpected distributions: %#v", recorded)
	}
	if len(outbox.entries) != 1 || outbox.entries[0] != 1000 {
		t.Fatalf("unexpected outbox entries: %#v", outbox.entries)
	}
	if len(hub.balances) != 1 || hub.balances[0].Balance != "35.00" {
		t.Fatalf("unexpected broadcasts: %#v", hub.balances)
	}
}

func TestDebitRecordsNegativeDistribution(t *testing.T) {
	var recorded []store.DistributionInput
	distributions := &stubDistributionStore{
		insertFn: func(_ context.Context, _ store.Execer, input store.DistributionInput) error {
			recorded = append(recorded, input)
			return nil
		},
	}
	outbox := &stubOutboxStore{}
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		applyDebitFn: func(_ context.Context, _ store.Tx, _, _ string, amount int64) (int64, error) {
			return 9500, nil
		},
	}, distributions, outbox, &stubHub{})

	balance, err := service.Debit(context.Background(), "user-1", "store-1", 500, ReasonMembershipFee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 9500 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if len(recorded) != 1 || recorded[0].Amount != -500 {
		t.Fatalf("debit audit rows must carry the negative delta: %#v", recorded)
	}
	if len(outbox.entries) != 1 || outbox.entries[0] != -500 {
		t.Fatalf("unexpected outbox entries: %#v", outbox.entries)
	}
}

func TestDebitInsufficientBalanceShortfall(t *testing.T) {
	distributions := &stubDistributionStore{
		insertFn: func(_ context.Context, _ store.Execer, _ store.DistributionInput) error {
			t.Fatalf("a failed debit must not write an audit row")
			return nil
		},
	}
	hub := &stubHub{}
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		applyDebitFn: func(_ context.Context, _ store.Tx, _, _ string, _ int64) (int64, error) {
			return 0, store.ErrBalanceTooLow
		},
		getBalanceTxFn: func(_ context.Context, _ store.Getter, _, _ string) (int64, error) {
			return 940, nil
		},
	}, distributions, &stubOutboxStore{}, hub)

	_, err := service.Debit(context.Background(), "user-1", "store-1", 1000, ReasonMembershipFee)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	var sfe *ShortfallError
	if !errors.As(err, &sfe) {
		t.Fatalf("expected ShortfallError, got %T", err)
	}
	if sfe.Current != 940 || sfe.Required != 1000 {
		t.Fatalf("unexpected shortfall: %+v", sfe)
	}
	if len(hub.balances) != 0 {
		t.Fatalf("a failed debit must not broadcast: %#v", hub.balances)
	}
}

func TestGetBalanceTxReadsThroughAccounts(t *testing.T) {
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		getBalanceTxFn: func(_ context.Context, _ store.Getter, userID, storeID string) (int64, error) {
			if userID != "user-1" || storeID != "store-1" {
				t.Fatalf("unexpected account: %s/%s", userID, storeID)
			}
			return 4200, nil
		},
	}, &stubDistributionStore{}, &stubOutboxStore{}, &stubHub{})

	balance, err := service.GetBalanceTx(context.Background(), nil, "user-1", "store-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 4200 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestCreditPurchaseTxRedeliveryIsNoop(t *testing.T) {
	outbox := &stubOutboxStore{}
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		applyCreditFn: func(_ context.Context, _ store.Tx, _, _, _ string, _ int64) (int64, error) {
			t.Fatalf("a deduped reward must not touch the balance")
			return 0, nil
		},
	}, &stubDistributionStore{
		insertForPurchaseFn: func(_ context.Context, _ store.Execer, _ store.DistributionInput) (int64, error) {
			return 0, nil
		},
	}, outbox, &stubHub{})

	credited, balance, err := service.CreditPurchaseTx(context.Background(), nil, "purchase-1", "user-1", "store-1", 1000)
	if err != nil {
		t.Fatalf("redelivery must succeed as a no-op: %v", err)
	}
	if credited || balance != 0 {
		t.Fatalf("unexpected result: credited=%v balance=%d", credited, balance)
	}
	if len(outbox.entries) != 0 {
		t.Fatalf("a deduped reward must not enqueue: %#v", outbox.entries)
	}
}

func TestCreditPurchaseTxFirstDelivery(t *testing.T) {
	outbox := &stubOutboxStore{}
	var input store.DistributionInput
	service := NewLedgerService(fakeTxRunner{}, stubAccountStore{
		applyCreditFn: func(_ context.Context, _ store.Tx, _, _, _ string, amount int64) (int64, error) {
			return amount, nil
		},
	}, &stubDistributionStore{
		insertForPurchaseFn: func(_ context.Context, _ store.Execer, in store.DistributionInput) (int64, error) {
			input = in
			return 1, nil
		},
	}, outbox, &stubHub{})

	credited, balance, err := service.CreditPurchaseTx(context.Background(), nil, "purchase-1", "user-1", "store-1", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !credited || balance != 1000 {
		t.Fatalf("unexpected result: credited=%v balance=%d", credited, balance)
	}
	if input.PurchaseID == nil || *input.PurchaseID != "purchase-1" {
		t.Fatalf("the distribution must be keyed by the purchase: %#v", input)
	}
	if input.Reason != ReasonPurchaseReward {
		t.Fatalf("unexpected reason: %q", input.Reason)
	}
	if len(outbox.entries) != 1 {
		t.Fatalf("unexpected outbox entries: %#v", outbox.entries)
	}
}
