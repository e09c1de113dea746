package services

import (
	"context"
	"log"
	"time"

	"storefront/internal/store"
)

type OutboxReader interface {
	ListPending(ctx context.Context, limit int) ([]store.OutboxEntry, error)
	MarkDispatched(ctx context.Context, entryID string) (int64, error)
	RecordAttempt(ctx context.Context, entryID string) error
}

// ChainClient mirrors a ledger mutation onto the store's token contract.
// Mirroring is best effort and strictly after the off-chain ledger commit;
// the ledger stays the system of record either way.
type ChainClient interface {
	MirrorDistribution(ctx context.Context, storeID, userID string, amount int64) error
}

// OutboxDispatcher drains chain_outbox rows written alongside ledger
// mutations. Entries that fail dispatch keep their attempt count and stay
// pending for the next pass.
type OutboxDispatcher struct {
	outbox OutboxReader
	chain  ChainClient
	batch  int
}

func NewOutboxDispatcher(outbox OutboxReader, chain ChainClient, batch int) *OutboxDispatcher {
	if batch <= 0 {
		batch = 50
	}
	return &OutboxDispatcher{outbox: outbox, chain: chain, batch: batch}
}

// DispatchPending processes one batch and reports how many entries were
// mirrored. Concurrent dispatchers are safe: MarkDispatched claims each entry
// with a guarded update and the loser skips it.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) (int, error) {
	entries, err := d.outbox.ListPending(ctx, d.batch)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, entry := range entries {
		if err := d.chain.MirrorDistribution(ctx, entry.StoreID, entry.UserID, entry.Amount); err != nil {
			if recordErr := d.outbox.RecordAttempt(ctx, entry.ID); recordErr != nil {
				return dispatched, recordErr
			}
			continue
		}
		claimed, err := d.outbox.MarkDispatched(ctx, entry.ID)
		if err != nil {
			return dispatched, err
		}
		if claimed > 0 {
			dispatched++
		}
	}
	return dispatched, nil
}

// Run dispatches on the given interval until the context is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchPending(ctx); err != nil {
				log.Printf("outbox dispatch: %v", err)
			}
		}
	}
}

// NoopChainClient is used when no token contract is configured; entries are
// acknowledged without leaving the process.
type NoopChainClient struct{}

func (NoopChainClient) MirrorDistribution(ctx context.Context, storeID, userID string, amount int64) error {
	return nil
}
