package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handlers"
	"storefront/internal/services"
	"storefront/internal/store"
	"storefront/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	stores := store.NewStoreStore(database)
	accounts := store.NewAccountStore(database)
	distributions := store.NewDistributionStore(database)
	purchases := store.NewPurchaseStore(database)
	memberships := store.NewMembershipStore(database)
	proposals := store.NewProposalStore(database)
	votes := store.NewVoteStore(database)
	outbox := store.NewOutboxStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledger := services.NewLedgerService(txRunner, accounts, distributions, outbox, hub)
	rewards := services.NewRewardService(txRunner, purchases, stores, ledger)
	membership := services.NewMembershipService(txRunner, memberships, stores, ledger)
	governance := services.NewGovernanceService(txRunner, proposals, votes, stores, memberships, ledger, hub)
	dispatcher := services.NewOutboxDispatcher(outbox, services.NoopChainClient{}, cfg.OutboxBatchSize)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go dispatcher.Run(rootCtx, cfg.OutboxInterval)
	go sweepLoop(rootCtx, governance, cfg.SweepInterval)

	handler := handlers.New(cfg, txRunner, users, stores, accounts, purchases, memberships, distributions, ledger, rewards, membership, governance, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func sweepLoop(ctx context.Context, governance *services.GovernanceService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			settled, err := governance.Sweep(ctx)
			if err != nil {
				log.Printf("proposal sweep failed: %v", err)
				continue
			}
			if settled > 0 {
				log.Printf("settled %d expired proposals", settled)
			}
		}
	}
}
