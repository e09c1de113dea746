package handlers

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/middleware"
	"storefront/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg           config.Config
	txRunner      db.TxRunner
	users         UserStore
	stores        StoreStore
	accounts      AccountStore
	purchases     PurchaseStore
	memberships   MembershipStore
	distributions DistributionStore
	ledger        LedgerService
	rewards       RewardService
	membership    MembershipService
	governance    GovernanceService
	hub           *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, stores StoreStore, accounts AccountStore, purchases PurchaseStore, memberships MembershipStore, distributions DistributionStore, ledger LedgerService, rewards RewardService, membership MembershipService, governance GovernanceService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:           cfg,
		txRunner:      txRunner,
		users:         users,
		stores:        stores,
		accounts:      accounts,
		purchases:     purchases,
		memberships:   memberships,
		distributions: distributions,
		ledger:        ledger,
		rewards:       rewards,
		membership:    membership,
		governance:    governance,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authOnly := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authOnly).Get("/me", h.Me)
	})

	router.Route("/stores", func(r chi.Router) {
		r.Get("/", h.ListStores)
		r.With(authOnly).Post("/", h.CreateStore)
		r.Get("/{id}", h.GetStore)
		r.With(authOnly, middleware.RequireStoreOwner(h.stores)).
			Put("/{id}/economics", h.UpdateStoreEconomics)
		r.With(authOnly).Get("/{id}/balance", h.GetStoreBalance)
		r.Get("/{id}/members", h.ListStoreMembers)
		r.With(authOnly).Post("/{id}/membership", h.JoinStore)
		r.With(authOnly).Post("/{id}/membership/premium", h.UpgradeMembership)
		r.With(authOnly).Get("/{id}/membership", h.GetMembership)
		r.With(authOnly).Post("/{id}/purchases", h.CreatePurchase)
		r.Get("/{id}/proposals", h.ListProposals)
		r.With(authOnly).Post("/{id}/proposals", h.CreateProposal)
	})

	router.Post("/purchases/{id}/complete", h.CompletePurchase)
	router.Post("/purchases/{id}/fail", h.FailPurchase)
	router.Post("/purchases/{id}/reward", h.IssueReward)
	router.With(authOnly).Get("/purchases", h.ListPurchases)

	router.Get("/proposals/{id}", h.GetProposal)
	router.With(authOnly).Post("/proposals/{id}/votes", h.CastVote)
	router.With(authOnly).Get("/proposals/{id}/votes/mine", h.GetOwnVote)

	router.With(authOnly).Get("/ledger/self-check", h.SelfCheck)
	router.With(authOnly).Get("/ledger/distributions", h.ListDistributions)
	router.Get("/ws/updates", h.WSUpdates)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
