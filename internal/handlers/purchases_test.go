package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/store"

	"github.com/go-chi/chi/v5"
)

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreatePurchaseStartsPending(t *testing.T) {
	var created store.PurchaseInput
	handler := newTestHandler(testDeps{
		purchases: stubPurchaseStore{
			createFn: func(_ context.Context, _ store.Execer, input store.PurchaseInput) error {
				created = input
				return nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/stores/store-1/purchases", strings.NewReader(`{"total_price":"100.00"}`))
	req = withRouteParam(req, "id", "store-1")
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()
	handler.CreatePurchase(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if created.TotalPrice != 10000 || created.Status != "pending" {
		t.Fatalf("unexpected purchase input: %+v", created)
	}
}

func TestCreatePurchaseRejectsBadAmount(t *testing.T) {
	handler := newTestHandler(testDeps{})
	for _, body := range []string{`{"total_price":"0"}`, `{"total_price":"-5"}`, `{"total_price":"1.234"}`, `{"total_price":"nope"}`} {
		req := httptest.NewRequest(http.MethodPost, "/stores/store-1/purchases", strings.NewReader(body))
		req = withRouteParam(req, "id", "store-1")
		req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
		rr := httptest.NewRecorder()
		handler.CreatePurchase(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rr.Code)
		}
	}
}

func TestCompletePurchaseReportsReward(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			completeFn: func(_ context.Context, purchaseID string) (services.RewardResult, error) {
				if purchaseID != "purchase-1" {
					t.Fatalf("unexpected purchase id: %s", purchaseID)
				}
				return services.RewardResult{Credited: true, Amount: 1000, NewBalance: 3500}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/purchases/purchase-1/complete", nil)
	req = withRouteParam(req, "id", "purchase-1")
	rr := httptest.NewRecorder()
	handler.CompletePurchase(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["reward_issued"] != true || payload["tokens_earned"] != "10.00" || payload["new_balance"] != "35.00" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestIssueRewardReportsCredit(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			issueFn: func(_ context.Context, purchaseID string) (services.RewardResult, error) {
				if purchaseID != "purchase-1" {
					t.Fatalf("unexpected purchase id: %s", purchaseID)
				}
				return services.RewardResult{Credited: true, Amount: 1000, NewBalance: 3500}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/purchases/purchase-1/reward", nil)
	req = withRouteParam(req, "id", "purchase-1")
	rr := httptest.NewRecorder()
	handler.IssueReward(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["reward_issued"] != true || payload["tokens_earned"] != "10.00" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestFailPurchaseReportsStatus(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			failFn: func(_ context.Context, purchaseID string) error {
				if purchaseID != "purchase-1" {
					t.Fatalf("unexpected purchase id: %s", purchaseID)
				}
				return nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/purchases/purchase-1/fail", nil)
	req = withRouteParam(req, "id", "purchase-1")
	rr := httptest.NewRecorder()
	handler.FailPurchase(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["status"] != "failed" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestFailPurchaseCompletedConflict(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			failFn: func(_ context.Context, _ string) error {
				return services.ErrInvalidRewardInput
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/purchases/purchase-1/fail", nil)
	req = withRouteParam(req, "id", "purchase-1")
	rr := httptest.NewRecorder()
	handler.FailPurchase(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCompletePurchaseRedelivery(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			completeFn: func(_ context.Context, _ string) (services.RewardResult, error) {
				return services.RewardResult{Credited: false}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/purchases/purchase-1/complete", nil)
	req = withRouteParam(req, "id", "purchase-1")
	rr := httptest.NewRecorder()
	handler.CompletePurchase(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("redelivery must still read as success, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["reward_issued"] != false {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if _, ok := payload["tokens_earned"]; ok {
		t.Fatalf("a deduped completion must not report tokens: %#v", payload)
	}
}

func TestCompletePurchaseUnknown(t *testing.T) {
	handler := newTestHandler(testDeps{
		rewards: stubRewardService{
			completeFn: func(_ context.Context, _ string) (services.RewardResult, error) {
				return services.RewardResult{}, services.ErrNotFound
			},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/purchases/missing/complete", nil)
	req = withRouteParam(req, "id", "missing")
	rr := httptest.NewRecorder()
	handler.CompletePurchase(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListPurchasesTotalsCompletedOnly(t *testing.T) {
	handler := newTestHandler(testDeps{
		purchases: stubPurchaseStore{
			listByUserFn: func(_ context.Context, _ string, _, _ int) ([]store.PurchaseWithTokens, error) {
				return []store.PurchaseWithTokens{
					{ID: "purchase-1", StoreID: "store-1", TotalPrice: 10000, Status: "completed", TokensEarned: 1000},
					{ID: "purchase-2", StoreID: "store-1", TotalPrice: 2000, Status: "pending"},
					{ID: "purchase-3", StoreID: "store-1", TotalPrice: 3000, Status: "failed"},
				}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()
	handler.ListPurchases(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["total_spent"] != "100.00" || payload["total_tokens_earned"] != "10.00" {
		t.Fatalf("totals must cover completed purchases only: %#v", payload)
	}
}
