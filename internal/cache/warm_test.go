package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"prompthub/internal/cache"
	"prompthub/internal/repository/db"
	"prompthub/internal/testutil"
)

func TestWarmPopulatesScopedAndAggregateEntries(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()

	mockDB := &testutil.MockDatabase{
		ListTenantsFunc: func(ctx context.Context) ([]db.Tenant, error) {
			return []db.Tenant{
				{ID: "t1", Name: "Acme", APIKey: "key-1", Model: "gemini-2.5-flash", Temperature: 0.7, OwnerID: "o1"},
				{ID: "t2", Name: "Beta", APIKey: "key-2", Model: "gemini-2.5-flash", Temperature: 0.5, OwnerID: "o2"},
			}, nil
		},
		GetPromptsByTenantFunc: func(ctx context.Context, tenantID string) ([]db.Prompt, error) {
			if tenantID == "t1" {
				return []db.Prompt{
					{ID: "p1", TenantID: "t1", Name: "greeting", Instruction: "Be friendly"},
				}, nil
			}
			return nil, nil
		},
	}

	warmer := cache.NewWarmer(backend, mockDB)
	if err := warmer.Warm(ctx); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}

	tenant, err := backend.GetTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("expected tenant t1 in cache: %v", err)
	}
	if tenant.APIKey != "key-1" {
		t.Errorf("expected api key key-1, got %q", tenant.APIKey)
	}

	prompt, err := backend.GetPrompt(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("expected prompt p1 in cache: %v", err)
	}
	if prompt.Instruction != "Be friendly" {
		t.Errorf("expected instruction, got %q", prompt.Instruction)
	}
	if prompt.APIKey != "key-1" || prompt.Model != "gemini-2.5-flash" {
		t.Errorf("prompt entry should carry tenant credentials, got %+v", prompt)
	}

	aggregate, err := backend.GetAggregate(ctx)
	if err != nil {
		t.Fatalf("expected aggregate snapshot: %v", err)
	}
	if len(aggregate.Tenants) != 2 {
		t.Errorf("expected 2 tenants in aggregate, got %d", len(aggregate.Tenants))
	}
	if _, ok := aggregate.Prompts["t1"]["p1"]; !ok {
		t.Error("expected prompt p1 under t1 in aggregate")
	}
	if _, ok := aggregate.Prompts["t2"]; ok {
		t.Error("tenant without prompts should not appear in the prompts map")
	}
}

func TestWarmSkipsWhenAggregatePresent(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	if err := backend.PutAggregate(ctx, cache.AggregateEntry{}); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	var listCalls int32
	mockDB := &testutil.MockDatabase{
		ListTenantsFunc: func(ctx context.Context) ([]db.Tenant, error) {
			atomic.AddInt32(&listCalls, 1)
			return nil, nil
		},
	}

	warmer := cache.NewWarmer(backend, mockDB)
	if err := warmer.Warm(ctx); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if atomic.LoadInt32(&listCalls) != 0 {
		t.Errorf("expected no store access when cache is warm, got %d calls", listCalls)
	}
}

func TestWarmPropagatesStoreError(t *testing.T) {
	ctx := context.Background()
	storeDown := errors.New("store unavailable")

	mockDB := &testutil.MockDatabase{
		ListTenantsFunc: func(ctx context.Context) ([]db.Tenant, error) {
			return nil, storeDown
		},
	}

	warmer := cache.NewWarmer(cache.NewMemory(), mockDB)
	if err := warmer.Warm(ctx); !errors.Is(err, storeDown) {
		t.Errorf("expected store error to surface, got %v", err)
	}
}
