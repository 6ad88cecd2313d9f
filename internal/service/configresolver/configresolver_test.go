package configresolver

import (
	"context"
	"errors"
	"testing"

	"prompthub/internal/cache"
	"prompthub/internal/repository/db"
	"prompthub/internal/testutil"
)

func storedTenant() *db.Tenant {
	return &db.Tenant{
		ID:          "t1",
		Name:        "Acme",
		OwnerID:     "o1",
		APIKey:      "key-1",
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
	}
}

func TestResolveTenantCacheHitSkipsStore(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	if err := backend.PutTenant(ctx, cache.TenantEntry{ID: "t1", APIKey: "cached-key"}); err != nil {
		t.Fatalf("PutTenant failed: %v", err)
	}

	storeCalled := false
	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			storeCalled = true
			return storedTenant(), nil
		},
	}

	resolver := NewResolver(backend, mockDB)
	entry, err := resolver.ResolveTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("ResolveTenant failed: %v", err)
	}
	if entry.APIKey != "cached-key" {
		t.Errorf("expected cached entry, got %+v", entry)
	}
	if storeCalled {
		t.Error("store should not be queried on a cache hit")
	}
}

func TestResolveTenantMissFallsBackAndRepopulates(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	if err := backend.PutAggregate(ctx, cache.AggregateEntry{}); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			if id != "t1" {
				return nil, db.ErrNotFound
			}
			return storedTenant(), nil
		},
	}

	resolver := NewResolver(backend, mockDB)
	entry, err := resolver.ResolveTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("ResolveTenant failed: %v", err)
	}
	if entry.APIKey != "key-1" {
		t.Errorf("expected store value, got %+v", entry)
	}

	// The miss must repopulate the cache.
	cached, err := backend.GetTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("expected repopulated entry: %v", err)
	}
	if cached.APIKey != "key-1" {
		t.Errorf("expected repopulated api key, got %q", cached.APIKey)
	}

	// A scoped miss indicates a stale bulk snapshot; it must be dropped.
	if _, err := backend.GetAggregate(ctx); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected aggregate invalidated after store fallback, got %v", err)
	}
}

func TestResolveTenantNotFound(t *testing.T) {
	ctx := context.Background()
	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			return nil, db.ErrNotFound
		},
	}

	resolver := NewResolver(cache.NewMemory(), mockDB)
	if _, err := resolver.ResolveTenant(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTenantFailOpenOnCacheError(t *testing.T) {
	ctx := context.Background()
	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			return storedTenant(), nil
		},
	}

	// Every cache call fails, but the lookup must still succeed.
	resolver := NewResolver(testutil.FailingCache{}, mockDB)
	entry, err := resolver.ResolveTenant(ctx, "t1")
	if err != nil {
		t.Fatalf("expected fail-open resolution, got %v", err)
	}
	if entry.APIKey != "key-1" {
		t.Errorf("expected store value, got %+v", entry)
	}
}

func TestResolvePromptMissBuildsBundledEntry(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()

	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			return storedTenant(), nil
		},
		GetPromptFunc: func(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
			return &db.Prompt{ID: "p1", TenantID: "t1", Name: "greeting", Instruction: "Be friendly"}, nil
		},
	}

	resolver := NewResolver(backend, mockDB)
	entry, err := resolver.ResolvePrompt(ctx, "t1", "p1")
	if err != nil {
		t.Fatalf("ResolvePrompt failed: %v", err)
	}
	if entry.Instruction != "Be friendly" {
		t.Errorf("expected instruction, got %q", entry.Instruction)
	}
	if entry.APIKey != "key-1" || entry.Model != "gemini-2.5-flash" || entry.Temperature != 0.7 {
		t.Errorf("expected tenant credentials bundled into prompt entry, got %+v", entry)
	}

	// Both scoped entries should be warm afterwards.
	if _, err := backend.GetPrompt(ctx, "t1", "p1"); err != nil {
		t.Errorf("expected prompt entry repopulated: %v", err)
	}
	if _, err := backend.GetTenant(ctx, "t1"); err != nil {
		t.Errorf("expected tenant entry repopulated: %v", err)
	}
}

func TestResolvePromptMissingPrompt(t *testing.T) {
	ctx := context.Background()
	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			return storedTenant(), nil
		},
		GetPromptFunc: func(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
			return nil, db.ErrNotFound
		},
	}

	resolver := NewResolver(cache.NewMemory(), mockDB)
	if _, err := resolver.ResolvePrompt(ctx, "t1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteTenantInvalidatesAggregate(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	if err := backend.PutAggregate(ctx, cache.AggregateEntry{}); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	resolver := NewResolver(backend, &testutil.MockDatabase{})
	resolver.WriteTenant(ctx, storedTenant())

	if _, err := backend.GetTenant(ctx, "t1"); err != nil {
		t.Errorf("expected scoped entry after write: %v", err)
	}
	if _, err := backend.GetAggregate(ctx); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected aggregate invalidated after write, got %v", err)
	}
}

func TestEvictPromptInvalidatesAggregate(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	if err := backend.PutPrompt(ctx, "t1", "p1", cache.PromptEntry{Instruction: "x"}); err != nil {
		t.Fatalf("PutPrompt failed: %v", err)
	}
	if err := backend.PutAggregate(ctx, cache.AggregateEntry{}); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	resolver := NewResolver(backend, &testutil.MockDatabase{})
	resolver.EvictPrompt(ctx, "t1", "p1")

	if _, err := backend.GetPrompt(ctx, "t1", "p1"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected prompt entry evicted, got %v", err)
	}
	if _, err := backend.GetAggregate(ctx); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected aggregate invalidated after evict, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   cache.PromptEntry
		wantErr bool
	}{
		{
			name:  "complete entry",
			entry: cache.PromptEntry{Instruction: "x", APIKey: "key", Model: "gemini-2.5-flash"},
		},
		{
			name:    "missing api key",
			entry:   cache.PromptEntry{Instruction: "x", Model: "gemini-2.5-flash"},
			wantErr: true,
		},
		{
			name:    "missing model",
			entry:   cache.PromptEntry{Instruction: "x", APIKey: "key"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
