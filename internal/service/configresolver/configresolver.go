package configresolver

import (
	"context"
	"errors"
	"fmt"

	"prompthub/internal/cache"
	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// Resolver owns the cache-first, store-fallback lookup for tenant and
// prompt configuration. Callers never talk to the two tiers separately, so
// the fallback logic lives in exactly one place. Cache-tier failures are
// recovered here and never surface: any cache error other than a miss is
// logged and treated as a miss.
type Resolver struct {
	cache cache.Cache
	db    db.Database
}

// NewResolver creates a Resolver over the given cache and store.
func NewResolver(cacheBackend cache.Cache, database db.Database) *Resolver {
	return &Resolver{cache: cacheBackend, db: database}
}

// ResolveTenant returns the tenant configuration snapshot, populating the
// cache on a miss. A missing tenant surfaces as db.ErrNotFound.
func (r *Resolver) ResolveTenant(ctx context.Context, tenantID string) (*cache.TenantEntry, error) {
	entry, err := r.cache.GetTenant(ctx, tenantID)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Log.WithField("tenant_id", tenantID).WithError(err).Warn("Config cache unavailable, falling back to store")
	}

	tenant, err := r.db.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	fresh := tenantEntry(tenant)
	if err := r.cache.PutTenant(ctx, fresh); err != nil {
		logger.Log.WithField("tenant_id", tenantID).WithError(err).Warn("Failed to repopulate tenant cache entry")
	}
	// A scoped miss means the bulk snapshot is stale too.
	r.invalidateAggregate(ctx)
	return &fresh, nil
}

// ResolvePrompt returns the prompt configuration snapshot for (tenant,
// prompt), populating the cache on a miss. The snapshot bundles the
// tenant's credential, model and temperature so the webhook can generate
// from it alone.
func (r *Resolver) ResolvePrompt(ctx context.Context, tenantID, promptID string) (*cache.PromptEntry, error) {
	entry, err := r.cache.GetPrompt(ctx, tenantID, promptID)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"prompt_id": promptID,
		}).WithError(err).Warn("Config cache unavailable, falling back to store")
	}

	tenant, err := r.db.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	prompt, err := r.db.GetPrompt(ctx, tenantID, promptID)
	if err != nil {
		return nil, err
	}

	fresh := cache.PromptEntry{
		Instruction: prompt.Instruction,
		APIKey:      tenant.APIKey,
		Model:       tenant.Model,
		Temperature: tenant.Temperature,
	}
	if err := r.cache.PutPrompt(ctx, tenantID, promptID, fresh); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"prompt_id": promptID,
		}).WithError(err).Warn("Failed to repopulate prompt cache entry")
	}

	// Keep the tenant entry warm too; the same request usually needs both.
	if err := r.cache.PutTenant(ctx, tenantEntry(tenant)); err != nil {
		logger.Log.WithField("tenant_id", tenantID).WithError(err).Warn("Failed to repopulate tenant cache entry")
	}

	// A scoped miss means the bulk snapshot is stale too.
	r.invalidateAggregate(ctx)
	return &fresh, nil
}

// WriteTenant propagates a tenant mutation into the cache: scoped upsert
// plus aggregate invalidation. Returns an error only when the scoped upsert
// fails in a way worth reporting; invalidation failures are logged.
func (r *Resolver) WriteTenant(ctx context.Context, tenant *db.Tenant) {
	if err := r.cache.PutTenant(ctx, tenantEntry(tenant)); err != nil {
		logger.Log.WithField("tenant_id", tenant.ID).WithError(err).Warn("Failed to upsert tenant cache entry")
	}
	r.invalidateAggregate(ctx)
}

// EvictTenant removes a deleted tenant's scoped entry and invalidates the
// aggregate.
func (r *Resolver) EvictTenant(ctx context.Context, tenantID string) {
	if err := r.cache.DeleteTenant(ctx, tenantID); err != nil {
		logger.Log.WithField("tenant_id", tenantID).WithError(err).Warn("Failed to delete tenant cache entry")
	}
	r.invalidateAggregate(ctx)
}

// WritePrompt propagates a prompt mutation into the cache.
func (r *Resolver) WritePrompt(ctx context.Context, tenant *db.Tenant, prompt *db.Prompt) {
	entry := cache.PromptEntry{
		Instruction: prompt.Instruction,
		APIKey:      tenant.APIKey,
		Model:       tenant.Model,
		Temperature: tenant.Temperature,
	}
	if err := r.cache.PutPrompt(ctx, tenant.ID, prompt.ID, entry); err != nil {
		logger.Log.WithField("prompt_id", prompt.ID).WithError(err).Warn("Failed to upsert prompt cache entry")
	}
	r.invalidateAggregate(ctx)
}

// EvictPrompt removes a deleted prompt's scoped entry and invalidates the
// aggregate.
func (r *Resolver) EvictPrompt(ctx context.Context, tenantID, promptID string) {
	if err := r.cache.DeletePrompt(ctx, tenantID, promptID); err != nil {
		logger.Log.WithField("prompt_id", promptID).WithError(err).Warn("Failed to delete prompt cache entry")
	}
	r.invalidateAggregate(ctx)
}

func (r *Resolver) invalidateAggregate(ctx context.Context) {
	if err := r.cache.InvalidateAggregate(ctx); err != nil {
		logger.Log.WithError(err).Warn("Failed to invalidate aggregate cache snapshot")
	}
}

func tenantEntry(tenant *db.Tenant) cache.TenantEntry {
	return cache.TenantEntry{
		ID:          tenant.ID,
		Name:        tenant.Name,
		APIKey:      tenant.APIKey,
		Model:       tenant.Model,
		Temperature: tenant.Temperature,
		OwnerID:     tenant.OwnerID,
	}
}

// ErrNotFound re-exports the store sentinel so handler code can depend on
// the resolver package alone.
var ErrNotFound = db.ErrNotFound

// Validate reports whether a prompt snapshot is complete enough to serve a
// generation call. The credential and model invariants fail the request
// before any external invocation.
func Validate(entry *cache.PromptEntry) error {
	if entry.APIKey == "" {
		return fmt.Errorf("provider credential is not configured for this tenant")
	}
	if entry.Model == "" {
		return fmt.Errorf("generation model is not configured for this tenant")
	}
	return nil
}
