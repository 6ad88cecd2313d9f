package tenant

import (
	"context"
	"fmt"

	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
)

// CreateTenantRequest carries the fields of a tenant create or update.
type CreateTenantRequest struct {
	Name        string
	OwnerID     string
	APIKey      string
	Model       string
	Temperature float64
}

// Service handles tenant configuration writes. Every store mutation is
// followed by a scoped cache upsert and an aggregate invalidation so
// webhook readers converge without waiting for TTL expiry.
type Service struct {
	db       db.Database
	resolver *configresolver.Resolver
}

// NewService creates a tenant service.
func NewService(database db.Database, resolver *configresolver.Resolver) *Service {
	return &Service{db: database, resolver: resolver}
}

// Create creates a tenant and propagates it into the cache.
func (s *Service) Create(ctx context.Context, req CreateTenantRequest) (*db.Tenant, error) {
	tenant, err := s.db.CreateTenant(ctx, req.Name, req.OwnerID, req.APIKey, req.Model, req.Temperature)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	s.resolver.WriteTenant(ctx, tenant)
	return tenant, nil
}

// Get retrieves a tenant by id.
func (s *Service) Get(ctx context.Context, id string) (*db.Tenant, error) {
	return s.db.GetTenant(ctx, id)
}

// ListByOwner retrieves all tenants of one owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]db.Tenant, error) {
	tenants, err := s.db.GetTenantsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tenants: %w", err)
	}
	return tenants, nil
}

// Update updates a tenant and propagates the change into the cache,
// including every prompt entry that embeds the tenant's credentials.
func (s *Service) Update(ctx context.Context, id string, req CreateTenantRequest) (*db.Tenant, error) {
	tenant, err := s.db.UpdateTenant(ctx, id, req.Name, req.APIKey, req.Model, req.Temperature)
	if err != nil {
		return nil, err
	}
	s.resolver.WriteTenant(ctx, tenant)

	// Prompt snapshots carry the tenant credential and model, so they must
	// be re-propagated too.
	prompts, err := s.db.GetPromptsByTenant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh prompt cache entries: %w", err)
	}
	for i := range prompts {
		s.resolver.WritePrompt(ctx, tenant, &prompts[i])
	}

	return tenant, nil
}

// Delete deletes a tenant, its scoped cache entry and every prompt entry
// underneath it.
func (s *Service) Delete(ctx context.Context, id string) error {
	prompts, err := s.db.GetPromptsByTenant(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list prompts for tenant: %w", err)
	}

	if err := s.db.DeleteTenant(ctx, id); err != nil {
		return err
	}

	for _, prompt := range prompts {
		s.resolver.EvictPrompt(ctx, id, prompt.ID)
	}
	s.resolver.EvictTenant(ctx, id)
	return nil
}
