package prompt

import (
	"context"
	"fmt"

	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
)

// Service handles prompt writes, always scoped by tenant ownership. Every
// update re-propagates into the cache entry keyed by (tenant, prompt) and
// invalidates the aggregate snapshot.
type Service struct {
	db       db.Database
	resolver *configresolver.Resolver
}

// NewService creates a prompt service.
func NewService(database db.Database, resolver *configresolver.Resolver) *Service {
	return &Service{db: database, resolver: resolver}
}

// Create creates a prompt under a tenant and propagates it into the cache.
func (s *Service) Create(ctx context.Context, tenantID, name, instruction string) (*db.Prompt, error) {
	tenant, err := s.db.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	prompt, err := s.db.CreatePrompt(ctx, tenantID, name, instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	s.resolver.WritePrompt(ctx, tenant, prompt)
	return prompt, nil
}

// Get retrieves a prompt scoped to its tenant.
func (s *Service) Get(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
	return s.db.GetPrompt(ctx, tenantID, promptID)
}

// ListByTenant retrieves all prompts under a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]db.Prompt, error) {
	prompts, err := s.db.GetPromptsByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve prompts: %w", err)
	}
	return prompts, nil
}

// Update updates a prompt and re-propagates its cache entry.
func (s *Service) Update(ctx context.Context, tenantID, promptID, name, instruction string) (*db.Prompt, error) {
	tenant, err := s.db.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	prompt, err := s.db.UpdatePrompt(ctx, tenantID, promptID, name, instruction)
	if err != nil {
		return nil, err
	}
	s.resolver.WritePrompt(ctx, tenant, prompt)
	return prompt, nil
}

// Delete deletes a prompt, its scoped cache entry and the aggregate.
func (s *Service) Delete(ctx context.Context, tenantID, promptID string) error {
	if err := s.db.DeletePrompt(ctx, tenantID, promptID); err != nil {
		return err
	}
	s.resolver.EvictPrompt(ctx, tenantID, promptID)
	return nil
}
