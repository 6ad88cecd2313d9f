package db

import (
	"context"
	"errors"

	"prompthub/internal/llm"
)

// ErrNotFound is returned by lookups when no row matches. Callers
// distinguish it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Database defines the interface for all persistent store operations.
// This allows for easier testing through mocking and decouples the services
// from the specific database implementation.
type Database interface {
	// Tenants
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetTenantsByOwner(ctx context.Context, ownerID string) ([]Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	CreateTenant(ctx context.Context, name, ownerID, apiKey, model string, temperature float64) (*Tenant, error)
	UpdateTenant(ctx context.Context, id, name, apiKey, model string, temperature float64) (*Tenant, error)
	DeleteTenant(ctx context.Context, id string) error

	// Prompts (always scoped by tenant ownership)
	GetPrompt(ctx context.Context, tenantID, promptID string) (*Prompt, error)
	GetPromptsByTenant(ctx context.Context, tenantID string) ([]Prompt, error)
	CreatePrompt(ctx context.Context, tenantID, name, instruction string) (*Prompt, error)
	UpdatePrompt(ctx context.Context, tenantID, promptID, name, instruction string) (*Prompt, error)
	DeletePrompt(ctx context.Context, tenantID, promptID string) error

	// Conversations (scoped by tenant ownership)
	GetConversation(ctx context.Context, tenantID, id string) (*Conversation, error)
	GetConversationByAlias(ctx context.Context, tenantID, alias string) (*Conversation, error)
	CreateConversation(ctx context.Context, tenantID, alias, title string) (*Conversation, error)
	UpdateConversationSummary(ctx context.Context, id, summary string) error
	ClearConversationSummary(ctx context.Context, id string) error
	TouchConversation(ctx context.Context, id string) error

	// Messages (scoped by conversation ownership)
	AddMessage(ctx context.Context, conversationID, role, content string) (*Message, error)
	GetConversationMessages(ctx context.Context, conversationID string) ([]llm.Message, error)
	DeleteConversationMessages(ctx context.Context, conversationID string) error
}
