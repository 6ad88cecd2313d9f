package testutil

import (
	"context"
	"errors"

	"prompthub/internal/cache"
	"prompthub/internal/classifier"
	"prompthub/internal/llm"
	"prompthub/internal/repository/db"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// Tenant mocks
	GetTenantFunc         func(ctx context.Context, id string) (*db.Tenant, error)
	GetTenantsByOwnerFunc func(ctx context.Context, ownerID string) ([]db.Tenant, error)
	ListTenantsFunc       func(ctx context.Context) ([]db.Tenant, error)
	CreateTenantFunc      func(ctx context.Context, name, ownerID, apiKey, model string, temperature float64) (*db.Tenant, error)
	UpdateTenantFunc      func(ctx context.Context, id, name, apiKey, model string, temperature float64) (*db.Tenant, error)
	DeleteTenantFunc      func(ctx context.Context, id string) error

	// Prompt mocks
	GetPromptFunc          func(ctx context.Context, tenantID, promptID string) (*db.Prompt, error)
	GetPromptsByTenantFunc func(ctx context.Context, tenantID string) ([]db.Prompt, error)
	CreatePromptFunc       func(ctx context.Context, tenantID, name, instruction string) (*db.Prompt, error)
	UpdatePromptFunc       func(ctx context.Context, tenantID, promptID, name, instruction string) (*db.Prompt, error)
	DeletePromptFunc       func(ctx context.Context, tenantID, promptID string) error

	// Conversation mocks
	GetConversationFunc           func(ctx context.Context, tenantID, id string) (*db.Conversation, error)
	GetConversationByAliasFunc    func(ctx context.Context, tenantID, alias string) (*db.Conversation, error)
	CreateConversationFunc        func(ctx context.Context, tenantID, alias, title string) (*db.Conversation, error)
	UpdateConversationSummaryFunc func(ctx context.Context, id, summary string) error
	ClearConversationSummaryFunc  func(ctx context.Context, id string) error
	TouchConversationFunc         func(ctx context.Context, id string) error

	// Message mocks
	AddMessageFunc                 func(ctx context.Context, conversationID, role, content string) (*db.Message, error)
	GetConversationMessagesFunc    func(ctx context.Context, conversationID string) ([]llm.Message, error)
	DeleteConversationMessagesFunc func(ctx context.Context, conversationID string) error
}

// Tenant methods
func (m *MockDatabase) GetTenant(ctx context.Context, id string) (*db.Tenant, error) {
	if m.GetTenantFunc != nil {
		return m.GetTenantFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetTenantsByOwner(ctx context.Context, ownerID string) ([]db.Tenant, error) {
	if m.GetTenantsByOwnerFunc != nil {
		return m.GetTenantsByOwnerFunc(ctx, ownerID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) ListTenants(ctx context.Context) ([]db.Tenant, error) {
	if m.ListTenantsFunc != nil {
		return m.ListTenantsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) CreateTenant(ctx context.Context, name, ownerID, apiKey, model string, temperature float64) (*db.Tenant, error) {
	if m.CreateTenantFunc != nil {
		return m.CreateTenantFunc(ctx, name, ownerID, apiKey, model, temperature)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) UpdateTenant(ctx context.Context, id, name, apiKey, model string, temperature float64) (*db.Tenant, error) {
	if m.UpdateTenantFunc != nil {
		return m.UpdateTenantFunc(ctx, id, name, apiKey, model, temperature)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) DeleteTenant(ctx context.Context, id string) error {
	if m.DeleteTenantFunc != nil {
		return m.DeleteTenantFunc(ctx, id)
	}
	return errors.New("not implemented")
}

// Prompt methods
func (m *MockDatabase) GetPrompt(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
	if m.GetPromptFunc != nil {
		return m.GetPromptFunc(ctx, tenantID, promptID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetPromptsByTenant(ctx context.Context, tenantID string) ([]db.Prompt, error) {
	if m.GetPromptsByTenantFunc != nil {
		return m.GetPromptsByTenantFunc(ctx, tenantID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) CreatePrompt(ctx context.Context, tenantID, name, instruction string) (*db.Prompt, error) {
	if m.CreatePromptFunc != nil {
		return m.CreatePromptFunc(ctx, tenantID, name, instruction)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) UpdatePrompt(ctx context.Context, tenantID, promptID, name, instruction string) (*db.Prompt, error) {
	if m.UpdatePromptFunc != nil {
		return m.UpdatePromptFunc(ctx, tenantID, promptID, name, instruction)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) DeletePrompt(ctx context.Context, tenantID, promptID string) error {
	if m.DeletePromptFunc != nil {
		return m.DeletePromptFunc(ctx, tenantID, promptID)
	}
	return errors.New("not implemented")
}

// Conversation methods
func (m *MockDatabase) GetConversation(ctx context.Context, tenantID, id string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, tenantID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversationByAlias(ctx context.Context, tenantID, alias string) (*db.Conversation, error) {
	if m.GetConversationByAliasFunc != nil {
		return m.GetConversationByAliasFunc(ctx, tenantID, alias)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) CreateConversation(ctx context.Context, tenantID, alias, title string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, tenantID, alias, title)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) UpdateConversationSummary(ctx context.Context, id, summary string) error {
	if m.UpdateConversationSummaryFunc != nil {
		return m.UpdateConversationSummaryFunc(ctx, id, summary)
	}
	return errors.New("not implemented")
}

func (m *MockDatabase) ClearConversationSummary(ctx context.Context, id string) error {
	if m.ClearConversationSummaryFunc != nil {
		return m.ClearConversationSummaryFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *MockDatabase) TouchConversation(ctx context.Context, id string) error {
	if m.TouchConversationFunc != nil {
		return m.TouchConversationFunc(ctx, id)
	}
	return errors.New("not implemented")
}

// Message methods
func (m *MockDatabase) AddMessage(ctx context.Context, conversationID, role, content string) (*db.Message, error) {
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(ctx, conversationID, role, content)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversationMessages(ctx context.Context, conversationID string) ([]llm.Message, error) {
	if m.GetConversationMessagesFunc != nil {
		return m.GetConversationMessagesFunc(ctx, conversationID)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) DeleteConversationMessages(ctx context.Context, conversationID string) error {
	if m.DeleteConversationMessagesFunc != nil {
		return m.DeleteConversationMessagesFunc(ctx, conversationID)
	}
	return errors.New("not implemented")
}

// MockGenerator is a mock implementation of llm.Generator for testing
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error)
	Requests     []llm.GenerateRequest
}

func (m *MockGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

// MockClassifier is a mock implementation of classifier.Classifier
type MockClassifier struct {
	CheckFunc func(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error)
}

func (m *MockClassifier) Check(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, phrase, threshold)
	}
	return nil, errors.New("not implemented")
}

// FailingCache is a cache.Cache whose every call fails, for exercising
// fail-open paths.
type FailingCache struct{}

var errCacheDown = errors.New("cache backend unavailable")

func (FailingCache) GetTenant(context.Context, string) (*cache.TenantEntry, error) {
	return nil, errCacheDown
}
func (FailingCache) PutTenant(context.Context, cache.TenantEntry) error { return errCacheDown }
func (FailingCache) DeleteTenant(context.Context, string) error         { return errCacheDown }
func (FailingCache) GetPrompt(context.Context, string, string) (*cache.PromptEntry, error) {
	return nil, errCacheDown
}
func (FailingCache) PutPrompt(context.Context, string, string, cache.PromptEntry) error {
	return errCacheDown
}
func (FailingCache) DeletePrompt(context.Context, string, string) error { return errCacheDown }
func (FailingCache) GetAggregate(context.Context) (*cache.AggregateEntry, error) {
	return nil, errCacheDown
}
func (FailingCache) PutAggregate(context.Context, cache.AggregateEntry) error { return errCacheDown }
func (FailingCache) InvalidateAggregate(context.Context) error                { return errCacheDown }
