package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Ensure Memory implements Cache
var _ Cache = (*Memory)(nil)

// Memory is an in-process cache backend used when no Redis address is
// configured and throughout the test suite. Values are stored JSON-encoded
// so both backends have identical serialization behavior.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) get(key string, dest any) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrMiss
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return fmt.Errorf("error parsing cache entry %s: %w", key, err)
	}
	return nil
}

func (m *Memory) put(key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error serializing cache entry %s: %w", key, err)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{raw: raw, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) GetTenant(_ context.Context, tenantID string) (*TenantEntry, error) {
	var entry TenantEntry
	if err := m.get(tenantKey(tenantID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *Memory) PutTenant(_ context.Context, entry TenantEntry) error {
	return m.put(tenantKey(entry.ID), entry, TenantTTL)
}

func (m *Memory) DeleteTenant(_ context.Context, tenantID string) error {
	m.delete(tenantKey(tenantID))
	return nil
}

func (m *Memory) GetPrompt(_ context.Context, tenantID, promptID string) (*PromptEntry, error) {
	var entry PromptEntry
	if err := m.get(promptKey(tenantID, promptID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *Memory) PutPrompt(_ context.Context, tenantID, promptID string, entry PromptEntry) error {
	return m.put(promptKey(tenantID, promptID), entry, PromptTTL)
}

func (m *Memory) DeletePrompt(_ context.Context, tenantID, promptID string) error {
	m.delete(promptKey(tenantID, promptID))
	return nil
}

func (m *Memory) GetAggregate(_ context.Context) (*AggregateEntry, error) {
	var entry AggregateEntry
	if err := m.get(aggregateKey, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *Memory) PutAggregate(_ context.Context, entry AggregateEntry) error {
	return m.put(aggregateKey, entry, AggregateTTL)
}

func (m *Memory) InvalidateAggregate(_ context.Context) error {
	m.delete(aggregateKey)
	return nil
}
