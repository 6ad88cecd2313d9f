package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired. Any other error
// means the cache tier itself failed; callers fall back to the store.
var ErrMiss = errors.New("cache miss")

// Entry TTLs. Scoped entries may be stale until they expire or a write
// path explicitly replaces them; the aggregate is invalidated on every
// configuration write.
const (
	TenantTTL    = time.Hour
	PromptTTL    = time.Hour
	AggregateTTL = 2 * time.Hour
)

// TenantEntry is a point-in-time snapshot of one tenant's generation
// configuration, keyed by tenant id.
type TenantEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	OwnerID     string  `json:"owner_id"`
}

// PromptEntry is a snapshot of a prompt's instruction together with the
// tenant credentials needed to serve a webhook call from cache alone,
// keyed by (tenant, prompt).
type PromptEntry struct {
	Instruction string  `json:"instruction"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// AggregateEntry is the single bulk warm-start snapshot holding every
// tenant and prompt.
type AggregateEntry struct {
	Tenants []TenantEntry                     `json:"tenants"`
	Prompts map[string]map[string]PromptEntry `json:"prompts"`
}

// Cache is the config cache boundary. All values are JSON-serialized by
// the backend; all entries carry a TTL. The cache never originates data:
// on miss the caller falls back to the persistent store and repopulates.
type Cache interface {
	GetTenant(ctx context.Context, tenantID string) (*TenantEntry, error)
	PutTenant(ctx context.Context, entry TenantEntry) error
	DeleteTenant(ctx context.Context, tenantID string) error

	GetPrompt(ctx context.Context, tenantID, promptID string) (*PromptEntry, error)
	PutPrompt(ctx context.Context, tenantID, promptID string, entry PromptEntry) error
	DeletePrompt(ctx context.Context, tenantID, promptID string) error

	GetAggregate(ctx context.Context) (*AggregateEntry, error)
	PutAggregate(ctx context.Context, entry AggregateEntry) error
	// InvalidateAggregate drops the bulk snapshot. Invalidating an already
	// absent snapshot is a no-op, not an error.
	InvalidateAggregate(ctx context.Context) error
}

func tenantKey(tenantID string) string {
	return "tenant:" + tenantID
}

func promptKey(tenantID, promptID string) string {
	return "prompt:" + tenantID + ":" + promptID
}

const aggregateKey = "system:all_data"
