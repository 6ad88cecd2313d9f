package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prompthub/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Ensure Redis implements Cache
var _ Cache = (*Redis)(nil)

// Redis is the shared cache backend used in deployments.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis cache backend. It pings the server once so a
// misconfigured address is caught at startup rather than on first request.
func NewRedis(ctx context.Context, addr, password string, dbNum int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	logger.Log.WithField("addr", addr).Info("Connected to Redis")
	return &Redis{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) get(ctx context.Context, key string, dest any) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("error reading cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is indistinguishable from a miss for callers;
		// the store fallback will repopulate it.
		logger.Log.WithField("key", key).WithError(err).Warn("Dropping unparsable cache entry")
		return ErrMiss
	}
	return nil
}

func (r *Redis) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error serializing cache entry %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("error writing cache key %s: %w", key, err)
	}
	return nil
}

func (r *Redis) delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting cache key %s: %w", key, err)
	}
	return nil
}

func (r *Redis) GetTenant(ctx context.Context, tenantID string) (*TenantEntry, error) {
	var entry TenantEntry
	if err := r.get(ctx, tenantKey(tenantID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Redis) PutTenant(ctx context.Context, entry TenantEntry) error {
	return r.put(ctx, tenantKey(entry.ID), entry, TenantTTL)
}

func (r *Redis) DeleteTenant(ctx context.Context, tenantID string) error {
	return r.delete(ctx, tenantKey(tenantID))
}

func (r *Redis) GetPrompt(ctx context.Context, tenantID, promptID string) (*PromptEntry, error) {
	var entry PromptEntry
	if err := r.get(ctx, promptKey(tenantID, promptID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Redis) PutPrompt(ctx context.Context, tenantID, promptID string, entry PromptEntry) error {
	return r.put(ctx, promptKey(tenantID, promptID), entry, PromptTTL)
}

func (r *Redis) DeletePrompt(ctx context.Context, tenantID, promptID string) error {
	return r.delete(ctx, promptKey(tenantID, promptID))
}

func (r *Redis) GetAggregate(ctx context.Context) (*AggregateEntry, error) {
	var entry AggregateEntry
	if err := r.get(ctx, aggregateKey, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Redis) PutAggregate(ctx context.Context, entry AggregateEntry) error {
	return r.put(ctx, aggregateKey, entry, AggregateTTL)
}

func (r *Redis) InvalidateAggregate(ctx context.Context) error {
	// DEL on an absent key is already a no-op in Redis, which gives the
	// required idempotence for free.
	return r.delete(ctx, aggregateKey)
}
