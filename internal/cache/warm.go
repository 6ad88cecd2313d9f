package cache

import (
	"context"
	"fmt"

	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Warmer populates the cache from the persistent store at startup.
// Warm is idempotent: if the aggregate snapshot is already present nothing
// is loaded, and concurrent callers share a single in-flight population.
type Warmer struct {
	cache Cache
	db    db.Database
	group singleflight.Group
}

// NewWarmer creates a Warmer over the given cache and store.
func NewWarmer(cache Cache, database db.Database) *Warmer {
	return &Warmer{cache: cache, db: database}
}

// Warm ensures the cache holds the aggregate snapshot plus one scoped entry
// per tenant and per prompt.
func (w *Warmer) Warm(ctx context.Context) error {
	_, err, _ := w.group.Do("warm", func() (any, error) {
		return nil, w.warm(ctx)
	})
	return err
}

func (w *Warmer) warm(ctx context.Context) error {
	if _, err := w.cache.GetAggregate(ctx); err == nil {
		logger.Log.Debug("Cache already warm, skipping population")
		return nil
	}

	tenants, err := w.db.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("error listing tenants for warm-start: %w", err)
	}

	aggregate := AggregateEntry{
		Tenants: make([]TenantEntry, 0, len(tenants)),
		Prompts: make(map[string]map[string]PromptEntry),
	}

	promptCount := 0
	for _, tenant := range tenants {
		entry := TenantEntry{
			ID:          tenant.ID,
			Name:        tenant.Name,
			APIKey:      tenant.APIKey,
			Model:       tenant.Model,
			Temperature: tenant.Temperature,
			OwnerID:     tenant.OwnerID,
		}
		aggregate.Tenants = append(aggregate.Tenants, entry)
		if err := w.cache.PutTenant(ctx, entry); err != nil {
			logger.Log.WithField("tenant_id", tenant.ID).WithError(err).Warn("Failed to cache tenant during warm-start")
		}

		prompts, err := w.db.GetPromptsByTenant(ctx, tenant.ID)
		if err != nil {
			return fmt.Errorf("error listing prompts for tenant %s: %w", tenant.ID, err)
		}
		if len(prompts) == 0 {
			continue
		}

		aggregate.Prompts[tenant.ID] = make(map[string]PromptEntry, len(prompts))
		for _, prompt := range prompts {
			promptEntry := PromptEntry{
				Instruction: prompt.Instruction,
				APIKey:      tenant.APIKey,
				Model:       tenant.Model,
				Temperature: tenant.Temperature,
			}
			aggregate.Prompts[tenant.ID][prompt.ID] = promptEntry
			if err := w.cache.PutPrompt(ctx, tenant.ID, prompt.ID, promptEntry); err != nil {
				logger.Log.WithField("prompt_id", prompt.ID).WithError(err).Warn("Failed to cache prompt during warm-start")
			}
			promptCount++
		}
	}

	if err := w.cache.PutAggregate(ctx, aggregate); err != nil {
		return fmt.Errorf("error writing aggregate snapshot: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"tenants": len(tenants),
		"prompts": promptCount,
	}).Info("Cache warm-start completed")
	return nil
}
