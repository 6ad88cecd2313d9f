package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateTenant creates a new tenant configuration
func (p *PostgresDB) CreateTenant(ctx context.Context, name, ownerID, apiKey, model string, temperature float64) (*db.Tenant, error) {
	tenantID := uuid.New().String()
	var createdAt, updatedAt time.Time

	query := `
	INSERT INTO tenants (id, name, owner_id, api_key, model, temperature)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, tenantID, name, ownerID, apiKey, model, temperature).Scan(&tenantID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating tenant: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"tenant_id": tenantID, "owner_id": ownerID}).Info("Created tenant")

	return &db.Tenant{
		ID:          tenantID,
		Name:        name,
		OwnerID:     ownerID,
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// GetTenant retrieves a tenant by id
func (p *PostgresDB) GetTenant(ctx context.Context, id string) (*db.Tenant, error) {
	if !validID(id) {
		return nil, db.ErrNotFound
	}

	var tenant db.Tenant
	query := `
	SELECT id, name, owner_id, COALESCE(api_key, ''), COALESCE(model, ''), temperature, created_at, updated_at
	FROM tenants
	WHERE id = $1
	`

	err := p.conn.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.OwnerID, &tenant.APIKey, &tenant.Model, &tenant.Temperature,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving tenant: %w", err)
	}

	return &tenant, nil
}

// GetTenantsByOwner retrieves all tenants owned by a user
func (p *PostgresDB) GetTenantsByOwner(ctx context.Context, ownerID string) ([]db.Tenant, error) {
	query := `
	SELECT id, name, owner_id, COALESCE(api_key, ''), COALESCE(model, ''), temperature, created_at, updated_at
	FROM tenants
	WHERE owner_id = $1
	ORDER BY created_at ASC
	`
	return p.queryTenants(ctx, query, ownerID)
}

// ListTenants retrieves every tenant; used by the cache warm-start
func (p *PostgresDB) ListTenants(ctx context.Context) ([]db.Tenant, error) {
	query := `
	SELECT id, name, owner_id, COALESCE(api_key, ''), COALESCE(model, ''), temperature, created_at, updated_at
	FROM tenants
	ORDER BY created_at ASC
	`
	return p.queryTenants(ctx, query)
}

func (p *PostgresDB) queryTenants(ctx context.Context, query string, args ...any) ([]db.Tenant, error) {
	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []db.Tenant
	for rows.Next() {
		var tenant db.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.OwnerID, &tenant.APIKey, &tenant.Model,
			&tenant.Temperature, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	return tenants, nil
}

// UpdateTenant updates a tenant's configuration
func (p *PostgresDB) UpdateTenant(ctx context.Context, id, name, apiKey, model string, temperature float64) (*db.Tenant, error) {
	if !validID(id) {
		return nil, db.ErrNotFound
	}

	var tenant db.Tenant
	query := `
	UPDATE tenants
	SET name = $2, api_key = $3, model = $4, temperature = $5, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	RETURNING id, name, owner_id, api_key, model, temperature, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, id, name, apiKey, model, temperature).Scan(
		&tenant.ID, &tenant.Name, &tenant.OwnerID, &tenant.APIKey, &tenant.Model, &tenant.Temperature,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating tenant: %w", err)
	}

	logger.Log.WithField("tenant_id", id).Info("Updated tenant")
	return &tenant, nil
}

// DeleteTenant deletes a tenant and everything underneath it (prompts,
// conversations and messages cascade in the schema)
func (p *PostgresDB) DeleteTenant(ctx context.Context, id string) error {
	if !validID(id) {
		return db.ErrNotFound
	}

	result, err := p.conn.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting tenant: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return db.ErrNotFound
	}

	logger.Log.WithField("tenant_id", id).Info("Deleted tenant")
	return nil
}
