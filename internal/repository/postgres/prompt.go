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

// CreatePrompt creates a new prompt under a tenant
func (p *PostgresDB) CreatePrompt(ctx context.Context, tenantID, name, instruction string) (*db.Prompt, error) {
	promptID := uuid.New().String()
	var createdAt, updatedAt time.Time

	query := `
	INSERT INTO prompts (id, tenant_id, name, instruction)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, promptID, tenantID, name, instruction).Scan(&promptID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating prompt: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"prompt_id": promptID, "tenant_id": tenantID}).Info("Created prompt")

	return &db.Prompt{
		ID:          promptID,
		TenantID:    tenantID,
		Name:        name,
		Instruction: instruction,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// GetPrompt retrieves a prompt scoped to its tenant
func (p *PostgresDB) GetPrompt(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
	if !validID(tenantID) || !validID(promptID) {
		return nil, db.ErrNotFound
	}

	var prompt db.Prompt
	query := `
	SELECT id, tenant_id, name, instruction, created_at, updated_at
	FROM prompts
	WHERE id = $1 AND tenant_id = $2
	`

	err := p.conn.QueryRowContext(ctx, query, promptID, tenantID).Scan(
		&prompt.ID, &prompt.TenantID, &prompt.Name, &prompt.Instruction, &prompt.CreatedAt, &prompt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving prompt: %w", err)
	}

	return &prompt, nil
}

// GetPromptsByTenant retrieves all prompts under a tenant
func (p *PostgresDB) GetPromptsByTenant(ctx context.Context, tenantID string) ([]db.Prompt, error) {
	if !validID(tenantID) {
		return nil, nil
	}

	query := `
	SELECT id, tenant_id, name, instruction, created_at, updated_at
	FROM prompts
	WHERE tenant_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error querying prompts: %w", err)
	}
	defer rows.Close()

	var prompts []db.Prompt
	for rows.Next() {
		var prompt db.Prompt
		if err := rows.Scan(&prompt.ID, &prompt.TenantID, &prompt.Name, &prompt.Instruction,
			&prompt.CreatedAt, &prompt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning prompt: %w", err)
		}
		prompts = append(prompts, prompt)
	}

	return prompts, nil
}

// UpdatePrompt updates a prompt's name and instruction text
func (p *PostgresDB) UpdatePrompt(ctx context.Context, tenantID, promptID, name, instruction string) (*db.Prompt, error) {
	if !validID(tenantID) || !validID(promptID) {
		return nil, db.ErrNotFound
	}

	var prompt db.Prompt
	query := `
	UPDATE prompts
	SET name = $3, instruction = $4, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1 AND tenant_id = $2
	RETURNING id, tenant_id, name, instruction, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, promptID, tenantID, name, instruction).Scan(
		&prompt.ID, &prompt.TenantID, &prompt.Name, &prompt.Instruction, &prompt.CreatedAt, &prompt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating prompt: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"prompt_id": promptID, "tenant_id": tenantID}).Info("Updated prompt")
	return &prompt, nil
}

// DeletePrompt deletes a prompt scoped to its tenant
func (p *PostgresDB) DeletePrompt(ctx context.Context, tenantID, promptID string) error {
	if !validID(tenantID) || !validID(promptID) {
		return db.ErrNotFound
	}

	result, err := p.conn.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1 AND tenant_id = $2`, promptID, tenantID)
	if err != nil {
		return fmt.Errorf("error deleting prompt: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return db.ErrNotFound
	}

	logger.Log.WithFields(logrus.Fields{"prompt_id": promptID, "tenant_id": tenantID}).Info("Deleted prompt")
	return nil
}
