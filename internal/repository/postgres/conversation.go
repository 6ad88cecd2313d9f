package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"prompthub/internal/llm"
	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a tenant. alias may be
// empty for anonymous conversations.
func (p *PostgresDB) CreateConversation(ctx context.Context, tenantID, alias, title string) (*db.Conversation, error) {
	convID := uuid.New().String()
	var createdAt, updatedAt time.Time

	var aliasValue *string
	if alias != "" {
		aliasValue = &alias
	}

	query := `
	INSERT INTO conversations (id, tenant_id, alias, title)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`

	err := p.conn.QueryRowContext(ctx, query, convID, tenantID, aliasValue, title).Scan(&convID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": convID, "tenant_id": tenantID, "alias": alias}).Info("Created conversation")

	return &db.Conversation{
		ID:        convID,
		TenantID:  tenantID,
		Alias:     aliasValue,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// GetConversation retrieves a conversation by id scoped to its tenant
func (p *PostgresDB) GetConversation(ctx context.Context, tenantID, id string) (*db.Conversation, error) {
	if !validID(tenantID) || !validID(id) {
		return nil, db.ErrNotFound
	}

	query := `
	SELECT id, tenant_id, alias, title, style, summary, created_at, updated_at
	FROM conversations
	WHERE id = $1 AND tenant_id = $2
	`
	return p.queryConversation(ctx, query, id, tenantID)
}

// GetConversationByAlias retrieves a conversation by its external alias
// scoped to its tenant
func (p *PostgresDB) GetConversationByAlias(ctx context.Context, tenantID, alias string) (*db.Conversation, error) {
	if !validID(tenantID) {
		return nil, db.ErrNotFound
	}

	query := `
	SELECT id, tenant_id, alias, title, style, summary, created_at, updated_at
	FROM conversations
	WHERE alias = $1 AND tenant_id = $2
	`
	return p.queryConversation(ctx, query, alias, tenantID)
}

func (p *PostgresDB) queryConversation(ctx context.Context, query string, args ...any) (*db.Conversation, error) {
	var conv db.Conversation
	err := p.conn.QueryRowContext(ctx, query, args...).Scan(
		&conv.ID, &conv.TenantID, &conv.Alias, &conv.Title, &conv.Style, &conv.Summary,
		&conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	return &conv, nil
}

// UpdateConversationSummary replaces the conversation's running summary
func (p *PostgresDB) UpdateConversationSummary(ctx context.Context, id, summary string) error {
	query := `UPDATE conversations SET summary = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := p.conn.ExecContext(ctx, query, summary, id); err != nil {
		return fmt.Errorf("error updating conversation summary: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": id, "summary_chars": len(summary)}).Debug("Updated conversation summary")
	return nil
}

// ClearConversationSummary resets the summary to NULL
func (p *PostgresDB) ClearConversationSummary(ctx context.Context, id string) error {
	query := `UPDATE conversations SET summary = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := p.conn.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error clearing conversation summary: %w", err)
	}
	return nil
}

// TouchConversation updates the last-activity timestamp
func (p *PostgresDB) TouchConversation(ctx context.Context, id string) error {
	query := `UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := p.conn.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error touching conversation: %w", err)
	}
	return nil
}

// AddMessage appends a message to a conversation
func (p *PostgresDB) AddMessage(ctx context.Context, conversationID, role, content string) (*db.Message, error) {
	msgID := uuid.New().String()
	var createdAt time.Time

	query := `
	INSERT INTO messages (id, conversation_id, role, content)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`

	err := p.conn.QueryRowContext(ctx, query, msgID, conversationID, role, content).Scan(&msgID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"role":            role,
		"content_chars":   len(content),
	}).Debug("Added message to conversation")

	return &db.Message{
		ID:             msgID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      createdAt,
	}, nil
}

// GetConversationMessages retrieves all messages of a conversation in
// chronological order, in the shape the generation boundary consumes
func (p *PostgresDB) GetConversationMessages(ctx context.Context, conversationID string) ([]llm.Message, error) {
	query := `
	SELECT role, content
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}

	return messages, nil
}

// DeleteConversationMessages purges a conversation's history. The
// conversation row itself survives so its alias stays resolvable.
func (p *PostgresDB) DeleteConversationMessages(ctx context.Context, conversationID string) error {
	if _, err := p.conn.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("error deleting conversation messages: %w", err)
	}

	logger.Log.WithField("conversation_id", conversationID).Info("Purged conversation messages")
	return nil
}
