package identity

import (
	"context"
	"errors"
	"fmt"

	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Resolution is the explicit two-variant outcome of an identity lookup:
// either an existing conversation was matched (by id or by alias) or a new
// one was created.
type Resolution struct {
	Conversation *db.Conversation
	Created      bool
}

// Resolver maps loosely-typed caller-supplied keys to exactly one durable
// conversation owned by the tenant.
type Resolver struct {
	db db.Database
}

// NewResolver creates a conversation identity resolver.
func NewResolver(database db.Database) *Resolver {
	return &Resolver{db: database}
}

// Resolve finds or creates the conversation for (tenantID, conversationID,
// alias). Callers are external systems that may pass a stable business key
// (e.g. a phone number) in the conversation id field, so an id that does
// not match any conversation is retried as an alias candidate before a new
// conversation is created. The returned conversation always belongs to the
// tenant; a colliding id from another tenant never resolves.
func (r *Resolver) Resolve(ctx context.Context, tenantID, conversationID, alias string) (*Resolution, error) {
	// 1. Typed-id lookup, scoped to the tenant. Ids are UUIDs; anything
	// else (a phone number, an external key) goes straight to the alias
	// path instead of erroring against the store's UUID column.
	if conversationID != "" && uuid.Validate(conversationID) == nil {
		conv, err := r.db.GetConversation(ctx, tenantID, conversationID)
		if err == nil {
			return &Resolution{Conversation: conv}, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("error looking up conversation: %w", err)
		}
	}

	// 2. Alias lookup: the explicit alias wins, otherwise the unmatched id
	// is reinterpreted as an alias candidate.
	aliasCandidate := alias
	if aliasCandidate == "" {
		aliasCandidate = conversationID
	}
	if aliasCandidate != "" {
		conv, err := r.db.GetConversationByAlias(ctx, tenantID, aliasCandidate)
		if err == nil {
			return &Resolution{Conversation: conv}, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("error looking up conversation by alias: %w", err)
		}
	}

	// 3. Lazy creation, named after the alias when one is present.
	conv, err := r.db.CreateConversation(ctx, tenantID, aliasCandidate, aliasCandidate)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"tenant_id":       tenantID,
		"alias":           aliasCandidate,
	}).Info("Resolved new conversation")

	return &Resolution{Conversation: conv, Created: true}, nil
}
