package webhook

import (
	"context"
	"errors"
	"fmt"

	"prompthub/internal/cache"
	"prompthub/internal/classifier"
	"prompthub/internal/llm"
	"prompthub/internal/logger"
	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
	"prompthub/internal/service/contextwindow"
	"prompthub/internal/service/identity"
	"prompthub/internal/service/summary"

	"github.com/sirupsen/logrus"
)

// ErrConfigIncomplete is returned when the tenant configuration resolves
// but lacks a credential or model. The request fails before any external
// invocation.
var ErrConfigIncomplete = errors.New("tenant generation configuration is incomplete")

// fallbackReply is used when the model returns neither text nor a closing
// message.
const fallbackReply = "No response"

// HandleMessageRequest contains all the parameters of one inbound webhook
// call.
type HandleMessageRequest struct {
	TenantID       string
	PromptID       string
	Text           string
	ConversationID string
	Alias          string
	Precheck       bool
	Threshold      float64
}

// HandleMessageResponse is the webhook reply.
type HandleMessageResponse struct {
	Text             string
	ConversationID   string
	Terminated       bool
	AnsweringMachine bool
}

// Service composes config resolution, identity resolution, context
// building, summarization and termination detection into one
// request/response cycle. Each call is an independent request-scoped unit
// of work; nothing is locked in-process, so near-simultaneous messages on
// the same conversation may interleave their read-modify-write of history
// and summary.
type Service struct {
	db         db.Database
	resolver   *configresolver.Resolver
	identity   *identity.Resolver
	summarizer *summary.Service
	generator  llm.Generator
	classifier classifier.Classifier
}

// NewService wires the webhook orchestrator.
func NewService(database db.Database, resolver *configresolver.Resolver, identityResolver *identity.Resolver, summarizer *summary.Service, generator llm.Generator, precheck classifier.Classifier) *Service {
	return &Service{
		db:         database,
		resolver:   resolver,
		identity:   identityResolver,
		summarizer: summarizer,
		generator:  generator,
		classifier: precheck,
	}
}

// HandleMessage runs one webhook request through the pipeline:
// resolve config, optionally resolve identity, build context, optionally
// summarize, invoke the model, detect termination, persist, respond.
func (s *Service) HandleMessage(ctx context.Context, req HandleMessageRequest) (*HandleMessageResponse, error) {
	entry, err := s.resolver.ResolvePrompt(ctx, req.TenantID, req.PromptID)
	if err != nil {
		return nil, err
	}
	if err := configresolver.Validate(entry); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigIncomplete, err)
	}

	// Fast pre-check on the raw text. A positive classification routes the
	// request away from generation; it never marks the turn terminal, and
	// classifier failure falls through to the normal path.
	if req.Precheck && s.classifier != nil {
		if result, err := s.classifier.Check(ctx, req.Text, req.Threshold); err != nil {
			logger.Log.WithError(err).Warn("Pre-check classifier unavailable, continuing without it")
		} else if result.IsAnsweringMachine {
			logger.Log.WithFields(logrus.Fields{
				"tenant_id": req.TenantID,
				"score":     result.SimilarityScore,
			}).Info("Pre-check classified text as automated response")
			return &HandleMessageResponse{AnsweringMachine: true}, nil
		}
	}

	// Stateless mode: no conversation identity involved at all.
	if req.ConversationID == "" && req.Alias == "" {
		return s.handleStateless(ctx, req, entry)
	}
	return s.handleStateful(ctx, req, entry)
}

// handleStateless sends only the instruction and the current text, with no
// stored history and no persistence. The termination tool is still
// advertised.
func (s *Service) handleStateless(ctx context.Context, req HandleMessageRequest, entry *cache.PromptEntry) (*HandleMessageResponse, error) {
	result, err := s.generator.Generate(ctx, llm.GenerateRequest{
		APIKey:      entry.APIKey,
		Model:       entry.Model,
		Temperature: entry.Temperature,
		SystemText:  entry.Instruction,
		UserText:    req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("generation error: %w", err)
	}

	return &HandleMessageResponse{
		Text:       replyText(result),
		Terminated: result.Terminal(),
	}, nil
}

// handleStateful runs the full context pipeline against a durable
// conversation.
func (s *Service) handleStateful(ctx context.Context, req HandleMessageRequest, entry *cache.PromptEntry) (*HandleMessageResponse, error) {
	resolution, err := s.identity.Resolve(ctx, req.TenantID, req.ConversationID, req.Alias)
	if err != nil {
		return nil, err
	}
	conv := resolution.Conversation

	history, err := s.db.GetConversationMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving conversation history: %w", err)
	}

	// Synchronous compression pass; the request latency includes it when
	// triggered. Failures leave the previous summary in place.
	summaryText := s.summarizer.MaybeSummarize(ctx, conv, history, entry.APIKey, entry.Model)

	style := ""
	if conv.Style != nil {
		style = *conv.Style
	}
	window := contextwindow.Build(history, entry.Instruction, style, summaryText)

	if _, err := s.db.AddMessage(ctx, conv.ID, llm.RoleUser, req.Text); err != nil {
		return nil, fmt.Errorf("error saving user message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"history_turns":   len(window.History),
		"system_chars":    len(window.SystemText),
	}).Debug("Prepared context window")

	result, err := s.generator.Generate(ctx, llm.GenerateRequest{
		APIKey:      entry.APIKey,
		Model:       entry.Model,
		Temperature: entry.Temperature,
		SystemText:  window.SystemText,
		History:     window.History,
		UserText:    req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("generation error: %w", err)
	}

	reply := replyText(result)
	if _, err := s.db.AddMessage(ctx, conv.ID, llm.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("error saving assistant message: %w", err)
	}

	if result.Terminal() {
		s.resetConversation(ctx, conv.ID)
	} else if err := s.db.TouchConversation(ctx, conv.ID); err != nil {
		logger.Log.WithField("conversation_id", conv.ID).WithError(err).Warn("Error updating conversation timestamp")
	}

	return &HandleMessageResponse{
		Text:           reply,
		ConversationID: conv.ID,
		Terminated:     result.Terminal(),
	}, nil
}

// resetConversation purges history and clears the summary after a terminal
// turn. The conversation record survives so its alias stays resolvable;
// the next inbound message starts a fresh dialogue under the same
// identity.
func (s *Service) resetConversation(ctx context.Context, conversationID string) {
	if err := s.db.DeleteConversationMessages(ctx, conversationID); err != nil {
		logger.Log.WithField("conversation_id", conversationID).WithError(err).Error("Error purging conversation messages")
	}
	if err := s.db.ClearConversationSummary(ctx, conversationID); err != nil {
		logger.Log.WithField("conversation_id", conversationID).WithError(err).Error("Error clearing conversation summary")
	}
	logger.Log.WithField("conversation_id", conversationID).Info("Conversation terminated by model, state reset")
}

// replyText picks the reply for one generation result: the closing message
// from a termination call, else the free text, else a placeholder.
func replyText(result *llm.GenerateResult) string {
	if result.EndCall != nil && result.EndCall.Message != "" {
		return result.EndCall.Message
	}
	if result.Text != "" {
		return result.Text
	}
	return fallbackReply
}
