package summary

import (
	"context"

	"prompthub/internal/llm"
	"prompthub/internal/logger"
	"prompthub/internal/repository/db"

	"github.com/sirupsen/logrus"
)

const (
	// approxThreshold is the combined summary+history size past which a
	// summarization pass fires.
	approxThreshold = 15000
	// bufferBudget caps how much oldest-first history goes into one
	// summarization call.
	bufferBudget = 8000
	// summaryTemperature keeps the compression deterministic-ish.
	summaryTemperature = 0.3
)

// Service compresses oversized conversation history into the running
// summary. It runs synchronously inside the triggering request, before the
// main generation call. Every failure here is non-fatal: the caller keeps
// the previous summary and proceeds.
type Service struct {
	db        db.Database
	generator llm.Generator
	prompt    string
}

// NewService creates a summarization service. prompt is the instruction
// sent ahead of the history buffer.
func NewService(database db.Database, generator llm.Generator, prompt string) *Service {
	return &Service{db: database, generator: generator, prompt: prompt}
}

// ShouldSummarize reports whether the combined size of the running summary
// and the full history exceeds the threshold.
func ShouldSummarize(summary string, history []llm.Message) bool {
	approxLen := len(summary)
	for _, m := range history {
		approxLen += len(m.Content)
	}
	return approxLen > approxThreshold
}

// MaybeSummarize compresses the conversation history when it is oversized
// and a provider credential is available. It returns the summary to use
// for context building: the freshly extended one on success, the previous
// one untouched on any failure.
func (s *Service) MaybeSummarize(ctx context.Context, conv *db.Conversation, history []llm.Message, apiKey, model string) string {
	previous := ""
	if conv.Summary != nil {
		previous = *conv.Summary
	}

	if apiKey == "" || !ShouldSummarize(previous, history) {
		return previous
	}

	buffer := buildBuffer(history)
	if buffer == "" {
		return previous
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"buffer_chars":    len(buffer),
	}).Info("History oversized, summarizing")

	result, err := s.generator.Generate(ctx, llm.GenerateRequest{
		APIKey:      apiKey,
		Model:       model,
		Temperature: summaryTemperature,
		UserText:    s.prompt + "\n\n" + buffer,
	})
	if err != nil {
		logger.Log.WithField("conversation_id", conv.ID).WithError(err).Warn("Summarization call failed, keeping previous summary")
		return previous
	}
	if result.Text == "" {
		logger.Log.WithField("conversation_id", conv.ID).Warn("Summarization returned no text, keeping previous summary")
		return previous
	}

	updated := result.Text
	if previous != "" {
		updated = previous + "\n" + result.Text
	}

	if err := s.db.UpdateConversationSummary(ctx, conv.ID, updated); err != nil {
		logger.Log.WithField("conversation_id", conv.ID).WithError(err).Warn("Failed to persist summary")
		return previous
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"summary_chars":   len(updated),
	}).Info("Persisted updated summary")
	return updated
}

// buildBuffer concatenates oldest-first "role: content" lines until the
// next line would exceed the buffer budget.
func buildBuffer(history []llm.Message) string {
	var buffer string
	for _, m := range history {
		line := m.Role + ": " + m.Content + "\n"
		if len(buffer)+len(line) > bufferBudget {
			break
		}
		buffer += line
	}
	return buffer
}
