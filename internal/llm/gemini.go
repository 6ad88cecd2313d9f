package llm

import (
	"context"
	"fmt"

	"prompthub/internal/logger"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Ensure GeminiGenerator implements Generator
var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator implements Generator against the Gemini API. Credentials
// are per-tenant, so a client is built per request rather than held on the
// struct.
type GeminiGenerator struct{}

// NewGeminiGenerator creates a new GeminiGenerator.
func NewGeminiGenerator() *GeminiGenerator {
	return &GeminiGenerator{}
}

// Generate sends one generation request and extracts either free text or
// the structured end-of-conversation call from the response.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("provider credential is not configured")
	}
	if req.Model == "" {
		return nil, fmt.Errorf("generation model is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating generation client: %w", err)
	}

	contents := buildContents(req)

	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		Tools:       endConversationTools(),
	}

	logger.Log.WithFields(logrus.Fields{
		"model":        req.Model,
		"turns":        len(contents),
		"system_chars": len(req.SystemText),
	}).Debug("Calling generation API")

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("error calling generation API: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("generation API returned no candidates")
	}

	return extractResult(resp.Candidates[0].Content), nil
}

// buildContents lays out the request as ordered turns: system text first as
// a user turn, then trimmed history, then the inbound user message.
func buildContents(req GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+2)
	if req.SystemText != "" {
		contents = append(contents, genai.NewContentFromText(req.SystemText, genai.RoleUser))
	}
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.UserText, genai.RoleUser))
	return contents
}

// endConversationTools declares the single callable tool advertised on
// every generation call.
func endConversationTools() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        EndToolName,
			Description: "Call this when the conversation has reached its natural end. Pass a short closing message for the user.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					EndToolArg: {
						Type:        genai.TypeString,
						Description: "Short closing message to send as the final reply.",
					},
				},
			},
		}},
	}}
}

// extractResult inspects the response parts for text and for a call to the
// end-of-conversation tool.
func extractResult(c *genai.Content) *GenerateResult {
	result := &GenerateResult{}
	for _, p := range c.Parts {
		if p.Text != "" && result.Text == "" {
			result.Text = p.Text
		}
		if p.FunctionCall != nil && p.FunctionCall.Name == EndToolName {
			call := &EndCall{}
			if raw, ok := p.FunctionCall.Args[EndToolArg]; ok {
				if s, ok := raw.(string); ok {
					call.Message = s
				}
			}
			result.EndCall = call
		}
	}
	return result
}
