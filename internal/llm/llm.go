package llm

import "context"

// Role values as stored and as sent to the provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EndToolName is the single tool advertised on every generation call. The
// model invokes it instead of answering when it decides the dialogue is over.
const EndToolName = "end_conversation"

// EndToolArg is the name of the optional closing-message argument.
const EndToolArg = "message"

// Message is one history turn in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

// GenerateRequest carries everything one generation call needs. The
// credential and model come from the tenant configuration and must already
// be resolved to non-empty values.
type GenerateRequest struct {
	APIKey      string
	Model       string
	Temperature float64
	SystemText  string
	History     []Message
	UserText    string
}

// EndCall is the structured end-of-conversation signal extracted from a
// model response.
type EndCall struct {
	Message string
}

// GenerateResult is either free text, a termination call, or both (the
// model may emit a farewell text part alongside the call).
type GenerateResult struct {
	Text    string
	EndCall *EndCall
}

// Terminal reports whether the model issued the end-of-conversation signal.
func (r *GenerateResult) Terminal() bool {
	return r.EndCall != nil
}

// Generator is the external generation boundary.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}
