package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prompthub/internal/cache"
	"prompthub/internal/classifier"
	"prompthub/internal/llm"
	"prompthub/internal/repository/db"
	"prompthub/internal/service/configresolver"
	"prompthub/internal/service/identity"
	"prompthub/internal/service/summary"
	"prompthub/internal/testutil"
)

// harness bundles one webhook service over function-field mocks with a
// real in-process cache.
type harness struct {
	db        *testutil.MockDatabase
	cache     *cache.Memory
	generator *testutil.MockGenerator
	service   *Service
}

func newHarness(mockDB *testutil.MockDatabase, generator *testutil.MockGenerator, precheck classifier.Classifier) *harness {
	backend := cache.NewMemory()
	resolver := configresolver.NewResolver(backend, mockDB)
	summarizer := summary.NewService(mockDB, generator, "Summarize the conversation below.")
	service := NewService(mockDB, resolver, identity.NewResolver(mockDB), summarizer, generator, precheck)
	return &harness{db: mockDB, cache: backend, generator: generator, service: service}
}

func configuredTenant() *db.Tenant {
	return &db.Tenant{
		ID:          "T1",
		Name:        "Acme",
		OwnerID:     "o1",
		APIKey:      "key-1",
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
	}
}

func configuredPrompt() *db.Prompt {
	return &db.Prompt{ID: "P1", TenantID: "T1", Name: "greeting", Instruction: "Be friendly"}
}

// statefulMockDB wires a minimal in-memory conversation store around the
// function-field mock.
func statefulMockDB(t *testing.T) (*testutil.MockDatabase, *[]llm.Message) {
	t.Helper()
	messages := &[]llm.Message{}
	conv := &db.Conversation{ID: "conv-1", TenantID: "T1"}

	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			if id != "T1" {
				return nil, db.ErrNotFound
			}
			return configuredTenant(), nil
		},
		GetPromptFunc: func(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
			if tenantID != "T1" || promptID != "P1" {
				return nil, db.ErrNotFound
			}
			return configuredPrompt(), nil
		},
		GetConversationFunc: func(ctx context.Context, tenantID, id string) (*db.Conversation, error) {
			return nil, db.ErrNotFound
		},
		GetConversationByAliasFunc: func(ctx context.Context, tenantID, alias string) (*db.Conversation, error) {
			if conv.Alias != nil && *conv.Alias == alias {
				return conv, nil
			}
			return nil, db.ErrNotFound
		},
		CreateConversationFunc: func(ctx context.Context, tenantID, alias, title string) (*db.Conversation, error) {
			a := alias
			conv.Alias = &a
			conv.Title = title
			return conv, nil
		},
		GetConversationMessagesFunc: func(ctx context.Context, conversationID string) ([]llm.Message, error) {
			return append([]llm.Message(nil), *messages...), nil
		},
		AddMessageFunc: func(ctx context.Context, conversationID, role, content string) (*db.Message, error) {
			*messages = append(*messages, llm.Message{Role: role, Content: content})
			return &db.Message{ConversationID: conversationID, Role: role, Content: content}, nil
		},
		DeleteConversationMessagesFunc: func(ctx context.Context, conversationID string) error {
			*messages = (*messages)[:0]
			return nil
		},
		ClearConversationSummaryFunc: func(ctx context.Context, id string) error {
			conv.Summary = nil
			return nil
		},
		UpdateConversationSummaryFunc: func(ctx context.Context, id, summary string) error {
			conv.Summary = &summary
			return nil
		},
		TouchConversationFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	return mockDB, messages
}

func TestHandleMessageColdCacheConversationStart(t *testing.T) {
	ctx := context.Background()
	mockDB, messages := statefulMockDB(t)
	generator := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
			return &llm.GenerateResult{Text: "Hello! How can I help?"}, nil
		},
	}
	h := newHarness(mockDB, generator, nil)

	resp, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "T1",
		PromptID: "P1",
		Alias:    "+15551234",
		Text:     "Hi",
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	if resp.Text != "Hello! How can I help?" {
		t.Errorf("unexpected reply %q", resp.Text)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("expected conversation id in response, got %q", resp.ConversationID)
	}
	if resp.Terminated || resp.AnsweringMachine {
		t.Error("plain turn must not be flagged terminal or automated")
	}

	// Both turns persisted in order.
	if len(*messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(*messages))
	}
	if (*messages)[0].Role != llm.RoleUser || (*messages)[0].Content != "Hi" {
		t.Errorf("unexpected first message %+v", (*messages)[0])
	}
	if (*messages)[1].Role != llm.RoleAssistant {
		t.Errorf("unexpected second message %+v", (*messages)[1])
	}

	// The cold cache must now hold both scoped snapshots.
	if _, err := h.cache.GetPrompt(ctx, "T1", "P1"); err != nil {
		t.Errorf("expected prompt entry cached after cold resolution: %v", err)
	}
	if _, err := h.cache.GetTenant(ctx, "T1"); err != nil {
		t.Errorf("expected tenant entry cached after cold resolution: %v", err)
	}

	// The generation call carries the instruction and tenant credentials.
	if len(generator.Requests) != 1 {
		t.Fatalf("expected one generation call, got %d", len(generator.Requests))
	}
	req := generator.Requests[0]
	if req.APIKey != "key-1" || req.Model != "gemini-2.5-flash" || req.Temperature != 0.7 {
		t.Errorf("expected tenant credentials on the request, got %+v", req)
	}
	if !strings.Contains(req.SystemText, "Be friendly") {
		t.Errorf("expected instruction in system text, got %q", req.SystemText)
	}
}

func TestHandleMessageSecondCallHitsCache(t *testing.T) {
	ctx := context.Background()
	mockDB, _ := statefulMockDB(t)

	promptLookups := 0
	inner := mockDB.GetPromptFunc
	mockDB.GetPromptFunc = func(ctx context.Context, tenantID, promptID string) (*db.Prompt, error) {
		promptLookups++
		return inner(ctx, tenantID, promptID)
	}

	generator := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
			return &llm.GenerateResult{Text: "ok"}, nil
		},
	}
	h := newHarness(mockDB, generator, nil)

	for i := 0; i < 2; i++ {
		if _, err := h.service.HandleMessage(ctx, HandleMessageRequest{
			TenantID: "T1", PromptID: "P1", Alias: "+15551234", Text: "Hi",
		}); err != nil {
			t.Fatalf("HandleMessage %d failed: %v", i, err)
		}
	}
	if promptLookups != 1 {
		t.Errorf("expected a single store lookup across two calls, got %d", promptLookups)
	}
}

func TestHandleMessageTermination(t *testing.T) {
	ctx := context.Background()
	mockDB, messages := statefulMockDB(t)

	summaryCleared := false
	mockDB.ClearConversationSummaryFunc = func(ctx context.Context, id string) error {
		summaryCleared = true
		return nil
	}

	generator := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
			return &llm.GenerateResult{EndCall: &llm.EndCall{Message: "Goodbye!"}}, nil
		},
	}
	h := newHarness(mockDB, generator, nil)

	resp, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "T1", PromptID: "P1", Alias: "+15551234", Text: "bye",
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	if !resp.Terminated {
		t.Error("expected terminal flag")
	}
	if resp.Text != "Goodbye!" {
		t.Errorf("expected the closing message as reply, got %q", resp.Text)
	}
	if len(*messages) != 0 {
		t.Errorf("expected purged history after termination, got %d messages", len(*messages))
	}
	if !summaryCleared {
		t.Error("expected summary cleared after termination")
	}
}

func TestHandleMessageStateless(t *testing.T) {
	ctx := context.Background()
	mockDB, _ := statefulMockDB(t)

	persisted := false
	mockDB.AddMessageFunc = func(ctx context.Context, conversationID, role, content string) (*db.Message, error) {
		persisted = true
		return nil, errors.New("must not persist in stateless mode")
	}

	generator := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
			return &llm.GenerateResult{Text: "one-shot answer"}, nil
		},
	}
	h := newHarness(mockDB, generator, nil)

	resp, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "T1", PromptID: "P1", Text: "quick question",
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	if resp.ConversationID != "" {
		t.Errorf("stateless reply must not carry a conversation id, got %q", resp.ConversationID)
	}
	if persisted {
		t.Error("stateless mode must not persist any message")
	}
	req := generator.Requests[0]
	if len(req.History) != 0 {
		t.Errorf("stateless request must carry no history, got %d turns", len(req.History))
	}
	if req.SystemText != "Be friendly" {
		t.Errorf("expected bare instruction as system text, got %q", req.SystemText)
	}
}

func TestHandleMessagePrecheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		check            func(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error)
		wantMachine      bool
		wantGenerateCall bool
	}{
		{
			name: "positive classification skips generation",
			check: func(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error) {
				return &classifier.Result{IsAnsweringMachine: true, SimilarityScore: 0.92}, nil
			},
			wantMachine: true,
		},
		{
			name: "negative classification continues",
			check: func(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error) {
				return &classifier.Result{SimilarityScore: 0.12}, nil
			},
			wantGenerateCall: true,
		},
		{
			name: "classifier failure continues",
			check: func(ctx context.Context, phrase string, threshold float64) (*classifier.Result, error) {
				return nil, errors.New("classifier unavailable")
			},
			wantGenerateCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, _ := statefulMockDB(t)
			generator := &testutil.MockGenerator{
				GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
					return &llm.GenerateResult{Text: "ok"}, nil
				},
			}
			h := newHarness(mockDB, generator, &testutil.MockClassifier{CheckFunc: tt.check})

			resp, err := h.service.HandleMessage(ctx, HandleMessageRequest{
				TenantID: "T1", PromptID: "P1", Text: "Please leave a message after the tone",
				Precheck: true, Threshold: 0.75,
			})
			if err != nil {
				t.Fatalf("HandleMessage failed: %v", err)
			}

			if resp.AnsweringMachine != tt.wantMachine {
				t.Errorf("AnsweringMachine = %v, want %v", resp.AnsweringMachine, tt.wantMachine)
			}
			if tt.wantMachine && resp.Terminated {
				t.Error("pre-check routing must never mark the turn terminal")
			}
			if got := len(generator.Requests) > 0; got != tt.wantGenerateCall {
				t.Errorf("generation called = %v, want %v", got, tt.wantGenerateCall)
			}
		})
	}
}

func TestHandleMessageSummarizationFires(t *testing.T) {
	ctx := context.Background()
	mockDB, messages := statefulMockDB(t)

	// Pre-load history past the summarization threshold.
	for i := 0; i < 20; i++ {
		*messages = append(*messages, llm.Message{Role: llm.RoleUser, Content: strings.Repeat("x", 1000)})
	}

	var summaryReq *llm.GenerateRequest
	generator := &testutil.MockGenerator{}
	generator.GenerateFunc = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
		if len(generator.Requests) == 1 {
			summaryReq = &generator.Requests[0]
			return &llm.GenerateResult{Text: "condensed history"}, nil
		}
		return &llm.GenerateResult{Text: "reply"}, nil
	}
	h := newHarness(mockDB, generator, nil)

	resp, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "T1", PromptID: "P1", Alias: "+15551234", Text: "continue",
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if resp.Text != "reply" {
		t.Errorf("unexpected reply %q", resp.Text)
	}

	if len(generator.Requests) != 2 {
		t.Fatalf("expected summarization + main generation, got %d calls", len(generator.Requests))
	}
	if summaryReq.Temperature != 0.3 {
		t.Errorf("expected summarization at temperature 0.3, got %v", summaryReq.Temperature)
	}

	// The main call's system text carries the fresh summary.
	mainReq := generator.Requests[1]
	if !strings.Contains(mainReq.SystemText, "condensed history") {
		t.Errorf("expected new summary in system text, got %q", mainReq.SystemText)
	}
}

func TestHandleMessageIncompleteConfig(t *testing.T) {
	ctx := context.Background()
	mockDB, _ := statefulMockDB(t)
	mockDB.GetTenantFunc = func(ctx context.Context, id string) (*db.Tenant, error) {
		tenant := configuredTenant()
		tenant.APIKey = ""
		return tenant, nil
	}

	h := newHarness(mockDB, &testutil.MockGenerator{}, nil)
	_, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "T1", PromptID: "P1", Text: "Hi",
	})
	if !errors.Is(err, ErrConfigIncomplete) {
		t.Errorf("expected ErrConfigIncomplete, got %v", err)
	}
}

func TestHandleMessageUnknownTenant(t *testing.T) {
	ctx := context.Background()
	mockDB := &testutil.MockDatabase{
		GetTenantFunc: func(ctx context.Context, id string) (*db.Tenant, error) {
			return nil, db.ErrNotFound
		},
	}

	h := newHarness(mockDB, &testutil.MockGenerator{}, nil)
	_, err := h.service.HandleMessage(ctx, HandleMessageRequest{
		TenantID: "ghost", PromptID: "P1", Text: "Hi",
	})
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		name   string
		result llm.GenerateResult
		want   string
	}{
		{
			name:   "free text",
			result: llm.GenerateResult{Text: "hello"},
			want:   "hello",
		},
		{
			name:   "closing message wins over text",
			result: llm.GenerateResult{Text: "hello", EndCall: &llm.EndCall{Message: "bye"}},
			want:   "bye",
		},
		{
			name:   "termination without message falls back to text",
			result: llm.GenerateResult{Text: "hello", EndCall: &llm.EndCall{}},
			want:   "hello",
		},
		{
			name:   "nothing at all",
			result: llm.GenerateResult{},
			want:   fallbackReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := replyText(&tt.result); got != tt.want {
				t.Errorf("replyText() = %q, want %q", got, tt.want)
			}
		})
	}
}
