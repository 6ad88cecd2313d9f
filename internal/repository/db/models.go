package db

import "time"

// Tenant is an owning configuration unit: provider credential, model and
// sampling temperature for every prompt and conversation underneath it.
type Tenant struct {
	ID          string
	Name        string
	OwnerID     string
	APIKey      string
	Model       string
	Temperature float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Prompt is a named instruction template bound to a tenant.
type Prompt struct {
	ID          string
	TenantID    string
	Name        string
	Instruction string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Conversation is a durable dialogue thread. Alias is an optional
// caller-supplied stable key (e.g. a phone number), unique per tenant.
// Summary holds the rolling compressed history and is nil until the first
// summarization pass.
type Conversation struct {
	ID        string
	TenantID  string
	Alias     *string
	Title     string
	Style     *string
	Summary   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of a conversation. Role is "user" or "assistant".
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}
