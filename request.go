package builder

import (
	"fmt"
	"strings"
	"time"
)

// Request carries one turn sent to the AI collaborator: the system prompt,
// prior messages of the session and the new user message.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Messages     []ChatMessage
	UserMessage  string
	MaxTokens    int      // 0 = provider default
	Temperature  *float64 // nil = provider default
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserMessage) == "" {
		return fmt.Errorf("user message must not be empty: %w", ErrValidation)
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	for i, m := range r.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message %d has unknown role %q: %w", i, m.Role, ErrValidation)
		}
	}
	return nil
}

// Conversation returns the prior messages followed by the user message,
// the shape every provider sends upstream.
func (r Request) Conversation() []ChatMessage {
	msgs := make([]ChatMessage, 0, len(r.Messages)+1)
	msgs = append(msgs, r.Messages...)
	return append(msgs, ChatMessage{Role: RoleUser, Content: r.UserMessage, Timestamp: time.Now()})
}
