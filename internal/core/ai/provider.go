// Package ai is the LLM adapter boundary: a streaming Provider interface,
// the Anthropic implementation backing it, and the Rate Governor that
// wraps every call with a sliding usage window and retry policy. Grounded
// on the teacher's ai.Provider/StreamEvent contract and its Anthropic SDK
// streaming implementation.
package ai

import (
	"context"
	"encoding/json"

	"github.com/agentcore/core/internal/core/types"
)

// StreamEventType tags the kind of event flowing out of a Provider.Stream call.
type StreamEventType string

const (
	EventTypeTextDelta     StreamEventType = "text_delta"
	EventTypeThinkingDelta StreamEventType = "thinking_delta"
	EventTypeToolUseStart  StreamEventType = "tool_use_start"
	EventTypeToolUse       StreamEventType = "tool_use"
	EventTypeMessageStop   StreamEventType = "message_stop"
	EventTypeError         StreamEventType = "error"
)

// StreamEvent is one unit of a streamed assistant turn.
type StreamEvent struct {
	Type      StreamEventType     `json:"type"`
	Text      string              `json:"text,omitempty"`
	ToolUse   *ToolUse            `json:"tool_use,omitempty"`
	Usage     types.Usage         `json:"usage,omitempty"`
	StopBlock *types.ContentBlock `json:"stop_block,omitempty"`
	Error     error               `json:"error,omitempty"`
}

// ToolUse is a completed tool-use block extracted from the stream.
type ToolUse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolDefinition is one tool surfaced to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ChatRequest is one LLM call: the full message history plus per-call knobs.
type ChatRequest struct {
	Messages       []types.Message  `json:"messages"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	MaxTokens      int              `json:"max_tokens,omitempty"`
	System         string           `json:"system,omitempty"`
	Model          string           `json:"model,omitempty"`
	EnableThinking bool             `json:"enable_thinking,omitempty"`
}

// Provider is the contract every LLM backend implements.
type Provider interface {
	ID() string
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}

// ProviderError is a structured error a Provider can return so callers can
// classify it without string-matching every backend's wire format.
type ProviderError struct {
	Code    string
	Type    string
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// IsContextOverflow reports whether err indicates the context window was exceeded.
func IsContextOverflow(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		if pe.Code == "context_length_exceeded" {
			return true
		}
		return pe.Type == "invalid_request_error" && containsAny(pe.Message, "context", "token", "length", "exceeded", "too long")
	}
	return false
}

// IsRateLimitOrAuth reports whether err is a rate-limit or auth failure.
func IsRateLimitOrAuth(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Code == "rate_limit_exceeded" || pe.Code == "authentication_error" ||
			pe.Type == "rate_limit_error" || pe.Type == "authentication_error"
	}
	return false
}

// IsRateLimitSignature reports whether err's message matches one of the
// rate-limit signatures the Rate Governor retries on.
func IsRateLimitSignature(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "rate limit", "429", "tokens per minute")
}

// IsRoleOrderingError reports whether err indicates the message history
// broke the provider's strict user/assistant alternation.
func IsRoleOrderingError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "roles must alternate", "incorrect role information",
		"expected alternating", "must be followed by")
}

func containsAny(s string, substrs ...string) bool {
	low := toLower(s)
	for _, sub := range substrs {
		if containsIgnoreCase(low, toLower(sub)) {
			return true
		}
	}
	return false
}

func containsIgnoreCase(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	if len(s) < len(substr) {
		return false
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
