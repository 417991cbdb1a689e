// Package types holds the data model shared across the agentic execution
// core: messages, content blocks, conversations, memories, skills and the
// swarm task DAG. Subsystem packages (ai, session, memory, skills, swarm)
// depend on this package; it depends on nothing else in the module.
package types

import "encoding/json"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind tags the concrete type held by a ContentBlock.
type BlockKind string

const (
	BlockText                BlockKind = "text"
	BlockThinking            BlockKind = "thinking"
	BlockRedactedThinking    BlockKind = "redacted_thinking"
	BlockToolUse             BlockKind = "tool_use"
	BlockServerToolUse       BlockKind = "server_tool_use"
	BlockToolResult          BlockKind = "tool_result"
	BlockImage               BlockKind = "image"
	BlockWebSearchToolResult BlockKind = "web_search_tool_result"
	BlockWebFetchToolResult  BlockKind = "web_fetch_tool_result"
)

// ContentBlock is a tagged union over the block kinds the LLM wire protocol
// can produce or consume. Only the fields matching Kind are populated;
// callers must switch on Kind rather than probe for non-nil fields.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// Text / Thinking
	Text string `json:"text,omitempty"`

	// RedactedThinking — opaque payload that must round-trip through
	// history untouched; the core never inspects its contents.
	Opaque string `json:"opaque,omitempty"`

	// ToolUse / ServerToolUse
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`

	// ToolResult
	ToolResultForID string           `json:"tool_result_for_id,omitempty"`
	ToolResultParts []ToolResultPart `json:"tool_result_parts,omitempty"`

	// Image
	MediaType  string `json:"media_type,omitempty"`
	Base64Data string `json:"base64_data,omitempty"`

	// WebSearchToolResult / WebFetchToolResult
	ServerToolContent json.RawMessage `json:"server_tool_content,omitempty"`
}

// ToolResultPartKind distinguishes the two shapes a tool result part can take.
type ToolResultPartKind string

const (
	ToolResultPartText  ToolResultPartKind = "text"
	ToolResultPartImage ToolResultPartKind = "image"
)

// ToolResultPart is either Text or Image content nested inside a ToolResult block.
type ToolResultPart struct {
	Kind       ToolResultPartKind `json:"kind"`
	Text       string             `json:"text,omitempty"`
	MediaType  string             `json:"media_type,omitempty"`
	Base64Data string             `json:"base64_data,omitempty"`
}

// NewTextResultPart builds a text ToolResultPart.
func NewTextResultPart(text string) ToolResultPart {
	return ToolResultPart{Kind: ToolResultPartText, Text: text}
}

// NewImageResultPart builds an image ToolResultPart.
func NewImageResultPart(mediaType, base64Data string) ToolResultPart {
	return ToolResultPart{Kind: ToolResultPartImage, MediaType: mediaType, Base64Data: base64Data}
}

// Message is one turn in a Conversation. Content is append-only within a run.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolUseBlocks returns every ToolUse block in the message, in document order.
func (m Message) ToolUseBlocks() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Kind == BlockToolUse || b.Kind == BlockServerToolUse {
			out = append(out, b)
		}
	}
	return out
}

// ToolResultIDs returns the tool_use_id of every ToolResult block in the message.
func (m Message) ToolResultIDs() []string {
	var out []string
	for _, b := range m.Content {
		if b.Kind == BlockToolResult {
			out = append(out, b.ToolResultForID)
		}
	}
	return out
}

// HasToolUse reports whether the message carries any ToolUse/ServerToolUse block.
func (m Message) HasToolUse() bool {
	return len(m.ToolUseBlocks()) > 0
}
