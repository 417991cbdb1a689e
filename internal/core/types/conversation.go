package types

import "time"

// Mode selects which Actuator surface a run drives.
type Mode string

const (
	ModeComputer Mode = "computer"
	ModeBrowser  Mode = "browser"
)

// Usage accumulates on a Conversation and feeds the Rate Governor.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// Add accumulates u2 into u and returns the result.
func (u Usage) Add(u2 Usage) Usage {
	return Usage{
		InputTokens:              u.InputTokens + u2.InputTokens,
		OutputTokens:             u.OutputTokens + u2.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens + u2.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens + u2.CacheReadInputTokens,
	}
}

// Conversation is the persisted unit of run state. Loaded at run start,
// saved after every completed turn.
type Conversation struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Model             string    `json:"model"`
	Mode              Mode      `json:"mode"`
	Messages          []Message `json:"messages"`
	TotalInputTokens  int       `json:"total_input_tokens"`
	TotalOutputTokens int       `json:"total_output_tokens"`
	Created           time.Time `json:"created"`
	Updated           time.Time `json:"updated"`
	VoiceMode         bool      `json:"voice_mode"`
}

// TitleThreshold is the message count past which a title is auto-derived
// from the first user message.
const TitleThreshold = 4

// NeedsTitle reports whether the conversation has crossed the auto-title
// threshold without yet having a title.
func (c *Conversation) NeedsTitle() bool {
	return c.Title == "" && len(c.Messages) >= TitleThreshold
}

// RecordUsage adds a turn's usage to the conversation's running totals.
func (c *Conversation) RecordUsage(u Usage) {
	c.TotalInputTokens += u.InputTokens
	c.TotalOutputTokens += u.OutputTokens
}
