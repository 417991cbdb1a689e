package events

// Topic is one of the fixed event kinds the core publishes. Delivery is
// fire-and-forget; events reach a handler in emit order only on a Bus built
// with WithSyncDelivery (which orders every topic, TopicTextDelta included).
type Topic string

const (
	TopicUserMessage    Topic = "user_message"
	TopicThinking       Topic = "thinking"
	TopicResponse       Topic = "response"
	TopicStatus         Topic = "status"
	TopicTool           Topic = "tool"
	TopicToolStart      Topic = "tool_start"
	TopicThinkingDelta  Topic = "thinking_delta"
	TopicTextDelta      Topic = "text_delta"
	TopicScreenshot     Topic = "screenshot"
	TopicBashResult     Topic = "bash_result"
	TopicBrowserResult  Topic = "browser_result"
	TopicResearchResult Topic = "research_result"
	TopicPythonResult   Topic = "python_result"
	TopicWebResult      Topic = "web_result"
	TopicAction         Topic = "action"
	TopicStarted        Topic = "started"
	TopicStopped        Topic = "stopped"
	TopicFinished       Topic = "finished"
	TopicError          Topic = "error"
	TopicBorderShow     Topic = "border:show"
	TopicBorderHide     Topic = "border:hide"
	TopicSpeak          Topic = "speak"

	TopicSwarmTaskStarted      Topic = "swarm:task_started"
	TopicSwarmTaskCompleted    Topic = "swarm:task_completed"
	TopicSwarmSubtaskStarted   Topic = "swarm:subtask_started"
	TopicSwarmSubtaskCompleted Topic = "swarm:subtask_completed"
	TopicSwarmSubtaskFailed    Topic = "swarm:subtask_failed"
	TopicSwarmVerification     Topic = "swarm:verification"
	TopicSwarmRecovery         Topic = "swarm:recovery"
)

// TextDeltaPayload carries one streamed text chunk.
type TextDeltaPayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// ThinkingDeltaPayload carries one streamed thinking chunk.
type ThinkingDeltaPayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// ToolStartPayload announces a dispatched ToolUse before it resolves.
type ToolStartPayload struct {
	ConversationID string `json:"conversation_id"`
	ToolUseID      string `json:"tool_use_id"`
	ToolName       string `json:"tool_name"`
}

// ToolResultPayload announces a resolved ToolResult.
type ToolResultPayload struct {
	ConversationID string `json:"conversation_id"`
	ToolUseID      string `json:"tool_use_id"`
	ToolName       string `json:"tool_name"`
	IsError        bool   `json:"is_error"`
	Summary        string `json:"summary"`
}

// ScreenshotPayload carries a captured frame for UI preview.
type ScreenshotPayload struct {
	ConversationID string `json:"conversation_id"`
	MediaType      string `json:"media_type"`
	Base64Data     string `json:"base64_data"`
}

// StatusPayload carries a short human-readable status line.
type StatusPayload struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// ErrorPayload carries a run-ending or recoverable error for display.
type ErrorPayload struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Kind           string `json:"kind,omitempty"`
}

// SpeakPayload carries the synthesized audio for one speak tool call. Audio
// is base64-encoded (mp3 from ElevenLabs, or whatever the OS-native fallback
// produces) so it travels the same Event Bus path subscribers already use
// for JSON payloads.
type SpeakPayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	AudioBase64    string `json:"audio_base64"`
}

// SwarmTaskPayload announces task-level lifecycle transitions.
type SwarmTaskPayload struct {
	TaskID string `json:"task_id"`
	Goal   string `json:"goal,omitempty"`
}

// SwarmSubtaskPayload announces subtask-level lifecycle transitions.
type SwarmSubtaskPayload struct {
	TaskID    string `json:"task_id"`
	SubTaskID string `json:"subtask_id"`
	AgentType string `json:"agent_type"`
	Detail    string `json:"detail,omitempty"`
}
