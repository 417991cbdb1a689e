package tools

import (
	"fmt"

	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/types"
)

type speakInput struct {
	Text string `json:"text"`
}

func (d *Dispatcher) dispatchSpeak(toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[speakInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse speak input: %w", err)), nil
	}

	audio, err := d.TTS.Synthesize(in.Text)
	if err != nil {
		return types.ContentBlock{}, err
	}

	_ = events.Emit(d.Bus, events.TopicSpeak, events.SpeakPayload{
		ConversationID: d.ConversationID, Text: in.Text, AudioBase64: audio,
	})

	return textResult(toolUse.ToolUseID, "spoken"), nil
}
