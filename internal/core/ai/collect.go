package ai

import (
	"context"
	"strings"
)

// CollectText drains a Stream call to its concatenated text-delta content.
// Callers that need the full text of a non-tool-use turn (Planner, Critic,
// Verifier, Deep Research synthesis) use this instead of consuming the
// stream themselves.
func CollectText(ctx context.Context, provider Provider, req *ChatRequest) (string, error) {
	events, err := provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for ev := range events {
		switch ev.Type {
		case EventTypeTextDelta:
			sb.WriteString(ev.Text)
		case EventTypeError:
			return sb.String(), ev.Error
		}
	}
	return sb.String(), nil
}
