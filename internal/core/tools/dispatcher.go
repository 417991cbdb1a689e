// Package tools implements the Tool Dispatcher: it translates structured
// ToolUse blocks from the LLM stream into Actuator invocations and returns
// typed ToolResults, enforcing the cooperative cancellation discipline and
// the fixed tool surface spec.md §4.5 names. Grounded on the teacher's
// agent/tools package (one file per tool, a flat switch keyed by name) —
// generalized so the switch lives in one place instead of scattered across
// per-tool registration.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/internal/core/actuators"
	"github.com/agentcore/core/internal/core/browser"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/execctl"
	"github.com/agentcore/core/internal/core/research"
	"github.com/agentcore/core/internal/core/types"
)

// Tool names recognized by the dispatcher — the fixed set spec.md §4.5
// names.
const (
	ToolComputer        = "computer"
	ToolBash            = "bash"
	ToolPython          = "python"
	ToolSpeak           = "speak"
	ToolDeepResearch    = "deep_research"
	ToolSeePage         = "see_page"
	ToolPageAction      = "page_action"
	ToolBrowserNavigate = "browser_navigate"
)

// Dispatcher owns the live Actuators for one run and fans ToolUse blocks
// out to them.
type Dispatcher struct {
	Screen      *actuators.Screen
	Shell       *actuators.Shell
	Interpreter *actuators.Interpreter
	TTS         *actuators.TTS
	Browser     *browser.Driver
	Research    *research.Pipeline

	Bus            *events.Bus
	ConversationID string
	Running        *execctl.Flag
}

// Dispatch resolves one ToolUse block to a ToolResult content block. It
// never returns an error for an Actuator failure — that becomes error text
// folded into the ToolResult, per spec.md §7's propagation policy. The
// only path that can bypass a tool call is cancellation, which still
// produces a synthetic "stopped" result so the tool-use/tool-result
// invariant holds.
func (d *Dispatcher) Dispatch(ctx context.Context, toolUse types.ContentBlock) types.ContentBlock {
	if !d.Running.Running() {
		return stoppedResult(toolUse.ToolUseID)
	}

	_ = events.Emit(d.Bus, events.TopicToolStart, events.ToolStartPayload{
		ConversationID: d.ConversationID, ToolUseID: toolUse.ToolUseID, ToolName: toolUse.ToolName,
	})

	result, err, cancelled := execctl.WaitOrCancel(d.Running, func() (types.ContentBlock, error) {
		return d.dispatchOne(ctx, toolUse)
	})
	if cancelled {
		return stoppedResult(toolUse.ToolUseID)
	}
	if err != nil {
		result = errorResult(toolUse.ToolUseID, err)
	}

	_ = events.Emit(d.Bus, events.TopicTool, events.ToolResultPayload{
		ConversationID: d.ConversationID, ToolUseID: toolUse.ToolUseID, ToolName: toolUse.ToolName,
		IsError: isErrorResult(result), Summary: summarize(result),
	})
	return result
}

func (d *Dispatcher) dispatchOne(ctx context.Context, toolUse types.ContentBlock) (types.ContentBlock, error) {
	switch toolUse.ToolName {
	case ToolComputer:
		return d.dispatchComputer(toolUse)
	case ToolBash:
		return d.dispatchBash(toolUse)
	case ToolPython:
		return d.dispatchPython(ctx, toolUse)
	case ToolSpeak:
		return d.dispatchSpeak(toolUse)
	case ToolDeepResearch:
		return d.dispatchDeepResearch(ctx, toolUse)
	case ToolSeePage:
		return d.dispatchSeePage(toolUse)
	case ToolPageAction:
		return d.dispatchPageAction(toolUse)
	case ToolBrowserNavigate:
		return d.dispatchBrowserNavigate(toolUse)
	default:
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: unknown tool %q", toolUse.ToolName)), nil
	}
}

func parseInput[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func textResult(toolUseID, text string) types.ContentBlock {
	return types.ContentBlock{
		Kind: types.BlockToolResult, ToolResultForID: toolUseID,
		ToolResultParts: []types.ToolResultPart{types.NewTextResultPart(text)},
	}
}

func imageResult(toolUseID, mediaType, base64Data string) types.ContentBlock {
	return types.ContentBlock{
		Kind: types.BlockToolResult, ToolResultForID: toolUseID,
		ToolResultParts: []types.ToolResultPart{types.NewImageResultPart(mediaType, base64Data)},
	}
}

func errorResult(toolUseID string, err error) types.ContentBlock {
	return textResult(toolUseID, fmt.Sprintf("error: %s", err.Error()))
}

func stoppedResult(toolUseID string) types.ContentBlock {
	return textResult(toolUseID, "stopped by user")
}

func isErrorResult(b types.ContentBlock) bool {
	for _, p := range b.ToolResultParts {
		if p.Kind == types.ToolResultPartText &&
			(len(p.Text) > 6 && p.Text[:6] == "error:") {
			return true
		}
	}
	return false
}

func summarize(b types.ContentBlock) string {
	for _, p := range b.ToolResultParts {
		if p.Kind == types.ToolResultPartText {
			if len(p.Text) > 120 {
				return p.Text[:120] + "…"
			}
			return p.Text
		}
	}
	return "(image)"
}
