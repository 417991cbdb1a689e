package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/execctl"
	"github.com/agentcore/core/internal/core/types"
)

func newTestDispatcher() *Dispatcher {
	return &Dispatcher{
		Bus:            events.NewBus(),
		ConversationID: "conv-1",
		Running:        execctl.New(),
	}
}

func toolUseBlock(id, name string, input any) types.ContentBlock {
	raw, _ := json.Marshal(input)
	return types.ContentBlock{
		Kind: types.BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: raw,
	}
}

// An unknown tool name still produces a ToolResult — the contract with the
// LLM holds even for tools it hallucinated.
func TestDispatchUnknownToolReturnsErrorResult(t *testing.T) {
	d := newTestDispatcher()
	defer d.Bus.Close()

	res := d.Dispatch(context.Background(), toolUseBlock("tu_1", "teleport", nil))
	require.Equal(t, types.BlockToolResult, res.Kind)
	require.Equal(t, "tu_1", res.ToolResultForID)
	require.True(t, isErrorResult(res))
	require.Contains(t, res.ToolResultParts[0].Text, "unknown tool")
}

// After a stop request, a dispatch must not touch any Actuator and must
// still pair the ToolUse with a synthetic "stopped" result.
func TestDispatchAfterStopReturnsStoppedResult(t *testing.T) {
	d := newTestDispatcher()
	defer d.Bus.Close()
	d.Running.Stop()

	// Browser is nil: if the dispatch reached the handler it would panic,
	// so a clean "stopped" result proves no side-effect path ran.
	res := d.Dispatch(context.Background(), toolUseBlock("tu_2", ToolPageAction, map[string]any{"verb": "click", "uid": "x_0"}))
	require.Equal(t, "tu_2", res.ToolResultForID)
	require.Equal(t, "stopped by user", res.ToolResultParts[0].Text)
}

func TestDispatchMalformedInputBecomesErrorResult(t *testing.T) {
	d := newTestDispatcher()
	defer d.Bus.Close()

	block := types.ContentBlock{
		Kind: types.BlockToolUse, ToolUseID: "tu_3", ToolName: ToolBash,
		ToolInput: json.RawMessage(`{"command": 42}`),
	}
	res := d.Dispatch(context.Background(), block)
	require.Equal(t, "tu_3", res.ToolResultForID)
	require.True(t, isErrorResult(res))
}

func TestParseInputToleratesEmptyPayload(t *testing.T) {
	in, err := parseInput[bashInput](nil)
	require.NoError(t, err)
	require.Empty(t, in.Command)
	require.False(t, in.Restart)
}

func TestIsErrorResultOnlyMatchesErrorPrefix(t *testing.T) {
	require.True(t, isErrorResult(errorResult("tu", context.DeadlineExceeded)))
	require.False(t, isErrorResult(textResult("tu", "exit_code=0\nstdout:\nok")))
	require.False(t, isErrorResult(imageResult("tu", "image/jpeg", "aGVsbG8=")))
}

func TestSummarizeTruncatesLongText(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	s := summarize(textResult("tu", string(long)))
	require.Len(t, []rune(s), 121)
	require.Equal(t, "(image)", summarize(imageResult("tu", "image/jpeg", "aGVsbG8=")))
}
