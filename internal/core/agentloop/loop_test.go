package agentloop

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/actuators"
	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/browser"
	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/execctl"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/memory"
	"github.com/agentcore/core/internal/core/session"
	"github.com/agentcore/core/internal/core/skills"
	"github.com/agentcore/core/internal/core/tools"
	"github.com/agentcore/core/internal/core/types"
)

// fakeProvider replays one canned []ai.StreamEvent per call to Stream, in
// order, so a test can script a whole multi-turn exchange deterministically.
type fakeProvider struct {
	turns  [][]ai.StreamEvent
	onCall func(call int)
	calls  int
}

func (p *fakeProvider) ID() string { return "fake" }

func (p *fakeProvider) Stream(ctx context.Context, req *ai.ChatRequest) (<-chan ai.StreamEvent, error) {
	call := p.calls
	p.calls++
	if p.onCall != nil {
		p.onCall(call)
	}
	if call >= len(p.turns) {
		call = len(p.turns) - 1
	}
	events := p.turns[call]
	ch := make(chan ai.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func textTurn(text string) []ai.StreamEvent {
	return []ai.StreamEvent{
		{Type: ai.EventTypeTextDelta, Text: text},
		{Type: ai.EventTypeMessageStop, Usage: types.Usage{InputTokens: 10, OutputTokens: 5}},
	}
}

func toolUseTurn(toolUseID, toolName string, input any) []ai.StreamEvent {
	raw, _ := json.Marshal(input)
	return []ai.StreamEvent{
		{Type: ai.EventTypeToolUseStart},
		{Type: ai.EventTypeToolUse, ToolUse: &ai.ToolUse{ID: toolUseID, Name: toolName, Input: raw}},
		{Type: ai.EventTypeMessageStop, Usage: types.Usage{InputTokens: 10, OutputTokens: 5}},
	}
}

func newTestLoop(t *testing.T, provider ai.Provider) *Loop {
	t.Helper()
	dir := t.TempDir()
	dbStore, err := db.Open(filepath.Join(dir, "test.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbStore.Close() })

	sessions := session.New(dbStore)
	memories, err := memory.New(dbStore)
	require.NoError(t, err)
	skillCache, err := skills.NewCache(dbStore)
	require.NoError(t, err)

	return New(Config{
		Provider:   provider,
		Governor:   ai.NewGovernor(1_000_000, 1_000_000),
		Model:      "test-model",
		Sessions:   sessions,
		Memories:   memories,
		SkillCache: skillCache,
		Bus:        events.NewBus(),
		Logger:     logging.Nop(),
	})
}

func newTestConversation(t *testing.T, l *Loop) *types.Conversation {
	t.Helper()
	conv, err := l.sessions.Create("test-model", types.ModeComputer, false)
	require.NoError(t, err)
	return conv
}

// TestRunAgentLoopEndsOnPlainTextReply covers the common case: a single
// turn with no tool use ends the loop immediately with that turn's text,
// and the conversation carries exactly one user and one assistant message.
func TestRunAgentLoopEndsOnPlainTextReply(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{textTurn("the weather today is sunny")}}
	l := newTestLoop(t, provider)
	conv := newTestConversation(t, l)

	req := Request{Instruction: "summarize today's calendar events for me please", Mode: types.ModeComputer}
	res, err := l.runAgentLoop(context.Background(), execctl.New(), conv, req)
	require.NoError(t, err)
	require.Equal(t, "the weather today is sunny", res.FinalText)

	require.Len(t, conv.Messages, 2)
	require.Equal(t, types.RoleUser, conv.Messages[0].Role)
	require.Equal(t, types.RoleAssistant, conv.Messages[1].Role)
	require.Equal(t, 1, provider.calls)
}

// TestRunAgentLoopDispatchesToolAndPairsResult exercises the tool-use /
// tool-result completeness invariant: every ToolUse block the model emits
// must be answered by a ToolResult block carrying the same ToolUseID, in
// the very next message, before the loop re-enters the model.
func TestRunAgentLoopDispatchesToolAndPairsResult(t *testing.T) {
	shell, err := actuators.NewShell()
	require.NoError(t, err)
	t.Cleanup(func() { _ = shell.Restart() })

	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		toolUseTurn("toolu_1", tools.ToolBash, map[string]string{"command": "echo hello-from-test"}),
		textTurn("ran the command"),
	}}
	l := newTestLoop(t, provider)
	l.shell = shell
	conv := newTestConversation(t, l)

	req := Request{Instruction: "check disk usage and report back", Mode: types.ModeComputer}
	res, err := l.runAgentLoop(context.Background(), execctl.New(), conv, req)
	require.NoError(t, err)
	require.Equal(t, "ran the command", res.FinalText)

	require.Len(t, conv.Messages, 4)
	toolUseMsg := conv.Messages[1]
	toolResultMsg := conv.Messages[2]

	require.True(t, toolUseMsg.HasToolUse())
	uses := toolUseMsg.ToolUseBlocks()
	require.Len(t, uses, 1)
	require.Equal(t, "toolu_1", uses[0].ToolUseID)

	ids := toolResultMsg.ToolResultIDs()
	require.Equal(t, []string{"toolu_1"}, ids)

	part := toolResultMsg.Content[0].ToolResultParts[0]
	require.Contains(t, part.Text, "hello-from-test")
}

// TestRunAgentLoopCancellationDuringToolDispatchProducesStoppedResult
// verifies the cooperative-cancellation path: if the run's Flag is
// stopped while a turn is mid-stream, the tool the model just requested is
// never actually dispatched — it instead gets a synthetic "stopped by
// user" ToolResult, preserving the pairing invariant, and the run itself
// ends with a "stopped by user" assistant message rather than the model's
// own text.
func TestRunAgentLoopCancellationDuringToolDispatchProducesStoppedResult(t *testing.T) {
	running := execctl.New()
	provider := &fakeProvider{
		turns: [][]ai.StreamEvent{
			toolUseTurn("toolu_stop", tools.ToolBash, map[string]string{"command": "echo should-not-run"}),
		},
		onCall: func(call int) {
			if call == 0 {
				running.Stop()
			}
		},
	}
	l := newTestLoop(t, provider)
	conv := newTestConversation(t, l)

	req := Request{Instruction: "run a long batch job and wait for it", Mode: types.ModeComputer}
	res, err := l.runAgentLoop(context.Background(), running, conv, req)
	require.NoError(t, err)
	require.Equal(t, "stopped by user", res.FinalText)

	toolResultMsg := conv.Messages[2]
	require.Equal(t, []string{"toolu_stop"}, toolResultMsg.ToolResultIDs())
	part := toolResultMsg.Content[0].ToolResultParts[0]
	require.Equal(t, "stopped by user", part.Text)

	final := conv.Messages[len(conv.Messages)-1]
	require.Equal(t, types.RoleAssistant, final.Role)
	require.Equal(t, "stopped by user", final.Content[0].Text)
}

// TestCompactStaleSnapshotsIsIdempotent guards the compaction trigger used
// in runAgentLoop's tool-result loop: running it twice over the same
// messages must not shrink the snapshot any further the second time.
func TestCompactStaleSnapshotsIsIdempotent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("uid=snap1\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("generic description line with no interactive marker padding padding padding\n")
	}
	sb.WriteString("button \"Submit\" [snap1_1]\n")
	require.Greater(t, sb.Len(), browser.CompactThreshold)

	messages := []types.Message{{
		Role: types.RoleUser,
		Content: []types.ContentBlock{{
			Kind:            types.BlockToolResult,
			ToolResultForID: "toolu_snap",
			ToolResultParts: []types.ToolResultPart{types.NewTextResultPart(sb.String())},
		}},
	}}

	compactStaleSnapshots(messages)
	once := messages[0].Content[0].ToolResultParts[0].Text
	require.Contains(t, once, "compacted")
	require.Contains(t, once, "snap1_1")

	compactStaleSnapshots(messages)
	twice := messages[0].Content[0].ToolResultParts[0].Text
	require.Equal(t, once, twice)
}

func overflowTurn() []ai.StreamEvent {
	return []ai.StreamEvent{{
		Type: ai.EventTypeError,
		Error: &ai.ProviderError{
			Code: "context_length_exceeded", Type: "invalid_request_error", Message: "prompt is too long",
		},
	}}
}

// A context overflow with a compactable snapshot in history recovers by
// compaction alone: no summarization, and the stored snapshot is downgraded
// to its interactive subset.
func TestRunAgentLoopOverflowRecoversByCompactingSnapshots(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		overflowTurn(),
		textTurn("done after compaction"),
	}}
	l := newTestLoop(t, provider)
	conv := newTestConversation(t, l)

	var sb strings.Builder
	sb.WriteString("uid=snapA\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("structural line with no interactive marker but plenty of padding text here\n")
	}
	sb.WriteString("link \"Next page\" [snapA_0]\n")
	conv.Messages = append(conv.Messages,
		types.Message{Role: types.RoleAssistant, Content: []types.ContentBlock{{
			Kind: types.BlockToolUse, ToolUseID: "toolu_snap", ToolName: tools.ToolSeePage, ToolInput: json.RawMessage(`{}`),
		}}},
		types.Message{Role: types.RoleUser, Content: []types.ContentBlock{{
			Kind: types.BlockToolResult, ToolResultForID: "toolu_snap",
			ToolResultParts: []types.ToolResultPart{types.NewTextResultPart(sb.String())},
		}}},
	)

	res, err := l.runAgentLoop(context.Background(), execctl.New(), conv, Request{
		Instruction: "keep going from where you left off", Mode: types.ModeComputer,
	})
	require.NoError(t, err)
	require.Equal(t, "done after compaction", res.FinalText)

	snapshotText := conv.Messages[1].Content[0].ToolResultParts[0].Text
	require.Contains(t, snapshotText, "compacted")
	require.Contains(t, snapshotText, "snapA_0")
	require.Equal(t, 2, provider.calls)
}

// A context overflow with nothing left to compact falls back to the
// summary path: the history collapses into one user turn carrying the
// LLM-written summary plus the original instruction, and the run continues
// from there.
func TestRunAgentLoopOverflowFallsBackToSummary(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		overflowTurn(),
		textTurn("visited the dashboard and filled in the billing form"),
		textTurn("task complete"),
	}}
	l := newTestLoop(t, provider)
	conv := newTestConversation(t, l)

	res, err := l.runAgentLoop(context.Background(), execctl.New(), conv, Request{
		Instruction: "finish filling in the billing form", Mode: types.ModeComputer,
	})
	require.NoError(t, err)
	require.Equal(t, "task complete", res.FinalText)

	require.Len(t, conv.Messages, 2)
	summaryText := conv.Messages[0].Content[0].Text
	require.Contains(t, summaryText, "Context summary of the session so far")
	require.Contains(t, summaryText, "visited the dashboard and filled in the billing form")
	require.Contains(t, summaryText, "Continue this task: finish filling in the billing form")
	require.Equal(t, 3, provider.calls)
}

// TestRunAgentLoopNeverConstructsSwarmScheduler checks the structural half
// of the swarm/single-loop mutual-exclusivity invariant documented in
// runSwarm's comment: running an instruction through runAgentLoop directly
// (the path every non-Complex, non-fast-path instruction takes) must never
// touch the lazily-constructed Scheduler, since Submit is swarm-only and
// expensive to spin up.
func TestRunAgentLoopNeverConstructsSwarmScheduler(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{textTurn("done")}}
	l := newTestLoop(t, provider)
	conv := newTestConversation(t, l)

	require.Nil(t, l.scheduler)
	_, err := l.runAgentLoop(context.Background(), execctl.New(), conv, Request{
		Instruction: "summarize my open browser tabs into a short report",
		Mode:        types.ModeComputer,
	})
	require.NoError(t, err)
	require.Nil(t, l.scheduler)
}
