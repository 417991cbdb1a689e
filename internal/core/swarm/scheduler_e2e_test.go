package swarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/types"
)

// scriptedProvider answers each Stream call through respond, recording the
// user text of every request in arrival order. Safe for the scheduler's
// parallel dispatch.
type scriptedProvider struct {
	mu       sync.Mutex
	requests []string
	respond  func(req *ai.ChatRequest) (string, error)
}

func (p *scriptedProvider) ID() string { return "scripted" }

func (p *scriptedProvider) Stream(_ context.Context, req *ai.ChatRequest) (<-chan ai.StreamEvent, error) {
	p.mu.Lock()
	p.requests = append(p.requests, userText(req))
	p.mu.Unlock()

	text, err := p.respond(req)
	if err != nil {
		return nil, err
	}
	ch := make(chan ai.StreamEvent, 2)
	ch <- ai.StreamEvent{Type: ai.EventTypeTextDelta, Text: text}
	ch <- ai.StreamEvent{Type: ai.EventTypeMessageStop}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.requests))
	copy(out, p.requests)
	return out
}

func userText(req *ai.ChatRequest) string {
	for _, m := range req.Messages {
		for _, b := range m.Content {
			if b.Kind == types.BlockText {
				return b.Text
			}
		}
	}
	return ""
}

func newTestScheduler(t *testing.T, cfg Config, provider ai.Provider) (*Scheduler, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	t.Cleanup(bus.Close)
	return New(cfg, provider, "test-model", nil, nil, bus), bus
}

// A planned chain must complete in dependency order, with every subtask
// Completed and the Task itself Completed.
func TestSubmitRunsPlannedChainInDependencyOrder(t *testing.T) {
	const plan = `[
		{"description": "summarize recent sales data", "agent_type": "executor", "depends_on": [], "estimated_duration_ms": 1000},
		{"description": "assess the summary quality", "agent_type": "verifier", "depends_on": [0], "estimated_duration_ms": 1000}
	]`

	provider := &scriptedProvider{respond: func(req *ai.ChatRequest) (string, error) {
		if req.System == plannerSystemPrompt {
			return plan, nil
		}
		return "done", nil
	}}
	s, _ := newTestScheduler(t, Config{ParallelExecution: true}, provider)

	task, err := s.Submit(context.Background(), "summarize sales and check the result")
	require.NoError(t, err)
	require.Equal(t, types.TaskCompleted, task.Status)
	require.Len(t, task.SubTasks, 2)
	for _, st := range task.SubTasks {
		require.Equal(t, types.StatusCompleted, st.Status)
		require.Equal(t, "done", st.Result)
		require.NotNil(t, st.CompletedAt)
	}

	reqs := provider.recorded()
	require.Equal(t, []string{
		"summarize sales and check the result",
		"summarize recent sales data",
		"assess the summary quality",
	}, reqs)
}

// A join node must not dispatch until every one of its dependencies has
// completed, even when its dependencies run in parallel.
func TestExecuteDispatchesJoinNodeAfterAllDependencies(t *testing.T) {
	provider := &scriptedProvider{respond: func(*ai.ChatRequest) (string, error) {
		return "ok", nil
	}}
	s, _ := newTestScheduler(t, Config{ParallelExecution: true}, provider)

	a := &types.SubTask{ID: "a", Description: "summarize source A", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries}
	b := &types.SubTask{ID: "b", Description: "summarize source B", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries}
	c := &types.SubTask{ID: "c", Description: "merge both summaries", AgentType: types.AgentExecutor, DependsOn: []string{"a", "b"}, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries}
	task := &types.Task{ID: "t", Status: types.TaskExecuting, SubTasks: []*types.SubTask{a, b, c}}

	s.execute(context.Background(), task)

	require.True(t, task.Done())
	reqs := provider.recorded()
	require.Len(t, reqs, 3)
	require.Equal(t, "merge both summaries", reqs[2])
}

// A subtask that keeps failing retries exactly MaxRetries times, then is
// marked Failed; the Task surfaces the failure.
func TestExecuteRetriesUntilExhaustionThenFails(t *testing.T) {
	provider := &scriptedProvider{respond: func(*ai.ChatRequest) (string, error) {
		return "", errors.New("model backend unavailable")
	}}
	s, bus := newTestScheduler(t, Config{AutoRetry: true}, provider)

	var mu sync.Mutex
	recoveries := 0
	events.Subscribe(bus, events.TopicSwarmRecovery, func(_ context.Context, _ events.SwarmSubtaskPayload) error {
		mu.Lock()
		recoveries++
		mu.Unlock()
		return nil
	})

	st := &types.SubTask{ID: "s", Description: "summarize the findings", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: 2}
	task := &types.Task{ID: "t", Status: types.TaskExecuting, SubTasks: []*types.SubTask{st}}

	s.execute(context.Background(), task)

	require.Equal(t, types.StatusFailed, st.Status)
	require.Equal(t, 2, st.RetryCount)
	require.Len(t, provider.recorded(), 3)
	require.True(t, task.Failed())

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := recoveries
		mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			require.Equal(t, 2, n)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// A transient failure recovers: one retry, then Completed.
func TestExecuteRetryRecoversAfterTransientFailure(t *testing.T) {
	var calls int
	var mu sync.Mutex
	provider := &scriptedProvider{respond: func(*ai.ChatRequest) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return "", errors.New("model backend unavailable")
		}
		return "recovered", nil
	}}
	s, _ := newTestScheduler(t, Config{AutoRetry: true}, provider)

	st := &types.SubTask{ID: "s", Description: "summarize the findings", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries}
	task := &types.Task{ID: "t", Status: types.TaskExecuting, SubTasks: []*types.SubTask{st}}

	s.execute(context.Background(), task)

	require.Equal(t, types.StatusCompleted, st.Status)
	require.Equal(t, 1, st.RetryCount)
	require.Equal(t, "recovered", st.Result)
	require.False(t, task.Failed())
}

// A context cancellation fails every non-terminal subtask instead of
// spinning forever on a DAG that can no longer make progress.
func TestExecuteFailsRemainingSubtasksOnContextCancel(t *testing.T) {
	provider := &scriptedProvider{respond: func(*ai.ChatRequest) (string, error) {
		return "ok", nil
	}}
	s, _ := newTestScheduler(t, Config{}, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &types.SubTask{ID: "s", Description: "summarize the findings", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries}
	task := &types.Task{ID: "t", Status: types.TaskExecuting, SubTasks: []*types.SubTask{st}}

	s.execute(ctx, task)

	require.Equal(t, types.StatusFailed, st.Status)
	require.NotEmpty(t, st.Error)
}
