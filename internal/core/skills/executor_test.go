package skills

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/types"
)

type fakeProbe struct{ running map[string]bool }

func (p fakeProbe) IsRunning(name string) bool { return p.running[name] }

type recordingRunner struct {
	actions []types.ActionTemplate
	fail    func(action types.ActionTemplate) error
}

func (r *recordingRunner) RunAction(_ context.Context, action types.ActionTemplate, _ map[string]string) error {
	r.actions = append(r.actions, action)
	if r.fail != nil {
		return r.fail(action)
	}
	return nil
}

func TestEvaluateConditionHasParam(t *testing.T) {
	params := map[string]string{"url": "https://example.com"}
	require.True(t, evaluateCondition("has_url", params, nil))
	require.False(t, evaluateCondition("has_query", params, nil))
}

func TestEvaluateConditionPathExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.True(t, evaluateCondition(path+" exists", nil, nil))
	require.False(t, evaluateCondition(filepath.Join(dir, "missing.txt")+" exists", nil, nil))
	require.True(t, evaluateCondition("{{path}} exists", map[string]string{"path": path}, nil))
}

func TestEvaluateConditionProcessProbe(t *testing.T) {
	probe := fakeProbe{running: map[string]bool{"Safari": true}}
	require.True(t, evaluateCondition("Safari is running", nil, probe))
	require.False(t, evaluateCondition("Finder is running", nil, probe))
	require.False(t, evaluateCondition("Safari is running", nil, nil))
}

// Unrecognized predicates fail closed: an action gated by a condition the
// executor cannot evaluate does not run.
func TestEvaluateConditionUnknownPredicateFailsClosed(t *testing.T) {
	require.False(t, evaluateCondition("the moon is full", nil, nil))
	require.True(t, evaluateCondition("", nil, nil))
}

func TestExecuteSkipsActionWhenConditionFalse(t *testing.T) {
	runner := &recordingRunner{}
	actions := []types.ActionTemplate{
		{Action: types.ActionBash, Condition: "has_app_name"},
		{Action: types.ActionWait},
	}

	err := execute(context.Background(), actions, nil, runner, nil)
	require.NoError(t, err)
	require.Len(t, runner.actions, 1)
	require.Equal(t, types.ActionWait, runner.actions[0].Action)
}

func TestExecuteFallbackRunsOnceOnPrimaryFailure(t *testing.T) {
	runner := &recordingRunner{fail: func(action types.ActionTemplate) error {
		if action.Action == types.ActionBrowser {
			return errors.New("no browser connected")
		}
		return nil
	}}
	actions := []types.ActionTemplate{{
		Action:   types.ActionBrowser,
		Fallback: &types.ActionTemplate{Action: types.ActionBash},
	}}

	err := execute(context.Background(), actions, nil, runner, nil)
	require.NoError(t, err)
	require.Len(t, runner.actions, 2)
	require.Equal(t, types.ActionBrowser, runner.actions[0].Action)
	require.Equal(t, types.ActionBash, runner.actions[1].Action)
}

func TestExecuteFailsWhenFallbackAlsoFails(t *testing.T) {
	runner := &recordingRunner{fail: func(types.ActionTemplate) error {
		return errors.New("input backend unavailable")
	}}
	actions := []types.ActionTemplate{{
		Action:   types.ActionComputer,
		Fallback: &types.ActionTemplate{Action: types.ActionBash},
	}}

	err := execute(context.Background(), actions, nil, runner, nil)
	require.Error(t, err)
	require.Len(t, runner.actions, 2)
}

func TestExecuteExpandsParamsIntoPayload(t *testing.T) {
	runner := &recordingRunner{}
	actions := []types.ActionTemplate{{
		Action:  types.ActionBrowser,
		Payload: map[string]any{"verb": "go_to_url", "url": "{{url}}"},
	}}

	err := execute(context.Background(), actions, map[string]string{"url": "https://example.com"}, runner, nil)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", runner.actions[0].Payload["url"])
}

func TestRecordExecutionAppliesEMA(t *testing.T) {
	sk := &types.Skill{SuccessRate: 1.0}
	sk.RecordExecution(false, 100)
	require.InDelta(t, 0.8, sk.SuccessRate, 1e-9)
	sk.RecordExecution(true, 300)
	require.InDelta(t, 0.84, sk.SuccessRate, 1e-9)
	require.Equal(t, 2, sk.TotalUses)
	require.InDelta(t, 200, sk.AvgExecutionMS, 1e-9)
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "skills.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cache, err := NewCache(store)
	require.NoError(t, err)
	return cache
}

func TestLearnFromSubtaskGating(t *testing.T) {
	cache := newTestCache(t)
	actions := []types.ActionTemplate{{Action: types.ActionThink}}

	// Failed subtasks never become skills.
	require.Nil(t, cache.LearnFromSubtask("compress quarterly invoices", actions, false))

	// Too few usable keywords.
	require.Nil(t, cache.LearnFromSubtask("do it", actions, true))

	// Keyword overlap with a predefined skill suppresses the duplicate.
	require.Nil(t, cache.LearnFromSubtask("open spreadsheet application", actions, true))

	sk := cache.LearnFromSubtask("compress quarterly invoices automatically", actions, true)
	require.NotNil(t, sk)
	require.InDelta(t, 0.8, sk.SuccessRate, 1e-9)
	require.Equal(t, 1, sk.TotalUses)
	require.False(t, sk.Predefined)

	// Learning the same pattern again is suppressed by its own keywords.
	require.Nil(t, cache.LearnFromSubtask("compress quarterly invoices automatically", actions, true))
}
