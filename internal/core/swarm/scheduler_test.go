package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/types"
)

func TestFallbackPlanIsThreeSteps(t *testing.T) {
	steps := fallbackPlan()
	require.Len(t, steps, 3)
	require.Equal(t, types.AgentExecutor, steps[0].AgentType)
	require.Equal(t, types.AgentVerifier, steps[2].AgentType)
	require.Equal(t, []string{steps[1].ID}, steps[2].DependsOn)
}

func TestNormalizeAgentTypeDefaultsToExecutor(t *testing.T) {
	require.Equal(t, types.AgentExecutor, normalizeAgentType("bogus"))
	require.Equal(t, types.AgentCritic, normalizeAgentType("Critic"))
}

func TestUpdateBlockedPromotesWhenDependenciesComplete(t *testing.T) {
	s := &Scheduler{cfg: Config{}.withDefaults()}
	a := &types.SubTask{ID: "a", Status: types.StatusCompleted}
	b := &types.SubTask{ID: "b", Status: types.StatusPending, DependsOn: []string{"a"}}
	c := &types.SubTask{ID: "c", Status: types.StatusBlocked, DependsOn: []string{"a", "b"}}
	task := &types.Task{SubTasks: []*types.SubTask{a, b, c}}

	promoted := s.updateBlocked(task)
	require.Equal(t, 1, promoted)
	require.Equal(t, types.StatusReady, b.Status)
	require.Equal(t, types.StatusBlocked, c.Status)
}

func TestTaskDoneAfterAllTerminal(t *testing.T) {
	task := &types.Task{SubTasks: []*types.SubTask{
		{Status: types.StatusCompleted},
		{Status: types.StatusFailed, RetryCount: 3, MaxRetries: 3},
	}}
	require.True(t, task.Done())
	require.True(t, task.Failed())
}

func TestExtractAppNameFromDescription(t *testing.T) {
	require.Equal(t, "Safari", extractAppName("open Safari"))
	require.Equal(t, "Visual Studio Code", extractAppName("launch the Visual Studio Code"))
}

func TestQuotedTextRegexExtractsFirstMatch(t *testing.T) {
	m := quotedTextRe.FindStringSubmatch(`type "hello world" into the field`)
	require.NotNil(t, m)
	require.Equal(t, "hello world", m[1])
}

func TestCoordinateRegexParsesBracketAndParenForms(t *testing.T) {
	require.NotNil(t, coordinateRe.FindStringSubmatch("click [120, 340]"))
	require.NotNil(t, coordinateRe.FindStringSubmatch("click (120, 340)"))
}

func TestIsDestructiveSubtaskMatchesKnownPatterns(t *testing.T) {
	require.True(t, isDestructiveSubtask(&types.SubTask{Description: "run rm -rf /tmp/old-build"}))
	require.True(t, isDestructiveSubtask(&types.SubTask{Description: "DROP TABLE users;"}))
	require.True(t, isDestructiveSubtask(&types.SubTask{Description: "git push --force origin main"}))
	require.False(t, isDestructiveSubtask(&types.SubTask{Description: "open Safari"}))
}

func TestConfirmDestructiveSkipsWhenDisabledOrHarmless(t *testing.T) {
	s := &Scheduler{cfg: Config{}.withDefaults()}
	task := &types.Task{Status: types.TaskExecuting}
	st := &types.SubTask{Description: "rm -rf build/"}
	require.Equal(t, confirmProceed, s.confirmDestructive(context.Background(), task, st))
	require.Equal(t, types.TaskExecuting, task.Status)

	s2 := &Scheduler{cfg: Config{ConfirmDestructive: true}.withDefaults()}
	harmless := &types.SubTask{Description: "open Safari"}
	require.Equal(t, confirmProceed, s2.confirmDestructive(context.Background(), task, harmless))
}

func TestConfirmDestructiveWithoutHookPausesTask(t *testing.T) {
	s := &Scheduler{cfg: Config{ConfirmDestructive: true}.withDefaults()}
	task := &types.Task{Status: types.TaskExecuting}
	st := &types.SubTask{Description: "run rm -rf /tmp/old-build"}

	outcome := s.confirmDestructive(context.Background(), task, st)
	require.Equal(t, confirmPaused, outcome)
	require.Equal(t, types.TaskPaused, task.Status)
}

func TestConfirmDestructiveHookDecides(t *testing.T) {
	approve := &Scheduler{cfg: Config{
		ConfirmDestructive: true,
		Confirm:            func(context.Context, string) bool { return true },
	}.withDefaults()}
	task := &types.Task{Status: types.TaskExecuting}
	st := &types.SubTask{Description: "sudo rm -rf /var/cache"}
	require.Equal(t, confirmProceed, approve.confirmDestructive(context.Background(), task, st))
	require.Equal(t, types.TaskExecuting, task.Status)

	reject := &Scheduler{cfg: Config{
		ConfirmDestructive: true,
		Confirm:            func(context.Context, string) bool { return false },
	}.withDefaults()}
	task2 := &types.Task{Status: types.TaskExecuting}
	require.Equal(t, confirmRejected, reject.confirmDestructive(context.Background(), task2, st))
}
