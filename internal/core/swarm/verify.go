package swarm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/types"
)

const verifierSystemPrompt = `You are the Verifier agent in a task-execution swarm. Given a completed
step's description, whether it reported success, an output preview, and any error, respond with only
JSON {"passed": bool, "score": <0-1>, "issues": ["..."], "suggestions": ["..."]}.`

const criticSystemPrompt = `You are the Critic agent in a task-execution swarm. Given a summary of every
step that ran, respond with only JSON {"issues": ["..."], "suggestions": ["..."]}.`

type verifierVerdict struct {
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// verify asks the Verifier agent to assess a just-completed subtask. It is
// robust to a malformed response: on parse failure it falls back to
// passed=success, score=0.8 if success else 0.3.
func (s *Scheduler) verify(ctx context.Context, st *types.SubTask) {
	success := st.Status == types.StatusCompleted
	prompt := fmt.Sprintf("task: %s\nsuccess: %v\noutput_preview: %s\nerror: %s",
		st.Description, success, summarize(st.Result), st.Error)

	text, err := s.llmExecute(ctx, prompt, verifierSystemPrompt)

	verdict := verifierVerdict{Passed: success, Score: defaultScore(success)}
	if err == nil {
		var parsed verifierVerdict
		if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &parsed); jsonErr == nil {
			verdict = parsed
		}
	}

	st.Verification = &types.Verification{
		Passed: verdict.Passed, Score: verdict.Score,
		Issues: verdict.Issues, Suggestions: verdict.Suggestions,
	}

	_ = events.Emit(s.bus, events.TopicSwarmVerification, events.SwarmSubtaskPayload{
		TaskID: st.TaskID, SubTaskID: st.ID, AgentType: string(st.AgentType),
		Detail: fmt.Sprintf("passed=%v score=%.2f", verdict.Passed, verdict.Score),
	})
}

func defaultScore(success bool) float64 {
	if success {
		return 0.8
	}
	return 0.3
}

type criticVerdict struct {
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// criticReview asks the Critic agent over every subtask's summary.
func (s *Scheduler) criticReview(ctx context.Context, task *types.Task) {
	var prompt string
	for _, st := range task.SubTasks {
		prompt += fmt.Sprintf("- [%s] %s: %s (status=%s)\n", st.AgentType, st.Description, summarize(st.Result), st.Status)
	}

	text, err := s.llmExecute(ctx, prompt, criticSystemPrompt)
	if err != nil {
		return
	}

	var verdict criticVerdict
	if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &verdict); jsonErr != nil {
		return
	}

	_ = events.Emit(s.bus, events.TopicSwarmVerification, events.SwarmSubtaskPayload{
		TaskID: task.ID, AgentType: string(types.AgentCritic),
		Detail: fmt.Sprintf("issues=%d suggestions=%d", len(verdict.Issues), len(verdict.Suggestions)),
	})
}
