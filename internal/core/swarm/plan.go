package swarm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/types"
)

const plannerSystemPrompt = `You are the Planner agent in a task-execution swarm. Decompose the user's
goal into 2 to 6 concrete steps. Respond with only a JSON array, each element:
{"description": "...", "agent_type": "planner|executor|verifier|critic|recovery|coordinator|specialist",
 "depends_on": [<indices of prior steps this depends on, 0-based>], "estimated_duration_ms": <int>}`

type plannerStep struct {
	Description         string `json:"description"`
	AgentType           string `json:"agent_type"`
	DependsOn           []int  `json:"depends_on"`
	EstimatedDurationMS int    `json:"estimated_duration_ms"`
}

// plan asks the Planner agent to decompose goal, parsing its JSON response
// defensively. On any parse failure it falls back to a canned 3-step plan:
// observe-state -> execute -> verify.
func (s *Scheduler) plan(ctx context.Context, goal string) ([]*types.SubTask, error) {
	req := &ai.ChatRequest{
		Model:  s.model,
		System: plannerSystemPrompt,
		Messages: []types.Message{{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: goal}},
		}},
	}

	text, err := ai.CollectText(ctx, s.provider, req)
	if err != nil {
		return fallbackPlan(), nil
	}

	var steps []plannerStep
	if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &steps); jsonErr != nil || len(steps) == 0 {
		return fallbackPlan(), nil
	}

	return stepsToSubtasks(steps), nil
}

func stepsToSubtasks(steps []plannerStep) []*types.SubTask {
	ids := make([]string, len(steps))
	for i := range steps {
		ids[i] = uuid.New().String()
	}

	out := make([]*types.SubTask, len(steps))
	for i, step := range steps {
		var deps []string
		for _, idx := range step.DependsOn {
			if idx >= 0 && idx < len(ids) && idx != i {
				deps = append(deps, ids[idx])
			}
		}
		out[i] = &types.SubTask{
			ID:          ids[i],
			Description: step.Description,
			AgentType:   normalizeAgentType(step.AgentType),
			DependsOn:   deps,
			Status:      types.StatusPending,
			MaxRetries:  types.DefaultMaxRetries,
			CreatedAt:   time.Now().UTC(),
		}
	}
	return out
}

func normalizeAgentType(raw string) types.AgentType {
	switch types.AgentType(strings.ToLower(raw)) {
	case types.AgentPlanner, types.AgentExecutor, types.AgentVerifier, types.AgentCritic,
		types.AgentRecovery, types.AgentCoordinator, types.AgentSpecialist:
		return types.AgentType(strings.ToLower(raw))
	default:
		return types.AgentExecutor
	}
}

func fallbackPlan() []*types.SubTask {
	ids := []string{uuid.New().String(), uuid.New().String(), uuid.New().String()}
	now := time.Now().UTC()
	return []*types.SubTask{
		{ID: ids[0], Description: "observe current state", AgentType: types.AgentExecutor, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries, CreatedAt: now},
		{ID: ids[1], Description: "execute the goal", AgentType: types.AgentExecutor, DependsOn: []string{ids[0]}, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries, CreatedAt: now},
		{ID: ids[2], Description: "verify the result", AgentType: types.AgentVerifier, DependsOn: []string{ids[1]}, Status: types.StatusPending, MaxRetries: types.DefaultMaxRetries, CreatedAt: now},
	}
}

func extractJSONArray(text string) string {
	start := strings.IndexAny(text, "[{")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < 0 || end < start {
		return text
	}
	return text[start : end+1]
}
