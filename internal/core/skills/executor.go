package skills

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentcore/core/internal/core/types"
)

// interActionDelay is inserted between actions in a skill's sequence.
const interActionDelay = 300 * time.Millisecond

// ActionRunner executes one ActionTemplate against the live Actuators. The
// Tool Dispatcher supplies the concrete implementation so this package
// never imports actuators directly.
type ActionRunner interface {
	RunAction(ctx context.Context, action types.ActionTemplate, params map[string]string) error
}

// ProcessProbe reports whether a named application/process is currently
// running, backing the "<app> is running" condition predicate.
type ProcessProbe interface {
	IsRunning(name string) bool
}

// evaluateCondition implements the three supported predicates:
// "<app> is running", "has_<param>", "<path> exists".
func evaluateCondition(condition string, params map[string]string, probe ProcessProbe) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true
	}

	if strings.HasSuffix(condition, "is running") {
		app := strings.TrimSpace(strings.TrimSuffix(condition, "is running"))
		return probe != nil && probe.IsRunning(app)
	}

	if strings.HasPrefix(condition, "has_") {
		key := strings.TrimPrefix(condition, "has_")
		_, ok := params[key]
		return ok
	}

	if strings.HasSuffix(condition, "exists") {
		path := strings.TrimSpace(strings.TrimSuffix(condition, "exists"))
		path = expandParams(path, params)
		_, err := os.Stat(path)
		return err == nil
	}

	return false
}

func expandParams(text string, params map[string]string) string {
	out := text
	for k, v := range params {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// execute walks a skill's action list in order: evaluates each action's
// condition, runs the primary action, falls back once on failure, and
// inserts the inter-action delay between steps.
func execute(ctx context.Context, actions []types.ActionTemplate, params map[string]string, runner ActionRunner, probe ProcessProbe) error {
	for i, action := range actions {
		if !evaluateCondition(action.Condition, params, probe) {
			continue
		}

		err := runner.RunAction(ctx, expandAction(action, params), params)
		if err != nil && action.Fallback != nil {
			err = runner.RunAction(ctx, expandAction(*action.Fallback, params), params)
		}
		if err != nil {
			return fmt.Errorf("skills: action %d (%s) failed: %w", i, action.Action, err)
		}

		if i < len(actions)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interActionDelay):
			}
		}
	}
	return nil
}

func expandAction(action types.ActionTemplate, params map[string]string) types.ActionTemplate {
	if len(action.Payload) == 0 {
		return action
	}
	expanded := make(map[string]any, len(action.Payload))
	for k, v := range action.Payload {
		if s, ok := v.(string); ok {
			expanded[k] = expandParams(s, params)
		} else {
			expanded[k] = v
		}
	}
	action.Payload = expanded
	return action
}
