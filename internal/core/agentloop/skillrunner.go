package agentloop

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/agentcore/core/internal/core/types"
)

// loopActionRunner adapts the Skill Cache's ActionRunner interface onto the
// loop's live Actuators/Browser driver, so a cached skill's canned action
// sequence drives the same actuator surface a normal tool call would.
type loopActionRunner struct {
	loop *Loop
}

func (r *loopActionRunner) RunAction(ctx context.Context, action types.ActionTemplate, params map[string]string) error {
	switch action.Action {
	case types.ActionComputer:
		ca, err := decodeComputerAction(action.Payload)
		if err != nil {
			return fmt.Errorf("agentloop: skill computer action: %w", err)
		}
		_, err = r.loop.ensureScreen().PerformAction(ca)
		return err

	case types.ActionBash:
		cmd, _ := action.Payload["command"].(string)
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("agentloop: skill bash action missing command")
		}
		res, err := r.loop.shell.Execute(cmd)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("agentloop: command exited %d: %s", res.ExitCode, res.Stderr)
		}
		return nil

	case types.ActionBrowser:
		return r.loop.runSkillBrowserAction(ctx, action.Payload)

	case types.ActionWait:
		return waitFor(ctx, action.Payload)

	case types.ActionThink:
		// Annotation only — a think step exists to document intent between
		// actions, not to perform one.
		return nil

	case types.ActionVerify:
		// Cached skills are deterministic replays; verification against the
		// live screen belongs to the LLM-driven loop, not the fast path.
		return nil

	default:
		return fmt.Errorf("agentloop: unknown skill action kind %q", action.Action)
	}
}

func decodeComputerAction(payload map[string]any) (types.ComputerAction, error) {
	var ca types.ComputerAction
	verb, _ := payload["verb"].(string)
	ca.Verb = types.ComputerVerb(verb)
	ca.Text, _ = payload["text"].(string)
	ca.Key, _ = payload["key"].(string)
	ca.ScrollDirection, _ = payload["scroll_direction"].(string)
	if amt, ok := payload["scroll_amount"].(float64); ok {
		ca.ScrollAmount = int(amt)
	}
	if coord, ok := payload["coordinate"].(map[string]any); ok {
		ca.Coordinate = pointFromMap(coord)
	}
	if coord, ok := payload["start_coordinate"].(map[string]any); ok {
		ca.StartCoordinate = pointFromMap(coord)
	}
	if ca.Verb == "" {
		return ca, fmt.Errorf("missing verb")
	}
	return ca, nil
}

func pointFromMap(m map[string]any) *types.Point {
	x, _ := m["x"].(float64)
	y, _ := m["y"].(float64)
	return &types.Point{X: int(x), Y: int(y)}
}

func waitFor(ctx context.Context, payload map[string]any) error {
	ms := 500
	switch v := payload["ms"].(type) {
	case float64:
		ms = int(v)
	case int:
		ms = v
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	}
}

// runSkillBrowserAction drives the same Tab surface page_action/
// browser_navigate tool dispatch uses, keyed by the payload's "verb".
func (l *Loop) runSkillBrowserAction(ctx context.Context, payload map[string]any) error {
	tab, err := l.ensureBrowserTab(ctx)
	if err != nil {
		return err
	}

	verb, _ := payload["verb"].(string)
	switch verb {
	case "go_to_url":
		url, _ := payload["url"].(string)
		return tab.GoToURL(url)
	case "click":
		uid, _ := payload["uid"].(string)
		return tab.Click(uid)
	case "fill":
		uid, _ := payload["uid"].(string)
		text, _ := payload["text"].(string)
		return tab.Fill(uid, text)
	case "press_key":
		uid, _ := payload["uid"].(string)
		key, _ := payload["key"].(string)
		return tab.PressKey(uid, key)
	default:
		return fmt.Errorf("agentloop: unsupported skill browser verb %q", verb)
	}
}

// loopProcessProbe backs the "<app> is running" skill condition predicate by
// shelling out to the platform's process listing — the same shell-out
// discipline the actuators package already uses for TTS/permissions rather
// than a cgo process-enumeration binding.
type loopProcessProbe struct{}

func (loopProcessProbe) IsRunning(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	switch runtime.GOOS {
	case "windows":
		out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("IMAGENAME eq %s.exe", name)).Output()
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(string(out)), strings.ToLower(name))
	default:
		return exec.Command("pgrep", "-if", name).Run() == nil
	}
}
