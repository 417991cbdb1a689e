package swarm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/types"
)

// confirmOutcome is the result of gating a subtask behind
// Config.ConfirmDestructive.
type confirmOutcome int

const (
	// confirmProceed means either the subtask isn't destructive or it was
	// explicitly approved — dispatchToExecutor runs as normal.
	confirmProceed confirmOutcome = iota
	// confirmRejected means a wired Confirm hook explicitly declined.
	confirmRejected
	// confirmPaused means no Confirm hook is wired at all, so the swarm
	// cannot resolve the question itself; the Task suspends.
	confirmPaused
)

// destructiveRe matches shell commands whose effects are hard to undo.
// Grounded on spec.md §4.7's ConfirmDestructive knob and the original's
// declared-but-unused confirm_destructive flag
// (original_source/src-tauri/src/cognitive/agent_swarm.rs:182-183) — this
// is the pattern list that flag should have gated in the original too.
var destructiveRe = regexp.MustCompile(`(?i)\brm\s+-rf\b|\bsudo\s+rm\b|\bmkfs\b|\bdd\s+if=|\bformat\s+[a-z]:|\bdel\s+/s\b|\bshutdown\b|\breboot\b|\bdrop\s+table\b|\bgit\s+push\s+(?:-f|--force)\b|\bkill\s+-9\b|\bchmod\s+-R\s+777\b`)

func isDestructiveSubtask(st *types.SubTask) bool {
	return destructiveRe.MatchString(st.Description)
}

// confirmDestructive gates a destructive-looking subtask behind
// Config.Confirm when Config.ConfirmDestructive is on. A wired hook's
// answer resumes the Task immediately (approved or rejected); an unwired
// hook fails closed: the Task is marked NeedsUserInput and then Paused,
// since nothing in this core can answer the question itself (the UI shell
// that would is out of scope per spec.md §1).
func (s *Scheduler) confirmDestructive(ctx context.Context, task *types.Task, st *types.SubTask) confirmOutcome {
	if !s.cfg.ConfirmDestructive || !isDestructiveSubtask(st) {
		return confirmProceed
	}

	s.setStatus(task, types.TaskNeedsUserInput)
	if s.cfg.Confirm == nil {
		s.setStatus(task, types.TaskPaused)
		return confirmPaused
	}

	approved := s.cfg.Confirm(ctx, st.Description)
	s.setStatus(task, types.TaskExecuting)
	if approved {
		return confirmProceed
	}
	return confirmRejected
}

// dispatchToExecutor routes a subtask to the executor path spec.md §4.7
// names, keyed by keyword on the description (except for the three agent
// roles that always resolve to a pure LLM call regardless of wording).
func (s *Scheduler) dispatchToExecutor(ctx context.Context, st *types.SubTask) (string, error) {
	switch st.AgentType {
	case types.AgentPlanner, types.AgentCritic, types.AgentVerifier:
		return s.llmExecute(ctx, st.Description, rolePrompt(st.AgentType))
	}

	desc := strings.ToLower(st.Description)
	switch {
	case strings.Contains(desc, "screenshot"):
		return s.executeScreenshot()
	case strings.Contains(desc, "click"):
		return s.executeClick(ctx, st.Description)
	case strings.Contains(desc, "type") || strings.Contains(desc, "enter"):
		return s.executeType(st.Description)
	case hasActionVerb(desc, "open", "run", "launch", "execute"):
		return s.executeShell(st.Description)
	default:
		return s.llmExecute(ctx, st.Description, executorSystemPrompt)
	}
}

const executorSystemPrompt = `You are the Executor agent in a task-execution swarm. Carry out the
described step as best you can using your own reasoning and report what you did.`

func rolePrompt(agentType types.AgentType) string {
	switch agentType {
	case types.AgentCritic:
		return criticSystemPrompt
	case types.AgentVerifier:
		return verifierSystemPrompt
	default:
		return plannerSystemPrompt
	}
}

func (s *Scheduler) llmExecute(ctx context.Context, description, systemPrompt string) (string, error) {
	req := &ai.ChatRequest{
		Model:  s.model,
		System: systemPrompt,
		Messages: []types.Message{{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: description}},
		}},
	}
	return ai.CollectText(ctx, s.provider, req)
}

func (s *Scheduler) executeScreenshot() (string, error) {
	img, err := s.screen.TakeScreenshotExcludingSelfWindows()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("captured screenshot (%d bytes)", len(img)), nil
}

var coordinateRe = regexp.MustCompile(`[\[(]\s*(\d+)\s*,\s*(\d+)\s*[\])]`)

// executeClick resolves a click target either from an explicit [x, y]/(x, y)
// pair in the description, or by asking the LLM to locate the target in
// the current screenshot and return normalized {x, y} in 0-1000, falling
// back to the screen center if even that fails.
func (s *Scheduler) executeClick(ctx context.Context, description string) (string, error) {
	if m := coordinateRe.FindStringSubmatch(description); m != nil {
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		return s.clickAt(x, y)
	}

	x, y, err := s.locateClickTarget(ctx, description)
	if err != nil {
		return s.clickAt(centerX, centerY)
	}
	return s.clickAt(x, y)
}

// centerX/centerY approximate a 1000x1000 normalized screen center; the
// Screen Actuator's own coordinate space is whatever the last screenshot
// reported, so this is only the last-resort fallback.
const centerX, centerY = 500, 500

type normalizedPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Scheduler) locateClickTarget(ctx context.Context, description string) (int, int, error) {
	img, err := s.screen.TakeScreenshotExcludingSelfWindows()
	if err != nil {
		return 0, 0, err
	}

	req := &ai.ChatRequest{
		Model:  s.model,
		System: `Return only JSON {"x": <0-1000>, "y": <0-1000>} locating the described UI element, normalized to the screenshot's dimensions.`,
		Messages: []types.Message{{
			Role: types.RoleUser,
			Content: []types.ContentBlock{
				{Kind: types.BlockImage, MediaType: "image/jpeg", Base64Data: base64.StdEncoding.EncodeToString(img)},
				{Kind: types.BlockText, Text: description},
			},
		}},
	}

	text, err := ai.CollectText(ctx, s.provider, req)
	if err != nil {
		return 0, 0, err
	}

	var p normalizedPoint
	if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &p); jsonErr != nil {
		return 0, 0, jsonErr
	}
	return p.X, p.Y, nil
}

func (s *Scheduler) clickAt(x, y int) (string, error) {
	_, err := s.screen.PerformAction(types.ComputerAction{Verb: types.VerbClick, Coordinate: &types.Point{X: x, Y: y}})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("clicked at (%d, %d)", x, y), nil
}

var quotedTextRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

func (s *Scheduler) executeType(description string) (string, error) {
	text := "typed text"
	if m := quotedTextRe.FindStringSubmatch(description); m != nil {
		if m[1] != "" {
			text = m[1]
		} else {
			text = m[2]
		}
	}
	_, err := s.screen.PerformAction(types.ComputerAction{Verb: types.VerbType, Text: text})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("typed %q", text), nil
}

func (s *Scheduler) executeShell(description string) (string, error) {
	app := extractAppName(description)
	var command string
	if runtime.GOOS == "windows" {
		command = fmt.Sprintf(`start "" "%s"`, app)
	} else {
		command = fmt.Sprintf(`open -a "%s"`, app)
	}

	res, err := s.shell.Execute(command)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("swarm: launching %q exited %d: %s", app, res.ExitCode, res.Stderr)
	}
	return fmt.Sprintf("launched %q", app), nil
}

var appNameRe = regexp.MustCompile(`(?i)\b(?:open|run|launch|execute)\s+(?:the\s+)?([a-zA-Z0-9 _.-]+)`)

func extractAppName(description string) string {
	if m := appNameRe.FindStringSubmatch(description); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(description)
}

func hasActionVerb(desc string, verbs ...string) bool {
	for _, v := range verbs {
		if strings.Contains(desc, v+" ") || strings.HasPrefix(desc, v) {
			return true
		}
	}
	return false
}
