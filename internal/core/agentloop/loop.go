// Package agentloop implements the Single-Agent Loop (spec.md §4.6): the
// orchestrator that ties the Entry Router, Skill Cache, Swarm Scheduler,
// Tool Dispatcher, Memory Store and Conversation Store into one run of an
// instruction. Grounded on the teacher's internal/agent/runner.Run/runLoop
// control flow — system-prompt assembly, a bounded streaming tool-call
// loop with a `continue`-to-reenter shape, and proactive/reactive context
// compaction — adapted to this core's fixed 8-tool surface and typed
// ContentBlock model instead of the teacher's STRAP tool registry.
package agentloop

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/core/internal/core/actuators"
	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/browser"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/execctl"
	"github.com/agentcore/core/internal/core/memory"
	"github.com/agentcore/core/internal/core/metrics"
	"github.com/agentcore/core/internal/core/research"
	"github.com/agentcore/core/internal/core/router"
	"github.com/agentcore/core/internal/core/session"
	"github.com/agentcore/core/internal/core/skills"
	"github.com/agentcore/core/internal/core/swarm"
	"github.com/agentcore/core/internal/core/tools"
	"github.com/agentcore/core/internal/core/types"
)

// MaxIterations bounds one run's streaming tool-call loop. Hitting it ends
// the run with an explanatory message rather than an error — per spec.md
// §4.6 this is a normal terminal state, not a failure.
const MaxIterations = 50

// Config constructs a Loop from the process's wired subsystems. Every
// field is required except BrowserProfileDir/SwarmPollCeiling, which take
// sane defaults.
type Config struct {
	Provider    ai.Provider
	Governor    *ai.Governor
	Model       string
	Sessions    *session.Store
	Memories    *memory.Store
	SkillCache  *skills.Cache
	Bus         *events.Bus
	Shell       *actuators.Shell
	Interpreter *actuators.Interpreter
	TTS         *actuators.TTS
	SwarmConfig swarm.Config
	Metrics     *metrics.Registry

	BrowserProfileDir string
	BrowserStealthOn  bool
	SwarmPollCeiling  time.Duration

	Logger *slog.Logger
}

// Loop owns one process's worth of long-lived subsystems and runs each
// instruction through Run. It is safe for one instruction to run at a time
// per Loop; the cmd entrypoint serializes runs.
type Loop struct {
	provider ai.Provider
	governor *ai.Governor
	model    string

	sessions   *session.Store
	memories   *memory.Store
	skillCache *skills.Cache
	bus        *events.Bus

	shell       *actuators.Shell
	interpreter *actuators.Interpreter
	tts         *actuators.TTS

	screen     *actuators.Screen
	screenOnce sync.Once

	browserDriver *browser.Driver
	research      *research.Pipeline

	swarmCfg         swarm.Config
	swarmPollCeiling time.Duration
	scheduler        *swarm.Scheduler
	schedulerOnce    sync.Once
	metrics          *metrics.Registry

	logger *slog.Logger
}

// New builds a Loop. The Browser driver and Swarm Scheduler are
// constructed lazily on first use — Connect() may fail or prompt a
// restart, and most runs never touch the swarm path at all.
func New(cfg Config) *Loop {
	pollCeiling := cfg.SwarmPollCeiling
	if pollCeiling <= 0 {
		pollCeiling = 300 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	profileDir := cfg.BrowserProfileDir
	driver := browser.NewDriver(profileDir, cfg.BrowserStealthOn)

	return &Loop{
		provider:         cfg.Provider,
		governor:         cfg.Governor,
		model:            cfg.Model,
		sessions:         cfg.Sessions,
		memories:         cfg.Memories,
		skillCache:       cfg.SkillCache,
		bus:              cfg.Bus,
		shell:            cfg.Shell,
		interpreter:      cfg.Interpreter,
		tts:              cfg.TTS,
		browserDriver:    driver,
		research:         research.NewPipeline(driver, cfg.Provider, cfg.Model),
		swarmCfg:         cfg.SwarmConfig,
		swarmPollCeiling: pollCeiling,
		metrics:          cfg.Metrics,
		logger:           logger,
	}
}

// Request is one instruction to run.
type Request struct {
	Instruction    string
	Mode           types.Mode
	VoiceMode      bool
	ConversationID string
	Model          string
}

// Result is the outcome of a completed run.
type Result struct {
	Conversation *types.Conversation
	FinalText    string
}

func (l *Loop) ensureScreen() *actuators.Screen {
	l.screenOnce.Do(func() {
		l.screen = actuators.NewScreen(nil)
	})
	return l.screen
}

func (l *Loop) ensureScheduler() *swarm.Scheduler {
	l.schedulerOnce.Do(func() {
		l.scheduler = swarm.New(l.swarmCfg, l.provider, l.model, l.ensureScreen(), l.shell, l.bus).WithMetrics(l.metrics)
	})
	return l.scheduler
}

func (l *Loop) ensureBrowserTab(ctx context.Context) (*browser.Tab, error) {
	if err := l.browserDriver.Connect(ctx); err != nil {
		return nil, err
	}
	return l.browserDriver.ActiveTab()
}

// Run executes one instruction to completion: permission gate, Entry
// Router classification, Skill Cache fast path, Swarm Scheduler
// delegation, or the full streaming agent loop — exactly one of those four
// paths runs per call. A returned error is always one IsCatastrophic
// enough to propagate to the caller instead of folding into conversation
// text; everything else is captured in the Conversation and Result.
func (l *Loop) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Mode == types.ModeComputer {
		perms := actuators.CheckPermissions()
		if perms.Missing() {
			err := types.NewError(types.ErrPermissionDenied,
				"accessibility or screen-recording permission not granted", nil)
			_ = events.Emit(l.bus, events.TopicError, events.ErrorPayload{
				Message: err.Error(), Kind: string(types.ErrPermissionDenied),
			})
			return nil, err
		}
	}

	conv, err := l.loadOrCreateConversation(req)
	if err != nil {
		return nil, fmt.Errorf("agentloop: load or create conversation: %w", err)
	}

	_ = events.Emit(l.bus, events.TopicStarted, events.StatusPayload{ConversationID: conv.ID, Message: "run started"})
	_ = events.Emit(l.bus, events.TopicBorderShow, events.StatusPayload{ConversationID: conv.ID})
	defer func() {
		_ = events.Emit(l.bus, events.TopicBorderHide, events.StatusPayload{ConversationID: conv.ID})
	}()

	classification := router.Classify(req.Instruction)

	// Swarm delegation is mutually exclusive with the single-agent loop by
	// construction: this is the only call site that ever invokes the
	// Scheduler, and the Scheduler never calls back into the Loop.
	if classification == router.Complex {
		return l.runSwarm(ctx, conv, req.Instruction)
	}

	if classification == router.SimpleQuick {
		executed, skillErr := l.skillCache.TryExecuteMatching(ctx, req.Instruction, &loopActionRunner{l}, loopProcessProbe{})
		if executed {
			return l.finishSkillRun(conv, req.Instruction, skillErr)
		}
	}

	running := execctl.New()
	defer running.Stop()
	return l.runAgentLoop(ctx, running, conv, req)
}

func (l *Loop) loadOrCreateConversation(req Request) (*types.Conversation, error) {
	model := req.Model
	if model == "" {
		model = l.model
	}

	if req.ConversationID != "" {
		conv, err := l.sessions.Load(req.ConversationID)
		if err == nil {
			return conv, nil
		}
		l.logger.Warn("load conversation failed, starting a new one",
			"conversation_id", req.ConversationID, "error", err)
	}
	return l.sessions.Create(model, req.Mode, req.VoiceMode)
}

func (l *Loop) finishSkillRun(conv *types.Conversation, instruction string, skillErr error) (*Result, error) {
	conv.Messages = append(conv.Messages, types.Message{
		Role:    types.RoleUser,
		Content: []types.ContentBlock{{Kind: types.BlockText, Text: instruction}},
	})

	text := "done via a cached skill"
	if skillErr != nil {
		text = fmt.Sprintf("cached skill failed: %s", skillErr)
	}
	conv.Messages = append(conv.Messages, types.Message{
		Role:    types.RoleAssistant,
		Content: []types.ContentBlock{{Kind: types.BlockText, Text: text}},
	})

	if err := l.sessions.Save(conv); err != nil {
		l.logger.Warn("save conversation after skill run", "error", err)
	}
	_ = events.Emit(l.bus, events.TopicFinished, events.StatusPayload{ConversationID: conv.ID, Message: text})
	return &Result{Conversation: conv, FinalText: text}, nil
}

func (l *Loop) runSwarm(ctx context.Context, conv *types.Conversation, goal string) (*Result, error) {
	conv.Messages = append(conv.Messages, types.Message{
		Role:    types.RoleUser,
		Content: []types.ContentBlock{{Kind: types.BlockText, Text: goal}},
	})

	swarmCtx, cancel := context.WithTimeout(ctx, l.swarmPollCeiling)
	defer cancel()

	task, err := l.ensureScheduler().Submit(swarmCtx, goal)
	if err != nil {
		_ = events.Emit(l.bus, events.TopicError, events.ErrorPayload{ConversationID: conv.ID, Message: err.Error()})
		return nil, fmt.Errorf("agentloop: swarm: %w", err)
	}

	l.learnFromCompletedSubtasks(task)

	summary := summarizeTask(task)
	conv.Messages = append(conv.Messages, types.Message{
		Role:    types.RoleAssistant,
		Content: []types.ContentBlock{{Kind: types.BlockText, Text: summary}},
	})
	if err := l.sessions.Save(conv); err != nil {
		l.logger.Warn("save conversation after swarm run", "error", err)
	}
	_ = events.Emit(l.bus, events.TopicFinished, events.StatusPayload{ConversationID: conv.ID, Message: summary})
	return &Result{Conversation: conv, FinalText: summary}, nil
}

// learnFromCompletedSubtasks offers every completed subtask to the Skill
// Cache. The swarm executor records a result string, not a literal
// Actuator call trace, so the learned skill's action sequence is a single
// annotation step rather than a replayable sequence — still useful as a
// match-and-remind signal, not yet as push-button automation. A richer
// capture would need the swarm executor itself to record actions taken.
func (l *Loop) learnFromCompletedSubtasks(task *types.Task) {
	for _, st := range task.SubTasks {
		if st.Status != types.StatusCompleted {
			continue
		}
		l.skillCache.LearnFromSubtask(st.Description, []types.ActionTemplate{
			{Action: types.ActionThink, Payload: map[string]any{"note": st.Result}},
		}, true)
	}
}

func summarizeTask(task *types.Task) string {
	var sb strings.Builder
	completed, failed := 0, 0
	for _, st := range task.SubTasks {
		switch st.Status {
		case types.StatusCompleted:
			completed++
		case types.StatusFailed:
			failed++
		}
	}
	fmt.Fprintf(&sb, "Ran %q as a swarm of %d subtasks (status: %s): %d completed, %d failed.\n\n", task.Goal, len(task.SubTasks), task.Status, completed, failed)
	if task.Status == types.TaskPaused {
		sb.WriteString("Paused: a subtask needs a destructive-action confirmation this run has no way to collect.\n\n")
	}
	for _, st := range task.SubTasks {
		status := string(st.Status)
		detail := st.Result
		if st.Status == types.StatusFailed {
			detail = st.Error
		}
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", status, st.Description, truncate(detail, 200))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func (l *Loop) runAgentLoop(ctx context.Context, running *execctl.Flag, conv *types.Conversation, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = l.model
	}

	l.ensureScreen()
	if req.Mode == types.ModeBrowser {
		if err := l.browserDriver.Connect(ctx); err != nil {
			var needsRestart *browser.NeedsRestartError
			if errors.As(err, &needsRestart) {
				_ = events.Emit(l.bus, events.TopicError, events.ErrorPayload{
					ConversationID: conv.ID, Message: err.Error(), Kind: string(types.ErrBrowserNeedsRestart),
				})
				return nil, types.NewError(types.ErrBrowserNeedsRestart, "browser needs a manual restart", err)
			}
			return nil, fmt.Errorf("agentloop: connect browser: %w", err)
		}
	}

	dispatcher := &tools.Dispatcher{
		Screen:         l.screen,
		Shell:          l.shell,
		Interpreter:    l.interpreter,
		TTS:            l.tts,
		Browser:        l.browserDriver,
		Research:       l.research,
		Bus:            l.bus,
		ConversationID: conv.ID,
		Running:        running,
	}

	userMsg := l.buildUserMessage(req)
	conv.Messages = append(conv.Messages, userMsg)
	_ = events.Emit(l.bus, events.TopicUserMessage, events.StatusPayload{ConversationID: conv.ID, Message: req.Instruction})
	if err := l.sessions.Save(conv); err != nil {
		l.logger.Warn("save conversation before loop", "error", err)
	}

	finalText := ""
	summarized := false
	iteration := 0
	for ; iteration < MaxIterations && running.Running(); iteration++ {
		chatReq := &ai.ChatRequest{
			Messages:       conv.Messages,
			Tools:          tools.Definitions(),
			Model:          model,
			System:         systemPrompt(req.Mode, req.VoiceMode),
			MaxTokens:      8192,
			EnableThinking: true,
		}

		assistantMsg, usage, err := l.runStreamTurn(ctx, chatReq, conv.ID)
		if err != nil {
			if ai.IsContextOverflow(err) {
				if compactStaleSnapshots(conv.Messages) > 0 {
					continue
				}
				if !summarized {
					summarized = true
					l.summarizeHistory(ctx, conv, model, req.Instruction)
					continue
				}
			}
			_ = events.Emit(l.bus, events.TopicError, events.ErrorPayload{ConversationID: conv.ID, Message: err.Error()})
			_ = l.sessions.Save(conv)
			return nil, fmt.Errorf("agentloop: llm turn: %w", err)
		}

		conv.RecordUsage(usage)
		conv.Messages = append(conv.Messages, assistantMsg)
		_ = events.Emit(l.bus, events.TopicResponse, events.StatusPayload{ConversationID: conv.ID, Message: textOf(assistantMsg)})

		toolUses := assistantMsg.ToolUseBlocks()
		if len(toolUses) == 0 {
			finalText = textOf(assistantMsg)
			if err := l.sessions.Save(conv); err != nil {
				l.logger.Warn("save conversation", "error", err)
			}
			break
		}

		results := make([]types.ContentBlock, 0, len(toolUses))
		for _, tu := range toolUses {
			results = append(results, dispatcher.Dispatch(ctx, tu))
		}

		if hasFreshSnapshot(results) {
			compactStaleSnapshots(conv.Messages)
		}
		conv.Messages = append(conv.Messages, types.Message{Role: types.RoleUser, Content: results})

		if err := l.sessions.Save(conv); err != nil {
			l.logger.Warn("save conversation", "error", err)
		}
	}

	if finalText == "" {
		if !running.Running() {
			finalText = "stopped by user"
		} else {
			finalText = "stopped after reaching the maximum number of agent iterations for this turn"
		}
		conv.Messages = append(conv.Messages, types.Message{
			Role:    types.RoleAssistant,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: finalText}},
		})
		if err := l.sessions.Save(conv); err != nil {
			l.logger.Warn("save conversation", "error", err)
		}
	}

	_ = events.Emit(l.bus, events.TopicFinished, events.StatusPayload{ConversationID: conv.ID, Message: finalText})
	return &Result{Conversation: conv, FinalText: finalText}, nil
}

// buildUserMessage assembles the turn's new user message: up to 5 relevant
// memories, then a fresh desktop screenshot in computer mode, then the
// instruction text itself — per spec.md §4.6 step 7/8, the memory hint is
// prepended ahead of the instruction rather than appended after it.
func (l *Loop) buildUserMessage(req Request) types.Message {
	var blocks []types.ContentBlock

	if mems := l.memories.SearchRelevant(req.Instruction); len(mems) > 0 {
		blocks = append(blocks, types.ContentBlock{Kind: types.BlockText, Text: formatMemoryHint(mems)})
	}

	if req.Mode == types.ModeComputer {
		if shot, err := l.ensureScreen().TakeScreenshotExcludingSelfWindows(); err == nil {
			blocks = append(blocks, types.ContentBlock{
				Kind: types.BlockImage, MediaType: "image/jpeg", Base64Data: base64.StdEncoding.EncodeToString(shot),
			})
		} else {
			l.logger.Warn("capture context screenshot", "error", err)
		}
	}

	text := req.Instruction
	if req.VoiceMode {
		text = "[voice] " + text
	}
	blocks = append(blocks, types.ContentBlock{Kind: types.BlockText, Text: text})

	return types.Message{Role: types.RoleUser, Content: blocks}
}

// runStreamTurn drains one LLM turn through the Rate Governor's retry
// wrapper. spec.md §9 flags the Governor's retry and an ad-hoc loop retry
// as redundant; this core keeps only the Governor's (DESIGN.md records the
// decision), so a failed stream is retried here and nowhere else.
func (l *Loop) runStreamTurn(ctx context.Context, req *ai.ChatRequest, conversationID string) (types.Message, types.Usage, error) {
	msg := types.Message{Role: types.RoleAssistant}
	var usage types.Usage
	var textBuf, thinkBuf strings.Builder

	flushText := func() {
		if textBuf.Len() > 0 {
			msg.Content = append(msg.Content, types.ContentBlock{Kind: types.BlockText, Text: textBuf.String()})
			textBuf.Reset()
		}
	}
	flushThinking := func() {
		if thinkBuf.Len() > 0 {
			msg.Content = append(msg.Content, types.ContentBlock{Kind: types.BlockThinking, Text: thinkBuf.String()})
			thinkBuf.Reset()
		}
	}

	op := func(opCtx context.Context) error {
		msg.Content = nil
		textBuf.Reset()
		thinkBuf.Reset()
		usage = types.Usage{}

		stream, err := l.provider.Stream(opCtx, req)
		if err != nil {
			return err
		}
		for ev := range stream {
			switch ev.Type {
			case ai.EventTypeTextDelta:
				flushThinking()
				textBuf.WriteString(ev.Text)
				_ = events.Emit(l.bus, events.TopicTextDelta, events.TextDeltaPayload{ConversationID: conversationID, Text: ev.Text})
			case ai.EventTypeThinkingDelta:
				flushText()
				thinkBuf.WriteString(ev.Text)
				_ = events.Emit(l.bus, events.TopicThinkingDelta, events.ThinkingDeltaPayload{ConversationID: conversationID, Text: ev.Text})
			case ai.EventTypeToolUseStart:
				// Nothing to flush: the use isn't complete until EventTypeToolUse.
			case ai.EventTypeToolUse:
				flushText()
				flushThinking()
				msg.Content = append(msg.Content, types.ContentBlock{
					Kind: types.BlockToolUse, ToolUseID: ev.ToolUse.ID, ToolName: ev.ToolUse.Name, ToolInput: ev.ToolUse.Input,
				})
			case ai.EventTypeMessageStop:
				usage = ev.Usage
			case ai.EventTypeError:
				return ev.Error
			}
		}
		flushText()
		flushThinking()
		return nil
	}

	if err := l.governor.ExecuteWithRetry(ctx, op); err != nil {
		return types.Message{}, types.Usage{}, err
	}
	l.governor.RecordUsage(usage.InputTokens, usage.OutputTokens)
	return msg, usage, nil
}

func textOf(m types.Message) string {
	var sb strings.Builder
	for _, b := range m.Content {
		if b.Kind == types.BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// hasFreshSnapshot reports whether any result in a just-dispatched tool
// round is a new accessibility snapshot (its text starts with "uid=", the
// header Tab.Snapshot always emits) — the trigger spec.md §4.6 step 9e
// names for compacting every earlier snapshot before this new one is
// appended.
func hasFreshSnapshot(results []types.ContentBlock) bool {
	for _, r := range results {
		for _, p := range r.ToolResultParts {
			if p.Kind == types.ToolResultPartText && strings.HasPrefix(p.Text, "uid=") {
				return true
			}
		}
	}
	return false
}

// compactStaleSnapshots downgrades every already-stored snapshot
// tool-result past browser.CompactThreshold to its interactive-line
// subset, in place. Idempotent, since browser.Compact itself is. Returns
// how many parts were actually compacted, so the overflow-recovery path
// knows whether compaction freed anything at all.
func compactStaleSnapshots(messages []types.Message) int {
	compacted := 0
	for i := range messages {
		for j := range messages[i].Content {
			block := &messages[i].Content[j]
			if block.Kind != types.BlockToolResult {
				continue
			}
			for k := range block.ToolResultParts {
				part := &block.ToolResultParts[k]
				if part.Kind == types.ToolResultPartText &&
					strings.HasPrefix(part.Text, "uid=") &&
					len(part.Text) > browser.CompactThreshold {
					part.Text = browser.Compact(part.Text)
					compacted++
				}
			}
		}
	}
	return compacted
}

const summarizerSystemPrompt = `Summarize the agent session transcript you are given into a compact
briefing a fresh agent can resume from. Keep concrete state: URLs, file
paths, values already entered, and what remains to be done. Quote any tool
failures verbatim — the resuming agent must not repeat them blind.`

// summarizeHistory collapses the conversation into a single user turn when
// snapshot compaction alone can no longer fit the context window: a short
// LLM-generated summary of the transcript, with recent tool failures
// carried verbatim, followed by the original instruction. Replacing the
// whole history (rather than a prefix) keeps the tool-use/tool-result
// pairing invariant trivially intact.
func (l *Loop) summarizeHistory(ctx context.Context, conv *types.Conversation, model, instruction string) {
	_ = events.Emit(l.bus, events.TopicStatus, events.StatusPayload{
		ConversationID: conv.ID, Message: "conversation too long, summarizing history",
	})

	transcript := transcriptText(conv.Messages, 8000)
	summary, err := ai.CollectText(ctx, l.provider, &ai.ChatRequest{
		Model:  model,
		System: summarizerSystemPrompt,
		Messages: []types.Message{{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: transcript}},
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		l.logger.Warn("summarize history", "error", err)
		summary = "(summary unavailable)"
	}

	var sb strings.Builder
	sb.WriteString("Context summary of the session so far:\n\n")
	sb.WriteString(summary)
	if failures := recentToolFailures(conv.Messages, 3); len(failures) > 0 {
		sb.WriteString("\n\nRecent tool failures:\n")
		for _, f := range failures {
			sb.WriteString("- " + f + "\n")
		}
	}
	sb.WriteString("\n\nContinue this task: " + instruction)

	conv.Messages = []types.Message{{
		Role:    types.RoleUser,
		Content: []types.ContentBlock{{Kind: types.BlockText, Text: sb.String()}},
	}}
}

// transcriptText flattens the message history's text content into one
// bounded string for the summarizer, newest messages last.
func transcriptText(messages []types.Message, limit int) string {
	var sb strings.Builder
	for _, m := range messages {
		for _, b := range m.Content {
			switch b.Kind {
			case types.BlockText:
				fmt.Fprintf(&sb, "[%s] %s\n", m.Role, b.Text)
			case types.BlockToolUse:
				fmt.Fprintf(&sb, "[%s] tool_use %s %s\n", m.Role, b.ToolName, string(b.ToolInput))
			case types.BlockToolResult:
				for _, p := range b.ToolResultParts {
					if p.Kind == types.ToolResultPartText {
						fmt.Fprintf(&sb, "[%s] tool_result %s\n", m.Role, truncate(p.Text, 400))
					}
				}
			}
		}
	}
	text := sb.String()
	if len(text) > limit {
		text = text[len(text)-limit:]
	}
	return text
}

// recentToolFailures collects up to max error tool-result texts, newest
// first, so a summarized history never silently forgets what broke.
func recentToolFailures(messages []types.Message, max int) []string {
	var out []string
	for i := len(messages) - 1; i >= 0 && len(out) < max; i-- {
		for _, b := range messages[i].Content {
			if b.Kind != types.BlockToolResult {
				continue
			}
			for _, p := range b.ToolResultParts {
				if p.Kind == types.ToolResultPartText && strings.HasPrefix(p.Text, "error:") {
					out = append(out, truncate(p.Text, 200))
					if len(out) == max {
						return out
					}
				}
			}
		}
	}
	return out
}
