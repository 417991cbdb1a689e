// Package swarm is the Swarm Scheduler: it decomposes a complex instruction
// into a DAG of typed subtasks, executes ready subtasks up to a bounded
// fan-out, retries failed ones, and optionally runs a Verifier after each
// subtask and a Critic after the whole task. Grounded on the teacher's
// internal/agent/orchestrator package (goroutine-per-unit-of-work,
// panic-isolated, results fed back through a channel) — generalized from
// the teacher's flat sub-agent pool into the spec's dependency-aware DAG.
package swarm

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/core/internal/core/actuators"
	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/metrics"
	"github.com/agentcore/core/internal/core/types"
)

var schedulerTracer trace.Tracer = otel.Tracer("agentcore/swarm")

// Config tunes scheduler behavior. Zero-value fields fall back to the
// defaults spec.md §4.7 names.
type Config struct {
	MaxParallel         int
	VerificationEnabled bool
	CriticEnabled       bool
	AutoRetry           bool
	MaxRetries          int
	SubtaskTimeout      time.Duration
	ParallelExecution   bool

	// ConfirmDestructive gates a subtask whose description reads as a
	// destructive shell command (rm -rf, drop table, force-push, ...)
	// behind Confirm before it is ever dispatched to the shell, mirroring
	// the original's declared-but-dead `confirm_destructive` flag
	// (original_source/src-tauri/src/cognitive/agent_swarm.rs:182-183,196)
	// — here it actually gates execution instead of sitting unread.
	ConfirmDestructive bool
	// Confirm asks an external collaborator (the UI shell, out of scope
	// per spec.md §1) whether a destructive action may proceed. A nil
	// Confirm means no human is wired to answer, so a gated subtask fails
	// closed: the Task is marked NeedsUserInput and then Paused rather
	// than silently running or silently succeeding.
	Confirm func(ctx context.Context, description string) bool
}

func (c Config) withDefaults() Config {
	if c.MaxParallel <= 0 {
		c.MaxParallel = types.DefaultMaxParallel
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = types.DefaultMaxRetries
	}
	if c.SubtaskTimeout <= 0 {
		c.SubtaskTimeout = types.DefaultSubTaskTimeout
	}
	return c
}

// Scheduler owns the Actuators and LLM provider a subtask's executor path
// may need, plus the Event Bus it reports progress on. One Scheduler
// handles one Task at a time; the Single-Agent Loop never calls back into
// it and the Scheduler never calls back into the loop.
type Scheduler struct {
	cfg Config

	provider ai.Provider
	model    string

	screen *actuators.Screen
	shell  *actuators.Shell

	bus     *events.Bus
	metrics *metrics.Registry

	// statusMu guards Task.Status: dispatchParallel runs subtask
	// goroutines concurrently, and a destructive-action check can flip
	// Task.Status from any of them.
	statusMu sync.Mutex
}

// New builds a Scheduler. One Scheduler serves one Task at a time; the
// Single-Agent Loop owns its lifetime and never calls back into it.
func New(cfg Config, provider ai.Provider, model string, screen *actuators.Screen, shell *actuators.Shell, bus *events.Bus) *Scheduler {
	return &Scheduler{
		cfg: cfg.withDefaults(), provider: provider, model: model,
		screen: screen, shell: shell, bus: bus,
	}
}

// WithMetrics attaches a metrics.Registry the Scheduler reports subtask
// status-transition gauges and dispatch counts into. Optional.
func (s *Scheduler) WithMetrics(m *metrics.Registry) *Scheduler {
	s.metrics = m
	return s
}

// setStatus transitions the Task's top-level status under statusMu, safe
// to call from any subtask goroutine.
func (s *Scheduler) setStatus(task *types.Task, status types.TaskStatus) {
	s.statusMu.Lock()
	task.Status = status
	s.statusMu.Unlock()
}

// taskStatus reads the Task's top-level status under statusMu.
func (s *Scheduler) taskStatus(task *types.Task) types.TaskStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return task.Status
}

// reportSubtaskCounts refreshes the per-status gauge from the live Task —
// called after every status transition pass so the gauge never drifts from
// the in-memory DAG it mirrors.
func (s *Scheduler) reportSubtaskCounts(task *types.Task) {
	counts := map[types.SubTaskStatus]int{}
	for _, st := range task.SubTasks {
		counts[st.Status]++
	}
	for status, count := range counts {
		s.metrics.SetSubtaskCount(string(status), count)
	}
}

// Submit decomposes goal into a Task and runs it to a terminal status.
// The returned Task's SubTasks carry every result, error, and verification
// outcome; the caller (the Single-Agent Loop) summarizes it for the user.
func (s *Scheduler) Submit(ctx context.Context, goal string) (*types.Task, error) {
	ctx, span := schedulerTracer.Start(ctx, "swarm.Scheduler.Submit")
	defer span.End()

	task := &types.Task{ID: uuid.New().String(), Goal: goal, CreatedAt: time.Now().UTC(), Status: types.TaskPending}

	_ = events.Emit(s.bus, events.TopicSwarmTaskStarted, events.SwarmTaskPayload{TaskID: task.ID, Goal: goal})

	s.setStatus(task, types.TaskPlanning)
	subtasks, err := s.plan(ctx, goal)
	if err != nil {
		s.setStatus(task, types.TaskFailed)
		return nil, fmt.Errorf("swarm: plan: %w", err)
	}
	for _, st := range subtasks {
		st.TaskID = task.ID
	}
	task.SubTasks = subtasks

	s.setStatus(task, types.TaskExecuting)
	s.execute(ctx, task)

	if s.cfg.CriticEnabled && s.taskStatus(task) != types.TaskPaused {
		s.setStatus(task, types.TaskVerifying)
		s.criticReview(ctx, task)
	}

	now := time.Now().UTC()
	task.CompletedAt = &now

	switch {
	case s.taskStatus(task) == types.TaskPaused:
		// A destructive subtask is awaiting a confirmation hook that was
		// never wired; leave the Task exactly as paused rather than
		// forcing a Completed/Failed verdict it hasn't earned.
	case task.Failed():
		s.setStatus(task, types.TaskFailed)
	default:
		s.setStatus(task, types.TaskCompleted)
	}

	_ = events.Emit(s.bus, events.TopicSwarmTaskCompleted, events.SwarmTaskPayload{TaskID: task.ID, Goal: goal})
	return task, nil
}

// execute runs the main dispatch loop until every subtask is terminal or
// the task pauses awaiting a destructive-action confirmation that has
// nowhere to go (see confirmDestructive).
func (s *Scheduler) execute(ctx context.Context, task *types.Task) {
	for !task.Done() {
		if s.taskStatus(task) == types.TaskPaused {
			return
		}
		if ctx.Err() != nil {
			s.failAllNonTerminal(task, ctx.Err())
			return
		}

		ready := s.collectReady(task)
		if len(ready) == 0 {
			if s.updateBlocked(task) == 0 {
				time.Sleep(100 * time.Millisecond)
			}
			s.reportSubtaskCounts(task)
			continue
		}

		if s.cfg.ParallelExecution {
			s.dispatchParallel(ctx, task, ready)
		} else {
			for _, st := range ready {
				s.runSubtask(ctx, task, st)
			}
		}
		s.reportSubtaskCounts(task)
	}
	s.reportSubtaskCounts(task)
}

func (s *Scheduler) collectReady(task *types.Task) []*types.SubTask {
	var ready []*types.SubTask
	for _, st := range task.SubTasks {
		if st.Status == types.StatusReady {
			ready = append(ready, st)
		}
	}
	if len(ready) > s.cfg.MaxParallel {
		ready = ready[:s.cfg.MaxParallel]
	}
	return ready
}

// updateBlocked promotes Blocked subtasks to Ready wherever every
// dependency has completed; it also promotes fresh Pending subtasks whose
// dependencies are already satisfied (the initial-readiness case). Returns
// how many subtasks were promoted.
func (s *Scheduler) updateBlocked(task *types.Task) int {
	done := make(map[string]bool, len(task.SubTasks))
	for _, st := range task.SubTasks {
		if st.Status == types.StatusCompleted {
			done[st.ID] = true
		}
	}

	promoted := 0
	for _, st := range task.SubTasks {
		if st.Status != types.StatusPending && st.Status != types.StatusBlocked {
			continue
		}
		if dependenciesSatisfied(st, done) {
			st.Status = types.StatusReady
			promoted++
		}
	}
	return promoted
}

func dependenciesSatisfied(st *types.SubTask, done map[string]bool) bool {
	for _, dep := range st.DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}

func (s *Scheduler) dispatchParallel(ctx context.Context, task *types.Task, ready []*types.SubTask) {
	var wg sync.WaitGroup
	for _, st := range ready {
		wg.Add(1)
		go func(st *types.SubTask) {
			defer wg.Done()
			defer s.recoverSubtask(st)
			s.runSubtask(ctx, task, st)
		}(st)
	}
	wg.Wait()
}

func (s *Scheduler) recoverSubtask(st *types.SubTask) {
	if r := recover(); r != nil {
		st.Status = types.StatusFailed
		st.Error = fmt.Sprintf("panic: %v\n%s", r, debug.Stack())
		_ = events.Emit(s.bus, events.TopicSwarmSubtaskFailed, events.SwarmSubtaskPayload{
			TaskID: st.TaskID, SubTaskID: st.ID, AgentType: string(st.AgentType), Detail: st.Error,
		})
	}
}

func (s *Scheduler) runSubtask(ctx context.Context, task *types.Task, st *types.SubTask) {
	st.Status = types.StatusExecuting
	now := time.Now().UTC()
	st.StartedAt = &now
	s.metrics.IncSubtasksDispatched()
	trace.SpanFromContext(ctx).AddEvent("swarm.subtask.dispatch")

	_ = events.Emit(s.bus, events.TopicSwarmSubtaskStarted, events.SwarmSubtaskPayload{
		TaskID: task.ID, SubTaskID: st.ID, AgentType: string(st.AgentType),
	})

	switch s.confirmDestructive(ctx, task, st) {
	case confirmPaused:
		st.Status = types.StatusBlocked
		return
	case confirmRejected:
		s.handleFailure(task, st, fmt.Errorf("destructive action rejected: confirmation declined"))
		return
	}

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubtaskTimeout)
	defer cancel()

	result, execErr := s.dispatchToExecutor(subCtx, st)

	if execErr != nil {
		s.handleFailure(task, st, execErr)
		return
	}

	completed := time.Now().UTC()
	st.CompletedAt = &completed
	st.Status = types.StatusCompleted
	st.Result = result

	_ = events.Emit(s.bus, events.TopicSwarmSubtaskCompleted, events.SwarmSubtaskPayload{
		TaskID: task.ID, SubTaskID: st.ID, AgentType: string(st.AgentType), Detail: summarize(result),
	})

	if s.cfg.VerificationEnabled {
		s.verify(ctx, st)
	}
}

func (s *Scheduler) handleFailure(task *types.Task, st *types.SubTask, execErr error) {
	if s.cfg.AutoRetry && st.CanRetry() {
		st.RetryCount++
		st.Status = types.StatusReady
		_ = events.Emit(s.bus, events.TopicSwarmRecovery, events.SwarmSubtaskPayload{
			TaskID: task.ID, SubTaskID: st.ID, AgentType: string(st.AgentType),
			Detail: fmt.Sprintf("retry %d/%d after: %s", st.RetryCount, st.MaxRetries, execErr),
		})
		return
	}

	completed := time.Now().UTC()
	st.CompletedAt = &completed
	st.Status = types.StatusFailed
	st.Error = execErr.Error()

	_ = events.Emit(s.bus, events.TopicSwarmSubtaskFailed, events.SwarmSubtaskPayload{
		TaskID: task.ID, SubTaskID: st.ID, AgentType: string(st.AgentType), Detail: st.Error,
	})
}

func (s *Scheduler) failAllNonTerminal(task *types.Task, cause error) {
	for _, st := range task.SubTasks {
		switch st.Status {
		case types.StatusCompleted, types.StatusFailed:
		default:
			st.Status = types.StatusFailed
			st.Error = cause.Error()
		}
	}
}

func summarize(s string) string {
	if len(s) > 160 {
		return s[:160] + "…"
	}
	return s
}
