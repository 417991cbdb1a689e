package types

import "time"

// AgentType is the role a SubTask's executor plays in the swarm.
type AgentType string

const (
	AgentPlanner     AgentType = "planner"
	AgentExecutor    AgentType = "executor"
	AgentVerifier    AgentType = "verifier"
	AgentCritic      AgentType = "critic"
	AgentRecovery    AgentType = "recovery"
	AgentCoordinator AgentType = "coordinator"
	AgentSpecialist  AgentType = "specialist"
)

// SubTaskStatus is the state machine a SubTask moves through. Transitions
// are owned by the swarm scheduler, never set directly by an executor.
type SubTaskStatus string

const (
	StatusPending    SubTaskStatus = "pending"
	StatusReady      SubTaskStatus = "ready"
	StatusExecuting  SubTaskStatus = "executing"
	StatusCompleted  SubTaskStatus = "completed"
	StatusFailed     SubTaskStatus = "failed"
	StatusVerifying  SubTaskStatus = "verifying"
	StatusNeedsRetry SubTaskStatus = "needs_retry"
	StatusBlocked    SubTaskStatus = "blocked"
)

// SubTask is one node of a Task's DAG.
type SubTask struct {
	ID           string        `json:"id"`
	TaskID       string        `json:"task_id"`
	Description  string        `json:"description"`
	AgentType    AgentType     `json:"agent_type"`
	DependsOn    []string      `json:"depends_on"`
	Status       SubTaskStatus `json:"status"`
	Result       string        `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	RetryCount   int           `json:"retry_count"`
	MaxRetries   int           `json:"max_retries"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Verification *Verification `json:"verification,omitempty"`
}

// Verification is the Verifier agent's assessment of one completed SubTask.
type Verification struct {
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// DefaultMaxRetries is applied to a SubTask when no override is given.
const DefaultMaxRetries = 3

// DefaultSubTaskTimeout bounds how long a single SubTask may run before the
// scheduler marks it Failed and considers a retry.
const DefaultSubTaskTimeout = 120 * time.Second

// DefaultMaxParallel bounds concurrently Executing SubTasks per Task.
const DefaultMaxParallel = 3

// IsReady reports whether every dependency in done has completed, meaning
// st may transition from Pending to Ready.
func (st *SubTask) IsReady(done map[string]bool) bool {
	if st.Status != StatusPending {
		return false
	}
	for _, dep := range st.DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}

// CanRetry reports whether a Failed SubTask has retry budget remaining.
func (st *SubTask) CanRetry() bool {
	return st.RetryCount < st.MaxRetries
}

// TaskStatus is a Task's top-level lifecycle state, spec.md §3's
// `status ∈ {Pending, Planning, Executing, Verifying, Completed, Failed,
// NeedsUserInput, Paused}` — ported from the original's
// cognitive::agent_swarm::TaskStatus enum (original_source/src-tauri/src/
// cognitive/agent_swarm.rs:122-131), which carries the identical eight
// variants.
type TaskStatus string

const (
	TaskPending        TaskStatus = "pending"
	TaskPlanning       TaskStatus = "planning"
	TaskExecuting      TaskStatus = "executing"
	TaskVerifying      TaskStatus = "verifying"
	TaskCompleted      TaskStatus = "completed"
	TaskFailed         TaskStatus = "failed"
	TaskNeedsUserInput TaskStatus = "needs_user_input"
	TaskPaused         TaskStatus = "paused"
)

// Task is the top-level unit of work dispatched to the swarm scheduler.
type Task struct {
	ID          string     `json:"id"`
	Goal        string     `json:"goal"`
	SubTasks    []*SubTask `json:"subtasks"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Done reports whether every SubTask has reached a terminal status
// (Completed or Failed with no retry budget left).
func (t *Task) Done() bool {
	for _, st := range t.SubTasks {
		switch st.Status {
		case StatusCompleted:
			continue
		case StatusFailed:
			if st.CanRetry() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Failed reports whether any SubTask ended Failed with no retry budget left.
func (t *Task) Failed() bool {
	for _, st := range t.SubTasks {
		if st.Status == StatusFailed && !st.CanRetry() {
			return true
		}
	}
	return false
}
