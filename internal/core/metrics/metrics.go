// Package metrics is the core's in-process observability surface: a small
// prometheus registry the Rate Governor and Swarm Scheduler report into.
// Nothing here starts an HTTP listener — spec.md §6 rules out network
// listeners — the Registry's Gatherer is meant to be mounted by whatever
// embeds this core (a desktop app's own debug endpoint, a CLI --metrics
// flag writing a one-shot dump, etc).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every collector this core exposes. Nil-safe throughout:
// every recording method on Governor/Scheduler treats a nil *Registry as
// "no metrics wired" rather than failing, so wiring metrics is opt-in.
type Registry struct {
	reg *prometheus.Registry

	governorInputTokens  prometheus.Gauge
	governorOutputTokens prometheus.Gauge
	governorStatus       *prometheus.GaugeVec
	governorRetries      prometheus.Counter

	subtasksByStatus *prometheus.GaugeVec
	subtasksTotal    prometheus.Counter
}

// New builds a Registry with every collector registered against a fresh
// prometheus.Registry (never the global DefaultRegisterer, so multiple
// Loop instances in one process — e.g. under test — never collide).
func New() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		reg: reg,
		governorInputTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentcore", Subsystem: "rate_governor", Name: "input_tokens_window",
			Help: "Input tokens recorded in the current 60s sliding window.",
		}),
		governorOutputTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentcore", Subsystem: "rate_governor", Name: "output_tokens_window",
			Help: "Output tokens recorded in the current 60s sliding window.",
		}),
		governorStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agentcore", Subsystem: "rate_governor", Name: "status",
			Help: "1 for the Rate Governor's current status (safe/throttle/limited), 0 otherwise.",
		}, []string{"status"}),
		governorRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore", Subsystem: "rate_governor", Name: "retries_total",
			Help: "Total ExecuteWithRetry attempts that hit a rate-limit signature and retried.",
		}),
		subtasksByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agentcore", Subsystem: "swarm", Name: "subtasks_by_status",
			Help: "Count of subtasks currently in each status, per the most recent Task.",
		}, []string{"status"}),
		subtasksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore", Subsystem: "swarm", Name: "subtasks_dispatched_total",
			Help: "Total subtasks dispatched across every Task this Scheduler has run.",
		}),
	}

	reg.MustRegister(
		m.governorInputTokens, m.governorOutputTokens, m.governorStatus, m.governorRetries,
		m.subtasksByStatus, m.subtasksTotal,
	)
	return m
}

// Gatherer exposes the underlying prometheus.Gatherer for an embedder to
// mount behind its own /metrics handler.
func (m *Registry) Gatherer() prometheus.Gatherer { return m.reg }

// SetGovernorUsage records the current window totals.
func (m *Registry) SetGovernorUsage(inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.governorInputTokens.Set(float64(inputTokens))
	m.governorOutputTokens.Set(float64(outputTokens))
}

var governorStatuses = []string{"safe", "throttle", "limited"}

// SetGovernorStatus flips the one-hot status gauge to the given value.
func (m *Registry) SetGovernorStatus(status string) {
	if m == nil {
		return
	}
	for _, s := range governorStatuses {
		v := 0.0
		if s == status {
			v = 1.0
		}
		m.governorStatus.WithLabelValues(s).Set(v)
	}
}

// IncGovernorRetry records one rate-limit-triggered retry attempt.
func (m *Registry) IncGovernorRetry() {
	if m == nil {
		return
	}
	m.governorRetries.Inc()
}

// SetSubtaskCount replaces the gauge for one status with count — the
// Scheduler calls this after every status transition pass so the gauge
// always reflects the live Task rather than accumulating stale counts.
func (m *Registry) SetSubtaskCount(status string, count int) {
	if m == nil {
		return
	}
	m.subtasksByStatus.WithLabelValues(status).Set(float64(count))
}

// IncSubtasksDispatched records one subtask starting execution.
func (m *Registry) IncSubtasksDispatched() {
	if m == nil {
		return
	}
	m.subtasksTotal.Inc()
}
