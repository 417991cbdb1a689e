package types

import "time"

// Memory is a recorded execution pattern recalled by keyword/embedding search.
type Memory struct {
	ID          string    `json:"id"`
	TaskPattern string    `json:"task_pattern"`
	Actions     []string  `json:"actions"`
	SuccessRate float64   `json:"success_rate"` // [0,1]
	UsageCount  int       `json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
	Embedding   []float32 `json:"embedding"`
}

// MemoryEMAAlpha is the exponential-moving-average weight applied when a
// memory's success rate is updated on reuse.
const MemoryEMAAlpha = 0.3

// RecordOutcome updates SuccessRate via EMA and bumps UsageCount.
// newRate = alpha*observed + (1-alpha)*oldRate.
func (m *Memory) RecordOutcome(success bool) {
	observed := 0.0
	if success {
		observed = 1.0
	}
	m.SuccessRate = MemoryEMAAlpha*observed + (1-MemoryEMAAlpha)*m.SuccessRate
	m.UsageCount++
}
