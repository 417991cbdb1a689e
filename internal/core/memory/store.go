// Package memory implements the Memory Store: persisted execution records
// recalled by a hybrid lexical/vector score, plus context-session and
// preference key/value persistence. Grounded on the teacher's
// embeddings.Service (DB-backed embedding cache, reload-and-reindex on
// startup) and hybrid.HybridSearcher (weighted multi-signal scoring),
// generalized from its vector-DB-backed implementation to the core's
// sqlite-blob + deterministic-hash-embedding store.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	coredb "github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/embeddings"
	"github.com/agentcore/core/internal/core/types"
)

// Search score weights, per the component design.
const (
	weightKeyword   = 0.3
	weightCosine    = 0.3
	weightSubstring = 0.15
	weightSuccess   = 0.15
	weightRecency   = 0.05
	weightUsage     = 0.05

	minScore  = 0.15
	topResult = 5
)

// Store persists Memories, context sessions and preferences.
type Store struct {
	db    *sql.DB
	embed embeddings.Provider

	// cache mirrors the memories table in RAM so search can score without a
	// round trip per candidate; rebuilt on Reload.
	cache []*types.Memory
}

// New constructs a Store over the shared connection with the default
// deterministic embedding provider, then reloads its in-memory index.
func New(store *coredb.Store) (*Store, error) {
	s := &Store{db: store.DB, embed: embeddings.NewHashProvider()}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every memory from sqlite and rebuilds the in-memory
// index, re-embedding any row whose stored vector is missing or the wrong
// dimensionality.
func (s *Store) Reload() error {
	rows, err := s.db.Query(`SELECT id, task_pattern, actions_json, success_rate, usage_count, created_at, embedding FROM memories`)
	if err != nil {
		return fmt.Errorf("memory: reload: %w", err)
	}
	defer rows.Close()

	var loaded []*types.Memory
	for rows.Next() {
		var m types.Memory
		var actionsJSON string
		var embeddingBlob []byte
		var createdAt rawTimestamp
		if err := rows.Scan(&m.ID, &m.TaskPattern, &actionsJSON, &m.SuccessRate, &m.UsageCount, &createdAt, &embeddingBlob); err != nil {
			return fmt.Errorf("memory: scan row: %w", err)
		}
		m.CreatedAt = createdAt.Time
		if err := json.Unmarshal([]byte(actionsJSON), &m.Actions); err != nil {
			return fmt.Errorf("memory: decode actions: %w", err)
		}

		vec := decodeEmbedding(embeddingBlob)
		if len(vec) != s.embed.Dimensions() {
			vec = s.embed.Embed(m.TaskPattern)
			if _, err := s.db.Exec(`UPDATE memories SET embedding = ? WHERE id = ?`, encodeEmbedding(vec), m.ID); err != nil {
				return fmt.Errorf("memory: re-embed %s: %w", m.ID, err)
			}
		}
		m.Embedding = vec
		loaded = append(loaded, &m)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.cache = loaded
	return nil
}

// StoreExecution persists a new execution record.
func (s *Store) StoreExecution(taskPattern string, actions []string) (*types.Memory, error) {
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, err
	}
	vec := s.embed.Embed(taskPattern)

	m := &types.Memory{
		ID:          uuid.New().String(),
		TaskPattern: taskPattern,
		Actions:     actions,
		SuccessRate: 0.8,
		UsageCount:  1,
		CreatedAt:   time.Now().UTC(),
		Embedding:   vec,
	}

	_, err = s.db.Exec(`
		INSERT INTO memories (id, task_pattern, actions_json, success_rate, usage_count, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.TaskPattern, string(actionsJSON), m.SuccessRate, m.UsageCount, m.CreatedAt, encodeEmbedding(vec))
	if err != nil {
		return nil, fmt.Errorf("memory: store execution: %w", err)
	}
	s.cache = append(s.cache, m)
	return m, nil
}

// scored pairs a Memory with its computed search score.
type scored struct {
	memory *types.Memory
	score  float64
}

// SearchRelevant returns up to 5 memories scoring above minScore for query.
func (s *Store) SearchRelevant(query string) []*types.Memory {
	queryVec := s.embed.Embed(query)
	queryWords := keywordSet(query)

	var candidates []scored
	now := time.Now()
	for _, m := range s.cache {
		score := s.score(query, queryWords, queryVec, m, now)
		if score > minScore {
			candidates = append(candidates, scored{memory: m, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > topResult {
		candidates = candidates[:topResult]
	}

	out := make([]*types.Memory, len(candidates))
	for i, c := range candidates {
		out[i] = c.memory
	}
	return out
}

func (s *Store) score(query string, queryWords map[string]bool, queryVec []float32, m *types.Memory, now time.Time) float64 {
	memWords := keywordSet(m.TaskPattern)
	keywordScore := overlapFraction(queryWords, memWords) * weightKeyword

	cosine := embeddings.CosineSimilarity(queryVec, m.Embedding)
	if cosine < 0 {
		cosine = 0
	}
	cosineScore := cosine * weightCosine

	substringScore := 0.0
	if strings.Contains(strings.ToLower(m.TaskPattern), strings.ToLower(query)) ||
		strings.Contains(strings.ToLower(query), strings.ToLower(m.TaskPattern)) {
		substringScore = weightSubstring
	}

	successScore := m.SuccessRate * weightSuccess

	days := now.Sub(m.CreatedAt).Hours() / 24
	recencyScore := (1.0 / (1.0 + days/30.0)) * weightRecency

	usageScore := math.Min(float64(m.UsageCount)/50.0, 1.0) * weightUsage

	return keywordScore + cosineScore + substringScore + successScore + recencyScore + usageScore
}

// UpdateMemorySuccess applies the memory EMA update and persists it.
func (s *Store) UpdateMemorySuccess(id string, success bool) error {
	for _, m := range s.cache {
		if m.ID != id {
			continue
		}
		m.RecordOutcome(success)
		_, err := s.db.Exec(`UPDATE memories SET success_rate = ?, usage_count = ? WHERE id = ?`,
			m.SuccessRate, m.UsageCount, m.ID)
		return err
	}
	return fmt.Errorf("memory: %s not found", id)
}

// PruneOldContexts keeps only the `keep` most recently updated context
// sessions, deleting the rest.
func (s *Store) PruneOldContexts(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM context_sessions WHERE session_id NOT IN (
			SELECT session_id FROM context_sessions ORDER BY updated_at DESC LIMIT ?
		)`, keep)
	return err
}

// SaveContext upserts a session's opaque context blob.
func (s *Store) SaveContext(sessionID, blob string) error {
	_, err := s.db.Exec(`
		INSERT INTO context_sessions (session_id, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		sessionID, blob, time.Now().UTC())
	return err
}

// LoadContext retrieves a session's context blob, or "" if none exists.
func (s *Store) LoadContext(sessionID string) (string, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM context_sessions WHERE session_id = ?`, sessionID).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return blob, err
}

// SetPreference upserts a preference key/value pair.
func (s *Store) SetPreference(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetPreference retrieves a preference value, or "" if unset.
func (s *Store) GetPreference(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func keywordSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func overlapFraction(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	hits := 0
	for w := range a {
		if b[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}

func encodeEmbedding(vec []float32) []byte {
	b, _ := json.Marshal(vec)
	return b
}

func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(blob, &vec); err != nil {
		return nil
	}
	return vec
}
