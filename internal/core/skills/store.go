package skills

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/types"
)

// persistentStore persists learned skills to sqlite. Predefined skills are
// never written here — they're immutable and reloaded from the embedded
// YAML set on every startup.
type persistentStore struct {
	db *sql.DB
}

func newPersistentStore(store *db.Store) *persistentStore {
	return &persistentStore{db: store.DB}
}

func (s *persistentStore) loadLearned() ([]*types.Skill, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, pattern_json, actions_json, success_rate, total_uses, avg_execution_ms
		FROM skills WHERE predefined = 0`)
	if err != nil {
		return nil, fmt.Errorf("skills: load learned: %w", err)
	}
	defer rows.Close()

	var out []*types.Skill
	for rows.Next() {
		var sk types.Skill
		var patternJSON, actionsJSON string
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Description, &patternJSON, &actionsJSON,
			&sk.SuccessRate, &sk.TotalUses, &sk.AvgExecutionMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(patternJSON), &sk.Pattern); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(actionsJSON), &sk.Actions); err != nil {
			return nil, err
		}
		out = append(out, &sk)
	}
	return out, rows.Err()
}

func (s *persistentStore) save(sk *types.Skill) error {
	patternJSON, err := json.Marshal(sk.Pattern)
	if err != nil {
		return err
	}
	actionsJSON, err := json.Marshal(sk.Actions)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO skills (id, name, description, pattern_json, actions_json, success_rate, total_uses, avg_execution_ms, predefined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			success_rate = excluded.success_rate,
			total_uses = excluded.total_uses,
			avg_execution_ms = excluded.avg_execution_ms`,
		sk.ID, sk.Name, sk.Description, string(patternJSON), string(actionsJSON),
		sk.SuccessRate, sk.TotalUses, sk.AvgExecutionMS)
	return err
}
