package skills

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/types"
)

// Cache loads predefined skills at startup, persists learned skills, and
// serves find/try-execute against both sets.
type Cache struct {
	mu     sync.RWMutex
	skills []*types.Skill
	store  *persistentStore
}

// NewCache loads predefined skills plus any learned skills persisted in the
// database.
func NewCache(store *db.Store) (*Cache, error) {
	predefined, err := LoadPredefined()
	if err != nil {
		return nil, err
	}

	ps := newPersistentStore(store)
	learned, err := ps.loadLearned()
	if err != nil {
		return nil, err
	}

	c := &Cache{store: ps}
	c.skills = append(c.skills, predefined...)
	c.skills = append(c.skills, learned...)
	return c, nil
}

// Skills returns every loaded skill (predefined and learned), for
// inspection by the CLI's "skills list"/"skills show" commands.
func (c *Cache) Skills() []*types.Skill {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.Skill, len(c.skills))
	copy(out, c.skills)
	return out
}

// FindMatching returns the top 3 skills scoring above 0.3 against intent.
func (c *Cache) FindMatching(intent string) []Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return findMatching(intent, c.skills)
}

// TryExecuteMatching attempts the best-matching skill for request if its
// score exceeds the execute threshold (0.7). Returns executed=false when no
// skill clears the bar — the caller (the Single-Agent Loop) then falls
// through to the normal LLM turn.
func (c *Cache) TryExecuteMatching(ctx context.Context, request string, runner ActionRunner, probe ProcessProbe) (executed bool, err error) {
	matches := c.FindMatching(request)
	if len(matches) == 0 || matches[0].Score <= executeThreshold {
		return false, nil
	}

	best := matches[0].Skill
	params := extractParams(request)

	start := time.Now()
	runErr := execute(ctx, best.Actions, params, runner, probe)
	elapsedMS := float64(time.Since(start).Milliseconds())

	c.recordExecution(best, runErr == nil, elapsedMS)
	return true, runErr
}

func (c *Cache) recordExecution(sk *types.Skill, success bool, elapsedMS float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sk.RecordExecution(success, elapsedMS)
	if !sk.Predefined {
		_ = c.store.save(sk)
	}
}

// LearnFromSubtask considers persisting a new learned skill from a
// completed subtask. It applies the three gating rules: the subtask must
// have succeeded, its description must yield at least 2 keywords, and no
// existing skill's keywords may overlap the description (duplicate
// suppression).
func (c *Cache) LearnFromSubtask(description string, actionSeq []types.ActionTemplate, succeeded bool) *types.Skill {
	if !succeeded {
		return nil
	}

	keywords := extractKeywords(description)
	if len(keywords) < 2 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.skills {
		if keywordsOverlap(keywords, existing.Pattern.IntentKeywords) {
			return nil
		}
	}

	sk := types.NewLearnedSkill(
		uuid.New().String(),
		strings.Join(keywords[:minInt(3, len(keywords))], "-"),
		description,
		types.SkillPattern{IntentKeywords: keywords},
		actionSeq,
	)
	c.skills = append(c.skills, sk)
	_ = c.store.save(sk)
	return sk
}

func extractKeywords(description string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(description)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > 3 && !isStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "then": true, "into": true, "onto": true,
}

func isStopword(w string) bool { return stopwords[w] }

func keywordsOverlap(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, w := range b {
		set[strings.ToLower(w)] = true
	}
	for _, w := range a {
		if set[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
