package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	coredb "github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := coredb.Open(filepath.Join(dir, "test.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s, err := New(store)
	require.NoError(t, err)
	return s
}

func TestStoreExecutionAndSearchRelevant(t *testing.T) {
	s := openTestStore(t)

	_, err := s.StoreExecution("open calendar app and schedule meeting", []string{"open calendar", "click new event"})
	require.NoError(t, err)
	_, err = s.StoreExecution("bake sourdough bread at home", []string{"preheat oven", "shape dough"})
	require.NoError(t, err)

	results := s.SearchRelevant("schedule a meeting on the calendar")
	require.NotEmpty(t, results)
	require.Equal(t, "open calendar app and schedule meeting", results[0].TaskPattern)
}

func TestSearchRelevantReturnsAtMostFive(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 8; i++ {
		_, err := s.StoreExecution("open finder and search for invoices", []string{"open finder"})
		require.NoError(t, err)
	}
	results := s.SearchRelevant("open finder and search for invoices")
	require.LessOrEqual(t, len(results), 5)
}

func TestUpdateMemorySuccessAppliesEMA(t *testing.T) {
	s := openTestStore(t)
	m, err := s.StoreExecution("fill out expense report", []string{"open form"})
	require.NoError(t, err)
	require.InDelta(t, 0.8, m.SuccessRate, 0.0001)

	require.NoError(t, s.UpdateMemorySuccess(m.ID, false))

	// 0.3*0 + 0.7*0.8 = 0.56
	results := s.SearchRelevant("fill out expense report")
	require.NotEmpty(t, results)
	require.InDelta(t, 0.56, results[0].SuccessRate, 0.0001)
}

func TestContextSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveContext("sess-1", `{"foo":"bar"}`))

	blob, err := s.LoadContext("sess-1")
	require.NoError(t, err)
	require.Equal(t, `{"foo":"bar"}`, blob)

	empty, err := s.LoadContext("sess-missing")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestPreferenceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SetPreference("voice_mode", "true"))

	v, err := s.GetPreference("voice_mode")
	require.NoError(t, err)
	require.Equal(t, "true", v)
}

func TestPruneOldContextsKeepsMostRecent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveContext("a", "1"))
	require.NoError(t, s.SaveContext("b", "2"))
	require.NoError(t, s.SaveContext("c", "3"))

	require.NoError(t, s.PruneOldContexts(1))

	_, err := s.LoadContext("c")
	require.NoError(t, err)
}
