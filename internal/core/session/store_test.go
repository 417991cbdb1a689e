package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := db.Open(filepath.Join(dir, "test.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store)
}

func TestCreateLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	c, err := s.Create("claude-sonnet-4-5", types.ModeComputer, false)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	c.Messages = append(c.Messages, types.Message{
		Role: types.RoleUser,
		Content: []types.ContentBlock{
			{Kind: types.BlockText, Text: "open notes and write a grocery list"},
		},
	})
	require.NoError(t, s.Save(c))

	loaded, err := s.Load(c.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	require.Equal(t, "open notes and write a grocery list", loaded.Messages[0].Content[0].Text)
}

func TestNeedsTitleDerivesFromFirstUserMessage(t *testing.T) {
	s := openTestStore(t)
	c, err := s.Create("claude-sonnet-4-5", types.ModeComputer, false)
	require.NoError(t, err)

	long := "please open the calendar app and schedule a meeting for tomorrow at 10am with the design team"
	for i := 0; i < types.TitleThreshold; i++ {
		role := types.RoleAssistant
		if i == 0 {
			role = types.RoleUser
		}
		c.Messages = append(c.Messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: long}},
		})
	}
	require.NoError(t, s.Save(c))

	loaded, err := s.Load(c.ID)
	require.NoError(t, err)
	require.NotEmpty(t, loaded.Title)
	require.NotEqual(t, "New conversation", loaded.Title)
}

func TestLoadMissingConversation(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load("does-not-exist")
	require.Error(t, err)
}

func TestListOrdersByMostRecentlyUpdated(t *testing.T) {
	s := openTestStore(t)
	first, err := s.Create("claude-sonnet-4-5", types.ModeComputer, false)
	require.NoError(t, err)
	second, err := s.Create("claude-sonnet-4-5", types.ModeComputer, false)
	require.NoError(t, err)

	require.NoError(t, s.Save(second))
	require.NoError(t, s.Save(first))

	list, err := s.List(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
}

func TestDeleteRemovesConversation(t *testing.T) {
	s := openTestStore(t)
	c, err := s.Create("claude-sonnet-4-5", types.ModeComputer, false)
	require.NoError(t, err)
	require.NoError(t, s.Delete(c.ID))

	_, err = s.Load(c.ID)
	require.Error(t, err)
}
