// Package session implements the Conversation Store: load/save/list/delete
// against the shared sqlite connection. A Conversation is persisted as a
// single JSON blob of its messages — the tagged-union ContentBlock model
// doesn't map cleanly onto normalized columns, and the whole point of the
// store is "load at run start, save after every completed turn," not
// per-message querying.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/types"
)

// Store persists Conversations.
type Store struct {
	db *sql.DB
}

// New builds a Store over the shared connection.
func New(store *db.Store) *Store {
	return &Store{db: store.DB}
}

// Create starts a new empty Conversation and persists it immediately.
func (s *Store) Create(model string, mode types.Mode, voiceMode bool) (*types.Conversation, error) {
	now := time.Now().UTC()
	c := &types.Conversation{
		ID:        uuid.New().String(),
		Model:     model,
		Mode:      mode,
		VoiceMode: voiceMode,
		Created:   now,
		Updated:   now,
	}
	if err := s.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load fetches a Conversation by ID, replaying its stored messages.
func (s *Store) Load(id string) (*types.Conversation, error) {
	row := s.db.QueryRow(`
		SELECT id, title, model, mode, voice_mode, total_input_tokens,
		       total_output_tokens, messages_json, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	var c types.Conversation
	var modeStr string
	var voiceMode int
	var messagesJSON string
	var created, updated time.Time

	err := row.Scan(&c.ID, &c.Title, &c.Model, &modeStr, &voiceMode,
		&c.TotalInputTokens, &c.TotalOutputTokens, &messagesJSON, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: conversation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("session: load conversation: %w", err)
	}

	c.Mode = types.Mode(modeStr)
	c.VoiceMode = voiceMode != 0
	c.Created = created
	c.Updated = updated

	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return nil, fmt.Errorf("session: decode messages: %w", err)
	}
	return &c, nil
}

// Save upserts the full Conversation, including its message list.
func (s *Store) Save(c *types.Conversation) error {
	if c.NeedsTitle() {
		c.Title = deriveTitle(c.Messages)
	}
	c.Updated = time.Now().UTC()

	messagesJSON, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("session: encode messages: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO conversations
			(id, title, model, mode, voice_mode, total_input_tokens,
			 total_output_tokens, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			mode = excluded.mode,
			voice_mode = excluded.voice_mode,
			total_input_tokens = excluded.total_input_tokens,
			total_output_tokens = excluded.total_output_tokens,
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at`,
		c.ID, c.Title, c.Model, string(c.Mode), boolToInt(c.VoiceMode),
		c.TotalInputTokens, c.TotalOutputTokens, string(messagesJSON), c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("session: save conversation: %w", err)
	}
	return nil
}

// List returns conversations ordered by most-recently-updated.
func (s *Store) List(limit int) ([]*types.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, title, model, mode, voice_mode, total_input_tokens,
		       total_output_tokens, created_at, updated_at
		FROM conversations ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Conversation
	for rows.Next() {
		var c types.Conversation
		var modeStr string
		var voiceMode int
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &modeStr, &voiceMode,
			&c.TotalInputTokens, &c.TotalOutputTokens, &c.Created, &c.Updated); err != nil {
			return nil, err
		}
		c.Mode = types.Mode(modeStr)
		c.VoiceMode = voiceMode != 0
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Delete removes a conversation permanently.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// deriveTitle takes the first user text block as a short title.
func deriveTitle(messages []types.Message) string {
	for _, m := range messages {
		if m.Role != types.RoleUser {
			continue
		}
		for _, b := range m.Content {
			if b.Kind == types.BlockText && b.Text != "" {
				t := b.Text
				if len(t) > 60 {
					t = t[:60] + "…"
				}
				return t
			}
		}
	}
	return "New conversation"
}
