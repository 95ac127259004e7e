// ABOUTME: Turn log operations for SQLite
// ABOUTME: Implements the durable append-only conversation log and thread queries
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akshith/chatkit/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Append durably adds a turn to the end of the thread's log. The sequence
// number is assigned inside the transaction and written back to the turn.
// Thread metadata is created on first append; the title comes from the
// first user message.
func (s *TurnStore) Append(threadKey string, turn *models.Turn) error {
	contentJSON, err := json.Marshal(turn.Content)
	if err != nil {
		return fmt.Errorf("encoding content: %w", err)
	}

	var toolCallsJSON sql.NullString
	if len(turn.ToolCalls) > 0 {
		encoded, err := json.Marshal(turn.ToolCalls)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		toolCallsJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	title := ""
	if turn.Role == models.RoleUser {
		title = models.ThreadTitle(turn.Content.PlainText())
	}
	_, err = tx.Exec(`
		INSERT INTO threads (key, title) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = CASE WHEN threads.title = '' THEN excluded.title ELSE threads.title END,
			updated_at = CURRENT_TIMESTAMP
	`, threadKey, title)
	if err != nil {
		return err
	}

	var seq int64
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE thread_key = ?",
		threadKey,
	).Scan(&seq)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO turns (thread_key, seq, role, content, tool_calls, tool_call_id, tool_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, threadKey, seq, string(turn.Role), string(contentJSON),
		toolCallsJSON, nullable(turn.ToolCallID), nullable(turn.ToolName), turn.Timestamp)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	turn.Seq = seq
	return nil
}

// Latest returns the full ordered turn history for a thread, or an empty
// slice if the thread is unknown.
func (s *TurnStore) Latest(threadKey string) ([]models.Turn, error) {
	rows, err := s.db.Query(`
		SELECT seq, role, content, tool_calls, tool_call_id, tool_name, created_at
		FROM turns
		WHERE thread_key = ?
		ORDER BY seq ASC
	`, threadKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn          models.Turn
			role          string
			contentJSON   string
			toolCallsJSON sql.NullString
			toolCallID    sql.NullString
			toolName      sql.NullString
		)

		err := rows.Scan(&turn.Seq, &role, &contentJSON, &toolCallsJSON,
			&toolCallID, &toolName, &turn.Timestamp)
		if err != nil {
			return nil, err
		}

		turn.Role = models.Role(role)
		if err := json.Unmarshal([]byte(contentJSON), &turn.Content); err != nil {
			return nil, fmt.Errorf("decoding content for turn %d: %w", turn.Seq, err)
		}
		if toolCallsJSON.Valid && toolCallsJSON.String != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &turn.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding tool calls for turn %d: %w", turn.Seq, err)
			}
		}
		turn.ToolCallID = toolCallID.String
		turn.ToolName = toolName.String

		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// ListThreads returns every distinct thread key that has at least one turn.
func (s *TurnStore) ListThreads() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT thread_key FROM turns")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Threads returns metadata for every thread with at least one turn,
// most recently updated first.
func (s *TurnStore) Threads() ([]models.ThreadInfo, error) {
	rows, err := s.db.Query(`
		SELECT t.key, t.title, COUNT(tr.seq), t.created_at, t.updated_at
		FROM threads t
		JOIN turns tr ON tr.thread_key = t.key
		GROUP BY t.key
		ORDER BY t.updated_at DESC, t.key
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var infos []models.ThreadInfo
	for rows.Next() {
		var (
			info  models.ThreadInfo
			title string
		)
		if err := rows.Scan(&info.Key, &title, &info.TurnCount, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, err
		}
		if title == "" {
			title = models.DefaultThreadTitle
		}
		info.Title = title
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// DeleteThread removes a thread and its turns.
func (s *TurnStore) DeleteThread(threadKey string) error {
	_, err := s.db.Exec("DELETE FROM threads WHERE key = ?", threadKey)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// touch is kept distinct from Append so tests can age threads deterministically.
func (s *TurnStore) touch(threadKey string, at time.Time) error {
	_, err := s.db.Exec("UPDATE threads SET updated_at = ? WHERE key = ?", at, threadKey)
	return err
}
