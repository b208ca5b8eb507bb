package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tognete/codi/pkg/coditypes"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    workspace_path TEXT NOT NULL DEFAULT '',
    current_file TEXT NOT NULL DEFAULT '',
    active_task TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    conversation_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    PRIMARY KEY (conversation_id, position),
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);`

// SQLitePersister stores conversations in a SQLite database. Handles are conversation IDs.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister opens (and migrates) the database at path.
func NewSQLitePersister(path string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Close releases the database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// Save replaces the stored copy of conv in one transaction.
func (p *SQLitePersister) Save(ctx context.Context, conv *coditypes.Conversation) (string, error) {
	convContext, err := json.Marshal(conv.Context)
	if err != nil {
		return "", fmt.Errorf("failed to encode context: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO conversations (id, workspace_path, current_file, active_task, context, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            workspace_path = excluded.workspace_path,
            current_file = excluded.current_file,
            active_task = excluded.active_task,
            context = excluded.context,
            updated_at = excluded.updated_at`,
		conv.ID, conv.WorkspacePath, conv.CurrentFile, conv.ActiveTask, string(convContext),
		formatTime(conv.CreatedAt), formatTime(conv.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO messages (conversation_id, position, id, role, content, metadata, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmt.Close() }()

	for i, msg := range conv.Messages {
		metadata, err := json.Marshal(msg.Metadata)
		if err != nil {
			return "", fmt.Errorf("failed to encode metadata of message %s: %w", msg.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, conv.ID, i, msg.ID, string(msg.Role), msg.Content, string(metadata), formatTime(msg.Timestamp)); err != nil {
			return "", fmt.Errorf("failed to save message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// Load reads the conversation with ID handle.
func (p *SQLitePersister) Load(ctx context.Context, handle string) (*coditypes.Conversation, error) {
	var (
		conv                 coditypes.Conversation
		convContext          string
		createdAt, updatedAt string
	)
	err := p.db.QueryRowContext(ctx, `
        SELECT id, workspace_path, current_file, active_task, context, created_at, updated_at
        FROM conversations WHERE id = ?`, handle).
		Scan(&conv.ID, &conv.WorkspacePath, &conv.CurrentFile, &conv.ActiveTask, &convContext, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(convContext), &conv.Context); err != nil {
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)

	rows, err := p.db.QueryContext(ctx, `
        SELECT id, role, content, metadata, created_at
        FROM messages WHERE conversation_id = ?
        ORDER BY position`, handle)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	conv.Messages = []coditypes.Message{}
	for rows.Next() {
		var (
			msg      coditypes.Message
			role     string
			metadata string
			ts       string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &metadata, &ts); err != nil {
			return nil, err
		}
		msg.Role = coditypes.Role(role)
		msg.Timestamp = parseTime(ts)
		if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of message %s: %w", msg.ID, err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return &conv, rows.Err()
}

// List returns stored conversations, most recently updated first.
func (p *SQLitePersister) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT c.id, c.updated_at, COUNT(m.id)
        FROM conversations c
        LEFT JOIN messages m ON m.conversation_id = c.id
        GROUP BY c.id
        ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var s Summary
		var updatedAt string
		if err := rows.Scan(&s.ID, &updatedAt, &s.Messages); err != nil {
			return nil, err
		}
		s.Handle = s.ID
		s.UpdatedAt = parseTime(updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
