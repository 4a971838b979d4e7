package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	start_time INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender          TEXT NOT NULL,
	message_text    TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'ok',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at, id);
`

// Path must not carry an envconfig alias: envconfig falls back to the bare
// alias, which would read the process PATH.
type SQLiteConfig struct {
	Path string `split_words:"true" default:"conversations.db"`
}

// SQLiteStore persists conversations in a local SQLite file. Timestamps are
// stored as unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ contractx.ConversationStore = (*SQLiteStore)(nil)

func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "conversations.db"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, userID string) (string, error) {
	id := newConversationID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, start_time) VALUES (?, ?, ?)`,
		id, normalizeUserID(userID), s.now().UTC().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, turn contractx.Turn) error {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return err
	}
	turn, err = prepareTurn(turn, s.now)
	if err != nil {
		return err
	}

	if err := s.ensureConversation(ctx, id); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, sender, message_text, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(turn.Sender), turn.Text, string(turn.Status), turn.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetHistory(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureConversation(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, message_text, status, created_at FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at ASC, id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var turns []contractx.Turn
	for rows.Next() {
		var (
			sender, text, status string
			createdAt            int64
		)
		if err := rows.Scan(&sender, &text, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		turns = append(turns, contractx.Turn{
			Sender:    contractx.Sender(sender),
			Text:      text,
			Status:    contractx.TurnStatus(status),
			CreatedAt: time.Unix(0, createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return turns, nil
}

func (s *SQLiteStore) ensureConversation(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM conversations WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lookup conversation: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: id=%s", contractx.ErrConversationNotFound, id)
	}
	return nil
}
