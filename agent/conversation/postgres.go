package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true"`
}

func (c PostgresConfig) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("%w: postgres dsn is required", contractx.ErrValidation)
	}
	return nil
}

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
}

type messageRow struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Sender         string    `bun:"sender,notnull"`
	MessageText    string    `bun:"message_text,notnull"`
	Status         string    `bun:"status,notnull,default:'ok'"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// PostgresStore persists conversations in Postgres through bun.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ contractx.ConversationStore = (*PostgresStore)(nil)

func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(strings.TrimSpace(cfg.DSN))))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*conversationRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*messageRow)(nil)).
		IfNotExists().
		ForeignKey(`("conversation_id") REFERENCES "conversations" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*messageRow)(nil)).
		Index("idx_messages_conversation").
		IfNotExists().
		Column("conversation_id", "created_at", "id").
		Exec(ctx); err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateConversation(ctx context.Context, userID string) (string, error) {
	row := &conversationRow{
		ID:        newConversationID(),
		UserID:    normalizeUserID(userID),
		StartTime: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return row.ID, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, conversationID string, turn contractx.Turn) error {
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

	row := &messageRow{
		ConversationID: id,
		Sender:         string(turn.Sender),
		MessageText:    turn.Text,
		Status:         string(turn.Status),
		CreatedAt:      turn.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureConversation(ctx, id); err != nil {
		return nil, err
	}

	var rows []messageRow
	err = s.db.NewSelect().
		Model(&rows).
		Where("conversation_id = ?", id).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select messages: %w", err)
	}

	turns := make([]contractx.Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, contractx.Turn{
			Sender:    contractx.Sender(r.Sender),
			Text:      r.MessageText,
			Status:    contractx.TurnStatus(r.Status),
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return turns, nil
}

func (s *PostgresStore) ensureConversation(ctx context.Context, id string) error {
	exists, err := s.db.NewSelect().Model((*conversationRow)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("lookup conversation: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: id=%s", contractx.ErrConversationNotFound, id)
	}
	return nil
}
