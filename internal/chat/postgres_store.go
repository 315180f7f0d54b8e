package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversations for the self-hosted backend.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed chat store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]Conversation, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner id: %w", err)
	}
	rows, err := s.db.Query(ctx, `SELECT c.id::text, c.title, c.created_at, m.id::text, m.sender, m.content, m.created_at
        FROM chats c LEFT JOIN messages m ON m.chat_id = c.id
        WHERE c.user_id = $1
        ORDER BY c.created_at DESC, c.id, m.seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var (
			c                      Conversation
			msgID, sender, content *string
			msgCreatedAt           *time.Time
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &msgID, &sender, &content, &msgCreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		if n := len(convs); n == 0 || convs[n-1].ID != c.ID {
			convs = append(convs, c)
		}
		if msgID == nil {
			continue
		}
		m := Message{ID: *msgID, Sender: deref(sender), Content: deref(content)}
		if msgCreatedAt != nil {
			m.Timestamp = msgCreatedAt.UTC()
		}
		last := &convs[len(convs)-1]
		last.Messages = append(last.Messages, m)
	}
	return convs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *PostgresStore) Create(ctx context.Context, ownerID string, conv Conversation) error {
	id, err := uuid.Parse(conv.ID)
	if err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return fmt.Errorf("owner id: %w", err)
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO chats (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)`,
		id, owner, conv.Title, utc(conv.CreatedAt)); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, conversationID string, msg Message) error {
	chatID, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrNotFound
	}
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return fmt.Errorf("message id: %w", err)
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO messages (id, chat_id, sender, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, chatID, msg.Sender, msg.Content, utc(msg.Timestamp)); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, conversationID string) error {
	chatID, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := s.db.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
