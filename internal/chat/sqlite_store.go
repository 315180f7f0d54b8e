package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore persists conversations in the client's local database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) List(ctx context.Context, ownerID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at FROM chats WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	var convs []Conversation
	index := make(map[string]int)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		index[c.ID] = len(convs)
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	msgRows, err := s.db.QueryContext(ctx, `SELECT m.chat_id, m.id, m.sender, m.content, m.created_at
        FROM messages m JOIN chats c ON c.id = m.chat_id
        WHERE c.user_id = ? ORDER BY m.seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var (
			chatID string
			m      Message
		)
		if err := msgRows.Scan(&chatID, &m.ID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if i, ok := index[chatID]; ok {
			convs[i].Messages = append(convs[i].Messages, m)
		}
	}
	return convs, msgRows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, ownerID string, conv Conversation) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO chats (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		conv.ID, ownerID, conv.Title, utc(conv.CreatedAt))
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, conversationID string, msg Message) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO messages (id, chat_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, conversationID, msg.Sender, msg.Content, utc(msg.Timestamp))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, conversationID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
