package supabase

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/collegetrack/collegetrack/internal/chat"
)

const chatSelect = "id,title,created_at,messages(id,sender,content,created_at)"

// ChatStore keeps conversations in the chats and messages tables.
type ChatStore struct {
	client *Client
}

// Chats returns the chat store sharing this client's session.
func (c *Client) Chats() *ChatStore {
	return &ChatStore{client: c}
}

type chatRow struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id,omitempty"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Messages  []messageRow `json:"messages,omitempty"`
}

type messageRow struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *ChatStore) List(ctx context.Context, ownerID string) ([]chat.Conversation, error) {
	q := url.Values{}
	q.Set("select", chatSelect)
	q.Set("user_id", "eq."+ownerID)
	q.Set("order", "created_at.desc")
	q.Set("messages.order", "created_at.asc")

	var rows []chatRow
	if err := s.client.callAs(ctx, fiber.MethodGet, "/rest/v1/chats?"+q.Encode(), s.client.cfg.AnonKey, s.client.bearer(), nil, nil, &rows); err != nil {
		return nil, err
	}
	convs := make([]chat.Conversation, 0, len(rows))
	for _, row := range rows {
		conv := chat.Conversation{ID: row.ID, Title: row.Title, CreatedAt: row.CreatedAt.UTC()}
		for _, m := range row.Messages {
			conv.Messages = append(conv.Messages, chat.Message{ID: m.ID, Sender: m.Sender, Content: m.Content, Timestamp: m.CreatedAt.UTC()})
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (s *ChatStore) Create(ctx context.Context, ownerID string, conv chat.Conversation) error {
	row := chatRow{ID: conv.ID, UserID: ownerID, Title: conv.Title, CreatedAt: stamp(conv.CreatedAt)}
	headers := map[string]string{"Prefer": "return=minimal"}
	return s.client.callAs(ctx, fiber.MethodPost, "/rest/v1/chats", s.client.cfg.AnonKey, s.client.bearer(), headers, row, nil)
}

func (s *ChatStore) Append(ctx context.Context, conversationID string, msg chat.Message) error {
	row := messageRow{ID: msg.ID, ChatID: conversationID, Sender: msg.Sender, Content: msg.Content, CreatedAt: stamp(msg.Timestamp)}
	headers := map[string]string{"Prefer": "return=minimal"}
	return s.client.callAs(ctx, fiber.MethodPost, "/rest/v1/messages", s.client.cfg.AnonKey, s.client.bearer(), headers, row, nil)
}

func (s *ChatStore) Delete(ctx context.Context, conversationID string) error {
	var deleted []chatRow
	headers := map[string]string{"Prefer": "return=representation"}
	path := "/rest/v1/chats?id=eq." + url.QueryEscape(conversationID)
	if err := s.client.callAs(ctx, fiber.MethodDelete, path, s.client.cfg.AnonKey, s.client.bearer(), headers, nil, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
