package chat

import (
	"context"
	"errors"
	"time"

	"github.com/collegetrack/collegetrack/internal/relay"
)

const (
	SenderUser = relay.SenderUser
	SenderBot  = relay.SenderBot
)

var ErrNotFound = errors.New("conversation not found")

// Message is one entry of a conversation. Insertion order is authoritative.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"created_at"`
}

// Conversation is a titled list of messages owned by one user.
type Conversation struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
}

func (c Conversation) clone() Conversation {
	c.Messages = append([]Message(nil), c.Messages...)
	return c
}

// Store persists conversations.
type Store interface {
	// List returns the owner's conversations newest first, each with its
	// messages in insertion order.
	List(ctx context.Context, ownerID string) ([]Conversation, error)
	Create(ctx context.Context, ownerID string, conv Conversation) error
	Append(ctx context.Context, conversationID string, msg Message) error
	Delete(ctx context.Context, conversationID string) error
}

// Replier sends a turn to the chat relay.
type Replier interface {
	Send(ctx context.Context, req relay.Request) string
}

func toTurns(messages []Message) []relay.Turn {
	turns := make([]relay.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, relay.Turn{Sender: m.Sender, Content: m.Content})
	}
	return turns
}
