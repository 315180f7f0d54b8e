package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collegetrack/collegetrack/internal/profile"
	"github.com/collegetrack/collegetrack/internal/relay"
)

// View is the general chat screen: the user's conversations newest first
// and the one currently open.
type View struct {
	user   profile.Profile
	store  Store
	relay  Replier
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	convs   []Conversation
	current int
}

// NewView builds a chat view for user. store may be nil for an unsaved session.
func NewView(user profile.Profile, store Store, replier Replier, logger *slog.Logger) *View {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &View{user: user, store: store, relay: replier, logger: logger, now: time.Now, current: -1}
}

// Load reads the user's saved conversations and opens the newest one.
func (v *View) Load(ctx context.Context) error {
	convs, err := v.store.List(ctx, v.user.ID)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.convs = convs
	v.current = -1
	if len(convs) > 0 {
		v.current = 0
	}
	return nil
}

// Conversations returns copies of every conversation, newest first.
func (v *View) Conversations() []Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Conversation, 0, len(v.convs))
	for _, c := range v.convs {
		out = append(out, c.clone())
	}
	return out
}

// Current returns the open conversation, or nil when there is none.
func (v *View) Current() *Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current < 0 {
		return nil
	}
	c := v.convs[v.current].clone()
	return &c
}

// Select opens the conversation with id.
func (v *View) Select(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, c := range v.convs {
		if c.ID == id {
			v.current = i
			return true
		}
	}
	return false
}

// NewConversation starts a conversation seeded with a welcome message and
// opens it.
func (v *View) NewConversation(ctx context.Context) (Conversation, error) {
	v.mu.Lock()
	title := fmt.Sprintf("New Chat %d", len(v.convs)+1)
	v.mu.Unlock()

	now := v.now().UTC()
	conv := Conversation{ID: uuid.NewString(), Title: title, CreatedAt: now}
	if err := v.store.Create(ctx, v.user.ID, conv); err != nil {
		return Conversation{}, err
	}

	welcome := Message{
		ID:        uuid.NewString(),
		Sender:    SenderBot,
		Content:   fmt.Sprintf("Hello %s! I'm your AI Assistant.", v.user.Name()),
		Timestamp: now,
	}
	if err := v.store.Append(ctx, conv.ID, welcome); err != nil {
		v.logger.WarnContext(ctx, "save welcome message", slog.String("chat_id", conv.ID), slog.Any("error", err))
	}
	conv.Messages = []Message{welcome}

	v.mu.Lock()
	v.convs = append([]Conversation{conv}, v.convs...)
	v.current = 0
	v.mu.Unlock()
	return conv.clone(), nil
}

// Send posts text to the open conversation and appends the relay's reply.
// Blank input, or no open conversation, is ignored.
func (v *View) Send(ctx context.Context, text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}

	v.mu.Lock()
	if v.current < 0 {
		v.mu.Unlock()
		return Message{}, false
	}
	convID := v.convs[v.current].ID
	history := toTurns(v.convs[v.current].Messages)
	userMsg := Message{ID: uuid.NewString(), Sender: SenderUser, Content: text, Timestamp: v.now().UTC()}
	v.appendLocked(convID, userMsg)
	v.mu.Unlock()

	v.persist(ctx, convID, userMsg)

	reply := v.relay.Send(ctx, relay.Request{Message: text, Conversation: history})
	botMsg := Message{ID: uuid.NewString(), Sender: SenderBot, Content: reply, Timestamp: v.now().UTC()}

	v.mu.Lock()
	v.appendLocked(convID, botMsg)
	v.mu.Unlock()

	v.persist(ctx, convID, botMsg)
	return botMsg, true
}

// Remove deletes the open conversation and opens the next newest one.
func (v *View) Remove(ctx context.Context) error {
	v.mu.Lock()
	if v.current < 0 {
		v.mu.Unlock()
		return nil
	}
	id := v.convs[v.current].ID
	v.mu.Unlock()

	if err := v.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	remaining := v.convs[:0:0]
	for _, c := range v.convs {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	v.convs = remaining
	v.current = -1
	if len(remaining) > 0 {
		v.current = 0
	}
	return nil
}

func (v *View) appendLocked(convID string, msg Message) {
	for i := range v.convs {
		if v.convs[i].ID == convID {
			v.convs[i].Messages = append(v.convs[i].Messages, msg)
			return
		}
	}
}

func (v *View) persist(ctx context.Context, convID string, msg Message) {
	if err := v.store.Append(ctx, convID, msg); err != nil {
		v.logger.WarnContext(ctx, "save message", slog.String("chat_id", convID), slog.String("sender", msg.Sender), slog.Any("error", err))
	}
}
