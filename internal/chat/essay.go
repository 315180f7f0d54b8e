package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collegetrack/collegetrack/internal/profile"
	"github.com/collegetrack/collegetrack/internal/relay"
)

// Essay categories offered by the assistant.
const (
	CategoryGeneral           = "1"
	CategoryPersonalStatement = relay.CategoryPersonalStatement
	CategoryWritingAdvice     = "3"
)

var categoryLabels = map[string]string{
	CategoryGeneral:           "General essay/supplemental writing insight",
	CategoryPersonalStatement: "Personal statement assistance",
	CategoryWritingAdvice:     "General writing advice",
}

// EssayAssistant is the category-driven essay help screen. Its messages are
// kept only for the lifetime of the screen.
type EssayAssistant struct {
	relay Replier
	now   func() time.Time

	mu       sync.Mutex
	messages []Message
	category string
}

// NewEssayAssistant greets user and lists the categories.
func NewEssayAssistant(user profile.Profile, replier Replier) *EssayAssistant {
	e := &EssayAssistant{relay: replier, now: time.Now}
	greeting := fmt.Sprintf("Hello %s! I'm your Essay Assistant. Do you need help with: \n1) %s\n2) %s\n3) %s?",
		user.Name(),
		categoryLabels[CategoryGeneral],
		categoryLabels[CategoryPersonalStatement],
		categoryLabels[CategoryWritingAdvice],
	)
	e.messages = []Message{e.message(SenderBot, greeting)}
	return e
}

// Messages returns a copy of the transcript.
func (e *EssayAssistant) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.messages...)
}

// Category is the selected category, empty until one is chosen.
func (e *EssayAssistant) Category() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.category
}

// SelectCategory picks "1", "2" or "3" and acknowledges the choice.
func (e *EssayAssistant) SelectCategory(category string) bool {
	label, ok := categoryLabels[category]
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.category = category
	e.messages = append(e.messages, e.message(SenderBot, "You selected: "+label+"."))
	return true
}

// Send forwards text with the selected category. It does nothing until a
// category is selected or when text is blank.
func (e *EssayAssistant) Send(ctx context.Context, text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}
	e.mu.Lock()
	category := e.category
	if category == "" {
		e.mu.Unlock()
		return Message{}, false
	}
	e.messages = append(e.messages, e.message(SenderUser, text))
	e.mu.Unlock()

	reply := e.relay.Send(ctx, relay.Request{Message: text, Category: category})

	e.mu.Lock()
	defer e.mu.Unlock()
	msg := e.message(SenderBot, reply)
	e.messages = append(e.messages, msg)
	return msg, true
}

func (e *EssayAssistant) message(sender, content string) Message {
	return Message{ID: uuid.NewString(), Sender: sender, Content: content, Timestamp: e.now().UTC()}
}
