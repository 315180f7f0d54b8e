package relay

import (
	"errors"
	"time"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 300
	DefaultTimeout   = 30 * time.Second

	SenderUser = "user"
	SenderBot  = "bot"

	// CategoryPersonalStatement selects the personal-statement prompt.
	CategoryPersonalStatement = "2"

	GenericPrompt           = "You are a helpful admissions assistant."
	PersonalStatementPrompt = "You are a helpful admissions assistant specializing in personal statements."

	ReplyNoMessage        = "No message provided"
	ReplyInvalidBody      = "Invalid request body"
	ReplyMethodNotAllowed = "Method not allowed"
	ReplyProcessingError  = "Error processing message"
	ReplyEmpty            = "Sorry, I couldn't process your message."
	ReplyTransportError   = "Sorry, there was an error processing your message."
)

// ErrEmptyMessage is returned when a request carries no message text.
var ErrEmptyMessage = errors.New("no message provided")

// Turn is one prior message of the conversation.
type Turn struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Request is the relay's inbound payload.
type Request struct {
	Message      string `json:"message"`
	Conversation []Turn `json:"conversation,omitempty"`
	Category     string `json:"category,omitempty"`
}

// Response is the relay's only response shape, used for errors as well.
type Response struct {
	Reply string `json:"reply"`
}

// Prompts maps categories to system prompts.
type Prompts struct {
	Default    string
	ByCategory map[string]string
}

// DefaultPrompts returns the built-in prompt table.
func DefaultPrompts() Prompts {
	return Prompts{
		Default:    GenericPrompt,
		ByCategory: map[string]string{CategoryPersonalStatement: PersonalStatementPrompt},
	}
}

// For returns the system prompt for category.
func (p Prompts) For(category string) string {
	if prompt, ok := p.ByCategory[category]; ok {
		return prompt
	}
	return p.Default
}

// Config is the single relay configuration shared by every endpoint.
type Config struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// CredentialEnv names the environment variable the completion key was
	// read from. It only appears in diagnostics.
	CredentialEnv string
	Prompts       Prompts
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Prompts.Default == "" {
		c.Prompts = DefaultPrompts()
	}
	return c
}
