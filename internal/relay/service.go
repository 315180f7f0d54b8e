package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the upstream chat-completion API.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAICompleter builds the upstream client. baseURL may be empty.
func NewOpenAICompleter(apiKey, baseURL, credentialEnv string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("completion credential %s is not set", credentialEnv)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg), nil
}

// Service turns relay requests into completion calls.
type Service struct {
	cfg       Config
	completer Completer
	logger    *slog.Logger
}

// NewService constructs a relay service.
func NewService(cfg Config, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg.withDefaults(), completer: completer, logger: logger}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// BuildMessages maps the request to the upstream message list: system prompt,
// prior turns in order, then the new message as the final user turn.
func (s *Service) BuildMessages(req Request) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Conversation)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.cfg.Prompts.For(req.Category),
	})
	for _, turn := range req.Conversation {
		role := openai.ChatMessageRoleAssistant
		if turn.Sender == SenderUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})
}

// Reply calls the completion API. An empty first choice yields ReplyEmpty.
func (s *Service) Reply(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.Model,
		Messages:  s.BuildMessages(req),
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		s.logger.WarnContext(ctx, "empty completion", slog.String("model", s.cfg.Model))
		return ReplyEmpty, nil
	}
	return resp.Choices[0].Message.Content, nil
}
