package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/collegetrack/collegetrack/internal/config"
	"github.com/collegetrack/collegetrack/internal/logging"
)

type echoCompleter struct{}

func (echoCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	last := req.Messages[len(req.Messages)-1].Content
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: "echo: " + last}},
	}}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{AppName: "test", Port: "0", ChatModel: "m", ChatMaxTokens: 10, ChatTimeout: time.Second}
	srv, err := New(cfg, echoCompleter{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func decodeReply(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Reply
}

func TestRelayPathsShareHandler(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/openai", "/api/v1/chat"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"message":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := srv.App().Test(req, -1)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
		if got := decodeReply(t, resp); got != "echo: hello" {
			t.Fatalf("%s: unexpected reply %q", path, got)
		}
	}
}

func TestRelayMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.App().Test(httptest.NewRequest(http.MethodPut, "/api/v1/chat", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if got := decodeReply(t, resp); got != "Method not allowed" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestUnknownRouteUsesReplyShape(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if got := decodeReply(t, resp); got == "" {
		t.Fatalf("expected reply body")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["timestamp"] == "" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestNewRequiresCompleter(t *testing.T) {
	if _, err := New(config.Config{}, nil, logging.Discard()); err == nil {
		t.Fatalf("expected error without completer")
	}
}
