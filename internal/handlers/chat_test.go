package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/auth"
	"github.com/stravagpt/stravagpt/internal/llm"
	"github.com/stravagpt/stravagpt/internal/tools"
)

type fixedCompleter struct {
	answer string
}

func (f *fixedCompleter) Complete(_ context.Context, _ []llm.Message, _ []llm.Tool, _ float32) (llm.Completion, error) {
	return llm.Completion{
		Message:      llm.AssistantMessage(f.answer),
		FinishReason: "stop",
	}, nil
}

func chatContext(t *testing.T, body, subject string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if subject != "" {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		})
		c.Set("user", token)
	}
	return c, rec
}

func readySessions(t *testing.T, subject, answer string) *assistant.Manager {
	t.Helper()
	registry := tools.NewRegistry(slog.Default())
	session, err := assistant.NewSession(slog.Default(), &fixedCompleter{answer: answer}, registry, "system prompt", assistant.Options{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sessions := assistant.NewManager(slog.Default())
	sessions.Put(subject, &assistant.Entry{Session: session})
	return sessions
}

func TestChatAnswers(t *testing.T) {
	sessions := readySessions(t, "12345", "42 kilometers last week")
	handler := NewChatHandler(slog.Default(), sessions)

	c, rec := chatContext(t, `{"query":"how far did I ride?"}`, "12345")
	if err := handler.Chat(c); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Answer != "42 kilometers last week" {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
}

func TestChatBeforeAuthorizationIsConflict(t *testing.T) {
	sessions := assistant.NewManager(slog.Default())
	handler := NewChatHandler(slog.Default(), sessions)

	c, _ := chatContext(t, `{"query":"hello"}`, "12345")
	err := handler.Chat(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestChatWithoutSubjectIsUnauthorized(t *testing.T) {
	sessions := assistant.NewManager(slog.Default())
	handler := NewChatHandler(slog.Default(), sessions)

	c, _ := chatContext(t, `{"query":"hello"}`, "")
	err := handler.Chat(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestChatRequiresQuery(t *testing.T) {
	sessions := readySessions(t, "12345", "answer")
	handler := NewChatHandler(slog.Default(), sessions)

	c, _ := chatContext(t, `{"query":"  "}`, "12345")
	err := handler.Chat(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
