package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/auth"
)

// ChatHandler answers questions through the athlete's session.
type ChatHandler struct {
	sessions *assistant.Manager
	logger   *slog.Logger
}

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatArtifact references one artifact produced while answering.
type ChatArtifact struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// ChatResponse is the success body for POST /api/chat.
type ChatResponse struct {
	Answer    string         `json:"answer"`
	Artifacts []ChatArtifact `json:"artifacts,omitempty"`
}

// NewChatHandler creates the chat handler.
func NewChatHandler(log *slog.Logger, sessions *assistant.Manager) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		logger:   log.With(slog.String("handler", "chat")),
	}
}

// Register mounts POST /api/chat on the Echo instance.
func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
}

// Chat runs one question through the session's completion loop. Asking before
// the authorization callback has bootstrapped a session is a conflict.
func (h *ChatHandler) Chat(c echo.Context) error {
	subject := auth.SubjectFromContext(c)
	if subject == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no subject in token")
	}
	entry, ok := h.sessions.Get(subject)
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "session not ready, authorize first")
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	answer, produced, err := entry.Session.Ask(c.Request().Context(), req.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrTooManyToolRounds) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		h.logger.Error("chat failed", slog.String("athlete_id", subject), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := ChatResponse{Answer: answer}
	for _, ref := range produced {
		resp.Artifacts = append(resp.Artifacts, ChatArtifact{
			ID:          ref.ID,
			Kind:        ref.Kind,
			ContentType: ref.ContentType,
			URL:         "/api/artifacts/" + ref.ID,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
