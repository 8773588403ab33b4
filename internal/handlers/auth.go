package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/auth"
	"github.com/stravagpt/stravagpt/internal/dataset"
	"github.com/stravagpt/stravagpt/internal/strava"
)

// stateTTL bounds how long an issued authorization state stays redeemable.
const stateTTL = 10 * time.Minute

// SessionBuilder turns a freshly exchanged token source into a ready session.
// It fetches the athlete's history, builds the dataset and system prompt, and
// returns the athlete ID used as the JWT subject.
type SessionBuilder func(ctx context.Context, ts oauth2.TokenSource) (subject string, entry *assistant.Entry, err error)

// AuthHandler drives the Strava authorization-code flow and issues the JWT
// that unlocks /api once the session is bootstrapped.
type AuthHandler struct {
	oauthCfg  *oauth2.Config
	builder   SessionBuilder
	sessions  *assistant.Manager
	jwtSecret string
	expiresIn time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	states map[string]time.Time
}

// AuthorizeResponse carries the consent URL the user must visit.
type AuthorizeResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// CallbackResponse is the success body after the code exchange.
type CallbackResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	AthleteID   string `json:"athlete_id"`
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(log *slog.Logger, oauthCfg *oauth2.Config, builder SessionBuilder, sessions *assistant.Manager, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	return &AuthHandler{
		oauthCfg:  oauthCfg,
		builder:   builder,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		expiresIn: expiresIn,
		logger:    log.With(slog.String("handler", "auth")),
		states:    make(map[string]time.Time),
	}
}

// Register mounts the authorization routes on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.GET("/auth/authorize", h.Authorize)
	e.GET("/auth/callback", h.Callback)
}

// Authorize returns the Strava consent URL with a fresh state value.
func (h *AuthHandler) Authorize(c echo.Context) error {
	if h.oauthCfg == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "strava credentials not configured")
	}
	state := uuid.NewString()
	h.mu.Lock()
	h.states[state] = time.Now().Add(stateTTL)
	h.mu.Unlock()

	return c.JSON(http.StatusOK, AuthorizeResponse{
		URL:   strava.AuthCodeURL(h.oauthCfg, state),
		State: state,
	})
}

// Callback exchanges the redirect code, bootstraps the session, and issues
// the access token. An athlete with no activities is rejected here so the
// failure surfaces during authorization rather than at first question.
func (h *AuthHandler) Callback(c echo.Context) error {
	if h.oauthCfg == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "strava credentials not configured")
	}
	if strings.TrimSpace(h.jwtSecret) == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "jwt secret not configured")
	}

	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if err := h.redeemState(c.QueryParam("state")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	ts, err := strava.Exchange(ctx, h.oauthCfg, code)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	subject, entry, err := h.builder(ctx, ts)
	if err != nil {
		if errors.Is(err, dataset.ErrEmpty) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "no activities found for this athlete")
		}
		h.logger.Error("session bootstrap failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.sessions.Put(subject, entry)

	token, expiresAt, err := auth.GenerateToken(subject, h.jwtSecret, h.expiresIn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.logger.Info("athlete authorized", slog.String("athlete_id", subject))
	return c.JSON(http.StatusOK, CallbackResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		AthleteID:   subject,
	})
}

// redeemState consumes a previously issued state value exactly once.
func (h *AuthHandler) redeemState(state string) error {
	state = strings.TrimSpace(state)
	if state == "" {
		return errors.New("state is required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	deadline, ok := h.states[state]
	delete(h.states, state)
	for s, d := range h.states {
		if time.Now().After(d) {
			delete(h.states, s)
		}
	}
	if !ok {
		return errors.New("unknown state")
	}
	if time.Now().After(deadline) {
		return errors.New("state expired")
	}
	return nil
}
