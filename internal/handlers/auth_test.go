package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/strava"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	oauthCfg, err := strava.OAuthConfig("123", "secret", "http://localhost:8080/auth/callback")
	if err != nil {
		t.Fatalf("OAuthConfig: %v", err)
	}
	sessions := assistant.NewManager(slog.Default())
	return NewAuthHandler(slog.Default(), oauthCfg, nil, sessions, "jwt-secret", time.Hour)
}

func TestAuthorizeIssuesStatefulURL(t *testing.T) {
	handler := newAuthHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/authorize", nil)
	rec := httptest.NewRecorder()

	if err := handler.Authorize(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	var resp AuthorizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.State == "" {
		t.Fatal("expected a state value")
	}
	if !strings.Contains(resp.URL, "state="+resp.State) {
		t.Fatalf("expected state embedded in the consent URL, got %s", resp.URL)
	}
	if !strings.Contains(resp.URL, "client_id=123") {
		t.Fatalf("expected client id in the consent URL, got %s", resp.URL)
	}
}

func TestRedeemStateSingleUse(t *testing.T) {
	handler := newAuthHandler(t)
	handler.states["state-1"] = time.Now().Add(time.Minute)

	if err := handler.redeemState("state-1"); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if err := handler.redeemState("state-1"); err == nil {
		t.Fatal("expected second redemption to fail")
	}
}

func TestRedeemStateExpired(t *testing.T) {
	handler := newAuthHandler(t)
	handler.states["state-1"] = time.Now().Add(-time.Minute)

	if err := handler.redeemState("state-1"); err == nil {
		t.Fatal("expected an expired state to be rejected")
	}
}

func TestCallbackRequiresCode(t *testing.T) {
	handler := newAuthHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s", nil)
	rec := httptest.NewRecorder()

	err := handler.Callback(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
