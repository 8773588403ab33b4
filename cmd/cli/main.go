package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/stravagpt/stravagpt/internal/config"
	"github.com/stravagpt/stravagpt/internal/handlers"
	"github.com/stravagpt/stravagpt/internal/logger"
	"github.com/stravagpt/stravagpt/internal/version"
)

type cliOptions struct {
	configPath  string
	jwtToken    string
	timeout     time.Duration
	apiBaseURL  string
	showVersion bool
}

func main() {
	opts := parseFlags()
	if opts.showVersion {
		fmt.Printf("StravaGPT CLI %s\n", version.GetInfo())
		return
	}
	ctx := context.Background()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if strings.TrimSpace(opts.apiBaseURL) == "" {
		opts.apiBaseURL = defaultAPIBaseURL(cfg.Server.Addr)
	}
	if strings.TrimSpace(opts.apiBaseURL) == "" {
		logger.Error("api url is required")
		os.Exit(1)
	}
	opts.apiBaseURL = normalizeBaseURL(opts.apiBaseURL)

	client := &http.Client{Timeout: opts.timeout}
	jwtToken := strings.TrimSpace(opts.jwtToken)
	if jwtToken == "" {
		jwtToken, err = authorize(ctx, client, opts.apiBaseURL)
		if err != nil {
			logger.Error("authorize", slog.Any("error", err))
			os.Exit(1)
		}
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query != "" {
		if err := sendChat(ctx, client, opts.apiBaseURL, jwtToken, query); err != nil {
			logger.Error("chat failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}
	if err := runInteractive(ctx, client, opts.apiBaseURL, jwtToken); err != nil {
		logger.Error("chat failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	flag.StringVar(&opts.configPath, "config", defaultConfig, "Path to config.toml")
	flag.StringVar(&opts.jwtToken, "jwt", "", "JWT token (skip the authorization flow)")
	flag.StringVar(&opts.apiBaseURL, "api-url", "", "API server base URL (e.g. http://127.0.0.1:8080)")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Request timeout")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version information")
	flag.Parse()

	return opts
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func defaultAPIBaseURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return normalizeBaseURL(trimmed)
	}
	if strings.HasPrefix(trimmed, ":") {
		return "http://127.0.0.1" + trimmed
	}
	return "http://" + trimmed
}

// authorize walks the user through the Strava consent flow: print the
// consent URL, read the redirect URL (or bare code) back from stdin, and
// trade it for an access token through the server's callback.
func authorize(ctx context.Context, client *http.Client, baseURL string) (string, error) {
	var auth handlers.AuthorizeResponse
	if err := getJSON(ctx, client, baseURL+"/auth/authorize", &auth); err != nil {
		return "", fmt.Errorf("authorization url: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Open this URL in your browser and approve access:")
	fmt.Fprintln(os.Stdout, "  "+auth.URL)
	fmt.Fprint(os.Stdout, "Paste the redirect URL (or just the code): ")

	reader := bufio.NewScanner(os.Stdin)
	if !reader.Scan() {
		if err := reader.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no input")
	}
	code, state, err := parseRedirectInput(strings.TrimSpace(reader.Text()), auth.State)
	if err != nil {
		return "", err
	}

	callbackURL := fmt.Sprintf("%s/auth/callback?code=%s&state=%s",
		baseURL, url.QueryEscape(code), url.QueryEscape(state))
	var callback handlers.CallbackResponse
	if err := getJSON(ctx, client, callbackURL, &callback); err != nil {
		return "", fmt.Errorf("code exchange: %w", err)
	}
	if strings.TrimSpace(callback.AccessToken) == "" {
		return "", fmt.Errorf("authorization succeeded but token missing")
	}
	fmt.Fprintf(os.Stdout, "Authorized athlete %s (token valid until %s)\n",
		callback.AthleteID, callback.ExpiresAt)
	return callback.AccessToken, nil
}

// parseRedirectInput accepts either the full redirect URL or a bare code.
func parseRedirectInput(input, fallbackState string) (code, state string, err error) {
	if input == "" {
		return "", "", fmt.Errorf("code is required")
	}
	if strings.Contains(input, "://") || strings.Contains(input, "code=") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", "", fmt.Errorf("parse redirect url: %w", err)
		}
		query := parsed.Query()
		code = query.Get("code")
		state = query.Get("state")
		if code == "" {
			return "", "", fmt.Errorf("redirect url has no code parameter")
		}
		if state == "" {
			state = fallbackState
		}
		return code, state, nil
	}
	return input, fallbackState, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api server error: %s", strings.TrimSpace(string(payload)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runInteractive(ctx context.Context, client *http.Client, baseURL, jwtToken string) error {
	reader := bufio.NewScanner(os.Stdin)
	reader.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	fmt.Fprint(os.Stdout, "You: ")
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			fmt.Fprint(os.Stdout, "You: ")
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			return nil
		}
		if err := sendChat(ctx, client, baseURL, jwtToken, line); err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, "You: ")
	}
	return reader.Err()
}

func sendChat(ctx context.Context, client *http.Client, baseURL, jwtToken, query string) error {
	body, err := json.Marshal(handlers.ChatRequest{Query: query})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+jwtToken)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api server error: %s", strings.TrimSpace(string(payload)))
	}

	var chat handlers.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Assistant: "+chat.Answer)
	for _, artifact := range chat.Artifacts {
		fmt.Fprintf(os.Stdout, "  [%s] %s%s\n", artifact.Kind, baseURL, artifact.URL)
	}
	return nil
}
