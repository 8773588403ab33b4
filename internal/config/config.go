// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultRedirectURI   = "http://localhost:8080/auth/callback"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultChatModel     = "gpt-4o"
	DefaultVisionModel   = "gpt-4o-mini"
	DefaultMapboxStyle   = "streets-v12"
	DefaultArtifactDir   = "artifacts"
	DefaultJWTExpiresIn  = "24h"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Strava    StravaConfig    `toml:"strava"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Mapbox    MapboxConfig    `toml:"mapbox"`
	Tavily    TavilyConfig    `toml:"tavily"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Sync      SyncConfig      `toml:"sync"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig holds the JWT secret and token expiry for chat sessions (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// StravaConfig holds the Strava OAuth application credentials and redirect URI.
type StravaConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// OpenAIConfig holds the completion API key, base URL, and model names.
type OpenAIConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	ChatModel   string `toml:"chat_model"`
	VisionModel string `toml:"vision_model"`
}

// MapboxConfig holds the basemap access token and style for route rendering.
type MapboxConfig struct {
	AccessToken string `toml:"access_token"`
	Style       string `toml:"style"`
}

// TavilyConfig holds the web search API key (optional; search tool disabled when empty).
type TavilyConfig struct {
	APIKey string `toml:"api_key"`
}

// ArtifactsConfig holds the directory for generated route maps.
type ArtifactsConfig struct {
	Dir string `toml:"dir"`
}

// SyncConfig holds the dataset refresh cron schedule (empty disables refresh).
type SyncConfig struct {
	Schedule string `toml:"schedule"`
}

// Load reads and parses the TOML config file at path, applies defaults for
// missing fields, and fills credentials from the environment when unset
// (STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET, OPENAI_KEY, MAPBOX_KEY, TAVILY_API_KEY).
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Strava: StravaConfig{
			RedirectURI: DefaultRedirectURI,
		},
		OpenAI: OpenAIConfig{
			BaseURL:     DefaultOpenAIBaseURL,
			ChatModel:   DefaultChatModel,
			VisionModel: DefaultVisionModel,
		},
		Mapbox: MapboxConfig{
			Style: DefaultMapboxStyle,
		},
		Artifacts: ArtifactsConfig{
			Dir: DefaultArtifactDir,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg.Strava.ClientID, "STRAVA_CLIENT_ID")
	applyEnv(&cfg.Strava.ClientSecret, "STRAVA_CLIENT_SECRET")
	applyEnv(&cfg.OpenAI.APIKey, "OPENAI_KEY")
	applyEnv(&cfg.Mapbox.AccessToken, "MAPBOX_KEY")
	applyEnv(&cfg.Tavily.APIKey, "TAVILY_API_KEY")
	applyEnv(&cfg.Auth.JWTSecret, "STRAVAGPT_JWT_SECRET")

	return cfg, nil
}

func applyEnv(target *string, key string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}
