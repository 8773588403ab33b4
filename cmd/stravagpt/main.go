package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/oauth2"

	"github.com/stravagpt/stravagpt/internal/artifacts"
	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/config"
	"github.com/stravagpt/stravagpt/internal/dataset"
	"github.com/stravagpt/stravagpt/internal/handlers"
	"github.com/stravagpt/stravagpt/internal/llm"
	"github.com/stravagpt/stravagpt/internal/logger"
	"github.com/stravagpt/stravagpt/internal/plot"
	"github.com/stravagpt/stravagpt/internal/search"
	"github.com/stravagpt/stravagpt/internal/server"
	"github.com/stravagpt/stravagpt/internal/strava"
	appsync "github.com/stravagpt/stravagpt/internal/sync"
	"github.com/stravagpt/stravagpt/internal/tools"
	"github.com/stravagpt/stravagpt/internal/version"
)

const httpTimeout = 30 * time.Second

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideLLMClient(log *slog.Logger, cfg config.Config) (*llm.Client, error) {
	return llm.NewClient(log, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey,
		cfg.OpenAI.ChatModel, cfg.OpenAI.VisionModel, 0)
}

func provideRenderer(log *slog.Logger, cfg config.Config) (*plot.Renderer, error) {
	return plot.NewRenderer(log, cfg.Mapbox.AccessToken, cfg.Mapbox.Style, httpTimeout)
}

func provideArtifactStore(log *slog.Logger, cfg config.Config) (artifacts.Store, error) {
	return artifacts.NewFSStore(log, cfg.Artifacts.Dir)
}

func provideOAuthConfig(cfg config.Config) (*oauth2.Config, error) {
	return strava.OAuthConfig(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURI)
}

// provideSessionBuilder wires everything one athlete's session needs. Each
// callback gets its own Strava client and in-memory activity table.
func provideSessionBuilder(log *slog.Logger, cfg config.Config, llmClient *llm.Client, renderer *plot.Renderer, store artifacts.Store) (handlers.SessionBuilder, error) {
	var searcher tools.Searcher
	if cfg.Tavily.APIKey != "" {
		client, err := search.NewClient(log, cfg.Tavily.APIKey, httpTimeout)
		if err != nil {
			return nil, err
		}
		searcher = client
	}

	return func(ctx context.Context, ts oauth2.TokenSource) (string, *assistant.Entry, error) {
		provider, err := strava.NewClient(log, ts, httpTimeout)
		if err != nil {
			return "", nil, err
		}
		table, err := dataset.New(log)
		if err != nil {
			return "", nil, err
		}
		session, athlete, err := assistant.Bootstrap(ctx, assistant.BootstrapDeps{
			Logger:   log,
			Provider: provider,
			LLM:      llmClient,
			Renderer: renderer,
			Searcher: searcher,
			Store:    store,
			Table:    table,
		})
		if err != nil {
			table.Close()
			return "", nil, err
		}
		subject := strconv.FormatInt(athlete.ID, 10)
		return subject, &assistant.Entry{
			Session:  session,
			Table:    table,
			Provider: provider,
		}, nil
	}, nil
}

func provideAuthHandler(log *slog.Logger, cfg config.Config, oauthCfg *oauth2.Config, builder handlers.SessionBuilder, sessions *assistant.Manager) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("parse jwt expiry: %w", err)
	}
	return handlers.NewAuthHandler(log, oauthCfg, builder, sessions, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideSyncService(log *slog.Logger, cfg config.Config, sessions *assistant.Manager) (*appsync.Service, error) {
	return appsync.NewService(log, sessions, cfg.Sync.Schedule)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,

			provideLLMClient,
			provideRenderer,
			provideArtifactStore,
			provideOAuthConfig,
			provideSessionBuilder,
			assistant.NewManager,
			provideSyncService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewChatHandler),
			provideServerHandler(provideArtifactsHandler),

			provideServer,
		),
		fx.Invoke(
			startSyncService,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideArtifactsHandler(log *slog.Logger, store artifacts.Store) *handlers.ArtifactsHandler {
	return handlers.NewArtifactsHandler(log, store)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func startSyncService(lc fx.Lifecycle, svc *appsync.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start()
		},
		OnStop: func(ctx context.Context) error {
			svc.Stop()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
) {
	fmt.Printf("Starting StravaGPT %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
