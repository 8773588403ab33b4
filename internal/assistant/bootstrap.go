package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stravagpt/stravagpt/internal/artifacts"
	"github.com/stravagpt/stravagpt/internal/dataset"
	"github.com/stravagpt/stravagpt/internal/prompts"
	"github.com/stravagpt/stravagpt/internal/strava"
	"github.com/stravagpt/stravagpt/internal/tools"
)

// ActivityProvider is the slice of the Strava client the session needs.
type ActivityProvider interface {
	ListActivities(ctx context.Context, after, before time.Time) ([]strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64, types []string, resolution string) (strava.StreamSet, error)
	GetAthlete(ctx context.Context) (strava.Athlete, error)
	GetAthleteStats(ctx context.Context, athleteID int64) (strava.AthleteStats, error)
	GetActivityPhotos(ctx context.Context, activityID int64, maxResolution int) ([]string, error)
}

// VisionCompleter is the completion client including the vision sub-call.
type VisionCompleter interface {
	Completer
	tools.Describer
}

// BootstrapDeps collects everything a fresh session needs.
type BootstrapDeps struct {
	Logger   *slog.Logger
	Provider ActivityProvider
	LLM      VisionCompleter
	Renderer tools.RouteRenderer
	Searcher tools.Searcher // nil disables the search tool's backend
	Store    artifacts.Store
	Table    *dataset.Table
	Options  Options
}

// Bootstrap runs context initialization after authorization: fetch the
// activity history into the table, build the system prompt from schema,
// profile, and lifetime stats, and wire the tool registry. Runs once per
// session. An empty activity set aborts with dataset.ErrEmpty before any
// prompt templating happens.
func Bootstrap(ctx context.Context, deps BootstrapDeps) (*Session, strava.Athlete, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	activities, err := deps.Provider.ListActivities(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, strava.Athlete{}, fmt.Errorf("assistant: fetch activities: %w", err)
	}
	if len(activities) == 0 {
		return nil, strava.Athlete{}, dataset.ErrEmpty
	}
	if err := deps.Table.Insert(ctx, activities); err != nil {
		return nil, strava.Athlete{}, err
	}
	schema, err := deps.Table.Schema(ctx)
	if err != nil {
		return nil, strava.Athlete{}, err
	}

	athlete, err := deps.Provider.GetAthlete(ctx)
	if err != nil {
		return nil, strava.Athlete{}, fmt.Errorf("assistant: fetch athlete: %w", err)
	}
	stats, err := deps.Provider.GetAthleteStats(ctx, athlete.ID)
	if err != nil {
		return nil, athlete, fmt.Errorf("assistant: fetch athlete stats: %w", err)
	}

	systemPrompt, err := prompts.System(prompts.SystemParams{
		Date:    time.Now(),
		Schema:  schema,
		Athlete: athlete,
		Stats:   stats,
	})
	if err != nil {
		return nil, athlete, err
	}

	registry := tools.NewRegistry(log)
	queryData := tools.NewQueryDataExecutor(log, deps.Table)
	registry.MustRegister(queryData, queryData.Declaration())
	activityData := tools.NewActivityDataExecutor(log, deps.Provider)
	registry.MustRegister(activityData, activityData.Declaration())
	plotRoute := tools.NewPlotRouteExecutor(log, deps.Provider, deps.Renderer, deps.LLM, deps.Store)
	registry.MustRegister(plotRoute, plotRoute.Declaration())
	photos := tools.NewPhotosExecutor(log, deps.Provider, deps.LLM)
	registry.MustRegister(photos, photos.Declaration())
	searchTool := tools.NewSearchExecutor(log, deps.Searcher)
	registry.MustRegister(searchTool, searchTool.Declaration())

	log.Info("session bootstrapped",
		slog.Int("activities", len(activities)),
		slog.Int64("athlete_id", athlete.ID),
	)
	session, err := NewSession(log, deps.LLM, registry, systemPrompt, deps.Options)
	if err != nil {
		return nil, athlete, err
	}
	return session, athlete, nil
}
