package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/stravagpt/stravagpt/internal/artifacts"
	"github.com/stravagpt/stravagpt/internal/llm"
)

// PlotRouteExecutor renders an activity's route as a map image, stores it as
// an artifact, and attaches a generated description of the rendered plot.
type PlotRouteExecutor struct {
	streams   StreamSource
	renderer  RouteRenderer
	describer Describer
	store     artifacts.Store
	logger    *slog.Logger
}

// NewPlotRouteExecutor creates the plot_route executor.
func NewPlotRouteExecutor(log *slog.Logger, streams StreamSource, renderer RouteRenderer, describer Describer, store artifacts.Store) *PlotRouteExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &PlotRouteExecutor{
		streams:   streams,
		renderer:  renderer,
		describer: describer,
		store:     store,
		logger:    log.With(slog.String("tool", "plot_route")),
	}
}

// Declaration returns the plot_route tool schema.
func (e *PlotRouteExecutor) Declaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "plot_route",
			Description: "Plot the route of an activity. Call this to get a map of the route of an activity.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"activity_id": map[string]any{
						"type":        "string",
						"description": "The Activity ID of the activity to plot, this is a unique identifier value from Strava",
					},
					"zoom": map[string]any{
						"type":        "integer",
						"description": "The zoom level of the map 0-22, (0, The Earth), (3, A continent), (4, Large islands), (6, Large rivers), (10, Large roads), (15, Buildings)",
					},
				},
				"required":             []string{"activity_id", "zoom"},
				"additionalProperties": false,
			},
		},
	}
}

// Execute renders the route and returns a result naming the stored artifact
// together with a vision-generated description. Any step failing (missing
// activity, empty track, render error) becomes an error result.
func (e *PlotRouteExecutor) Execute(ctx context.Context, args map[string]any) (Result, error) {
	activityID, err := ActivityIDArg(args)
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	zoom, ok, err := IntArg(args, "zoom")
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	if !ok {
		return ErrorResult("zoom is required"), nil
	}

	set, err := e.streams.GetActivityStreams(ctx, activityID, []string{"latlng"}, "medium")
	if err != nil {
		return ErrorResult("activity %d: %v", activityID, err), nil
	}
	coords, err := set["latlng"].LatLng()
	if err != nil {
		return ErrorResult("activity %d latlng stream: %v", activityID, err), nil
	}
	if len(coords) == 0 {
		return ErrorResult("activity %d has no GPS track", activityID), nil
	}

	image, err := e.renderer.RenderRoute(ctx, coords, zoom)
	if err != nil {
		return ErrorResult("render route for activity %d: %v", activityID, err), nil
	}

	ref, err := e.store.Put(ctx, "route_map", "image/jpeg", bytes.NewReader(image))
	if err != nil {
		return ErrorResult("store route map: %v", err), nil
	}

	// The vision sub-call sees the raw image, not the conversation.
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	description, err := e.describer.DescribeImage(ctx, dataURL)
	if err != nil {
		e.logger.Warn("plot description failed",
			slog.Int64("activity_id", activityID),
			slog.Any("error", err),
		)
		description = "(description unavailable)"
	}

	content := fmt.Sprintf("Plot generated for activity %d (artifact %s). Description: %s",
		activityID, ref.ID, description)
	return Result{
		Content:   content,
		Artifacts: []artifacts.Ref{ref},
	}, nil
}
