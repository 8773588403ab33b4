package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stravagpt/stravagpt/internal/llm"
	"github.com/stravagpt/stravagpt/internal/strava"
)

// ActivityDataExecutor fetches stream channels for one activity and returns
// the samples as rows, one per tick, columns in requested stream order.
type ActivityDataExecutor struct {
	streams StreamSource
	logger  *slog.Logger
}

// NewActivityDataExecutor creates the get_activity_data executor.
func NewActivityDataExecutor(log *slog.Logger, streams StreamSource) *ActivityDataExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &ActivityDataExecutor{
		streams: streams,
		logger:  log.With(slog.String("tool", "get_activity_data")),
	}
}

// Declaration returns the get_activity_data tool schema.
func (e *ActivityDataExecutor) Declaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "get_activity_data",
			Description: "Get the stream data of an activity. Call this to get in-depth data of an activity.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"activity_id": map[string]any{
						"type":        "string",
						"description": "The ActivityID of the activity, this is a numeric value",
					},
					"stream_types": map[string]any{
						"type":        "array",
						"description": "A list of the types of streams to fetch.",
						"items": map[string]any{
							"type": "string",
							"enum": strava.StreamTypes,
						},
					},
					"resolution": map[string]any{
						"type":        "string",
						"description": "Indicates desired number of data points. 'low' (100) or 'medium' (1000)",
						"enum":        strava.Resolutions,
					},
				},
				"required":             []string{"activity_id", "stream_types", "resolution"},
				"additionalProperties": false,
			},
		},
	}
}

// Execute fetches the streams and zips them into rows. Upstream failures
// (unknown activity, network) are reported as error results.
func (e *ActivityDataExecutor) Execute(ctx context.Context, args map[string]any) (Result, error) {
	activityID, err := ActivityIDArg(args)
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	types, err := StringSliceArg(args, "stream_types")
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	if len(types) == 0 {
		return ErrorResult("stream_types is required"), nil
	}
	resolution := StringArg(args, "resolution")

	set, err := e.streams.GetActivityStreams(ctx, activityID, types, resolution)
	if err != nil {
		e.logger.Debug("stream fetch failed",
			slog.Int64("activity_id", activityID),
			slog.Any("error", err),
		)
		return ErrorResult("activity %d: %v", activityID, err), nil
	}

	rows, err := zipStreams(set, types)
	if err != nil {
		return ErrorResult("decode streams: %v", err), nil
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return ErrorResult("serialize streams: %v", err), nil
	}
	return Result{Content: string(payload)}, nil
}

// zipStreams transposes the per-channel series into per-tick rows, keeping
// the requested channel order and truncating to the shortest channel.
func zipStreams(set strava.StreamSet, types []string) ([][]any, error) {
	series := make([][]any, 0, len(types))
	shortest := -1
	for _, name := range types {
		stream, ok := set[name]
		if !ok {
			continue
		}
		values, err := stream.Values()
		if err != nil {
			return nil, err
		}
		series = append(series, values)
		if shortest < 0 || len(values) < shortest {
			shortest = len(values)
		}
	}
	if shortest <= 0 {
		return [][]any{}, nil
	}
	rows := make([][]any, shortest)
	for i := 0; i < shortest; i++ {
		row := make([]any, len(series))
		for j := range series {
			row[j] = series[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}
