package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stravagpt/stravagpt/internal/llm"
)

// photoWorkers bounds the description fan-out; each worker performs one
// blocking vision call at a time.
const photoWorkers = 8

// PhotoDescription pairs one photo URL with its generated description.
type PhotoDescription struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// PhotosExecutor fetches an activity's photos and describes each one in
// parallel. A failure for one photo tags only that photo's entry.
type PhotosExecutor struct {
	photos    PhotoSource
	describer Describer
	logger    *slog.Logger
}

// NewPhotosExecutor creates the get_activity_photos executor.
func NewPhotosExecutor(log *slog.Logger, photos PhotoSource, describer Describer) *PhotosExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &PhotosExecutor{
		photos:    photos,
		describer: describer,
		logger:    log.With(slog.String("tool", "get_activity_photos")),
	}
}

// Declaration returns the get_activity_photos tool schema.
func (e *PhotosExecutor) Declaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "get_activity_photos",
			Description: "Get the urls of photos for an activity together with generated descriptions.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"activity_id": map[string]any{
						"type":        "string",
						"description": "The ActivityID of the activity, this is a numeric value",
					},
					"max_resolution": map[string]any{
						"type":        "integer",
						"description": "The maximum resolution of the photos to return",
					},
				},
				"required":             []string{"activity_id"},
				"additionalProperties": false,
			},
		},
	}
}

// Execute fetches photo URLs and fans descriptions out across the worker
// pool. Results keep input order; the batch never fails as a whole.
func (e *PhotosExecutor) Execute(ctx context.Context, args map[string]any) (Result, error) {
	activityID, err := ActivityIDArg(args)
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	maxResolution, ok, err := IntArg(args, "max_resolution")
	if err != nil {
		return ErrorResult("%v", err), nil
	}
	if !ok {
		maxResolution = 250
	}

	urls, err := e.photos.GetActivityPhotos(ctx, activityID, maxResolution)
	if err != nil {
		return ErrorResult("activity %d photos: %v", activityID, err), nil
	}

	described := e.DescribeAll(ctx, urls)
	payload, err := json.Marshal(described)
	if err != nil {
		return ErrorResult("serialize photos: %v", err), nil
	}
	return Result{Content: string(payload)}, nil
}

// DescribeAll describes every URL concurrently (at most photoWorkers in
// flight) and returns exactly len(urls) entries in input order.
func (e *PhotosExecutor) DescribeAll(ctx context.Context, urls []string) []PhotoDescription {
	results := make([]PhotoDescription, len(urls))
	sem := make(chan struct{}, photoWorkers)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			description, err := e.describer.DescribeImage(ctx, url)
			if err != nil {
				e.logger.Warn("photo description failed",
					slog.String("url", url),
					slog.Any("error", err),
				)
				description = fmt.Sprintf("Error in processing image: %v", err)
			}
			results[i] = PhotoDescription{URL: url, Description: description}
		}(i, url)
	}
	wg.Wait()
	return results
}
