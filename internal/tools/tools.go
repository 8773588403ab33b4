// Package tools holds the closed set of local tools the model may invoke and
// the registry that dispatches tool-call requests to them.
package tools

import (
	"context"
	"fmt"

	"github.com/stravagpt/stravagpt/internal/artifacts"
	"github.com/stravagpt/stravagpt/internal/search"
	"github.com/stravagpt/stravagpt/internal/strava"
)

// Result is the outcome of one tool execution: a string payload the model
// reads, plus any artifacts produced as a side effect.
type Result struct {
	Content   string
	Artifacts []artifacts.Ref
}

// ErrorResult builds a result describing a tool-level failure. Executors
// report failures this way so the model can react instead of the turn dying.
func ErrorResult(format string, args ...any) Result {
	return Result{Content: "Error: " + fmt.Sprintf(format, args...)}
}

// Executor runs one tool. Implementations catch their own failures and
// return an error-describing Result; a non-nil error is reserved for broken
// invariants (nil dependencies), not tool-level conditions.
type Executor interface {
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// QueryPort is the narrow port to the in-memory activity table.
type QueryPort interface {
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

// StreamSource fetches stream channels for one activity.
type StreamSource interface {
	GetActivityStreams(ctx context.Context, activityID int64, types []string, resolution string) (strava.StreamSet, error)
}

// PhotoSource fetches photo URLs for one activity.
type PhotoSource interface {
	GetActivityPhotos(ctx context.Context, activityID int64, maxResolution int) ([]string, error)
}

// RouteRenderer renders a (lat, lng) path as an image.
type RouteRenderer interface {
	RenderRoute(ctx context.Context, coords [][2]float64, zoom int) ([]byte, error)
}

// Describer generates a natural-language description for an image URL.
type Describer interface {
	DescribeImage(ctx context.Context, imageURL string) (string, error)
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) (search.Response, error)
}
