// Package plot renders route maps through the Mapbox Static Images API.
package plot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.mapbox.com"

// Map image dimensions and the path overlay style (width-color-opacity).
const (
	imageWidth  = 800
	imageHeight = 600
	pathStyle   = "path-4+f44-0.75"
)

// Renderer requests static map images with a route path overlay.
type Renderer struct {
	baseURL     string
	accessToken string
	style       string
	logger      *slog.Logger
	http        *http.Client
}

// NewRenderer creates a renderer for the given Mapbox style (e.g. streets-v12).
func NewRenderer(log *slog.Logger, accessToken, style string, timeout time.Duration) (*Renderer, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("plot: mapbox access token is required")
	}
	if strings.TrimSpace(style) == "" {
		style = "streets-v12"
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		style:       style,
		logger:      log.With(slog.String("client", "mapbox")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// RenderRoute renders the (lat, lng) path at the given zoom (0-22) and
// returns the image bytes. The viewport centers on the path automatically.
func (r *Renderer) RenderRoute(ctx context.Context, coords [][2]float64, zoom int) ([]byte, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("plot: the coordinate stream is empty")
	}
	if zoom < 0 || zoom > 22 {
		return nil, fmt.Errorf("plot: zoom %d out of range 0-22", zoom)
	}

	centerLat, centerLng := center(coords)
	overlay := fmt.Sprintf("%s(%s)", pathStyle, url.PathEscape(encodePolyline(coords)))
	endpoint := fmt.Sprintf("%s/styles/v1/mapbox/%s/static/%s/%g,%g,%d/%dx%d",
		r.baseURL, r.style, overlay, centerLng, centerLat, zoom, imageWidth, imageHeight)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	query := req.URL.Query()
	query.Set("access_token", r.accessToken)
	req.URL.RawQuery = query.Encode()

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("plot: mapbox error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	r.logger.Debug("route rendered",
		slog.Int("points", len(coords)),
		slog.Int("zoom", zoom),
		slog.Int("bytes", len(body)),
	)
	return body, nil
}

// center returns the midpoint of the path's bounding box.
func center(coords [][2]float64) (lat, lng float64) {
	minLat, maxLat := coords[0][0], coords[0][0]
	minLng, maxLng := coords[0][1], coords[0][1]
	for _, c := range coords[1:] {
		if c[0] < minLat {
			minLat = c[0]
		}
		if c[0] > maxLat {
			maxLat = c[0]
		}
		if c[1] < minLng {
			minLng = c[1]
		}
		if c[1] > maxLng {
			maxLng = c[1]
		}
	}
	return (minLat + maxLat) / 2, (minLng + maxLng) / 2
}
