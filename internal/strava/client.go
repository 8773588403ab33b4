// Package strava provides the Strava REST client and OAuth flow.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Strava allows 100 requests per 15 minutes per application.
const requestsPerInterval, intervalSeconds = 100, 15 * 60

const activitiesPageSize = 200

// Client is the authorized Strava REST client. All calls apply the shared
// rate limit and block until a slot is available or ctx is done.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client from an OAuth token source. The token source
// refreshes expired access tokens transparently.
func NewClient(log *slog.Logger, ts oauth2.TokenSource, timeout time.Duration) (*Client, error) {
	if ts == nil {
		return nil, fmt.Errorf("strava: token source is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = timeout
	return &Client{
		baseURL: defaultBaseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerInterval)/float64(intervalSeconds)), 10),
		logger:  log.With(slog.String("client", "strava")),
	}, nil
}

// ListActivities fetches all activities in [after, before], paging until
// Strava returns an empty page. Order follows the API (newest first).
func (c *Client) ListActivities(ctx context.Context, after, before time.Time) ([]Activity, error) {
	if after.IsZero() {
		after = time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if before.IsZero() {
		before = time.Now()
	}
	var all []Activity
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("after", strconv.FormatInt(after.Unix(), 10))
		query.Set("before", strconv.FormatInt(before.Unix(), 10))
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(activitiesPageSize))

		var batch []Activity
		if err := c.get(ctx, "/athlete/activities", query, &batch); err != nil {
			return nil, fmt.Errorf("list activities page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	c.logger.Info("activities fetched", slog.Int("count", len(all)))
	return all, nil
}

// GetActivityStreams fetches the requested stream channels for one activity
// at the given resolution, keyed by stream type.
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64, types []string, resolution string) (StreamSet, error) {
	if len(types) == 0 {
		types = []string{"time", "heartrate", "latlng"}
	}
	if resolution == "" {
		resolution = "medium"
	}
	query := url.Values{}
	query.Set("keys", strings.Join(types, ","))
	query.Set("key_by_type", "true")
	query.Set("resolution", resolution)

	var streams StreamSet
	err := c.get(ctx, fmt.Sprintf("/activities/%d/streams", activityID), query, &streams)
	if err != nil {
		return nil, fmt.Errorf("activity %d streams: %w", activityID, err)
	}
	return streams, nil
}

// GetAthlete fetches the authorized athlete's profile.
func (c *Client) GetAthlete(ctx context.Context) (Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, "/athlete", nil, &athlete); err != nil {
		return Athlete{}, fmt.Errorf("get athlete: %w", err)
	}
	return athlete, nil
}

// GetAthleteStats fetches lifetime totals for the athlete.
func (c *Client) GetAthleteStats(ctx context.Context, athleteID int64) (AthleteStats, error) {
	var stats AthleteStats
	if err := c.get(ctx, fmt.Sprintf("/athletes/%d/stats", athleteID), nil, &stats); err != nil {
		return AthleteStats{}, fmt.Errorf("get athlete stats: %w", err)
	}
	return stats, nil
}

// GetActivityPhotos returns photo URLs for the activity at up to maxResolution.
func (c *Client) GetActivityPhotos(ctx context.Context, activityID int64, maxResolution int) ([]string, error) {
	if maxResolution <= 0 {
		maxResolution = 250
	}
	query := url.Values{}
	query.Set("size", strconv.Itoa(maxResolution))
	query.Set("photo_sources", "true")

	var batch []struct {
		URLs map[string]string `json:"urls"`
	}
	if err := c.get(ctx, fmt.Sprintf("/activities/%d/photos", activityID), query, &batch); err != nil {
		return nil, fmt.Errorf("activity %d photos: %w", activityID, err)
	}
	urls := make([]string, 0, len(batch))
	for _, photo := range batch {
		if u, ok := photo.URLs[strconv.Itoa(maxResolution)]; ok && u != "" {
			urls = append(urls, u)
			continue
		}
		for _, u := range photo.URLs {
			if u != "" {
				urls = append(urls, u)
				break
			}
		}
	}
	return urls, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("strava error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
