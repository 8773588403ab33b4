// Package dataset holds the in-memory activity table and its SQL query port.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stravagpt/stravagpt/internal/strava"
)

// ErrEmpty reports that no activities have been loaded yet. Context
// initialization must not build a schema-dependent prompt in this state.
var ErrEmpty = errors.New("dataset: no activities loaded")

// column is one field of the activities table, in declaration order.
type column struct {
	Name string
	Type string
}

var columns = []column{
	{"id", "INTEGER PRIMARY KEY"},
	{"external_id", "TEXT"},
	{"upload_id", "INTEGER"},
	{"name", "TEXT"},
	{"description", "TEXT"},
	{"distance", "REAL"},
	{"moving_time", "INTEGER"},
	{"elapsed_time", "INTEGER"},
	{"total_elevation_gain", "REAL"},
	{"elev_high", "REAL"},
	{"elev_low", "REAL"},
	{"type", "TEXT"},
	{"sport_type", "TEXT"},
	{"start_date", "TEXT"},
	{"start_date_local", "TEXT"},
	{"timezone", "TEXT"},
	{"utc_offset", "REAL"},
	{"location_city", "TEXT"},
	{"location_state", "TEXT"},
	{"location_country", "TEXT"},
	{"achievement_count", "INTEGER"},
	{"kudos_count", "INTEGER"},
	{"comment_count", "INTEGER"},
	{"athlete_count", "INTEGER"},
	{"photo_count", "INTEGER"},
	{"total_photo_count", "INTEGER"},
	{"pr_count", "INTEGER"},
	{"workout_type", "INTEGER"},
	{"trainer", "INTEGER"},
	{"commute", "INTEGER"},
	{"manual", "INTEGER"},
	{"private", "INTEGER"},
	{"flagged", "INTEGER"},
	{"gear_id", "TEXT"},
	{"device_name", "TEXT"},
	{"average_speed", "REAL"},
	{"max_speed", "REAL"},
	{"average_cadence", "REAL"},
	{"average_temp", "REAL"},
	{"average_watts", "REAL"},
	{"max_watts", "REAL"},
	{"weighted_average_watts", "REAL"},
	{"kilojoules", "REAL"},
	{"device_watts", "INTEGER"},
	{"has_heartrate", "INTEGER"},
	{"average_heartrate", "REAL"},
	{"max_heartrate", "REAL"},
	{"suffer_score", "REAL"},
	{"calories", "REAL"},
	{"start_latlng", "TEXT"},
	{"end_latlng", "TEXT"},
	{"map", "TEXT"},
	{"laps", "TEXT"},
	{"segment_efforts", "TEXT"},
	{"splits_metric", "TEXT"},
	{"splits_standard", "TEXT"},
	{"best_efforts", "TEXT"},
}

// Table is the in-memory activity table, one row per activity.
type Table struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens an in-memory SQLite database and creates the activities table.
func New(log *slog.Logger) (*Table, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}
	// One connection only: each pooled connection would otherwise get its
	// own private in-memory database.
	db.SetMaxOpenConns(1)

	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%q %s", col.Name, col.Type))
	}
	create := fmt.Sprintf("CREATE TABLE activities (%s)", strings.Join(defs, ", "))
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: create table: %w", err)
	}
	return &Table{
		db:     db,
		logger: log.With(slog.String("component", "dataset")),
	}, nil
}

// Close releases the underlying database.
func (t *Table) Close() error {
	return t.db.Close()
}

// Insert upserts activities by id, so a refresh never duplicates rows.
func (t *Table) Insert(ctx context.Context, activities []strava.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	names := make([]string, 0, len(columns))
	marks := make([]string, 0, len(columns))
	for _, col := range columns {
		names = append(names, fmt.Sprintf("%q", col.Name))
		marks = append(marks, "?")
	}
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO activities (%s) VALUES (%s)",
		strings.Join(names, ", "), strings.Join(marks, ", "))

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range activities {
		if _, err := tx.ExecContext(ctx, stmt, rowValues(a)...); err != nil {
			return fmt.Errorf("dataset: insert activity %d: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dataset: commit: %w", err)
	}
	t.logger.Debug("activities inserted", slog.Int("count", len(activities)))
	return nil
}

// Count returns the number of activity rows.
func (t *Table) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LatestStart returns the most recent start_date in the table, for
// incremental refresh. Returns ErrEmpty when no rows exist.
func (t *Table) LatestStart(ctx context.Context) (time.Time, error) {
	var latest sql.NullString
	if err := t.db.QueryRowContext(ctx, "SELECT MAX(start_date) FROM activities").Scan(&latest); err != nil {
		return time.Time{}, err
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, ErrEmpty
	}
	return time.Parse(time.RFC3339, latest.String)
}

// Query executes a read-only SQL query against the activities table and
// returns the rows as column-name keyed maps. Malformed queries return an
// error; callers report it as a tool result rather than failing the turn.
func (t *Table) Query(ctx context.Context, query string) ([]map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("dataset: query is required")
	}
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		targets := make([]any, len(names))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Schema returns the column listing injected into the system prompt.
// Returns ErrEmpty when the table has no rows yet.
func (t *Table) Schema(ctx context.Context) (string, error) {
	count, err := t.Count(ctx)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", ErrEmpty
	}
	var b strings.Builder
	b.WriteString("Table: activities\n")
	for _, col := range columns {
		fmt.Fprintf(&b, "  %s %s\n", col.Name, strings.TrimSuffix(col.Type, " PRIMARY KEY"))
	}
	return b.String(), nil
}

func rowValues(a strava.Activity) []any {
	return []any{
		a.ID,
		a.ExternalID,
		a.UploadID,
		a.Name,
		a.Description,
		a.Distance,
		a.MovingTime,
		a.ElapsedTime,
		a.TotalElevationGain,
		a.ElevHigh,
		a.ElevLow,
		a.Type,
		a.SportType,
		a.StartDate,
		a.StartDateLocal,
		a.Timezone,
		a.UTCOffset,
		a.LocationCity,
		a.LocationState,
		a.LocationCountry,
		a.AchievementCount,
		a.KudosCount,
		a.CommentCount,
		a.AthleteCount,
		a.PhotoCount,
		a.TotalPhotoCount,
		a.PRCount,
		nullableInt(a.WorkoutType),
		boolValue(a.Trainer),
		boolValue(a.Commute),
		boolValue(a.Manual),
		boolValue(a.Private),
		boolValue(a.Flagged),
		a.GearID,
		a.DeviceName,
		a.AverageSpeed,
		a.MaxSpeed,
		a.AverageCadence,
		a.AverageTemp,
		a.AverageWatts,
		a.MaxWatts,
		a.WeightedAverageWatts,
		a.Kilojoules,
		boolValue(a.DeviceWatts),
		boolValue(a.HasHeartrate),
		a.AverageHeartrate,
		a.MaxHeartrate,
		a.SufferScore,
		a.Calories,
		rawText(a.StartLatLng),
		rawText(a.EndLatLng),
		rawText(a.Map),
		rawText(a.Laps),
		rawText(a.SegmentEfforts),
		rawText(a.SplitsMetric),
		rawText(a.SplitsStandard),
		rawText(a.BestEfforts),
	}
}

func boolValue(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func rawText(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
