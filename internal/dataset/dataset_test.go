package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stravagpt/stravagpt/internal/strava"
)

func testActivities() []strava.Activity {
	return []strava.Activity{
		{
			ID:        101,
			Name:      "Morning Run",
			Type:      "Run",
			SportType: "Run",
			Distance:  5000,
			StartDate: "2026-08-01T06:30:00Z",
		},
		{
			ID:        102,
			Name:      "Evening Ride",
			Type:      "Ride",
			SportType: "Ride",
			Distance:  20000,
			StartDate: "2026-08-02T18:00:00Z",
		},
	}
}

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { table.Close() })
	return table
}

func TestInsertAndCount(t *testing.T) {
	table := newTestTable(t)
	ctx := context.Background()

	require.NoError(t, table.Insert(ctx, testActivities()))
	count, err := table.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Upsert by id: re-inserting the same activities must not duplicate rows.
	require.NoError(t, table.Insert(ctx, testActivities()))
	count, err = table.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestQueryIdempotentOnUnchangedData(t *testing.T) {
	table := newTestTable(t)
	ctx := context.Background()
	require.NoError(t, table.Insert(ctx, testActivities()))

	const query = "SELECT id, name FROM activities ORDER BY id"
	first, err := table.Query(ctx, query)
	require.NoError(t, err)
	second, err := table.Query(ctx, query)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Len(t, first, 2)
	require.EqualValues(t, 101, first[0]["id"])
	require.Equal(t, "Morning Run", first[0]["name"])
}

func TestQueryMalformedSQL(t *testing.T) {
	table := newTestTable(t)
	ctx := context.Background()
	require.NoError(t, table.Insert(ctx, testActivities()))

	_, err := table.Query(ctx, "SELEC broken FROM nowhere")
	require.Error(t, err)
}

func TestSchemaRefusesEmptyTable(t *testing.T) {
	table := newTestTable(t)
	_, err := table.Schema(context.Background())
	require.ErrorIs(t, err, ErrEmpty)
}

func TestSchemaListsColumns(t *testing.T) {
	table := newTestTable(t)
	ctx := context.Background()
	require.NoError(t, table.Insert(ctx, testActivities()))

	schema, err := table.Schema(ctx)
	require.NoError(t, err)
	for _, col := range []string{"id", "name", "distance", "start_date", "sport_type"} {
		require.True(t, strings.Contains(schema, col), "schema should mention %s", col)
	}
}

func TestLatestStart(t *testing.T) {
	table := newTestTable(t)
	ctx := context.Background()

	_, err := table.LatestStart(ctx)
	require.True(t, errors.Is(err, ErrEmpty))

	require.NoError(t, table.Insert(ctx, testActivities()))
	latest, err := table.LatestStart(ctx)
	require.NoError(t, err)
	want := time.Date(2026, 8, 2, 18, 0, 0, 0, time.UTC)
	require.True(t, latest.Equal(want), "expected %s, got %s", want, latest)
}
