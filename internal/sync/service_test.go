package sync

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/dataset"
	"github.com/stravagpt/stravagpt/internal/strava"
)

type fakeProvider struct {
	newer     []strava.Activity
	lastAfter time.Time
	calls     int
}

func (f *fakeProvider) ListActivities(_ context.Context, after, _ time.Time) ([]strava.Activity, error) {
	f.calls++
	f.lastAfter = after
	return f.newer, nil
}

func (f *fakeProvider) GetActivityStreams(context.Context, int64, []string, string) (strava.StreamSet, error) {
	return nil, nil
}

func (f *fakeProvider) GetAthlete(context.Context) (strava.Athlete, error) {
	return strava.Athlete{}, nil
}

func (f *fakeProvider) GetAthleteStats(context.Context, int64) (strava.AthleteStats, error) {
	return strava.AthleteStats{}, nil
}

func (f *fakeProvider) GetActivityPhotos(context.Context, int64, int) ([]string, error) {
	return nil, nil
}

func newTestEntry(t *testing.T, provider *fakeProvider) *assistant.Entry {
	t.Helper()
	table, err := dataset.New(nil)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	t.Cleanup(func() { table.Close() })
	return &assistant.Entry{Table: table, Provider: provider}
}

func TestNewServiceRejectsBadSchedule(t *testing.T) {
	sessions := assistant.NewManager(slog.Default())
	if _, err := NewService(slog.Default(), sessions, "not a schedule"); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestStartDisabledWithoutSchedule(t *testing.T) {
	sessions := assistant.NewManager(slog.Default())
	svc, err := NewService(slog.Default(), sessions, "")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	svc.Stop()
}

func TestRefreshAppendsNewerActivities(t *testing.T) {
	provider := &fakeProvider{newer: []strava.Activity{
		{ID: 3, Name: "New Ride", StartDate: "2026-08-20T10:00:00Z"},
	}}
	entry := newTestEntry(t, provider)
	ctx := context.Background()

	seed := []strava.Activity{
		{ID: 1, Name: "Old Run", StartDate: "2026-08-01T06:00:00Z"},
		{ID: 2, Name: "Old Ride", StartDate: "2026-08-10T07:00:00Z"},
	}
	if err := entry.Table.Insert(ctx, seed); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	sessions := assistant.NewManager(slog.Default())
	svc, err := NewService(slog.Default(), sessions, "")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Refresh(ctx, entry); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	want := time.Date(2026, 8, 10, 7, 0, 0, 0, time.UTC)
	if !provider.lastAfter.Equal(want) {
		t.Errorf("expected fetch after %s, got %s", want, provider.lastAfter)
	}
	count, err := entry.Table.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows after refresh, got %d", count)
	}
}

func TestRefreshSkipsEmptyTable(t *testing.T) {
	provider := &fakeProvider{}
	entry := newTestEntry(t, provider)

	sessions := assistant.NewManager(slog.Default())
	svc, err := NewService(slog.Default(), sessions, "")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Refresh(context.Background(), entry); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no fetch for an empty table, got %d calls", provider.calls)
	}
}
