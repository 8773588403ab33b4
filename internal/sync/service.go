// Package sync keeps session datasets current by pulling activities recorded
// after the last fetch on a cron schedule.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stravagpt/stravagpt/internal/assistant"
	"github.com/stravagpt/stravagpt/internal/dataset"
)

// refreshTimeout bounds one full refresh sweep across all sessions.
const refreshTimeout = 5 * time.Minute

// Service schedules periodic dataset refreshes. An empty schedule leaves the
// service inert.
type Service struct {
	sessions *assistant.Manager
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// NewService creates the refresh service. The schedule uses standard cron
// syntax plus descriptors like @hourly.
func NewService(log *slog.Logger, sessions *assistant.Manager, schedule string) (*Service, error) {
	schedule = strings.TrimSpace(schedule)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if schedule != "" {
		if _, err := parser.Parse(schedule); err != nil {
			return nil, fmt.Errorf("sync: invalid schedule %q: %w", schedule, err)
		}
	}
	return &Service{
		sessions: sessions,
		cron:     cron.New(cron.WithParser(parser)),
		schedule: schedule,
		logger:   log.With(slog.String("service", "sync")),
	}, nil
}

// Start registers the cron job and begins the schedule. No-op when no
// schedule is configured.
func (s *Service) Start() error {
	if s.schedule == "" {
		s.logger.Info("dataset refresh disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.refreshAll); err != nil {
		return fmt.Errorf("sync: schedule job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("dataset refresh scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	s.sessions.Each(func(subject string, entry *assistant.Entry) {
		if err := s.Refresh(ctx, entry); err != nil {
			s.logger.Warn("dataset refresh failed",
				slog.String("subject", subject),
				slog.Any("error", err),
			)
		}
	})
}

// Refresh pulls activities newer than the table's latest start and appends
// them. A table still at its initial load but with no newer activities is
// left untouched.
func (s *Service) Refresh(ctx context.Context, entry *assistant.Entry) error {
	latest, err := entry.Table.LatestStart(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrEmpty) {
			return nil
		}
		return err
	}
	activities, err := entry.Provider.ListActivities(ctx, latest, time.Time{})
	if err != nil {
		return err
	}
	if len(activities) == 0 {
		return nil
	}
	if err := entry.Table.Insert(ctx, activities); err != nil {
		return err
	}
	s.logger.Info("dataset refreshed", slog.Int("new_activities", len(activities)))
	return nil
}
