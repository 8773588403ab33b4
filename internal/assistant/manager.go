package assistant

import (
	"log/slog"
	"sync"

	"github.com/stravagpt/stravagpt/internal/dataset"
)

// Entry bundles one athlete's session with the table and provider behind it,
// so the background refresher can reach them without going through the loop.
type Entry struct {
	Session  *Session
	Table    *dataset.Table
	Provider ActivityProvider
}

// Manager tracks live sessions keyed by athlete ID (the JWT subject).
// Re-authorizing replaces the previous session wholesale.
type Manager struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewManager creates an empty session manager.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		logger:  log.With(slog.String("component", "sessions")),
		entries: make(map[string]*Entry),
	}
}

// Put stores the entry for a subject, replacing any previous one.
func (m *Manager) Put(subject string, entry *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, replaced := m.entries[subject]; replaced {
		m.logger.Info("session replaced", slog.String("subject", subject))
	}
	m.entries[subject] = entry
}

// Get returns the entry for a subject, if one exists.
func (m *Manager) Get(subject string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[subject]
	return entry, ok
}

// Each calls fn for every live entry. The snapshot is taken under the lock;
// fn runs outside it.
func (m *Manager) Each(fn func(subject string, entry *Entry)) {
	m.mu.RLock()
	snapshot := make(map[string]*Entry, len(m.entries))
	for subject, entry := range m.entries {
		snapshot[subject] = entry
	}
	m.mu.RUnlock()
	for subject, entry := range snapshot {
		fn(subject, entry)
	}
}
