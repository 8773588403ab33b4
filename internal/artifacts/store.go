// Package artifacts stores generated visuals (route maps) and hands out
// references that the chat surface serves out-of-band from the text answer.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ref identifies one stored artifact.
type Ref struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
}

// Store abstracts artifact persistence.
type Store interface {
	// Put writes data and returns the new artifact reference.
	Put(ctx context.Context, kind, contentType string, reader io.Reader) (Ref, error)
	// Open returns a reader for the artifact id.
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
	// Delete removes the artifact.
	Delete(ctx context.Context, id string) error
}

// FSStore keeps artifacts as files under a root directory.
type FSStore struct {
	root   string
	logger *slog.Logger
}

// NewFSStore creates the root directory if needed.
func NewFSStore(log *slog.Logger, root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("artifacts: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create root: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FSStore{
		root:   root,
		logger: log.With(slog.String("component", "artifacts")),
	}, nil
}

// Put writes the artifact under a fresh uuid.
func (s *FSStore) Put(_ context.Context, kind, contentType string, reader io.Reader) (Ref, error) {
	id := uuid.NewString()
	f, err := os.Create(s.path(id))
	if err != nil {
		return Ref{}, fmt.Errorf("artifacts: create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return Ref{}, fmt.Errorf("artifacts: write: %w", err)
	}
	s.logger.Debug("artifact stored", slog.String("id", id), slog.String("kind", kind))
	return Ref{ID: id, Kind: kind, ContentType: contentType}, nil
}

// Open returns the artifact content and its file path.
func (s *FSStore) Open(_ context.Context, id string) (io.ReadCloser, string, error) {
	clean, err := s.safeID(id)
	if err != nil {
		return nil, "", err
	}
	path := s.path(clean)
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("artifacts: open %s: %w", clean, err)
	}
	return f, path, nil
}

// Delete removes the artifact file.
func (s *FSStore) Delete(_ context.Context, id string) error {
	clean, err := s.safeID(id)
	if err != nil {
		return err
	}
	return os.Remove(s.path(clean))
}

func (s *FSStore) path(id string) string {
	return filepath.Join(s.root, id+".jpg")
}

func (s *FSStore) safeID(id string) (string, error) {
	clean := strings.TrimSpace(id)
	if clean == "" || strings.ContainsAny(clean, "/\\.") {
		return "", fmt.Errorf("artifacts: invalid id")
	}
	return clean, nil
}
