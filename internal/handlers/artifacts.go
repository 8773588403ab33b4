package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stravagpt/stravagpt/internal/artifacts"
)

// ArtifactsHandler serves stored route maps back to the client.
type ArtifactsHandler struct {
	store  artifacts.Store
	logger *slog.Logger
}

// NewArtifactsHandler creates the artifacts handler.
func NewArtifactsHandler(log *slog.Logger, store artifacts.Store) *ArtifactsHandler {
	return &ArtifactsHandler{
		store:  store,
		logger: log.With(slog.String("handler", "artifacts")),
	}
}

// Register mounts GET /api/artifacts/:id on the Echo instance.
func (h *ArtifactsHandler) Register(e *echo.Echo) {
	e.GET("/api/artifacts/:id", h.Get)
}

// Get streams the artifact bytes. The store validates the id, so traversal
// attempts fail before touching the filesystem.
func (h *ArtifactsHandler) Get(c echo.Context) error {
	reader, _, err := h.store.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer reader.Close()
	return c.Stream(http.StatusOK, "image/jpeg", reader)
}
