package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/file-tracker/backend/internal/cache"
	"github.com/file-tracker/backend/internal/remote"
)

// Handler handles API requests.
type Handler struct {
	cache   *cache.Cache
	client  remote.Client
	version string
}

// NewHandler creates a new API handler.
func NewHandler(c *cache.Cache, client remote.Client, version string) *Handler {
	return &Handler{
		cache:   c,
		client:  client,
		version: version,
	}
}

// notFoundBody matches the wire shape clients of this service rely on.
type notFoundBody struct {
	Error int    `json:"error"`
	Text  string `json:"text"`
}

// HandleGetFile returns the merged detail+segments payload for a completed
// file. Files not yet known to be finished report not-found; an upstream
// failure during aggregation surfaces as a gateway error, never as not-found.
func (h *Handler) HandleGetFile(c echo.Context) error {
	fileID := c.Param("fileId")

	if _, ok := h.cache.LookupCompleted(fileID); !ok {
		return c.JSON(http.StatusNotFound, notFoundBody{
			Error: http.StatusNotFound,
			Text:  "File info not found",
		})
	}

	info, err := remote.CombinedInfo(c.Request().Context(), h.client, fileID)
	if err != nil {
		return NewUpstreamError("failed to fetch file info", err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleListFiles returns a snapshot of the cache state for inspection.
func (h *Handler) HandleListFiles(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cache.Snapshot())
}

// HandleListFilesMsgpack returns the cache snapshot msgpack-encoded, for
// consumers that poll it frequently.
func (h *Handler) HandleListFilesMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.cache.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode snapshot", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}
