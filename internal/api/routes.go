// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", h.HandleHealth)

	// Cache inspection
	filesGroup := e.Group("/api/files")
	filesGroup.GET("", h.HandleListFiles)
	filesGroup.GET("/msgpack", h.HandleListFilesMsgpack)

	// File lookup; must come last so the static routes above win
	e.GET("/:fileId", h.HandleGetFile)
}
