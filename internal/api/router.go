// Package api registers the inspection API routes.
package api

import (
	"gaussdec/internal/api/handler"
	"gaussdec/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/stats", h.GetStats)
	r.GET("/api/v1/histogram", h.GetHistogram)
	// More specific routes first
	r.GET("/api/v1/pixels/*/components", h.GetPixelComponents)
	r.GET("/api/v1/pixels/*/coldens", h.GetPixelColdens)
	// Generic run route last
	r.GET("/api/v1/runs/*", h.GetRun)
}
