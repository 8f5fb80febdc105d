package server

import (
	"net/http"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/exportsync"

	"github.com/labstack/echo/v5"
)

// Healthz reports "degraded" while the latest sync run ended with an error.
func Healthz(version, commit string, features map[string]string, tracker *exportsync.Tracker) echo.HandlerFunc {
	startTime := time.Now()

	return func(c *echo.Context) error {
		status := "ok"
		if _, _, err := tracker.Last(); err != nil {
			status = "degraded"
		}
		return c.JSON(http.StatusOK, HealthResponse{
			Status:        status,
			Version:       version,
			Commit:        commit,
			UptimeSeconds: int(time.Since(startTime).Seconds()),
			Features:      features,
		})
	}
}
