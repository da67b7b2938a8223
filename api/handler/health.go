package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status is "busy" while a run holds the browser session; new runs queue
// behind it.
func Health(runner *scraper.Runner, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := runner.Stats()

		status := "healthy"
		if stats.Active {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			RunsServed: stats.RunsServed,
			RunActive:  stats.Active,
			Version:    Version,
		})
	}
}
