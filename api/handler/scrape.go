package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/cache"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & normalize request.
//  2. Runner.Run → one session, every URL in order   (records scrape_ms)
//  3. Retain CSV for download when records exist.
//  4. Fill Timing, return 200 even if some pages failed.
func Scrape(runner *scraper.Runner, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), nil), models.TimingInfo{})
			return
		}
		if err := req.Normalize(); err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}

		// ── 2. Run ──────────────────────────────────────────────────
		scrapeStart := time.Now()
		run, err := runner.Run(context.WithoutCancel(c.Request.Context()), req.URLs)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		resp := models.ScrapeResponse{
			Success: true,
			RunID:   run.ID,
			Records: run.Records,
			Pages:   run.Reports(),
		}

		// ── 3. Retain export ────────────────────────────────────────
		if len(run.Records) == 0 {
			resp.Warning = scraper.NoRecordsWarning
		} else if path, err := storeRun(cc, run); err != nil {
			slog.Error("failed to prepare CSV export", "run", run.ID, "error", err)
		} else {
			resp.DownloadURL = path
		}

		// ── 4. Timing ───────────────────────────────────────────────
		resp.Timing = models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			ScrapeMs: scrapeMs,
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := models.AsScrapeError(err)

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Records: []models.ScrapedRecord{},
		Pages:   []models.PageReport{},
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeSessionInit:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
