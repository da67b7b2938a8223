package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/cache"
	"github.com/use-agent/brandscrape/export"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

// FormTemplate is the name of the single page template.
const FormTemplate = "index.html"

// formView is the data rendered into FormTemplate.
type formView struct {
	Input       string
	Notices     []models.Notice
	Table       template.HTML
	DownloadURL string
	Filename    string
}

// Form returns a handler for GET /: the empty input form.
func Form() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, FormTemplate, formView{})
	}
}

// SubmitForm returns a handler for POST /scrape.
//
// Flow:
//  1. Parse the textarea; blank input is rejected before any browser work.
//  2. Run every URL through one browser session.
//  3. Render notices, then the table and download link when records exist.
func SubmitForm(runner *scraper.Runner, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := c.PostForm("urls")
		view := formView{Input: input, Filename: export.Filename}

		// ── 1. Parse input ──────────────────────────────────────────
		urls, err := models.ParseURLList(input)
		if err != nil {
			view.Notices = []models.Notice{{Level: models.NoticeError, Text: models.MsgEmptyInput}}
			c.HTML(http.StatusBadRequest, FormTemplate, view)
			return
		}

		// ── 2. Run ──────────────────────────────────────────────────
		// A started run is never cut short by the client going away.
		run, err := runner.Run(context.WithoutCancel(c.Request.Context()), urls)
		if err != nil {
			se := models.AsScrapeError(err)
			view.Notices = []models.Notice{{
				Level: models.NoticeError,
				Text:  "Browser session initialization failed: " + se.ToDetail().Message,
			}}
			c.HTML(mapErrorToStatus(se), FormTemplate, view)
			return
		}
		view.Notices = run.Notices()

		// ── 3. Table + download ─────────────────────────────────────
		if len(run.Records) > 0 {
			table, err := export.HTMLTable(run.Records)
			if err != nil {
				slog.Error("failed to render records table", "run", run.ID, "error", err)
				view.Notices = append(view.Notices, models.Notice{Level: models.NoticeError, Text: "Failed to render results table."})
			} else {
				view.Table = table
			}

			if path, err := storeRun(cc, run); err != nil {
				slog.Error("failed to prepare CSV export", "run", run.ID, "error", err)
				view.Notices = append(view.Notices, models.Notice{Level: models.NoticeError, Text: "Failed to prepare CSV download."})
			} else {
				view.DownloadURL = path
			}
		}

		c.HTML(http.StatusOK, FormTemplate, view)
	}
}
