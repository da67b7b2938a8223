package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/cache"
	"github.com/use-agent/brandscrape/export"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

// downloadPath is the route serving a run's CSV export.
func downloadPath(runID string) string {
	return "/download/" + runID
}

// storeRun renders the run's CSV and retains it for download. It returns
// the download path.
func storeRun(cc *cache.Cache, run *scraper.RunResult) (string, error) {
	data, err := export.CSV(run.Records)
	if err != nil {
		return "", err
	}
	cc.Set(&cache.Run{ID: run.ID, Records: run.Records, CSV: data})
	return downloadPath(run.ID), nil
}

// Download returns a handler for GET /download/:id.
func Download(cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, ok := cc.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "export not found or expired",
				},
			})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		c.Data(http.StatusOK, export.ContentType, run.CSV)
	}
}
