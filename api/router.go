package api

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/api/handler"
	"github.com/use-agent/brandscrape/api/middleware"
	"github.com/use-agent/brandscrape/cache"
	"github.com/use-agent/brandscrape/config"
	"github.com/use-agent/brandscrape/scraper"
)

//go:embed templates/*.html
var templatesFS embed.FS

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// The form, download and health routes sit outside auth so the page works
// in a plain browser and monitoring probes always work.
func NewRouter(runner *scraper.Runner, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	// Interactive form
	r.GET("/", handler.Form())
	r.POST("/scrape", handler.SubmitForm(runner, cc))
	r.GET("/download/:id", handler.Download(cc))

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(runner, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(runner, cc))

	return r
}
