package models

// Notice levels, in the order a run emits them.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a user-visible message produced while a run progresses.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success is false only when the run could not start or its
	// browser session failed. Per-page failures are reported in Pages.
	Success bool `json:"success"`

	// RunID identifies the run for the CSV download.
	RunID string `json:"run_id,omitempty"`

	// Records holds every extracted product in URL order, then DOM order.
	Records []ScrapedRecord `json:"records"`

	// Pages has one entry per submitted URL.
	Pages []PageReport `json:"pages"`

	// DownloadURL is the relative path of the CSV export.
	// Empty when no records were scraped.
	DownloadURL string `json:"download_url,omitempty"`

	// Warning is set when the run finished without any records.
	Warning string `json:"warning,omitempty"`

	// Timing provides duration breakdowns for the run.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// PageReport summarises the outcome for one submitted URL.
type PageReport struct {
	URL     string        `json:"url"`
	Records int           `json:"records"`
	Skipped []ErrorDetail `json:"skipped,omitempty"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in a run.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ScrapeMs is the time spent inside the browser session.
	ScrapeMs int64 `json:"scrape_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"` // "healthy" or "busy"
	Uptime     string `json:"uptime"`
	RunsServed int64  `json:"runs_served"`
	RunActive  bool   `json:"run_active"`
	Version    string `json:"version"`
}
