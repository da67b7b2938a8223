package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/brandscrape/models"
)

// Runner executes scrape runs one at a time. Each run owns a single
// browser session that is reused for every URL in order and closed when
// the run ends.
type Runner struct {
	open   SessionFactory
	mu     sync.Mutex
	runs   atomic.Int64
	active atomic.Bool
}

// NewRunner creates a Runner that opens sessions with open.
func NewRunner(open SessionFactory) *Runner {
	return &Runner{open: open}
}

// RunStats is a snapshot of runner activity.
type RunStats struct {
	RunsServed int64
	Active     bool
}

// Stats reports how many runs completed and whether one is in progress.
func (r *Runner) Stats() RunStats {
	return RunStats{RunsServed: r.runs.Load(), Active: r.active.Load()}
}

// Run scrapes urls sequentially.
//
// The only error returned is a session initialization failure, in which
// case no page was attempted. Page and product failures are carried in
// the result so the remaining URLs and elements are still processed.
func (r *Runner) Run(ctx context.Context, urls []string) (*RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active.Store(true)
	defer r.active.Store(false)

	started := time.Now()
	session, err := r.open(ctx)
	if err != nil {
		slog.Error("browser session initialization failed", "error", err)
		se := models.AsScrapeError(err)
		if se.Code == models.ErrCodeInternal {
			se = models.NewScrapeError(models.ErrCodeSessionInit, "failed to start browser session", err)
		}
		return nil, se
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			slog.Warn("failed to close browser session", "error", closeErr)
		}
	}()

	run := &RunResult{
		ID:        uuid.NewString(),
		Pages:     make([]PageResult, 0, len(urls)),
		Records:   []models.ScrapedRecord{},
		StartedAt: started,
	}
	for _, u := range urls {
		page := scrapePage(ctx, session, u)
		run.Pages = append(run.Pages, page)
		run.Records = append(run.Records, page.Records...)
	}
	run.Duration = time.Since(started)
	r.runs.Add(1)

	slog.Info("run finished",
		"id", run.ID,
		"urls", len(urls),
		"records", len(run.Records),
		"duration", run.Duration.Round(time.Millisecond).String(),
	)
	return run, nil
}

// scrapePage fetches and extracts one URL, folding any failure into the
// returned PageResult.
func scrapePage(ctx context.Context, f Fetcher, rawURL string) PageResult {
	slog.Info("scraping", "url", rawURL)
	res := PageResult{URL: rawURL, Records: []models.ScrapedRecord{}}

	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		slog.Error("failed to scrape page", "url", rawURL, "error", err)
		res.Err = err
		return res
	}

	records, skipped, err := Extract(page.HTML, page.BaseURL)
	if err != nil {
		slog.Error("failed to extract page", "url", rawURL, "error", err)
		res.Err = err
		return res
	}
	for _, s := range skipped {
		slog.Warn("product skipped", "url", rawURL, "index", s.Index, "error", s.Err)
	}

	res.Records = records
	res.Skipped = skipped
	return res
}
