package scraper

import (
	"fmt"
	"time"

	"github.com/use-agent/brandscrape/models"
)

// NoRecordsWarning is shown when a run finishes without any records.
const NoRecordsWarning = "No data was scraped. Ensure the selectors are correct for the websites."

// ProductFailure records a product element that was skipped.
type ProductFailure struct {
	// Index is the element's position among the page's product elements.
	Index int
	Err   error
}

// PageResult is the outcome of one URL. When Err is set the page-level
// pass failed and Records is empty.
type PageResult struct {
	URL     string
	Records []models.ScrapedRecord
	Skipped []ProductFailure
	Err     error
}

// RunResult aggregates one run: every page outcome in submission order
// and the concatenated records.
type RunResult struct {
	ID        string
	Pages     []PageResult
	Records   []models.ScrapedRecord
	StartedAt time.Time
	Duration  time.Duration
}

// Notices renders the run as the sequence of messages a user sees.
func (r *RunResult) Notices() []models.Notice {
	var out []models.Notice
	for _, p := range r.Pages {
		out = append(out, models.Notice{Level: models.NoticeInfo, Text: "Scraping: " + p.URL})
		for _, s := range p.Skipped {
			out = append(out, models.Notice{
				Level: models.NoticeWarning,
				Text:  fmt.Sprintf("Error scraping product %d: %v", s.Index+1, s.Err),
			})
		}
		if p.Err != nil {
			out = append(out, models.Notice{
				Level: models.NoticeError,
				Text:  fmt.Sprintf("Failed to scrape %s: %v", p.URL, p.Err),
			})
		}
	}
	if len(r.Records) > 0 {
		out = append(out, models.Notice{Level: models.NoticeSuccess, Text: "Scraping completed successfully!"})
	} else {
		out = append(out, models.Notice{Level: models.NoticeWarning, Text: NoRecordsWarning})
	}
	return out
}

// Reports converts page outcomes to their API representation.
func (r *RunResult) Reports() []models.PageReport {
	reports := make([]models.PageReport, 0, len(r.Pages))
	for _, p := range r.Pages {
		rep := models.PageReport{URL: p.URL, Records: len(p.Records)}
		for _, s := range p.Skipped {
			rep.Skipped = append(rep.Skipped, models.ErrorDetail{
				Code:    models.ErrCodeProductSkip,
				Message: fmt.Sprintf("product %d: %v", s.Index+1, s.Err),
			})
		}
		if p.Err != nil {
			rep.Error = models.AsScrapeError(p.Err).ToDetail()
		}
		reports = append(reports, rep)
	}
	return reports
}
