package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/brandscrape/models"
)

// Page is the rendered snapshot of one listing page.
type Page struct {
	// URL is the address as submitted.
	URL string

	// BaseURL is document.baseURI after load; product links resolve against it.
	BaseURL string

	// HTML is the serialized DOM after the settle delay.
	HTML string
}

// Fetch loads rawURL in a fresh tab and snapshots it.
//
// Lifecycle:
//
//  1. Open tab              – closed again on return
//  2. Stealth injection     – only when configured, before navigation
//  3. Navigate + load event – bounded by PageLoadTimeout
//  4. Settle                – fixed SettleDelay sleep, no readiness detection
//  5. Implicit wait         – up to ImplicitWait for a product element; a
//     timeout here just means the page has no products
//  6. Snapshot              – page HTML and document.baseURI
func (s *Session) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	// ── 1. Open tab ───────────────────────────────────────────────────
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			"failed to open browser tab",
			err,
		)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("failed to close tab", "url", rawURL, "error", closeErr)
		}
	}()

	// ── 2. Stealth injection ──────────────────────────────────────────
	if s.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 3. Navigate ───────────────────────────────────────────────────
	loadCtx, cancelLoad := context.WithTimeout(ctx, PageLoadTimeout)
	p := page.Context(loadCtx)
	err = p.Navigate(rawURL)
	if err == nil {
		err = p.WaitLoad()
	}
	cancelLoad()
	if err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	// ── 4. Settle ─────────────────────────────────────────────────────
	select {
	case <-time.After(SettleDelay):
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "run canceled while waiting for page")
	}

	// ── 5. Implicit wait ──────────────────────────────────────────────
	waitCtx, cancelWait := context.WithTimeout(ctx, ImplicitWait)
	if waitErr := page.Context(waitCtx).WaitElementsMoreThan(ProductSelector, 0); waitErr != nil {
		slog.Debug("no product elements appeared within implicit wait",
			"url", rawURL, "error", waitErr,
		)
	}
	cancelWait()

	// ── 6. Snapshot ───────────────────────────────────────────────────
	p = page.Context(ctx)
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	base := evalStringOrEmpty(p, `() => document.baseURI`)
	if base == "" {
		base = rawURL
	}

	return &Page{URL: rawURL, BaseURL: base, HTML: rawHTML}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts from other navigation failures in reports.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
