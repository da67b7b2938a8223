package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/brandscrape/config"
	"github.com/use-agent/brandscrape/models"
)

// Fixed session settings. They are intentionally not configurable.
const (
	// UserAgent is the request identity sent with every navigation.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

	// PageLoadTimeout bounds navigation up to the load event.
	PageLoadTimeout = 30 * time.Second

	// ImplicitWait bounds the wait for product elements to appear.
	ImplicitWait = 10 * time.Second

	// SettleDelay is the static grace period after the page has loaded.
	SettleDelay = 3 * time.Second
)

// Fetcher loads pages inside one open browser session.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
	Close() error
}

// SessionFactory opens the browser session for a run.
type SessionFactory func(ctx context.Context) (Fetcher, error)

// Session is a single headless browser reused sequentially for every URL
// of a run. It is not safe for concurrent use.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	stealth  bool
}

// NewSessionFactory returns a SessionFactory that launches a fresh
// browser per run using cfg for binary provisioning.
func NewSessionFactory(cfg config.BrowserConfig) SessionFactory {
	return func(ctx context.Context) (Fetcher, error) {
		s, err := NewSession(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// NewSession launches a headless, unsandboxed browser with the fixed user
// agent. When cfg.Bin is empty rod downloads a matching Chromium first.
//
// On failure nothing is left running, so callers have nothing to close.
func NewSession(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("user-agent"), UserAgent)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeSessionInit,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(
			models.ErrCodeSessionInit,
			"failed to connect to browser",
			err,
		)
	}

	return &Session{
		launcher: l,
		browser:  browser,
		stealth:  cfg.Stealth,
	}, nil
}

// Close terminates the browser process and removes its profile directory.
func (s *Session) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	slog.Info("browser session closed")
	return err
}
