package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/brandscrape/cache"
	"github.com/use-agent/brandscrape/config"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const (
	goodURL  = "https://brand.example.com/new-in"
	downURL  = "https://down.example.com/"
	emptyURL = "https://empty.example.com/"
)

const goodPage = `<html><body>
<div class="product-item"><a href="/p/1"><img src="1a.jpg"><img src="1b.jpg"></a><h2>Cashmere Knit</h2><span class="price">€450</span><em>In stock</em><span class="tag">Knitwear</span></div>
<div class="product-item"><a href="/p/2"></a><h2>Leather Loafer</h2><p class="description">Hand-stitched</p></div>
</body></html>`

// stubSession serves canned HTML and fails navigation for downURL.
type stubSession struct{}

func (stubSession) Fetch(_ context.Context, rawURL string) (*scraper.Page, error) {
	switch rawURL {
	case downURL:
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	case goodURL:
		return &scraper.Page{URL: rawURL, BaseURL: rawURL, HTML: goodPage}, nil
	default:
		return &scraper.Page{URL: rawURL, BaseURL: rawURL, HTML: "<html><body></body></html>"}, nil
	}
}

func (stubSession) Close() error { return nil }

type testEnv struct {
	router *gin.Engine
	opened int
}

func newTestEnv(t *testing.T, mutate func(*config.Config), sessionErr error) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: gin.TestMode},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Export:    config.ExportConfig{MaxEntries: 10, TTL: time.Hour},
		Log:       config.LogConfig{Level: "info", Format: "json"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{}
	runner := scraper.NewRunner(func(context.Context) (scraper.Fetcher, error) {
		env.opened++
		if sessionErr != nil {
			return nil, sessionErr
		}
		return stubSession{}, nil
	})
	env.router = NewRouter(runner, cfg, cache.New(cfg.Export.MaxEntries, cfg.Export.TTL), time.Now())
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(urls string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(url.Values{"urls": {urls}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestForm(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<textarea id="urls" name="urls"`)
	assert.Contains(t, w.Body.String(), "Scrape Products")
}

func TestSubmitForm(t *testing.T) {
	t.Run("rejects whitespace-only input without starting a run", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postForm("  \n\t\r\n  "))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), models.MsgEmptyInput)
		assert.Equal(t, 0, env.opened)
	})

	t.Run("renders table and download link, skipping the failed URL", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postForm(goodURL + "\r\n" + downURL + "\n"))
		body := w.Body.String()

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, env.opened)
		assert.Contains(t, body, "Scraping: "+goodURL)
		assert.Contains(t, body, "Failed to scrape "+downURL)
		assert.Contains(t, body, "Scraping completed successfully!")
		assert.Contains(t, body, "<td>Cashmere Knit</td>")
		assert.Contains(t, body, "<td>Leather Loafer</td>")

		link := regexp.MustCompile(`href="(/download/[0-9a-f-]+)"`).FindStringSubmatch(body)
		require.Len(t, link, 2, "download link missing")

		dl := env.do(httptest.NewRequest(http.MethodGet, link[1], nil))
		require.Equal(t, http.StatusOK, dl.Code)
		rows, err := csv.NewReader(dl.Body).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("warns when nothing was scraped", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postForm(emptyURL))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), scraper.NoRecordsWarning)
		assert.NotContains(t, w.Body.String(), "/download/")
	})

	t.Run("reports session initialization failure", func(t *testing.T) {
		env := newTestEnv(t, nil, errors.New("chromium download failed"))

		w := env.do(postForm(goodURL))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "Browser session initialization failed")
		assert.Contains(t, w.Body.String(), "chromium download failed")
	})
}

func TestScrapeAPI(t *testing.T) {
	t.Run("aggregates records across URLs", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postJSON(`{"urls":["` + goodURL + `","` + downURL + `"]}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.ScrapeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.True(t, resp.Success)
		require.Len(t, resp.Records, 2)
		assert.Equal(t, models.ScrapedRecord{
			Title:       "Cashmere Knit",
			Description: models.NotAvailable,
			Price:       "€450",
			Stock:       models.StockIn,
			Tags:        "Knitwear",
			Images:      "https://brand.example.com/1a.jpg; https://brand.example.com/1b.jpg",
			URL:         "https://brand.example.com/p/1",
		}, resp.Records[0])
		assert.Equal(t, "Hand-stitched", resp.Records[1].Description)
		assert.Equal(t, models.StockOut, resp.Records[1].Stock)

		require.Len(t, resp.Pages, 2)
		assert.Equal(t, 2, resp.Pages[0].Records)
		require.NotNil(t, resp.Pages[1].Error)
		assert.Equal(t, models.ErrCodeNavigation, resp.Pages[1].Error.Code)

		require.NotEmpty(t, resp.DownloadURL)
		dl := env.do(httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
		require.Equal(t, http.StatusOK, dl.Code)
		assert.Equal(t, "text/csv; charset=utf-8", dl.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="scraped_products.csv"`, dl.Header().Get("Content-Disposition"))

		rows, err := csv.NewReader(dl.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3, "header plus two data rows")
		assert.Equal(t, []string{"Title", "Description", "Price", "Stock", "Tags", "Images", "URL"}, rows[0])
	})

	t.Run("returns warning when no records", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postJSON(`{"urls":["` + emptyURL + `"]}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.ScrapeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Empty(t, resp.Records)
		assert.Equal(t, scraper.NoRecordsWarning, resp.Warning)
		assert.Empty(t, resp.DownloadURL)
	})

	t.Run("rejects blank URLs", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postJSON(`{"urls":["  ",""]}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), models.ErrCodeInvalidInput)
		assert.Equal(t, 0, env.opened)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		w := env.do(postJSON(`{"urls":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps session failure to 503", func(t *testing.T) {
		env := newTestEnv(t, nil, errors.New("no browser"))

		w := env.do(postJSON(`{"urls":["` + goodURL + `"]}`))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp models.ScrapeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, models.ErrCodeSessionInit, resp.Error.Code)
	})
}

func TestDownload_Unknown(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/download/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(postJSON(`{"urls":["` + goodURL + `"]}`))

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, int64(1), resp.RunsServed)
	assert.NotEmpty(t, resp.Version)
}

func TestAuth(t *testing.T) {
	withAuth := func(c *config.Config) {
		c.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}}
	}

	t.Run("missing key", func(t *testing.T) {
		env := newTestEnv(t, withAuth, nil)
		w := env.do(postJSON(`{"urls":["` + goodURL + `"]}`))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, env.opened)
	})

	t.Run("bearer key", func(t *testing.T) {
		env := newTestEnv(t, withAuth, nil)
		req := postJSON(`{"urls":["` + goodURL + `"]}`)
		req.Header.Set("Authorization", "Bearer secret")
		assert.Equal(t, http.StatusOK, env.do(req).Code)
	})

	t.Run("form stays open", func(t *testing.T) {
		env := newTestEnv(t, withAuth, nil)
		assert.Equal(t, http.StatusOK, env.do(postForm(goodURL)).Code)
	})
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	}, nil)

	first := env.do(postJSON(`{"urls":["` + emptyURL + `"]}`))
	second := env.do(postJSON(`{"urls":["` + emptyURL + `"]}`))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), models.ErrCodeRateLimited)
}
