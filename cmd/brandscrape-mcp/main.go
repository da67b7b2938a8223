package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/brandscrape/export"
	"github.com/use-agent/brandscrape/models"
)

func main() {
	apiURL := os.Getenv("BRANDSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: only needed when the server runs with auth enabled.
	apiKey := os.Getenv("BRANDSCRAPE_API_KEY")

	s := server.NewMCPServer(
		"brandscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductsTool := mcp.NewTool("scrape_products",
		mcp.WithDescription("Scrape product listings (.product-item elements) from clothing brand pages with a headless browser. Returns a table of title, description, price, stock, tags, images and product URL."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Brand page URLs to scrape, processed in order"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(scrapeProductsTool, handleScrapeProducts(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the brandscrape API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrapeProducts(apiURL, apiKey string) server.ToolHandlerFunc {
	// Each URL costs at least the settle delay plus load time.
	client := &http.Client{Timeout: 10 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", models.ScrapeRequest{URLs: urls})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp models.ScrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.Success {
			errMsg := "scrape failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		text, err := formatResult(&resp, apiURL)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render table: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// formatResult renders per-page outcomes followed by the records table.
func formatResult(resp *models.ScrapeResponse, apiURL string) (string, error) {
	var sb strings.Builder
	for _, p := range resp.Pages {
		if p.Error != nil {
			fmt.Fprintf(&sb, "- %s: FAILED [%s] %s\n", p.URL, p.Error.Code, p.Error.Message)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d products\n", p.URL, p.Records)
		for _, s := range p.Skipped {
			fmt.Fprintf(&sb, "  - skipped %s\n", s.Message)
		}
	}

	if len(resp.Records) == 0 {
		sb.WriteString("\n" + resp.Warning + "\n")
		return sb.String(), nil
	}

	table, err := export.Markdown(resp.Records)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "\n%s\n", table)
	if resp.DownloadURL != "" {
		fmt.Fprintf(&sb, "\nCSV: %s%s\n", strings.TrimSuffix(apiURL, "/"), resp.DownloadURL)
	}
	return sb.String(), nil
}
