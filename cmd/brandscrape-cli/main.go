package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/use-agent/brandscrape/config"
	"github.com/use-agent/brandscrape/export"
	"github.com/use-agent/brandscrape/models"
	"github.com/use-agent/brandscrape/scraper"
)

// CLI flags
var (
	input   = flag.String("input", "-", "File with one URL per line, '-' reads stdin")
	out     = flag.String("out", export.Filename, "CSV output file path")
	verbose = flag.Bool("v", false, "Log scraper progress to stderr")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "brandscrape-cli: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	runner := scraper.NewRunner(scraper.NewSessionFactory(cfg.Browser))
	if err := run(context.Background(), runner, *input, *out, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "brandscrape-cli: %v\n", err)
		os.Exit(1)
	}
}

// run scrapes the URLs listed in inputPath and writes the CSV to outPath.
// Notices and the Markdown table go to w. The CSV is only written when
// the run produced records.
func run(ctx context.Context, runner *scraper.Runner, inputPath, outPath string, stdin io.Reader, w io.Writer) error {
	text, err := readInput(inputPath, stdin)
	if err != nil {
		return err
	}

	urls, err := models.ParseURLList(text)
	if err != nil {
		return errors.New(models.MsgEmptyInput)
	}

	res, err := runner.Run(ctx, urls)
	if err != nil {
		return fmt.Errorf("browser session initialization failed: %w", err)
	}

	for _, n := range res.Notices() {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Text)
	}
	if len(res.Records) == 0 {
		return nil
	}

	table, err := export.Markdown(res.Records)
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintf(w, "\n%s\n\n", table)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := export.WriteCSV(f, res.Records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(w, "Wrote %d records to %s\n", len(res.Records), outPath)
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
