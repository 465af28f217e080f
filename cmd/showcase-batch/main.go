package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/export"
	"github.com/showcasekit/showcase-extractor/internal/ingest"
	"github.com/showcasekit/showcase-extractor/internal/llm/gemini"
	"github.com/showcasekit/showcase-extractor/internal/pipeline"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory to process showcase documents from (required)")
		out         = flag.String("out", "", "output report path (optional, defaults to parent directory)")
		xlsxOut     = flag.String("xlsx", "", "also write an XLSX summary to this path (optional)")
		concurrency = flag.Int("concurrency", 0, "max in-flight extraction calls (overrides EXTRACT_CONCURRENCY)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), export.ReportFileName)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if *concurrency > 0 {
		cfg.Pipeline.Concurrency = *concurrency
	}
	if cfg.LLM.APIKey == "" {
		printError("Error: GEMINI_API_KEY is required\n")
		os.Exit(1)
	}

	extractor, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize gemini client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			logger.Warn("gemini client close error", "error", err)
		}
	}()
	logger.Info("gemini client initialized", "model", cfg.LLM.Model)

	// Scan directory
	logger.Info("scanning directory", "dir", *dir)
	files, stats, err := ingest.Directory(*dir, nil, true)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed)
	if len(files) == 0 {
		printError("No supported documents found in %s\n", *dir)
		os.Exit(1)
	}

	// Process the batch
	q := queue.New(logger)
	proc := pipeline.NewProcessor(logger, pipeline.Config{
		Concurrency: cfg.Pipeline.Concurrency,
	}, q, extractor)

	if _, err := proc.Run(ctx, files); err != nil {
		logger.Error("batch run failed to start", "error", err)
		os.Exit(1)
	}

	completed := q.CompletedItems()
	failures := q.Len() - len(completed)

	if len(completed) == 0 {
		printError("No documents were extracted successfully; nothing to export\n")
		os.Exit(1)
	}

	// Export the report
	exp := export.NewService(q, cfg.Report.Title, logger)
	doc, err := exp.ReportDoc()
	if err != nil {
		logger.Error("failed to render report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, doc, 0644); err != nil {
		logger.Error("failed to write report file", "error", err)
		os.Exit(1)
	}

	if *xlsxOut != "" {
		wb, err := exp.SummaryXLSX()
		if err != nil {
			logger.Error("failed to render xlsx summary", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, wb, 0644); err != nil {
			logger.Error("failed to write xlsx file", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"files", len(files),
		"extracted", len(completed),
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents found: %d\n", len(files))
	fmt.Printf("- Extracted: %d\n", len(completed))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
