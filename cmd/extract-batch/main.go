// Command extract-batch processes every supported document under a
// directory, optionally staying alive to pick up new files as they land.
// Results stream to stdout as one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/finbeam/extractor/internal/async"
	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/fx"
	"github.com/finbeam/extractor/internal/ingest"
	"github.com/finbeam/extractor/internal/llm"
	"github.com/finbeam/extractor/internal/ocr"
	"github.com/finbeam/extractor/internal/pipeline"
	"github.com/finbeam/extractor/internal/validate"
	"github.com/finbeam/extractor/internal/vendors"
)

type lineResult struct {
	Path   string           `json:"path"`
	Error  string           `json:"error,omitempty"`
	Result *pipeline.Result `json:"result,omitempty"`
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory to process (required)")
		currency = flag.String("currency", "USD", "home currency for normalization")
		workers  = flag.Int("workers", 4, "concurrent extraction workers")
		watch    = flag.Bool("watch", false, "keep running and process new files as they appear")
		debounce = flag.Duration("debounce", 500*time.Millisecond, "watch event coalescing window")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if *dir == "" {
		logger.Error("usage", "cmd", "extract-batch -dir <path> [-currency USD] [-watch]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rateProvider, err := fx.NewRateProvider(cfg.FX, logger)
	if err != nil {
		logger.Error("construct fx provider", "error", err)
		os.Exit(1)
	}
	// The converter is shared: its rate cache is the one cross-document
	// resource worth pooling.
	converter := fx.NewConverter(cfg.FX, rateProvider, logger)

	factory := func() (*pipeline.Processor, error) {
		generator, err := llm.NewGenerator(cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		recognizer, err := ocr.NewTesseractRecognizer(cfg.OCR.Languages)
		if err != nil {
			return nil, err
		}
		return pipeline.NewProcessor(
			ocr.NewAcquirer(cfg.OCR, recognizer, logger),
			llm.NewOrchestrator(generator, cfg.LLM, logger),
			validate.NewGate(logger),
			vendors.NewResolver(logger),
			converter,
			logger,
		), nil
	}

	tenantID := uuid.New()
	var outMu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	sink := func(job async.Job, result *pipeline.Result, err error) {
		line := lineResult{Path: job.Path, Result: result}
		if err != nil {
			line.Error = err.Error()
		}
		outMu.Lock()
		defer outMu.Unlock()
		if encErr := enc.Encode(line); encErr != nil {
			logger.Error("encode result", "path", job.Path, "error", encErr)
		}
	}

	queue := async.NewPipelineQueue(factory, *currency, sink, logger, async.WithWorkers(*workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner := ingest.NewScanner(nil, true, logger)
	enqueue := func(path string) {
		_ = queue.Enqueue(ctx, async.Job{Path: path, TenantID: tenantID, SubmittedAt: time.Now()})
	}

	if _, err := scanner.ScanDirectory(*dir, enqueue); err != nil {
		logger.Error("scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	if *watch {
		events, err := scanner.Watch(ctx, ingest.WatchConfig{Roots: []string{*dir}, Debounce: *debounce})
		if err != nil {
			logger.Error("start watcher", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for new documents", "dir", *dir)
		for path := range events {
			enqueue(path)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)
}
