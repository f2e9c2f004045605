// Command extract runs the extraction pipeline over one local file and
// prints the assembled result as JSON. It is the reference wiring of the
// pipeline; service embedders construct the same stages themselves.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/finbeam/extractor/constants"
	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/entity"
	"github.com/finbeam/extractor/internal/fx"
	"github.com/finbeam/extractor/internal/llm"
	"github.com/finbeam/extractor/internal/ocr"
	"github.com/finbeam/extractor/internal/pipeline"
	"github.com/finbeam/extractor/internal/validate"
	"github.com/finbeam/extractor/internal/vendors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional; absent .env just means the environment is already set.
	_ = godotenv.Load()

	if len(os.Args) < 2 || len(os.Args) > 3 {
		logger.Error("usage", "cmd", "extract <file> [home-currency]")
		os.Exit(2)
	}
	path := os.Args[1]
	homeCurrency := "USD"
	if len(os.Args) == 3 {
		code, ok := constants.NormalizeCurrencyCode(os.Args[2])
		if !ok {
			logger.Error("unknown home currency", "arg", os.Args[2])
			os.Exit(2)
		}
		homeCurrency = code
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read input file", "path", path, "error", err)
		os.Exit(1)
	}

	generator, err := llm.NewGenerator(cfg.LLM, logger)
	if err != nil {
		logger.Error("construct generation backend", "error", err)
		os.Exit(1)
	}
	rateProvider, err := fx.NewRateProvider(cfg.FX, logger)
	if err != nil {
		logger.Error("construct fx provider", "error", err)
		os.Exit(1)
	}
	recognizer, err := ocr.NewTesseractRecognizer(cfg.OCR.Languages)
	if err != nil {
		logger.Error("construct recognizer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := recognizer.Close(); cerr != nil {
			logger.Error("close recognizer", "error", cerr)
		}
	}()

	processor := pipeline.NewProcessor(
		ocr.NewAcquirer(cfg.OCR, recognizer, logger),
		llm.NewOrchestrator(generator, cfg.LLM, logger),
		validate.NewGate(logger),
		vendors.NewResolver(logger),
		fx.NewConverter(cfg.FX, rateProvider, logger),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	result := processor.Process(ctx, pipeline.Request{
		TenantID:     uuid.New(),
		Content:      content,
		MediaType:    constants.ExtToMediaType(filepath.Ext(path)),
		HomeCurrency: homeCurrency,
		Vendors:      []entity.Vendor{},
	})
	logger.Info("extraction done",
		"needs_review", result.Validation.NeedsReview,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
