// Package ocr implements text acquisition: direct extraction for text-bearing
// documents, multi-pass optical recognition for images and scans. Acquisition
// never fails the pipeline; when every pass errors the result carries empty
// text plus warnings and downstream stages proceed degraded.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finbeam/extractor/constants"
	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/entity"
)

// Acquirer picks an acquisition strategy per media type and scores optical
// passes over distinct segmentation modes.
type Acquirer struct {
	cfg        common.OCRConfig
	recognizer Recognizer
	runner     Runner
	logger     *slog.Logger
}

// NewAcquirer fills defaults the way the rest of the pipeline expects them.
func NewAcquirer(cfg common.OCRConfig, recognizer Recognizer, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDirectTextLen <= 0 {
		cfg.MinDirectTextLen = 50
	}
	if cfg.MinPixelSide <= 0 {
		cfg.MinPixelSide = 1200
	}
	if cfg.KeywordWeight <= 0 {
		cfg.KeywordWeight = 25
	}
	if cfg.LengthBonusCap <= 0 {
		cfg.LengthBonusCap = 20
	}
	if cfg.GarbageRatio <= 0 {
		cfg.GarbageRatio = 0.10
	}
	return &Acquirer{cfg: cfg, recognizer: recognizer, runner: ExecRunner{}, logger: logger}
}

// Acquire turns raw document bytes into text. It is total: every branch
// returns a usable RecognitionResult, possibly empty and warned.
func (a *Acquirer) Acquire(ctx context.Context, content []byte, mediaType string) *entity.RecognitionResult {
	format := constants.MapMediaTypeToFormat(mediaType)
	if format == "" {
		format = constants.SniffFormat(content)
	}

	switch format {
	case constants.TXT:
		return &entity.RecognitionResult{
			Text:   Normalize(string(content)),
			Method: entity.MethodDirectText,
			Pages:  1,
		}
	case constants.PDF:
		return a.acquirePDF(ctx, content)
	case constants.IMAGE:
		return a.acquireImage(ctx, content)
	default:
		a.logger.Warn("ocr.acquire.unsupported", "media_type", mediaType, "bytes", len(content))
		return degraded(fmt.Sprintf("unsupported media type: %q", mediaType))
	}
}

func (a *Acquirer) acquireImage(ctx context.Context, content []byte) *entity.RecognitionResult {
	if constants.IsHEIC(content) {
		converted, err := a.convertHEIC(ctx, content)
		if err != nil {
			a.logger.Warn("ocr.acquire.heic_failed", "error", err)
			return degraded("heic conversion failed: " + err.Error())
		}
		content = converted
	}

	img, err := decodeImage(content)
	if err != nil {
		a.logger.Warn("ocr.acquire.decode_failed", "error", err)
		return degraded("image decode failed: " + err.Error())
	}
	png, err := encodePNG(preprocess(img, a.cfg.MinPixelSide))
	if err != nil {
		a.logger.Warn("ocr.acquire.preprocess_failed", "error", err)
		return degraded("image preprocess failed: " + err.Error())
	}

	text, diag, warns, err := a.opticalPasses(ctx, png)
	if err != nil {
		res := degraded("all recognition passes failed: " + err.Error())
		res.Warnings = append(res.Warnings, warns...)
		return res
	}
	return &entity.RecognitionResult{
		Text:     Normalize(text),
		Method:   entity.MethodOpticalScan,
		Pages:    1,
		BestPass: diag,
		Warnings: warns,
	}
}

// opticalPasses runs recognition under each segmentation mode sequentially
// against the one recognizer instance, scores every pass, and keeps the best.
// A failing pass is skipped; the stage fails only when every pass errors.
func (a *Acquirer) opticalPasses(ctx context.Context, png []byte) (string, *entity.PassDiagnostics, []string, error) {
	var (
		bestText string
		bestDiag *entity.PassDiagnostics
		warns    []string
		failures int
	)
	for _, mode := range passModes {
		text, conf, err := a.recognizer.Recognize(ctx, png, mode)
		if err != nil {
			failures++
			warns = append(warns, fmt.Sprintf("pass %s: %v", mode.Name, err))
			a.logger.Warn("ocr.pass.failed", "mode", mode.Name, "error", err)
			continue
		}
		score := scorePass(text, a.cfg.KeywordWeight, a.cfg.LengthBonusCap, a.cfg.GarbageRatio)
		a.logger.Debug("ocr.pass.scored",
			"mode", mode.Name,
			"score", score,
			"confidence", conf,
			"text_len", len(text),
		)
		if bestDiag == nil || score > bestDiag.Score {
			bestText = text
			bestDiag = &entity.PassDiagnostics{
				SegmentationMode: mode.Name,
				Score:            score,
				Confidence:       conf,
				TextLength:       len(text),
			}
		}
	}
	if bestDiag == nil {
		return "", nil, warns, fmt.Errorf("%d/%d passes errored", failures, len(passModes))
	}
	a.logger.Info("ocr.acquire.ok",
		"mode", bestDiag.SegmentationMode,
		"score", bestDiag.Score,
		"confidence", bestDiag.Confidence,
		"text_len", bestDiag.TextLength,
		"failed_passes", failures,
	)
	return bestText, bestDiag, warns, nil
}

func degraded(warning string) *entity.RecognitionResult {
	return &entity.RecognitionResult{
		Method:   entity.MethodNone,
		Warnings: []string{warning},
	}
}

// joinPages concatenates page texts with a clear page-break marker.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n\f\n")
}
