// Package pipeline assembles the full extraction run for one document:
// acquire text, derive deterministic candidates, orchestrate generation,
// validate, then resolve the vendor and normalize the currency concurrently.
// A run is total: every input produces a result, possibly degraded and
// flagged for review.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finbeam/extractor/internal/entity"
	"github.com/finbeam/extractor/internal/fx"
	"github.com/finbeam/extractor/internal/llm"
	"github.com/finbeam/extractor/internal/ocr"
	"github.com/finbeam/extractor/internal/parse"
	"github.com/finbeam/extractor/internal/validate"
	"github.com/finbeam/extractor/internal/vendors"
)

// Request carries everything the caller loads before a run. The pipeline
// never touches durable storage; vendors and the home currency arrive here
// and results leave through Result.
type Request struct {
	TenantID     uuid.UUID
	Content      []byte
	MediaType    string
	HomeCurrency string
	Vendors      []entity.Vendor
}

// Result is the assembled output handed back for persistence.
type Result struct {
	Record      *entity.ExtractedRecord   `json:"record"`
	Vendor      entity.VendorMatch        `json:"vendor"`
	Conversion  entity.ConversionResult   `json:"conversion"`
	Validation  entity.ValidationOutcome  `json:"validation"`
	Recognition *entity.RecognitionResult `json:"-"`
}

// Processor wires the stages together. Each stage keeps its own defaults;
// the processor only sequences them.
type Processor struct {
	acquirer     *ocr.Acquirer
	orchestrator *llm.Orchestrator
	gate         *validate.Gate
	resolver     *vendors.Resolver
	converter    *fx.Converter
	logger       *slog.Logger
}

func NewProcessor(
	acquirer *ocr.Acquirer,
	orchestrator *llm.Orchestrator,
	gate *validate.Gate,
	resolver *vendors.Resolver,
	converter *fx.Converter,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		acquirer:     acquirer,
		orchestrator: orchestrator,
		gate:         gate,
		resolver:     resolver,
		converter:    converter,
		logger:       logger,
	}
}

// Process runs the whole pipeline for one document. The only errors that
// escape are configuration-class; data-quality and availability problems
// surface as warnings inside the Result.
func (p *Processor) Process(ctx context.Context, req Request) *Result {
	start := time.Now()

	recognition := p.acquirer.Acquire(ctx, req.Content, req.MediaType)
	p.logger.Info("pipeline.acquire.done",
		"tenant_id", req.TenantID,
		"method", recognition.Method,
		"pages", recognition.Pages,
		"text_len", len(recognition.Text),
	)

	candidates := parse.ExtractCandidates(recognition.Text)

	upstream := append([]string{}, recognition.Warnings...)
	record, genErr := p.orchestrator.Extract(ctx, recognition.Text, candidates, req.HomeCurrency)
	if genErr != nil {
		upstream = append(upstream, genErr.Error())
		p.logger.Warn("pipeline.generate.degraded", "tenant_id", req.TenantID, "error", genErr)
	}

	validation := p.gate.Validate(record, upstream)

	// Vendor resolution and currency normalization have no data dependency
	// on each other; join both before assembly.
	var (
		match      entity.VendorMatch
		conversion entity.ConversionResult
		fxWarning  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name := ""
		if record.VendorName != nil {
			name = *record.VendorName
		}
		match = p.resolver.Resolve(name, req.Vendors)
		return nil
	})
	g.Go(func() error {
		amount, from := 0.0, ""
		if record.TotalAmount != nil {
			amount = *record.TotalAmount
		}
		if record.Currency != nil {
			from = *record.Currency
		}
		conversion, fxWarning = p.converter.Convert(gctx, amount, from, req.HomeCurrency)
		return nil
	})
	_ = g.Wait() // both tasks are total and never return an error

	if fxWarning != "" {
		validation.Warnings = append(validation.Warnings, fxWarning)
		validation.NeedsReview = true
	}

	p.logger.Info("pipeline.process.done",
		"tenant_id", req.TenantID,
		"needs_review", validation.NeedsReview,
		"warnings", len(validation.Warnings),
		"vendor_is_new", match.IsNew,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{
		Record:      record,
		Vendor:      match,
		Conversion:  conversion,
		Validation:  validation,
		Recognition: recognition,
	}
}
