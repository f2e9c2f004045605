package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/finbeam/extractor/constants"
	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/entity"
)

const (
	neutralConfidence  = 0.5
	degradedConfidence = 0.3
)

// Orchestrator drives structured extraction against a Generator with retry,
// backoff, and the deterministic fallback. Extract never returns a nil record
// and never fails for data-quality or backend-availability reasons.
type Orchestrator struct {
	gen            Generator
	policy         RetryPolicy
	attemptTimeout time.Duration
	truncateBudget int
	logger         *slog.Logger
}

// NewOrchestrator fills defaults matching the pipeline contract: 3 attempts
// total, exponential backoff, 60s hard timeout per attempt, 4000-char budget.
func NewOrchestrator(gen Generator, cfg common.LLMConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if cfg.TruncateBudget <= 0 {
		cfg.TruncateBudget = 4000
	}
	return &Orchestrator{
		gen:            gen,
		policy:         RetryPolicy{MaxAttempts: cfg.MaxAttempts, BackoffBase: cfg.BackoffBase},
		attemptTimeout: cfg.AttemptTimeout,
		truncateBudget: cfg.TruncateBudget,
		logger:         logger,
	}
}

// Extract runs the generation loop and always produces a validated record.
// The returned error is a signal only: non-nil means every attempt was
// exhausted and the deterministic fallback was used; the record is still
// fully usable and the caller records the message as a warning.
func (o *Orchestrator) Extract(ctx context.Context, text string, candidates *entity.CandidateSet, homeCurrency string) (*entity.ExtractedRecord, error) {
	rid := uuid.New().String()
	start := time.Now()
	messages := BuildMessages(text, candidates, homeCurrency, o.truncateBudget)

	var lastErr error
	for attempt := 0; attempt < o.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, o.policy.Backoff(attempt-1)); err != nil {
				lastErr = err
				break
			}
			o.logger.Info("llm.extract.retry", "req_id", rid, "attempt", attempt+1)
		}

		record, err := o.attempt(ctx, messages)
		if err == nil {
			o.postValidate(record, homeCurrency)
			o.logger.Info("llm.extract.ok",
				"req_id", rid,
				"attempts", attempt+1,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return record, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			o.logger.Error("llm.extract.aborted", "req_id", rid, "attempt", attempt+1, "error", err)
			break
		}
		o.logger.Warn("llm.extract.attempt_failed", "req_id", rid, "attempt", attempt+1, "error", err)
	}

	o.logger.Warn("llm.extract.exhausted",
		"req_id", rid,
		"attempts", o.policy.MaxAttempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	record := o.fallback(text, candidates, homeCurrency)
	o.postValidate(record, homeCurrency)
	return record, fmt.Errorf("generation exhausted after %d attempts: %w", o.policy.MaxAttempts, lastErr)
}

// attempt performs one bounded backend call and parses its output.
func (o *Orchestrator) attempt(ctx context.Context, messages []Message) (*entity.ExtractedRecord, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	raw, err := o.gen.Generate(attemptCtx, messages)
	if err != nil {
		return nil, err
	}
	objStr, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	cleaned, adjusted, err := SanitizeRecordJSON([]byte(objStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	if len(adjusted) > 0 {
		o.logger.Debug("llm.extract.sanitized", "adjusted", adjusted)
	}
	if err := ValidateJSONAgainstSchema(BuildRecordJSONSchema(), cleaned); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	record := entity.NewExtractedRecord()
	if err := json.Unmarshal(cleaned, record); err != nil {
		return nil, fmt.Errorf("%w: unmarshal record: %v", ErrSchemaMismatch, err)
	}
	return record, nil
}

// postValidate enforces the record contract regardless of which path
// produced it: a confidence entry per required field, a positive-or-null
// total, and an accepted-or-fallback currency.
func (o *Orchestrator) postValidate(record *entity.ExtractedRecord, fallbackCurrency string) {
	if record.Confidence == nil {
		record.Confidence = map[string]float64{}
	}
	for _, f := range entity.ConfidenceFields {
		c, ok := record.Confidence[f]
		if !ok {
			record.Confidence[f] = neutralConfidence
			continue
		}
		record.Confidence[f] = clamp01(c)
	}
	if record.LineItems == nil {
		record.LineItems = []entity.LineItem{}
	}
	if record.Warnings == nil {
		record.Warnings = []string{}
	}

	if record.TotalAmount != nil {
		v := *record.TotalAmount
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			record.TotalAmount = nil
			record.Confidence[entity.FieldTotalAmount] = math.Min(record.Confidence[entity.FieldTotalAmount], degradedConfidence)
			record.Warn(fmt.Sprintf("discarded invalid total amount %v", v))
		}
	}
	if record.TotalAmount == nil {
		record.Confidence[entity.FieldTotalAmount] = 0
		if !contains(record.Warnings, "total amount missing") {
			record.Warn("total amount missing")
		}
	}

	fallbackCode, ok := constants.NormalizeCurrencyCode(fallbackCurrency)
	if !ok {
		fallbackCode = "USD"
	}
	if record.Currency != nil {
		code, ok := constants.NormalizeCurrencyCode(*record.Currency)
		if !ok {
			record.Warn(fmt.Sprintf("unrecognized currency %q, falling back to %s", *record.Currency, fallbackCode))
			record.Currency = &fallbackCode
			record.Confidence[entity.FieldCurrency] = math.Min(record.Confidence[entity.FieldCurrency], degradedConfidence)
		} else {
			record.Currency = &code
		}
	} else {
		record.Currency = &fallbackCode
		record.Confidence[entity.FieldCurrency] = 0
		record.Warn("currency missing, falling back to " + fallbackCode)
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
