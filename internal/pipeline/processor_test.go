package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/entity"
	"github.com/finbeam/extractor/internal/fx"
	"github.com/finbeam/extractor/internal/llm"
	"github.com/finbeam/extractor/internal/ocr"
	"github.com/finbeam/extractor/internal/validate"
	"github.com/finbeam/extractor/internal/vendors"
)

type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(context.Context, []llm.Message) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type stubRecognizer struct{}

func (stubRecognizer) Recognize(context.Context, []byte, ocr.SegMode) (string, float64, error) {
	return "", 0, errors.New("no engine in tests")
}
func (stubRecognizer) Close() error { return nil }

type stubRates struct {
	rates map[string]float64
	err   error
}

func (p *stubRates) FetchRates(_ context.Context, base string) (*fx.RateTable, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &fx.RateTable{Base: base, Date: time.Now().UTC(), Rates: p.rates}, nil
}

func newTestProcessor(gen llm.Generator, rates fx.RateProvider) *Processor {
	llmCfg := common.LLMConfig{MaxAttempts: 2, BackoffBase: time.Millisecond, AttemptTimeout: time.Second, TruncateBudget: 4000}
	fxCfg := common.FXConfig{Provider: "openerapi", CacheTTL: time.Hour, Timeout: time.Second}
	return NewProcessor(
		ocr.NewAcquirer(common.OCRConfig{}, stubRecognizer{}, nil),
		llm.NewOrchestrator(gen, llmCfg, nil),
		validate.NewGate(nil),
		vendors.NewResolver(nil),
		fx.NewConverter(fxCfg, rates, nil),
		nil,
	)
}

const receiptText = "Acme Corp\n12 High Street\n\nInvoice #INV-77\nDate: 15/03/2024\nTotal: 100.00 EUR\n"

const generatedRecord = `{
  "vendorName": "Acme Corp",
  "invoiceDate": "2024-03-15",
  "totalAmount": 100.00,
  "currency": "EUR",
  "invoiceNumber": "INV-77",
  "vatAmount": null,
  "subtotalAmount": null,
  "lineItems": [],
  "confidence": {"vendorName": 0.95, "invoiceDate": 0.9, "totalAmount": 0.95, "currency": 0.9}
}`

func TestProcessCleanRun(t *testing.T) {
	known := []entity.Vendor{{ID: uuid.New(), Name: "Acme Corp", DisplayOrder: 1}}
	p := newTestProcessor(
		&stubGenerator{response: generatedRecord},
		&stubRates{rates: map[string]float64{"USD": 1.10}},
	)

	res := p.Process(context.Background(), Request{
		TenantID:     uuid.New(),
		Content:      []byte(receiptText),
		MediaType:    "text/plain",
		HomeCurrency: "USD",
		Vendors:      known,
	})

	if res.Record.TotalAmount == nil || *res.Record.TotalAmount != 100.00 {
		t.Errorf("TotalAmount = %v, want 100.00", res.Record.TotalAmount)
	}
	if res.Vendor.IsNew || res.Vendor.ID != known[0].ID {
		t.Errorf("Vendor = %+v, want match against known list", res.Vendor)
	}
	if res.Conversion.NormalizedAmount != 110.00 || res.Conversion.FxRate != 1.10 {
		t.Errorf("Conversion = %+v, want 110.00 at 1.10", res.Conversion)
	}
	if res.Validation.NeedsReview {
		t.Errorf("NeedsReview = true for clean run: %v", res.Validation.Warnings)
	}
	if res.Recognition.Method != entity.MethodDirectText {
		t.Errorf("Method = %s, want direct-text", res.Recognition.Method)
	}
}

func TestProcessIsTotalUnderFullDegradation(t *testing.T) {
	// Unsupported bytes, permanently failing backend, failing rate provider:
	// the run must still produce a complete, review-flagged result.
	p := newTestProcessor(
		&stubGenerator{err: errors.New("backend gone")},
		&stubRates{err: errors.New("rates gone")},
	)

	res := p.Process(context.Background(), Request{
		TenantID:     uuid.New(),
		Content:      []byte{0x00, 0x01, 0x02},
		MediaType:    "application/octet-stream",
		HomeCurrency: "USD",
	})

	if res == nil || res.Record == nil {
		t.Fatal("degraded run returned no result")
	}
	if !res.Validation.NeedsReview {
		t.Error("NeedsReview = false, want true under full degradation")
	}
	if len(res.Validation.Warnings) == 0 {
		t.Error("want warnings explaining the degradation")
	}
	for _, f := range entity.ConfidenceFields {
		if c, ok := res.Record.Confidence[f]; !ok || c < 0 || c > 1 {
			t.Errorf("confidence[%s] = %v, %v; want in [0,1]", f, c, ok)
		}
	}
	// Currency is always backfilled post-validation.
	if res.Record.Currency == nil || *res.Record.Currency != "USD" {
		t.Errorf("Currency = %v, want USD fallback", res.Record.Currency)
	}
	if res.Conversion.FxRate != 1 {
		t.Errorf("FxRate = %v, want identity under degradation", res.Conversion.FxRate)
	}
}

func TestProcessGenerationFallbackUsesHints(t *testing.T) {
	p := newTestProcessor(
		&stubGenerator{err: &llm.HTTPStatusError{StatusCode: 503}},
		&stubRates{rates: map[string]float64{"USD": 1.10}},
	)

	res := p.Process(context.Background(), Request{
		TenantID:     uuid.New(),
		Content:      []byte(receiptText),
		MediaType:    "text/plain",
		HomeCurrency: "USD",
	})

	if res.Record.TotalAmount == nil || *res.Record.TotalAmount != 100.00 {
		t.Errorf("fallback TotalAmount = %v, want 100.00 from deterministic hints", res.Record.TotalAmount)
	}
	if !res.Validation.NeedsReview {
		t.Error("NeedsReview = false, want true after generation exhaustion")
	}
	found := false
	for _, w := range res.Validation.Warnings {
		if strings.Contains(w, "exhausted") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want generation exhaustion surfaced", res.Validation.Warnings)
	}
	// New vendor created from the head-line candidate.
	if !res.Vendor.IsNew {
		t.Errorf("Vendor = %+v, want a new vendor without a known list", res.Vendor)
	}
}
