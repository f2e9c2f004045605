// Package validate is the final sanity pass over an extracted record. It
// never rejects: problems become warnings and a needs-review flag for a
// human to resolve.
package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/finbeam/extractor/internal/entity"
)

// lowConfidenceThreshold is the gate below which a field is flagged for
// review.
const lowConfidenceThreshold = 0.7

var isoCurrencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Gate applies the record-level checks. The clock is injectable so the
// future-date check is testable.
type Gate struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{now: time.Now, logger: logger}
}

// Validate inspects the record and any upstream stage warnings. Upstream
// acquisition or generation failures force needsReview regardless of how the
// field checks turn out.
func (g *Gate) Validate(record *entity.ExtractedRecord, upstream []string) entity.ValidationOutcome {
	out := entity.ValidationOutcome{Warnings: []string{}}
	flag := func(msg string) {
		out.Warnings = append(out.Warnings, msg)
		out.NeedsReview = true
	}

	if record.TotalAmount == nil {
		flag("total amount is missing")
	} else if *record.TotalAmount <= 0 {
		flag(fmt.Sprintf("total amount %.2f is not positive", *record.TotalAmount))
	}

	hasDate := false
	if record.InvoiceDate != nil && *record.InvoiceDate != "" {
		parsed, err := time.Parse("2006-01-02", *record.InvoiceDate)
		switch {
		case err != nil:
			flag(fmt.Sprintf("invoice date %q is not a valid ISO date", *record.InvoiceDate))
		case parsed.After(g.now()):
			hasDate = true
			flag(fmt.Sprintf("invoice date %s is in the future", *record.InvoiceDate))
		default:
			hasDate = true
		}
	}

	if record.Currency == nil || *record.Currency == "" {
		flag("currency is missing")
	} else if !isoCurrencyRe.MatchString(*record.Currency) {
		flag(fmt.Sprintf("currency %q is not a 3-letter ISO code", *record.Currency))
	}

	if low := g.lowConfidenceFields(record, hasDate); len(low) > 0 {
		flag("low confidence on: " + strings.Join(low, ", "))
	}

	for _, w := range upstream {
		out.Warnings = append(out.Warnings, w)
		out.NeedsReview = true
	}

	if out.NeedsReview {
		g.logger.Debug("validate.needs_review", "warnings", len(out.Warnings))
	}
	return out
}

// lowConfidenceFields returns the fields scoring under the threshold in a
// stable order. invoiceDate is only held to the threshold when a date was
// actually extracted.
func (g *Gate) lowConfidenceFields(record *entity.ExtractedRecord, hasDate bool) []string {
	var low []string
	for _, field := range entity.ConfidenceFields {
		if field == entity.FieldInvoiceDate && !hasDate {
			continue
		}
		if record.Confidence[field] < lowConfidenceThreshold {
			low = append(low, field)
		}
	}
	sort.Strings(low)
	return low
}
