// Package vendors matches an extracted vendor name against a tenant's known
// vendor list. Matching is two-pass: exact on normalized form, then fuzzy
// with a small edit-distance bound. No match produces a new vendor record
// for the caller to persist.
package vendors

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/finbeam/extractor/internal/entity"
)

// maxEditDistance bounds the fuzzy pass. Two edits tolerate OCR-grade typos
// without conflating genuinely different businesses.
const maxEditDistance = 2

// Resolver matches vendor names. It is stateless between calls; the known
// list is an argument, not resolver state.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Normalize canonicalizes a vendor name for comparison: lowercase, letters
// and digits only, single-space separated. Idempotent by construction.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	space := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// Resolve matches rawName against known vendors. The empty name resolves to
// nothing: a zero VendorMatch with IsNew false and a nil ID.
func (r *Resolver) Resolve(rawName string, known []entity.Vendor) entity.VendorMatch {
	norm := Normalize(rawName)
	if norm == "" {
		return entity.VendorMatch{}
	}

	for _, v := range known {
		if Normalize(v.Name) == norm {
			r.logger.Debug("vendors.resolve.exact", "vendor", v.Name)
			return entity.VendorMatch{ID: v.ID, Name: v.Name}
		}
	}

	// Fuzzy pass keeps the closest candidate; ties go to the first listed.
	bestDist := maxEditDistance + 1
	var best *entity.Vendor
	for i, v := range known {
		d := levenshtein.Distance(norm, Normalize(v.Name), nil)
		if d < bestDist {
			bestDist = d
			best = &known[i]
		}
	}
	if best != nil {
		r.logger.Debug("vendors.resolve.fuzzy", "vendor", best.Name, "distance", bestDist)
		return entity.VendorMatch{ID: best.ID, Name: best.Name}
	}

	display := strings.TrimSpace(rawName)
	r.logger.Debug("vendors.resolve.new", "vendor", display)
	return entity.VendorMatch{ID: uuid.New(), Name: display, IsNew: true}
}

// NewVendor materializes a record for a match flagged IsNew so the caller
// can persist it alongside the extraction result.
func NewVendor(match entity.VendorMatch, known []entity.Vendor) entity.Vendor {
	maxOrder := 0
	for _, v := range known {
		if v.DisplayOrder > maxOrder {
			maxOrder = v.DisplayOrder
		}
	}
	return entity.Vendor{ID: match.ID, Name: match.Name, DisplayOrder: maxOrder + 1}
}
