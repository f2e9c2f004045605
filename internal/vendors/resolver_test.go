package vendors

import (
	"testing"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/finbeam/extractor/internal/entity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "ACME Corp", "acme corp"},
		{"strips punctuation", "Acme, Corp. Inc!", "acme corp inc"},
		{"collapses whitespace", "Acme    Corp", "acme corp"},
		{"keeps digits", "7-Eleven #42", "7 eleven 42"},
		{"keeps cyrillic", "ООО «Ромашка»", "ооо ромашка"},
		{"trims edges", "  Acme  ", "acme"},
		{"empty", "", ""},
		{"symbols only", "***", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"ACME Corp", "Acme, Corp. Inc!", "ООО «Ромашка»", "7-Eleven #42"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"acme corp", "acme corp ltd"},
		{"starbucks", "starbacks"},
		{"", "abc"},
	}
	for _, p := range pairs {
		d1 := levenshtein.Distance(p[0], p[1], nil)
		d2 := levenshtein.Distance(p[1], p[0], nil)
		if d1 != d2 {
			t.Errorf("Distance(%q, %q) = %d but reversed = %d", p[0], p[1], d1, d2)
		}
	}
}

func TestResolveExactMatch(t *testing.T) {
	known := []entity.Vendor{
		{ID: uuid.New(), Name: "Acme Corp", DisplayOrder: 1},
		{ID: uuid.New(), Name: "Globex", DisplayOrder: 2},
	}
	r := NewResolver(nil)

	// Punctuation and case differences still hit the exact pass.
	got := r.Resolve("ACME, Corp.", known)
	if got.IsNew {
		t.Fatalf("Resolve() created new vendor, want exact match: %+v", got)
	}
	if got.ID != known[0].ID || got.Name != "Acme Corp" {
		t.Errorf("Resolve() = %+v, want %s", got, known[0].Name)
	}
}

func TestResolveFuzzyMatch(t *testing.T) {
	known := []entity.Vendor{
		{ID: uuid.New(), Name: "Starbucks", DisplayOrder: 1},
	}
	r := NewResolver(nil)

	// One OCR-grade typo, distance 1.
	got := r.Resolve("Starbacks", known)
	if got.IsNew {
		t.Fatalf("Resolve() created new vendor, want fuzzy match: %+v", got)
	}
	if got.ID != known[0].ID {
		t.Errorf("Resolve() matched %q, want Starbucks", got.Name)
	}
}

func TestResolveCreatesNewVendor(t *testing.T) {
	known := []entity.Vendor{
		{ID: uuid.New(), Name: "Acme Corp", DisplayOrder: 3},
	}
	r := NewResolver(nil)

	got := r.Resolve("  Completely Different Shop  ", known)
	if !got.IsNew {
		t.Fatalf("Resolve() = %+v, want IsNew", got)
	}
	// Display name keeps the original form, only trimmed.
	if got.Name != "Completely Different Shop" {
		t.Errorf("Name = %q, want original display name", got.Name)
	}
	if got.ID == uuid.Nil {
		t.Error("new vendor has nil ID")
	}

	v := NewVendor(got, known)
	if v.DisplayOrder != 4 {
		t.Errorf("DisplayOrder = %d, want 4 (after current max)", v.DisplayOrder)
	}
}

func TestResolveEmptyName(t *testing.T) {
	r := NewResolver(nil)
	got := r.Resolve("", []entity.Vendor{{ID: uuid.New(), Name: "Acme"}})
	if got.IsNew || got.ID != uuid.Nil {
		t.Errorf("Resolve(\"\") = %+v, want zero match", got)
	}
}

func TestResolveTiesGoToFirstListed(t *testing.T) {
	a := entity.Vendor{ID: uuid.New(), Name: "Shop A", DisplayOrder: 1}
	b := entity.Vendor{ID: uuid.New(), Name: "Shop B", DisplayOrder: 2}
	r := NewResolver(nil)

	got := r.Resolve("Shop C", []entity.Vendor{a, b})
	if got.IsNew {
		t.Fatalf("Resolve() = %+v, want fuzzy match at distance 1", got)
	}
	if got.ID != a.ID {
		t.Errorf("tie resolved to %q, want first-listed %q", got.Name, a.Name)
	}
}
