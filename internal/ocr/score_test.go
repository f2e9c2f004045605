package ocr

import (
	"strings"
	"testing"
)

func TestScorePassRanksCleanAboveGarbled(t *testing.T) {
	clean := "Acme Corp\nInvoice #42\nDate: 15/03/2024\nSubtotal: 100.00\nTax: 23.45\nTotal: 123.45\n"
	garbled := "~^~ |||| @@ ~~ [[ ]] {{ }} ^^^ \\ ~~ || ^^ ~^~ || ~~ ^^ [[ ]]"

	cleanScore := scorePass(clean, 25, 20, 0.10)
	garbledScore := scorePass(garbled, 25, 20, 0.10)
	if cleanScore <= garbledScore {
		t.Errorf("clean score %v <= garbled score %v", cleanScore, garbledScore)
	}
}

func TestScorePassEmptyText(t *testing.T) {
	if got := scorePass("   \n  ", 25, 20, 0.10); got != 0 {
		t.Errorf("scorePass(blank) = %v, want 0", got)
	}
}

func TestScorePassKeywordWeight(t *testing.T) {
	// Same length, one has keywords.
	withKw := "total amount due today ok"
	without := "zzzzz zzzzzz zzz zzzzz zzz"
	if scorePass(withKw, 25, 20, 0.10) <= scorePass(without, 25, 20, 0.10) {
		t.Error("keyword hits did not outweigh plain text of equal length")
	}
}

func TestScorePassRussianKeywords(t *testing.T) {
	ru := "Итого к оплате: 1250,50\nНДС: 250,10\nДата: 12.03.2024"
	if got := scorePass(ru, 25, 20, 0.10); got < 50 {
		t.Errorf("score = %v, want russian keywords to register", got)
	}
}

func TestScorePassLengthBonusCapped(t *testing.T) {
	long := strings.Repeat("zzzz ", 2000)
	longer := strings.Repeat("zzzz ", 4000)
	a := scorePass(long, 25, 20, 0.10)
	b := scorePass(longer, 25, 20, 0.10)
	if b > a {
		t.Errorf("length bonus not capped: %v then %v", a, b)
	}
}

func TestGarbageRatio(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  float64
		min  float64
	}{
		{"clean text", "Total: 123.45 USD", 0.05, 0},
		{"pure noise", "~~~^^^|||\\\\", 1.01, 0.9},
		{"empty", "", 0.01, 0},
		{"currency glyphs are fine", "$ € £ ₽", 0.01, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := garbage(tt.in)
			if got < tt.min || got > tt.max {
				t.Errorf("garbage(%q) = %v, want in [%v, %v]", tt.in, got, tt.min, tt.max)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and runs of spaces", "a\t\tb    c", "a b c"},
		{"box noise line", "a\n----------\nb", "a\n\nb"},
		{"collapses blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing spaces", "a   \nb", "a\nb"},
		{"trims edges", "  \n a \n  ", "a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
