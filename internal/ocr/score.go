package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// passKeywords are the receipt/invoice anchor terms a good recognition pass
// should surface. Hits are weighted heavily relative to raw length.
var passKeywords = []string{
	"total", "amount", "due", "invoice", "receipt", "date", "tax", "vat",
	"subtotal", "balance", "payment",
	"итого", "всего", "сумма", "счет", "счёт", "чек", "дата", "ндс", "оплат",
	"usd", "eur", "gbp", "rub",
}

var reMoneyShaped = regexp.MustCompile(`\d+[.,]\d{2}\b`)

const currencyGlyphs = "$€£₽¥₴₸₹"

// scorePass ranks one recognition pass. The weights are hand-tuned
// configuration (common.OCRConfig), not fixed law.
func scorePass(text string, keywordWeight, lengthBonusCap, garbageRatio float64) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	lower := strings.ToLower(text)

	var score float64
	for _, kw := range passKeywords {
		score += float64(strings.Count(lower, kw)) * keywordWeight
	}
	score += float64(len(reMoneyShaped.FindAllString(text, -1))) * 5

	bonus := float64(len(text)) / 20
	if bonus > lengthBonusCap {
		bonus = lengthBonusCap
	}
	score += bonus

	// Garbled passes are recognizable by their symbol density.
	if garbage(text) > garbageRatio {
		score -= 30
	}
	return score
}

// garbage returns the ratio of characters that are neither alphanumeric,
// whitespace, currency glyphs, nor common receipt punctuation.
func garbage(text string) float64 {
	var bad, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case strings.ContainsRune(currencyGlyphs, r):
		case strings.ContainsRune(".,:;%#№()/-+*'\"&@!?_=", r):
		default:
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}
