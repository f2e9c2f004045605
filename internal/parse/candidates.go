// Package parse implements the deterministic candidate pass: pure
// regex/heuristic extraction over acquired text, no I/O. Its output seeds the
// generation prompt and backs the fallback path when generation is exhausted.
package parse

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/finbeam/extractor/constants"
	"github.com/finbeam/extractor/internal/entity"
)

// Amount keyword categories, most specific first. The priority map fixes the
// candidate ordering regardless of where a match appears in the text.
const (
	CategoryTotalDue   = "total_due"
	CategoryBalanceDue = "balance_due"
	CategoryGrandTotal = "grand_total"
	CategoryBalance    = "balance"
	CategoryTotal      = "total"
)

var categoryPriority = map[string]int{
	CategoryTotalDue:   0,
	CategoryBalanceDue: 1,
	CategoryGrandTotal: 2,
	CategoryBalance:    3,
	CategoryTotal:      4,
}

// moneyGroup matches an optionally symbol-prefixed money figure. The inner
// whitespace stays on one line so a capture never runs into the next row of
// the document.
const moneyGroup = `[$€£₽¥₴₸₹]?[ \t]*([\d][\d \t.,]*\d|\d)`

// amountPatterns is the ranked (regex, category) table. English and Russian
// phrasings share categories.
var amountPatterns = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)(?:total\s+(?:to\s+pay|due)|amount\s+due|итого\s+к\s+оплате|всего\s+к\s+оплате|к\s+оплате)\s*:?\s*` + moneyGroup), CategoryTotalDue},
	{regexp.MustCompile(`(?i)balance\s+due\s*:?\s*` + moneyGroup), CategoryBalanceDue},
	{regexp.MustCompile(`(?i)grand\s+total\s*:?\s*` + moneyGroup), CategoryGrandTotal},
	{regexp.MustCompile(`(?i)balance\s*:?\s*` + moneyGroup), CategoryBalance},
	{regexp.MustCompile(`(?i)(?:total|итого|всего|сумма)\s*:?\s*` + moneyGroup), CategoryTotal},
}

var (
	reDateNumeric = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b`)
	reDateISO     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	reDateNamed   = regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?|янв(?:аря)?|фев(?:раля)?|мар(?:та)?|апр(?:еля)?|мая|июн(?:я)?|июл(?:я)?|авг(?:уста)?|сен(?:тября)?|окт(?:ября)?|ноя(?:бря)?|дек(?:абря)?)\.?\s+\d{4}\b`)
)

var invoicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*(?:no\.?|number|num\.?|#)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9/_-]{1,31})`),
	regexp.MustCompile(`(?i)receipt\s*(?:no\.?|number|#)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9/_-]{1,31})`),
	regexp.MustCompile(`(?i)(?:счет|счёт)(?:-фактура)?\s*(?:№|No\.?|N)?\s*[:#]?\s*([A-Za-zА-Яа-я0-9][A-Za-zА-Яа-я0-9/_-]{0,31})`),
	regexp.MustCompile(`(?i)(?:чек|квитанция)\s*№\s*([0-9][0-9/_-]{0,31})`),
}

// currencyCodeRe matches ISO codes and accepted aliases as standalone tokens.
var currencyCodeRe = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|RUB|RUR|CHF|JPY|CNY|CAD|AUD|INR|SEK|NOK|DKK|PLN|CZK|TRY|KZT|BYN|UAH|AED|GEL|AMD|BRL|MXN|KRW|SGD|HKD|NZD|ZAR|ILS|NIS|руб)\b`)

// structuralKeywords disqualify a head line from being a vendor-name candidate.
var structuralKeywords = []string{
	"invoice", "receipt", "bill to", "ship to", "tel:", "tel.", "phone",
	"fax", "email", "e-mail", "www.", "http", "vat", "date",
	"счет", "счёт", "чек", "квитанция", "тел:", "тел.", "факс", "инн",
}

const (
	vendorHeadChars  = 500
	maxVendorLines   = 5
	contextRadius    = 50
	minVendorLineLen = 3
	maxVendorLineLen = 80
)

// ExtractCandidates runs every deterministic pattern family over text.
// Pure function: identical input yields identical output, including ordering.
func ExtractCandidates(text string) *entity.CandidateSet {
	return &entity.CandidateSet{
		Dates:          extractDates(text),
		InvoiceNumbers: extractInvoiceNumbers(text),
		Amounts:        extractAmounts(text),
		Currencies:     extractCurrencies(text),
		VendorNames:    extractVendorNames(text),
	}
}

func extractDates(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range []*regexp.Regexp{reDateNumeric, reDateISO, reDateNamed} {
		for _, m := range re.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

func extractInvoiceNumbers(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range invoicePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			tok := strings.TrimSpace(m[1])
			if tok == "" {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

func extractAmounts(text string) []entity.AmountCandidate {
	var out []entity.AmountCandidate
	for _, p := range amountPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[loc[2]:loc[3]]
			v, ok := ParseMoney(raw)
			if !ok || v <= 0 {
				continue
			}
			out = append(out, entity.AmountCandidate{
				Value:    v,
				Category: p.category,
				Context:  surround(text, loc[0], loc[1]),
			})
		}
	}
	// Stable sort keeps encounter order within a category, so re-running the
	// parser on identical text yields identical ordering.
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i].Category) < priorityOf(out[j].Category)
	})
	return out
}

func priorityOf(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return len(categoryPriority) // unknown categories sort last
}

func extractCurrencies(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(code string) {
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, s := range constants.CurrencySymbols {
		if strings.Contains(text, s.Symbol) {
			add(s.Code)
		}
	}
	for _, m := range currencyCodeRe.FindAllString(text, -1) {
		if code, ok := constants.NormalizeCurrencyCode(m); ok {
			add(code)
		}
	}
	return out
}

func extractVendorNames(text string) []string {
	head := []rune(text)
	if len(head) > vendorHeadChars {
		head = head[:vendorHeadChars]
	}
	var out []string
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		n := len([]rune(line))
		if n < minVendorLineLen || n > maxVendorLineLen {
			continue
		}
		if letterRatio(line) < 0.5 {
			continue
		}
		if hasStructuralKeyword(line) {
			continue
		}
		out = append(out, line)
		if len(out) == maxVendorLines {
			break
		}
	}
	return out
}

func hasStructuralKeyword(line string) bool {
	l := strings.ToLower(line)
	for _, kw := range structuralKeywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// letterRatio counts letters of any script against all non-space runes.
func letterRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// ParseMoney parses a money-shaped token, tolerating currency symbols,
// thousands separators (comma, dot, space) and either decimal separator.
func ParseMoney(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	for _, sym := range constants.CurrencySymbols {
		s = strings.ReplaceAll(s, sym.Symbol, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal point
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			i := strings.LastIndexByte(s, ',')
			s = strings.ReplaceAll(s[:i], ",", "") + "." + s[i+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		frac := len(s) - lastComma - 1
		if strings.Count(s, ",") == 1 && (frac == 1 || frac == 2) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "") // thousands separators
		}
	case lastDot >= 0:
		frac := len(s) - lastDot - 1
		if strings.Count(s, ".") > 1 || frac == 3 {
			s = strings.ReplaceAll(s, ".", "") // 1.234.567 style
		}
	}

	var v float64
	var intPart, fracPart int64
	var inFrac bool
	var fracDigits int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if inFrac {
				fracPart = fracPart*10 + int64(r-'0')
				fracDigits++
			} else {
				intPart = intPart*10 + int64(r-'0')
			}
		case r == '.' && !inFrac:
			inFrac = true
		default:
			return 0, false
		}
	}
	v = float64(intPart)
	if fracDigits > 0 {
		div := 1.0
		for i := 0; i < fracDigits; i++ {
			div *= 10
		}
		v += float64(fracPart) / div
	}
	return v, true
}

func surround(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	// avoid splitting multi-byte runes at the window edges
	for from > 0 && !utf8RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
