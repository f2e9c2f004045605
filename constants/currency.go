package constants

import "strings"

// AcceptedCurrencies is the set of ISO 4217 codes the pipeline recognizes.
// Records carrying anything else are coerced to the tenant fallback.
var AcceptedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "RUB": {}, "CHF": {}, "JPY": {},
	"CNY": {}, "CAD": {}, "AUD": {}, "INR": {}, "SEK": {}, "NOK": {},
	"DKK": {}, "PLN": {}, "CZK": {}, "TRY": {}, "KZT": {}, "BYN": {},
	"UAH": {}, "AED": {}, "GEL": {}, "AMD": {}, "BRL": {}, "MXN": {},
	"KRW": {}, "SGD": {}, "HKD": {}, "NZD": {}, "ZAR": {}, "ILS": {},
}

// CurrencySymbols maps currency glyphs to ISO codes. Multi-character symbols
// must be checked before their single-character prefixes.
var CurrencySymbols = []struct {
	Symbol string
	Code   string
}{
	{"US$", "USD"},
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₽", "RUB"},
	{"₴", "UAH"},
	{"₸", "KZT"},
	{"₹", "INR"},
	{"¥", "JPY"},
	{"₩", "KRW"},
	{"₺", "TRY"},
	{"₪", "ILS"},
}

// currencyAliases normalizes legacy or colloquial codes to ISO 4217.
var currencyAliases = map[string]string{
	"RUR": "RUB", // pre-1998 code still common on Russian receipts
	"РУБ": "RUB",
	"UKL": "GBP",
	"NIS": "ILS",
}

// NormalizeCurrencyCode uppercases, trims, and resolves aliases. The second
// return is false when the result is not an accepted ISO code.
func NormalizeCurrencyCode(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := currencyAliases[c]; ok {
		c = alias
	}
	_, ok := AcceptedCurrencies[c]
	return c, ok
}

// IsAcceptedCurrency reports whether code is a known ISO 4217 code.
func IsAcceptedCurrency(code string) bool {
	_, ok := AcceptedCurrencies[code]
	return ok
}
