package entity

// AmountCandidate is one money figure found by the deterministic parser.
type AmountCandidate struct {
	Value    float64
	Category string // keyword category, e.g. "total_due", "grand_total", "total"
	Context  string // ±50 chars of surrounding text for downstream prompting
}

// CandidateSet holds everything the deterministic parser found. It is a pure
// derivation of RecognitionResult.Text and is never mutated after creation.
// Amounts are sorted by the parser's fixed keyword-priority table.
type CandidateSet struct {
	Dates          []string
	InvoiceNumbers []string
	Amounts        []AmountCandidate
	Currencies     []string
	VendorNames    []string
}

// BestAmount returns the highest-priority amount candidate.
func (c *CandidateSet) BestAmount() (AmountCandidate, bool) {
	if len(c.Amounts) == 0 {
		return AmountCandidate{}, false
	}
	return c.Amounts[0], true
}

// BestCurrency prefers the tenant's home currency when several codes were
// seen; with exactly one observation it is returned as-is.
func (c *CandidateSet) BestCurrency(homeCurrency string) (string, bool) {
	switch len(c.Currencies) {
	case 0:
		return "", false
	case 1:
		return c.Currencies[0], true
	}
	for _, cur := range c.Currencies {
		if cur == homeCurrency {
			return cur, true
		}
	}
	return c.Currencies[0], true
}

// BestDate returns the first date encountered in the document.
func (c *CandidateSet) BestDate() (string, bool) {
	if len(c.Dates) == 0 {
		return "", false
	}
	return c.Dates[0], true
}
