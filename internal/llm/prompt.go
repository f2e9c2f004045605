package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/finbeam/extractor/internal/entity"
)

// systemContract is the fixed extraction contract. The JSON shape here is the
// exact output contract; field rules mirror the deterministic parser so both
// paths agree on semantics.
const systemContract = `You are a financial document parser. You receive raw text from a receipt or invoice and return ONLY a single JSON object, no prose, no markdown fences.

JSON shape (use null for unknown values, never omit keys):
{
  "vendorName": string|null,
  "invoiceDate": string|null,
  "totalAmount": number|null,
  "currency": string|null,
  "invoiceNumber": string|null,
  "vatAmount": number|null,
  "subtotalAmount": number|null,
  "lineItems": [{"description": string, "quantity": number, "unitPrice": number, "amount": number}],
  "confidence": {"vendorName": number, "invoiceDate": number, "totalAmount": number, "currency": number}
}

Extraction rules:
- vendorName: the issuing business name, usually within the first lines of the document. Never a label like "invoice" or "receipt".
- totalAmount: the final amount payable. Prefer the strongest keyword match ("total to pay", "amount due", "balance due", "grand total", "итого к оплате") over a bare "total". Must be a positive number.
- invoiceDate: the document issue date, normalized to YYYY-MM-DD.
- currency: 3-letter ISO 4217 code, inferred from symbols or script ($ -> USD, € -> EUR, £ -> GBP, ₽ or руб -> RUB).
- vatAmount / subtotalAmount: tax and pre-tax totals when visible, else null.
- lineItems: itemized rows when clearly present, else an empty array.

Confidence calibration, per field, in [0,1]:
- 0.9-1.0: the value is printed verbatim next to an unambiguous label.
- 0.7-0.9: strong evidence with minor ambiguity.
- 0.4-0.7: inferred from context or competing candidates exist.
- below 0.4: weak guess; prefer null with low confidence over fabrication.`

var keywordLineRe = regexp.MustCompile(`(?i)(total|amount|due|balance|tax|vat|date|invoice|receipt|итого|всего|сумма|ндс|дата|счет|счёт|к оплате)`)

// TruncateForBudget keeps the head and tail of an over-budget document
// verbatim (vendor names and totals live there) and injects keyword-matching
// lines from the middle until the budget is spent.
func TruncateForBudget(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	edge := budget * 2 / 5 // 40% head, 40% tail, rest for keyword lines
	// avoid splitting multi-byte runes at the cut points
	headEnd := edge
	for headEnd > 0 && !utf8RuneStart(text[headEnd]) {
		headEnd--
	}
	tailStart := len(text) - edge
	for tailStart < len(text) && !utf8RuneStart(text[tailStart]) {
		tailStart++
	}
	head := text[:headEnd]
	tail := text[tailStart:]

	var picked []string
	remaining := budget - len(head) - len(tail)
	for _, line := range strings.Split(text[headEnd:tailStart], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !keywordLineRe.MatchString(line) {
			continue
		}
		if len(line)+1 > remaining {
			break
		}
		picked = append(picked, line)
		remaining -= len(line) + 1
	}

	var b strings.Builder
	b.WriteString(head)
	if len(picked) > 0 {
		b.WriteString("\n…\n")
		b.WriteString(strings.Join(picked, "\n"))
	}
	b.WriteString("\n…\n")
	b.WriteString(tail)
	return b.String()
}

// BuildMessages assembles the two-part prompt: the fixed system contract and
// a user message with the (budget-truncated) text plus deterministic hints,
// labeled as hints to verify rather than trust.
func BuildMessages(text string, candidates *entity.CandidateSet, homeCurrency string, budget int) []Message {
	var b strings.Builder
	b.WriteString("Document text:\n")
	b.WriteString(TruncateForBudget(text, budget))

	if hints := formatHints(candidates, homeCurrency); hints != "" {
		b.WriteString("\n\nHeuristic pre-scan hints (verify against the text above; do not trust blindly):\n")
		b.WriteString(hints)
	}

	return []Message{
		{Role: RoleSystem, Content: systemContract},
		{Role: RoleUser, Content: b.String()},
	}
}

func formatHints(c *entity.CandidateSet, homeCurrency string) string {
	if c == nil {
		return ""
	}
	var lines []string
	if amt, ok := c.BestAmount(); ok {
		lines = append(lines, fmt.Sprintf("- likely total: %.2f (matched %q near: %s)", amt.Value, amt.Category, strings.TrimSpace(amt.Context)))
	}
	if cur, ok := c.BestCurrency(homeCurrency); ok {
		lines = append(lines, "- likely currency: "+cur)
	}
	if date, ok := c.BestDate(); ok {
		lines = append(lines, "- likely date: "+date)
	}
	if len(c.VendorNames) > 0 {
		n := len(c.VendorNames)
		if n > 3 {
			n = 3
		}
		lines = append(lines, "- vendor name candidates: "+strings.Join(c.VendorNames[:n], " | "))
	}
	if len(c.InvoiceNumbers) > 0 {
		lines = append(lines, "- invoice number candidate: "+c.InvoiceNumbers[0])
	}
	return strings.Join(lines, "\n")
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
