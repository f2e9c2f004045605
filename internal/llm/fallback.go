package llm

import (
	"regexp"

	"github.com/finbeam/extractor/internal/entity"
	"github.com/finbeam/extractor/internal/parse"
)

// Last-resort scans used only when the deterministic candidate set is empty
// for a field the fallback record still needs.
var (
	reAnyMoney = regexp.MustCompile(`\d+[.,]\d{2}\b`)
	reAnyDate  = regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
)

// fallback synthesizes a record from deterministic hints alone. Every field
// sourced this way carries the degraded confidence and a fallback warning.
func (o *Orchestrator) fallback(text string, candidates *entity.CandidateSet, homeCurrency string) *entity.ExtractedRecord {
	record := entity.NewExtractedRecord()
	record.Warn("generation backend unavailable; fields extracted by fallback rules")
	if candidates == nil {
		candidates = &entity.CandidateSet{}
	}

	if amt, ok := candidates.BestAmount(); ok {
		v := amt.Value
		record.TotalAmount = &v
		record.Confidence[entity.FieldTotalAmount] = degradedConfidence
	} else if m := reAnyMoney.FindString(text); m != "" {
		if v, ok := parse.ParseMoney(m); ok && v > 0 {
			record.TotalAmount = &v
			record.Confidence[entity.FieldTotalAmount] = degradedConfidence
		}
	}

	if cur, ok := candidates.BestCurrency(homeCurrency); ok {
		record.Currency = &cur
		record.Confidence[entity.FieldCurrency] = degradedConfidence
	}

	rawDate, ok := candidates.BestDate()
	if !ok {
		rawDate = reAnyDate.FindString(text)
	}
	if rawDate != "" {
		if iso, ok := parse.NormalizeDate(rawDate); ok {
			record.InvoiceDate = &iso
			record.Confidence[entity.FieldInvoiceDate] = degradedConfidence
		}
	}

	if len(candidates.VendorNames) > 0 {
		name := candidates.VendorNames[0]
		record.VendorName = &name
		record.Confidence[entity.FieldVendorName] = degradedConfidence
	}
	if len(candidates.InvoiceNumbers) > 0 {
		num := candidates.InvoiceNumbers[0]
		record.InvoiceNumber = &num
	}
	return record
}
