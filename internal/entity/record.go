package entity

// FieldVendorName and friends name the four fields that carry a confidence score.
const (
	FieldVendorName  = "vendorName"
	FieldInvoiceDate = "invoiceDate"
	FieldTotalAmount = "totalAmount"
	FieldCurrency    = "currency"
)

// ConfidenceFields lists the required confidence keys in contract order.
var ConfidenceFields = []string{FieldVendorName, FieldInvoiceDate, FieldTotalAmount, FieldCurrency}

// LineItem is a single itemized row from the document body.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

// ExtractedRecord is the primary output contract of the pipeline.
// The JSON shape is consumed bit-exact by downstream persistence.
type ExtractedRecord struct {
	VendorName     *string            `json:"vendorName"`
	InvoiceDate    *string            `json:"invoiceDate"` // YYYY-MM-DD
	TotalAmount    *float64           `json:"totalAmount"`
	Currency       *string            `json:"currency"` // 3-letter ISO 4217
	InvoiceNumber  *string            `json:"invoiceNumber"`
	VATAmount      *float64           `json:"vatAmount"`
	SubtotalAmount *float64           `json:"subtotalAmount"`
	LineItems      []LineItem         `json:"lineItems"`
	Confidence     map[string]float64 `json:"confidence"`
	Warnings       []string           `json:"warnings"`
}

// NewExtractedRecord returns an empty record with the confidence map and
// slices initialized, so the JSON contract never emits null for them.
func NewExtractedRecord() *ExtractedRecord {
	return &ExtractedRecord{
		LineItems:  []LineItem{},
		Confidence: map[string]float64{},
		Warnings:   []string{},
	}
}

// Warn appends a warning, keeping insertion order.
func (r *ExtractedRecord) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ValidationOutcome is the data-carrying result of the validation gate.
// It is never an error: needsReview plus warnings communicate uncertainty.
type ValidationOutcome struct {
	NeedsReview bool     `json:"needsReview"`
	Warnings    []string `json:"warnings"`
}
