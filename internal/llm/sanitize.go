package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractJSONObject locates the first '{' and the last '}' in a raw backend
// response, tolerating surrounding prose and code-fence markers.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

// recordKeys is the full allowed key set of the record object.
var recordKeys = map[string]struct{}{
	"vendorName": {}, "invoiceDate": {}, "totalAmount": {}, "currency": {},
	"invoiceNumber": {}, "vatAmount": {}, "subtotalAmount": {},
	"lineItems": {}, "confidence": {},
}

var numericKeys = []string{"totalAmount", "vatAmount", "subtotalAmount"}

// SanitizeRecordJSON repairs common backend deviations before schema
// validation: unknown keys are dropped, numeric fields sent as strings are
// coerced, empty strings collapse to null, and required keys are ensured.
// Returns the cleaned document and the list of adjustments made.
func SanitizeRecordJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var adjusted []string
	for k := range m {
		if _, ok := recordKeys[k]; !ok {
			delete(m, k)
			adjusted = append(adjusted, k+"(unknown)")
		}
	}

	for _, k := range numericKeys {
		switch t := m[k].(type) {
		case string:
			s := strings.TrimSpace(t)
			if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
				m[k] = f
				adjusted = append(adjusted, k+"(coerced)")
			} else {
				m[k] = nil
				adjusted = append(adjusted, k+"(dropped)")
			}
		}
	}

	for _, k := range []string{"vendorName", "invoiceDate", "currency", "invoiceNumber"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) == "" {
			m[k] = nil
			adjusted = append(adjusted, k+"(empty)")
		}
	}
	if s, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(strings.TrimSpace(s))
	}

	// required keys must exist, even as null
	for _, k := range []string{"vendorName", "invoiceDate", "totalAmount", "currency"} {
		if _, ok := m[k]; !ok {
			m[k] = nil
			adjusted = append(adjusted, k+"(missing)")
		}
	}
	if _, ok := m["lineItems"]; !ok {
		m["lineItems"] = []any{}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, adjusted, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, adjusted, nil
}
