package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordJSONSchema returns the draft 2020-12 schema the backend output
// must satisfy. Kept as a generic map so it can also be embedded in prompts.
func BuildRecordJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableNumber := map[string]any{"type": []string{"number", "null"}}

	confidenceProp := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"vendorName":  scoreProp(),
			"invoiceDate": scoreProp(),
			"totalAmount": scoreProp(),
			"currency":    scoreProp(),
		},
	}
	lineItemProp := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    nullableNumber,
			"unitPrice":   nullableNumber,
			"amount":      nullableNumber,
		},
		"required":             []string{"description"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"vendorName":     nullableString,
			"invoiceDate":    map[string]any{"type": []string{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"totalAmount":    nullableNumber,
			"currency":       map[string]any{"type": []string{"string", "null"}, "minLength": 3, "maxLength": 3},
			"invoiceNumber":  nullableString,
			"vatAmount":      nullableNumber,
			"subtotalAmount": nullableNumber,
			"lineItems":      map[string]any{"type": "array", "items": lineItemProp},
			"confidence":     confidenceProp,
		},
		"required":             []string{"vendorName", "invoiceDate", "totalAmount", "currency"},
		"additionalProperties": false,
	}
}

func scoreProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
