package entity

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is one entry from the tenant's known-vendor list. The list is loaded
// by the caller; this pipeline never touches durable storage.
type Vendor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
}

// VendorMatch is the resolver outcome. IsNew indicates a vendor record was
// created during this run and must be persisted by the caller.
type VendorMatch struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	IsNew bool      `json:"isNew"`
}

// ConversionResult is the currency normalization outcome. A degraded
// conversion carries FxRate 1 with the amount unchanged.
type ConversionResult struct {
	NormalizedAmount float64   `json:"normalizedAmount"`
	FxRate           float64   `json:"fxRate"`
	FxDate           time.Time `json:"fxDate"`
}
