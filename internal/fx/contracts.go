// Package fx normalizes monetary amounts into a home currency using daily
// exchange rates. Rates come from a pluggable HTTP provider behind a TTL
// cache; a fetch failure degrades to an identity conversion rather than
// failing the pipeline.
package fx

import (
	"context"
	"log/slog"
	"time"

	"github.com/finbeam/extractor/internal/common"
)

// RateTable is one provider response: rates quoted against a base currency,
// valid for the given date.
type RateTable struct {
	Base  string
	Date  time.Time
	Rates map[string]float64
}

// RateProvider fetches the current rate table for a base currency.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) (*RateTable, error)
}

type providerFactory func(cfg common.FXConfig) RateProvider

var providerTable = map[string]providerFactory{
	"openerapi":   newOpenERAPIProvider,
	"frankfurter": newFrankfurterProvider,
}

const defaultProvider = "openerapi"

// NewRateProvider resolves the configured rate source. An unrecognized name
// falls back to the keyless default rather than failing.
func NewRateProvider(cfg common.FXConfig, logger *slog.Logger) (RateProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	factory, ok := providerTable[cfg.Provider]
	if !ok {
		logger.Warn("fx.provider.fallback", "configured", cfg.Provider, "using", defaultProvider)
		factory = providerTable[defaultProvider]
	}
	return factory(cfg), nil
}
