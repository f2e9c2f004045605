package fx

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/entity"
)

// Converter turns amounts in a document currency into the caller's home
// currency. All failure paths degrade to an identity conversion with a
// warning; Convert never blocks the pipeline on rate availability.
type Converter struct {
	provider RateProvider
	cache    *rateCache
	logger   *slog.Logger
}

func NewConverter(cfg common.FXConfig, provider RateProvider, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Converter{
		provider: provider,
		cache:    newRateCache(ttl, nil),
		logger:   logger,
	}
}

// Convert returns the amount in the target currency plus the rate used. The
// second return value carries a human-readable warning when the conversion
// degraded; empty means a clean conversion.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (entity.ConversionResult, string) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	identity := entity.ConversionResult{
		NormalizedAmount: round2(amount),
		FxRate:           1,
		FxDate:           time.Now().UTC(),
	}
	if from == "" || to == "" || from == to {
		return identity, ""
	}

	table, ok := c.cache.get(from)
	if !ok {
		fetched, err := c.provider.FetchRates(ctx, from)
		if err != nil {
			c.logger.Warn("fx.convert.degraded", "from", from, "to", to, "error", err)
			return identity, "exchange rate unavailable for " + from + "/" + to + "; amount left unconverted"
		}
		c.cache.put(from, fetched)
		table = fetched
	}

	rate, ok := table.Rates[to]
	if !ok || rate <= 0 {
		c.logger.Warn("fx.convert.no_rate", "from", from, "to", to)
		return identity, "no " + from + "/" + to + " rate in provider table; amount left unconverted"
	}

	c.logger.Debug("fx.convert.ok", "from", from, "to", to, "rate", rate)
	return entity.ConversionResult{
		NormalizedAmount: round2(amount * rate),
		FxRate:           rate,
		FxDate:           table.Date,
	}, ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
