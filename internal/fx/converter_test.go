package fx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finbeam/extractor/internal/common"
)

// scriptedProvider serves canned tables and counts fetches.
type scriptedProvider struct {
	table   *RateTable
	err     error
	fetches int
}

func (p *scriptedProvider) FetchRates(_ context.Context, base string) (*RateTable, error) {
	p.fetches++
	if p.err != nil {
		return nil, p.err
	}
	return p.table, nil
}

func testConfig() common.FXConfig {
	return common.FXConfig{Provider: "openerapi", CacheTTL: 12 * time.Hour, Timeout: time.Second}
}

func TestConvertSameCurrency(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("must not be called")}
	c := NewConverter(testConfig(), provider, nil)

	res, warn := c.Convert(context.Background(), 123.45, "USD", "USD")
	if warn != "" {
		t.Fatalf("warning = %q, want none", warn)
	}
	if res.NormalizedAmount != 123.45 || res.FxRate != 1 {
		t.Errorf("Convert() = %+v, want identity", res)
	}
	if provider.fetches != 0 {
		t.Errorf("provider fetched %d times for same-currency conversion", provider.fetches)
	}
}

func TestConvertAppliesRate(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	provider := &scriptedProvider{table: &RateTable{
		Base:  "EUR",
		Date:  date,
		Rates: map[string]float64{"USD": 1.10, "EUR": 1},
	}}
	c := NewConverter(testConfig(), provider, nil)

	res, warn := c.Convert(context.Background(), 100, "EUR", "USD")
	if warn != "" {
		t.Fatalf("warning = %q, want none", warn)
	}
	if res.NormalizedAmount != 110.00 {
		t.Errorf("NormalizedAmount = %v, want 110.00", res.NormalizedAmount)
	}
	if res.FxRate != 1.10 {
		t.Errorf("FxRate = %v, want 1.10", res.FxRate)
	}
	if !res.FxDate.Equal(date) {
		t.Errorf("FxDate = %v, want %v", res.FxDate, date)
	}
}

func TestConvertUsesCacheWithinTTL(t *testing.T) {
	provider := &scriptedProvider{table: &RateTable{
		Base:  "EUR",
		Date:  time.Now().UTC(),
		Rates: map[string]float64{"USD": 1.10},
	}}
	c := NewConverter(testConfig(), provider, nil)

	c.Convert(context.Background(), 100, "EUR", "USD")
	c.Convert(context.Background(), 200, "EUR", "USD")
	if provider.fetches != 1 {
		t.Errorf("provider fetched %d times, want 1 (second read from cache)", provider.fetches)
	}
}

func TestConvertRefetchesAfterTTL(t *testing.T) {
	provider := &scriptedProvider{table: &RateTable{
		Base:  "EUR",
		Date:  time.Now().UTC(),
		Rates: map[string]float64{"USD": 1.10},
	}}
	c := NewConverter(testConfig(), provider, nil)

	now := time.Now()
	c.cache = newRateCache(12*time.Hour, func() time.Time { return now })

	c.Convert(context.Background(), 100, "EUR", "USD")
	now = now.Add(13 * time.Hour) // past TTL, entry evicted on read
	c.Convert(context.Background(), 100, "EUR", "USD")
	if provider.fetches != 2 {
		t.Errorf("provider fetched %d times, want 2 after TTL expiry", provider.fetches)
	}
}

func TestConvertDegradesOnFetchFailure(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	c := NewConverter(testConfig(), provider, nil)

	res, warn := c.Convert(context.Background(), 100, "EUR", "USD")
	if warn == "" {
		t.Fatal("want degradation warning")
	}
	if res.NormalizedAmount != 100 || res.FxRate != 1 {
		t.Errorf("Convert() = %+v, want identity fallback", res)
	}
}

func TestConvertDegradesOnMissingRate(t *testing.T) {
	provider := &scriptedProvider{table: &RateTable{
		Base:  "EUR",
		Date:  time.Now().UTC(),
		Rates: map[string]float64{"GBP": 0.85},
	}}
	c := NewConverter(testConfig(), provider, nil)

	res, warn := c.Convert(context.Background(), 100, "EUR", "USD")
	if warn == "" {
		t.Fatal("want missing-rate warning")
	}
	if res.NormalizedAmount != 100 || res.FxRate != 1 {
		t.Errorf("Convert() = %+v, want identity fallback", res)
	}
}

func TestConvertEmptyCodes(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("must not be called")}
	c := NewConverter(testConfig(), provider, nil)

	res, warn := c.Convert(context.Background(), 42, "", "USD")
	if warn != "" || res.FxRate != 1 || res.NormalizedAmount != 42 {
		t.Errorf("Convert with empty source = %+v, %q; want identity without warning", res, warn)
	}
}

func TestNewRateProviderSelection(t *testing.T) {
	tests := []struct {
		provider      string
		wantOpenERAPI bool
	}{
		{"openerapi", true},
		{"frankfurter", false},
		{"bogus", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testConfig()
			cfg.Provider = tt.provider
			p, err := NewRateProvider(cfg, nil)
			if err != nil {
				t.Fatalf("NewRateProvider(%q) error = %v, want nil", tt.provider, err)
			}
			_, isDefault := p.(*openERAPIProvider)
			if isDefault != tt.wantOpenERAPI {
				t.Errorf("NewRateProvider(%q) = %T, wantOpenERAPI %v", tt.provider, p, tt.wantOpenERAPI)
			}
		})
	}
}
