package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finbeam/extractor/internal/common"
)

// frankfurterProvider uses api.frankfurter.dev, which serves ECB reference
// rates. Also keyless, but the rate set is narrower than open.er-api.
type frankfurterProvider struct {
	baseURL    string
	httpClient *http.Client
}

func newFrankfurterProvider(cfg common.FXConfig) RateProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &frankfurterProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *frankfurterProvider) FetchRates(ctx context.Context, base string) (*RateTable, error) {
	url := fmt.Sprintf("%s/latest?base=%s", p.baseURL, strings.ToUpper(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rates endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Base  string             `json:"base"`
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates endpoint returned no rates for %s", base)
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		date = time.Now().UTC()
	}
	// The base itself is never in the response table; add it so lookups are
	// uniform.
	payload.Rates[strings.ToUpper(payload.Base)] = 1
	return &RateTable{Base: strings.ToUpper(payload.Base), Date: date, Rates: payload.Rates}, nil
}
