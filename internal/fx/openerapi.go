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

// openERAPIProvider uses open.er-api.com, a keyless daily-rate source. It is
// the default because it needs no credentials to run.
type openERAPIProvider struct {
	baseURL    string
	httpClient *http.Client
}

func newOpenERAPIProvider(cfg common.FXConfig) RateProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://open.er-api.com/v6"
	}
	return &openERAPIProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *openERAPIProvider) FetchRates(ctx context.Context, base string) (*RateTable, error) {
	url := fmt.Sprintf("%s/latest/%s", p.baseURL, strings.ToUpper(base))
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
		Result         string             `json:"result"`
		BaseCode       string             `json:"base_code"`
		TimeLastUpdate int64              `json:"time_last_update_unix"`
		Rates          map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if payload.Result != "success" || len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates endpoint reported %q", payload.Result)
	}

	date := time.Unix(payload.TimeLastUpdate, 0).UTC()
	if payload.TimeLastUpdate == 0 {
		date = time.Now().UTC()
	}
	return &RateTable{Base: payload.BaseCode, Date: date, Rates: payload.Rates}, nil
}
