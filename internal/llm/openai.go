package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finbeam/extractor/internal/common"
)

// openAIGenerator speaks the OpenAI-style chat/completions protocol. It also
// serves any compatible gateway via LLM_BASE_URL.
type openAIGenerator struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float32
	httpClient  *http.Client
	logger      *slog.Logger
}

func newOpenAIGenerator(cfg common.LLMConfig, logger *slog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "openai provider requires an API key", common.ErrInvalidInput)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &openAIGenerator{
		model:       model,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: cfg.Temperature,
		httpClient:  &http.Client{},
		logger:      logger,
	}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	body := map[string]any{
		"model":           g.model,
		"temperature":     g.temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages":        messages,
	}
	raw, err := postJSON(ctx, g.httpClient, g.baseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + g.apiKey,
	})
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cc.Choices[0].Message.Content, nil
}

// postJSON sends a JSON body and returns the raw response, mapping non-2xx
// statuses onto HTTPStatusError so the retry classifier can act on them.
func postJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}
	return raw, nil
}

func truncateBody(b []byte) string {
	const max = 2048
	if len(b) > max {
		return string(b[:max]) + "...(truncated)"
	}
	return string(b)
}
