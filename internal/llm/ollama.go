package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finbeam/extractor/internal/common"
)

// ollamaGenerator talks to a local ollama daemon. No credentials; the
// endpoint itself is the configuration.
type ollamaGenerator struct {
	model       string
	baseURL     string
	temperature float32
	httpClient  *http.Client
	logger      *slog.Logger
}

func newOllamaGenerator(cfg common.LLMConfig, logger *slog.Logger) (Generator, error) {
	if cfg.OllamaURL == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "ollama provider requires OLLAMA_URL", common.ErrInvalidInput)
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ollamaGenerator{
		model:       model,
		baseURL:     strings.TrimRight(cfg.OllamaURL, "/"),
		temperature: cfg.Temperature,
		httpClient:  &http.Client{},
		logger:      logger,
	}, nil
}

func (g *ollamaGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	body := map[string]any{
		"model":    g.model,
		"messages": messages,
		"stream":   false,
		"format":   "json",
		"options":  map[string]any{"temperature": g.temperature},
	}
	raw, err := postJSON(ctx, g.httpClient, g.baseURL+"/api/chat", body, nil)
	if err != nil {
		return "", err
	}

	var chat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if chat.Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return chat.Message.Content, nil
}
