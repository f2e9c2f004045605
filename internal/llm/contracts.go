// Package llm orchestrates generation-backend-assisted extraction: prompt
// construction from acquired text plus deterministic hints, provider calls
// with retry and backoff, structured-output parsing and validation, and the
// deterministic fallback when every attempt is exhausted.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finbeam/extractor/internal/common"
)

// Role values for generation messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of the ordered prompt sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the uniform backend interface. One concrete type exists per
// configured provider; selection happens once at construction via the
// provider table below, never by runtime type inspection.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// generatorFactory builds a provider client from configuration.
type generatorFactory func(cfg common.LLMConfig, logger *slog.Logger) (Generator, error)

// providerTable is the static strategy table keyed by provider name.
var providerTable = map[string]generatorFactory{
	"openai":   newOpenAIGenerator,
	"ollama":   newOllamaGenerator,
	"gigachat": newGigaChatGenerator,
}

// NewGenerator resolves the configured provider. Unknown providers and
// missing credentials fail fast here; nothing else in this package errors
// for availability reasons.
func NewGenerator(cfg common.LLMConfig, logger *slog.Logger) (Generator, error) {
	factory, ok := providerTable[cfg.Provider]
	if !ok {
		return nil, common.NewAppError("CONFIG_ERROR",
			fmt.Sprintf("unknown generation provider: %q", cfg.Provider), common.ErrInvalidInput)
	}
	return factory(cfg, logger)
}
