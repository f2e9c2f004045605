package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Role1776/gigago"

	"github.com/finbeam/extractor/internal/common"
)

// gigaChatGenerator wraps the Sber GigaChat SDK. System prompts ride on the
// model's SystemInstruction field; the SDK only accepts user messages in the
// request body.
type gigaChatGenerator struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *slog.Logger
}

func newGigaChatGenerator(cfg common.LLMConfig, logger *slog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "gigachat provider requires an API key", common.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := gigago.NewClient(context.Background(), cfg.APIKey)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "create gigachat client", err)
	}

	name := cfg.Model
	if name == "" {
		name = "GigaChat"
	}
	model := client.GenerativeModel(name)
	model.Temperature = float64(cfg.Temperature)

	return &gigaChatGenerator{client: client, model: model, logger: logger}, nil
}

func (g *gigaChatGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	var system []string
	var user []gigago.Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		user = append(user, gigago.Message{Role: gigago.RoleUser, Content: m.Content})
	}
	g.model.SystemInstruction = strings.Join(system, "\n\n")

	resp, err := g.model.Generate(ctx, user)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
