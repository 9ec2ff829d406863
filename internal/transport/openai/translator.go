package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

// Translator translates field text via the chat completions API.
// A low temperature keeps translations deterministic enough for indexing.
type Translator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewTranslator creates an OpenAI-compatible translator.
func NewTranslator(cfg *Config) *Translator {
	return &Translator{
		client: newClient(cfg),
		model:  cfg.ChatModel,
		logger: cfg.Logger,
	}
}

// Translate implements domain.Translator. Returns the translated text only,
// with no commentary, or an error wrapped with domain.ErrBackendCallFailed.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, no explanations.\n\n%s",
		sourceLang, targetLang, text,
	)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", parseAPIError("translation", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty translation response: %w", domain.ErrBackendCallFailed)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
