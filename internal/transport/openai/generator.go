package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

// Generator produces conversational replies via the chat completions API.
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:    newClient(cfg),
		model:     cfg.ChatModel,
		maxTokens: cfg.MaxReplyTokens,
		logger:    cfg.Logger,
	}
}

// Generate implements domain.Generator. The conversation window is sent
// oldest first; extraContext (retrieved records) is appended as a trailing
// system message so the model grounds its reply in it.
func (g *Generator) Generate(ctx context.Context, systemPrompt string, window []domain.Turn, extraContext string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(window)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range window {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	if extraContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Relevant listings for the user's request:\n\n" + extraContext,
		})
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", parseAPIError("generation", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty generation response: %w", domain.ErrBackendCallFailed)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("blank generation response: %w", domain.ErrBackendCallFailed)
	}

	if g.logger != nil {
		g.logger.Debug("chat completion",
			zap.String("model", g.model),
			zap.Int("window", len(window)),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
			zap.Duration("duration", time.Since(start)),
		)
	}

	return reply, nil
}
