package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// A nil Embedder means the capability is absent.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator produces an assistant reply from the system prompt, the bounded
// conversation window and optional retrieval context. A nil Generator means
// the deterministic composer is used instead.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, window []Turn, extraContext string) (string, error)
}

// Translator translates text between languages. A nil Translator means
// localized fields are used untranslated.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// HealthChecker verifies external capability availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
