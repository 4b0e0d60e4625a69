package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// EmbedderConfig represents the configuration for an ollama embedding source.
type EmbedderConfig struct {
	Model     string
	BaseURL   string // Ollama server URL
	Dimension int
	RateLimit float64 // requests per second
}

// embeddingClient is the part of the ollama client the embedder uses.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// Embedder looks up token vectors on an ollama server, one token per request.
type Embedder struct {
	config  EmbedderConfig
	client  embeddingClient
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}

	client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return newEmbedder(config, client), nil
}

func newEmbedder(config EmbedderConfig, client embeddingClient) *Embedder {
	if config.RateLimit <= 0 {
		config.RateLimit = 50
	}

	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Dimension returns the configured dimension. Probe checks it against the server.
func (e *Embedder) Dimension() int {
	return e.config.Dimension
}

func (e *Embedder) Vector(ctx context.Context, token string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	embeddings, err := e.client.CreateEmbedding(ctx, []string{token})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	return embeddings[0], nil
}

// ErrDimensionMismatch is returned by Probe when the model's vectors do not
// have the configured dimension.
var ErrDimensionMismatch = errors.New("model dimension does not match configuration")

// Probe embeds a single token and compares the result with the configured
// dimension.
func (e *Embedder) Probe(ctx context.Context) error {
	vector, err := e.Vector(ctx, "probe")
	if err != nil {
		return err
	}
	if len(vector) != e.config.Dimension {
		return fmt.Errorf("%w: %s returns %d, configured %d", ErrDimensionMismatch, e.config.Model, len(vector), e.config.Dimension)
	}
	return nil
}
