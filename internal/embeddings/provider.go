package embeddings

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the provider could not be reached or
	// returned an error. Callers should treat this as a retryable
	// infrastructure fault.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder generates dense vector embeddings from text.
//
// The empty string is a valid input: degenerate fragments still embed and
// still classify. Implementations must not reject it.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts in one
	// batch call. Returns one vector per input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Provider is the provider type: "openai" or "tei".
	Provider string
	// BaseURL is the provider endpoint. Defaults depend on the provider.
	BaseURL string
	// Model is the embedding model name.
	Model string
	// APIKey authenticates against the provider (unused for plain TEI).
	APIKey string
}

// NewProvider creates an embedding provider from configuration.
func NewProvider(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIEmbedder(cfg)
	case "tei":
		return newTEIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
