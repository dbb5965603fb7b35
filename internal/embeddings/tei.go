package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTEIBaseURL = "http://localhost:8080"

// teiEmbedder calls a text-embeddings-inference compatible /embed endpoint.
// Useful for self-hosted embedding models.
type teiEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	metrics *Metrics
}

func newTEIEmbedder(cfg Config) (*teiEmbedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTEIBaseURL
	}
	return &teiEmbedder{
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 30 * time.Second},
		metrics: NewMetrics(nil),
	}, nil
}

// teiRequest is the request body for the TEI embed endpoint.
type teiRequest struct {
	Inputs   any  `json:"inputs"`
	Truncate bool `json:"truncate"`
}

// EmbedDocuments generates embeddings for multiple texts in one batch call.
func (e *teiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		e.metrics.RecordGeneration(ctx, e.model, "embed_documents", time.Since(start), len(texts), genErr)
	}()

	if len(texts) == 0 {
		genErr = fmt.Errorf("%w: no texts", ErrInvalidConfig)
		return nil, genErr
	}

	vectors, err := e.embed(ctx, texts)
	if err != nil {
		genErr = err
	}
	return vectors, genErr
}

// EmbedQuery generates an embedding for a single text. The empty string is
// a valid input.
func (e *teiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		e.metrics.RecordGeneration(ctx, e.model, "embed_query", time.Since(start), 1, genErr)
	}()

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		genErr = err
		return nil, genErr
	}
	if len(vectors) == 0 {
		genErr = fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
		return nil, genErr
	}
	return vectors[0], nil
}

func (e *teiEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return vectors, nil
}

var _ Embedder = (*teiEmbedder)(nil)
