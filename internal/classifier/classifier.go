// Package classifier maps free-text fragments to constraint variants using
// vector similarity against the variants' canonical schema descriptions.
//
// The schema descriptions act as zero-shot category prototypes: adding a
// variant to the schema registry extends the classifier with no training
// and no code change here.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/embeddings"
	"github.com/leaguelab/constraintd/internal/schema"
)

// ErrUnavailable indicates the embedding provider could not be reached.
// This is a retryable infrastructure fault, not a semantic ambiguity.
var ErrUnavailable = errors.New("classification unavailable")

// Classifier assigns constraint variants to text fragments.
type Classifier struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
	metrics  *Metrics

	// Prototype embeddings are computed once via a single batch call and
	// reused for every classification. Failures are not cached: the next
	// request retries the computation.
	protoMu  sync.Mutex
	protos   [][]float32
	variants []schema.Variant
}

// New creates a classifier backed by the given embedder.
func New(embedder embeddings.Embedder, logger *zap.Logger) (*Classifier, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		embedder: embedder,
		logger:   logger,
		metrics:  NewMetrics(logger),
		variants: schema.Variants(),
	}, nil
}

// Classify returns the variant whose schema description is most similar to
// the fragment. Ties go to the earlier variant in canonical order, so the
// result is deterministic for a fixed embedder.
//
// The empty fragment is a valid input. Embedding provider failures are
// reported as ErrUnavailable.
func (c *Classifier) Classify(ctx context.Context, fragment string) (schema.Variant, error) {
	start := time.Now()

	variant, err := c.classify(ctx, fragment)
	c.metrics.RecordClassification(ctx, variant, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return variant, nil
}

func (c *Classifier) classify(ctx context.Context, fragment string) (schema.Variant, error) {
	protos, err := c.prototypes(ctx)
	if err != nil {
		return "", err
	}

	fragVec, err := c.embedder.EmbedQuery(ctx, fragment)
	if err != nil {
		return "", fmt.Errorf("%w: embedding fragment: %v", ErrUnavailable, err)
	}

	best := 0
	bestScore := math.Inf(-1)
	for i, proto := range protos {
		// Strictly greater: the first variant in canonical order wins
		// ties.
		if score := CosineSimilarity(fragVec, proto); score > bestScore {
			best = i
			bestScore = score
		}
	}

	c.logger.Debug("classified fragment",
		zap.String("variant", string(c.variants[best])),
		zap.Float64("similarity", bestScore))

	return c.variants[best], nil
}

// prototypes returns the cached schema-description embeddings, computing
// them on first use with one batch call. A provider failure is returned but
// not cached, so a later request retries.
func (c *Classifier) prototypes(ctx context.Context) ([][]float32, error) {
	c.protoMu.Lock()
	defer c.protoMu.Unlock()

	if c.protos != nil {
		return c.protos, nil
	}

	descriptions := schema.Descriptions()
	vectors, err := c.embedder.EmbedDocuments(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding schema descriptions: %v", ErrUnavailable, err)
	}
	if len(vectors) != len(descriptions) {
		return nil, fmt.Errorf("%w: got %d prototype vectors for %d descriptions", ErrUnavailable, len(vectors), len(descriptions))
	}

	c.protos = vectors
	c.logger.Info("schema prototypes embedded", zap.Int("count", len(vectors)))
	return c.protos, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors:
// (a · b) / (|a| |b|). Returns 0 for empty, mismatched, or zero-magnitude
// inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
