// Package pipeline orchestrates one structured-output request: segment the
// conversation, classify and extract each fragment in order, aggregate the
// constraints, and persist the batch.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/classifier"
	"github.com/leaguelab/constraintd/internal/extraction"
	"github.com/leaguelab/constraintd/internal/schema"
	"github.com/leaguelab/constraintd/internal/segment"
	"github.com/leaguelab/constraintd/internal/store"
)

// Classifier assigns a fragment to a constraint variant.
type Classifier interface {
	Classify(ctx context.Context, fragment string) (schema.Variant, error)
}

// Stage names the pipeline stage a fragment failed in.
type Stage string

const (
	StageClassify Stage = "classify"
	StageExtract  Stage = "extract"
)

// Error kinds reported in fragment statuses.
const (
	errKindExtractionFailed = "extraction_failed"
	errKindSchemaValidation = "schema_validation"
	errKindUnclassified     = "unclassified"
)

// FragmentStatus records the outcome of one fragment.
type FragmentStatus struct {
	Index     int    `json:"index"`
	OK        bool   `json:"ok"`
	Variant   string `json:"variant,omitempty"`
	Stage     Stage  `json:"stage,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Result is the outcome of one request. Output holds the aggregated
// constraints in fragment order; Statuses has one entry per fragment.
// PersistenceErr is set when the batch could not be written; the computed
// output is still valid in that case.
type Result struct {
	Output         schema.StructuredOutput
	Statuses       []FragmentStatus
	PersistenceErr error
}

// Failed reports whether any fragment failed.
func (r *Result) Failed() bool {
	for _, s := range r.Statuses {
		if !s.OK {
			return true
		}
	}
	return false
}

// Pipeline wires the segmenter, classifier, extractor, and store.
type Pipeline struct {
	classifier Classifier
	extractor  extraction.Extractor
	store      store.Store
	logger     *zap.Logger
	metrics    *Metrics
}

// New creates a pipeline.
func New(c Classifier, e extraction.Extractor, s store.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier: c,
		extractor:  e,
		store:      s,
		logger:     logger,
		metrics:    NewMetrics(logger),
	}
}

// Process handles one request for one user.
//
// Fragments are processed sequentially in segmenter order. An extraction
// failure is fragment-scoped: the fragment is recorded in Statuses and its
// siblings proceed. Classification unavailability is request-scoped, the
// embedding provider being down fails every fragment alike, so Process
// returns classifier.ErrUnavailable and the caller retries the request.
// Persistence runs once, after all fragments, and a persistence failure is
// surfaced in Result.PersistenceErr without discarding the computed output.
func (p *Pipeline) Process(ctx context.Context, userID string, messages []segment.Message) (*Result, error) {
	start := time.Now()

	fragments, err := segment.Fragments(messages)
	if err != nil {
		p.metrics.RecordRequest(ctx, time.Since(start), "empty_request")
		return nil, err
	}

	result := &Result{
		Output:   schema.NewStructuredOutput(),
		Statuses: make([]FragmentStatus, 0, len(fragments)),
	}

	for i, fragment := range fragments {
		status, constraint := p.processFragment(ctx, i, fragment)
		result.Statuses = append(result.Statuses, status)
		p.metrics.RecordFragment(ctx, status)

		if status.OK {
			result.Output.Constraints = append(result.Output.Constraints, constraint)
			continue
		}
		if status.Stage == StageClassify {
			p.metrics.RecordRequest(ctx, time.Since(start), "classification_unavailable")
			return nil, classifier.ErrUnavailable
		}
	}

	p.annotate(result)

	requestID := uuid.New()
	if err := p.store.SaveOutput(ctx, requestID, userID, result.Output); err != nil {
		p.logger.Error("failed to persist output",
			zap.String("request_id", requestID.String()),
			zap.String("user_id", userID),
			zap.Int("constraints", len(result.Output.Constraints)),
			zap.Error(err))
		result.PersistenceErr = err
		result.Output.Metadata["persistence"] = "failed"
		p.metrics.RecordRequest(ctx, time.Since(start), "persistence_failed")
		return result, nil
	}

	outcome := "ok"
	if result.Failed() {
		outcome = "partial"
	}
	p.metrics.RecordRequest(ctx, time.Since(start), outcome)

	p.logger.Info("request processed",
		zap.String("request_id", requestID.String()),
		zap.String("user_id", userID),
		zap.Int("fragments", len(fragments)),
		zap.Int("constraints", len(result.Output.Constraints)))
	return result, nil
}

func (p *Pipeline) processFragment(ctx context.Context, index int, fragment string) (FragmentStatus, schema.Constraint) {
	status := FragmentStatus{Index: index}

	variant, err := p.classifier.Classify(ctx, fragment)
	if err != nil {
		p.logger.Warn("classification failed",
			zap.Int("fragment", index), zap.Error(err))
		status.Stage = StageClassify
		status.ErrorKind = "classification_unavailable"
		return status, schema.Constraint{}
	}
	status.Variant = string(variant)

	constraint, err := p.extractor.Extract(ctx, fragment, variant)
	if err != nil {
		p.logger.Warn("extraction failed",
			zap.Int("fragment", index),
			zap.String("variant", string(variant)),
			zap.Error(err))
		status.Stage = StageExtract
		status.ErrorKind = errorKind(err)
		return status, schema.Constraint{}
	}

	// A default-kind constraint with no parameters means the model found
	// nothing to extract. It is a failed fragment, never persisted.
	if constraint.Unclassified() {
		status.Stage = StageExtract
		status.ErrorKind = errKindUnclassified
		return status, schema.Constraint{}
	}

	status.OK = true
	return status, constraint
}

// annotate surfaces per-fragment failures in the response metadata so a
// partial result is visible to the caller.
func (p *Pipeline) annotate(result *Result) {
	if !result.Failed() {
		return
	}
	failed := make([]FragmentStatus, 0)
	for _, s := range result.Statuses {
		if !s.OK {
			failed = append(failed, s)
		}
	}
	result.Output.Metadata["failed_fragments"] = failed
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, schema.ErrSchemaValidation):
		return errKindSchemaValidation
	case errors.Is(err, extraction.ErrExtractionFailed):
		return errKindExtractionFailed
	default:
		return errKindExtractionFailed
	}
}
