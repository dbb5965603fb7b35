// Package services wires the constraintd service graph behind a single
// registry so the entrypoint and handlers share one construction path.
package services

import (
	"github.com/leaguelab/constraintd/internal/embeddings"
	"github.com/leaguelab/constraintd/internal/extraction"
	"github.com/leaguelab/constraintd/internal/pipeline"
	"github.com/leaguelab/constraintd/internal/store"
)

// Registry provides access to all constraintd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Embedder() embeddings.Embedder
	Extractor() extraction.Extractor
	Pipeline() *pipeline.Pipeline
	Store() store.Store
}

// Options configures the registry with service instances.
type Options struct {
	Embedder  embeddings.Embedder
	Extractor extraction.Extractor
	Pipeline  *pipeline.Pipeline
	Store     store.Store
}

// registry is the concrete implementation of Registry.
type registry struct {
	embedder  embeddings.Embedder
	extractor extraction.Extractor
	pipeline  *pipeline.Pipeline
	store     store.Store
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		embedder:  opts.Embedder,
		extractor: opts.Extractor,
		pipeline:  opts.Pipeline,
		store:     opts.Store,
	}
}

func (r *registry) Embedder() embeddings.Embedder   { return r.embedder }
func (r *registry) Extractor() extraction.Extractor { return r.extractor }
func (r *registry) Pipeline() *pipeline.Pipeline    { return r.pipeline }
func (r *registry) Store() store.Store              { return r.store }
