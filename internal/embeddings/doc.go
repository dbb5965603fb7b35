// Package embeddings provides dense vector embedding generation via remote
// providers. Two providers are supported: the OpenAI embeddings API and any
// TEI-compatible (text-embeddings-inference) endpoint.
//
// The classifier depends on the Embedder interface only; providers are
// injected at construction time so tests can substitute fakes.
package embeddings
