// Package extraction turns classified text fragments into typed scheduling
// constraints via a generative model with provider-enforced output shapes.
package extraction

import (
	"context"
	"errors"

	"github.com/leaguelab/constraintd/internal/schema"
)

// ErrExtractionFailed indicates one fragment could not be extracted:
// provider timeout or error, malformed response, or an out-of-enum kind.
// The failure is fragment-scoped; sibling fragments proceed.
var ErrExtractionFailed = errors.New("extraction failed")

// Extractor produces a validated constraint of the target variant from a
// text fragment.
type Extractor interface {
	// Extract issues one generative call for the fragment, constraining
	// the output to the variant's schema, and returns a constraint whose
	// kind is guaranteed to lie within the variant's enumeration.
	Extract(ctx context.Context, fragment string, variant schema.Variant) (schema.Constraint, error)
}

// Config holds provider configuration for the extractor.
type Config struct {
	// Provider is the provider type; currently only "openai".
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `json:"timeout,omitempty"`
	// MaxRetries bounds retries for transient provider failures.
	MaxRetries int `json:"max_retries,omitempty"`
}

// systemInstruction is the fixed extraction instruction sent with every
// fragment.
const systemInstruction = "You are an expert at structured data extraction. " +
	"You will be given unstructured text and should convert it into the given structure."
