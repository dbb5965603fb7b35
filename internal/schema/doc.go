// Package schema defines the scheduling constraint taxonomy: the four
// constraint variants (temporal, venue, team, general), their kind
// enumerations, variant-specific parameter payloads, and the variant
// registry used by the classifier and extractor.
//
// Constraints are modeled as a tagged union: Constraint carries a Variant
// discriminant that selects both the valid Kind enumeration and the concrete
// Parameters payload. Adding a variant is a registry change, not a change
// scattered across the pipeline.
package schema
