package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrSchemaValidation indicates a constraint that does not conform to
	// its variant's shape (unknown kind, wrong parameter payload). This is
	// a schema-drift fault, not a transient one.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrUnknownVariant indicates a variant tag outside the registry.
	ErrUnknownVariant = errors.New("unknown constraint variant")
)

// Priority marks a constraint as a hard requirement or a soft preference.
type Priority string

// Priorities. Hard is the default.
const (
	PriorityHard Priority = "hard"
	PrioritySoft Priority = "soft"
)

// ConfidenceUnscored is the sentinel confidence meaning "not computed".
// It is deliberately outside [0,1] and is never clamped; downstream
// consumers must treat it as absent, not as a low score.
const ConfidenceUnscored = -1.0

// Constraint is one extracted scheduling constraint. It is a tagged union:
// Variant selects the valid Kind enumeration and the concrete Parameters
// payload.
type Constraint struct {
	// ID is assigned at creation and never changes.
	ID uuid.UUID `json:"id"`

	// Variant is the union discriminant.
	Variant Variant `json:"variant"`

	// Kind is the sub-kind within the variant's enumeration.
	Kind Kind `json:"type"`

	// Scope names the teams and venues the constraint applies to.
	// Order carries no meaning. May be empty.
	Scope []string `json:"scope"`

	// Priority is hard or soft. Defaults to hard.
	Priority Priority `json:"priority"`

	// Confidence is the extraction certainty in [0,1], or
	// ConfidenceUnscored when not computed.
	Confidence float64 `json:"confidence"`

	// Parameters is the variant-specific payload. Never nil after
	// NewConstraint or a successful unmarshal.
	Parameters Parameters `json:"parameters"`
}

// NewConstraint creates a constraint of the given variant with a fresh ID
// and all defaults applied: Default kind, hard priority, unscored
// confidence, empty parameters of the variant's concrete type.
func NewConstraint(v Variant) (Constraint, error) {
	spec, err := Spec(v)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		ID:         uuid.New(),
		Variant:    v,
		Kind:       KindDefault,
		Scope:      []string{},
		Priority:   PriorityHard,
		Confidence: ConfidenceUnscored,
		Parameters: spec.NewParameters(),
	}, nil
}

// Validate checks the constraint against its variant's shape.
// It does not coerce: any mismatch is an error wrapping ErrSchemaValidation.
func (c *Constraint) Validate() error {
	spec, err := Spec(c.Variant)
	if err != nil {
		return fmt.Errorf("%w: variant %q", ErrSchemaValidation, c.Variant)
	}
	if !spec.ValidKind(c.Kind) {
		return fmt.Errorf("%w: kind %q is not valid for variant %q", ErrSchemaValidation, c.Kind, c.Variant)
	}
	if c.Priority != PriorityHard && c.Priority != PrioritySoft {
		return fmt.Errorf("%w: priority %q must be hard or soft", ErrSchemaValidation, c.Priority)
	}
	if c.Confidence != ConfidenceUnscored && (c.Confidence < 0 || c.Confidence > 1) {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrSchemaValidation, c.Confidence)
	}
	if c.Parameters == nil {
		return fmt.Errorf("%w: nil parameters", ErrSchemaValidation)
	}
	if c.Parameters.Variant() != c.Variant {
		return fmt.Errorf("%w: %s parameters on %s constraint", ErrSchemaValidation, c.Parameters.Variant(), c.Variant)
	}
	return nil
}

// Unclassified reports whether the constraint carries no information:
// Default kind and an empty parameter payload. Unclassified constraints
// must never appear in a persisted StructuredOutput.
func (c *Constraint) Unclassified() bool {
	return c.Kind == KindDefault && (c.Parameters == nil || c.Parameters.Empty())
}

// constraintEnvelope is the wire form of Constraint. Parameters stay raw
// until the variant is known; Confidence is a pointer so absence can be
// distinguished from zero.
type constraintEnvelope struct {
	ID         uuid.UUID       `json:"id"`
	Variant    Variant         `json:"variant"`
	Kind       Kind            `json:"type"`
	Scope      []string        `json:"scope"`
	Priority   Priority        `json:"priority"`
	Confidence *float64        `json:"confidence"`
	Parameters json.RawMessage `json:"parameters"`
}

// UnmarshalJSON decodes a constraint, selecting the parameter payload type
// from the variant discriminant and applying defaults for absent optional
// fields. Unknown kinds fail with ErrSchemaValidation rather than being
// coerced.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var env constraintEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	spec, err := Spec(env.Variant)
	if err != nil {
		return fmt.Errorf("%w: variant %q", ErrSchemaValidation, env.Variant)
	}

	kind := env.Kind
	if kind == "" {
		kind = KindDefault
	}
	if !spec.ValidKind(kind) {
		return fmt.Errorf("%w: kind %q is not valid for variant %q", ErrSchemaValidation, kind, env.Variant)
	}

	params := spec.NewParameters()
	if len(env.Parameters) > 0 && string(env.Parameters) != "null" {
		if err := json.Unmarshal(env.Parameters, params); err != nil {
			return fmt.Errorf("%w: parameters for variant %q: %v", ErrSchemaValidation, env.Variant, err)
		}
	}

	priority := env.Priority
	if priority == "" {
		priority = PriorityHard
	}

	confidence := ConfidenceUnscored
	if env.Confidence != nil {
		confidence = *env.Confidence
	}

	scope := env.Scope
	if scope == nil {
		scope = []string{}
	}

	*c = Constraint{
		ID:         env.ID,
		Variant:    env.Variant,
		Kind:       kind,
		Scope:      scope,
		Priority:   priority,
		Confidence: confidence,
		Parameters: params,
	}
	return c.Validate()
}

// StructuredOutput is the aggregate produced for one request: the extracted
// constraints in fragment order plus free-form metadata. It is the unit of
// persistence and the API response body.
type StructuredOutput struct {
	Constraints []Constraint   `json:"constraints"`
	Metadata    map[string]any `json:"metadata"`
}

// NewStructuredOutput returns an empty aggregate with non-nil fields so the
// serialized form always carries both keys.
func NewStructuredOutput() StructuredOutput {
	return StructuredOutput{
		Constraints: []Constraint{},
		Metadata:    map[string]any{},
	}
}
