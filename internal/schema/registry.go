package schema

import (
	"encoding/json"
	"fmt"
	"sync"
)

// VariantSpec describes one variant for the rest of the pipeline: its valid
// kinds, a factory for its parameter payload, and the JSON Schema document
// that doubles as the classifier's category prototype and the extractor's
// provider-enforced output shape.
type VariantSpec struct {
	Variant Variant

	kinds     []Kind
	kindSet   map[Kind]struct{}
	newParams func() Parameters
	schemaDoc map[string]any
}

// Kinds returns the valid sub-kinds, sentinel first.
func (s *VariantSpec) Kinds() []Kind {
	out := make([]Kind, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// ValidKind reports whether k belongs to this variant's enumeration.
func (s *VariantSpec) ValidKind(k Kind) bool {
	_, ok := s.kindSet[k]
	return ok
}

// NewParameters returns a zero-valued parameter payload of the variant's
// concrete type.
func (s *VariantSpec) NewParameters() Parameters {
	return s.newParams()
}

// JSONSchema returns the variant's schema document. Callers must not mutate
// the returned map.
func (s *VariantSpec) JSONSchema() map[string]any {
	return s.schemaDoc
}

// Description returns the canonical serialized schema description: the JSON
// Schema document marshaled with two-space indentation. encoding/json emits
// map keys in sorted order, so the output is deterministic and suitable for
// use as an embedding prototype.
func (s *VariantSpec) Description() string {
	b, err := json.MarshalIndent(s.schemaDoc, "", "  ")
	if err != nil {
		// Schema documents are static maps of strings and maps; this
		// cannot fail for them.
		panic(fmt.Sprintf("schema: marshal description for %s: %v", s.Variant, err))
	}
	return string(b)
}

var (
	registryOnce sync.Once
	registry     map[Variant]*VariantSpec
)

func buildRegistry() {
	registry = map[Variant]*VariantSpec{
		VariantTemporal: newVariantSpec(VariantTemporal, temporalKinds,
			func() Parameters { return &TemporalParameters{} },
			"TemporalConstraint",
			"A constraint on when games may be scheduled: rest days between games, back-to-back games, allowed days of the week, or a date range.",
			map[string]any{
				"back_to_back": map[string]any{
					"type":        "boolean",
					"description": "Whether back-to-back games are allowed.",
				},
				"rest_days": map[string]any{
					"type":        "integer",
					"description": "Minimum number of rest days required between games.",
				},
				"days_of_week": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Allowed days of the week for games.",
				},
				"date_range": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start_date": map[string]any{"type": "string", "description": "Start date of the range in YYYY-MM-DD format."},
						"end_date":   map[string]any{"type": "string", "description": "End date of the range in YYYY-MM-DD format."},
					},
					"description": "Date range for scheduling games.",
				},
			}),
		VariantVenue: newVariantSpec(VariantVenue, venueKinds,
			func() Parameters { return &VenueParameters{} },
			"VenueConstraint",
			"A constraint on where games may be played: venue capacity, venue availability, travel distance, or consecutive home and away games.",
			map[string]any{
				"max_consecutive_games": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":  map[string]any{"type": "string", "description": "Type of consecutive games (e.g., home, away)."},
						"limit": map[string]any{"type": "integer", "description": "Maximum number of consecutive games allowed."},
					},
					"description": "Maximum number of consecutive home or away games allowed.",
				},
				"max_travel_distance": map[string]any{
					"type":        "number",
					"description": "Maximum allowed travel distance for teams (in miles).",
				},
				"venue_availability": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "List of available venues or dates for venues.",
				},
				"venue_capacity": map[string]any{
					"type":        "integer",
					"description": "Minimum required venue capacity.",
				},
			}),
		VariantTeam: newVariantSpec(VariantTeam, teamKinds,
			func() Parameters { return &TeamParameters{} },
			"TeamConstraint",
			"A constraint about teams: team preferences, rivalries, competitive balance, or team availability.",
			map[string]any{
				"team_preferences": map[string]any{
					"type":        "object",
					"description": "Preferences for specific teams.",
				},
				"rivalries": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "List of team rivalries to consider.",
				},
				"competitive_balance": map[string]any{
					"type":        "object",
					"description": "Rules to enforce competitive balance, e.g., prevent matchups between specific rankings.",
				},
				"team_availability": map[string]any{
					"type":        "object",
					"description": "Availability information for teams.",
				},
			}),
		VariantGeneral: newVariantSpec(VariantGeneral, generalKinds,
			func() Parameters { return &GeneralParameters{} },
			"GeneralConstraint",
			"A league-wide scheduling constraint: game frequency limits or season structure.",
			map[string]any{
				"game_frequency_limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of games allowed in the specified period.",
				},
				"game_frequency_timeframe": map[string]any{
					"type":        "string",
					"description": "Timeframe for the game frequency limit (e.g., per week, per month).",
				},
				"season_structure": map[string]any{
					"type":        "string",
					"description": "Structure of the season (e.g., regular, playoffs).",
				},
			}),
	}
}

// newVariantSpec assembles a VariantSpec and its JSON Schema document.
// Parameter properties are variant-specific; the envelope fields (type,
// scope, priority, confidence) are shared.
func newVariantSpec(v Variant, kinds []Kind, newParams func() Parameters, title, description string, paramProps map[string]any) *VariantSpec {
	kindSet := make(map[Kind]struct{}, len(kinds))
	kindNames := make([]string, 0, len(kinds))
	for _, k := range kinds {
		kindSet[k] = struct{}{}
		kindNames = append(kindNames, string(k))
	}

	paramProps["restriction_value"] = map[string]any{
		"type": "string",
		"enum": []string{
			string(RestrictionDefault), string(RestrictionMustNot),
			string(RestrictionPreferNot), string(RestrictionPrefer), string(RestrictionMust),
		},
		"description": "Level of restriction for the constraint (e.g., Must, Prefer, etc.).",
	}

	doc := map[string]any{
		"title":       title,
		"description": description,
		"type":        "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"enum":        kindNames,
				"description": "Type of the " + string(v) + " constraint.",
			},
			"scope": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Scope of the constraint: the teams and venues it applies to.",
			},
			"priority": map[string]any{
				"type":        "string",
				"enum":        []string{string(PriorityHard), string(PrioritySoft)},
				"description": "Priority of the constraint (hard or soft).",
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "Confidence level for the constraint.",
			},
			"parameters": map[string]any{
				"type":        "object",
				"properties":  paramProps,
				"description": "Parameters specific to " + string(v) + " constraints.",
			},
		},
		"required":             []string{"type"},
		"additionalProperties": false,
	}

	return &VariantSpec{
		Variant:   v,
		kinds:     kinds,
		kindSet:   kindSet,
		newParams: newParams,
		schemaDoc: doc,
	}
}

// Spec returns the registry entry for a variant.
func Spec(v Variant) (*VariantSpec, error) {
	registryOnce.Do(buildRegistry)
	s, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return s, nil
}

// Descriptions returns the canonical schema descriptions for all variants,
// in canonical order. Index i corresponds to Variants()[i].
func Descriptions() []string {
	variants := Variants()
	out := make([]string, len(variants))
	for i, v := range variants {
		spec, _ := Spec(v)
		out[i] = spec.Description()
	}
	return out
}
