package schema

// RestrictionLevel expresses how strongly a constraint restricts the
// schedule, from hard prohibition to soft preference.
type RestrictionLevel string

// Restriction levels, from the original taxonomy. RestrictionDefault means
// the level was not stated.
const (
	RestrictionDefault   RestrictionLevel = "Default"
	RestrictionMustNot   RestrictionLevel = "MustNot"
	RestrictionPreferNot RestrictionLevel = "PreferNot"
	RestrictionPrefer    RestrictionLevel = "Prefer"
	RestrictionMust      RestrictionLevel = "Must"
)

// DateRange bounds a scheduling period. Dates are YYYY-MM-DD strings.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// MaxConsecutiveGames limits runs of home or away games.
type MaxConsecutiveGames struct {
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Parameters is the variant-specific payload of a constraint. Exactly one
// concrete type exists per variant; the Constraint's Variant discriminant
// selects which one.
type Parameters interface {
	// Variant returns the variant this payload belongs to.
	Variant() Variant
	// Empty reports whether no parameter field was populated.
	Empty() bool
}

// TemporalParameters carries timing-related parameters: rest days, allowed
// weekdays, date windows, back-to-back permission.
type TemporalParameters struct {
	RestrictionValue RestrictionLevel `json:"restriction_value,omitempty"`
	BackToBack       *bool            `json:"back_to_back,omitempty"`
	RestDays         *int             `json:"rest_days,omitempty"`
	DaysOfWeek       []string         `json:"days_of_week,omitempty"`
	DateRange        *DateRange       `json:"date_range,omitempty"`
}

func (p *TemporalParameters) Variant() Variant { return VariantTemporal }

func (p *TemporalParameters) Empty() bool {
	return p == nil || (emptyRestriction(p.RestrictionValue) && p.BackToBack == nil &&
		p.RestDays == nil && len(p.DaysOfWeek) == 0 && p.DateRange == nil)
}

// VenueParameters carries venue-related parameters: capacity, travel
// distance, availability, consecutive home/away limits.
type VenueParameters struct {
	RestrictionValue    RestrictionLevel     `json:"restriction_value,omitempty"`
	MaxConsecutiveGames *MaxConsecutiveGames `json:"max_consecutive_games,omitempty"`
	MaxTravelDistance   *float64             `json:"max_travel_distance,omitempty"`
	VenueAvailability   []string             `json:"venue_availability,omitempty"`
	VenueCapacity       *int                 `json:"venue_capacity,omitempty"`
}

func (p *VenueParameters) Variant() Variant { return VariantVenue }

func (p *VenueParameters) Empty() bool {
	return p == nil || (emptyRestriction(p.RestrictionValue) && p.MaxConsecutiveGames == nil &&
		p.MaxTravelDistance == nil && len(p.VenueAvailability) == 0 && p.VenueCapacity == nil)
}

// TeamParameters carries team-related parameters: preferences, rivalries,
// competitive balance rules, availability.
type TeamParameters struct {
	RestrictionValue   RestrictionLevel `json:"restriction_value,omitempty"`
	TeamPreferences    map[string]any   `json:"team_preferences,omitempty"`
	Rivalries          []string         `json:"rivalries,omitempty"`
	CompetitiveBalance map[string]any   `json:"competitive_balance,omitempty"`
	TeamAvailability   map[string]any   `json:"team_availability,omitempty"`
}

func (p *TeamParameters) Variant() Variant { return VariantTeam }

func (p *TeamParameters) Empty() bool {
	return p == nil || (emptyRestriction(p.RestrictionValue) && len(p.TeamPreferences) == 0 &&
		len(p.Rivalries) == 0 && len(p.CompetitiveBalance) == 0 && len(p.TeamAvailability) == 0)
}

// GeneralParameters carries league-wide parameters: game frequency limits
// and season structure.
type GeneralParameters struct {
	RestrictionValue       RestrictionLevel `json:"restriction_value,omitempty"`
	GameFrequencyLimit     *int             `json:"game_frequency_limit,omitempty"`
	GameFrequencyTimeframe string           `json:"game_frequency_timeframe,omitempty"`
	SeasonStructure        string           `json:"season_structure,omitempty"`
}

func (p *GeneralParameters) Variant() Variant { return VariantGeneral }

func (p *GeneralParameters) Empty() bool {
	return p == nil || (emptyRestriction(p.RestrictionValue) && p.GameFrequencyLimit == nil &&
		p.GameFrequencyTimeframe == "" && p.SeasonStructure == "")
}

// emptyRestriction treats both absent and the Default sentinel as unset.
func emptyRestriction(r RestrictionLevel) bool {
	return r == "" || r == RestrictionDefault
}

var (
	_ Parameters = (*TemporalParameters)(nil)
	_ Parameters = (*VenueParameters)(nil)
	_ Parameters = (*TeamParameters)(nil)
	_ Parameters = (*GeneralParameters)(nil)
)
