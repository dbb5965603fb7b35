package schema

// Variant identifies one of the constraint categories.
type Variant string

// Constraint variants in canonical order. The order matters: the classifier
// breaks similarity ties by preferring the earlier variant.
const (
	VariantTemporal Variant = "temporal"
	VariantVenue    Variant = "venue"
	VariantTeam     Variant = "team"
	VariantGeneral  Variant = "general"
)

// Variants returns all variants in canonical order.
func Variants() []Variant {
	return []Variant{VariantTemporal, VariantVenue, VariantTeam, VariantGeneral}
}

// Kind is the enumerated sub-kind of a constraint. Each variant has its own
// valid set; KindDefault is the shared "unset" sentinel.
type Kind string

// KindDefault marks a constraint whose sub-kind was never determined.
// A KindDefault constraint with empty parameters is unclassified and must
// never be persisted.
const KindDefault Kind = "Default"

// Temporal constraint kinds.
const (
	KindBackToBack Kind = "BackToBackConstraint"
	KindRestDays   Kind = "RestDaysConstraint"
	KindDaysOfWeek Kind = "DaysOfWeekConstraint"
	KindDateRange  Kind = "DateRangeConstraint"
)

// Venue constraint kinds.
const (
	KindHomeAway             Kind = "HomeAwayConstraint"
	KindTravelConsiderations Kind = "TravelConsiderationsConstraint"
	KindVenueAvailability    Kind = "VenueAvailabilityConstraint"
	KindVenueCapacity        Kind = "VenueCapacityConstraint"
)

// Team constraint kinds.
const (
	KindTeamPreferences    Kind = "TeamPreferencesConstraint"
	KindRivalries          Kind = "RivalriesConstraint"
	KindCompetitiveBalance Kind = "CompetitiveBalanceConstraint"
	KindTeamAvailability   Kind = "TeamAvailabilityConstraint"
)

// General constraint kinds.
const (
	KindGameFrequencyLimit Kind = "GameFrequencyLimitConstraint"
	KindSeasonStructure    Kind = "SeasonStructureConstraint"
)

// temporalKinds, venueKinds, teamKinds, and generalKinds enumerate the valid
// sub-kinds per variant, sentinel first.
var (
	temporalKinds = []Kind{KindDefault, KindBackToBack, KindRestDays, KindDaysOfWeek, KindDateRange}
	venueKinds    = []Kind{KindDefault, KindHomeAway, KindTravelConsiderations, KindVenueAvailability, KindVenueCapacity}
	teamKinds     = []Kind{KindDefault, KindTeamPreferences, KindRivalries, KindCompetitiveBalance, KindTeamAvailability}
	generalKinds  = []Kind{KindDefault, KindGameFrequencyLimit, KindSeasonStructure}
)
