package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstraint_Defaults(t *testing.T) {
	for _, v := range Variants() {
		t.Run(string(v), func(t *testing.T) {
			c, err := NewConstraint(v)
			require.NoError(t, err)

			assert.NotEqual(t, uuid.Nil, c.ID)
			assert.Equal(t, v, c.Variant)
			assert.Equal(t, KindDefault, c.Kind)
			assert.Equal(t, PriorityHard, c.Priority)
			assert.InDelta(t, ConfidenceUnscored, c.Confidence, 0)
			assert.NotNil(t, c.Parameters)
			assert.Equal(t, v, c.Parameters.Variant())
			assert.True(t, c.Unclassified())
		})
	}
}

func TestNewConstraint_UnknownVariant(t *testing.T) {
	_, err := NewConstraint(Variant("spatial"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestConstraint_Validate(t *testing.T) {
	restDays := 3
	valid := func() Constraint {
		return Constraint{
			ID:         uuid.New(),
			Variant:    VariantTemporal,
			Kind:       KindRestDays,
			Scope:      []string{"Hawks"},
			Priority:   PriorityHard,
			Confidence: 0.9,
			Parameters: &TemporalParameters{RestDays: &restDays},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Constraint)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Constraint) {}},
		{name: "unscored confidence sentinel is valid", mutate: func(c *Constraint) { c.Confidence = ConfidenceUnscored }},
		{name: "unknown variant", mutate: func(c *Constraint) { c.Variant = "spatial" }, wantErr: true},
		{name: "kind from another variant", mutate: func(c *Constraint) { c.Kind = KindVenueCapacity }, wantErr: true},
		{name: "made-up kind", mutate: func(c *Constraint) { c.Kind = "FullMoonConstraint" }, wantErr: true},
		{name: "bad priority", mutate: func(c *Constraint) { c.Priority = "urgent" }, wantErr: true},
		{name: "confidence above one", mutate: func(c *Constraint) { c.Confidence = 1.5 }, wantErr: true},
		{name: "negative non-sentinel confidence", mutate: func(c *Constraint) { c.Confidence = -0.5 }, wantErr: true},
		{name: "nil parameters", mutate: func(c *Constraint) { c.Parameters = nil }, wantErr: true},
		{name: "parameters from another variant", mutate: func(c *Constraint) { c.Parameters = &VenueParameters{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSchemaValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConstraint_RoundTrip(t *testing.T) {
	restDays := 2
	capacity := 500
	b2b := false

	out := NewStructuredOutput()
	out.Metadata["source"] = "commissioner"

	temporal, err := NewConstraint(VariantTemporal)
	require.NoError(t, err)
	temporal.Kind = KindRestDays
	temporal.Scope = []string{"Hawks", "Wolves"}
	temporal.Confidence = 0.75
	temporal.Parameters = &TemporalParameters{
		RestrictionValue: RestrictionMust,
		RestDays:         &restDays,
		BackToBack:       &b2b,
		DaysOfWeek:       []string{"Saturday", "Sunday"},
		DateRange:        &DateRange{StartDate: "2026-09-01", EndDate: "2026-12-20"},
	}

	venue, err := NewConstraint(VariantVenue)
	require.NoError(t, err)
	venue.Kind = KindVenueCapacity
	venue.Priority = PrioritySoft
	venue.Parameters = &VenueParameters{VenueCapacity: &capacity}

	out.Constraints = append(out.Constraints, temporal, venue)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded StructuredOutput
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, out, decoded)
}

func TestConstraint_UnmarshalDefaults(t *testing.T) {
	// Absent optional fields get defaults: hard priority, unscored
	// confidence, empty scope, zero-valued parameters.
	raw := `{"id":"7b0f9d2e-65a1-4b0b-9d52-67a3f9a1c111","variant":"general","type":"SeasonStructureConstraint"}`

	var c Constraint
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, VariantGeneral, c.Variant)
	assert.Equal(t, KindSeasonStructure, c.Kind)
	assert.Equal(t, PriorityHard, c.Priority)
	assert.InDelta(t, ConfidenceUnscored, c.Confidence, 0)
	assert.Equal(t, []string{}, c.Scope)
	require.IsType(t, &GeneralParameters{}, c.Parameters)
	assert.True(t, c.Parameters.Empty())
}

func TestConstraint_UnmarshalZeroConfidenceIsNotSentinel(t *testing.T) {
	raw := `{"variant":"team","type":"RivalriesConstraint","confidence":0}`

	var c Constraint
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.InDelta(t, 0.0, c.Confidence, 0)
}

func TestConstraint_UnmarshalRejectsOutOfEnumKind(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"kind from sibling variant", `{"variant":"temporal","type":"VenueCapacityConstraint"}`},
		{"invented kind", `{"variant":"venue","type":"ParkingConstraint"}`},
		{"unknown variant", `{"variant":"cosmic","type":"Default"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Constraint
			err := json.Unmarshal([]byte(tt.raw), &c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaValidation))
		})
	}
}

func TestConstraint_Unclassified(t *testing.T) {
	c, err := NewConstraint(VariantTemporal)
	require.NoError(t, err)
	assert.True(t, c.Unclassified())

	// A populated parameter makes it classified even with Default kind.
	rest := 1
	c.Parameters = &TemporalParameters{RestDays: &rest}
	assert.False(t, c.Unclassified())

	// A concrete kind makes it classified even with empty parameters.
	c.Parameters = &TemporalParameters{}
	c.Kind = KindRestDays
	assert.False(t, c.Unclassified())
}

func TestParameters_Empty(t *testing.T) {
	limit := 4
	dist := 250.0

	tests := []struct {
		name   string
		params Parameters
		want   bool
	}{
		{"zero temporal", &TemporalParameters{}, true},
		{"default restriction only", &TemporalParameters{RestrictionValue: RestrictionDefault}, true},
		{"real restriction level", &TemporalParameters{RestrictionValue: RestrictionPreferNot}, false},
		{"zero venue", &VenueParameters{}, true},
		{"venue travel distance", &VenueParameters{MaxTravelDistance: &dist}, false},
		{"zero team", &TeamParameters{}, true},
		{"team rivalries", &TeamParameters{Rivalries: []string{"Hawks-Wolves"}}, false},
		{"zero general", &GeneralParameters{}, true},
		{"general frequency limit", &GeneralParameters{GameFrequencyLimit: &limit}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Empty())
		})
	}
}
