package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariants_CanonicalOrder(t *testing.T) {
	assert.Equal(t, []Variant{VariantTemporal, VariantVenue, VariantTeam, VariantGeneral}, Variants())
}

func TestSpec_KindsPerVariant(t *testing.T) {
	tests := []struct {
		variant Variant
		want    []Kind
	}{
		{VariantTemporal, []Kind{KindDefault, KindBackToBack, KindRestDays, KindDaysOfWeek, KindDateRange}},
		{VariantVenue, []Kind{KindDefault, KindHomeAway, KindTravelConsiderations, KindVenueAvailability, KindVenueCapacity}},
		{VariantTeam, []Kind{KindDefault, KindTeamPreferences, KindRivalries, KindCompetitiveBalance, KindTeamAvailability}},
		{VariantGeneral, []Kind{KindDefault, KindGameFrequencyLimit, KindSeasonStructure}},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			spec, err := Spec(tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Kinds())

			for _, k := range tt.want {
				assert.True(t, spec.ValidKind(k), "kind %s should be valid", k)
			}
			assert.False(t, spec.ValidKind("NoSuchConstraint"))
		})
	}
}

func TestSpec_KindsAreDisjointAcrossVariants(t *testing.T) {
	// The sentinel is shared; every concrete kind belongs to exactly one
	// variant.
	seen := map[Kind]Variant{}
	for _, v := range Variants() {
		spec, err := Spec(v)
		require.NoError(t, err)
		for _, k := range spec.Kinds() {
			if k == KindDefault {
				continue
			}
			prev, dup := seen[k]
			assert.False(t, dup, "kind %s in both %s and %s", k, prev, v)
			seen[k] = v
		}
	}
}

func TestDescription_Deterministic(t *testing.T) {
	spec, err := Spec(VariantVenue)
	require.NoError(t, err)

	first := spec.Description()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, spec.Description())
	}
}

func TestDescription_IsCanonicalJSON(t *testing.T) {
	for _, v := range Variants() {
		spec, err := Spec(v)
		require.NoError(t, err)

		desc := spec.Description()
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(desc), &doc), "description must be valid JSON")

		// Kind enum values appear verbatim so the embedding prototype
		// carries the variant's vocabulary.
		for _, k := range spec.Kinds() {
			assert.Contains(t, desc, string(k))
		}
		assert.True(t, strings.Contains(desc, "\n  "), "description should be indented")
	}
}

func TestDescriptions_MatchesVariantOrder(t *testing.T) {
	descs := Descriptions()
	require.Len(t, descs, len(Variants()))

	for i, v := range Variants() {
		spec, err := Spec(v)
		require.NoError(t, err)
		assert.Equal(t, spec.Description(), descs[i])
	}
}

func TestJSONSchema_TypeEnumMatchesKinds(t *testing.T) {
	for _, v := range Variants() {
		spec, err := Spec(v)
		require.NoError(t, err)

		doc := spec.JSONSchema()
		props, ok := doc["properties"].(map[string]any)
		require.True(t, ok)
		typeProp, ok := props["type"].(map[string]any)
		require.True(t, ok)
		enum, ok := typeProp["enum"].([]string)
		require.True(t, ok)

		want := make([]string, 0, len(spec.Kinds()))
		for _, k := range spec.Kinds() {
			want = append(want, string(k))
		}
		assert.Equal(t, want, enum)
	}
}
