package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/schema"
)

// fakeEmbedder returns canned vectors. Documents (schema descriptions) get
// orthogonal unit vectors in canonical order; queries are answered from the
// queryVecs map by substring match, defaulting to queryVec.
type fakeEmbedder struct {
	queryVec   []float32
	queryVecs  map[string][]float32
	docsErr    error
	queryErr   error
	docsCalls  int
	queryCalls int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.docsCalls++
	if f.docsErr != nil {
		return nil, f.docsErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, len(texts))
		vec[i] = 1
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	for key, vec := range f.queryVecs {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return f.queryVec, nil
}

func TestClassify_ExactPrototypeMatch(t *testing.T) {
	// With orthogonal unit prototypes, a fragment embedding equal to one
	// prototype must classify as exactly that variant.
	tests := []struct {
		vec  []float32
		want schema.Variant
	}{
		{[]float32{1, 0, 0, 0}, schema.VariantTemporal},
		{[]float32{0, 1, 0, 0}, schema.VariantVenue},
		{[]float32{0, 0, 1, 0}, schema.VariantTeam},
		{[]float32{0, 0, 0, 1}, schema.VariantGeneral},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			c, err := New(&fakeEmbedder{queryVec: tt.vec}, zap.NewNop())
			require.NoError(t, err)

			got, err := c.Classify(context.Background(), "some fragment")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_TieBreaksToCanonicalOrder(t *testing.T) {
	// A fragment equidistant from every prototype resolves to the first
	// variant in canonical order.
	c, err := New(&fakeEmbedder{queryVec: []float32{1, 1, 1, 1}}, zap.NewNop())
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), "completely ambiguous")
	require.NoError(t, err)
	assert.Equal(t, schema.VariantTemporal, got)
}

func TestClassify_EmptyFragmentIsValid(t *testing.T) {
	fake := &fakeEmbedder{queryVec: []float32{0, 0, 1, 0}}
	c, err := New(fake, zap.NewNop())
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, schema.VariantTeam, got)
}

func TestClassify_Deterministic(t *testing.T) {
	fake := &fakeEmbedder{queryVec: []float32{0.2, 0.9, 0.1, 0}}
	c, err := New(fake, zap.NewNop())
	require.NoError(t, err)

	first, err := c.Classify(context.Background(), "capacity at least 500")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := c.Classify(context.Background(), "capacity at least 500")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestClassify_PrototypesComputedOnce(t *testing.T) {
	fake := &fakeEmbedder{queryVec: []float32{1, 0, 0, 0}}
	c, err := New(fake, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Classify(context.Background(), "fragment")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.docsCalls, "schema descriptions should be embedded once")
	assert.Equal(t, 3, fake.queryCalls)
}

func TestClassify_ProviderDownIsUnavailable(t *testing.T) {
	fake := &fakeEmbedder{queryVec: []float32{1, 0, 0, 0}, docsErr: errors.New("connection refused")}
	c, err := New(fake, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "fragment")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	// A prototype failure is not cached: once the provider recovers,
	// classification succeeds.
	fake.docsErr = nil
	got, err := c.Classify(context.Background(), "fragment")
	require.NoError(t, err)
	assert.Equal(t, schema.VariantTemporal, got)
}

func TestClassify_QueryEmbeddingFailure(t *testing.T) {
	fake := &fakeEmbedder{queryErr: errors.New("timeout")}
	c, err := New(fake, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "fragment")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scale invariant", []float32{1, 1}, []float32{10, 10}, 1.0},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, 0.7071},
		{"empty", nil, nil, 0.0},
		{"one empty", []float32{1}, nil, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}
