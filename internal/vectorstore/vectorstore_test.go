package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/vectorstore"
)

// fakeEmbedder maps known texts to fixed vectors so similarity and MMR
// behavior are deterministic in tests.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func newFixture() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"2+2":     {1, 0, 0},
		"3+3":     {0.9, 0.1, 0},
		"unicorn": {0, 1, 0},
		"query":   {1, 0, 0},
	}}
}

func TestSimilaritySearchRanksByCosine(t *testing.T) {
	emb := newFixture()
	store := vectorstore.New(emb)
	ctx := context.Background()

	_, err := store.AddTexts(ctx, []string{"2+2", "3+3", "unicorn"}, []map[string]any{
		{"output": "4"}, {"output": "6"}, {"output": "n/a"},
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2+2", results[0].Text)
	assert.Equal(t, "3+3", results[1].Text)
}

func TestMMRPrefersDiversityOverPureRelevance(t *testing.T) {
	emb := newFixture()
	store := vectorstore.New(emb)
	ctx := context.Background()

	_, err := store.AddTexts(ctx, []string{"2+2", "3+3", "unicorn"}, nil)
	require.NoError(t, err)

	// Below 0.5 so diversity outweighs relevance; at exactly 0.5 "3+3"
	// and "unicorn" tie at 0 and the earlier, more relevant one wins.
	results, err := store.MaxMarginalRelevanceSearch(ctx, "query", 2, 3, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2+2", results[0].Text)
	assert.Equal(t, "unicorn", results[1].Text)
}
