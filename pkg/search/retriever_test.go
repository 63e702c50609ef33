package search

import (
	"testing"

	"docsearch-console/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []model.DocumentChunk{
	{DocumentId: "contract", ChunkIndex: 0, Content: "The contract renews automatically every year unless cancelled."},
	{DocumentId: "contract", ChunkIndex: 1, Content: "Termination requires thirty days written notice."},
	{DocumentId: "handbook", ChunkIndex: 0, Content: "Employees accrue vacation days every month."},
}

func TestDetermineStrategy(t *testing.T) {
	tests := []struct {
		query string
		want  Strategy
	}{
		{query: "how does renewal work", want: StrategyTerms},
		{query: "RGB", want: StrategyLiteral},
		{query: "\"written notice\"", want: StrategyLiteral},
		{query: "key=value", want: StrategyLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineStrategy(tt.query))
		})
	}
}

func TestParseQuery(t *testing.T) {
	f := ParseQuery("what about /doc:contract renewal")
	assert.Equal(t, "contract", f.DocumentID)
	assert.Equal(t, "what about renewal", f.Query)
}

func TestRetrieverRanksByTermOverlap(t *testing.T) {
	r := NewRetriever(corpus)

	hits := r.Search("days of vacation every month", 3)

	require.NotEmpty(t, hits)
	assert.Equal(t, "handbook", hits[0].Chunk.DocumentId)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestRetrieverHonoursFiltersAndLimits(t *testing.T) {
	r := NewRetriever(corpus)

	hits := r.Search("/doc:contract days every", 5)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "contract", h.Chunk.DocumentId)
	}

	assert.Len(t, r.Search("days every", 1), 1)
	assert.Empty(t, r.Search("quantum chromodynamics", 3))
	assert.Empty(t, r.Search("   ", 3))
}

func TestRetrieverLiteralPhrase(t *testing.T) {
	hits := NewRetriever(corpus).Search("\"written notice\"", 3)

	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Chunk.ChunkIndex)
	assert.Equal(t, 1.0, hits[0].Score)
}
