package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

func TestAggregateChunkMeans(t *testing.T) {
	aggregates, err := AggregateChunk(map[string][]float64{
		"siren":  {0.2, 0.4, 0.6},
		"engine": {1.0},
	})
	require.NoError(t, err)
	require.Len(t, aggregates, 2)
	assert.InDelta(t, 0.4, aggregates["siren"], 1e-12)
	assert.InDelta(t, 1.0, aggregates["engine"], 1e-12)
}

func TestAggregateChunkInvalidInput(t *testing.T) {
	_, err := AggregateChunk(nil)
	assert.True(t, common.IsInvalidInput(err))

	_, err = AggregateChunk(map[string][]float64{})
	assert.True(t, common.IsInvalidInput(err))

	_, err = AggregateChunk(map[string][]float64{"siren": {}})
	require.Error(t, err)
	assert.True(t, common.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "siren")
}

func TestAggregateChunksMeansAcrossChunks(t *testing.T) {
	aggregates, err := AggregateChunks([]map[string]float64{
		{"siren": 0.2, "engine": 0.9},
		{"siren": 0.6, "engine": 0.1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, aggregates["siren"], 1e-12)
	assert.InDelta(t, 0.5, aggregates["engine"], 1e-12)
}

func TestAggregateChunksSingleChunkPassesThrough(t *testing.T) {
	aggregates, err := AggregateChunks([]map[string]float64{
		{"siren": 0.75},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, aggregates["siren"], 1e-12)
}

func TestAggregateChunksInvalidInput(t *testing.T) {
	_, err := AggregateChunks(nil)
	assert.True(t, common.IsInvalidInput(err))

	_, err = AggregateChunks([]map[string]float64{})
	assert.True(t, common.IsInvalidInput(err))

	// Label count mismatch between chunks.
	_, err = AggregateChunks([]map[string]float64{
		{"siren": 0.2, "engine": 0.9},
		{"siren": 0.6},
	})
	assert.True(t, common.IsInvalidInput(err))

	// Same count, different labels.
	_, err = AggregateChunks([]map[string]float64{
		{"siren": 0.2},
		{"engine": 0.6},
	})
	assert.True(t, common.IsInvalidInput(err))
}

func TestRound(t *testing.T) {
	tests := []struct {
		value    float64
		places   int
		expected float64
	}{
		{0.54571428, 4, 0.5457},
		{0.12345, 4, 0.1235},
		{0.5, 0, 1},
		{-0.5, 0, -1},
		{1.005, 2, 1.0},
		{0.25, 1, 0.3},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, Round(tt.value, tt.places), 1e-12,
			"Round(%v, %d)", tt.value, tt.places)
	}
}

func TestRoundSeries(t *testing.T) {
	rounded := RoundSeries([]float64{0.11119, 0.99996}, 4)
	assert.InDelta(t, 0.1112, rounded[0], 1e-12)
	assert.InDelta(t, 1.0, rounded[1], 1e-12)

	assert.Empty(t, RoundSeries(nil, 4))
}
