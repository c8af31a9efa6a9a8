package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

func TestPrepareExactLengthUnchanged(t *testing.T) {
	buffer := []float64{0.1, -0.2, 0.3, -0.4}

	prepared, err := Prepare(buffer, 4)
	require.NoError(t, err)
	assert.Equal(t, buffer, prepared)
}

func TestPrepareTruncatesLongBuffer(t *testing.T) {
	buffer := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	prepared, err := Prepare(buffer, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, prepared)
}

func TestPrepareTilesShortBuffer(t *testing.T) {
	buffer := []float64{0.5, -0.5, 0.25}

	prepared, err := Prepare(buffer, 8)
	require.NoError(t, err)
	require.Len(t, prepared, 8)

	// Every output sample is the source sample at index i mod len(buffer).
	for i, sample := range prepared {
		assert.Equal(t, buffer[i%len(buffer)], sample, "sample %d", i)
	}
}

func TestPrepareLengthInvariant(t *testing.T) {
	tests := []struct {
		name          string
		bufferLen     int
		windowSamples int
	}{
		{"much shorter", 7, 480},
		{"one sample", 1, 100},
		{"one short", 99, 100},
		{"equal", 100, 100},
		{"one long", 101, 100},
		{"much longer", 5000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buffer := make([]float64, tt.bufferLen)
			for i := range buffer {
				buffer[i] = float64(i)
			}

			prepared, err := Prepare(buffer, tt.windowSamples)
			require.NoError(t, err)
			assert.Len(t, prepared, tt.windowSamples)
		})
	}
}

func TestPrepareInvalidInput(t *testing.T) {
	_, err := Prepare(nil, 100)
	require.Error(t, err)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Prepare([]float64{}, 100)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Prepare([]float64{1, 2, 3}, 0)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Prepare([]float64{1, 2, 3}, -5)
	assert.True(t, common.IsInvalidInput(err))
}

func TestSplitProducesOrderedSpans(t *testing.T) {
	buffer := make([]float64, 25)
	for i := range buffer {
		buffer[i] = float64(i)
	}

	spans, err := Split(buffer, 10, 10)
	require.NoError(t, err)
	require.Len(t, spans, 3)

	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 10, spans[0].End)
	assert.Equal(t, 10, spans[1].Start)
	assert.Equal(t, 20, spans[1].End)

	// The final chunk is short: its span records the true end while its
	// samples are tiled out to the full window.
	assert.Equal(t, 20, spans[2].Start)
	assert.Equal(t, 25, spans[2].End)
	assert.Len(t, spans[2].Samples, 10)
	for i, sample := range spans[2].Samples {
		assert.Equal(t, buffer[20+i%5], sample, "tiled sample %d", i)
	}
}

func TestSplitSpanSeconds(t *testing.T) {
	buffer := make([]float64, 96000)
	spans, err := Split(buffer, 48000, 48000)
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.InDelta(t, 0.0, spans[0].StartSeconds(48000), 1e-9)
	assert.InDelta(t, 1.0, spans[0].EndSeconds(48000), 1e-9)
	assert.InDelta(t, 1.0, spans[1].StartSeconds(48000), 1e-9)
	assert.InDelta(t, 2.0, spans[1].EndSeconds(48000), 1e-9)
}

func TestSplitInvalidInput(t *testing.T) {
	_, err := Split(nil, 10, 10)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Split([]float64{1}, 0, 10)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Split([]float64{1}, 10, 0)
	assert.True(t, common.IsInvalidInput(err))
}
