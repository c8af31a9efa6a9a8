// Package scoring aggregates per-frame detection scores into per-chunk
// and per-recording label confidences.
package scoring

import (
	"fmt"
	"math"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

// AggregateChunk reduces one chunk's per-label frame series to a scalar
// per label using the arithmetic mean. Mean rather than max: a single
// noisy high frame must not dominate the chunk score.
func AggregateChunk(frameScores map[string][]float64) (map[string]float64, error) {
	if len(frameScores) == 0 {
		return nil, common.NewInvalidInputError("scoring.AggregateChunk", "no label series to aggregate")
	}

	aggregates := make(map[string]float64, len(frameScores))
	for label, series := range frameScores {
		if len(series) == 0 {
			return nil, common.NewInvalidInputError("scoring.AggregateChunk",
				fmt.Sprintf("empty frame series for label %q", label))
		}

		sum := 0.0
		for _, score := range series {
			sum += score
		}
		aggregates[label] = sum / float64(len(series))
	}

	return aggregates, nil
}

// AggregateChunks reduces an ordered sequence of chunk aggregates to a
// single per-label mean. Every chunk must carry the same label set.
func AggregateChunks(chunkAggregates []map[string]float64) (map[string]float64, error) {
	if len(chunkAggregates) == 0 {
		return nil, common.NewInvalidInputError("scoring.AggregateChunks", "no chunk aggregates to combine")
	}

	reference := chunkAggregates[0]
	totals := make(map[string]float64, len(reference))
	for label := range reference {
		totals[label] = 0
	}

	for i, chunk := range chunkAggregates {
		if len(chunk) != len(reference) {
			return nil, common.NewInvalidInputError("scoring.AggregateChunks",
				fmt.Sprintf("chunk %d has %d labels, expected %d", i, len(chunk), len(reference)))
		}
		for label, score := range chunk {
			if _, ok := totals[label]; !ok {
				return nil, common.NewInvalidInputError("scoring.AggregateChunks",
					fmt.Sprintf("chunk %d has unexpected label %q", i, label))
			}
			totals[label] += score
		}
	}

	for label := range totals {
		totals[label] /= float64(len(chunkAggregates))
	}

	return totals, nil
}

// Round rounds half away from zero to the given number of decimal places.
func Round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// RoundSeries rounds every value in a frame series for display.
func RoundSeries(series []float64, places int) []float64 {
	rounded := make([]float64, len(series))
	for i, value := range series {
		rounded[i] = Round(value, places)
	}
	return rounded
}
