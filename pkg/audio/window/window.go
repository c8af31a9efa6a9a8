// Package window normalizes variable-length sample buffers into the
// fixed-length windows the embedding model requires.
package window

import (
	"fmt"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

// Default model input geometry: 10 seconds at 48 kHz.
const (
	DefaultSampleRate    = 48000
	DefaultWindowSeconds = 10
	DefaultWindowSamples = DefaultSampleRate * DefaultWindowSeconds
)

// Span is one chunk of a source buffer prepared for model input.
// Start and End are sample offsets into the source buffer; End reflects
// the true extent of the chunk even when Samples has been tiled out to
// the full window length.
type Span struct {
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Samples []float64 `json:"-"`
}

// StartSeconds returns the span start as seconds into the source buffer.
func (s Span) StartSeconds(sampleRate int) float64 {
	return float64(s.Start) / float64(sampleRate)
}

// EndSeconds returns the span end as seconds into the source buffer.
func (s Span) EndSeconds(sampleRate int) float64 {
	return float64(s.End) / float64(sampleRate)
}

// Prepare normalizes buffer to exactly windowSamples samples. Longer
// buffers are truncated; shorter buffers are tiled by periodic repetition
// and then truncated. A buffer already at the target length is returned
// unchanged. Silence padding is never used.
func Prepare(buffer []float64, windowSamples int) ([]float64, error) {
	if len(buffer) == 0 {
		return nil, common.NewInvalidInputError("window.Prepare", "empty sample buffer")
	}
	if windowSamples <= 0 {
		return nil, common.NewInvalidInputError("window.Prepare",
			fmt.Sprintf("window size must be positive, got %d", windowSamples))
	}

	if len(buffer) == windowSamples {
		return buffer, nil
	}

	if len(buffer) > windowSamples {
		return buffer[:windowSamples], nil
	}

	// Tile the short buffer until it covers the window, then cut to size.
	tiled := make([]float64, 0, windowSamples+len(buffer))
	for len(tiled) < windowSamples {
		tiled = append(tiled, buffer...)
	}

	return tiled[:windowSamples], nil
}

// Split partitions buffer into consecutive non-overlapping chunks of
// chunkSamples samples and prepares each as a model window of
// windowSamples samples. The final chunk may be shorter than
// chunkSamples; its Span records the true end offset while its Samples
// are tiled to full window length.
func Split(buffer []float64, chunkSamples, windowSamples int) ([]Span, error) {
	if len(buffer) == 0 {
		return nil, common.NewInvalidInputError("window.Split", "empty sample buffer")
	}
	if chunkSamples <= 0 {
		return nil, common.NewInvalidInputError("window.Split",
			fmt.Sprintf("chunk size must be positive, got %d", chunkSamples))
	}
	if windowSamples <= 0 {
		return nil, common.NewInvalidInputError("window.Split",
			fmt.Sprintf("window size must be positive, got %d", windowSamples))
	}

	spans := make([]Span, 0, (len(buffer)+chunkSamples-1)/chunkSamples)
	for start := 0; start < len(buffer); start += chunkSamples {
		end := start + chunkSamples
		if end > len(buffer) {
			end = len(buffer)
		}

		prepared, err := Prepare(buffer[start:end], windowSamples)
		if err != nil {
			return nil, err
		}

		spans = append(spans, Span{
			Start:   start,
			End:     end,
			Samples: prepared,
		})
	}

	return spans, nil
}
