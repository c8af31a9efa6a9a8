package classify

import "time"

// ChunkResult holds one window's per-label frame scores and aggregates.
type ChunkResult struct {
	Index        int     `json:"index"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`

	// RawScores and SmoothedScores are label -> per-frame series, index
	// aligned with each other.
	RawScores      map[string][]float64 `json:"raw_scores"`
	SmoothedScores map[string][]float64 `json:"smoothed_scores"`

	// Aggregates is label -> mean smoothed score across the chunk.
	Aggregates map[string]float64 `json:"aggregates"`
}

// Result is the outcome of classifying one recording.
type Result struct {
	Labels          []string      `json:"labels"`
	SampleRate      int           `json:"sample_rate"`
	DurationSeconds float64       `json:"duration_seconds"`
	FrameRate       int           `json:"frame_rate"`
	Chunks          []ChunkResult `json:"chunks"`

	// Aggregates is label -> mean of the chunk aggregates.
	Aggregates map[string]float64 `json:"aggregates"`

	ProcessingTime time.Duration `json:"-"`
	ProcessingMs   int64         `json:"processing_ms"`
}
