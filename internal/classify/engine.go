// Package classify orchestrates the frame-wise detection pipeline:
// chunking and window preparation, model inference, per-label temporal
// smoothing, and score aggregation.
package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/soundlens/soundlens/internal/logging"
	"github.com/soundlens/soundlens/internal/model"
	"github.com/soundlens/soundlens/pkg/audio/common"
	"github.com/soundlens/soundlens/pkg/audio/scoring"
	"github.com/soundlens/soundlens/pkg/audio/smoothing"
	"github.com/soundlens/soundlens/pkg/audio/window"
)

// Engine runs sound-event classification over decoded sample buffers.
// The model and all parameters are explicit; an Engine holds no mutable
// state of its own, so one instance serves concurrent requests.
type Engine struct {
	model      model.Model
	logger     logging.Logger
	sampleRate int
	chunkSecs  float64
	windowSecs float64
	smoothing  smoothing.Params
	precision  int
}

// EngineConfig contains configuration for the classification engine
type EngineConfig struct {
	Model         model.Model
	SampleRate    int
	ChunkSeconds  float64
	WindowSeconds float64
	Smoothing     smoothing.Params
	Precision     int
	Logger        logging.Logger
}

// NewEngine creates a new classification engine
func NewEngine(config *EngineConfig) (*Engine, error) {
	if config.Model == nil {
		return nil, fmt.Errorf("classify: model is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = window.DefaultSampleRate
	}
	windowSecs := config.WindowSeconds
	if windowSecs <= 0 {
		windowSecs = window.DefaultWindowSeconds
	}
	chunkSecs := config.ChunkSeconds
	if chunkSecs <= 0 {
		chunkSecs = windowSecs
	}
	precision := config.Precision
	if precision <= 0 {
		precision = 4
	}

	return &Engine{
		model:      config.Model,
		logger:     logger,
		sampleRate: sampleRate,
		chunkSecs:  chunkSecs,
		windowSecs: windowSecs,
		smoothing:  config.Smoothing,
		precision:  precision,
	}, nil
}

// ClassifySamples runs the full pipeline over one decoded mono buffer.
func (e *Engine) ClassifySamples(ctx context.Context, samples []float64, labels []string) (*Result, error) {
	if len(samples) == 0 {
		return nil, common.NewInvalidInputError("classify.ClassifySamples", "empty sample buffer")
	}
	if len(labels) == 0 {
		return nil, common.NewInvalidInputError("classify.ClassifySamples", "no labels provided")
	}

	start := time.Now()
	chunkSamples := int(e.chunkSecs * float64(e.sampleRate))
	windowSamples := int(e.windowSecs * float64(e.sampleRate))

	e.logger.Debug("Starting classification", logging.Fields{
		"samples":        len(samples),
		"duration_s":     float64(len(samples)) / float64(e.sampleRate),
		"labels":         len(labels),
		"chunk_samples":  chunkSamples,
		"window_samples": windowSamples,
	})

	spans, err := window.Split(samples, chunkSamples, windowSamples)
	if err != nil {
		return nil, err
	}

	chunks := make([]ChunkResult, 0, len(spans))
	chunkAggregates := make([]map[string]float64, 0, len(spans))

	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := e.classifyChunk(ctx, i, span, labels)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}

		chunks = append(chunks, *chunk)
		chunkAggregates = append(chunkAggregates, chunk.Aggregates)
	}

	overall, err := scoring.AggregateChunks(chunkAggregates)
	if err != nil {
		return nil, err
	}
	for label, score := range overall {
		overall[label] = scoring.Round(score, e.precision)
	}

	elapsed := time.Since(start)
	e.logger.Debug("Classification completed", logging.Fields{
		"chunks":        len(chunks),
		"processing_ms": elapsed.Milliseconds(),
	})

	return &Result{
		Labels:          labels,
		SampleRate:      e.sampleRate,
		DurationSeconds: float64(len(samples)) / float64(e.sampleRate),
		FrameRate:       e.model.FrameRate(),
		Chunks:          chunks,
		Aggregates:      overall,
		ProcessingTime:  elapsed,
		ProcessingMs:    elapsed.Milliseconds(),
	}, nil
}

// classifyChunk runs model inference and smoothing for one window.
func (e *Engine) classifyChunk(ctx context.Context, index int, span window.Span, labels []string) (*ChunkResult, error) {
	matrix, err := e.model.LocalSimilarity(ctx, span.Samples, labels)
	if err != nil {
		return nil, common.NewAnalysisError("classify.classifyChunk", common.ErrCodeModel,
			"model inference failed", err)
	}
	if len(matrix) != len(labels) {
		return nil, common.NewAnalysisError("classify.classifyChunk", common.ErrCodeModel,
			fmt.Sprintf("model returned %d score series for %d labels", len(matrix), len(labels)), nil)
	}

	raw := make(map[string][]float64, len(labels))
	for i, label := range labels {
		raw[label] = matrix[i]
	}

	// Smoothing is applied per label; labels never interact.
	smoothed := smoothing.SmoothAll(raw, e.smoothing)

	aggregates, err := scoring.AggregateChunk(smoothed)
	if err != nil {
		return nil, err
	}

	for label := range raw {
		raw[label] = scoring.RoundSeries(raw[label], e.precision)
		smoothed[label] = scoring.RoundSeries(smoothed[label], e.precision)
		aggregates[label] = scoring.Round(aggregates[label], e.precision)
	}

	return &ChunkResult{
		Index:          index,
		StartSeconds:   span.StartSeconds(e.sampleRate),
		EndSeconds:     span.EndSeconds(e.sampleRate),
		RawScores:      raw,
		SmoothedScores: smoothed,
		Aggregates:     aggregates,
	}, nil
}
