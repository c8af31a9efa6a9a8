package model

import (
	"context"
	"hash/fnv"
	"math"
)

// StubModel produces deterministic pseudo-scores without any model
// weights. Each (prompt, frame) score is a bounded sinusoid seeded by the
// prompt text and the window's energy, so runs are repeatable and
// different prompts produce different score shapes.
type StubModel struct {
	frameRate     int
	windowSamples int
	embedDim      int
}

// NewStubModel creates a stub model honoring the configured geometry.
func NewStubModel(cfg Config) *StubModel {
	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = 50
	}
	windowSamples := cfg.WindowSamples
	if windowSamples <= 0 {
		windowSamples = 480000
	}
	embedDim := cfg.EmbedDim
	if embedDim <= 0 {
		embedDim = 512
	}
	return &StubModel{
		frameRate:     frameRate,
		windowSamples: windowSamples,
		embedDim:      embedDim,
	}
}

func (m *StubModel) GlobalAudioFeatures(_ context.Context, window []float64) ([]float64, error) {
	features := make([]float64, m.embedDim)
	energy := rmsEnergy(window)
	for i := range features {
		features[i] = math.Sin(energy*float64(i+1)) / math.Sqrt(float64(m.embedDim))
	}
	return features, nil
}

func (m *StubModel) TextFeatures(_ context.Context, prompts []string) ([][]float64, error) {
	features := make([][]float64, len(prompts))
	for i, prompt := range prompts {
		seed := float64(hashPrompt(prompt)%1000) / 1000.0
		vec := make([]float64, m.embedDim)
		for j := range vec {
			vec[j] = math.Cos(seed*float64(j+1)) / math.Sqrt(float64(m.embedDim))
		}
		features[i] = vec
	}
	return features, nil
}

func (m *StubModel) LocalSimilarity(_ context.Context, window []float64, prompts []string) ([][]float64, error) {
	frames := m.framesPerWindow()
	energy := rmsEnergy(window)

	scores := make([][]float64, len(prompts))
	for i, prompt := range prompts {
		seed := float64(hashPrompt(prompt) % 97)
		series := make([]float64, frames)
		for f := range frames {
			phase := seed + float64(f)/float64(m.frameRate)
			series[f] = 0.5 + 0.5*math.Sin(phase)*math.Tanh(energy*10)
		}
		scores[i] = series
	}
	return scores, nil
}

func (m *StubModel) FrameRate() int {
	return m.frameRate
}

func (m *StubModel) Close() error {
	return nil
}

func (m *StubModel) framesPerWindow() int {
	sampleRate := 48000
	return m.frameRate * m.windowSamples / sampleRate
}

func rmsEnergy(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range window {
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(len(window)))
}

func hashPrompt(prompt string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return h.Sum32()
}
