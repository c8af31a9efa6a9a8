// Package model defines the embedding-model collaborator used by the
// classification engine: a pretrained audio-text model that maps 10 s,
// 48 kHz audio windows and text prompts into a shared embedding space
// and reports per-frame prompt similarity.
package model

import "context"

// Model is the external audio-text embedding model. Implementations must
// be safe for concurrent use by independent requests.
type Model interface {
	// GlobalAudioFeatures embeds one full window into a single vector.
	GlobalAudioFeatures(ctx context.Context, window []float64) ([]float64, error)

	// TextFeatures embeds each prompt into a vector.
	TextFeatures(ctx context.Context, prompts []string) ([][]float64, error)

	// LocalSimilarity returns a per-prompt, per-frame score matrix for
	// one window: result[i][f] is the similarity of prompts[i] at frame f.
	LocalSimilarity(ctx context.Context, window []float64, prompts []string) ([][]float64, error)

	// FrameRate returns the model's temporal resolution in frames per second.
	FrameRate() int

	// Close releases model resources.
	Close() error
}

// Config selects and parameterizes a model implementation.
type Config struct {
	// Path is the model checkpoint directory (SOUNDLENS_MODEL_PATH).
	// Empty selects the stub model.
	Path string `mapstructure:"path"`

	// FrameRate is the model's frame rate in Hz.
	FrameRate int `mapstructure:"frame_rate"`

	// WindowSamples is the fixed model input length.
	WindowSamples int `mapstructure:"window_samples"`

	// EmbedDim is the shared embedding dimensionality.
	EmbedDim int `mapstructure:"embed_dim"`
}

// New returns the native ONNX model when compiled in and a checkpoint
// path is configured, and the deterministic stub otherwise.
func New(cfg Config) (Model, error) {
	if cfg.Path == "" || !NativeAvailable() {
		return NewStubModel(cfg), nil
	}
	return NewNativeModel(cfg)
}
