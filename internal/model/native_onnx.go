//go:build onnx

package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortInitOnce ensures the ONNX Runtime environment is initialized exactly
// once. ortInitErr is kept at package scope so later constructor calls
// surface the original failure.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// NativeAvailable reports that the ONNX backend is compiled in.
func NativeAvailable() bool { return true }

// NewNativeModel loads the exported audio encoder and the precomputed
// text embedding table from the checkpoint directory.
func NewNativeModel(cfg Config) (Model, error) {
	return newONNXModel(cfg)
}

// onnxModel runs the exported audio encoder through ONNX Runtime. Text
// prompts are resolved against an embedding table exported alongside the
// encoder; prompt tokenization stays in the export pipeline.
type onnxModel struct {
	mu sync.Mutex

	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32] // [1, windowSamples]
	outputTensor *ort.Tensor[float32] // [1, frames, embedDim]

	textEmbeddings map[string][]float64

	frameRate     int
	windowSamples int
	frames        int
	embedDim      int
}

func newONNXModel(cfg Config) (*onnxModel, error) {
	ortInitOnce.Do(func() {
		if libPath := os.Getenv("SOUNDLENS_ORT_LIB_PATH"); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("model: initialize onnxruntime: %w", ortInitErr)
	}

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
	frames := frameRate * windowSamples / 48000

	encoderData, err := os.ReadFile(filepath.Join(cfg.Path, "audio_encoder.onnx"))
	if err != nil {
		return nil, fmt.Errorf("model: read audio encoder: %w", err)
	}

	textEmbeddings, err := loadTextEmbeddings(filepath.Join(cfg.Path, "text_embeddings.json"), embedDim)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(windowSamples)))
	if err != nil {
		return nil, fmt.Errorf("model: create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(frames), int64(embedDim)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("model: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSessionWithONNXData(
		encoderData,
		[]string{"audio"},
		[]string{"frame_embeddings"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("model: create session: %w", err)
	}

	return &onnxModel{
		session:        session,
		inputTensor:    inputTensor,
		outputTensor:   outputTensor,
		textEmbeddings: textEmbeddings,
		frameRate:      frameRate,
		windowSamples:  windowSamples,
		frames:         frames,
		embedDim:       embedDim,
	}, nil
}

// loadTextEmbeddings reads the prompt -> embedding table exported with
// the checkpoint.
func loadTextEmbeddings(path string, embedDim int) (map[string][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read text embeddings: %w", err)
	}

	var table map[string][]float64
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("model: parse text embeddings: %w", err)
	}

	for prompt, vec := range table {
		if len(vec) != embedDim {
			return nil, fmt.Errorf("model: embedding for %q has dimension %d, expected %d",
				prompt, len(vec), embedDim)
		}
	}

	return table, nil
}

func (m *onnxModel) GlobalAudioFeatures(ctx context.Context, window []float64) ([]float64, error) {
	frameEmbeddings, err := m.encodeWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	// Mean-pool frame embeddings and renormalize.
	pooled := make([]float64, m.embedDim)
	for _, frame := range frameEmbeddings {
		for i, v := range frame {
			pooled[i] += v
		}
	}
	for i := range pooled {
		pooled[i] /= float64(len(frameEmbeddings))
	}
	normalize(pooled)

	return pooled, nil
}

func (m *onnxModel) TextFeatures(_ context.Context, prompts []string) ([][]float64, error) {
	features := make([][]float64, len(prompts))
	for i, prompt := range prompts {
		vec, ok := m.textEmbeddings[prompt]
		if !ok {
			return nil, fmt.Errorf("model: no embedding exported for prompt %q", prompt)
		}
		features[i] = vec
	}
	return features, nil
}

func (m *onnxModel) LocalSimilarity(ctx context.Context, window []float64, prompts []string) ([][]float64, error) {
	textFeatures, err := m.TextFeatures(ctx, prompts)
	if err != nil {
		return nil, err
	}

	frameEmbeddings, err := m.encodeWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	scores := make([][]float64, len(prompts))
	for i, text := range textFeatures {
		series := make([]float64, len(frameEmbeddings))
		for f, frame := range frameEmbeddings {
			series[f] = dot(text, frame)
		}
		scores[i] = series
	}
	return scores, nil
}

func (m *onnxModel) FrameRate() int {
	return m.frameRate
}

func (m *onnxModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
		m.inputTensor = nil
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
		m.outputTensor = nil
	}
	return nil
}

// encodeWindow runs one inference pass. The session reuses its tensors,
// so calls are serialized.
func (m *onnxModel) encodeWindow(ctx context.Context, window []float64) ([][]float64, error) {
	if len(window) != m.windowSamples {
		return nil, fmt.Errorf("model: window has %d samples, expected %d", len(window), m.windowSamples)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, fmt.Errorf("model: session is closed")
	}

	input := m.inputTensor.GetData()
	for i, sample := range window {
		input[i] = float32(sample)
	}

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("model: inference: %w", err)
	}

	output := m.outputTensor.GetData()
	frameEmbeddings := make([][]float64, m.frames)
	for f := range m.frames {
		frame := make([]float64, m.embedDim)
		for i := range m.embedDim {
			frame[i] = float64(output[f*m.embedDim+i])
		}
		normalize(frame)
		frameEmbeddings[f] = frame
	}

	return frameEmbeddings, nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(vec []float64) {
	norm := math.Sqrt(dot(vec, vec))
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
