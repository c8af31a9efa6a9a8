// Package pcm converts raw PCM byte buffers and WAV files into the mono
// float64 sample buffers the analysis pipeline consumes.
package pcm

import (
	"fmt"
	"math"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

// Format identifies the sample encoding of a raw PCM buffer.
type Format string

const (
	FormatS16LE Format = "s16le"
	FormatF32LE Format = "f32le"
)

// Decode converts an interleaved raw PCM buffer to mono float64 samples
// in [-1, 1]. Multi-channel input is downmixed by channel averaging.
func Decode(buffer []byte, format Format, channels int) ([]float64, error) {
	if len(buffer) == 0 {
		return nil, common.NewInvalidInputError("pcm.Decode", "empty audio buffer")
	}
	if channels <= 0 {
		return nil, common.NewInvalidInputError("pcm.Decode",
			fmt.Sprintf("channel count must be positive, got %d", channels))
	}

	var samples []float64
	switch format {
	case FormatS16LE:
		converted, err := convertS16(buffer)
		if err != nil {
			return nil, err
		}
		samples = converted
	case FormatF32LE:
		converted, err := convertFloat32(buffer)
		if err != nil {
			return nil, err
		}
		samples = converted
	default:
		return nil, common.NewInvalidInputError("pcm.Decode",
			fmt.Sprintf("unsupported PCM format %q", format))
	}

	if channels == 1 {
		return samples, nil
	}
	return Downmix(samples, channels)
}

// convertS16 converts 16-bit little-endian signed PCM to float64.
func convertS16(buffer []byte) ([]float64, error) {
	if len(buffer)%2 != 0 {
		return nil, common.NewInvalidInputError("pcm.Decode",
			fmt.Sprintf("buffer size %d not aligned for 16-bit samples", len(buffer)))
	}

	sampleCount := len(buffer) / 2
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		sample := int16(buffer[i*2]) | int16(buffer[i*2+1])<<8
		// Divide by 32768 so the full int16 range stays within [-1, 1].
		samples[i] = float64(sample) / 32768.0
	}

	return samples, nil
}

// convertFloat32 converts 32-bit little-endian float PCM to float64.
func convertFloat32(buffer []byte) ([]float64, error) {
	if len(buffer)%4 != 0 {
		return nil, common.NewInvalidInputError("pcm.Decode",
			fmt.Sprintf("buffer size %d not aligned for 32-bit samples", len(buffer)))
	}

	sampleCount := len(buffer) / 4
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := uint32(buffer[i*4]) | uint32(buffer[i*4+1])<<8 |
			uint32(buffer[i*4+2])<<16 | uint32(buffer[i*4+3])<<24
		value := float64(math.Float32frombits(bits))
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		samples[i] = value
	}

	return samples, nil
}

// Downmix averages interleaved multi-channel samples into mono.
func Downmix(interleaved []float64, channels int) ([]float64, error) {
	if channels <= 0 {
		return nil, common.NewInvalidInputError("pcm.Downmix",
			fmt.Sprintf("channel count must be positive, got %d", channels))
	}
	if len(interleaved)%channels != 0 {
		return nil, common.NewInvalidInputError("pcm.Downmix",
			fmt.Sprintf("sample count %d not divisible by %d channels", len(interleaved), channels))
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for frame := range frames {
		sum := 0.0
		for ch := range channels {
			sum += interleaved[frame*channels+ch]
		}
		mono[frame] = sum / float64(channels)
	}

	return mono, nil
}
