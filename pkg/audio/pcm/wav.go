package pcm

import (
	"encoding/binary"
	"fmt"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

// WAV format codes from the RIFF spec.
const (
	waveFormatPCM       = 1
	waveFormatIEEEFloat = 3
)

// WAVData holds the decoded contents of a RIFF WAV file.
type WAVData struct {
	SampleRate int
	Channels   int
	Samples    []float64 // mono, downmixed
}

// DecodeWAV parses a RIFF WAV file containing PCM16 or IEEE float32
// sample data and returns mono float64 samples. Compressed WAV payloads
// are rejected; codec decoding happens upstream of this package.
func DecodeWAV(data []byte) (*WAVData, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, common.NewInvalidInputError("pcm.DecodeWAV", "not a RIFF WAVE file")
	}

	var (
		format     uint16
		channels   int
		sampleRate int
		bitDepth   int
		payload    []byte
		haveFmt    bool
	)

	// Walk the chunk list; chunks are word-aligned.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			return nil, common.NewInvalidInputError("pcm.DecodeWAV",
				fmt.Sprintf("truncated %q chunk", chunkID))
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, common.NewInvalidInputError("pcm.DecodeWAV", "fmt chunk too short")
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			payload = data[body : body+chunkSize]
		}

		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt {
		return nil, common.NewInvalidInputError("pcm.DecodeWAV", "missing fmt chunk")
	}
	if len(payload) == 0 {
		return nil, common.NewInvalidInputError("pcm.DecodeWAV", "missing or empty data chunk")
	}

	var pcmFormat Format
	switch {
	case format == waveFormatPCM && bitDepth == 16:
		pcmFormat = FormatS16LE
	case format == waveFormatIEEEFloat && bitDepth == 32:
		pcmFormat = FormatF32LE
	default:
		return nil, common.NewInvalidInputError("pcm.DecodeWAV",
			fmt.Sprintf("unsupported WAV encoding: format %d, %d-bit", format, bitDepth))
	}

	samples, err := Decode(payload, pcmFormat, channels)
	if err != nil {
		return nil, err
	}

	return &WAVData{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}
