package pcm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundlens/soundlens/pkg/audio/common"
)

func TestDecodeS16LE(t *testing.T) {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint16(buffer[0:], 0)
	binary.LittleEndian.PutUint16(buffer[2:], uint16(int16(16384)))
	minSample := int16(-32768)
	binary.LittleEndian.PutUint16(buffer[4:], uint16(minSample))
	binary.LittleEndian.PutUint16(buffer[6:], uint16(int16(32767)))

	samples, err := Decode(buffer, FormatS16LE, 1)
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.0, samples[0], 1e-12)
	assert.InDelta(t, 0.5, samples[1], 1e-12)
	assert.InDelta(t, -1.0, samples[2], 1e-12)
	assert.InDelta(t, 32767.0/32768.0, samples[3], 1e-12)
}

func TestDecodeF32LE(t *testing.T) {
	values := []float32{0, 0.25, -1, float32(math.NaN()), float32(math.Inf(1))}
	buffer := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buffer[i*4:], math.Float32bits(v))
	}

	samples, err := Decode(buffer, FormatF32LE, 1)
	require.NoError(t, err)
	require.Len(t, samples, len(values))
	assert.InDelta(t, 0.25, samples[1], 1e-7)
	assert.InDelta(t, -1.0, samples[2], 1e-12)

	// Non-finite samples are zeroed, not propagated.
	assert.Zero(t, samples[3])
	assert.Zero(t, samples[4])
}

func TestDecodeStereoDownmix(t *testing.T) {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint16(buffer[0:], uint16(int16(16384))) // L
	negHalf := int16(-16384)
	binary.LittleEndian.PutUint16(buffer[2:], uint16(negHalf)) // R
	binary.LittleEndian.PutUint16(buffer[4:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(buffer[6:], uint16(int16(16384)))

	samples, err := Decode(buffer, FormatS16LE, 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.0, samples[0], 1e-12)
	assert.InDelta(t, 0.5, samples[1], 1e-12)
}

func TestDecodeInvalidInput(t *testing.T) {
	_, err := Decode(nil, FormatS16LE, 1)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Decode([]byte{1, 2}, FormatS16LE, 0)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Decode([]byte{1, 2, 3}, FormatS16LE, 1)
	assert.True(t, common.IsInvalidInput(err), "odd length for s16le")

	_, err = Decode([]byte{1, 2, 3, 4, 5}, FormatF32LE, 1)
	assert.True(t, common.IsInvalidInput(err), "unaligned length for f32le")

	_, err = Decode([]byte{1, 2}, Format("mp3"), 1)
	assert.True(t, common.IsInvalidInput(err))
}

func TestDownmixErrors(t *testing.T) {
	_, err := Downmix([]float64{1, 2, 3}, 2)
	assert.True(t, common.IsInvalidInput(err))

	_, err = Downmix([]float64{1, 2}, 0)
	assert.True(t, common.IsInvalidInput(err))
}

func TestDecodeWAVPCM16(t *testing.T) {
	samples := []int16{0, 16384, -16384}
	data := buildWAV(t, waveFormatPCM, 16, 48000, 1, func(buf []byte) {
		for i, s := range samples {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
		}
	}, len(samples)*2)

	wav, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 48000, wav.SampleRate)
	assert.Equal(t, 1, wav.Channels)
	require.Len(t, wav.Samples, 3)
	assert.InDelta(t, 0.5, wav.Samples[1], 1e-12)
	assert.InDelta(t, -0.5, wav.Samples[2], 1e-12)
}

func TestDecodeWAVFloat32Stereo(t *testing.T) {
	values := []float32{0.5, -0.5, 1, 1}
	data := buildWAV(t, waveFormatIEEEFloat, 32, 44100, 2, func(buf []byte) {
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
	}, len(values)*4)

	wav, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 44100, wav.SampleRate)
	assert.Equal(t, 2, wav.Channels)
	require.Len(t, wav.Samples, 2)
	assert.InDelta(t, 0.0, wav.Samples[0], 1e-7)
	assert.InDelta(t, 1.0, wav.Samples[1], 1e-7)
}

func TestDecodeWAVRejectsMalformedInput(t *testing.T) {
	_, err := DecodeWAV([]byte("not audio at all"))
	assert.True(t, common.IsInvalidInput(err))

	_, err = DecodeWAV(nil)
	assert.True(t, common.IsInvalidInput(err))

	// Valid RIFF header, unsupported encoding (8-bit PCM).
	data := buildWAV(t, waveFormatPCM, 8, 48000, 1, func(buf []byte) {}, 4)
	_, err = DecodeWAV(data)
	assert.True(t, common.IsInvalidInput(err))

	// fmt chunk but no data chunk.
	data = buildWAV(t, waveFormatPCM, 16, 48000, 1, nil, 0)
	_, err = DecodeWAV(data)
	assert.True(t, common.IsInvalidInput(err))
}

// buildWAV assembles a minimal RIFF WAVE file with an fmt chunk and,
// when dataSize > 0, a data chunk filled in by fillData.
func buildWAV(t *testing.T, format uint16, bitDepth, sampleRate, channels int, fillData func([]byte), dataSize int) []byte {
	t.Helper()

	var fmtChunk [16]byte
	binary.LittleEndian.PutUint16(fmtChunk[0:], format)
	binary.LittleEndian.PutUint16(fmtChunk[2:], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:], uint32(sampleRate))
	byteRate := sampleRate * channels * bitDepth / 8
	binary.LittleEndian.PutUint32(fmtChunk[8:], uint32(byteRate))
	binary.LittleEndian.PutUint16(fmtChunk[12:], uint16(channels*bitDepth/8))
	binary.LittleEndian.PutUint16(fmtChunk[14:], uint16(bitDepth))

	data := []byte("RIFF\x00\x00\x00\x00WAVE")
	data = append(data, "fmt "...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = append(data, fmtChunk[:]...)

	if dataSize > 0 {
		payload := make([]byte, dataSize)
		if fillData != nil {
			fillData(payload)
		}
		data = append(data, "data"...)
		data = binary.LittleEndian.AppendUint32(data, uint32(dataSize))
		data = append(data, payload...)
	}

	binary.LittleEndian.PutUint32(data[4:], uint32(len(data)-8))
	return data
}
