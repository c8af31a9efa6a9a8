package app

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/soundlens/soundlens/configs"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	configs.SetDefaults()
	viper.Set("model.path", "") // force the stub model

	app, err := NewApp(&Context{Quiet: true})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func TestNewAppWiresEngine(t *testing.T) {
	app := newTestApp(t)

	if app.Engine() == nil {
		t.Fatal("expected engine")
	}
	if app.Config() == nil || app.Config().Audio.SampleRate != 48000 {
		t.Errorf("unexpected config %+v", app.Config())
	}
}

func TestClassifyFileWAV(t *testing.T) {
	app := newTestApp(t)

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, toneWAV(48000), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	result, err := app.ClassifyFile(context.Background(), path, []string{"siren"})
	if err != nil {
		t.Fatalf("ClassifyFile: %v", err)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(result.Chunks))
	}
	if _, ok := result.Aggregates["siren"]; !ok {
		t.Errorf("missing aggregate for label: %v", result.Aggregates)
	}
	if math.Abs(result.DurationSeconds-1.0) > 1e-9 {
		t.Errorf("unexpected duration %f", result.DurationSeconds)
	}
}

func TestClassifyFileRejectsWrongSampleRate(t *testing.T) {
	app := newTestApp(t)

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, toneWAV(44100), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	if _, err := app.ClassifyFile(context.Background(), path, []string{"siren"}); err == nil {
		t.Fatal("expected sample rate mismatch error")
	}
}

func TestClassifyFileMissing(t *testing.T) {
	app := newTestApp(t)

	if _, err := app.ClassifyFile(context.Background(), "/nonexistent.wav", []string{"siren"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// toneWAV builds one second of a 440 Hz mono PCM16 tone.
func toneWAV(sampleRate int) []byte {
	dataSize := sampleRate * 2
	data := []byte("RIFF\x00\x00\x00\x00WAVE")
	data = append(data, "fmt "...)
	data = binary.LittleEndian.AppendUint32(data, 16)

	var fmtChunk [16]byte
	binary.LittleEndian.PutUint16(fmtChunk[0:], 1)
	binary.LittleEndian.PutUint16(fmtChunk[2:], 1)
	binary.LittleEndian.PutUint32(fmtChunk[4:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(fmtChunk[12:], 2)
	binary.LittleEndian.PutUint16(fmtChunk[14:], 16)
	data = append(data, fmtChunk[:]...)

	data = append(data, "data"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(dataSize))
	payload := make([]byte, dataSize)
	for i := 0; i < sampleRate; i++ {
		sample := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(payload[i*2:], uint16(sample))
	}
	data = append(data, payload...)

	binary.LittleEndian.PutUint32(data[4:], uint32(len(data)-8))
	return data
}
