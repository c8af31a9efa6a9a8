package configs

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose   bool   `mapstructure:"verbose"`
	LogLevel  string `mapstructure:"log_level"`
	ConfigDir string `mapstructure:"config_dir"`
	DataDir   string `mapstructure:"data_dir"`

	// Audio processing configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Temporal smoothing configuration
	Smoothing SmoothingConfig `mapstructure:"smoothing"`

	// Model configuration
	Model ModelConfig `mapstructure:"model"`

	// HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Media download configuration
	Media MediaConfig `mapstructure:"media"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// AudioConfig contains audio processing settings
type AudioConfig struct {
	SampleRate    int     `mapstructure:"sample_rate"`
	Channels      int     `mapstructure:"channels"`
	WindowSeconds float64 `mapstructure:"window_seconds"`
	ChunkSeconds  float64 `mapstructure:"chunk_seconds"`
}

// SmoothingConfig contains temporal smoothing settings
type SmoothingConfig struct {
	Threshold      float64 `mapstructure:"threshold"`
	MinGapFrames   int     `mapstructure:"min_gap_frames"`
	MinSpikeFrames int     `mapstructure:"min_spike_frames"`
	MinEventFrames int     `mapstructure:"min_event_frames"`
}

// ModelConfig contains embedding model settings
type ModelConfig struct {
	Path          string `mapstructure:"path"`
	FrameRate     int    `mapstructure:"frame_rate"`
	EmbedDim      int    `mapstructure:"embed_dim"`
	WindowSamples int    `mapstructure:"window_samples"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// MediaConfig contains media download settings
type MediaConfig struct {
	CacheDir        string        `mapstructure:"cache_dir"`
	DownloadBinary  string        `mapstructure:"download_binary"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision int `mapstructure:"precision"`
}

// LabelPreset is a named prompt list loadable from a YAML file.
type LabelPreset struct {
	Name   string   `yaml:"name"`
	Labels []string `yaml:"labels"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// LoadLabelPresets reads named label sets from a YAML file.
func LoadLabelPresets(path string) ([]LabelPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label presets: %w", err)
	}

	var presets []LabelPreset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse label presets: %w", err)
	}

	return presets, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}
	if c.Audio.WindowSeconds <= 0 {
		return fmt.Errorf("audio window seconds must be positive")
	}
	if c.Audio.ChunkSeconds <= 0 {
		return fmt.Errorf("audio chunk seconds must be positive")
	}
	if c.Smoothing.Threshold <= 0 || c.Smoothing.Threshold >= 1 {
		return fmt.Errorf("smoothing threshold must be in (0, 1)")
	}
	if c.Smoothing.MinGapFrames < 0 || c.Smoothing.MinSpikeFrames < 0 || c.Smoothing.MinEventFrames < 0 {
		return fmt.Errorf("smoothing frame counts cannot be negative")
	}
	if c.Model.FrameRate <= 0 {
		return fmt.Errorf("model frame rate must be positive")
	}
	if c.Output.Precision < 0 {
		return fmt.Errorf("output precision cannot be negative")
	}
	return nil
}

// WindowSamples derives the model input length in samples.
func (c *Config) WindowSamples() int {
	if c.Model.WindowSamples > 0 {
		return c.Model.WindowSamples
	}
	return int(c.Audio.WindowSeconds * float64(c.Audio.SampleRate))
}
