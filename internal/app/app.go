// Package app wires configuration, logging, the model, and the engine
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/soundlens/soundlens/configs"
	"github.com/soundlens/soundlens/internal/classify"
	"github.com/soundlens/soundlens/internal/logging"
	"github.com/soundlens/soundlens/internal/media"
	"github.com/soundlens/soundlens/internal/model"
	"github.com/soundlens/soundlens/internal/server"
	"github.com/soundlens/soundlens/pkg/audio/pcm"
	"github.com/soundlens/soundlens/pkg/audio/smoothing"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile string
	Listen     string
	Verbose    bool
	Quiet      bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// App handles the application lifecycle
type App struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
	model  model.Model
	engine *classify.Engine

	store      *media.Store
	downloader *media.Downloader
}

// NewApp creates a new application from the resolved configuration
func NewApp(ctx *Context) (*App, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx.Config = config

	logger := setupLogging(ctx, config)
	ctx.Logger = logger

	mdl, err := model.New(model.Config{
		Path:          config.Model.Path,
		FrameRate:     config.Model.FrameRate,
		WindowSamples: config.WindowSamples(),
		EmbedDim:      config.Model.EmbedDim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	engine, err := classify.NewEngine(&classify.EngineConfig{
		Model:         mdl,
		SampleRate:    config.Audio.SampleRate,
		ChunkSeconds:  config.Audio.ChunkSeconds,
		WindowSeconds: config.Audio.WindowSeconds,
		Smoothing: smoothing.Params{
			Threshold:      config.Smoothing.Threshold,
			MinGapFrames:   config.Smoothing.MinGapFrames,
			MinSpikeFrames: config.Smoothing.MinSpikeFrames,
			MinEventFrames: config.Smoothing.MinEventFrames,
		},
		Precision: config.Output.Precision,
		Logger:    logger,
	})
	if err != nil {
		mdl.Close()
		return nil, err
	}

	logger.Debug("Application initialized", logging.Fields{
		"config_file":    ctx.ConfigFile,
		"sample_rate":    config.Audio.SampleRate,
		"window_seconds": config.Audio.WindowSeconds,
		"model_path":     config.Model.Path,
		"native_model":   model.NativeAvailable() && config.Model.Path != "",
	})

	return &App{
		ctx:    ctx,
		config: config,
		logger: logger,
		model:  mdl,
		engine: engine,
	}, nil
}

// RunServer starts the HTTP API and blocks until ctx is canceled.
func (a *App) RunServer(ctx context.Context) error {
	store, err := media.OpenStore(a.config.Media.CacheDir)
	if err != nil {
		a.logger.Warn("Media cache unavailable, download endpoints disabled", logging.Fields{
			"cache_dir": a.config.Media.CacheDir,
			"error":     err.Error(),
		})
	} else {
		a.store = store
		a.downloader, err = media.NewDownloader(&media.DownloaderConfig{
			Store:   store,
			Logger:  a.logger,
			Binary:  a.config.Media.DownloadBinary,
			Timeout: a.config.Media.DownloadTimeout,
		})
		if err != nil {
			return err
		}
	}

	httpCfg := a.config.Server
	if a.ctx.Listen != "" {
		httpCfg.Listen = a.ctx.Listen
	}

	srv, err := server.NewServer(&server.ServerConfig{
		Engine:     a.engine,
		Downloader: a.downloader,
		Store:      a.store,
		Logger:     a.logger,
		HTTP:       httpCfg,
		Audio:      a.config.Audio,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// ClassifyFile classifies a local WAV or raw PCM file.
func (a *App) ClassifyFile(ctx context.Context, path string, labels []string) (*classify.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var samples []float64
	if len(data) >= 4 && string(data[:4]) == "RIFF" {
		wav, err := pcm.DecodeWAV(data)
		if err != nil {
			return nil, err
		}
		if wav.SampleRate != a.config.Audio.SampleRate {
			return nil, fmt.Errorf("WAV sample rate %d does not match expected %d; resample upstream",
				wav.SampleRate, a.config.Audio.SampleRate)
		}
		samples = wav.Samples
	} else {
		samples, err = pcm.Decode(data, pcm.FormatS16LE, a.config.Audio.Channels)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	result, err := a.engine.ClassifySamples(ctx, samples, labels)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("File classified", logging.Fields{
		"path":          path,
		"duration_s":    result.DurationSeconds,
		"chunks":        len(result.Chunks),
		"processing_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}

// Engine exposes the classification engine for tests and commands.
func (a *App) Engine() *classify.Engine {
	return a.engine
}

// Config returns the resolved configuration.
func (a *App) Config() *configs.Config {
	return a.config
}

// Close releases model and cache resources.
func (a *App) Close() error {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			return err
		}
	}
	return a.model.Close()
}

// setupLogging configures logging from CLI flags, falling back to the
// configured log level.
func setupLogging(ctx *Context, config *configs.Config) logging.Logger {
	level := config.LogLevel
	if ctx.Verbose {
		level = "debug"
	} else if ctx.Quiet {
		level = "error"
	}
	return logging.NewLogger(level)
}
