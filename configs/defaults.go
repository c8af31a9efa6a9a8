package configs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values
func SetDefaults() {
	// Application defaults
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_level", "info")

	// Directory defaults
	home, _ := os.UserHomeDir()
	viper.SetDefault("config_dir", filepath.Join(home, ".config", "soundlens"))
	viper.SetDefault("data_dir", filepath.Join(home, ".local", "share", "soundlens"))

	// Audio processing defaults: the model consumes 10 s windows at 48 kHz
	viper.SetDefault("audio.sample_rate", 48000)
	viper.SetDefault("audio.channels", 1)
	viper.SetDefault("audio.window_seconds", 10.0)
	viper.SetDefault("audio.chunk_seconds", 10.0)

	// Temporal smoothing defaults at the model's 50 Hz frame rate:
	// 200 ms gap fill, 40 ms spike removal, 200 ms event mass gate
	viper.SetDefault("smoothing.threshold", 0.5)
	viper.SetDefault("smoothing.min_gap_frames", 10)
	viper.SetDefault("smoothing.min_spike_frames", 2)
	viper.SetDefault("smoothing.min_event_frames", 10)

	// Model defaults
	viper.SetDefault("model.path", os.Getenv("SOUNDLENS_MODEL_PATH"))
	viper.SetDefault("model.frame_rate", 50)
	viper.SetDefault("model.embed_dim", 512)
	viper.SetDefault("model.window_samples", 480000)

	// Server defaults
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.allowed_origins", allowedOriginsDefault())
	viper.SetDefault("server.read_timeout", "60s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.max_upload_bytes", 256<<20)

	// Media defaults
	viper.SetDefault("media.cache_dir", filepath.Join(home, ".cache", "soundlens", "media"))
	viper.SetDefault("media.download_binary", "yt-dlp")
	viper.SetDefault("media.download_timeout", "5m")

	// Output defaults
	viper.SetDefault("output.precision", 4)
}

// allowedOriginsDefault honors the ALLOWED_ORIGINS environment variable
// the way the deployment scripts set it: comma-separated, "*" by default.
func allowedOriginsDefault() []string {
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		return origins
	}
	return []string{"*"}
}
