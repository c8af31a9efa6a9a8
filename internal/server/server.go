// Package server exposes the classification pipeline over HTTP: health
// and system introspection, buffer recommendation, audio classification,
// media download/streaming, and the bundled frontend.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/soundlens/soundlens/configs"
	"github.com/soundlens/soundlens/internal/classify"
	"github.com/soundlens/soundlens/internal/logging"
	"github.com/soundlens/soundlens/internal/media"
)

//go:embed web
var webFiles embed.FS

// Server is the HTTP API server.
type Server struct {
	engine     *classify.Engine
	downloader *media.Downloader
	store      *media.Store
	logger     logging.Logger
	cfg        configs.ServerConfig
	audio      configs.AudioConfig
}

// ServerConfig contains configuration for the HTTP server
type ServerConfig struct {
	Engine     *classify.Engine
	Downloader *media.Downloader
	Store      *media.Store
	Logger     logging.Logger
	HTTP       configs.ServerConfig
	Audio      configs.AudioConfig
}

// NewServer creates a new API server
func NewServer(config *ServerConfig) (*Server, error) {
	if config.Engine == nil {
		return nil, fmt.Errorf("server: classification engine is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Server{
		engine:     config.Engine,
		downloader: config.Downloader,
		store:      config.Store,
		logger:     logger,
		cfg:        config.HTTP,
		audio:      config.Audio,
	}, nil
}

// Handler builds the route table wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /system-info", s.handleSystemInfo)
	mux.HandleFunc("POST /recommend-buffer", s.handleRecommendBuffer)
	mux.HandleFunc("POST /classify", s.handleClassify)

	if s.downloader != nil && s.store != nil {
		mux.HandleFunc("POST /media/fetch", s.handleMediaFetch)
		mux.HandleFunc("GET /media", s.handleMediaList)
		mux.HandleFunc("GET /media/{id}", s.handleMediaStream)
		mux.HandleFunc("POST /media/{id}/classify", s.handleMediaClassify)
	}

	if static, err := fs.Sub(webFiles, "web"); err == nil {
		mux.Handle("GET /", http.FileServerFS(static))
	}

	return s.corsMiddleware(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": s.cfg.Listen})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

// corsMiddleware applies the configured origin allowlist to every route.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			allowed := origin
			if len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*" {
				allowed = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
