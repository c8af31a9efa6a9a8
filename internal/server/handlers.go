package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/soundlens/soundlens/internal/logging"
	"github.com/soundlens/soundlens/internal/media"
	"github.com/soundlens/soundlens/internal/sysinfo"
	"github.com/soundlens/soundlens/pkg/audio/common"
	"github.com/soundlens/soundlens/pkg/audio/pcm"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sysinfo.Collect(r.Context()))
}

// recommendRequest mirrors the frontend payload; the target latency is
// accepted but the heuristic currently keys on core count alone.
type recommendRequest struct {
	TargetLatencySeconds *float64 `json:"target_latency_s"`
}

type recommendResponse struct {
	RecommendedBufferSeconds float64 `json:"recommended_buffer_s"`
	Rationale                string  `json:"rationale"`
}

func (s *Server) handleRecommendBuffer(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, recommendResponse{
		RecommendedBufferSeconds: sysinfo.RecommendBufferSeconds(runtime.NumCPU()),
		Rationale:                "Heuristic based on CPU core count.",
	})
}

// handleClassify accepts audio as a multipart upload (file field "audio",
// form field "labels") or as a raw request body with labels, format and
// channels supplied as query parameters. WAV payloads are detected by
// their RIFF header; anything else is treated as raw PCM.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	audio, labels, err := s.readClassifyRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	samples, err := s.decodeAudio(audio, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ClassifySamples(r.Context(), samples, labels)
	if err != nil {
		s.writeClassifyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) readClassifyRequest(r *http.Request) ([]byte, []string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return nil, nil, fmt.Errorf("parse multipart form: %w", err)
		}

		file, _, err := r.FormFile("audio")
		if err != nil {
			return nil, nil, fmt.Errorf("missing audio file: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, nil, fmt.Errorf("read audio file: %w", err)
		}

		labels := parseLabels(r.FormValue("labels"))
		if len(labels) == 0 {
			return nil, nil, fmt.Errorf("no labels provided")
		}
		return data, labels, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read request body: %w", err)
	}

	labels := parseLabels(r.URL.Query().Get("labels"))
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("no labels provided")
	}
	return data, labels, nil
}

func (s *Server) decodeAudio(data []byte, r *http.Request) ([]float64, error) {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		wav, err := pcm.DecodeWAV(data)
		if err != nil {
			return nil, err
		}
		if wav.SampleRate != s.audio.SampleRate {
			return nil, fmt.Errorf("WAV sample rate %d does not match expected %d; resample upstream",
				wav.SampleRate, s.audio.SampleRate)
		}
		return wav.Samples, nil
	}

	format := pcm.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = pcm.FormatS16LE
	}

	channels := s.audio.Channels
	if raw := r.URL.Query().Get("channels"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid channels parameter %q", raw)
		}
		channels = parsed
	}

	return pcm.Decode(data, format, channels)
}

type mediaFetchRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleMediaFetch(w http.ResponseWriter, r *http.Request) {
	var req mediaFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	entry, err := s.downloader.Fetch(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("Media fetch failed", logging.Fields{"url": req.URL, "error": err.Error()})
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleMediaList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleMediaStream serves the cached file; http.ServeFile provides
// range request support for the frontend's player.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeMediaError(w, err)
		return
	}
	http.ServeFile(w, r, entry.Path)
}

func (s *Server) handleMediaClassify(w http.ResponseWriter, r *http.Request) {
	labels := parseLabels(r.URL.Query().Get("labels"))
	if len(labels) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("no labels provided"))
		return
	}

	entry, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeMediaError(w, err)
		return
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("read cached media: %w", err))
		return
	}

	samples, err := s.decodeAudio(data, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ClassifySamples(r.Context(), samples, labels)
	if err != nil {
		s.writeClassifyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeClassifyError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if common.IsInvalidInput(err) {
		status = http.StatusBadRequest
	}
	s.writeError(w, status, err)
}

func (s *Server) writeMediaError(w http.ResponseWriter, err error) {
	if errors.Is(err, media.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed encoding response", logging.Fields{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseLabels(raw string) []string {
	var labels []string
	for _, label := range strings.Split(raw, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
