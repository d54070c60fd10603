// Package service implements the remediation HTTP endpoint that fronts a
// local model runtime.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultListen         = ":9000"
	DefaultBackendURL     = "http://localhost:11434"
	DefaultBackendTimeout = 300 * time.Second

	defaultModel       = "llama2"
	defaultMaxLength   = 750
	defaultTemperature = 0.7

	probeTimeout = 5 * time.Second
	maxBodyBytes = 1 << 20
)

// GenerateRequest is the body of POST /generate. Absent fields take
// defaults; explicit values, including 0, are kept.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Model       *string  `json:"model,omitempty"`
	MaxLength   *int     `json:"max_length,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// generateParams is a GenerateRequest with defaults applied.
type generateParams struct {
	Prompt      string
	Model       string
	MaxLength   int
	Temperature float64
}

// GenerateResponse echoes the prompt followed by the model's continuation.
type GenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Config holds service configuration.
type Config struct {
	Listen         string        // ":9000"
	BackendURL     string        // Ollama base URL
	BackendTimeout time.Duration // per backend call
}

// Server is the remediation generation endpoint.
type Server struct {
	cfg     Config
	backend *backend
	srv     *http.Server
	mu      sync.Mutex
	addr    string
}

// New creates a server. The backend is not contacted until Start.
func New(cfg Config) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = DefaultBackendTimeout
	}
	return &Server{
		cfg:     cfg,
		backend: newBackend(cfg.BackendURL, cfg.BackendTimeout),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	return mux
}

// Start probes the backend, then begins listening. Returns the actual address.
// An unreachable backend is logged and does not prevent startup.
func (s *Server) Start() (string, error) {
	s.probeBackend()

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return "", fmt.Errorf("service listen %s: %w", s.cfg.Listen, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("service error", "error", err)
		}
	}()

	slog.Info("remediation service started", "addr", s.addr, "backend", s.cfg.BackendURL)
	return s.addr, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Addr returns the listening address after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) probeBackend() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	models, err := s.backend.probe(ctx)
	if err != nil {
		slog.Warn("backend not reachable at startup", "backend", s.cfg.BackendURL, "error", err)
		return
	}
	slog.Info("backend reachable", "backend", s.cfg.BackendURL, "models", strings.Join(models, ","))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`"hello"`))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	params := applyDefaults(req)

	start := time.Now()
	text, err := s.backend.generate(r.Context(), params)
	if err != nil {
		var statusErr *backendStatusError
		switch {
		case errors.Is(err, errBackendUnavailable):
			slog.Warn("backend unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "backend service unavailable")
		case errors.As(err, &statusErr):
			slog.Warn("backend error", "status", statusErr.Status, "body", statusErr.Body)
			writeError(w, http.StatusInternalServerError, "Error communicating with backend: "+statusErr.Error())
		default:
			slog.Error("generate failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	slog.Debug("generated", "model", params.Model, "elapsed", time.Since(start).Round(time.Millisecond))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GenerateResponse{GeneratedText: params.Prompt + text})
}

func applyDefaults(req GenerateRequest) generateParams {
	p := generateParams{
		Prompt:      req.Prompt,
		Model:       defaultModel,
		MaxLength:   defaultMaxLength,
		Temperature: defaultTemperature,
	}
	if req.Model != nil && *req.Model != "" {
		p.Model = *req.Model
	}
	if req.MaxLength != nil {
		p.MaxLength = *req.MaxLength
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	return p
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
