// Package server exposes the planting-composition pipeline behind a small
// HTTP API: own a listener, own graceful shutdown, and keep request
// handling out of cmd/server/main.go.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/compose"
)

// Config holds the server's network-facing settings.
type Config struct {
	Address string
}

// DefaultConfig returns the server's built-in defaults.
func DefaultConfig() Config {
	return Config{Address: ":8080"}
}

// Server serves the /generate_composition endpoint described in the
// pipeline's request/response contract.
type Server struct {
	config Config
	http   *http.Server
	stopCh chan struct{}
}

// New constructs a Server from config. It does not start listening until
// Start is called.
func New(config Config) *Server {
	s := &Server{config: config, stopCh: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("/generate_composition", s.handleGenerate)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.http = &http.Server{
		Addr:         config.Address,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// StopChan returns a channel that closes if the listener exits on its own
// (for example because the port is already in use), letting the caller
// distinguish an unexpected death from a requested Stop.
func (s *Server) StopChan() <-chan struct{} {
	return s.stopCh
}

// Start begins listening in the background and returns once the listener
// is up or has failed immediately.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			close(s.stopCh)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(50 * time.Millisecond):
		log.Printf("server: listening on %s", s.config.Address)
		return nil
	}
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Printf("server: shutdown error: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleGenerate decodes a compose.Request body, runs the pipeline, and
// writes back the compose.Response as JSON.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req compose.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	resp, err := compose.RunBatch(req)
	if err != nil {
		log.Printf("server: generate_composition failed: %v", err)
		http.Error(w, "composition generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("server: encoding response failed: %v", err)
	}
}
