// Package api exposes the conflict engine over HTTP for dispatcher tooling.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"fleetdesk/internal/metrics"
	"fleetdesk/internal/models"
	"fleetdesk/internal/override"
	"fleetdesk/internal/service"
)

// Directory is the read side the API needs beyond the order service.
type Directory interface {
	ListVehicles(ctx context.Context, companyID int64, activeOnly bool) ([]models.Vehicle, error)
	GetAuditEntries(ctx context.Context, limit int) ([]override.AuditEntry, error)
}

// Config carries the API server settings.
type Config struct {
	Port      int
	APIKey    string
	RateLimit float64
	RateBurst int
}

// HTTPServer serves the order conflict API.
type HTTPServer struct {
	svc       *service.OrderService
	directory Directory
	logger    zerolog.Logger
	limiter   *rate.Limiter
	apiKey    string
	server    *http.Server
}

// NewHTTPServer builds the server and its routes.
func NewHTTPServer(cfg Config, svc *service.OrderService, directory Directory, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:       svc,
		directory: directory,
		logger:    logger.With().Str("component", "api").Logger(),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		apiKey:    cfg.APIKey,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orders/check", s.guard(s.handleCheckDay))
	mux.HandleFunc("/api/v1/orders/validate", s.guard(s.handleValidate))
	mux.HandleFunc("/api/v1/orders", s.guard(s.handleCreateOrder))
	mux.HandleFunc("/api/v1/orders/confirm", s.guard(s.handleConfirm))
	mux.HandleFunc("/api/v1/orders/can-confirm", s.guard(s.handleCanConfirm))
	mux.HandleFunc("/api/v1/orders/retime", s.guard(s.handleRetime))
	mux.HandleFunc("/api/v1/vehicles", s.guard(s.handleVehicles))
	mux.HandleFunc("/api/v1/audit", s.guard(s.handleAuditEntries))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server starting")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// guard applies rate limiting and API-key auth before the handler runs, and
// counts every response by path and status.
func (s *HTTPServer) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.IncHTTPRequest(r.URL.Path, strconv.Itoa(recorder.status))
		}()

		if !s.limiter.Allow() {
			writeError(recorder, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(recorder, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(recorder, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeStrict(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
