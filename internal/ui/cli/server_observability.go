package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nsguard/internal/core/app"
	"nsguard/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestsPerSecond = 10
	requestBurst      = 20
	limiterTTL        = 10 * time.Minute
)

// ObservabilityServer exposes /metrics and /health over HTTP.
type ObservabilityServer struct {
	addr          string
	healthService *app.HealthService
	server        *http.Server
	listener      net.Listener
	limiter       *util.LimiterRegistry
	cancel        context.CancelFunc
}

func NewObservabilityServer(addr string, healthService *app.HealthService) *ObservabilityServer {
	return &ObservabilityServer{
		addr:          addr,
		healthService: healthService,
	}
}

// Handler builds the request mux. Requests are rate limited per client IP when
// a limiter is installed.
func (s *ObservabilityServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", s.limit(promhttp.Handler()))

	// Health check
	mux.Handle("/health", s.limit(http.HandlerFunc(s.handleHealth)))

	return mux
}

func (s *ObservabilityServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthService == nil {
		http.Error(w, "health service unavailable", http.StatusServiceUnavailable)
		return
	}
	status := s.healthService.Check(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Debug("write health response", "error", err)
	}
}

func (s *ObservabilityServer) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Get(clientIP(r)).Allow(1) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start binds the listener and serves in the background. The bound address is
// available from Addr once Start returns.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	limiterCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.limiter = util.NewLimiterRegistry(limiterCtx, requestsPerSecond, requestBurst, limiterTTL)
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
