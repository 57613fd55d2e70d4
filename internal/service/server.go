package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cameronsjo/toolcat/internal/plugin"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Options configures a Server.
type Options struct {
	Addr   string
	Logger log.Logger

	// Registerer and Gatherer back the request metrics and /metrics. Nil
	// values disable both.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server serves the plugin registry over HTTP together with health and
// metrics endpoints.
type Server struct {
	registry *plugin.Registry
	server   *http.Server
	logger   log.Logger
	requests *prometheus.CounterVec
}

// NewServer creates a server for the plugins in registry.
func NewServer(registry *plugin.Registry, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		registry: registry,
		logger:   logger,
		requests: promauto.With(opts.Registerer).NewCounterVec(prometheus.CounterOpts{
			Name: "toolcat_http_requests_total",
			Help: "Total number of HTTP requests served by status code.",
		}, []string{"code"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	registry.Mount(mux)

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	level.Info(s.logger).Log("msg", "HTTP server listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// loggingMiddleware tags each request with an ID and logs it once served.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.requests.WithLabelValues(strconv.Itoa(wrapped.statusCode)).Inc()
		level.Info(s.logger).Log(
			"msg", "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// handleHealth reports liveness and the number of registered plugins.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		plugin.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	plugin.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"plugins": len(s.registry.List()),
	})
}
