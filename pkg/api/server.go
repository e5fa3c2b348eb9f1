package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psaab/birdlg/pkg/lg"
	"github.com/psaab/birdlg/pkg/logging"
)

// Backend runs queries against the routing daemon.
type Backend interface {
	Query(ctx context.Context, endpoint, command string) (string, error)
	Protocols(ctx context.Context) ([]lg.ProtocolRow, error)
}

// Config configures the API server.
type Config struct {
	Addr     string
	Backend  Backend
	QueryLog *logging.QueryLog
	Timeout  time.Duration // per-query limit; 0 = none
	Metrics  bool          // serve /metrics
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	backend    Backend
	queryLog   *logging.QueryLog
	timeout    time.Duration
	stats      *queryStats
	duration   *prometheus.HistogramVec
	startTime  time.Time
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		backend:   cfg.Backend,
		queryLog:  cfg.QueryLog,
		timeout:   cfg.Timeout,
		stats:     newQueryStats(),
		startTime: time.Now(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "birdlg_query_duration_seconds",
			Help:    "Time spent running backend queries.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
	}
	if s.queryLog == nil {
		s.queryLog = logging.NewQueryLog(512)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(metrics bool) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if metrics {
		registry := prometheus.NewRegistry()
		registry.MustRegister(newCollector(s), s.duration)
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Backend endpoints
	mux.HandleFunc("POST "+lg.EndpointBird, s.queryHandler(lg.EndpointBird))
	mux.HandleFunc("POST "+lg.EndpointTraceroute, s.queryHandler(lg.EndpointTraceroute))
	mux.HandleFunc("POST "+lg.EndpointTraceroute6, s.queryHandler(lg.EndpointTraceroute6))
	mux.HandleFunc("POST /api/lgproxy", s.queryHandler(""))

	// REST API v1
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("GET /api/v1/protocols", s.protocolsHandler)
	mux.HandleFunc("GET /api/v1/queries", s.queriesHandler)
	mux.HandleFunc("GET /api/v1/queries/stream", s.queryStreamHandler)

	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Request contexts end with ctx so streaming handlers return on shutdown.
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
