// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wishlane/linkmeta/internal/utils"
)

// HealthStatus reported by the health endpoint.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckFunc probes one dependency. A nil error means healthy.
type HealthCheckFunc func(ctx context.Context) error

// Server exposes /metrics and /health for the extraction service.
type Server struct {
	metrics *MetricsManager
	checks  map[string]HealthCheckFunc
	logger  utils.Logger
	httpSrv *http.Server
	started time.Time
}

// ServerConfig configures the monitoring listener.
type ServerConfig struct {
	ListenAddress string `json:"listen_address" yaml:"listen_address"`
}

// NewServer builds the monitoring server. Checks map dependency names to
// probes run on each /health request.
func NewServer(cfg ServerConfig, metrics *MetricsManager, checks map[string]HealthCheckFunc) *Server {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":9090"
	}

	s := &Server{
		metrics: metrics,
		checks:  checks,
		logger:  utils.NewComponentLogger("monitoring"),
		started: time.Now(),
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.httpSrv = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

type healthResponse struct {
	Status HealthStatus            `json:"status"`
	Uptime string                  `json:"uptime"`
	Checks map[string]HealthStatus `json:"checks,omitempty"`
	Errors map[string]string       `json:"errors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Status: HealthStatusHealthy,
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Checks: make(map[string]HealthStatus, len(s.checks)),
	}

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			resp.Status = HealthStatusUnhealthy
			resp.Checks[name] = HealthStatusUnhealthy
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[name] = err.Error()
			continue
		}
		resp.Checks[name] = HealthStatusHealthy
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != HealthStatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

// Start runs the listener until Stop is called. Blocks.
func (s *Server) Start() error {
	s.logger.Infof("monitoring server listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
