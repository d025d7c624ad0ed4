package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for monitoring dataset actions.
type Server struct {
	collector *MetricsCollector
	server    *http.Server
}

// NewMonitoringServer creates a new monitoring server listening on addr.
// Prometheus metrics are served from gatherer.
func NewMonitoringServer(collector *MetricsCollector, gatherer prometheus.Gatherer, addr string) *Server {
	mux := http.NewServeMux()

	server := &Server{
		collector: collector,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second, //nolint:mnd // Standard timeout value
		},
	}

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/summary", server.handleSummary)
	mux.HandleFunc("/health", server.handleHealth)

	return server
}

// Handler returns the server's request multiplexer.
func (ms *Server) Handler() http.Handler {
	return ms.server.Handler
}

// Start starts the monitoring server. It returns http.ErrServerClosed after Stop.
func (ms *Server) Start() error {
	return ms.server.ListenAndServe()
}

// Stop gracefully stops the monitoring server.
func (ms *Server) Stop(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// handleSummary serves the collector summary and the recorded actions.
func (ms *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := struct {
		Summary    MetricsSummary     `json:"summary"`
		Operations []OperationMetrics `json:"operations"`
	}{
		Summary:    ms.collector.GetSummary(),
		Operations: ms.collector.GetMetrics(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode summary", http.StatusInternalServerError)
		return
	}
}

// handleHealth serves the health check endpoint.
func (ms *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"enabled":   ms.collector.IsEnabled(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode health status", http.StatusInternalServerError)
		return
	}
}
