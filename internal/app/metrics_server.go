package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startMetricsServer runs the health and Prometheus metrics HTTP server.
func (a *App) startMetricsServer(port int) {
	a.logger.Debug("Configuring metrics server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)

	go func() {
		a.logger.Info("🩺 Metrics server starting", "address", fmt.Sprintf("http://localhost%s/metrics", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
}
