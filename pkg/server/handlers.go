package server

import (
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/statex/statex/pkg/export"
	"github.com/statex/statex/pkg/httpx"
	"github.com/statex/statex/pkg/recorder"
	"github.com/statex/statex/pkg/server/monitor"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var startTime = time.Now()

// StorageUsage represents current output directory usage.
type StorageUsage struct {
	UsedBytes int64 `json:"used_bytes"`
	MaxBytes  int64 `json:"max_bytes"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Cleanup *monitor.CleanupStatus `json:"cleanup,omitempty"`
}

// StatisticInfo is one entry in the statistics listing.
type StatisticInfo struct {
	StatisticID string          `json:"statistic_id"`
	Name        string          `json:"name,omitempty"`
	Unit        string          `json:"unit_of_measurement"`
	HasMean     bool            `json:"has_mean"`
	HasSum      bool            `json:"has_sum"`
	Range       *recorder.Range `json:"range,omitempty"`
}

// StatsResponse reports source volume alongside server uptime.
type StatsResponse struct {
	*recorder.Stats
	Uptime string `json:"uptime"`
}

// handleHealth returns service health status. With retention disabled there
// is no cleanup loop to report on and the server is healthy on its own.
func handleHealth(cleanupMonitor *monitor.CleanupMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overallStatus := "healthy"
		statusCode := http.StatusOK

		response := HealthResponse{
			Version: Version,
			Uptime:  time.Since(startTime).String(),
		}

		if cleanupMonitor != nil {
			status := cleanupMonitor.Status()
			response.Cleanup = &status
			if !status.Healthy {
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response.Status = overallStatus
		httpx.RespondJSON(w, statusCode, response)
	}
}

// handleStorageUsage returns current output directory usage.
func handleStorageUsage(storageMonitor *monitor.StorageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usedBytes, err := storageMonitor.GetUsage()
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		usage := StorageUsage{
			UsedBytes: usedBytes,
			MaxBytes:  storageMonitor.GetLimit(),
		}

		httpx.RespondJSON(w, http.StatusOK, usage)
	}
}

// handleStatistics lists the exportable series with their metadata and data
// ranges, sorted by statistic ID.
func handleStatistics(source recorder.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := source.Metadata(r.Context(), nil)
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		ids := make([]string, 0, len(meta))
		for id := range meta {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		list := make([]StatisticInfo, 0, len(ids))
		for _, id := range ids {
			m := meta[id]
			rng, err := source.Range(r.Context(), []string{id})
			if err != nil {
				httpx.RespondError(w, http.StatusInternalServerError, err)
				return
			}
			list = append(list, StatisticInfo{
				StatisticID: m.StatisticID,
				Name:        m.Name,
				Unit:        m.Unit,
				HasMean:     m.HasMean,
				HasSum:      m.HasSum,
				Range:       rng,
			})
		}

		httpx.RespondJSON(w, http.StatusOK, list)
	}
}

// handleStats returns source statistics.
func handleStats(source recorder.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := source.Stats(r.Context())
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		httpx.RespondJSON(w, http.StatusOK, StatsResponse{
			Stats:  stats,
			Uptime: time.Since(startTime).String(),
		})
	}
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(
	router *mux.Router,
	exportHandler *export.Handler,
	source recorder.Source,
	storageMonitor *monitor.StorageMonitor,
	cleanupMonitor *monitor.CleanupMonitor,
	listen string,
) {
	// CORS middleware for API access
	router.Use(corsMiddleware(listenPort(listen)))

	// API routes
	api := router.PathPrefix("/v1").Subrouter()

	// Export surfaces
	api.HandleFunc("/export", exportHandler.HandleExport).Methods("GET")
	api.HandleFunc("/export/files", exportHandler.HandleExportFiles).Methods("POST")

	// Metadata and stats
	api.HandleFunc("/statistics", handleStatistics(source)).Methods("GET")
	api.HandleFunc("/stats", handleStats(source)).Methods("GET")
	api.HandleFunc("/storage", handleStorageUsage(storageMonitor)).Methods("GET")
	api.HandleFunc("/health", handleHealth(cleanupMonitor)).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// listenPort extracts the port from a listen address like ":8080" for CORS
// origin checks.
func listenPort(listen string) string {
	if _, port, err := net.SplitHostPort(listen); err == nil {
		return port
	}
	return strings.TrimPrefix(listen, ":")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Allow localhost origins for local development
			allowedOrigins := []string{
				"http://localhost:" + port,
				"http://127.0.0.1:" + port,
			}

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if origin == allowedOrigin {
					allowed = true
					break
				}
			}

			// Only set CORS headers for allowed origins
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
