// Package metrics provides Prometheus metrics for the apuntes server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apuntes_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apuntes_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Drive API metrics
	driveCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apuntes_drive_api_calls_total",
			Help: "Total Google Drive API calls",
		},
		[]string{"operation", "status"},
	)

	driveCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apuntes_drive_api_call_duration_seconds",
			Help:    "Google Drive API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Walker metrics
	walkerFoldersVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apuntes_walker_folders_visited_total",
			Help: "Total folders visited by the walker",
		},
	)

	walkerFilesVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apuntes_walker_files_visited_total",
			Help: "Total files visited by the walker",
		},
	)

	walkerFolderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apuntes_walker_folder_errors_total",
			Help: "Total folders skipped because listing failed",
		},
	)

	// Ranking run metrics
	rankingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apuntes_ranking_runs_total",
			Help: "Total ranking passes",
		},
		[]string{"result"},
	)

	rankingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apuntes_ranking_run_duration_seconds",
			Help:    "Full ranking pass duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	rankingCareersDiscovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apuntes_ranking_careers_discovered",
			Help: "Careers discovered in the last ranking pass",
		},
	)

	rankingLastUpdate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apuntes_ranking_last_update_timestamp_seconds",
			Help: "Unix time of the last published snapshot",
		},
	)

	// Snapshot store metrics
	snapshotStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apuntes_snapshot_store_ops_total",
			Help: "Total snapshot store operations",
		},
		[]string{"op", "status"},
	)

	// SSE metrics
	sseSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apuntes_sse_subscribers",
			Help: "Number of active SSE subscribers",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDriveCall records one Google Drive API call.
func RecordDriveCall(operation string, statusCode int, duration time.Duration) {
	driveCallsTotal.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	driveCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFolderVisited records one walked folder and its direct file count.
func RecordFolderVisited(files int) {
	walkerFoldersVisited.Inc()
	walkerFilesVisited.Add(float64(files))
}

// RecordFolderError records a folder skipped after a listing failure.
func RecordFolderError() {
	walkerFolderErrors.Inc()
}

// RecordRankingRun records a completed ranking pass.
func RecordRankingRun(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	rankingRunsTotal.WithLabelValues(result).Inc()
	rankingRunDuration.Observe(duration.Seconds())
}

// SetCareersDiscovered sets the career count of the last pass.
func SetCareersDiscovered(count int) {
	rankingCareersDiscovered.Set(float64(count))
}

// SetLastUpdate sets the publish time of the current snapshot.
func SetLastUpdate(t time.Time) {
	rankingLastUpdate.Set(float64(t.Unix()))
}

// RecordStoreOp records a snapshot store operation.
func RecordStoreOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	snapshotStoreOps.WithLabelValues(op, status).Inc()
}

// SetSSESubscribers sets the number of active SSE subscribers.
func SetSSESubscribers(count int) {
	sseSubscribers.Set(float64(count))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
