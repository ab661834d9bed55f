package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keplemon_http_requests_total",
			Help: "Total number of HTTP requests to the metrics listener.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keplemon_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keplemon_propagations_total",
			Help: "Total number of single-state propagations by result.",
		},
		[]string{"result"},
	)

	batchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keplemon_propagation_batch_duration_seconds",
			Help:    "Wall time of constellation batch operations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"operation"},
	)

	tleRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keplemon_tle_records_total",
			Help: "Element set records read from catalogs by result.",
		},
		[]string{"result"},
	)

	screeningPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keplemon_screening_pairs_total",
			Help: "Satellite pairs considered by close-approach screening.",
		},
		[]string{"result"},
	)

	closeApproachesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keplemon_close_approaches_total",
			Help: "Close approaches found inside the distance threshold.",
		},
	)

	timeConstantsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keplemon_time_constants_loaded",
			Help: "1 when the time constants table is installed.",
		},
	)
)

// Result labels.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultParsed      = "parsed"
	ResultSkipped     = "skipped"
	ResultScreened    = "screened"
	ResultPrefiltered = "prefiltered"
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(tleRecordsTotal)
	prometheus.MustRegister(screeningPairsTotal)
	prometheus.MustRegister(closeApproachesTotal)
	prometheus.MustRegister(timeConstantsLoaded)
}

// RecordPropagation counts one propagation outcome.
func RecordPropagation(err error) {
	if err != nil {
		propagationsTotal.WithLabelValues(ResultError).Inc()
		return
	}
	propagationsTotal.WithLabelValues(ResultOK).Inc()
}

// ObserveBatch records the duration of a batch operation started at start.
func ObserveBatch(operation string, start time.Time) {
	batchDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordTLERecords counts the outcome of a catalog parse.
func RecordTLERecords(parsed, skipped int) {
	tleRecordsTotal.WithLabelValues(ResultParsed).Add(float64(parsed))
	tleRecordsTotal.WithLabelValues(ResultSkipped).Add(float64(skipped))
}

// RecordScreening counts pairs that were propagated and pairs the orbit-band
// prefilter rejected, plus the approaches found.
func RecordScreening(screened, prefiltered, found int) {
	screeningPairsTotal.WithLabelValues(ResultScreened).Add(float64(screened))
	screeningPairsTotal.WithLabelValues(ResultPrefiltered).Add(float64(prefiltered))
	closeApproachesTotal.Add(float64(found))
}

// SetTimeConstantsLoaded flips the time constants gauge.
func SetTimeConstantsLoaded(loaded bool) {
	if loaded {
		timeConstantsLoaded.Set(1)
		return
	}
	timeConstantsLoaded.Set(0)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// normalizeRoute maps request paths onto a fixed label set.
func normalizeRoute(path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
