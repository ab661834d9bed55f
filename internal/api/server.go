// Package api serves the metrics, probe and time conversion endpoints of the
// optional listener.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nate-enders/keplemon/internal/auth"
	"github.com/nate-enders/keplemon/internal/health"
	"github.com/nate-enders/keplemon/internal/httputil"
	"github.com/nate-enders/keplemon/internal/metrics"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. trustProxy controls whether
// forwarded client addresses are logged.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, trustProxy bool) *Server {
	mux := http.NewServeMux()

	// Register routes.
	health.Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/time", timeHandler)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, trustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// TimeView is an instant rendered in one time scale.
type TimeView struct {
	System string  `json:"system" yaml:"system"`
	ISO    string  `json:"iso" yaml:"iso"`
	DTG20  string  `json:"dtg20" yaml:"dtg20"`
	DS50   float64 `json:"ds50" yaml:"ds50"`
	JD     float64 `json:"julian_date" yaml:"julian_date"`
}

// NewTimeView renders e.
func NewTimeView(e timesys.Epoch) TimeView {
	return TimeView{
		System: e.System.String(),
		ISO:    e.ISO(),
		DTG20:  e.DTG20(),
		DS50:   e.DS50,
		JD:     e.JulianDate(),
	}
}

// ConvertTime parses iso in scale from and renders it in every scale. The
// source scale always succeeds; the others need the time constants table.
func ConvertTime(iso, from string) ([]TimeView, error) {
	sys, err := timesys.ParseTimeSystem(from)
	if err != nil {
		return nil, err
	}
	e, err := timesys.FromISO(iso, sys)
	if err != nil {
		return nil, err
	}
	views := make([]TimeView, 0, 4)
	for _, target := range []timesys.TimeSystem{timesys.UTC, timesys.TAI, timesys.TT, timesys.UT1} {
		conv, err := e.ToSystem(target)
		if err != nil {
			return nil, err
		}
		views = append(views, NewTimeView(conv))
	}
	return views, nil
}

// timeHandler converts ?iso=...&system=UTC into every time scale.
func timeHandler(w http.ResponseWriter, r *http.Request) {
	system := r.URL.Query().Get("system")
	if system == "" {
		system = timesys.UTC.String()
	}
	views, err := ConvertTime(r.URL.Query().Get("iso"), system)
	switch {
	case errors.Is(err, timesys.ErrParse):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
