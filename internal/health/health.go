package health

import (
	"net/http"

	"github.com/nate-enders/keplemon/internal/timesys"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns 200 "ready\n" once the time constants table is installed,
// and 503 before that.
func Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if !timesys.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("time constants not loaded\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}

// Register mounts both probes on mux.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /readyz", Readyz)
}
