package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},

		// Unknown/bot paths collapse to "other".
		{"/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/metrics/extra", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRecordPropagation(t *testing.T) {
	okBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues(ResultOK))
	errBefore := testutil.ToFloat64(propagationsTotal.WithLabelValues(ResultError))

	RecordPropagation(nil)
	RecordPropagation(nil)
	RecordPropagation(errors.New("decayed"))

	if got := testutil.ToFloat64(propagationsTotal.WithLabelValues(ResultOK)) - okBefore; got != 2 {
		t.Errorf("ok count delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(propagationsTotal.WithLabelValues(ResultError)) - errBefore; got != 1 {
		t.Errorf("error count delta = %v, want 1", got)
	}
}

func TestRecordTLERecordsAndScreening(t *testing.T) {
	parsed := testutil.ToFloat64(tleRecordsTotal.WithLabelValues(ResultParsed))
	skipped := testutil.ToFloat64(tleRecordsTotal.WithLabelValues(ResultSkipped))
	found := testutil.ToFloat64(closeApproachesTotal)

	RecordTLERecords(10, 2)
	RecordScreening(5, 40, 3)

	if d := testutil.ToFloat64(tleRecordsTotal.WithLabelValues(ResultParsed)) - parsed; d != 10 {
		t.Errorf("parsed delta = %v, want 10", d)
	}
	if d := testutil.ToFloat64(tleRecordsTotal.WithLabelValues(ResultSkipped)) - skipped; d != 2 {
		t.Errorf("skipped delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(closeApproachesTotal) - found; d != 3 {
		t.Errorf("close approaches delta = %v, want 3", d)
	}
}

func TestTimeConstantsGauge(t *testing.T) {
	SetTimeConstantsLoaded(true)
	if got := testutil.ToFloat64(timeConstantsLoaded); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
	SetTimeConstantsLoaded(false)
	if got := testutil.ToFloat64(timeConstantsLoaded); got != 0 {
		t.Errorf("gauge = %v, want 0", got)
	}
}

func TestObserveBatch(t *testing.T) {
	ObserveBatch("test", time.Now().Add(-10*time.Millisecond))
	if n := testutil.CollectAndCount(batchDurationSeconds); n < 1 {
		t.Errorf("batch histogram series = %d, want >= 1", n)
	}
}

// TestMiddlewareCardinality verifies that arbitrary paths produce a single
// "other" label.
func TestMiddlewareCardinality(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/probe/"+string(rune('a'+i%26)), nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", http.MethodGet, "404")); got != 100 {
		t.Errorf("other/GET/404 count = %v, want 100", got)
	}
}
