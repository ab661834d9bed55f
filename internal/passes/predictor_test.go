package passes

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/satellite"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
	"gonum.org/v1/gonum/floats/scalar"
)

// ISS element set from February 2025.
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

var loadOnce sync.Once

func loadConstants(t testing.TB) {
	t.Helper()
	var err error
	loadOnce.Do(func() {
		_, err = timesys.LoadFile("../timesys/testdata/time_constants.dat")
	})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
}

func iss(t testing.TB) *satellite.Satellite {
	t.Helper()
	set, err := tle.FromThreeLines("ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatalf("FromThreeLines: %v", err)
	}
	sat, err := satellite.FromTLE(set, propagation.Options{})
	if err != nil {
		t.Fatalf("FromTLE: %v", err)
	}
	return sat
}

func observatory(t testing.TB, name string, lat, lon, alt float64) Observatory {
	t.Helper()
	o, err := NewObservatory(name, lat, lon, alt)
	if err != nil {
		t.Fatalf("NewObservatory: %v", err)
	}
	return o
}

func start(t testing.TB, iso string) timesys.Epoch {
	t.Helper()
	e, err := timesys.FromISO(iso, timesys.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestPredictISS(t *testing.T) {
	loadConstants(t)
	req := Request{
		Observatory:  observatory(t, "NYC", 40.7128, -74.006, 0.01),
		Satellites:   []*satellite.Satellite{iss(t)},
		Start:        start(t, "2025-02-14T12:00:00"),
		Span:         timesys.Hours(24),
		MinElevation: 0,
		MaxPasses:    10,
	}

	results := Predict(context.Background(), req)
	if len(results) != 1 {
		t.Fatalf("expected 1 satellite result, got %d", len(results))
	}

	sat := results[0]
	if sat.SatelliteID != 25544 || sat.Name != "ISS (ZARYA)" {
		t.Errorf("identity = %d %q", sat.SatelliteID, sat.Name)
	}
	if sat.Error != "" {
		t.Fatalf("unexpected error: %s", sat.Error)
	}
	if len(sat.Passes) == 0 {
		t.Fatal("expected at least 1 ISS pass over NYC in 24h")
	}

	for i, p := range sat.Passes {
		if p.DurationSeconds < minPassDurSec {
			t.Errorf("pass %d: duration %.1fs too short", i, p.DurationSeconds)
		}
		if p.MaxElevation <= 0 || p.MaxElevation > 90 {
			t.Errorf("pass %d: max elevation %.2f out of range", i, p.MaxElevation)
		}
		for _, az := range []float64{p.AzimuthAtMax, p.StartAzimuth, p.EndAzimuth} {
			if az < 0 || az >= 360 {
				t.Errorf("pass %d: azimuth %.2f out of range", i, az)
			}
		}
		if !p.Start.Before(p.MaxElevationAt) || !p.MaxElevationAt.Before(p.End) {
			t.Errorf("pass %d: time ordering violated: start=%s max=%s end=%s", i, p.Start, p.MaxElevationAt, p.End)
		}
		if i > 0 && !sat.Passes[i-1].End.Before(p.Start) {
			t.Errorf("pass %d overlaps the previous one", i)
		}

		if len(p.GroundTrack) == 0 {
			t.Errorf("pass %d: expected ground track points, got none", i)
		}
		for j, gt := range p.GroundTrack {
			if gt.Latitude < -90 || gt.Latitude > 90 || gt.Longitude < -180 || gt.Longitude > 180 {
				t.Errorf("pass %d gt %d: lat/lon %.2f/%.2f out of range", i, j, gt.Latitude, gt.Longitude)
			}
			if gt.AltitudeKm < 100 || gt.AltitudeKm > 1000 {
				t.Errorf("pass %d gt %d: altitude %.0f km out of LEO range", i, j, gt.AltitudeKm)
			}
			if gt.Elevation < 0 || gt.Elevation > 90 {
				t.Errorf("pass %d gt %d: elevation %.2f out of range (0-90)", i, j, gt.Elevation)
			}
		}
	}
}

func TestPredictMinElevationFilter(t *testing.T) {
	loadConstants(t)
	base := Request{
		Observatory: observatory(t, "NYC", 40.7128, -74.006, 0.01),
		Satellites:  []*satellite.Satellite{iss(t)},
		Start:       start(t, "2025-02-14T12:00:00"),
		Span:        timesys.Hours(48),
		MaxPasses:   20,
	}
	high := base
	high.MinElevation = 45

	nLow := len(Predict(context.Background(), base)[0].Passes)
	nHigh := len(Predict(context.Background(), high)[0].Passes)

	if nLow == 0 {
		t.Fatal("expected passes with min elevation 0")
	}
	if nHigh >= nLow {
		t.Errorf("min elevation 45 passes (%d) should be fewer than min elevation 0 passes (%d)", nHigh, nLow)
	}
}

func TestPredictMaxPasses(t *testing.T) {
	loadConstants(t)
	req := Request{
		Observatory: observatory(t, "NYC", 40.7128, -74.006, 0.01),
		Satellites:  []*satellite.Satellite{iss(t)},
		Start:       start(t, "2025-02-14T12:00:00"),
		Span:        timesys.Hours(48),
		MaxPasses:   1,
	}
	if n := len(Predict(context.Background(), req)[0].Passes); n != 1 {
		t.Errorf("got %d passes, want 1", n)
	}
}

func TestPredictCancellation(t *testing.T) {
	loadConstants(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{
		Observatory: observatory(t, "NYC", 40.7128, -74.006, 0.01),
		Satellites:  []*satellite.Satellite{iss(t)},
		Start:       start(t, "2025-02-14T12:00:00"),
		Span:        timesys.Hours(24),
		MaxPasses:   10,
	}

	results := Predict(ctx, req)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(results[0].Passes) != 0 {
		t.Errorf("cancelled prediction returned %d passes", len(results[0].Passes))
	}
}

func TestPredictUnpropagatable(t *testing.T) {
	loadConstants(t)
	epoch := start(t, "2025-02-14T12:00:00")
	el, _ := elements.NewKeplerianElements(6000, 0, 10, 0, 0, 0)
	state, err := elements.NewKeplerianState(epoch, el, elements.TEME, elements.Osculating)
	if err != nil {
		t.Fatal(err)
	}
	buried, err := satellite.FromKeplerianState(99999, "BAD SAT", state, elements.DefaultForceProperties(), propagation.Options{})
	if err != nil {
		t.Fatal(err)
	}

	req := Request{
		Observatory: observatory(t, "NYC", 40.7128, -74.006, 0.01),
		Satellites:  []*satellite.Satellite{iss(t), buried},
		Start:       epoch,
		Span:        timesys.Hours(6),
		MaxPasses:   10,
		Workers:     2,
	}

	results := Predict(context.Background(), req)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != "" {
		t.Errorf("ISS should succeed, got error: %s", results[0].Error)
	}
	if results[1].Error == "" || results[1].SatelliteID != 99999 {
		t.Errorf("sub-surface orbit should report a per-satellite error, got %+v", results[1])
	}
}

func TestNewObservatory(t *testing.T) {
	o, err := NewObservatory("Maui", 20.7, 203.7, 3.05)
	if err != nil {
		t.Fatalf("NewObservatory: %v", err)
	}
	if loc := o.Location(); !scalar.EqualWithinAbs(loc.LonDeg, -156.3, 1e-9) || loc.LatDeg != 20.7 || loc.AltKm != 3.05 {
		t.Errorf("Location = %+v", loc)
	}

	for _, bad := range [][3]float64{{91, 0, 0}, {-91, 0, 0}, {0, -181, 0}, {0, 361, 0}, {math.NaN(), 0, 0}} {
		if _, err := NewObservatory("bad", bad[0], bad[1], bad[2]); !errors.Is(err, elements.ErrValidation) {
			t.Errorf("NewObservatory(%v) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestObservatoryTEMEState(t *testing.T) {
	loadConstants(t)
	o := observatory(t, "Equator", 0, 0, 0)
	e := start(t, "2025-02-14T12:00:00")

	st, err := o.TEMEState(e)
	if err != nil {
		t.Fatalf("TEMEState: %v", err)
	}
	if st.Frame != elements.TEME || !st.Epoch.Equal(e) {
		t.Errorf("state tagged %s at %s", st.Frame, st.Epoch)
	}
	if r := st.Position.Magnitude(); !scalar.EqualWithinAbs(r, 6378.137, 1e-6) {
		t.Errorf("radius = %v km, want the equatorial radius", r)
	}
	if v := st.Velocity.Magnitude(); !scalar.EqualWithinAbs(v, 6378.137*7.292115146706979e-5, 1e-6) {
		t.Errorf("speed = %v km/s, want the rotation speed at the equator", v)
	}
	if math.Abs(st.Position.Z) > 1e-9 {
		t.Errorf("equatorial site has z = %v", st.Position.Z)
	}

	// The site seen from itself is straight up.
	la, _, err := o.LookAngles(elements.CartesianState{
		Epoch:    e,
		Position: st.Position.Scale(1.1),
		Frame:    elements.TEME,
	})
	if err != nil {
		t.Fatalf("LookAngles: %v", err)
	}
	if !scalar.EqualWithinAbs(la.ElevationDeg, 90, 1e-6) || !scalar.EqualWithinAbs(la.RangeKm, 637.8137, 1e-6) {
		t.Errorf("look angles = %+v, want zenith at 637.8 km", la)
	}
}

// haversineKm computes the great-circle distance (km) between two geodetic points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// maxGroundDistKm returns the maximum great-circle distance (km) between observer and
// sub-satellite point for an elevation (degrees) and satellite altitude (km).
// Uses the geometry: ρ = acos(R·cos(ε)/(R+h)) − ε.
func maxGroundDistKm(elevDeg, altKm float64) float64 {
	const R = 6371.0
	elevRad := elevDeg * math.Pi / 180
	arg := math.Min(R*math.Cos(elevRad)/(R+altKm), 1)
	return R * math.Max(math.Acos(arg)-elevRad, 0)
}

// TestGroundTrackPhysicalConsistency checks each ground-track point against its
// elevation: a satellite at elevation ε and altitude h is at most
// ρ = acos(R·cos(ε)/(R+h))−ε radians from the observer.
func TestGroundTrackPhysicalConsistency(t *testing.T) {
	loadConstants(t)
	const lat, lon = 27.5867, -82.4251

	req := Request{
		Observatory: observatory(t, "Parrish FL", lat, lon, 0),
		Satellites:  []*satellite.Satellite{iss(t)},
		Start:       start(t, "2025-02-14T00:00:00"),
		Span:        timesys.Hours(24),
		MaxPasses:   20,
	}

	results := Predict(context.Background(), req)
	sat := results[0]
	if sat.Error != "" {
		t.Fatalf("satellite error: %s", sat.Error)
	}
	if len(sat.Passes) == 0 {
		t.Fatal("no passes found over Parrish FL in 24h")
	}

	for pi, p := range sat.Passes {
		for gi, gt := range p.GroundTrack {
			dist := haversineKm(lat, lon, gt.Latitude, gt.Longitude)
			maxPossible := maxGroundDistKm(gt.Elevation, gt.AltitudeKm)
			if maxPossible > 0 && dist > maxPossible*1.5 {
				t.Errorf("pass %d gt[%d]: dist %.0fkm exceeds max physical %.0fkm (el=%.1f° alt=%.0fkm)",
					pi, gi, dist, maxPossible, gt.Elevation, gt.AltitudeKm)
			}
		}
	}
}

func BenchmarkPredict100Sats24h(b *testing.B) {
	loadConstants(b)
	one := iss(b)
	sats := make([]*satellite.Satellite, 100)
	for i := range sats {
		sats[i] = one
	}
	req := Request{
		Observatory:  observatory(b, "NYC", 40.7128, -74.006, 0.01),
		Satellites:   sats,
		Start:        start(b, "2025-02-14T12:00:00"),
		Span:         timesys.Hours(24),
		MinElevation: 10,
		MaxPasses:    10,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Predict(context.Background(), req)
	}
}
