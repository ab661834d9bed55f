package satellite

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	ses3Line1  = "1 37605U 11022A   25105.58543138  .00000096  00000+0  00000+0 0  9990"
	ses3Line2a = "2 37605   1.0234  87.2060 0005091 220.8721 161.7206  1.00271635 50950"
	ses3Line2b = "2 37605   2.1234  87.2060 0006091 220.8721 161.7206  1.00271635 50950"
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

func mustSatellite(t testing.TB, name, l1, l2 string) *Satellite {
	t.Helper()
	set, err := tle.FromThreeLines(name, l1, l2)
	if err != nil {
		t.Fatalf("FromThreeLines: %v", err)
	}
	sat, err := FromTLE(set, propagation.Options{})
	if err != nil {
		t.Fatalf("FromTLE: %v", err)
	}
	return sat
}

func circularEquatorial(t *testing.T, epoch timesys.Epoch) *Satellite {
	t.Helper()
	el, err := elements.NewKeplerianElements(7000, 0, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	state, err := elements.NewKeplerianState(epoch, el, elements.TEME, elements.Osculating)
	if err != nil {
		t.Fatal(err)
	}
	sat, err := FromKeplerianState(90001, "TEST", state, elements.DefaultForceProperties(), propagation.Options{})
	if err != nil {
		t.Fatalf("FromKeplerianState: %v", err)
	}
	return sat
}

func TestFromTLE(t *testing.T) {
	sat := mustSatellite(t, "ISS (ZARYA)", issLine1, issLine2)
	if sat.ID() != 25544 || sat.Name() != "ISS (ZARYA)" {
		t.Errorf("identity = %d %q", sat.ID(), sat.Name())
	}
	if got := sat.String(); got != "25544 (ISS (ZARYA))" {
		t.Errorf("String() = %q", got)
	}
	if sat.KeplerianState().Type != elements.MeanKozaiGP {
		t.Errorf("type = %s, want Kozai GP", sat.KeplerianState().Type)
	}
	if sat.ForceProperties().DragCoefficient >= 0 {
		t.Errorf("drag coefficient %v should carry the negative B*", sat.ForceProperties().DragCoefficient)
	}

	band := sat.Band()
	if band.PeriapsisKm >= band.ApoapsisKm || band.PeriapsisKm < 6600 || band.ApoapsisKm > 6800 {
		t.Errorf("band = %+v", band)
	}
	if band.PeriapsisKm != sat.Periapsis() || band.ApoapsisKm != sat.Apoapsis() {
		t.Errorf("band %+v does not match periapsis/apoapsis", band)
	}

	st, err := sat.StateAt(sat.KeplerianState().Epoch)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if st.Frame != elements.TEME {
		t.Errorf("frame = %s, want TEME", st.Frame)
	}
}

func TestFromKeplerianStateRejects(t *testing.T) {
	epoch, _ := timesys.FromISO("2025-04-15T00:00:00", timesys.UTC)
	bad := elements.KeplerianState{
		Epoch:    epoch,
		Elements: elements.KeplerianElements{SemiMajorAxis: 7000, Eccentricity: 1.5},
		Frame:    elements.TEME,
		Type:     elements.Osculating,
	}
	if _, err := FromKeplerianState(1, "", bad, elements.DefaultForceProperties(), propagation.Options{}); !errors.Is(err, elements.ErrValidation) {
		t.Errorf("hyperbolic state: %v, want ErrValidation", err)
	}
}

func TestEphemerisIncludesEnd(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	end := start.Add(timesys.Seconds(250))

	eph, err := sat.Ephemeris(start, end, timesys.Seconds(60))
	if err != nil {
		t.Fatalf("Ephemeris: %v", err)
	}
	if eph.ID() != 25544 {
		t.Errorf("ID = %d", eph.ID())
	}
	if eph.Len() != 6 {
		t.Fatalf("Len = %d, want 6 (0, 60, ..., 240, 250)", eph.Len())
	}
	first, last, ok := eph.Span()
	if !ok || !first.Equal(start) || !last.Equal(end) {
		t.Errorf("span = [%s, %s], want [%s, %s]", first, last, start, end)
	}
	states := eph.States()
	for i := 1; i < len(states); i++ {
		if !states[i-1].Epoch.Before(states[i].Epoch) {
			t.Errorf("states out of order at %d", i)
		}
	}
}

func TestEphemerisWholeSteps(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	end := start.Add(timesys.Minutes(10))

	eph, err := sat.Ephemeris(start, end, timesys.Minutes(1))
	if err != nil {
		t.Fatalf("Ephemeris: %v", err)
	}
	if eph.Len() != 11 {
		t.Fatalf("Len = %d, want 11", eph.Len())
	}
	if _, last, _ := eph.Span(); !last.Equal(end) {
		t.Errorf("last epoch = %s, want %s", last, end)
	}
	states := eph.States()
	for i := 1; i < len(states); i++ {
		gap := states[i].Epoch.Sub(states[i-1].Epoch).InSeconds()
		if !scalar.EqualWithinAbs(gap, 60, 1e-3) {
			t.Errorf("gap %d = %.9f s, want 60", i, gap)
		}
	}

	for _, off := range []float64{30, 450, 570, 595} {
		at := start.Add(timesys.Seconds(off))
		got, err := eph.StateAt(at)
		if err != nil {
			t.Fatalf("StateAt(+%v s): %v", off, err)
		}
		want, _ := sat.StateAt(at)
		if d := got.DistanceTo(want); math.IsNaN(d) || d > 1e-3 {
			t.Errorf("+%v s: interpolation off by %g km", off, d)
		}
	}
}

func TestEphemerisAddCoincident(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	eph := NewEphemeris(sat.ID())
	for _, off := range []float64{0, 60, 60 + 1e-7, 120} {
		st, err := sat.StateAt(start.Add(timesys.Seconds(off)))
		if err != nil {
			t.Fatalf("StateAt: %v", err)
		}
		if err := eph.Add(st); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if eph.Len() != 3 {
		t.Fatalf("Len = %d, want 3", eph.Len())
	}
	st, err := eph.StateAt(start.Add(timesys.Seconds(60 + 5e-7)))
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if r := st.Position.Magnitude(); math.IsInf(r, 0) || math.IsNaN(r) {
		t.Errorf("radius = %v", r)
	}
}

func TestEphemerisRejects(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	if _, err := sat.Ephemeris(start, start.Add(timesys.Seconds(-1)), timesys.Seconds(60)); !errors.Is(err, elements.ErrValidation) {
		t.Errorf("end before start: %v", err)
	}
	if _, err := sat.Ephemeris(start, start.Add(timesys.Seconds(60)), timesys.TimeSpan{}); !errors.Is(err, elements.ErrValidation) {
		t.Errorf("zero step: %v", err)
	}
}

func TestEphemerisInterpolation(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	eph, err := sat.Ephemeris(start, start.Add(timesys.Minutes(30)), timesys.Seconds(60))
	if err != nil {
		t.Fatalf("Ephemeris: %v", err)
	}

	for _, off := range []float64{0, 30.5, 95.25, 890, 1770, 1800} {
		at := start.Add(timesys.Seconds(off))
		got, err := eph.StateAt(at)
		if err != nil {
			t.Fatalf("StateAt(+%v): %v", off, err)
		}
		want, err := sat.StateAt(at)
		if err != nil {
			t.Fatal(err)
		}
		if d := got.Position.DistanceTo(want.Position); d > 1e-3 {
			t.Errorf("+%v s: interpolated position off by %v km", off, d)
		}
		if d := got.Velocity.DistanceTo(want.Velocity); d > 1e-5 {
			t.Errorf("+%v s: interpolated velocity off by %v km/s", off, d)
		}
	}

	for _, off := range []float64{-1, 1801} {
		if _, err := eph.StateAt(start.Add(timesys.Seconds(off))); !errors.Is(err, ErrOutOfSpan) {
			t.Errorf("StateAt(+%v) error = %v, want ErrOutOfSpan", off, err)
		}
	}
	if _, err := NewEphemeris(1).StateAt(start); !errors.Is(err, ErrOutOfSpan) {
		t.Errorf("empty ephemeris: %v, want ErrOutOfSpan", err)
	}
}

func TestEphemerisAdd(t *testing.T) {
	start, _ := timesys.FromISO("2025-04-15T00:00:00", timesys.UTC)
	eph := NewEphemeris(7)
	at := func(s float64, x float64) elements.CartesianState {
		return elements.CartesianState{
			Epoch:    start.Add(timesys.Seconds(s)),
			Position: elements.CartesianVector{X: x},
			Frame:    elements.TEME,
		}
	}

	for _, s := range []elements.CartesianState{at(120, 2), at(0, 0), at(60, 1)} {
		if err := eph.Add(s); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := eph.Add(at(60, 10)); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	states := eph.States()
	if len(states) != 3 {
		t.Fatalf("Len = %d, want 3", len(states))
	}
	if states[0].Position.X != 0 || states[1].Position.X != 10 || states[2].Position.X != 2 {
		t.Errorf("positions = %v, %v, %v", states[0].Position, states[1].Position, states[2].Position)
	}

	j2000 := at(180, 3)
	j2000.Frame = elements.J2000
	if err := eph.Add(j2000); !errors.Is(err, elements.ErrValidation) {
		t.Errorf("Add(J2000) = %v, want ErrValidation", err)
	}
}

func TestEphemerisAddConvertsScale(t *testing.T) {
	loadConstants(t)
	start, _ := timesys.FromISO("2025-04-15T00:00:00", timesys.UTC)
	eph := NewEphemeris(7)
	if err := eph.Add(elements.CartesianState{Epoch: start, Frame: elements.TEME}); err != nil {
		t.Fatal(err)
	}
	tai, err := start.Add(timesys.Seconds(60)).ToSystem(timesys.TAI)
	if err != nil {
		t.Fatal(err)
	}
	if err := eph.Add(elements.CartesianState{Epoch: tai, Frame: elements.TEME}); err != nil {
		t.Fatal(err)
	}
	_, last, _ := eph.Span()
	if last.System != timesys.UTC || !scalar.EqualWithinAbs(last.Sub(start).InSeconds(), 60, 1e-6) {
		t.Errorf("last epoch = %s %s, want start + 60 s in UTC", last, last.System)
	}
}

func TestSingleStateEphemeris(t *testing.T) {
	start, _ := timesys.FromISO("2025-04-15T00:00:00", timesys.UTC)
	eph := NewEphemeris(3)
	s := elements.CartesianState{Epoch: start, Position: elements.CartesianVector{X: 7000}, Frame: elements.TEME}
	if err := eph.Add(s); err != nil {
		t.Fatal(err)
	}
	got, err := eph.StateAt(start)
	if err != nil || got != s {
		t.Errorf("StateAt = %v, %v", got, err)
	}
}

func TestCloseApproach(t *testing.T) {
	a := mustSatellite(t, "SES-3", ses3Line1, ses3Line2a)
	b := mustSatellite(t, "SES-3 (TILTED)", ses3Line1, ses3Line2b)
	start, _ := timesys.FromISO("2025-04-15T12:00:00", timesys.UTC)
	end, _ := timesys.FromISO("2025-04-16T12:00:00", timesys.UTC)

	direct, err := a.CloseApproach(b, start, end, 25)
	if err != nil || direct == nil {
		t.Fatalf("CloseApproach = %v, %v", direct, err)
	}
	if direct.PrimaryID != 37605 || direct.SecondaryID != 37605 {
		t.Errorf("ids = %d, %d", direct.PrimaryID, direct.SecondaryID)
	}

	ea, err := a.Ephemeris(start, end, timesys.Minutes(5))
	if err != nil {
		t.Fatal(err)
	}
	eb, err := b.Ephemeris(start, end, timesys.Minutes(5))
	if err != nil {
		t.Fatal(err)
	}
	sampled, err := ea.CloseApproach(eb, 25)
	if err != nil || sampled == nil {
		t.Fatalf("Ephemeris.CloseApproach = %v, %v", sampled, err)
	}
	if d := math.Abs(sampled.Epoch.Sub(direct.Epoch).InSeconds()); d > 5 {
		t.Errorf("ephemeris epoch %s vs propagated %s", sampled.Epoch, direct.Epoch)
	}
	if !scalar.EqualWithinAbs(sampled.DistanceKm, direct.DistanceKm, 1e-2) {
		t.Errorf("ephemeris distance %v vs propagated %v", sampled.DistanceKm, direct.DistanceKm)
	}
}

func TestEphemerisCloseApproachDisjoint(t *testing.T) {
	sat := mustSatellite(t, "", issLine1, issLine2)
	start := sat.KeplerianState().Epoch
	first, err := sat.Ephemeris(start, start.Add(timesys.Minutes(10)), timesys.Minutes(1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := sat.Ephemeris(start.Add(timesys.Minutes(20)), start.Add(timesys.Minutes(30)), timesys.Minutes(1))
	if err != nil {
		t.Fatal(err)
	}
	if ca, err := first.CloseApproach(second, 1e6); err != nil || ca != nil {
		t.Errorf("disjoint spans = %v, %v; want nil, nil", ca, err)
	}
	if _, err := first.CloseApproach(NewEphemeris(2), 10); !errors.Is(err, ErrOutOfSpan) {
		t.Errorf("empty other: %v, want ErrOutOfSpan", err)
	}
}

func TestGeodeticAt(t *testing.T) {
	loadConstants(t)
	epoch, _ := timesys.FromISO("2025-04-15T00:00:00", timesys.UTC)
	sat := circularEquatorial(t, epoch)

	for _, off := range []float64{0, 1200, 3600} {
		g, err := sat.GeodeticAt(epoch.Add(timesys.Seconds(off)))
		if err != nil {
			t.Fatalf("GeodeticAt: %v", err)
		}
		if math.Abs(g.LatDeg) > 1e-9 {
			t.Errorf("+%v s: latitude = %v, want 0", off, g.LatDeg)
		}
		if !scalar.EqualWithinAbs(g.AltKm, 7000-6378.137, 1e-6) {
			t.Errorf("+%v s: altitude = %v", off, g.AltKm)
		}
		if g.LonDeg < -180 || g.LonDeg > 180 {
			t.Errorf("+%v s: longitude %v out of range", off, g.LonDeg)
		}
	}
}
