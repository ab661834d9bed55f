package timesys

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestFromISODays(t *testing.T) {
	e, err := FromISO("2025-04-02T04:02:42.420", UTC)
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	if e.DS50 != 27486.168546527777 {
		t.Errorf("DS50 = %.12f, want 27486.168546527777", e.DS50)
	}
	if e.System != UTC {
		t.Errorf("System = %s, want UTC", e.System)
	}
}

func TestDS50Reference(t *testing.T) {
	e, err := FromISO("1950-01-01T00:00:00.000", UTC)
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	if e.DS50 != 1.0 {
		t.Errorf("DS50 of 1950-01-01 = %v, want 1.0", e.DS50)
	}
}

func TestISORoundTrip(t *testing.T) {
	inputs := []string{
		"2025-04-02T04:02:42.420",
		"2000-01-01T12:00:00.000",
		"1999-12-31T23:59:59.999",
		"2024-02-29T00:00:00.001",
		"1957-10-04T19:28:34.000",
		"2049-06-15T08:30:15.250",
	}
	for _, sys := range []TimeSystem{UTC, TAI, TT, UT1} {
		for _, in := range inputs {
			t.Run(sys.String()+"/"+in, func(t *testing.T) {
				e, err := FromISO(in, sys)
				if err != nil {
					t.Fatalf("FromISO: %v", err)
				}
				if got := e.ISO(); got != in {
					t.Errorf("ISO() = %q, want %q", got, in)
				}
				back := FromDS50(e.DS50, e.System)
				if !back.Equal(e) {
					t.Errorf("FromDS50 round trip = %v, want %v", back, e)
				}
			})
		}
	}
}

func TestFromISOAcceptsZulu(t *testing.T) {
	a, err := FromISO("2025-04-15T12:00:00Z", UTC)
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	b, err := FromISO("2025-04-15T12:00:00.000", UTC)
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("Z suffix changed the instant: %v vs %v", a, b)
	}
}

func TestFromISOErrors(t *testing.T) {
	bad := []string{
		"",
		"2025-04-02",
		"2025-13-01T00:00:00",
		"2025-02-30T00:00:00",
		"2025-04-02T24:00:00",
		"2016-12-31T23:59:60",
		"not a date",
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			if _, err := FromISO(in, UTC); !errors.Is(err, ErrParse) {
				t.Errorf("FromISO(%q) error = %v, want ErrParse", in, err)
			}
		})
	}
}

func TestDTG20(t *testing.T) {
	e, err := FromISO("2025-04-02T04:02:42.420", UTC)
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	if got := e.DTG20(); got != "2025/092 0402 42.420" {
		t.Errorf("DTG20() = %q, want %q", got, "2025/092 0402 42.420")
	}

	back, err := FromDTG20("2025/092 0402 42.420", UTC)
	if err != nil {
		t.Fatalf("FromDTG20: %v", err)
	}
	if back.DS50 != e.DS50 {
		t.Errorf("FromDTG20 DS50 = %.12f, want %.12f", back.DS50, e.DS50)
	}
}

func TestFromDTG20Errors(t *testing.T) {
	for _, in := range []string{"2025-092 0402 42.420", "2025/367 0000 00.000", "2025/092 2500 00.000", "2025/092"} {
		if _, err := FromDTG20(in, UTC); !errors.Is(err, ErrParse) {
			t.Errorf("FromDTG20(%q) error = %v, want ErrParse", in, err)
		}
	}
}

func TestComponentsRoundTrip(t *testing.T) {
	tests := []TimeComponents{
		{Year: 2025, Month: 4, Day: 2, Hour: 4, Minute: 2, Second: 42.42},
		{Year: 1972, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 0},
		{Year: 2020, Month: 7, Day: 18, Hour: 12, Minute: 23, Second: 6.0},
		{Year: 2030, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59.5},
	}
	for _, c := range tests {
		t.Run(c.String(), func(t *testing.T) {
			e, err := FromComponents(c, TAI)
			if err != nil {
				t.Fatalf("FromComponents: %v", err)
			}
			got := e.Components()
			if !got.Equal(c) {
				t.Errorf("Components() = %v, want %v", got, c)
			}
		})
	}
}

func TestComponentsEveryMinute(t *testing.T) {
	for _, system := range []TimeSystem{UTC, TAI} {
		for min := 0; min < 24*60; min++ {
			c := TimeComponents{Year: 2025, Month: 4, Day: 2, Hour: min / 60, Minute: min % 60}
			e, err := FromComponents(c, system)
			if err != nil {
				t.Fatalf("FromComponents(%v): %v", c, err)
			}
			if got := e.Components(); !got.Equal(c) {
				t.Fatalf("FromComponents(%v).Components() = %v", c, got)
			}
		}
	}
}

func TestComponentsCarryIntoNextDay(t *testing.T) {
	e := FromDS50(dayNumber(2024, 12, 31)+1-1e-12, UTC)
	want := TimeComponents{Year: 2025, Month: 1, Day: 1}
	if got := e.Components(); !got.Equal(want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestFromComponentsValidation(t *testing.T) {
	bad := []TimeComponents{
		{Year: 2025, Month: 0, Day: 1},
		{Year: 2025, Month: 2, Day: 29},
		{Year: 2025, Month: 1, Day: 1, Hour: 24},
		{Year: 2025, Month: 1, Day: 1, Minute: 60},
		{Year: 2025, Month: 1, Day: 1, Second: 60},
	}
	for _, c := range bad {
		if _, err := FromComponents(c, UTC); !errors.Is(err, ErrParse) {
			t.Errorf("FromComponents(%v) error = %v, want ErrParse", c, err)
		}
	}
}

func TestISORoundsIntoNextDay(t *testing.T) {
	e := FromDS50(27486.0-1e-9, UTC)
	if got := e.ISO(); got != "2025-04-02T00:00:00.000" {
		t.Errorf("ISO() = %q, want carry into next day", got)
	}
}

func TestEpochArithmetic(t *testing.T) {
	start, _ := FromISO("2025-04-15T12:00:00.000", UTC)
	end := start.Add(Hours(24))
	if got := end.ISO(); got != "2025-04-16T12:00:00.000" {
		t.Errorf("Add(24h) = %s", got)
	}
	if d := end.Sub(start); !scalar.EqualWithinAbs(d.InHours(), 24, 1e-9) {
		t.Errorf("Sub = %v h, want 24", d.InHours())
	}
	if !start.Before(end) || !end.After(start) {
		t.Error("ordering of start and end is wrong")
	}
	if start.Compare(start) != 0 {
		t.Error("Compare with itself should be 0")
	}
}

func TestSubAcrossScalesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when subtracting TAI from UTC")
		}
	}()
	a := FromDS50(27486, UTC)
	b := FromDS50(27486, TAI)
	_ = a.Sub(b)
}

func TestTimeConversion(t *testing.T) {
	e, _ := FromISO("2004-04-06T07:51:28.386", UTC)
	tm := e.Time()
	if tm.Year() != 2004 || tm.Month() != 4 || tm.Day() != 6 || tm.Hour() != 7 || tm.Minute() != 51 || tm.Second() != 28 {
		t.Errorf("Time() = %v", tm)
	}
	if ms := tm.Nanosecond() / 1e6; ms != 386 {
		t.Errorf("Time() milliseconds = %d, want 386", ms)
	}
	if back := FromTime(tm, UTC); back.ISO() != e.ISO() {
		t.Errorf("FromTime(Time()) = %s, want %s", back.ISO(), e.ISO())
	}
}

func TestJulianDate(t *testing.T) {
	e, _ := FromISO("2000-01-01T12:00:00.000", TT)
	if jd := e.JulianDate(); jd != 2451545.0 {
		t.Errorf("JulianDate = %.6f, want 2451545.0", jd)
	}
}

func TestParseTimeSystem(t *testing.T) {
	for _, sys := range []TimeSystem{UTC, TAI, TT, UT1} {
		got, err := ParseTimeSystem(sys.String())
		if err != nil || got != sys {
			t.Errorf("ParseTimeSystem(%q) = %v, %v", sys.String(), got, err)
		}
	}
	if _, err := ParseTimeSystem("GPS"); !errors.Is(err, ErrParse) {
		t.Errorf("ParseTimeSystem(GPS) error = %v, want ErrParse", err)
	}
}

func TestTimeSpanConversions(t *testing.T) {
	s := Hours(1.5)
	if s.InDays() != 0.0625 {
		t.Errorf("InDays = %v, want 0.0625", s.InDays())
	}
	if s.InMinutes() != 90 {
		t.Errorf("InMinutes = %v, want 90", s.InMinutes())
	}
	if s.InSeconds() != 5400 {
		t.Errorf("InSeconds = %v, want 5400", s.InSeconds())
	}
	if s.InHours() != 1.5 {
		t.Errorf("InHours = %v, want 1.5", s.InHours())
	}
	if Days(1).InSeconds() != 86400 || Minutes(1440).InDays() != 1 || Seconds(3600).InHours() != 1 {
		t.Error("unit relations 1 d = 1440 min = 86400 s do not hold")
	}
	if Minutes(10).InMinutes() != 10 {
		t.Errorf("Minutes(10).InMinutes() = %v", Minutes(10).InMinutes())
	}
	if got := Seconds(90).Add(Seconds(-30)).InMinutes(); got != 1 {
		t.Errorf("Add = %v min, want 1", got)
	}
}
