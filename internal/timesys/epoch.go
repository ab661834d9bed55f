package timesys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const isoLayout = "2006-01-02T15:04:05"

const microsPerDay = 86400e6

// Epoch is an instant in a specific time scale, held as days since
// 1950 January 0.0 (DS50). 1950-01-01T00:00:00 is DS50 1.0.
type Epoch struct {
	DS50   float64
	System TimeSystem
}

// FromDS50 constructs an Epoch directly from its day count.
func FromDS50(ds50 float64, system TimeSystem) Epoch {
	return Epoch{DS50: ds50, System: system}
}

// FromISO parses YYYY-MM-DDTHH:MM:SS[.fff...][Z] read in the given scale.
// A trailing Z is accepted but carries no scale information.
func FromISO(text string, system TimeSystem) (Epoch, error) {
	s := strings.TrimSuffix(strings.TrimSpace(text), "Z")
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Epoch{}, fmt.Errorf("parsing ISO instant %q: %v: %w", text, err, ErrParse)
	}
	return FromTime(t, system), nil
}

// FromTime reads the calendar fields of t (in UTC location) as an instant of
// the given scale.
func FromTime(t time.Time, system TimeSystem) Epoch {
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	day := dayNumber(t.Year(), int(t.Month()), t.Day())
	return Epoch{DS50: ds50FromParts(day, t.Hour(), t.Minute(), sec), System: system}
}

// FromComponents builds an Epoch from a calendar decomposition.
func FromComponents(c TimeComponents, system TimeSystem) (Epoch, error) {
	if err := c.validate(); err != nil {
		return Epoch{}, err
	}
	day := dayNumber(c.Year, c.Month, c.Day)
	return Epoch{DS50: ds50FromParts(day, c.Hour, c.Minute, c.Second), System: system}, nil
}

// FromDTG20 parses the fixed-width "YYYY/DDD HHMM SS.sss" format.
func FromDTG20(text string, system TimeSystem) (Epoch, error) {
	s := strings.TrimSpace(text)
	bad := func(reason string) (Epoch, error) {
		return Epoch{}, fmt.Errorf("parsing DTG-20 %q: %s: %w", text, reason, ErrParse)
	}
	if len(s) < 16 || s[4] != '/' || s[8] != ' ' || s[13] != ' ' {
		return bad("layout")
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return bad("year")
	}
	doy, err := strconv.Atoi(s[5:8])
	if err != nil {
		return bad("day of year")
	}
	hour, err := strconv.Atoi(s[9:11])
	if err != nil || hour > 23 {
		return bad("hour")
	}
	minute, err := strconv.Atoi(s[11:13])
	if err != nil || minute > 59 {
		return bad("minute")
	}
	sec, err := strconv.ParseFloat(s[14:], 64)
	if err != nil || sec < 0 || sec >= 60 {
		return bad("seconds")
	}
	daysInYear := 365
	if julian.LeapYearGregorian(year) {
		daysInYear = 366
	}
	if doy < 1 || doy > daysInYear {
		return bad("day of year out of range")
	}
	day := dayNumber(year, 1, 1) + float64(doy-1)
	return Epoch{DS50: ds50FromParts(day, hour, minute, sec), System: system}, nil
}

// ISO renders YYYY-MM-DDTHH:MM:SS.sss in the epoch's own scale.
func (e Epoch) ISO() string {
	day, ms := splitDS50(e.DS50)
	y, m, d := calendarDate(day)
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d",
		y, m, d, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// DTG20 renders YYYY/DDD HHMM SS.sss in the epoch's own scale.
func (e Epoch) DTG20() string {
	day, ms := splitDS50(e.DS50)
	y, m, d := calendarDate(day)
	doy := julian.DayOfYearGregorian(y, m, d)
	return fmt.Sprintf("%04d/%03d %02d%02d %02d.%03d",
		y, doy, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func (e Epoch) String() string {
	return e.ISO() + " " + e.System.String()
}

// Components decomposes the epoch into calendar fields, rounded to the
// microsecond with carries into minutes, hours and days.
func (e Epoch) Components() TimeComponents {
	day := math.Floor(e.DS50)
	us := int64(math.Round((e.DS50 - day) * secondsPerDay * 1e6))
	if us >= microsPerDay {
		day++
		us -= microsPerDay
	}
	y, m, d := calendarDate(day)
	return TimeComponents{
		Year:   y,
		Month:  m,
		Day:    d,
		Hour:   int(us / 3600e6),
		Minute: int(us / 60e6 % 60),
		Second: float64(us%60e6) / 1e6,
	}
}

// Time returns the calendar reading of the epoch as a time.Time in the UTC
// location, rounded to the nanosecond. The reading is in the epoch's own scale.
func (e Epoch) Time() time.Time {
	day := math.Floor(e.DS50)
	ns := int64(math.Round((e.DS50 - day) * secondsPerDay * 1e9))
	y, m, d := calendarDate(day)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Add(time.Duration(ns))
}

// JulianDate returns the Julian Date of the epoch in its own scale.
func (e Epoch) JulianDate() float64 {
	return e.DS50 + jdDS50Zero
}

// Add offsets the epoch by a span, staying in the same scale.
func (e Epoch) Add(s TimeSpan) Epoch {
	return Epoch{DS50: e.DS50 + s.InDays(), System: e.System}
}

// Sub returns e-o. Both epochs must share a time system; mixing scales
// without an explicit ToSystem is a programming error and panics.
func (e Epoch) Sub(o Epoch) TimeSpan {
	e.mustMatch(o)
	return Days(e.DS50 - o.DS50)
}

// Compare returns -1, 0 or +1. It panics if the scales differ.
func (e Epoch) Compare(o Epoch) int {
	e.mustMatch(o)
	switch {
	case e.DS50 < o.DS50:
		return -1
	case e.DS50 > o.DS50:
		return 1
	}
	return 0
}

func (e Epoch) Before(o Epoch) bool { return e.Compare(o) < 0 }
func (e Epoch) After(o Epoch) bool  { return e.Compare(o) > 0 }

// Equal reports whether both the day count and the scale match.
func (e Epoch) Equal(o Epoch) bool {
	return e.System == o.System && e.DS50 == o.DS50
}

// ToSystem converts the epoch to another scale using the process-wide time
// constants.
func (e Epoch) ToSystem(target TimeSystem) (Epoch, error) {
	if e.System == target {
		return e, nil
	}
	c := Current()
	if c == nil {
		return Epoch{}, ErrNotLoaded
	}
	return c.Convert(e, target)
}

func (e Epoch) mustMatch(o Epoch) {
	if e.System != o.System {
		panic(fmt.Sprintf("timesys: comparing %s epoch with %s epoch", e.System, o.System))
	}
}
