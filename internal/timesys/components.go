package timesys

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/julian"
)

// jdDS50Zero is the Julian Date of DS50 0.0 (1950 January 0.0, i.e. 1949-12-31T00:00).
const jdDS50Zero = 2433281.5

// secondsTolerance bounds the seconds comparison in TimeComponents.Equal.
const secondsTolerance = 1e-5

// TimeComponents is a calendar decomposition of an Epoch in its own scale.
type TimeComponents struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second float64
}

// Equal reports field-wise equality. Seconds match within 10 microseconds.
func (c TimeComponents) Equal(o TimeComponents) bool {
	return c.Year == o.Year &&
		c.Month == o.Month &&
		c.Day == o.Day &&
		c.Hour == o.Hour &&
		c.Minute == o.Minute &&
		math.Abs(c.Second-o.Second) < secondsTolerance
}

// DayOfYear returns the 1-based ordinal day of the date.
func (c TimeComponents) DayOfYear() int {
	return julian.DayOfYearGregorian(c.Year, c.Month, c.Day)
}

func (c TimeComponents) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%09.6f", c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
}

func (c TimeComponents) validate() error {
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("month %d out of range: %w", c.Month, ErrParse)
	}
	if c.Day < 1 || c.Day > daysInMonth(c.Year, c.Month) {
		return fmt.Errorf("day %d out of range for %04d-%02d: %w", c.Day, c.Year, c.Month, ErrParse)
	}
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour %d out of range: %w", c.Hour, ErrParse)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("minute %d out of range: %w", c.Minute, ErrParse)
	}
	if math.IsNaN(c.Second) || c.Second < 0 || c.Second >= 60 {
		return fmt.Errorf("second %v out of range: %w", c.Second, ErrParse)
	}
	return nil
}

// dayNumber returns the DS50 value of 00:00 on the given calendar date.
func dayNumber(year, month, day int) float64 {
	return julian.CalendarGregorianToJD(year, month, float64(day)) - jdDS50Zero
}

// calendarDate is the inverse of dayNumber for whole day numbers.
func calendarDate(day float64) (year, month, dom int) {
	y, m, d := julian.JDToCalendar(day + jdDS50Zero)
	return y, m, int(math.Floor(d + 1e-9))
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if julian.LeapYearGregorian(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// ds50FromParts joins a day number and seconds of day the same way for every
// input format, so equal readings produce bit-identical day counts.
func ds50FromParts(day float64, hour, minute int, second float64) float64 {
	secOfDay := float64(hour*3600+minute*60) + second
	return day + secOfDay/secondsPerDay
}

// splitDS50 separates a day count into its whole day and the milliseconds
// into that day, rounding to the nearest millisecond and carrying into the
// next day when the rounding reaches midnight.
func splitDS50(ds50 float64) (day float64, ms int64) {
	day = math.Floor(ds50)
	ms = int64(math.Round((ds50 - day) * secondsPerDay * 1000))
	if ms >= 86400000 {
		day++
		ms -= 86400000
	}
	return day, ms
}
