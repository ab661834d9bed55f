package timesys

import "time"

const (
	secondsPerMinute = 60.0
	secondsPerHour   = 3600.0
	secondsPerDay    = 86400.0
)

// TimeSpan is a signed, scale-independent duration.
// The value is held in seconds so every unit conversion is a single
// multiplication or division by an exact integer factor.
type TimeSpan struct {
	seconds float64
}

func Days(d float64) TimeSpan    { return TimeSpan{seconds: d * secondsPerDay} }
func Hours(h float64) TimeSpan   { return TimeSpan{seconds: h * secondsPerHour} }
func Minutes(m float64) TimeSpan { return TimeSpan{seconds: m * secondsPerMinute} }
func Seconds(s float64) TimeSpan { return TimeSpan{seconds: s} }

// FromDuration converts a Go duration to a TimeSpan.
func FromDuration(d time.Duration) TimeSpan {
	return Seconds(d.Seconds())
}

func (s TimeSpan) InDays() float64    { return s.seconds / secondsPerDay }
func (s TimeSpan) InHours() float64   { return s.seconds / secondsPerHour }
func (s TimeSpan) InMinutes() float64 { return s.seconds / secondsPerMinute }
func (s TimeSpan) InSeconds() float64 { return s.seconds }

// Duration converts to a Go duration, truncated to nanoseconds.
func (s TimeSpan) Duration() time.Duration {
	return time.Duration(s.seconds * float64(time.Second))
}

func (s TimeSpan) Add(o TimeSpan) TimeSpan  { return TimeSpan{seconds: s.seconds + o.seconds} }
func (s TimeSpan) Sub(o TimeSpan) TimeSpan  { return TimeSpan{seconds: s.seconds - o.seconds} }
func (s TimeSpan) Scale(f float64) TimeSpan { return TimeSpan{seconds: s.seconds * f} }
func (s TimeSpan) Neg() TimeSpan            { return TimeSpan{seconds: -s.seconds} }
func (s TimeSpan) IsZero() bool             { return s.seconds == 0 }
func (s TimeSpan) Less(o TimeSpan) bool     { return s.seconds < o.seconds }
func (s TimeSpan) String() string           { return s.Duration().String() }
