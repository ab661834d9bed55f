package timesys

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxExtrapolationDays is how long past its date the final record stays valid.
const maxExtrapolationDays = 90.0

// arcsecToRad converts arc seconds to radians.
const arcsecToRad = 4.84813681109536e-6

// Record is one row of the timing constants table. DS50 is the UTC day the
// record takes effect.
type Record struct {
	DS50        float64
	TAIMinusUTC float64 // seconds
	UT1MinusUTC float64 // seconds at DS50
	UT1Rate     float64 // milliseconds per day
	PolarX      float64 // arc seconds
	PolarY      float64 // arc seconds
}

// Constants is an immutable, time-ordered table of leap seconds and Earth
// orientation parameters.
type Constants struct {
	records []Record
}

// NewConstants validates and wraps a record list. Records must be strictly
// increasing in DS50.
func NewConstants(records []Record) (*Constants, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records: %w", ErrConstantsFile)
	}
	for i := 1; i < len(records); i++ {
		if records[i].DS50 <= records[i-1].DS50 {
			return nil, fmt.Errorf("record %d not after record %d: %w", i, i-1, ErrConstantsFile)
		}
	}
	return &Constants{records: slices.Clone(records)}, nil
}

// ParseConstants reads the text form of the table:
//
//	# YYYY-MM-DD  TAI-UTC  UT1-UTC  UT1-rate(ms/day)  polar-x(")  polar-y(")
//	2017-01-01    37.0     0.5922   -0.30             0.0718      0.2727
//
// Any malformed line fails the whole load.
func ParseConstants(r io.Reader) (*Constants, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", lineNo, err, ErrConstantsFile)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading time constants: %v: %w", err, ErrConstantsFile)
	}
	return NewConstants(records)
}

func parseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return Record{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("invalid date %q", fields[0])
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Record{}, fmt.Errorf("invalid value %q", fields[i+1])
		}
		vals[i] = v
	}
	return Record{
		DS50:        dayNumber(date.Year(), int(date.Month()), date.Day()),
		TAIMinusUTC: vals[0],
		UT1MinusUTC: vals[1],
		UT1Rate:     vals[2],
		PolarX:      vals[3],
		PolarY:      vals[4],
	}, nil
}

// Len returns the number of records.
func (c *Constants) Len() int { return len(c.records) }

// Span returns the UTC interval in which lookups succeed.
func (c *Constants) Span() (from, to Epoch) {
	first := c.records[0].DS50
	last := c.records[len(c.records)-1].DS50 + maxExtrapolationDays
	return FromDS50(first, UTC), FromDS50(last, UTC)
}

// Equal reports whether two tables hold identical records.
func (c *Constants) Equal(o *Constants) bool {
	if c == nil || o == nil {
		return c == o
	}
	return slices.Equal(c.records, o.records)
}

// lookup returns the record in effect at the given UTC day count.
func (c *Constants) lookup(utc float64) (Record, int, error) {
	from, to := c.Span()
	if utc < from.DS50 || utc > to.DS50 {
		return Record{}, 0, fmt.Errorf("UTC %s outside [%s, %s]: %w",
			FromDS50(utc, UTC).ISO(), from.ISO(), to.ISO(), ErrLookup)
	}
	i := sort.Search(len(c.records), func(i int) bool { return c.records[i].DS50 > utc }) - 1
	return c.records[i], i, nil
}

// TAIMinusUTC returns the leap-second offset in seconds at a UTC instant.
func (c *Constants) TAIMinusUTC(utc float64) (float64, error) {
	rec, _, err := c.lookup(utc)
	if err != nil {
		return 0, err
	}
	return rec.TAIMinusUTC, nil
}

// UT1MinusUTC returns UT1-UTC in seconds at a UTC instant, applying the
// record's drift rate.
func (c *Constants) UT1MinusUTC(utc float64) (float64, error) {
	rec, _, err := c.lookup(utc)
	if err != nil {
		return 0, err
	}
	return rec.UT1MinusUTC + rec.UT1Rate/1000*(utc-rec.DS50), nil
}

// PolarMotion returns the pole coordinates in radians at a UTC instant,
// linearly interpolated between records.
func (c *Constants) PolarMotion(utc float64) (xp, yp float64, err error) {
	rec, i, err := c.lookup(utc)
	if err != nil {
		return 0, 0, err
	}
	x, y := rec.PolarX, rec.PolarY
	if i+1 < len(c.records) {
		next := c.records[i+1]
		f := (utc - rec.DS50) / (next.DS50 - rec.DS50)
		x += f * (next.PolarX - rec.PolarX)
		y += f * (next.PolarY - rec.PolarY)
	}
	return x * arcsecToRad, y * arcsecToRad, nil
}

// Convert moves an epoch into the target scale. Every conversion passes
// through UTC.
func (c *Constants) Convert(e Epoch, target TimeSystem) (Epoch, error) {
	if !target.Valid() || !e.System.Valid() {
		return Epoch{}, fmt.Errorf("converting %s to %s: unsupported time system: %w", e.System, target, ErrLookup)
	}
	if e.System == target {
		return e, nil
	}
	utc, err := c.toUTC(e)
	if err != nil {
		return Epoch{}, err
	}
	ds50, err := c.fromUTC(utc, target)
	if err != nil {
		return Epoch{}, err
	}
	return Epoch{DS50: ds50, System: target}, nil
}

func (c *Constants) toUTC(e Epoch) (float64, error) {
	switch e.System {
	case UTC:
		return e.DS50, nil
	case TAI:
		return c.taiToUTC(e.DS50)
	case TT:
		return c.taiToUTC(e.DS50 - ttMinusTAI/secondsPerDay)
	case UT1:
		return c.ut1ToUTC(e.DS50)
	}
	return 0, fmt.Errorf("time system %s: %w", e.System, ErrLookup)
}

// taiToUTC inverts the leap-second offset. The first lookup uses TAI as an
// estimate of UTC; the second settles instants next to a leap second.
func (c *Constants) taiToUTC(tai float64) (float64, error) {
	utc := tai
	for i := 0; i < 2; i++ {
		dat, err := c.TAIMinusUTC(utc)
		if err != nil {
			return 0, err
		}
		utc = tai - dat/secondsPerDay
	}
	return utc, nil
}

// ut1ToUTC inverts UT1-UTC exactly within the record that covers the
// result. Where two records both cover the instant the later one wins, as
// in taiToUTC. A UT1 instant skipped by a forward jump between records maps
// to the start of the later record.
func (c *Constants) ut1ToUTC(ut1 float64) (float64, error) {
	est := ut1
	if dut1, err := c.UT1MinusUTC(ut1); err == nil {
		est = ut1 - dut1/secondsPerDay
	}
	_, i, err := c.lookup(est)
	if err != nil {
		return 0, err
	}
	for _, j := range []int{i + 1, i, i - 1} {
		if j < 0 || j >= len(c.records) {
			continue
		}
		if utc := c.solveUT1(j, ut1); c.covers(j, utc) {
			return utc, nil
		}
	}
	if utc := c.solveUT1(i, ut1); utc < c.records[i].DS50 {
		return c.records[i].DS50, nil
	}
	if i+1 < len(c.records) {
		return c.records[i+1].DS50, nil
	}
	return 0, fmt.Errorf("UT1 %s: %w", FromDS50(ut1, UT1).ISO(), ErrLookup)
}

// solveUT1 returns the UTC day count whose UT1 reading under record j is ut1.
func (c *Constants) solveUT1(j int, ut1 float64) float64 {
	r := c.records[j]
	a := r.UT1Rate / 1000 / secondsPerDay
	return (ut1 - r.UT1MinusUTC/secondsPerDay + a*r.DS50) / (1 + a)
}

// covers reports whether record j is the one in effect at utc.
func (c *Constants) covers(j int, utc float64) bool {
	if utc < c.records[j].DS50 {
		return false
	}
	if j+1 < len(c.records) {
		return utc < c.records[j+1].DS50
	}
	return utc <= c.records[j].DS50+maxExtrapolationDays
}

func (c *Constants) fromUTC(utc float64, target TimeSystem) (float64, error) {
	switch target {
	case UTC:
		return utc, nil
	case TAI, TT:
		dat, err := c.TAIMinusUTC(utc)
		if err != nil {
			return 0, err
		}
		if target == TT {
			return utc + (dat+ttMinusTAI)/secondsPerDay, nil
		}
		return utc + dat/secondsPerDay, nil
	case UT1:
		dut1, err := c.UT1MinusUTC(utc)
		if err != nil {
			return 0, err
		}
		return utc + dut1/secondsPerDay, nil
	}
	return 0, fmt.Errorf("time system %s: %w", target, ErrLookup)
}
