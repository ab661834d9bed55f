// Package tle reads, writes and catalogs two- and three-line element sets.
package tle

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// ErrParse is returned for malformed element set text.
var ErrParse = errors.New("malformed element set")

// Fields are the values carried by an element set. Angles are in degrees and
// mean motion in revolutions per day.
//
// GP types (0, 2) carry MeanMotionDotDot and BStar. XP and osculating types
// (4, 6) carry AGOM and BTerm in the same columns.
type Fields struct {
	SatelliteID    int
	Name           string
	Classification elements.Classification
	Designator     string
	Epoch          timesys.Epoch // UTC
	Type           elements.KeplerianType

	MeanMotion        float64
	Eccentricity      float64
	Inclination       float64
	RAAN              float64
	ArgumentOfPerigee float64
	MeanAnomaly       float64

	MeanMotionDot    float64
	MeanMotionDotDot float64
	BStar            float64
	AGOM             float64 // m²/kg
	BTerm            float64 // m²/kg

	ElementSet int
	RevNumber  int
}

// TLE is an immutable, validated element set. It remembers the text it was
// parsed from.
type TLE struct {
	Fields
	line1, line2 string
}

// New validates fields and builds a TLE whose Lines are the canonical
// formatting.
func New(f Fields) (*TLE, error) {
	if f.Classification == 0 {
		f.Classification = elements.Unclassified
	}
	if f.Epoch.System != timesys.UTC {
		utc, err := f.Epoch.ToSystem(timesys.UTC)
		if err != nil {
			return nil, fmt.Errorf("element set epoch: %w", err)
		}
		f.Epoch = utc
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &TLE{Fields: f}, nil
}

func (f Fields) validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("satellite %d: %s: %w", f.SatelliteID, fmt.Sprintf(format, args...), elements.ErrValidation)
	}
	switch {
	case f.SatelliteID < 0 || f.SatelliteID > MaxSatelliteID:
		return bad("id outside [0, %d]", MaxSatelliteID)
	case len(f.Designator) > 8:
		return bad("designator %q longer than 8 columns", f.Designator)
	case !f.Type.Valid():
		return bad("ephemeris type %d", int(f.Type))
	case f.MeanMotion <= 0 || math.IsNaN(f.MeanMotion) || f.MeanMotion >= 100:
		return bad("mean motion %g rev/day", f.MeanMotion)
	case math.Abs(f.MeanMotionDot) >= 1:
		return bad("mean motion dot %g out of range", f.MeanMotionDot)
	case f.ElementSet < 0 || f.ElementSet > 9999:
		return bad("element set number %d", f.ElementSet)
	case f.RevNumber < 0 || f.RevNumber > 99999:
		return bad("revolution number %d", f.RevNumber)
	}
	if _, err := elements.ParseClassification(byte(f.Classification)); err != nil {
		return err
	}
	_, err := elements.NewKeplerianElements(
		elements.SMAFromMeanMotion(f.MeanMotion),
		f.Eccentricity, f.Inclination, f.RAAN, f.ArgumentOfPerigee, f.MeanAnomaly)
	return err
}

// FromLines parses a two-line element set. Checksum mismatches are logged at
// Warn level through slog.Default and do not fail the parse.
func FromLines(line1, line2 string) (*TLE, error) {
	return parseLines("", line1, line2, slog.Default())
}

// FromThreeLines parses a named element set. A leading "0 " on the name line
// is dropped.
func FromThreeLines(name, line1, line2 string) (*TLE, error) {
	return parseLines(name, line1, line2, slog.Default())
}

func parseLines(name, line1, line2 string, logger *slog.Logger) (*TLE, error) {
	line1 = strings.TrimRight(line1, " \t\r\n")
	line2 = strings.TrimRight(line2, " \t\r\n")

	f, err := parseFields(line1, line2)
	if err != nil {
		return nil, err
	}
	f.Name = cleanName(name)

	for i, l := range []string{line1, line2} {
		if !checksumOK(l) {
			logger.Warn("element set checksum mismatch",
				"satellite_id", f.SatelliteID, "line", i+1,
				"want", Checksum(l), "got", string(l[checksumIndex]))
		}
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrParse)
	}
	return &TLE{Fields: f, line1: line1, line2: line2}, nil
}

// cleanName drops the "0 " line number some catalogs put on the name line.
// A bare "0" is an unnamed record.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "0" {
		return ""
	}
	if rest, ok := strings.CutPrefix(name, "0 "); ok {
		return strings.TrimSpace(rest)
	}
	return name
}

func parseFields(line1, line2 string) (Fields, error) {
	var f Fields
	fail := func(reason string, err error) (Fields, error) {
		if err != nil {
			return Fields{}, fmt.Errorf("%s: %v: %w", reason, err, ErrParse)
		}
		return Fields{}, fmt.Errorf("%s: %w", reason, ErrParse)
	}

	for i, l := range []string{line1, line2} {
		if len(l) != lineLength && len(l) != lineLength+1 {
			return fail(fmt.Sprintf("line %d has %d columns, want 68 or 69", i+1, len(l)), nil)
		}
	}
	if !strings.HasPrefix(line1, "1 ") {
		return fail("line 1 does not start with \"1 \"", nil)
	}
	if !strings.HasPrefix(line2, "2 ") {
		return fail("line 2 does not start with \"2 \"", nil)
	}

	id, err := parseSatelliteID(line1[colSatnum : colSatnum+5])
	if err != nil {
		return fail("line 1", err)
	}
	id2, err := parseSatelliteID(line2[colSatnum : colSatnum+5])
	if err != nil {
		return fail("line 2", err)
	}
	if id != id2 {
		return fail(fmt.Sprintf("satellite id mismatch %d vs %d", id, id2), nil)
	}
	f.SatelliteID = id

	class := line1[colClass]
	if class == ' ' {
		class = 'U'
	}
	if f.Classification, err = elements.ParseClassification(class); err != nil {
		return fail("classification", err)
	}
	f.Designator = strings.TrimSpace(line1[colDesignator : colDesignator+8])

	if f.Epoch, err = parseEpoch(line1[colEpoch : colEpoch+14]); err != nil {
		return fail("epoch", err)
	}

	typ := 0
	if c := line1[colEphType]; c != ' ' {
		if c < '0' || c > '9' {
			return fail(fmt.Sprintf("ephemeris type %q", c), nil)
		}
		typ = int(c - '0')
	}
	if f.Type, err = elements.KeplerianTypeFromDigit(typ); err != nil {
		return fail("ephemeris type", err)
	}

	if f.MeanMotionDot, err = parseDecimal(line1[colNDot:colNDot+10], "mean motion dot"); err != nil {
		return fail("line 1", err)
	}
	second, err := parseExpField(line1[colNDotDot : colNDotDot+8])
	if err != nil {
		return fail("line 1", err)
	}
	drag, err := parseExpField(line1[colBStar : colBStar+8])
	if err != nil {
		return fail("line 1", err)
	}
	if usesXPLayout(f.Type) {
		f.AGOM, f.BTerm = second, drag
	} else {
		f.MeanMotionDotDot, f.BStar = second, drag
	}

	if s := strings.TrimSpace(line1[colElementSet:lineLength]); s != "" {
		if f.ElementSet, err = strconv.Atoi(s); err != nil {
			return fail("element set number", err)
		}
	}

	decimals := []struct {
		dst  *float64
		col  int
		n    int
		name string
	}{
		{&f.Inclination, colInclination, 8, "inclination"},
		{&f.RAAN, colRAAN, 8, "right ascension"},
		{&f.ArgumentOfPerigee, colArgp, 8, "argument of perigee"},
		{&f.MeanAnomaly, colMeanAnomaly, 8, "mean anomaly"},
		{&f.MeanMotion, colMeanMotion, 11, "mean motion"},
	}
	for _, d := range decimals {
		if *d.dst, err = parseDecimal(line2[d.col:d.col+d.n], d.name); err != nil {
			return fail("line 2", err)
		}
	}

	ecc := line2[colEcc : colEcc+7]
	if strings.TrimSpace(ecc) != ecc {
		return fail(fmt.Sprintf("eccentricity %q", ecc), nil)
	}
	if f.Eccentricity, err = strconv.ParseFloat("0."+ecc, 64); err != nil {
		return fail("eccentricity", err)
	}

	if s := strings.TrimSpace(line2[colRevNumber:lineLength]); s != "" {
		if f.RevNumber, err = strconv.Atoi(s); err != nil {
			return fail("revolution number", err)
		}
	}
	return f, nil
}

// parseEpoch reads YYDDD.DDDDDDDD as a UTC epoch. Years 57-99 are 1900s,
// 00-56 are 2000s.
func parseEpoch(s string) (timesys.Epoch, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return timesys.Epoch{}, fmt.Errorf("epoch %q too short", s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return timesys.Epoch{}, fmt.Errorf("invalid epoch year %q", s[:2])
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	doy, err := strconv.ParseFloat(s[2:], 64)
	if err != nil || doy < 1 || doy >= 367 {
		return timesys.Epoch{}, fmt.Errorf("invalid epoch day %q", s[2:])
	}
	jan1, err := timesys.FromComponents(timesys.TimeComponents{Year: year, Month: 1, Day: 1}, timesys.UTC)
	if err != nil {
		return timesys.Epoch{}, err
	}
	return timesys.FromDS50(jan1.DS50-1+doy, timesys.UTC), nil
}

// epochYearDay splits an epoch into its calendar year and fractional day of
// year, the inverse of parseEpoch.
func epochYearDay(e timesys.Epoch) (int, float64) {
	year := e.Components().Year
	jan1, _ := timesys.FromComponents(timesys.TimeComponents{Year: year, Month: 1, Day: 1}, e.System)
	return year, e.DS50 - (jan1.DS50 - 1)
}

// usesXPLayout reports whether line 1 columns 45-61 hold AGOM and B-term
// rather than nddot and B*.
func usesXPLayout(t elements.KeplerianType) bool {
	switch t {
	case elements.MeanKozaiGP, elements.MeanBrouwerGP:
		return false
	case elements.MeanBrouwerXP, elements.Osculating:
		return true
	}
	panic(fmt.Sprintf("unhandled keplerian type %d", int(t)))
}

// Lines returns the text the TLE was parsed from, or the canonical
// 68-column formatting for a TLE built from fields.
func (t *TLE) Lines() (string, string) {
	if t.line1 != "" {
		return t.line1, t.line2
	}
	return formatLines(t.Fields)
}

// CanonicalLines always returns the canonical formatting.
func (t *TLE) CanonicalLines() (string, string) {
	return formatLines(t.Fields)
}

// ID returns the satellite id.
func (t *TLE) ID() int { return t.SatelliteID }

// KeplerianState returns the element set as a TEME state of the TLE's type.
// Mean motion converts to semi-major axis with the WGS-72 gravitational
// parameter.
func (t *TLE) KeplerianState() elements.KeplerianState {
	el := elements.KeplerianElements{
		SemiMajorAxis:     elements.SMAFromMeanMotion(t.MeanMotion),
		Eccentricity:      t.Eccentricity,
		Inclination:       t.Inclination,
		RAAN:              t.RAAN,
		ArgumentOfPerigee: t.ArgumentOfPerigee,
		MeanAnomaly:       t.MeanAnomaly,
	}
	return elements.KeplerianState{Epoch: t.Epoch, Elements: el, Frame: elements.TEME, Type: t.Type}
}

// ForceProperties maps the drag and radiation terms onto unit area and mass.
func (t *TLE) ForceProperties() elements.ForceProperties {
	f := elements.ForceProperties{
		SRPArea:          1,
		DragArea:         1,
		Mass:             1,
		MeanMotionDot:    t.MeanMotionDot,
		MeanMotionDotDot: t.MeanMotionDotDot,
	}
	if usesXPLayout(t.Type) {
		f.SRPCoefficient = t.AGOM
		f.DragCoefficient = t.BTerm
	} else {
		f.DragCoefficient = t.BStar * elements.BStarToBTerm
	}
	return f
}

func (t *TLE) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%d (%s)", t.SatelliteID, t.Name)
	}
	return strconv.Itoa(t.SatelliteID)
}
