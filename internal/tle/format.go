package tle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Line layout, 0-based column ranges.
const (
	lineLength    = 68
	checksumIndex = 68

	colSatnum      = 2
	colClass       = 7
	colDesignator  = 9
	colEpoch       = 18
	colNDot        = 33
	colNDotDot     = 44
	colBStar       = 53
	colEphType     = 62
	colElementSet  = 64
	colInclination = 8
	colRAAN        = 17
	colEcc         = 26
	colArgp        = 34
	colMeanAnomaly = 43
	colMeanMotion  = 52
	colRevNumber   = 63
)

// alpha5 maps the leading letter of an Alpha-5 id to its value. I and O are
// not used.
const alpha5 = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// MaxSatelliteID is the largest id Alpha-5 can encode (Z9999).
const MaxSatelliteID = 339999

// parseSatelliteID reads a 5-column id in plain or Alpha-5 form.
func parseSatelliteID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty satellite id")
	}
	if c := s[0]; c >= 'A' && c <= 'Z' {
		i := strings.IndexByte(alpha5, c)
		if i < 0 || len(s) != 5 {
			return 0, fmt.Errorf("invalid Alpha-5 id %q", s)
		}
		rest, err := strconv.Atoi(s[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid Alpha-5 id %q", s)
		}
		return (i+10)*10000 + rest, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid satellite id %q", s)
	}
	return id, nil
}

// formatSatelliteID renders an id in the 5-column field.
func formatSatelliteID(id int) string {
	if id < 100000 {
		return fmt.Sprintf("%05d", id)
	}
	return fmt.Sprintf("%c%04d", alpha5[id/10000-10], id%10000)
}

// parseExpField reads the implied-decimal exponent notation used for
// nddot and B*: " 22898-4" is 0.22898e-4.
func parseExpField(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, nil
	}
	sign := ""
	if t[0] == '-' || t[0] == '+' {
		sign, t = t[:1], t[1:]
	}
	i := strings.LastIndexAny(t, "+- ")
	if i <= 0 {
		return 0, fmt.Errorf("invalid exponent field %q", s)
	}
	mantissa, exp := t[:i], strings.TrimSpace(t[i:])
	if exp == "" || exp == "+" || exp == "-" {
		return 0, fmt.Errorf("invalid exponent field %q", s)
	}
	for _, r := range mantissa {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid exponent field %q", s)
		}
	}
	v, err := strconv.ParseFloat(sign+"0."+mantissa+"e"+exp, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid exponent field %q", s)
	}
	return v, nil
}

// formatExpField renders v as [sign][5 digits][exponent], 8 columns.
func formatExpField(v float64) string {
	if v == 0 {
		return " 00000 0"
	}
	sign := byte(' ')
	if v < 0 {
		sign = '-'
		v = -v
	}
	exp := int(math.Floor(math.Log10(v))) + 1
	digits := int(math.Round(v / math.Pow10(exp) * 1e5))
	if digits >= 100000 {
		digits /= 10
		exp++
	}
	if digits == 0 || exp < -9 {
		return " 00000 0"
	}
	return fmt.Sprintf("%c%05d%2d", sign, digits, exp)
}

// formatNDot renders the first derivative field, e.g. "+.00000884".
func formatNDot(v float64) string {
	sign := byte('+')
	if v < 0 {
		sign = '-'
		v = -v
	}
	return fmt.Sprintf("%c.%08d", sign, int(math.Round(v*1e8)))
}

// parseDecimal reads a fixed-column float, tolerating surrounding blanks.
func parseDecimal(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// Checksum computes the modulo-10 checksum over the first 68 columns:
// digits count their value, '-' counts one.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < lineLength; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// checksumOK reports whether a 69-column line carries a matching checksum.
// Lines without a checksum column pass.
func checksumOK(line string) bool {
	if len(line) <= checksumIndex {
		return true
	}
	c := line[checksumIndex]
	if c < '0' || c > '9' {
		return false
	}
	return int(c-'0') == Checksum(line)
}

// formatLines renders the canonical 68-column lines for a set of fields.
func formatLines(f Fields) (string, string) {
	y, doy := epochYearDay(f.Epoch)
	class := f.Classification
	if class == 0 {
		class = 'U'
	}

	nddot, bstar := f.MeanMotionDotDot, f.BStar
	if usesXPLayout(f.Type) {
		nddot, bstar = f.AGOM, f.BTerm
	}

	line1 := fmt.Sprintf("1 %s%c %-8s %02d%012.8f %s %s %s %d %04d",
		formatSatelliteID(f.SatelliteID), byte(class), f.Designator,
		y%100, doy, formatNDot(f.MeanMotionDot),
		formatExpField(nddot), formatExpField(bstar),
		int(f.Type), f.ElementSet)

	line2 := fmt.Sprintf("2 %s %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		formatSatelliteID(f.SatelliteID), f.Inclination, f.RAAN,
		int(math.Round(f.Eccentricity*1e7)), f.ArgumentOfPerigee, f.MeanAnomaly,
		f.MeanMotion, f.RevNumber)

	return line1, line2
}

// WithChecksum appends the checksum column to a 68-column line.
func WithChecksum(line string) string {
	if len(line) > lineLength {
		line = line[:lineLength]
	}
	return line + strconv.Itoa(Checksum(line))
}
