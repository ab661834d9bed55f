package tle

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func parseFile(t *testing.T, path string) Result {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	res, err := Parse(f, testLogger())
	if err != nil {
		t.Fatalf("Parse(%s): %v", path, err)
	}
	return res
}

func ids(tles []*TLE) []int {
	out := make([]int, len(tles))
	for i, t := range tles {
		out[i] = t.SatelliteID
	}
	return out
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		path   string
		format Format
		names  []string
	}{
		{"testdata/two_line.txt", TwoLine, []string{"", "", ""}},
		{"testdata/three_line.txt", ThreeLine, []string{"ISS (ZARYA)", "SES-3", "NOAA 20"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := parseFile(t, tt.path)
			if res.Format != tt.format {
				t.Errorf("Format = %d, want %d", res.Format, tt.format)
			}
			if res.Skipped != 0 {
				t.Errorf("Skipped = %d, want 0", res.Skipped)
			}
			got := ids(res.TLEs)
			want := []int{25544, 37605, 43013}
			if len(got) != len(want) {
				t.Fatalf("ids = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("ids[%d] = %d, want %d", i, got[i], want[i])
				}
				if res.TLEs[i].Name != tt.names[i] {
					t.Errorf("name[%d] = %q, want %q", i, res.TLEs[i].Name, tt.names[i])
				}
			}
		})
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	f, err := os.Open("testdata/malformed.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	res, err := Parse(f, logger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	got := ids(res.TLEs)
	want := []int{25544, 37605, 43013, 37605}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if res.TLEs[2].Name != "NOAA 20" {
		t.Errorf("record after resync named %q, want NOAA 20", res.TLEs[2].Name)
	}
	if n := strings.Count(buf.String(), "skipping malformed element set"); n != 2 {
		t.Errorf("logged %d skip warnings, want 2:\n%s", n, buf.String())
	}
}

func TestFixturesHaveValidChecksums(t *testing.T) {
	for _, path := range []string{"testdata/two_line.txt", "testdata/three_line.txt", "testdata/malformed.txt"} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Parse(f, logger)
		f.Close()
		if err != nil {
			t.Fatalf("Parse(%s): %v", path, err)
		}
		if strings.Contains(buf.String(), "checksum mismatch") {
			t.Errorf("%s: checksum warnings:\n%s", path, buf.String())
		}
	}
}

func TestParseBulkChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	input := strings.Join([]string{"ISS (ZARYA)", issLine1[:68] + "0", issLine2}, "\n")

	res, err := Parse(strings.NewReader(input), logger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.TLEs) != 1 || res.Skipped != 0 {
		t.Errorf("TLEs = %d, Skipped = %d; a bad checksum keeps the record", len(res.TLEs), res.Skipped)
	}
	if n := strings.Count(buf.String(), "checksum mismatch"); n != 1 {
		t.Errorf("logged %d checksum warnings, want 1", n)
	}
}

func TestParseOversizedLine(t *testing.T) {
	data, err := os.ReadFile("testdata/three_line.txt")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	huge := strings.Repeat("x", 200<<10)
	input := strings.Join(append(lines[:3:3], append([]string{huge}, lines[3:]...)...), "\n")

	res, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ids(res.TLEs); len(got) != 3 || res.Skipped != 1 {
		t.Errorf("ids = %v, Skipped = %d; want all three records and one skip", got, res.Skipped)
	}
}

func TestParseTwoLineOrphans(t *testing.T) {
	input := strings.Join([]string{
		sgpLine1,
		sgpLine2,
		issLine2,
		issLine1,
		"garbage",
		"",
		issLine1,
		issLine2,
	}, "\n")
	res, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Format != TwoLine {
		t.Fatalf("Format = %d, want TwoLine", res.Format)
	}
	// The stray line 2 after the SGP pair is ignored; the orphan line 1
	// before the garbage is skipped.
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.TLEs) != 2 {
		t.Fatalf("parsed %d records, want 2", len(res.TLEs))
	}
	if res.TLEs[0].Epoch.DS50 != 25767.51605324 {
		t.Errorf("first record epoch = %v", res.TLEs[0].Epoch.DS50)
	}
}

func TestParseTrailingRecord(t *testing.T) {
	input := "ISS\n" + issLine1 + "\n" + issLine2 + "\nDANGLING\n" + issLine1 + "\n"
	res, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.TLEs) != 1 || res.Skipped != 1 {
		t.Errorf("parsed %d, skipped %d; want 1, 1", len(res.TLEs), res.Skipped)
	}
}

func TestParseEmpty(t *testing.T) {
	res, err := Parse(strings.NewReader("\n\n  \n"), testLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.TLEs) != 0 || res.Skipped != 0 {
		t.Errorf("empty input gave %d records, %d skipped", len(res.TLEs), res.Skipped)
	}
}

func TestParseCRLF(t *testing.T) {
	input := "0 ISS (ZARYA)\r\n" + issLine1 + "\r\n" + issLine2 + "\r\n"
	res, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.TLEs) != 1 || res.TLEs[0].Name != "ISS (ZARYA)" {
		t.Fatalf("CRLF parse = %+v", res)
	}
	l1, l2 := res.TLEs[0].Lines()
	if l1 != issLine1 || l2 != issLine2 {
		t.Errorf("CRLF lines kept carriage returns: %q %q", l1, l2)
	}
}
