package tle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format is the record layout of a bulk element file.
type Format int

const (
	TwoLine   Format = 2
	ThreeLine Format = 3
)

// Result is the outcome of a bulk parse.
type Result struct {
	TLEs    []*TLE
	Skipped int
	Format  Format
}

// Parse reads 2-line or 3-line element text from r. The layout is decided by
// the second non-empty line: '1' means names precede each record, '2' means
// bare pairs. Malformed records are skipped with a warning log and counted;
// parsing resumes at the next line starting with "1 ".
func Parse(r io.Reader, logger *slog.Logger) (Result, error) {
	rd := bufio.NewReader(r)
	var lines []string
	for {
		raw, err := rd.ReadString('\n')
		if line := strings.TrimRight(raw, "\r\n\t "); line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading element sets: %w", err)
		}
	}

	p := &bulkParser{lines: lines, logger: logger}
	p.res.Format = detectFormat(lines)
	switch p.res.Format {
	case TwoLine:
		p.parseTwoLine()
	case ThreeLine:
		p.parseThreeLine()
	}
	return p.res, nil
}

func detectFormat(lines []string) Format {
	if len(lines) >= 2 {
		switch lines[1][0] {
		case '1':
			return ThreeLine
		case '2':
			return TwoLine
		}
	}
	if len(lines) > 0 && strings.HasPrefix(lines[0], "1 ") {
		return TwoLine
	}
	return ThreeLine
}

type bulkParser struct {
	lines  []string
	logger *slog.Logger
	res    Result
}

func (p *bulkParser) isLine1(i int) bool {
	return i < len(p.lines) && strings.HasPrefix(p.lines[i], "1 ")
}

func (p *bulkParser) isLine2(i int) bool {
	return i < len(p.lines) && strings.HasPrefix(p.lines[i], "2 ")
}

// nextLine1 returns the index of the first line at or after i that starts a
// record, or len(lines).
func (p *bulkParser) nextLine1(i int) int {
	for i < len(p.lines) && !p.isLine1(i) {
		i++
	}
	return i
}

func (p *bulkParser) skip(i int, reason string, err error) {
	p.res.Skipped++
	attrs := []any{"line_index", i, "reason", reason}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	p.logger.Warn("skipping malformed element set", attrs...)
}

func (p *bulkParser) add(name string, i int) {
	t, err := parseLines(name, p.lines[i], p.lines[i+1], p.logger)
	if err != nil {
		p.skip(i, "invalid fields", err)
		return
	}
	p.res.TLEs = append(p.res.TLEs, t)
}

func (p *bulkParser) parseTwoLine() {
	for i := p.nextLine1(0); i < len(p.lines); {
		if !p.isLine2(i + 1) {
			p.skip(i, "line 1 without line 2", nil)
			i = p.nextLine1(i + 1)
			continue
		}
		p.add("", i)
		i = p.nextLine1(i + 2)
	}
}

func (p *bulkParser) parseThreeLine() {
	for i := 0; i < len(p.lines); {
		if p.isLine1(i+1) && p.isLine2(i+2) && !p.isLine1(i) && !p.isLine2(i) {
			p.add(p.lines[i], i+1)
			i += 3
			continue
		}
		p.skip(i, "incomplete three-line record", nil)
		// Resync so the line before the next "1 " line is read as the name.
		j := p.nextLine1(i + 2)
		if j >= len(p.lines) {
			return
		}
		i = j - 1
	}
}
