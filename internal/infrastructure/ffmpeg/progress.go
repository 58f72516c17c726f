package ffmpeg

import (
	"strconv"
	"strings"
)

// Parser turns the line-oriented `-progress pipe:1` stream into a
// clamped, monotonically increasing percentage. It holds back 100
// until the process has actually exited; the worker publishes the
// final value on success.
type Parser struct {
	totalUs int64
	last    int
}

// NewParser creates a parser for a source of the given duration. A
// non-positive duration disables reporting entirely.
func NewParser(durationSeconds float64) *Parser {
	return &Parser{totalUs: int64(durationSeconds * 1e6), last: -1}
}

// Line consumes one progress line and reports a percentage when it
// changes. Lines without a usable time marker are ignored.
func (p *Parser) Line(line string) (int, bool) {
	if p.totalUs <= 0 {
		return 0, false
	}

	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}

	var elapsedUs int64
	switch key {
	// out_time_ms is microseconds despite the name, same as out_time_us.
	case "out_time_ms", "out_time_us":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed < 0 {
			return 0, false
		}
		elapsedUs = parsed
	case "out_time":
		parsed, ok := parseClock(value)
		if !ok {
			return 0, false
		}
		elapsedUs = parsed
	default:
		return 0, false
	}

	percent := int(float64(elapsedUs) / float64(p.totalUs) * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}
	if percent <= p.last {
		return 0, false
	}
	p.last = percent
	return percent, true
}

// parseClock reads HH:MM:SS.micro into microseconds.
func parseClock(value string) (int64, bool) {
	clock, frac, _ := strings.Cut(value, ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, false
	}

	var seconds int64
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		seconds = seconds*60 + n
	}

	us := seconds * 1e6
	if frac != "" {
		for len(frac) < 6 {
			frac += "0"
		}
		n, err := strconv.ParseInt(frac[:6], 10, 64)
		if err != nil {
			return 0, false
		}
		us += n
	}
	return us, true
}
