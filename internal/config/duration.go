package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationExtended accepts everything time.ParseDuration does plus
// d (24h) and w (7d) units, so cache TTLs can be written as "1d" or "1w2d".
func parseDurationExtended(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if !strings.ContainsAny(s, "dw") {
		return time.ParseDuration(s)
	}

	sign := ""
	if s[0] == '+' || s[0] == '-' {
		sign, s = s[:1], s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}

	var b strings.Builder
	b.WriteString(sign)
	for s != "" {
		n := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
		if n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		num := s[:n]
		s = s[n:]

		u := strings.IndexFunc(s, func(r rune) bool { return (r >= '0' && r <= '9') || r == '.' })
		if u < 0 {
			u = len(s)
		}
		unit := s[:u]
		s = s[u:]

		var hoursPerUnit float64
		switch unit {
		case "d":
			hoursPerUnit = 24
		case "w":
			hoursPerUnit = 7 * 24
		default:
			b.WriteString(num)
			b.WriteString(unit)
			continue
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		b.WriteString(strconv.FormatFloat(f*hoursPerUnit, 'f', -1, 64))
		b.WriteByte('h')
	}
	return time.ParseDuration(b.String())
}
