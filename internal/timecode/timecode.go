// Package timecode converts between "HH:MM" clock strings and minutes since midnight.
// Values are naive local clock times; no timezone or DST handling.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseMinutes parses "HH:MM" (minutes may be omitted: "19:" or "19") or the compact
// four-digit "HHMM" form. Hours are not range-checked. ok is false for empty or malformed input, which callers
// treat as "no explicit time".
func ParseMinutes(s string) (minutes int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	var hh, mm string
	switch {
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return 0, false
		}
		hh, mm = parts[0], parts[1]
	case len(s) == 4:
		hh, mm = s[:2], s[2:]
	case len(s) <= 2:
		hh = s
	default:
		return 0, false
	}

	h, ok := digits(hh)
	if !ok {
		return 0, false
	}
	m := 0
	if mm != "" {
		m, ok = digits(mm)
		if !ok || m > 59 {
			return 0, false
		}
	}
	return h*60 + m, true
}

// digits accepts only ASCII digits; strconv alone would let "+5" and "-1" through.
func digits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatMinutes renders minutes since midnight as zero-padded "HH:MM".
// Negative input clamps to 00:00 and values wrap at 24h.
func FormatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	total %= MinutesPerDay
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Normalize canonicalizes a user-entered time. Empty input stays empty.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	m, ok := ParseMinutes(s)
	if !ok {
		return "", fmt.Errorf("invalid time %q (expected HH:MM or HHMM)", s)
	}
	return FormatMinutes(m), nil
}
