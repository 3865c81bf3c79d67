// Package timecode converts between float seconds and the
// "HH:MM:SS" / "MM:SS" timestamp strings used throughout transcripts,
// prompts, and model output.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders seconds as "HH:MM:SS" when the value reaches an hour,
// otherwise "MM:SS". Negative input renders as "00:00" and fractional
// seconds truncate toward zero.
func Format(seconds float64) string {
	if seconds < 0 {
		return "00:00"
	}

	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Parse reads a colon-separated timestamp ("SS", "MM:SS", or "HH:MM:SS",
// with an optional fractional seconds part) into float seconds.
//
// Malformed input returns 0.0 rather than an error. Parse is routinely
// applied to free-form model output where garbage timestamps appear, and
// a zero seek is the correct degraded behavior there. Callers that need
// strict validation should not use this function.
func Parse(text string) float64 {
	parts := strings.Split(strings.TrimSpace(text), ":")

	switch len(parts) {
	case 1:
		s := parseFloatSoft(parts[0])
		if s < 0 {
			return 0.0
		}
		return s
	case 2:
		m := parseIntSoft(parts[0])
		s := parseFloatSoft(parts[1])
		if m < 0 || s < 0 {
			return 0.0
		}
		return float64(m)*60 + s
	case 3:
		h := parseIntSoft(parts[0])
		m := parseIntSoft(parts[1])
		s := parseFloatSoft(parts[2])
		if h < 0 || m < 0 || s < 0 {
			return 0.0
		}
		return float64(h)*3600 + float64(m)*60 + s
	default:
		return 0.0
	}
}

// parseIntSoft returns -1 for anything that is not a non-negative integer.
func parseIntSoft(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// parseFloatSoft returns -1 for anything that is not a non-negative number.
func parseFloatSoft(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return -1
	}
	return f
}
