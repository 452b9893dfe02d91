package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeTime parses a time-of-day string into minutes since midnight
// (0..1439). Accepted formats are 24-hour "HH:MM" and 12-hour "HH:MM AM/PM".
// "12:00 AM" maps to 0 and "12:00 PM" to 720.
func NormalizeTime(s string) (int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("invalid time format: empty string")
	}

	upper := strings.ToUpper(raw)
	meridiem := ""
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		meridiem = upper[len(upper)-2:]
		upper = strings.TrimSpace(upper[:len(upper)-2])
	}

	parts := strings.Split(upper, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	if minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	if meridiem != "" {
		if hours < 1 || hours > 12 {
			return 0, fmt.Errorf("invalid time format: %q", s)
		}
		if hours == 12 {
			if meridiem == "AM" {
				hours = 0
			}
		} else if meridiem == "PM" {
			hours += 12
		}
	} else if hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	return hours*60 + minutes, nil
}

// IntervalsOverlap reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one minute. Touching endpoints do not overlap.
// This is the single overlap predicate for the whole codebase; the
// availability check and the booking creation path both go through it.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
