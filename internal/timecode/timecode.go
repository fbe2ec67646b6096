// Package timecode converts between HH:MM:SS[.mmm] time codes and fractional
// seconds.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatError reports a time code that could not be parsed.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time code %q: %s", e.Input, e.Reason)
}

// Parse converts "HH:MM:SS" or "HH:MM:SS.fff" into seconds. Hours and minutes
// must be whole numbers; seconds may carry a fraction. Components are not
// range checked, so "00:90:00" is 5400 seconds.
func Parse(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	parts := strings.Split(trimmed, ":")
	if len(parts) < 3 {
		return 0, &FormatError{Input: text, Reason: "expected HH:MM:SS"}
	}
	if len(parts) > 3 {
		return 0, &FormatError{Input: text, Reason: "too many components"}
	}

	hours, err := parseWhole(parts[0])
	if err != nil {
		return 0, &FormatError{Input: text, Reason: "hours: " + err.Error()}
	}
	minutes, err := parseWhole(parts[1])
	if err != nil {
		return 0, &FormatError{Input: text, Reason: "minutes: " + err.Error()}
	}
	seconds, err := parseSeconds(parts[2])
	if err != nil {
		return 0, &FormatError{Input: text, Reason: "seconds: " + err.Error()}
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}

func parseWhole(value string) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty")
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if n < 0 {
		return 0, fmt.Errorf("negative")
	}
	return n, nil
}

func parseSeconds(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range value {
		if (r < '0' || r > '9') && r != '.' {
			return 0, fmt.Errorf("not a number")
		}
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number")
	}
	return f, nil
}

// Format renders seconds as HH:MM:SS.mmm, rounded to the nearest millisecond.
// Hours are zero padded to two digits and grow beyond 99 without wrapping.
func Format(seconds float64) string {
	sign := ""
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	secs := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, hours, minutes, secs, ms)
}

// Section returns the downloader section selector for [start, end).
func Section(start, end string) string {
	return "*" + strings.TrimSpace(start) + "-" + strings.TrimSpace(end)
}
