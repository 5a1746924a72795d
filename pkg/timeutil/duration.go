// Package timeutil parses and formats the human durations used on the
// command line: report windows ("2w", "10d") and timer lengths ("25m", "90").
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the report window used when none is given.
const DefaultWindow = "1w"

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var (
	segmentPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	units          = map[string]time.Duration{
		"s":       time.Second,
		"sec":     time.Second,
		"secs":    time.Second,
		"second":  time.Second,
		"seconds": time.Second,
		"m":       time.Minute,
		"min":     time.Minute,
		"mins":    time.Minute,
		"minute":  time.Minute,
		"minutes": time.Minute,
		"h":       time.Hour,
		"hr":      time.Hour,
		"hrs":     time.Hour,
		"hour":    time.Hour,
		"hours":   time.Hour,
		"d":       day,
		"day":     day,
		"days":    day,
		"w":       week,
		"wk":      week,
		"wks":     week,
		"week":    week,
		"weeks":   week,
	}
)

// ParseWindow parses a report window such as "1w", "3d" or "1w2d" and returns
// it with its canonical spelling. Empty input means DefaultWindow.
func ParseWindow(input string) (time.Duration, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		trimmed = DefaultWindow
	}
	total, err := parseSegments(trimmed)
	if err != nil {
		return 0, "", err
	}
	return total, Format(total), nil
}

// ParseLength parses a timer length. A bare number is seconds; anything else
// uses the same units as ParseWindow. Empty input yields zero, meaning "use
// the default".
func ParseLength(input string) (time.Duration, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(trimmed); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeutil: length must be greater than zero")
		}
		return time.Duration(secs) * time.Second, nil
	}
	return parseSegments(trimmed)
}

func parseSegments(s string) (time.Duration, error) {
	remaining := strings.ToLower(s)
	total := time.Duration(0)
	for len(remaining) > 0 {
		m := segmentPattern.FindStringSubmatch(remaining)
		if len(m) != 3 {
			return 0, fmt.Errorf("timeutil: invalid duration segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timeutil: invalid duration value %q: %w", m[1], err)
		}
		base, ok := units[m[2]]
		if !ok {
			return 0, fmt.Errorf("timeutil: unsupported duration unit %q", m[2])
		}
		total += time.Duration(value) * base
		remaining = remaining[len(m[0]):]
	}
	if total <= 0 {
		return 0, fmt.Errorf("timeutil: duration must be greater than zero")
	}
	return total, nil
}

// Format renders d with week, day, hour, minute and second tokens, largest
// first, omitting zero units.
func Format(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	var b strings.Builder
	remaining := d
	for _, u := range []struct {
		label string
		value time.Duration
	}{{"w", week}, {"d", day}, {"h", time.Hour}, {"m", time.Minute}, {"s", time.Second}} {
		if remaining < u.value {
			continue
		}
		count := remaining / u.value
		remaining -= count * u.value
		fmt.Fprintf(&b, "%d%s", count, u.label)
	}
	return b.String()
}

// Countdown renders whole seconds as MM:SS, or H:MM:SS from one hour up.
func Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
