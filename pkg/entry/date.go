package entry

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutISO = "2006-01-02"
	// layoutLegacy is the label the legacy per-day writer keys its records by.
	layoutLegacy = "Mon Jan 2 2006"
)

// legacyLayouts are the locale renderings found in legacy day keys.
var legacyLayouts = []string{
	layoutLegacy,
	"Mon Jan 02 2006",
	"1/2/2006",
	"January 2, 2006",
	layoutISO,
}

// Date is a calendar day in ISO form, e.g. "2025-01-06". The zero value is
// not a valid date.
type Date string

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(layoutISO))
}

// ParseDate validates an ISO date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(layoutISO, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("entry: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseLegacyLabel converts a locale formatted legacy key label to a Date.
func ParseLegacyLabel(label string) (Date, error) {
	label = strings.TrimSpace(label)
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return DateOf(t), nil
		}
	}
	return "", fmt.Errorf("entry: unrecognised legacy date label %q", label)
}

// Valid reports whether d parses as an ISO date.
func (d Date) Valid() bool {
	_, err := time.Parse(layoutISO, string(d))
	return err == nil
}

// Time returns midnight UTC of d, or the zero time when d is invalid.
func (d Date) Time() time.Time {
	t, err := time.Parse(layoutISO, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	t := d.Time()
	if t.IsZero() {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d < o
}

// LegacyLabel renders d the way the legacy per-day writer labels its keys.
func (d Date) LegacyLabel() string {
	t := d.Time()
	if t.IsZero() {
		return ""
	}
	return t.Format(layoutLegacy)
}

func (d Date) String() string {
	return string(d)
}
