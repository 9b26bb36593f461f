package timeutil

import (
	"strings"
	"time"
)

// DefaultTimezone is the timezone assumed for human-stated times that carry
// no explicit offset, and the zone used for rendering outbound emails.
const DefaultTimezone = "Asia/Kathmandu"

// acceptedLayouts cover ISO date-times with or without seconds and with or
// without an explicit offset. Order matters: offset-bearing layouts first so
// an explicit offset is never ignored.
var acceptedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseFlexible parses an ISO-ish date-time string into a UTC instant.
// A trailing "Z" is accepted; a value with no offset is interpreted as UTC.
// Malformed input returns ok=false, never an error or panic: callers must
// treat that as "no usable time".
func ParseFlexible(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(v, "Z") {
		v = strings.TrimSuffix(v, "Z")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// WithinTolerance reports whether two instants are at most toleranceMinutes
// apart. The boundary is inclusive: exactly toleranceMinutes counts as equal.
// This is the sole equality notion for human-stated times.
func WithinTolerance(a, b time.Time, toleranceMinutes int) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= time.Duration(toleranceMinutes)*time.Minute
}

// LoadLocation resolves a timezone name, falling back to UTC when the zone
// database does not know it.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatLocal renders an instant for email bodies, e.g.
// "Friday, 15 August 2025 at 02:00 PM NPT". Presentational only; the output
// never feeds back into comparisons.
func FormatLocal(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return local.Format("Monday, 02 January 2006 at 03:04 PM MST")
}

// FormatLocalRange renders a start/optional-end pair for email bodies.
func FormatLocalRange(start time.Time, end *time.Time, loc *time.Location) string {
	s := FormatLocal(start, loc)
	if end == nil {
		return s
	}
	return s + " — " + FormatLocal(*end, loc)
}

// FormatUTC renders an instant as "2006-01-02 15:04 UTC".
func FormatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}
