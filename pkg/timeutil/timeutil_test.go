package timeutil

import (
	"testing"
	"time"
)

func TestParseFlexible(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string // RFC3339 UTC, empty means unparsable
	}{
		{"minutes only naive", "2025-08-15T14:00", "2025-08-15T14:00:00Z"},
		{"with seconds naive", "2025-08-15T14:00:30", "2025-08-15T14:00:30Z"},
		{"trailing Z", "2025-08-15T14:00Z", "2025-08-15T14:00:00Z"},
		{"seconds and Z", "2025-08-15T14:00:30Z", "2025-08-15T14:00:30Z"},
		{"explicit offset", "2025-08-15T14:00:00+05:45", "2025-08-15T08:15:00Z"},
		{"offset no seconds", "2025-08-15T14:00+05:45", "2025-08-15T08:15:00Z"},
		{"space separator", "2025-08-15 14:00", "2025-08-15T14:00:00Z"},
		{"whitespace padded", "  2025-08-15T14:00  ", "2025-08-15T14:00:00Z"},
		{"garbage", "next tuesday maybe", ""},
		{"empty", "", ""},
		{"date only", "2025-08-15", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseFlexible(tc.in)
			if tc.want == "" {
				if ok {
					t.Fatalf("ParseFlexible(%q) = %v, want no result", tc.in, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseFlexible(%q) failed, want %s", tc.in, tc.want)
			}
			want, err := time.Parse(time.RFC3339, tc.want)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(want) {
				t.Fatalf("ParseFlexible(%q) = %v, want %v", tc.in, got, want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("ParseFlexible(%q) not normalized to UTC: %v", tc.in, got.Location())
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	base := time.Date(2025, 8, 15, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		b    time.Time
		want bool
	}{
		{"identical", base, true},
		{"exactly 300s after", base.Add(300 * time.Second), true},
		{"exactly 300s before", base.Add(-300 * time.Second), true},
		{"301s after", base.Add(301 * time.Second), false},
		{"301s before", base.Add(-301 * time.Second), false},
		{"two hours", base.Add(2 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinTolerance(base, tc.b, 5); got != tc.want {
				t.Fatalf("WithinTolerance(base, %v, 5) = %v, want %v", tc.b, got, tc.want)
			}
			// Symmetric by definition.
			if got := WithinTolerance(tc.b, base, 5); got != tc.want {
				t.Fatalf("WithinTolerance not symmetric for %v", tc.b)
			}
		})
	}
}

func TestDisplayParseRoundTrip(t *testing.T) {
	// Rendering an instant into the display zone and re-parsing it with an
	// explicit offset must preserve the instant.
	loc := LoadLocation(DefaultTimezone)
	orig, ok := ParseFlexible("2025-08-15T08:15:00Z")
	if !ok {
		t.Fatal("setup parse failed")
	}

	displayed := orig.In(loc).Format("2006-01-02T15:04-07:00")
	back, ok := ParseFlexible(displayed)
	if !ok {
		t.Fatalf("re-parse of %q failed", displayed)
	}
	if !back.Equal(orig) {
		t.Fatalf("round trip drifted: %v -> %q -> %v", orig, displayed, back)
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	if loc := LoadLocation("Not/AZone"); loc != time.UTC {
		t.Fatalf("LoadLocation on unknown zone = %v, want UTC", loc)
	}
}

func TestFormatUTC(t *testing.T) {
	ts := time.Date(2025, 8, 15, 8, 15, 0, 0, time.UTC)
	if got := FormatUTC(ts); got != "2025-08-15 08:15 UTC" {
		t.Fatalf("FormatUTC = %q", got)
	}
}
