package usecase

import (
	"time"

	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/timeutil"
)

// timeWindow is one usable time stated in a message, normalized to UTC.
type timeWindow struct {
	Start time.Time
	End   *time.Time
}

// statedWindows collects every usable time from an extraction result, in
// stated order: the single meeting field first, then the proposed ranges.
// Unparsable values are dropped silently, duplicate starts collapse to the
// first occurrence, and an end at or before its start is discarded (the
// start is kept).
func statedWindows(meta ai.IntentMeta) []timeWindow {
	var windows []timeWindow
	seen := make(map[int64]bool)

	add := func(start time.Time, end *time.Time) {
		key := start.Unix()
		if seen[key] {
			return
		}
		seen[key] = true
		if end != nil && !end.After(start) {
			end = nil
		}
		windows = append(windows, timeWindow{Start: start, End: end})
	}

	if meta.MeetingISO != "" {
		if start, ok := timeutil.ParseFlexible(meta.MeetingISO); ok {
			add(start, nil)
		}
	}
	for _, slot := range meta.ProposedSlots {
		start, ok := timeutil.ParseFlexible(slot.Start)
		if !ok {
			continue
		}
		var end *time.Time
		if slot.End != "" {
			if e, ok := timeutil.ParseFlexible(slot.End); ok {
				end = &e
			}
		}
		add(start, end)
	}
	return windows
}
