package usecase

import (
	"time"

	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/pkg/timeutil"
)

// FindMatchingSlot returns the first open slot whose start is within the
// tolerance of the stated start. When both the slot and the stated window
// carry an end time, the ends must also agree; a missing end on either side
// is ignored. Callers pass slots newest first, so ties resolve to the most
// recently proposed slot. Pure; does not mutate its inputs.
func FindMatchingSlot(open []domain.InterviewSlot, start time.Time, end *time.Time, toleranceMinutes int) *domain.InterviewSlot {
	for i := range open {
		slot := &open[i]
		if !timeutil.WithinTolerance(slot.StartTime, start, toleranceMinutes) {
			continue
		}
		if slot.EndTime != nil && end != nil &&
			!timeutil.WithinTolerance(*slot.EndTime, *end, toleranceMinutes) {
			continue
		}
		return slot
	}
	return nil
}
