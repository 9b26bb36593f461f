package usecase

import (
	"testing"
	"time"

	"hrflow-backend/internal/conversation/domain"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return v.UTC()
}

func TestFindMatchingSlot(t *testing.T) {
	base := mustParse(t, "2025-08-15T08:15:00Z")
	later := base.Add(2 * time.Hour)

	// Newest first, as the repository returns them.
	open := []domain.InterviewSlot{
		{ID: 2, StartTime: later, Status: domain.SlotProposed},
		{ID: 1, StartTime: base, Status: domain.SlotProposed},
	}

	t.Run("start within tolerance matches", func(t *testing.T) {
		got := FindMatchingSlot(open, base.Add(3*time.Minute), nil, 5)
		if got == nil || got.ID != 1 {
			t.Fatalf("got %+v, want slot 1", got)
		}
	})

	t.Run("no slot within tolerance", func(t *testing.T) {
		if got := FindMatchingSlot(open, base.Add(30*time.Minute), nil, 5); got != nil {
			t.Fatalf("got %+v, want nil", got)
		}
	})

	t.Run("slot end ignored when stated end absent", func(t *testing.T) {
		end := base.Add(time.Hour)
		withEnd := []domain.InterviewSlot{{ID: 3, StartTime: base, EndTime: &end, Status: domain.SlotProposed}}
		got := FindMatchingSlot(withEnd, base.Add(2*time.Minute), nil, 5)
		if got == nil || got.ID != 3 {
			t.Fatalf("got %+v, want slot 3", got)
		}
	})

	t.Run("mismatched ends reject when both present", func(t *testing.T) {
		end := base.Add(time.Hour)
		withEnd := []domain.InterviewSlot{{ID: 4, StartTime: base, EndTime: &end, Status: domain.SlotProposed}}
		statedEnd := base.Add(3 * time.Hour)
		if got := FindMatchingSlot(withEnd, base, &statedEnd, 5); got != nil {
			t.Fatalf("got %+v, want nil", got)
		}
		closeEnd := end.Add(4 * time.Minute)
		if got := FindMatchingSlot(withEnd, base, &closeEnd, 5); got == nil {
			t.Fatal("want match when both ends agree within tolerance")
		}
	})

	t.Run("newest slot wins a tie", func(t *testing.T) {
		tied := []domain.InterviewSlot{
			{ID: 6, StartTime: base.Add(2 * time.Minute), Status: domain.SlotProposed},
			{ID: 5, StartTime: base, Status: domain.SlotProposed},
		}
		got := FindMatchingSlot(tied, base.Add(time.Minute), nil, 5)
		if got == nil || got.ID != 6 {
			t.Fatalf("got %+v, want newest slot 6", got)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := open[1].Status
		_ = FindMatchingSlot(open, base, nil, 5)
		if open[1].Status != before {
			t.Fatal("input slice mutated")
		}
	})
}
