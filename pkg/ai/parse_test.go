package ai

import "testing"

func TestDecodeIntent(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		out := decodeIntent(`{"intent":"MEETING_SCHEDULED","meeting_iso":"2025-08-15T14:00","notes":"ok"}`)
		if out.Intent != IntentMeetingScheduled {
			t.Fatalf("intent = %s", out.Intent)
		}
		if out.Meta.MeetingISO != "2025-08-15T14:00" {
			t.Fatalf("meeting_iso = %q", out.Meta.MeetingISO)
		}
	})

	t.Run("fenced JSON with prose", func(t *testing.T) {
		raw := "Sure, here you go:\n```json\n{\"intent\":\"rejection\"}\n```"
		out := decodeIntent(raw)
		if out.Intent != IntentRejection {
			t.Fatalf("intent = %s", out.Intent)
		}
	})

	t.Run("unknown intent fails closed", func(t *testing.T) {
		out := decodeIntent(`{"intent":"MAYBE_LATER","meeting_iso":"2025-08-15T14:00"}`)
		if out.Intent != IntentOther {
			t.Fatalf("intent = %s, want OTHER", out.Intent)
		}
		if out.HasTimes() {
			t.Fatal("meta must be empty when intent fails closed")
		}
	})

	t.Run("garbage fails closed", func(t *testing.T) {
		out := decodeIntent("I could not parse that email, sorry!")
		if out.Intent != IntentOther || out.HasTimes() {
			t.Fatalf("got %+v, want bare OTHER", out)
		}
	})

	t.Run("meeting without time downgrades to proceed", func(t *testing.T) {
		out := decodeIntent(`{"intent":"MEETING_SCHEDULED","notes":"manager said yes"}`)
		if out.Intent != IntentProceed {
			t.Fatalf("intent = %s, want PROCEED", out.Intent)
		}
	})

	t.Run("null strings ignored", func(t *testing.T) {
		out := decodeIntent(`{"intent":"PROCEED","meeting_iso":"null","proposed_slots":[{"start":"null"}]}`)
		if out.HasTimes() {
			t.Fatalf("null time fields leaked into meta: %+v", out.Meta)
		}
	})

	t.Run("proposed slots kept in order", func(t *testing.T) {
		out := decodeIntent(`{"intent":"MEETING_SCHEDULED","proposed_slots":[{"start":"2025-08-15T14:00"},{"start":"2025-08-16T10:00","end":"2025-08-16T11:00"}]}`)
		if len(out.Meta.ProposedSlots) != 2 {
			t.Fatalf("slots = %d", len(out.Meta.ProposedSlots))
		}
		if out.Meta.ProposedSlots[1].End != "2025-08-16T11:00" {
			t.Fatalf("end = %q", out.Meta.ProposedSlots[1].End)
		}
	})
}

func TestDecodeEvaluation(t *testing.T) {
	eval, err := decodeEvaluation("```json\n{\"score\": 7.5, \"summary\": \"Strong backend profile.\"}\n```")
	if err != nil {
		t.Fatal(err)
	}
	if eval.Score != 7.5 || eval.Summary == "" {
		t.Fatalf("eval = %+v", eval)
	}

	if _, err := decodeEvaluation("not json at all"); err == nil {
		t.Fatal("want error for undecodable evaluation")
	}

	eval, err = decodeEvaluation(`{"score": 14.0, "summary": "x"}`)
	if err != nil {
		t.Fatal(err)
	}
	if eval.Score != 10 {
		t.Fatalf("score not clamped: %v", eval.Score)
	}
}
