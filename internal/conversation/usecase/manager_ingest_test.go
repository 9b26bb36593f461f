package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/pkg/ai"
)

func TestManagerProposesTime(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.ai.result = ai.IntentResult{
		Intent: ai.IntentMeetingScheduled,
		Meta:   ai.IntentMeta{MeetingISO: "2025-08-15T14:00:00+05:45"},
	}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:       "mgr-msg-1",
		ThreadID: "thread-1",
		From:     manager.Email,
		Subject:  "Re: Candidate",
		Body:     "Let's meet on the 15th at 2pm.",
		Date:     time.Now().UTC(),
	}}

	res, err := te.engine.IngestManagerReplies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 || res.Errors != 0 {
		t.Fatalf("res = %+v", res)
	}

	if len(te.store.slots) != 1 {
		t.Fatalf("slots = %d", len(te.store.slots))
	}
	slot := te.store.slots[0]
	if slot.ProposedBy != domain.ProposedByManager || slot.Status != domain.SlotProposed {
		t.Fatalf("slot = %+v", slot)
	}
	if got := slot.StartTime.UTC().Format(time.RFC3339); got != "2025-08-15T08:15:00Z" {
		t.Fatalf("start = %s", got)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusAwaitingCandidateConfirmation {
		t.Fatalf("status = %+v", status)
	}
	if event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.IntentMeetingScheduled); event == nil {
		t.Fatal("no MEETING_SCHEDULED event for the inbound proposal")
	}

	var invite *domain.Message
	for i := range te.store.messages {
		if te.store.messages[i].Direction == domain.DirectionOutbound {
			invite = &te.store.messages[i]
		}
	}
	if invite == nil || invite.Intent != domain.IntentRequestTimeConfirmation {
		t.Fatalf("outbound = %+v", invite)
	}
	if got := te.mail.sentTo(cand.Email); len(got) != 1 {
		t.Fatalf("invites sent to candidate = %d", len(got))
	}
	if !te.mail.wasMarked("mgr-msg-1") {
		t.Fatal("inbound message not marked read")
	}
}

func TestManagerQuickConfirmAcceptsNewestApplicantSlot(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	older := mustParse(t, "2025-08-18T04:00:00Z")
	newer := mustParse(t, "2025-08-19T04:00:00Z")
	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant, StartTime: older,
	})
	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant, StartTime: newer,
	})

	te.ai.result = ai.IntentResult{Intent: ai.IntentOther}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-2",
		From: manager.Email,
		Body: "Sounds good, let's do it.",
		Date: time.Now().UTC(),
	}}

	res, err := te.engine.IngestManagerReplies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 {
		t.Fatalf("res = %+v", res)
	}

	var accepted []domain.InterviewSlot
	for _, s := range te.store.slots {
		if s.Status == domain.SlotAccepted {
			accepted = append(accepted, s)
		}
	}
	if len(accepted) != 1 || !accepted[0].StartTime.Equal(newer) {
		t.Fatalf("accepted = %+v, want the newest proposal", accepted)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusInterviewConfirmed {
		t.Fatalf("status = %+v", status)
	}
	if status.FinalMeetingTime == nil || !status.FinalMeetingTime.Equal(newer) {
		t.Fatalf("final meeting time = %v", status.FinalMeetingTime)
	}

	event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.EventManagerAccepted)
	if event == nil {
		t.Fatal("no MANAGER_ACCEPTED event")
	}
	if len(te.calendar.calls) != 1 {
		t.Fatalf("calendar calls = %d", len(te.calendar.calls))
	}
	if len(te.mail.sentTo(cand.Email)) != 1 || len(te.mail.sentTo(manager.Email)) != 1 {
		t.Fatal("both parties must be notified")
	}
}

func TestManagerRestatedTimeBeatsNewestProposal(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	older := mustParse(t, "2025-08-18T04:00:00Z")
	newer := mustParse(t, "2025-08-19T04:00:00Z")
	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant, StartTime: older,
	})
	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant, StartTime: newer,
	})

	te.ai.result = ai.IntentResult{
		Intent: ai.IntentMeetingScheduled,
		Meta:   ai.IntentMeta{MeetingISO: older.Add(2 * time.Minute).Format(time.RFC3339)},
	}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-3",
		From: manager.Email,
		Body: "The 18th works for me.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, s := range te.store.slots {
		if s.StartTime.Equal(older) && s.Status != domain.SlotAccepted {
			t.Fatalf("restated slot not accepted: %+v", s)
		}
		if s.StartTime.Equal(newer) && s.Status != domain.SlotProposed {
			t.Fatalf("other slot must stay proposed: %+v", s)
		}
	}
}

func TestManagerProceedWithoutTimeAsksForAvailability(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.ai.result = ai.IntentResult{Intent: ai.IntentProceed}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-4",
		From: manager.Email,
		Body: "Let's move forward with this candidate.",
		Date: time.Now().UTC(),
	}}

	res, err := te.engine.IngestManagerReplies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 {
		t.Fatalf("res = %+v", res)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusAwaitingManagerAvailability {
		t.Fatalf("status = %+v", status)
	}

	var ask *domain.Message
	for i := range te.store.messages {
		if te.store.messages[i].Intent == domain.IntentAskedForAvailability {
			ask = &te.store.messages[i]
		}
	}
	if ask == nil || ask.Direction != domain.DirectionOutbound {
		t.Fatalf("availability follow-up not logged: %+v", ask)
	}
	if event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.EventAskedForAvailability); event == nil {
		t.Fatal("no ASKED_FOR_AVAILABILITY event")
	}
	if len(te.mail.sentTo(manager.Email)) != 1 {
		t.Fatal("manager must receive the availability ask")
	}
}

func TestManagerRejectionIsTerminal(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.ai.result = ai.IntentResult{Intent: ai.IntentRejection}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-5",
		From: manager.Email,
		Body: "Not a fit for the team, sorry.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusRejectedByManager {
		t.Fatalf("status = %+v", status)
	}
	if len(te.mail.sent) != 0 {
		t.Fatalf("rejection must not trigger outbound mail, sent %d", len(te.mail.sent))
	}

	event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.IntentRejection)
	if event == nil {
		t.Fatal("no REJECTION event for the inbound rejection")
	}
	msg, _ := te.store.Repos().Messages.FindByTransportID("mgr-msg-5")
	if msg == nil || event.SourceMessageID == nil || *event.SourceMessageID != msg.ID {
		t.Fatalf("event not linked to its message: event=%+v msg=%+v", event, msg)
	}
}

func TestManagerSalaryDiscussion(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	amount := 180000
	te.ai.result = ai.IntentResult{
		Intent: ai.IntentSalaryDiscussion,
		Meta:   ai.IntentMeta{SalaryAmount: &amount, Currency: "NPR"},
	}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-6",
		From: manager.Email,
		Body: "We can offer 180k.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusSalaryDiscussed {
		t.Fatalf("status = %+v", status)
	}
	event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.IntentSalaryDiscussion)
	if event == nil || !strings.Contains(event.EventData, "180000") {
		t.Fatalf("salary event = %+v", event)
	}
}

func TestManagerMiscReplyRecordsIntentEvent(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.ai.result = ai.IntentResult{Intent: ai.IntentOther}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-9",
		From: manager.Email,
		Body: "Could you resend the resume?",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	event, _ := te.store.Repos().Events.LatestByType(cand.ID, domain.IntentOther)
	if event == nil {
		t.Fatal("no OTHER event for a misc manager reply")
	}
	msg, _ := te.store.Repos().Messages.FindByTransportID("mgr-msg-9")
	if msg == nil || event.SourceMessageID == nil || *event.SourceMessageID != msg.ID {
		t.Fatalf("event not linked to its message: event=%+v msg=%+v", event, msg)
	}
	if status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID); status != nil {
		t.Fatalf("misc reply must not change status, got %+v", status)
	}
}

func TestManagerNegatedConfirmationDoesNotAccept(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant,
		StartTime: mustParse(t, "2025-08-19T04:00:00Z"),
	})

	te.ai.result = ai.IntentResult{Intent: ai.IntentOther}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-10",
		From: manager.Email,
		Body: "That time is not ok for me, I'm afraid.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, s := range te.store.slots {
		if s.Status == domain.SlotAccepted {
			t.Fatalf("negated reply accepted a slot: %+v", s)
		}
	}
	if len(te.calendar.calls) != 0 {
		t.Fatalf("calendar calls = %d", len(te.calendar.calls))
	}
}

func TestManagerRejectionIgnoresOpenApplicantSlots(t *testing.T) {
	te := newTestEngine()
	cand, manager := te.seedPair()

	te.store.Repos().Slots.Create(&domain.InterviewSlot{
		CandidateID: cand.ID, ProposedBy: domain.ProposedByApplicant,
		StartTime: mustParse(t, "2025-08-19T04:00:00Z"),
	})

	te.ai.result = ai.IntentResult{Intent: ai.IntentRejection}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-11",
		From: manager.Email,
		Body: "Ok, I had another look. We will pass on this one.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}

	status, _ := te.store.Repos().Statuses.FindByCandidateID(cand.ID)
	if status == nil || status.CurrentStatus != domain.StatusRejectedByManager {
		t.Fatalf("status = %+v", status)
	}
	for _, s := range te.store.slots {
		if s.Status != domain.SlotProposed {
			t.Fatalf("slot must stay proposed: %+v", s)
		}
	}
}

func TestManagerIngestIdempotent(t *testing.T) {
	te := newTestEngine()
	_, manager := te.seedPair()

	te.ai.result = ai.IntentResult{
		Intent: ai.IntentMeetingScheduled,
		Meta:   ai.IntentMeta{MeetingISO: "2025-08-15T14:00:00+05:45"},
	}
	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-7",
		From: manager.Email,
		Body: "Friday 2pm.",
		Date: time.Now().UTC(),
	}}

	if _, err := te.engine.IngestManagerReplies(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := te.engine.IngestManagerReplies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || res.Processed != 0 {
		t.Fatalf("second run = %+v, want dedup skip", res)
	}

	if len(te.store.slots) != 1 {
		t.Fatalf("slots = %d, reprocessing duplicated the slot", len(te.store.slots))
	}
	var invites int
	for _, m := range te.store.messages {
		if m.Intent == domain.IntentRequestTimeConfirmation {
			invites++
		}
	}
	if invites != 1 {
		t.Fatalf("invites = %d, reprocessing duplicated the invite", invites)
	}
}

func TestManagerWithoutActiveCandidateSkips(t *testing.T) {
	te := newTestEngine()
	manager := canddomain.HiringManager{ID: "mgr-lonely", Name: "Hari Thapa", Email: "hari@example.com"}
	te.managers.Create(&manager)

	te.mail.unread[manager.Email] = []domain.InboundEmail{{
		ID:   "mgr-msg-8",
		From: manager.Email,
		Body: "Who is this about?",
		Date: time.Now().UTC(),
	}}

	res, err := te.engine.IngestManagerReplies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || res.Processed != 0 || res.Errors != 0 {
		t.Fatalf("res = %+v", res)
	}
	if len(te.store.messages) != 0 {
		t.Fatal("unattributable message must not be persisted")
	}
	if !te.mail.wasMarked("mgr-msg-8") {
		t.Fatal("skipped message must still be marked read")
	}
}

func TestProcessOneDeadLettersPoisonMessage(t *testing.T) {
	te := newTestEngine()
	email := domain.InboundEmail{ID: "poison-1", Body: "???", Date: time.Now().UTC()}
	fail := func(ctx context.Context, e domain.InboundEmail) (outcome, error) {
		return outcomeSkipped, errors.New("boom")
	}

	var res RunResult
	te.engine.processOne(context.Background(), email, &res, fail)
	te.engine.processOne(context.Background(), email, &res, fail)
	if te.mail.wasMarked("poison-1") {
		t.Fatal("message dead-lettered too early")
	}

	te.engine.processOne(context.Background(), email, &res, fail)
	if res.Errors != 3 {
		t.Fatalf("errors = %d", res.Errors)
	}
	if !te.mail.wasMarked("poison-1") {
		t.Fatal("message must be marked read after max attempts")
	}
	attempt, _ := te.store.Repos().Attempts.FindByTransportID("poison-1")
	if attempt == nil || attempt.Attempts != 3 {
		t.Fatalf("attempt = %+v", attempt)
	}
}
