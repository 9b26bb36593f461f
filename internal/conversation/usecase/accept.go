package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/calendar"
)

// acceptSlot commits an agreement: the matched slot flips to accepted, the
// status cache records the final meeting time, and both parties get a
// confirmation with the meeting link. The decision writes commit first; the
// calendar call and the emails run after the commit so a transport failure
// never rolls back an agreement (the inbound message row makes the retry a
// dedup skip).
func (u *NegotiationUsecase) acceptSlot(
	ctx context.Context,
	cand *canddomain.Candidate,
	manager *canddomain.HiringManager,
	slot domain.InterviewSlot,
	statedEnd *time.Time,
	email domain.InboundEmail,
	result ai.IntentResult,
	eventType string,
) (outcome, error) {
	err := u.store.InTx(ctx, func(r repository.Repos) error {
		accepted, err := r.Slots.HasAccepted(cand.ID)
		if err != nil {
			return err
		}
		if accepted {
			return ErrSlotConflict
		}

		msg := u.inboundMessage(email, cand.ID, manager.ID, result)
		if err := r.Messages.Create(msg); err != nil {
			return err
		}

		if slot.EndTime == nil && statedEnd != nil {
			slot.EndTime = statedEnd
		}
		slot.Status = domain.SlotAccepted
		if err := r.Slots.Update(&slot); err != nil {
			return err
		}

		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusInterviewConfirmed
		status.FinalMeetingTime = &slot.StartTime
		if err := r.Statuses.Update(status); err != nil {
			return err
		}

		return r.Events.Create(&domain.ConversationEvent{
			CandidateID: cand.ID,
			EventType:   eventType,
			EventData: domain.MarshalMeta(map[string]interface{}{
				"slot_id":    slot.ID,
				"start_time": slot.StartTime.Format(time.RFC3339),
			}),
			SourceMessageID: &msg.ID,
		})
	})
	if errors.Is(err, ErrSlotConflict) {
		// A prior acceptance stands; log the message so the retry dedups,
		// and leave the accepted slot untouched.
		log.Printf("[Negotiation] candidate %d already has an accepted slot, ignoring re-acceptance from %s", cand.ID, email.ID)
		if terr := u.store.InTx(ctx, func(r repository.Repos) error {
			return r.Messages.Create(u.inboundMessage(email, cand.ID, manager.ID, result))
		}); terr != nil {
			return outcomeSkipped, terr
		}
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}

	end := slot.StartTime.Add(time.Hour)
	if slot.EndTime != nil {
		end = *slot.EndTime
	}

	var meetLink string
	event, err := u.calendar.CreateEventWithMeet(ctx, calendar.EventRequest{
		Summary:     "Interview: " + cand.Name,
		Description: "Interview for " + cand.Position,
		Start:       slot.StartTime,
		End:         end,
		Attendees:   []string{cand.Email, manager.Email},
		Timezone:    u.opts.DefaultTimezone,
	})
	if err != nil {
		// The agreement is committed; a calendar outage must not undo it.
		log.Printf("[Negotiation] calendar event creation failed for candidate %d: %v", cand.ID, err)
	} else {
		meetLink = event.MeetLink
	}

	subject, body := u.candidateConfirmationEmail(cand, slot, meetLink)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       cand.Email,
		Subject:  subject,
		HTMLBody: body,
		ThreadID: cand.GmailThreadID,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if lerr := u.logOutbound(ctx, sent, domain.OutboundEmail{To: cand.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, "", nil); lerr != nil {
		log.Printf("[Negotiation] outbound log failed for candidate %d: %v", cand.ID, lerr)
	}

	subject, body = u.managerConfirmationEmail(manager, cand, slot, meetLink)
	sent, err = u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       manager.Email,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if lerr := u.logOutbound(ctx, sent, domain.OutboundEmail{To: manager.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, "", nil); lerr != nil {
		log.Printf("[Negotiation] outbound log failed for candidate %d: %v", cand.ID, lerr)
	}

	log.Printf("[Negotiation] interview confirmed for candidate %d at %s", cand.ID, slot.StartTime.Format(time.RFC3339))
	return outcomeProcessed, nil
}
