package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/timeutil"
)

// InviteResult is the soft-failure shape of the outbound invite operations.
type InviteResult struct {
	OK     bool   `json:"ok"`
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// SendSlotInvites emails the applicant every open manager-proposed slot for
// them. Invites are suppressed when one was already sent after the newest
// open slot was created, so repeated calls do not spam the applicant.
func (u *NegotiationUsecase) SendSlotInvites(ctx context.Context, candidateID uint) (InviteResult, error) {
	cand, err := u.candidates.FindByID(candidateID)
	if err != nil {
		return InviteResult{}, err
	}
	if cand == nil {
		return InviteResult{OK: true, Reason: "candidate not found"}, nil
	}
	manager, err := u.managers.FindByID(cand.ManagerID)
	if err != nil {
		return InviteResult{}, err
	}
	if manager == nil {
		return InviteResult{OK: true, Reason: "no manager assigned"}, nil
	}

	repos := u.store.Repos()
	slots, err := repos.Slots.OpenSlotsAsc(cand.ID, domain.ProposedByManager, u.opts.OpenSlotLimit)
	if err != nil {
		return InviteResult{}, err
	}
	if len(slots) == 0 {
		return InviteResult{OK: true, Reason: "no open slots"}, nil
	}

	newest := slots[0].CreatedAt
	for _, slot := range slots {
		if slot.CreatedAt.After(newest) {
			newest = slot.CreatedAt
		}
	}
	last, err := repos.Events.LatestByType(cand.ID, domain.EventRequestTimeConfirmation)
	if err != nil {
		return InviteResult{}, err
	}
	if last != nil && !last.CreatedAt.Before(newest) {
		return InviteResult{OK: true, Reason: "invite already sent"}, nil
	}

	subject, body := u.slotInviteEmail(cand, slots)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       cand.Email,
		Subject:  subject,
		HTMLBody: body,
		ThreadID: cand.GmailThreadID,
	})
	if err != nil {
		return InviteResult{}, err
	}
	u.stampThread(cand, sent.ThreadID)

	err = u.store.InTx(ctx, func(r repository.Repos) error {
		msg := &domain.Message{
			GmailMessageID: sent.MessageID,
			GmailThreadID:  sent.ThreadID,
			CandidateID:    cand.ID,
			ManagerID:      manager.ID,
			Direction:      domain.DirectionOutbound,
			SenderEmail:    u.opts.SenderEmail,
			Subject:        subject,
			Body:           body,
			ReceivedAt:     time.Now().UTC(),
			Intent:         domain.IntentRequestTimeConfirmation,
		}
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		if err := r.Events.Create(&domain.ConversationEvent{
			CandidateID: cand.ID,
			EventType:   domain.EventRequestTimeConfirmation,
			EventData: domain.MarshalMeta(map[string]interface{}{
				"slot_count": len(slots),
			}),
			SourceMessageID: &msg.ID,
		}); err != nil {
			return err
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusAwaitingCandidateConfirmation
		return r.Statuses.Update(status)
	})
	if err != nil {
		log.Printf("[Invite] outbound log failed for candidate %d: %v", cand.ID, err)
	}
	return InviteResult{OK: true, Sent: true}, nil
}

// ProposeTimeToApplicant creates a manager-side slot from an explicit time
// and invites the applicant to confirm it. Used when a manager states a time
// out of band instead of over email.
func (u *NegotiationUsecase) ProposeTimeToApplicant(ctx context.Context, candidateID uint, startISO, endISO string) (InviteResult, error) {
	cand, err := u.candidates.FindByID(candidateID)
	if err != nil {
		return InviteResult{}, err
	}
	if cand == nil {
		return InviteResult{OK: true, Reason: "candidate not found"}, nil
	}
	manager, err := u.managers.FindByID(cand.ManagerID)
	if err != nil {
		return InviteResult{}, err
	}
	if manager == nil {
		return InviteResult{OK: true, Reason: "no manager assigned"}, nil
	}

	start, ok := timeutil.ParseFlexible(startISO)
	if !ok {
		return InviteResult{OK: true, Reason: fmt.Sprintf("unparsable start time %q", startISO)}, nil
	}
	var end *time.Time
	if endISO != "" {
		if e, ok := timeutil.ParseFlexible(endISO); ok && e.After(start) {
			end = &e
		}
	}

	var slot domain.InterviewSlot
	err = u.store.InTx(ctx, func(r repository.Repos) error {
		slot = domain.InterviewSlot{
			CandidateID: cand.ID,
			ProposedBy:  domain.ProposedByManager,
			StartTime:   start,
			EndTime:     end,
			Status:      domain.SlotProposed,
		}
		if err := r.Slots.Create(&slot); err != nil {
			return err
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusAwaitingCandidateConfirmation
		return r.Statuses.Update(status)
	})
	if err != nil {
		return InviteResult{}, err
	}

	subject, body := u.proposeTimeEmail(cand, start, end)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       cand.Email,
		Subject:  subject,
		HTMLBody: body,
		ThreadID: cand.GmailThreadID,
	})
	if err != nil {
		return InviteResult{}, err
	}
	u.stampThread(cand, sent.ThreadID)

	if err := u.logOutbound(ctx, sent, domain.OutboundEmail{To: cand.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, domain.IntentRequestTimeConfirmation,
		&domain.ConversationEvent{
			CandidateID: cand.ID,
			EventType:   domain.EventRequestTimeConfirmation,
			EventData: domain.MarshalMeta(map[string]interface{}{
				"slot_id": slot.ID,
			}),
		}); err != nil {
		log.Printf("[Invite] outbound log failed for candidate %d: %v", cand.ID, err)
	}
	return InviteResult{OK: true, Sent: true}, nil
}
