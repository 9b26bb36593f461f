package usecase

import (
	"context"
	"log"
	"regexp"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
)

// quickConfirmRe catches short textual confirmations the extractor tends to
// classify as OTHER ("sounds good!", "ok, confirmed").
var quickConfirmRe = regexp.MustCompile(`(?i)\b(agreed?|works for me|confirm(?:ed)?|sounds good|okay|ok|that works|looks good)\b`)

// negatedRe blocks the quick-confirm shortcut when the confirmation word sits
// inside a refusal ("it's not ok", "can't confirm yet").
var negatedRe = regexp.MustCompile(`(?i)\b(not|never|cannot|can'?t|won'?t|don'?t|doesn'?t|isn'?t|unable)\b`)

// IngestManagerReplies processes unread mail from every known hiring
// manager. A fetch failure aborts only that manager's batch; per-message
// failures are counted and the run continues.
func (u *NegotiationUsecase) IngestManagerReplies(ctx context.Context) (RunResult, error) {
	res := RunResult{OK: true}

	managers, err := u.managers.FindAll()
	if err != nil {
		res.OK = false
		return res, err
	}

	for i := range managers {
		manager := managers[i]
		emails, err := u.mail.FetchUnreadFrom(ctx, manager.Email, u.opts.FetchLimit)
		if err != nil {
			log.Printf("[ManagerIngest] fetch failed for %s: %v", manager.Email, err)
			res.Errors++
			continue
		}
		for _, email := range emails {
			email := email
			u.processOne(ctx, email, &res, func(ctx context.Context, email domain.InboundEmail) (outcome, error) {
				return u.handleManagerMessage(ctx, &manager, email)
			})
		}
	}

	log.Printf("[ManagerIngest] run complete: processed=%d skipped=%d errors=%d",
		res.Processed, res.Skipped, res.Errors)
	return res, nil
}

func (u *NegotiationUsecase) handleManagerMessage(ctx context.Context, manager *canddomain.HiringManager, email domain.InboundEmail) (outcome, error) {
	cand, err := u.candidates.FindActiveForManager(manager.ID, email.ThreadID)
	if err != nil {
		return outcomeSkipped, err
	}
	if cand == nil {
		log.Printf("[ManagerIngest] no active candidate for manager %s, skipping %s", manager.ID, email.ID)
		return outcomeSkipped, nil
	}
	u.stampThread(cand, email.ThreadID)

	result := u.extractIntent(ctx, cand.ID, email)
	windows := statedWindows(result.Meta)

	openApplicant, err := u.store.Repos().Slots.OpenSlots(cand.ID, domain.ProposedByApplicant, u.opts.OpenSlotLimit)
	if err != nil {
		return outcomeSkipped, err
	}

	// Acceptance of an applicant-proposed slot: either the manager restated a
	// time that matches one, or the reply reads as a plain confirmation, in
	// which case the newest proposal wins. A reply the extractor classified as
	// a rejection never accepts, whatever its wording.
	if len(openApplicant) > 0 && result.Intent != ai.IntentRejection {
		var chosen *domain.InterviewSlot
		var statedEnd *time.Time
		for _, w := range windows {
			if m := FindMatchingSlot(openApplicant, w.Start, w.End, u.opts.ToleranceMinutes); m != nil {
				chosen, statedEnd = m, w.End
				break
			}
		}
		confirm := result.Intent == ai.IntentProceed ||
			(quickConfirmRe.MatchString(email.Body) && !negatedRe.MatchString(email.Body))
		if chosen == nil && confirm {
			chosen = &openApplicant[0]
		}
		if chosen != nil {
			return u.acceptSlot(ctx, cand, manager, *chosen, statedEnd, email, result, domain.EventManagerAccepted)
		}
	}

	switch {
	case result.Intent == ai.IntentMeetingScheduled && len(windows) > 0:
		return u.managerProposedTimes(ctx, manager, cand, email, result, windows)

	case result.Intent == ai.IntentSalaryDiscussion && result.Meta.SalaryAmount != nil:
		err := u.store.InTx(ctx, func(r repository.Repos) error {
			msg := u.inboundMessage(email, cand.ID, manager.ID, result)
			if err := r.Messages.Create(msg); err != nil {
				return err
			}
			if err := r.Events.Create(intentEvent(msg, result)); err != nil {
				return err
			}
			status, err := r.Statuses.GetOrCreate(cand.ID)
			if err != nil {
				return err
			}
			status.CurrentStatus = domain.StatusSalaryDiscussed
			return r.Statuses.Update(status)
		})
		return outcomeProcessed, err

	case result.Intent == ai.IntentRejection:
		err := u.store.InTx(ctx, func(r repository.Repos) error {
			msg := u.inboundMessage(email, cand.ID, manager.ID, result)
			if err := r.Messages.Create(msg); err != nil {
				return err
			}
			if err := r.Events.Create(intentEvent(msg, result)); err != nil {
				return err
			}
			status, err := r.Statuses.GetOrCreate(cand.ID)
			if err != nil {
				return err
			}
			status.CurrentStatus = domain.StatusRejectedByManager
			return r.Statuses.Update(status)
		})
		return outcomeProcessed, err

	case result.Intent == ai.IntentProceed:
		return u.managerApproved(ctx, manager, cand, email, result, windows)

	default:
		err := u.store.InTx(ctx, func(r repository.Repos) error {
			msg := u.inboundMessage(email, cand.ID, manager.ID, result)
			if err := r.Messages.Create(msg); err != nil {
				return err
			}
			return r.Events.Create(intentEvent(msg, result))
		})
		return outcomeProcessed, err
	}
}

// intentEvent ledgers one inbound manager reply under its extracted intent,
// so the event history covers every reply, not only slot transitions.
func intentEvent(msg *domain.Message, result ai.IntentResult) *domain.ConversationEvent {
	return &domain.ConversationEvent{
		CandidateID:     msg.CandidateID,
		EventType:       result.Intent,
		EventData:       domain.MarshalMeta(result.Meta),
		SourceMessageID: &msg.ID,
	}
}

// managerProposedTimes records the manager's proposed slots and immediately
// invites the applicant to pick one.
func (u *NegotiationUsecase) managerProposedTimes(
	ctx context.Context,
	manager *canddomain.HiringManager,
	cand *canddomain.Candidate,
	email domain.InboundEmail,
	result ai.IntentResult,
	windows []timeWindow,
) (outcome, error) {
	var created []domain.InterviewSlot
	err := u.store.InTx(ctx, func(r repository.Repos) error {
		msg := u.inboundMessage(email, cand.ID, manager.ID, result)
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		if err := r.Events.Create(intentEvent(msg, result)); err != nil {
			return err
		}
		for _, w := range windows {
			slot := domain.InterviewSlot{
				CandidateID:     cand.ID,
				ProposedBy:      domain.ProposedByManager,
				StartTime:       w.Start,
				EndTime:         w.End,
				Status:          domain.SlotProposed,
				SourceMessageID: &msg.ID,
			}
			if err := r.Slots.Create(&slot); err != nil {
				return err
			}
			created = append(created, slot)
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusAwaitingCandidateConfirmation
		return r.Statuses.Update(status)
	})
	if err != nil {
		return outcomeSkipped, err
	}

	subject, body := u.slotInviteEmail(cand, created)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       cand.Email,
		Subject:  subject,
		HTMLBody: body,
		ThreadID: cand.GmailThreadID,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	u.stampThread(cand, sent.ThreadID)

	if err := u.logOutbound(ctx, sent, domain.OutboundEmail{To: cand.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, domain.IntentRequestTimeConfirmation,
		&domain.ConversationEvent{
			CandidateID: cand.ID,
			EventType:   domain.EventRequestTimeConfirmation,
			EventData: domain.MarshalMeta(map[string]interface{}{
				"slot_count": len(created),
			}),
		}); err != nil {
		log.Printf("[ManagerIngest] outbound log failed for candidate %d: %v", cand.ID, err)
	}
	return outcomeProcessed, nil
}

// managerApproved handles PROCEED: approval with no concrete time. When the
// message carried no time at all we ask the manager for availability windows.
func (u *NegotiationUsecase) managerApproved(
	ctx context.Context,
	manager *canddomain.HiringManager,
	cand *canddomain.Candidate,
	email domain.InboundEmail,
	result ai.IntentResult,
	windows []timeWindow,
) (outcome, error) {
	err := u.store.InTx(ctx, func(r repository.Repos) error {
		msg := u.inboundMessage(email, cand.ID, manager.ID, result)
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		if err := r.Events.Create(intentEvent(msg, result)); err != nil {
			return err
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusManagerApproved
		return r.Statuses.Update(status)
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if len(windows) > 0 {
		return outcomeProcessed, nil
	}

	subject, body := u.availabilityAskEmail(manager, cand)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       manager.Email,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return outcomeSkipped, err
	}

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
			Intent:         domain.IntentAskedForAvailability,
		}
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		if err := r.Events.Create(&domain.ConversationEvent{
			CandidateID:     cand.ID,
			EventType:       domain.EventAskedForAvailability,
			SourceMessageID: &msg.ID,
		}); err != nil {
			return err
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusAwaitingManagerAvailability
		return r.Statuses.Update(status)
	})
	if err != nil {
		log.Printf("[ManagerIngest] availability follow-up log failed for candidate %d: %v", cand.ID, err)
	}
	return outcomeProcessed, nil
}
