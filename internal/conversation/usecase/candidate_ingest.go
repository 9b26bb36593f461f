package usecase

import (
	"context"
	"log"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
)

// IngestCandidateReplies processes unread mail from every known candidate.
// Mirrors IngestManagerReplies: fetch failures abort one candidate's batch,
// per-message failures are counted and the run continues.
func (u *NegotiationUsecase) IngestCandidateReplies(ctx context.Context) (RunResult, error) {
	res := RunResult{OK: true}

	candidates, err := u.candidates.FindAllWithEmail()
	if err != nil {
		res.OK = false
		return res, err
	}

	for i := range candidates {
		cand := candidates[i]
		emails, err := u.mail.FetchUnreadFrom(ctx, cand.Email, u.opts.FetchLimit)
		if err != nil {
			log.Printf("[CandidateIngest] fetch failed for %s: %v", cand.Email, err)
			res.Errors++
			continue
		}
		for _, email := range emails {
			email := email
			u.processOne(ctx, email, &res, func(ctx context.Context, email domain.InboundEmail) (outcome, error) {
				return u.handleCandidateMessage(ctx, &cand, email)
			})
		}
	}

	log.Printf("[CandidateIngest] run complete: processed=%d skipped=%d errors=%d",
		res.Processed, res.Skipped, res.Errors)
	return res, nil
}

func (u *NegotiationUsecase) handleCandidateMessage(ctx context.Context, cand *canddomain.Candidate, email domain.InboundEmail) (outcome, error) {
	manager, err := u.managers.FindByID(cand.ManagerID)
	if err != nil {
		return outcomeSkipped, err
	}
	if manager == nil {
		log.Printf("[CandidateIngest] no manager resolved for candidate %d, skipping %s", cand.ID, email.ID)
		return outcomeSkipped, nil
	}
	u.stampThread(cand, email.ThreadID)

	open, err := u.store.Repos().Slots.OpenSlots(cand.ID, domain.ProposedByManager, u.opts.OpenSlotLimit)
	if err != nil {
		return outcomeSkipped, err
	}

	result := u.extractIntent(ctx, cand.ID, email)
	windows := statedWindows(result.Meta)

	// First stated time that matches an open manager slot wins; later times
	// in the same message are ignored once an agreement is reached.
	for _, w := range windows {
		if m := FindMatchingSlot(open, w.Start, w.End, u.opts.ToleranceMinutes); m != nil {
			return u.acceptSlot(ctx, cand, manager, *m, w.End, email, result, domain.EventCandidateAccepted)
		}
	}

	if len(windows) > 0 {
		return u.candidateCounterProposed(ctx, manager, cand, email, result, windows)
	}
	return u.candidateRepliedNoTime(ctx, manager, cand, email, result)
}

// candidateCounterProposed records the candidate's alternative times and
// asks the manager to confirm one.
func (u *NegotiationUsecase) candidateCounterProposed(
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
		for _, w := range windows {
			slot := domain.InterviewSlot{
				CandidateID:     cand.ID,
				ProposedBy:      domain.ProposedByApplicant,
				StartTime:       w.Start,
				EndTime:         w.End,
				Status:          domain.SlotProposed,
				SourceMessageID: &msg.ID,
			}
			if err := r.Slots.Create(&slot); err != nil {
				return err
			}
		}
		status, err := r.Statuses.GetOrCreate(cand.ID)
		if err != nil {
			return err
		}
		status.CurrentStatus = domain.StatusAwaitingManagerConfirmation
		if err := r.Statuses.Update(status); err != nil {
			return err
		}
		return r.Events.Create(&domain.ConversationEvent{
			CandidateID: cand.ID,
			EventType:   domain.EventCandidateProposed,
			EventData: domain.MarshalMeta(map[string]interface{}{
				"proposed_count": len(windows),
			}),
			SourceMessageID: &msg.ID,
		})
	})
	if err != nil {
		return outcomeSkipped, err
	}

	subject, body := u.proposalSummaryEmail(manager, cand, windows)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       manager.Email,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if err := u.logOutbound(ctx, sent, domain.OutboundEmail{To: manager.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, "", nil); err != nil {
		log.Printf("[CandidateIngest] outbound log failed for candidate %d: %v", cand.ID, err)
	}
	return outcomeProcessed, nil
}

// candidateRepliedNoTime records the reply and forwards the raw body to the
// manager for manual follow-up.
func (u *NegotiationUsecase) candidateRepliedNoTime(
	ctx context.Context,
	manager *canddomain.HiringManager,
	cand *canddomain.Candidate,
	email domain.InboundEmail,
	result ai.IntentResult,
) (outcome, error) {
	err := u.store.InTx(ctx, func(r repository.Repos) error {
		msg := u.inboundMessage(email, cand.ID, manager.ID, result)
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		return r.Events.Create(&domain.ConversationEvent{
			CandidateID:     cand.ID,
			EventType:       domain.EventCandidateRepliedNoTime,
			SourceMessageID: &msg.ID,
		})
	})
	if err != nil {
		return outcomeSkipped, err
	}

	subject, body := u.fallbackForwardEmail(manager, cand, email.Body)
	sent, err := u.mail.SendHTML(ctx, domain.OutboundEmail{
		To:       manager.Email,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if err := u.logOutbound(ctx, sent, domain.OutboundEmail{To: manager.Email, Subject: subject, HTMLBody: body},
		cand.ID, manager.ID, "", nil); err != nil {
		log.Printf("[CandidateIngest] outbound log failed for candidate %d: %v", cand.ID, err)
	}
	return outcomeProcessed, nil
}
