package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	candrepo "hrflow-backend/internal/candidate/repository"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/calendar"
	"hrflow-backend/pkg/timeutil"
)

// ErrSlotConflict is returned when an acceptance would create a second
// accepted slot for the same candidate.
var ErrSlotConflict = errors.New("candidate already has an accepted slot")

// MailTransport is the send/fetch boundary. pkg/gmail and pkg/imap both
// implement it.
type MailTransport interface {
	FetchUnreadFrom(ctx context.Context, sender string, limit int) ([]domain.InboundEmail, error)
	MarkRead(ctx context.Context, messageID string) error
	SendHTML(ctx context.Context, out domain.OutboundEmail) (domain.SendResult, error)
}

// CalendarService creates the interview event once a time is agreed.
type CalendarService interface {
	CreateEventWithMeet(ctx context.Context, req calendar.EventRequest) (calendar.EventResult, error)
}

// Options tunes the negotiation engine. Zero values fall back to the
// defaults below.
type Options struct {
	ToleranceMinutes int
	FetchLimit       int
	OpenSlotLimit    int
	MaxAttempts      int
	DefaultTimezone  string
	SenderEmail      string
}

func (o Options) withDefaults() Options {
	if o.ToleranceMinutes <= 0 {
		o.ToleranceMinutes = 5
	}
	if o.FetchLimit <= 0 {
		o.FetchLimit = 25
	}
	if o.OpenSlotLimit <= 0 {
		o.OpenSlotLimit = 10
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.DefaultTimezone == "" {
		o.DefaultTimezone = timeutil.DefaultTimezone
	}
	return o
}

// RunResult is the summary of one ingestion run.
type RunResult struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
	Skipped   int  `json:"skipped"`
	Errors    int  `json:"errors"`
}

// NegotiationUsecase drives the interview-slot negotiation: it ingests
// replies from managers and candidates, reconciles proposed times under the
// tolerance window, and fires the side effects of an agreement.
type NegotiationUsecase struct {
	store      repository.Store
	candidates candrepo.CandidateRepository
	managers   candrepo.ManagerRepository
	mail       MailTransport
	calendar   CalendarService
	ai         ai.Service
	opts       Options
	loc        *time.Location
}

func NewNegotiationUsecase(
	store repository.Store,
	candidates candrepo.CandidateRepository,
	managers candrepo.ManagerRepository,
	mail MailTransport,
	cal CalendarService,
	aiSvc ai.Service,
	opts Options,
) *NegotiationUsecase {
	opts = opts.withDefaults()
	return &NegotiationUsecase{
		store:      store,
		candidates: candidates,
		managers:   managers,
		mail:       mail,
		calendar:   cal,
		ai:         aiSvc,
		opts:       opts,
		loc:        timeutil.LoadLocation(opts.DefaultTimezone),
	}
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
)

// processOne wraps the per-message handler with dedup, attempt tracking and
// the mark-read decision. A message that fails stays unread so the next run
// retries it; after MaxAttempts failures it is dead-lettered (marked read)
// so a poison message cannot stall the loop forever.
func (u *NegotiationUsecase) processOne(
	ctx context.Context,
	email domain.InboundEmail,
	res *RunResult,
	handler func(context.Context, domain.InboundEmail) (outcome, error),
) {
	repos := u.store.Repos()

	existing, err := repos.Messages.FindByTransportID(email.ID)
	if err != nil {
		log.Printf("[Negotiation] dedup lookup failed for %s: %v", email.ID, err)
		res.Errors++
		return
	}
	if existing != nil {
		// Already processed; a crash between commit and mark-read lands here.
		if err := u.mail.MarkRead(ctx, email.ID); err != nil {
			log.Printf("[Negotiation] mark read failed for %s: %v", email.ID, err)
		}
		res.Skipped++
		return
	}

	out, err := handler(ctx, email)
	if err != nil {
		log.Printf("[Negotiation] processing %s failed: %v", email.ID, err)
		res.Errors++
		attempts, aerr := repos.Attempts.Increment(email.ID, err.Error())
		if aerr != nil {
			log.Printf("[Negotiation] attempt tracking failed for %s: %v", email.ID, aerr)
			return
		}
		if attempts >= u.opts.MaxAttempts {
			log.Printf("[Negotiation] dead-lettering %s after %d attempts", email.ID, attempts)
			if merr := u.mail.MarkRead(ctx, email.ID); merr != nil {
				log.Printf("[Negotiation] mark read failed for %s: %v", email.ID, merr)
			}
		}
		return
	}

	if err := repos.Attempts.Delete(email.ID); err != nil {
		log.Printf("[Negotiation] attempt cleanup failed for %s: %v", email.ID, err)
	}
	if err := u.mail.MarkRead(ctx, email.ID); err != nil {
		log.Printf("[Negotiation] mark read failed for %s: %v", email.ID, err)
	}

	switch out {
	case outcomeSkipped:
		res.Skipped++
	default:
		res.Processed++
	}
}

// extractIntent runs the AI extraction with a short prior-thread transcript.
// Extraction failures never propagate; they fail closed to OTHER.
func (u *NegotiationUsecase) extractIntent(ctx context.Context, candidateID uint, email domain.InboundEmail) ai.IntentResult {
	var thread []ai.ThreadEntry
	prior, err := u.store.Repos().Messages.FindByCandidateID(candidateID, 6)
	if err != nil {
		log.Printf("[Negotiation] thread lookup failed for candidate %d: %v", candidateID, err)
	}
	// FindByCandidateID returns newest first; the extractor wants oldest first.
	for i := len(prior) - 1; i >= 0; i-- {
		thread = append(thread, ai.ThreadEntry{
			Direction: prior[i].Direction,
			Subject:   prior[i].Subject,
			Body:      prior[i].Body,
			Timestamp: prior[i].ReceivedAt,
		})
	}

	result, err := u.ai.ExtractIntent(ctx, ai.IntentRequest{
		Subject:         email.Subject,
		Body:            email.Body,
		Thread:          thread,
		DefaultTimezone: u.opts.DefaultTimezone,
	})
	if err != nil {
		log.Printf("[Negotiation] intent extraction failed for %s: %v", email.ID, err)
		return ai.IntentResult{Intent: ai.IntentOther}
	}
	return result
}

// stampThread stores the thread id on the candidate at first contact so
// later replies resolve by exact thread match instead of the heuristic.
func (u *NegotiationUsecase) stampThread(cand *canddomain.Candidate, threadID string) {
	if threadID == "" || cand.GmailThreadID == threadID {
		return
	}
	if cand.GmailThreadID != "" {
		return
	}
	cand.GmailThreadID = threadID
	if err := u.candidates.Update(cand); err != nil {
		log.Printf("[Negotiation] thread stamp failed for candidate %d: %v", cand.ID, err)
	}
}

func (u *NegotiationUsecase) inboundMessage(email domain.InboundEmail, candidateID uint, managerID string, result ai.IntentResult) *domain.Message {
	return &domain.Message{
		GmailMessageID: email.ID,
		GmailThreadID:  email.ThreadID,
		CandidateID:    candidateID,
		ManagerID:      managerID,
		Direction:      domain.DirectionInbound,
		SenderEmail:    email.From,
		Subject:        email.Subject,
		Body:           email.Body,
		ReceivedAt:     email.Date,
		Intent:         result.Intent,
		MetaJSON:       domain.MarshalMeta(result.Meta),
	}
}

// logOutbound records an outbound message, optionally with an event, in its
// own transaction. Called after the send succeeded.
func (u *NegotiationUsecase) logOutbound(
	ctx context.Context,
	sent domain.SendResult,
	out domain.OutboundEmail,
	candidateID uint,
	managerID string,
	intent string,
	event *domain.ConversationEvent,
) error {
	return u.store.InTx(ctx, func(r repository.Repos) error {
		msg := &domain.Message{
			GmailMessageID: sent.MessageID,
			GmailThreadID:  sent.ThreadID,
			CandidateID:    candidateID,
			ManagerID:      managerID,
			Direction:      domain.DirectionOutbound,
			SenderEmail:    u.opts.SenderEmail,
			Subject:        out.Subject,
			Body:           out.HTMLBody,
			ReceivedAt:     time.Now().UTC(),
			Intent:         intent,
		}
		if err := r.Messages.Create(msg); err != nil {
			return err
		}
		if event != nil {
			event.SourceMessageID = &msg.ID
			return r.Events.Create(event)
		}
		return nil
	})
}
