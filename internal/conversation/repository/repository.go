package repository

import (
	"context"

	"hrflow-backend/internal/conversation/domain"
)

// MessageRepository defines data access for the message audit log.
type MessageRepository interface {
	Create(message *domain.Message) error

	// FindByTransportID returns the stored message for a transport id, or
	// nil when the message has not been processed yet.
	FindByTransportID(transportID string) (*domain.Message, error)

	FindByCandidateID(candidateID uint, limit int) ([]domain.Message, error)
}

// EventRepository defines data access for conversation events.
type EventRepository interface {
	Create(event *domain.ConversationEvent) error
	FindByCandidateID(candidateID uint) ([]domain.ConversationEvent, error)

	// LatestByType returns the newest event of the given type for the
	// candidate, or nil when none exists.
	LatestByType(candidateID uint, eventType string) (*domain.ConversationEvent, error)
}

// StatusRepository defines data access for the per-candidate status cache.
type StatusRepository interface {
	GetOrCreate(candidateID uint) (*domain.CandidateStatus, error)
	Update(status *domain.CandidateStatus) error
	FindByCandidateID(candidateID uint) (*domain.CandidateStatus, error)
}

// SlotRepository defines data access for interview slots.
type SlotRepository interface {
	Create(slot *domain.InterviewSlot) error
	Update(slot *domain.InterviewSlot) error

	// OpenSlots returns still-proposed slots for the candidate from the given
	// proposer, newest first.
	OpenSlots(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error)

	// OpenSlotsAsc is OpenSlots in chronological start order, for invites.
	OpenSlotsAsc(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error)

	// HasAccepted reports whether the candidate already holds an accepted slot.
	HasAccepted(candidateID uint) (bool, error)
}

// AttemptRepository tracks processing failures per transport message id.
type AttemptRepository interface {
	// Increment records one more failed attempt and returns the new count.
	Increment(transportID, lastError string) (int, error)
	FindByTransportID(transportID string) (*domain.IngestAttempt, error)
	Delete(transportID string) error
}

// Repos bundles every conversation-side repository, plus the candidate-side
// ones the negotiation engine touches inside the same transaction.
type Repos struct {
	Messages MessageRepository
	Events   EventRepository
	Statuses StatusRepository
	Slots    SlotRepository
	Attempts AttemptRepository
}

// Store hands out repositories and runs functions transactionally. Repos()
// returns repositories bound to the base connection; InTx runs the callback
// with repositories bound to one transaction, committing on nil and rolling
// back on error.
type Store interface {
	Repos() Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}
