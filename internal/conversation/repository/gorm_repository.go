package repository

import (
	"context"
	"errors"
	"time"

	"hrflow-backend/internal/conversation/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(message *domain.Message) error {
	if message.ReceivedAt.IsZero() {
		message.ReceivedAt = time.Now().UTC()
	}
	return r.db.Create(message).Error
}

func (r *gormMessageRepository) FindByTransportID(transportID string) (*domain.Message, error) {
	var message domain.Message
	err := r.db.Where("gmail_message_id = ?", transportID).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *gormMessageRepository) FindByCandidateID(candidateID uint, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	q := r.db.Where("candidate_id = ?", candidateID).Order("received_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&messages).Error
	return messages, err
}

type gormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) EventRepository {
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) Create(event *domain.ConversationEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(event).Error
}

func (r *gormEventRepository) FindByCandidateID(candidateID uint) ([]domain.ConversationEvent, error) {
	var events []domain.ConversationEvent
	err := r.db.Where("candidate_id = ?", candidateID).Order("created_at ASC").Find(&events).Error
	return events, err
}

func (r *gormEventRepository) LatestByType(candidateID uint, eventType string) (*domain.ConversationEvent, error) {
	var event domain.ConversationEvent
	err := r.db.Where("candidate_id = ? AND event_type = ?", candidateID, eventType).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

type gormStatusRepository struct {
	db *gorm.DB
}

func NewGormStatusRepository(db *gorm.DB) StatusRepository {
	return &gormStatusRepository{db: db}
}

func (r *gormStatusRepository) GetOrCreate(candidateID uint) (*domain.CandidateStatus, error) {
	var status domain.CandidateStatus
	err := r.db.Where("candidate_id = ?", candidateID).First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status = domain.CandidateStatus{CandidateID: candidateID, UpdatedAt: time.Now().UTC()}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}},
		DoNothing: true,
	}).Create(&status).Error; err != nil {
		return nil, err
	}
	// Re-read in case a concurrent insert won the conflict.
	if err := r.db.Where("candidate_id = ?", candidateID).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *gormStatusRepository) Update(status *domain.CandidateStatus) error {
	status.UpdatedAt = time.Now().UTC()
	return r.db.Save(status).Error
}

func (r *gormStatusRepository) FindByCandidateID(candidateID uint) (*domain.CandidateStatus, error) {
	var status domain.CandidateStatus
	err := r.db.Where("candidate_id = ?", candidateID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

type gormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) SlotRepository {
	return &gormSlotRepository{db: db}
}

func (r *gormSlotRepository) Create(slot *domain.InterviewSlot) error {
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	return r.db.Create(slot).Error
}

func (r *gormSlotRepository) Update(slot *domain.InterviewSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	return r.db.Save(slot).Error
}

func (r *gormSlotRepository) OpenSlots(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error) {
	var slots []domain.InterviewSlot
	q := r.db.Where("candidate_id = ? AND proposed_by = ? AND status = ?",
		candidateID, proposedBy, domain.SlotProposed).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&slots).Error
	return slots, err
}

func (r *gormSlotRepository) OpenSlotsAsc(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error) {
	var slots []domain.InterviewSlot
	q := r.db.Where("candidate_id = ? AND proposed_by = ? AND status = ?",
		candidateID, proposedBy, domain.SlotProposed).
		Order("start_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&slots).Error
	return slots, err
}

func (r *gormSlotRepository) HasAccepted(candidateID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.InterviewSlot{}).
		Where("candidate_id = ? AND status = ?", candidateID, domain.SlotAccepted).
		Count(&count).Error
	return count > 0, err
}

type gormAttemptRepository struct {
	db *gorm.DB
}

func NewGormAttemptRepository(db *gorm.DB) AttemptRepository {
	return &gormAttemptRepository{db: db}
}

func (r *gormAttemptRepository) Increment(transportID, lastError string) (int, error) {
	var attempt domain.IngestAttempt
	err := r.db.Where("gmail_message_id = ?", transportID).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attempt = domain.IngestAttempt{
			GmailMessageID: transportID,
			Attempts:       1,
			LastError:      lastError,
			UpdatedAt:      time.Now().UTC(),
		}
		if err := r.db.Create(&attempt).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	attempt.Attempts++
	attempt.LastError = lastError
	attempt.UpdatedAt = time.Now().UTC()
	if err := r.db.Save(&attempt).Error; err != nil {
		return 0, err
	}
	return attempt.Attempts, nil
}

func (r *gormAttemptRepository) FindByTransportID(transportID string) (*domain.IngestAttempt, error) {
	var attempt domain.IngestAttempt
	err := r.db.Where("gmail_message_id = ?", transportID).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *gormAttemptRepository) Delete(transportID string) error {
	return r.db.Where("gmail_message_id = ?", transportID).Delete(&domain.IngestAttempt{}).Error
}

// gormStore binds the conversation repositories to one *gorm.DB and reuses
// the same constructors inside transactions.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func reposFor(db *gorm.DB) Repos {
	return Repos{
		Messages: NewGormMessageRepository(db),
		Events:   NewGormEventRepository(db),
		Statuses: NewGormStatusRepository(db),
		Slots:    NewGormSlotRepository(db),
		Attempts: NewGormAttemptRepository(db),
	}
}

func (s *gormStore) Repos() Repos {
	return reposFor(s.db)
}

func (s *gormStore) InTx(ctx context.Context, fn func(Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}
