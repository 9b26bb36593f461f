package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/calendar"
)

// In-memory store. InTx runs the callback against the shared state; the
// engine's conflict checks run before any write, which is what these tests
// exercise.
type memStore struct {
	messages []domain.Message
	events   []domain.ConversationEvent
	statuses []domain.CandidateStatus
	slots    []domain.InterviewSlot
	attempts map[string]*domain.IngestAttempt
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{attempts: make(map[string]*domain.IngestAttempt)}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) Repos() repository.Repos {
	return repository.Repos{
		Messages: (*memMessages)(s),
		Events:   (*memEvents)(s),
		Statuses: (*memStatuses)(s),
		Slots:    (*memSlots)(s),
		Attempts: (*memAttempts)(s),
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(repository.Repos) error) error {
	return fn(s.Repos())
}

type memMessages memStore

func (m *memMessages) Create(msg *domain.Message) error {
	for _, existing := range m.messages {
		if existing.GmailMessageID == msg.GmailMessageID {
			return fmt.Errorf("duplicate gmail_message_id %s", msg.GmailMessageID)
		}
	}
	msg.ID = (*memStore)(m).id()
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memMessages) FindByTransportID(transportID string) (*domain.Message, error) {
	for i := range m.messages {
		if m.messages[i].GmailMessageID == transportID {
			msg := m.messages[i]
			return &msg, nil
		}
	}
	return nil, nil
}

func (m *memMessages) FindByCandidateID(candidateID uint, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].CandidateID == candidateID {
			out = append(out, m.messages[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memEvents memStore

func (m *memEvents) Create(event *domain.ConversationEvent) error {
	event.ID = (*memStore)(m).id()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memEvents) FindByCandidateID(candidateID uint) ([]domain.ConversationEvent, error) {
	var out []domain.ConversationEvent
	for _, e := range m.events {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) LatestByType(candidateID uint, eventType string) (*domain.ConversationEvent, error) {
	var latest *domain.ConversationEvent
	for i := range m.events {
		e := m.events[i]
		if e.CandidateID != candidateID || e.EventType != eventType {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) || (e.CreatedAt.Equal(latest.CreatedAt) && e.ID > latest.ID) {
			latest = &e
		}
	}
	return latest, nil
}

type memStatuses memStore

func (m *memStatuses) GetOrCreate(candidateID uint) (*domain.CandidateStatus, error) {
	for i := range m.statuses {
		if m.statuses[i].CandidateID == candidateID {
			st := m.statuses[i]
			return &st, nil
		}
	}
	st := domain.CandidateStatus{ID: (*memStore)(m).id(), CandidateID: candidateID, UpdatedAt: time.Now().UTC()}
	m.statuses = append(m.statuses, st)
	return &st, nil
}

func (m *memStatuses) Update(status *domain.CandidateStatus) error {
	status.UpdatedAt = time.Now().UTC()
	for i := range m.statuses {
		if m.statuses[i].CandidateID == status.CandidateID {
			m.statuses[i] = *status
			return nil
		}
	}
	m.statuses = append(m.statuses, *status)
	return nil
}

func (m *memStatuses) FindByCandidateID(candidateID uint) (*domain.CandidateStatus, error) {
	for i := range m.statuses {
		if m.statuses[i].CandidateID == candidateID {
			st := m.statuses[i]
			return &st, nil
		}
	}
	return nil, nil
}

type memSlots memStore

func (m *memSlots) Create(slot *domain.InterviewSlot) error {
	slot.ID = (*memStore)(m).id()
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	if slot.Status == "" {
		slot.Status = domain.SlotProposed
	}
	m.slots = append(m.slots, *slot)
	return nil
}

func (m *memSlots) Update(slot *domain.InterviewSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	for i := range m.slots {
		if m.slots[i].ID == slot.ID {
			m.slots[i] = *slot
			return nil
		}
	}
	return fmt.Errorf("slot %d not found", slot.ID)
}

func (m *memSlots) open(candidateID uint, proposedBy string) []domain.InterviewSlot {
	var out []domain.InterviewSlot
	for _, s := range m.slots {
		if s.CandidateID == candidateID && s.ProposedBy == proposedBy && s.Status == domain.SlotProposed {
			out = append(out, s)
		}
	}
	return out
}

func (m *memSlots) OpenSlots(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error) {
	out := m.open(candidateID, proposedBy)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSlots) OpenSlotsAsc(candidateID uint, proposedBy string, limit int) ([]domain.InterviewSlot, error) {
	out := m.open(candidateID, proposedBy)
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSlots) HasAccepted(candidateID uint) (bool, error) {
	for _, s := range m.slots {
		if s.CandidateID == candidateID && s.Status == domain.SlotAccepted {
			return true, nil
		}
	}
	return false, nil
}

type memAttempts memStore

func (m *memAttempts) Increment(transportID, lastError string) (int, error) {
	a, ok := m.attempts[transportID]
	if !ok {
		a = &domain.IngestAttempt{GmailMessageID: transportID}
		m.attempts[transportID] = a
	}
	a.Attempts++
	a.LastError = lastError
	a.UpdatedAt = time.Now().UTC()
	return a.Attempts, nil
}

func (m *memAttempts) FindByTransportID(transportID string) (*domain.IngestAttempt, error) {
	if a, ok := m.attempts[transportID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memAttempts) Delete(transportID string) error {
	delete(m.attempts, transportID)
	return nil
}

// Fake candidate/manager repositories.

type fakeCandidates struct {
	rows []canddomain.Candidate
}

func (f *fakeCandidates) Create(c *canddomain.Candidate) error {
	c.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeCandidates) FindByID(id uint) (*canddomain.Candidate, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCandidates) FindByEmail(email string) (*canddomain.Candidate, error) {
	for i := range f.rows {
		if f.rows[i].Email == email {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCandidates) Update(c *canddomain.Candidate) error {
	for i := range f.rows {
		if f.rows[i].ID == c.ID {
			f.rows[i] = *c
			return nil
		}
	}
	return fmt.Errorf("candidate %d not found", c.ID)
}

func (f *fakeCandidates) FindAllWithEmail() ([]canddomain.Candidate, error) {
	var out []canddomain.Candidate
	for _, c := range f.rows {
		if c.Email != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandidates) FindActiveForManager(managerID, threadID string) (*canddomain.Candidate, error) {
	if threadID != "" {
		for i := range f.rows {
			if f.rows[i].ManagerID == managerID && f.rows[i].GmailThreadID == threadID {
				c := f.rows[i]
				return &c, nil
			}
		}
	}
	var best *canddomain.Candidate
	for i := range f.rows {
		c := f.rows[i]
		if c.ManagerID != managerID {
			continue
		}
		if c.Status != canddomain.StatusForwardedToManager && c.Status != canddomain.StatusReceived {
			continue
		}
		if best == nil || c.UploadedAt.After(best.UploadedAt) {
			best = &c
		}
	}
	return best, nil
}

func (f *fakeCandidates) FindAutoRejectTargets(cutoff time.Time, threshold float64) ([]canddomain.Candidate, error) {
	var out []canddomain.Candidate
	for _, c := range f.rows {
		if c.Status == canddomain.StatusReceived && c.UploadedAt.Before(cutoff) &&
			(c.CVScore == nil || *c.CVScore < threshold) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeManagers struct {
	rows []canddomain.HiringManager
}

func (f *fakeManagers) Create(m *canddomain.HiringManager) error {
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeManagers) FindByID(id string) (*canddomain.HiringManager, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			m := f.rows[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeManagers) FindByEmail(email string) (*canddomain.HiringManager, error) {
	for i := range f.rows {
		if f.rows[i].Email == email {
			m := f.rows[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeManagers) FindAll() ([]canddomain.HiringManager, error) {
	return append([]canddomain.HiringManager(nil), f.rows...), nil
}

// Fake transports and AI.

type fakeMail struct {
	unread   map[string][]domain.InboundEmail
	marked   []string
	sent     []domain.OutboundEmail
	sendErr  error
	sendSeq  int
	threadID string
}

func newFakeMail() *fakeMail {
	return &fakeMail{unread: make(map[string][]domain.InboundEmail), threadID: "thread-1"}
}

func (f *fakeMail) FetchUnreadFrom(ctx context.Context, sender string, limit int) ([]domain.InboundEmail, error) {
	return f.unread[sender], nil
}

func (f *fakeMail) MarkRead(ctx context.Context, messageID string) error {
	f.marked = append(f.marked, messageID)
	return nil
}

func (f *fakeMail) SendHTML(ctx context.Context, out domain.OutboundEmail) (domain.SendResult, error) {
	if f.sendErr != nil {
		return domain.SendResult{}, f.sendErr
	}
	f.sendSeq++
	f.sent = append(f.sent, out)
	return domain.SendResult{MessageID: fmt.Sprintf("out-%d", f.sendSeq), ThreadID: f.threadID}, nil
}

func (f *fakeMail) sentTo(addr string) []domain.OutboundEmail {
	var out []domain.OutboundEmail
	for _, s := range f.sent {
		if s.To == addr {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeMail) wasMarked(id string) bool {
	for _, m := range f.marked {
		if m == id {
			return true
		}
	}
	return false
}

type fakeCalendar struct {
	calls []calendar.EventRequest
	err   error
}

func (f *fakeCalendar) CreateEventWithMeet(ctx context.Context, req calendar.EventRequest) (calendar.EventResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return calendar.EventResult{}, f.err
	}
	return calendar.EventResult{
		EventID:  "evt-1",
		HTMLLink: "https://calendar.example/evt-1",
		MeetLink: "https://meet.example/abc-defg-hij",
	}, nil
}

type fakeAI struct {
	result ai.IntentResult
	err    error
}

func (f *fakeAI) ExtractIntent(ctx context.Context, req ai.IntentRequest) (ai.IntentResult, error) {
	if f.err != nil {
		return ai.IntentResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeAI) EvaluateResume(ctx context.Context, resumeText, jobDescription string) (ai.ResumeEvaluation, error) {
	return ai.ResumeEvaluation{}, nil
}

func (f *fakeAI) GenerateManagerEmail(ctx context.Context, in ai.ManagerEmailInput) (string, error) {
	return "", nil
}

func (f *fakeAI) GenerateRejectionEmail(ctx context.Context, candidateName string) (string, error) {
	return "", nil
}

// testEngine bundles the engine with every fake it runs on.
type testEngine struct {
	engine     *NegotiationUsecase
	store      *memStore
	candidates *fakeCandidates
	managers   *fakeManagers
	mail       *fakeMail
	calendar   *fakeCalendar
	ai         *fakeAI
}

func newTestEngine() *testEngine {
	store := newMemStore()
	candidates := &fakeCandidates{}
	managers := &fakeManagers{}
	mail := newFakeMail()
	cal := &fakeCalendar{}
	aiSvc := &fakeAI{result: ai.IntentResult{Intent: ai.IntentOther}}

	engine := NewNegotiationUsecase(store, candidates, managers, mail, cal, aiSvc, Options{
		ToleranceMinutes: 5,
		MaxAttempts:      3,
		SenderEmail:      "hr@example.com",
	})
	return &testEngine{
		engine:     engine,
		store:      store,
		candidates: candidates,
		managers:   managers,
		mail:       mail,
		calendar:   cal,
		ai:         aiSvc,
	}
}

func (te *testEngine) seedPair() (*canddomain.Candidate, *canddomain.HiringManager) {
	manager := canddomain.HiringManager{
		ID:    "mgr-1",
		Name:  "Maya Shrestha",
		Email: "maya@example.com",
	}
	te.managers.Create(&manager)

	cand := canddomain.Candidate{
		Name:       "Ramesh Karki",
		Email:      "ramesh@example.com",
		Position:   "Backend Engineer",
		Status:     canddomain.StatusForwardedToManager,
		ManagerID:  manager.ID,
		UploadedAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	te.candidates.Create(&cand)
	return &te.candidates.rows[0], &te.managers.rows[0]
}
