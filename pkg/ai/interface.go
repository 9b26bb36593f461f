package ai

import (
	"context"
	"time"
)

// Intents the extraction service may return. Anything else is coerced to
// IntentOther during decoding.
const (
	IntentMeetingScheduled = "MEETING_SCHEDULED"
	IntentProceed          = "PROCEED"
	IntentRejection        = "REJECTION"
	IntentSalaryDiscussion = "SALARY_DISCUSSION"
	IntentOther            = "OTHER"
)

// ThreadEntry is one prior message of the conversation, oldest first.
type ThreadEntry struct {
	Direction string // "inbound" | "outbound"
	Subject   string
	Body      string
	Timestamp time.Time
}

// IntentRequest carries everything the extractor may use: the current email,
// a short thread transcript, and the timezone to assume for bare times.
type IntentRequest struct {
	Subject         string
	Body            string
	Thread          []ThreadEntry
	DefaultTimezone string
}

// ProposedWindow is one time range stated in a message, ISO 8601 strings.
type ProposedWindow struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// IntentMeta holds the structured fields extracted alongside the intent.
// Fields are present only when the message actually stated them.
type IntentMeta struct {
	MeetingISO    string           `json:"meeting_iso,omitempty"`
	ProposedSlots []ProposedWindow `json:"proposed_slots,omitempty"`
	SalaryAmount  *int             `json:"salary_amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// IntentResult is the typed outcome of one extraction call.
type IntentResult struct {
	Intent string
	Meta   IntentMeta
}

// HasTimes reports whether any time field was extracted.
func (r IntentResult) HasTimes() bool {
	return r.Meta.MeetingISO != "" || len(r.Meta.ProposedSlots) > 0
}

// ResumeEvaluation is the scored comparison of a résumé against a job
// description.
type ResumeEvaluation struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// ReferralInfo is referral context for manager-facing emails.
type ReferralInfo struct {
	Name    string
	Email   string
	Company string
}

// InternalReferrer is a current employee who referred the candidate.
type InternalReferrer struct {
	Name       string
	Email      string
	Phone      string
	Department string
}

// ManagerEmailInput is everything the generator needs to draft the
// manager-facing candidate summary email.
type ManagerEmailInput struct {
	ManagerName       string
	CandidateName     string
	Position          string
	Score             float64
	Summary           string
	Referrals         []ReferralInfo
	InternalReferrers []InternalReferrer
}

// Service is the LLM boundary: intent extraction from inbound mail and
// generation of outbound email bodies. Implement this interface to add new
// providers (Gemini, Ollama, OpenAI, ...).
type Service interface {
	ExtractIntent(ctx context.Context, req IntentRequest) (IntentResult, error)
	EvaluateResume(ctx context.Context, resumeText, jobDescription string) (ResumeEvaluation, error)
	GenerateManagerEmail(ctx context.Context, in ManagerEmailInput) (string, error)
	GenerateRejectionEmail(ctx context.Context, candidateName string) (string, error)
}

// ProviderType selects the backing LLM provider.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
