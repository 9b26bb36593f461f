package domain

import (
	"encoding/json"
	"time"
)

// Message direction.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// InterviewSlot.ProposedBy values.
const (
	ProposedByManager   = "manager"
	ProposedByApplicant = "applicant"
)

// InterviewSlot.Status values.
const (
	SlotProposed = "proposed"
	SlotAccepted = "accepted"
	SlotDeclined = "declined"
)

// Intents extracted from inbound mail, plus the intents we stamp on outbound
// mail we send ourselves.
const (
	IntentMeetingScheduled = "MEETING_SCHEDULED"
	IntentProceed          = "PROCEED"
	IntentRejection        = "REJECTION"
	IntentSalaryDiscussion = "SALARY_DISCUSSION"
	IntentOther            = "OTHER"

	IntentRequestTimeConfirmation = "REQUEST_TIME_CONFIRMATION"
	IntentAskedForAvailability    = "ASKED_FOR_AVAILABILITY"
)

// ConversationEvent types.
const (
	EventCandidateAccepted       = "CANDIDATE_ACCEPTED"
	EventCandidateProposed       = "CANDIDATE_PROPOSED"
	EventCandidateRepliedNoTime  = "CANDIDATE_REPLIED_NO_TIME"
	EventManagerAccepted         = "MANAGER_ACCEPTED"
	EventRequestTimeConfirmation = "REQUEST_TIME_CONFIRMATION"
	EventAskedForAvailability    = "ASKED_FOR_AVAILABILITY"
)

// CandidateStatus.CurrentStatus vocabulary.
const (
	StatusAwaitingCandidateConfirmation = "Awaiting Candidate Confirmation"
	StatusAwaitingManagerConfirmation   = "Awaiting Manager Confirmation"
	StatusAwaitingManagerAvailability   = "Awaiting Manager Availability"
	StatusInterviewConfirmed            = "Interview Confirmed"
	StatusRejectedByManager             = "Rejected by Manager"
	StatusManagerApproved               = "Manager Approved"
	StatusSalaryDiscussed               = "Salary Discussed"
)

// Message is the immutable audit record of one inbound or outbound email.
// Intent and MetaJSON are filled once, before the row's transaction commits;
// after that the row is never mutated.
type Message struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	GmailMessageID string `json:"gmail_message_id" gorm:"uniqueIndex;not null"`
	GmailThreadID  string `json:"gmail_thread_id,omitempty" gorm:"index"`

	CandidateID uint   `json:"candidate_id" gorm:"index"`
	ManagerID   string `json:"manager_id,omitempty" gorm:"index"`

	Direction   string    `json:"direction" gorm:"not null"`
	SenderEmail string    `json:"sender_email" gorm:"not null;index"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body,omitempty" gorm:"type:text"`
	ReceivedAt  time.Time `json:"received_at" gorm:"index"`

	Intent   string `json:"intent,omitempty" gorm:"index"`
	MetaJSON string `json:"meta_json,omitempty" gorm:"type:jsonb"`
}

// ConversationEvent records one decision the negotiation engine made.
// Append-only.
type ConversationEvent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CandidateID     uint      `json:"candidate_id" gorm:"index"`
	EventType       string    `json:"event_type" gorm:"not null;index"`
	EventData       string    `json:"event_data,omitempty" gorm:"type:jsonb"`
	SourceMessageID *uint     `json:"source_message_id,omitempty" gorm:"index"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// CandidateStatus is the mutable cache of where a candidate sits in the
// scheduling conversation. FinalMeetingTime is set if and only if a slot for
// this candidate has reached accepted status.
type CandidateStatus struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	CandidateID      uint       `json:"candidate_id" gorm:"uniqueIndex"`
	CurrentStatus    string     `json:"current_status,omitempty" gorm:"index"`
	FinalMeetingTime *time.Time `json:"final_meeting_time,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"index"`
}

// InterviewSlot is one proposed interview window. Never hard-deleted; the
// accumulated rows are the negotiation's audit trail.
type InterviewSlot struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	CandidateID     uint       `json:"candidate_id" gorm:"index"`
	ProposedBy      string     `json:"proposed_by" gorm:"not null"`
	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Status          string     `json:"status" gorm:"not null;default:proposed;index"`
	SourceMessageID *uint      `json:"source_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IngestAttempt tracks processing failures per transport message id so a
// poison message is dead-lettered (marked read) after a bounded number of
// retries instead of being reprocessed forever.
type IngestAttempt struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	GmailMessageID string    `json:"gmail_message_id" gorm:"uniqueIndex;not null"`
	Attempts       int       `json:"attempts" gorm:"default:0"`
	LastError      string    `json:"last_error,omitempty" gorm:"type:text"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// InboundEmail is the transport-neutral shape of one fetched message.
type InboundEmail struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Body     string
	Date     time.Time
}

// OutboundEmail is a send request for the mail transport.
type OutboundEmail struct {
	To             string
	Subject        string
	HTMLBody       string
	ThreadID       string
	AttachmentPath string
}

// SendResult reports transport ids of a sent message.
type SendResult struct {
	MessageID string
	ThreadID  string
}

// MarshalMeta renders an event/message payload as JSON, returning "" for nil.
func MarshalMeta(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
