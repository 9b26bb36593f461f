package domain

import "time"

// Candidate lifecycle statuses (cached on the row itself; the scheduling
// conversation keeps its own snapshot in conversation.CandidateStatus).
const (
	StatusReceived           = "Received"
	StatusForwardedToManager = "Forwarded to Manager"
	StatusRejected           = "Rejected"
)

// Candidate is one applicant, created from a résumé upload.
type Candidate struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name"`
	Email      string    `json:"email" gorm:"uniqueIndex"`
	Phone      string    `json:"phone,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"index"`
	Position   string    `json:"position,omitempty"`
	Status     string    `json:"status" gorm:"default:Received;index"`
	CVScore    *float64  `json:"cv_score,omitempty"`

	ManagerID        string `json:"manager_id,omitempty" gorm:"index"`
	DepartmentID     string `json:"department_id,omitempty"`
	JobDescriptionID *uint  `json:"job_description_id,omitempty"`

	// GmailThreadID is stamped at first contact so reply ingestion can map a
	// thread back to this candidate instead of guessing.
	GmailThreadID string `json:"gmail_thread_id,omitempty" gorm:"index"`

	IsInternal       bool   `json:"is_internal" gorm:"default:false"`
	Summary          string `json:"summary,omitempty" gorm:"type:text"`
	CandidatePitch   string `json:"candidate_pitch,omitempty" gorm:"type:text"`
	ManagerEmailBody string `json:"-" gorm:"type:text"`
}

// HiringManager owns job descriptions and receives candidate summaries.
type HiringManager struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string `json:"phone,omitempty"`
	DepartmentID string `json:"department_id" gorm:"not null"`
}

type Department struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type Employee struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string     `json:"phone,omitempty"`
	Position     string     `json:"position,omitempty"`
	JoiningDate  *time.Time `json:"joining_date,omitempty"`
	Salary       *float64   `json:"salary,omitempty"`
	DepartmentID string     `json:"department_id,omitempty"`
}

type JobDescription struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Position        string    `json:"position" gorm:"not null"`
	FilePath        string    `json:"file_path,omitempty"`
	DescriptionText string    `json:"description_text,omitempty" gorm:"type:text"`
	ManagerID       string    `json:"manager_id" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

// Referral links a candidate to the person who referred them. Internal
// referrals (current employees) shield a candidate from the auto-reject sweep.
type Referral struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	Name               string `json:"name" gorm:"not null"`
	Email              string `json:"email" gorm:"not null;uniqueIndex:uq_referral_candidate_email"`
	InternalDepartment string `json:"internal_department,omitempty"`
	Verified           *bool  `json:"verified,omitempty"`
	IsInternal         bool   `json:"is_internal" gorm:"default:false"`

	ReferrerEmployeeID string `json:"referrer_employee_id,omitempty"`
	CandidateID        uint   `json:"candidate_id" gorm:"uniqueIndex:uq_referral_candidate_email;index"`
}

// ContactInfo is what the regex extractor pulls out of a parsed résumé.
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
