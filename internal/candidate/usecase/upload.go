package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/candidate/repository"
	convdomain "hrflow-backend/internal/conversation/domain"
	convrepo "hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
	"hrflow-backend/pkg/docparse"
)

// MailSender is the outbound half of the mail transport. pkg/gmail and
// pkg/imap satisfy it.
type MailSender interface {
	SendHTML(ctx context.Context, out convdomain.OutboundEmail) (convdomain.SendResult, error)
}

// Options tunes the screening pipeline.
type Options struct {
	ScoreThreshold      float64
	AutoRejectGraceDays int
	SenderEmail         string
	ResumeDir           string
	JDDir               string
}

func (o Options) withDefaults() Options {
	if o.ScoreThreshold <= 0 {
		o.ScoreThreshold = 6.0
	}
	if o.AutoRejectGraceDays <= 0 {
		o.AutoRejectGraceDays = 7
	}
	if o.ResumeDir == "" {
		o.ResumeDir = "uploads/resumes"
	}
	if o.JDDir == "" {
		o.JDDir = "uploads/jds"
	}
	return o
}

// ScreeningUsecase covers the résumé intake pipeline: upload, contact
// extraction, scoring, manager notification and the auto-reject sweep.
type ScreeningUsecase struct {
	candidates repository.CandidateRepository
	managers   repository.ManagerRepository
	employees  repository.EmployeeRepository
	referrals  repository.ReferralRepository
	jds        repository.JobDescriptionRepository
	store      convrepo.Store
	mail       MailSender
	ai         ai.Service
	opts       Options
	parse      func(path string) (string, error)
	now        func() time.Time
}

func NewScreeningUsecase(
	candidates repository.CandidateRepository,
	managers repository.ManagerRepository,
	employees repository.EmployeeRepository,
	referrals repository.ReferralRepository,
	jds repository.JobDescriptionRepository,
	store convrepo.Store,
	mail MailSender,
	aiSvc ai.Service,
	opts Options,
) *ScreeningUsecase {
	return &ScreeningUsecase{
		candidates: candidates,
		managers:   managers,
		employees:  employees,
		referrals:  referrals,
		jds:        jds,
		store:      store,
		mail:       mail,
		ai:         aiSvc,
		opts:       opts.withDefaults(),
		parse:      docparse.ExtractText,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UploadResult is the soft-failure shape of an upload.
type UploadResult struct {
	OK          bool   `json:"ok"`
	CandidateID uint   `json:"candidate_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (u *ScreeningUsecase) saveFile(dir, fileName string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create upload dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(fileName)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("unable to save upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("unable to write upload: %w", err)
	}
	return path, nil
}

// UploadResume stores the file, parses it to text, extracts contact data and
// creates the candidate in "Received" status. A résumé without a readable
// email, or one whose email is already registered, is a soft failure.
func (u *ScreeningUsecase) UploadResume(ctx context.Context, fileName string, src io.Reader, managerID, position string) (UploadResult, error) {
	path, err := u.saveFile(u.opts.ResumeDir, fileName, src)
	if err != nil {
		return UploadResult{}, err
	}

	text, err := u.parse(path)
	if err != nil {
		return UploadResult{OK: true, Reason: fmt.Sprintf("unreadable document: %v", err)}, nil
	}

	contact := ExtractContactInfo(text)
	if contact.Email == "" {
		return UploadResult{OK: true, Reason: "no email address found in document"}, nil
	}

	existing, err := u.candidates.FindByEmail(contact.Email)
	if err != nil {
		return UploadResult{}, err
	}
	if existing != nil {
		return UploadResult{OK: true, Reason: "candidate already exists", CandidateID: existing.ID, Email: contact.Email}, nil
	}

	cand := domain.Candidate{
		Name:       contact.Name,
		Email:      contact.Email,
		Phone:      contact.Phone,
		FilePath:   path,
		UploadedAt: u.now(),
		Position:   position,
		Status:     domain.StatusReceived,
		ManagerID:  managerID,
	}
	if cand.Name == "" {
		cand.Name = contact.Email
	}
	if err := u.candidates.Create(&cand); err != nil {
		return UploadResult{}, err
	}

	log.Printf("[Screening] candidate %d created from %s", cand.ID, fileName)
	return UploadResult{OK: true, CandidateID: cand.ID, Name: cand.Name, Email: cand.Email}, nil
}

// UploadJobDescription stores a JD file and its extracted text for scoring.
func (u *ScreeningUsecase) UploadJobDescription(ctx context.Context, fileName string, src io.Reader, managerID, position string) (uint, error) {
	path, err := u.saveFile(u.opts.JDDir, fileName, src)
	if err != nil {
		return 0, err
	}
	text, err := u.parse(path)
	if err != nil {
		return 0, fmt.Errorf("unreadable job description: %w", err)
	}

	jd := domain.JobDescription{
		Position:        position,
		FilePath:        path,
		DescriptionText: text,
		ManagerID:       managerID,
		CreatedAt:       u.now(),
	}
	if err := u.jds.Create(&jd); err != nil {
		return 0, err
	}
	log.Printf("[Screening] job description %d stored for manager %s", jd.ID, managerID)
	return jd.ID, nil
}
