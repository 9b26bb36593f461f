package usecase

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"hrflow-backend/internal/candidate/domain"
	convdomain "hrflow-backend/internal/conversation/domain"
	convrepo "hrflow-backend/internal/conversation/repository"
	"hrflow-backend/pkg/ai"
)

// EvalResult reports one scoring run.
type EvalResult struct {
	OK      bool    `json:"ok"`
	Score   float64 `json:"score,omitempty"`
	Summary string  `json:"summary,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// NotifyResult is the soft-failure shape of the manager notification.
type NotifyResult struct {
	OK       bool   `json:"ok"`
	Notified bool   `json:"notified"`
	Reason   string `json:"reason,omitempty"`
}

// SweepResult summarizes one auto-reject pass.
type SweepResult struct {
	Checked  int `json:"checked"`
	Rejected int `json:"rejected"`
	Emailed  int `json:"emailed"`
	Errors   int `json:"errors"`
}

// EvaluateCandidate scores the candidate's résumé against their job
// description and stores the score and summary on the candidate row.
func (u *ScreeningUsecase) EvaluateCandidate(ctx context.Context, candidateID uint) (EvalResult, error) {
	cand, err := u.candidates.FindByID(candidateID)
	if err != nil {
		return EvalResult{}, err
	}
	if cand == nil {
		return EvalResult{OK: true, Reason: "candidate not found"}, nil
	}

	resumeText, err := u.parse(cand.FilePath)
	if err != nil {
		return EvalResult{OK: true, Reason: fmt.Sprintf("unreadable resume: %v", err)}, nil
	}

	jdText, err := u.jobDescriptionText(cand)
	if err != nil {
		return EvalResult{}, err
	}
	if jdText == "" {
		return EvalResult{OK: true, Reason: "no job description available"}, nil
	}

	eval, err := u.ai.EvaluateResume(ctx, resumeText, jdText)
	if err != nil {
		return EvalResult{}, fmt.Errorf("resume evaluation failed: %w", err)
	}

	cand.CVScore = &eval.Score
	cand.Summary = eval.Summary
	if err := u.candidates.Update(cand); err != nil {
		return EvalResult{}, err
	}

	log.Printf("[Screening] candidate %d scored %.1f", cand.ID, eval.Score)
	return EvalResult{OK: true, Score: eval.Score, Summary: eval.Summary}, nil
}

func (u *ScreeningUsecase) jobDescriptionText(cand *domain.Candidate) (string, error) {
	var jd *domain.JobDescription
	var err error
	if cand.JobDescriptionID != nil {
		jd, err = u.jds.FindByID(*cand.JobDescriptionID)
	} else if cand.ManagerID != "" {
		jd, err = u.jds.FindLatestByManager(cand.ManagerID)
	}
	if err != nil || jd == nil {
		return "", err
	}
	if jd.DescriptionText != "" {
		return jd.DescriptionText, nil
	}
	if jd.FilePath == "" {
		return "", nil
	}
	text, err := u.parse(jd.FilePath)
	if err != nil {
		return "", nil
	}
	return text, nil
}

// NotifyManagerIfPass forwards the candidate to their hiring manager once the
// score clears the threshold while the candidate is still in "Received".
// force skips the gate. Fires at most once: a candidate already past
// "Received" is reported as not notified rather than re-emailed.
func (u *ScreeningUsecase) NotifyManagerIfPass(ctx context.Context, candidateID uint, force bool) (NotifyResult, error) {
	cand, err := u.candidates.FindByID(candidateID)
	if err != nil {
		return NotifyResult{}, err
	}
	if cand == nil {
		return NotifyResult{OK: true, Reason: "candidate not found"}, nil
	}

	if !force {
		if cand.Status != domain.StatusReceived {
			return NotifyResult{OK: true, Reason: fmt.Sprintf("candidate already in status %q", cand.Status)}, nil
		}
		if cand.CVScore == nil {
			return NotifyResult{OK: true, Reason: "candidate not evaluated yet"}, nil
		}
		if *cand.CVScore < u.opts.ScoreThreshold {
			return NotifyResult{OK: true, Reason: fmt.Sprintf("score %.1f below threshold %.1f", *cand.CVScore, u.opts.ScoreThreshold)}, nil
		}
	}

	manager, err := u.managers.FindByID(cand.ManagerID)
	if err != nil {
		return NotifyResult{}, err
	}
	if manager == nil {
		return NotifyResult{OK: true, Reason: "no manager assigned"}, nil
	}

	referralInfos, internalReferrers, err := u.referralContext(cand.ID)
	if err != nil {
		return NotifyResult{}, err
	}

	var score float64
	if cand.CVScore != nil {
		score = *cand.CVScore
	}
	input := ai.ManagerEmailInput{
		ManagerName:       manager.Name,
		CandidateName:     cand.Name,
		Position:          cand.Position,
		Score:             score,
		Summary:           cand.Summary,
		Referrals:         referralInfos,
		InternalReferrers: internalReferrers,
	}

	body, err := u.ai.GenerateManagerEmail(ctx, input)
	if err != nil || strings.TrimSpace(body) == "" {
		if err != nil {
			log.Printf("[Screening] manager email generation failed for candidate %d: %v", cand.ID, err)
		}
		body = managerEmailFallback(input)
	}

	subject := fmt.Sprintf("Candidate for Review: %s", cand.Name)
	sent, err := u.mail.SendHTML(ctx, convdomain.OutboundEmail{
		To:             manager.Email,
		Subject:        subject,
		HTMLBody:       body,
		AttachmentPath: cand.FilePath,
	})
	if err != nil {
		return NotifyResult{}, fmt.Errorf("manager notification failed: %w", err)
	}

	if err := u.store.InTx(ctx, func(r convrepo.Repos) error {
		return r.Messages.Create(&convdomain.Message{
			GmailMessageID: sent.MessageID,
			GmailThreadID:  sent.ThreadID,
			CandidateID:    cand.ID,
			ManagerID:      manager.ID,
			Direction:      convdomain.DirectionOutbound,
			SenderEmail:    u.opts.SenderEmail,
			Subject:        subject,
			Body:           body,
			ReceivedAt:     u.now(),
		})
	}); err != nil {
		log.Printf("[Screening] outbound log failed for candidate %d: %v", cand.ID, err)
	}

	cand.Status = domain.StatusForwardedToManager
	cand.ManagerEmailBody = body
	if err := u.candidates.Update(cand); err != nil {
		return NotifyResult{}, err
	}

	log.Printf("[Screening] candidate %d forwarded to manager %s", cand.ID, manager.ID)
	return NotifyResult{OK: true, Notified: true}, nil
}

func (u *ScreeningUsecase) referralContext(candidateID uint) ([]ai.ReferralInfo, []ai.InternalReferrer, error) {
	referrals, err := u.referrals.FindByCandidateID(candidateID)
	if err != nil {
		return nil, nil, err
	}

	var infos []ai.ReferralInfo
	var internal []ai.InternalReferrer
	for _, ref := range referrals {
		infos = append(infos, ai.ReferralInfo{
			Name:    ref.Name,
			Email:   ref.Email,
			Company: ref.InternalDepartment,
		})
		emp, err := u.employees.FindByEmail(ref.Email)
		if err != nil {
			return nil, nil, err
		}
		if emp != nil {
			internal = append(internal, ai.InternalReferrer{
				Name:       emp.Name,
				Email:      emp.Email,
				Phone:      emp.Phone,
				Department: emp.DepartmentID,
			})
		}
	}
	return infos, internal, nil
}

// AutoRejectSweep rejects candidates stuck in "Received" past the grace
// period with a score below the threshold, unless an internal referral
// shields them. Idempotent: the status flip keeps a candidate out of the
// next selection.
func (u *ScreeningUsecase) AutoRejectSweep(ctx context.Context) (SweepResult, error) {
	cutoff := u.now().AddDate(0, 0, -u.opts.AutoRejectGraceDays)
	targets, err := u.candidates.FindAutoRejectTargets(cutoff, u.opts.ScoreThreshold)
	if err != nil {
		return SweepResult{}, err
	}

	res := SweepResult{}
	for i := range targets {
		cand := targets[i]
		res.Checked++

		shielded, err := u.referrals.HasInternal(cand.ID)
		if err != nil {
			log.Printf("[AutoReject] referral lookup failed for candidate %d: %v", cand.ID, err)
			res.Errors++
			continue
		}
		if shielded {
			continue
		}

		body, err := u.ai.GenerateRejectionEmail(ctx, cand.Name)
		if err != nil || strings.TrimSpace(body) == "" {
			body = rejectionEmailFallback(cand.Name)
		}

		if _, err := u.mail.SendHTML(ctx, convdomain.OutboundEmail{
			To:       cand.Email,
			Subject:  "Update on Your Application",
			HTMLBody: body,
		}); err != nil {
			// Status stays "Received" so the next sweep retries this one.
			log.Printf("[AutoReject] rejection email failed for candidate %d: %v", cand.ID, err)
			res.Errors++
			continue
		}
		res.Emailed++

		cand.Status = domain.StatusRejected
		if err := u.candidates.Update(&cand); err != nil {
			log.Printf("[AutoReject] status update failed for candidate %d: %v", cand.ID, err)
			res.Errors++
			continue
		}
		res.Rejected++
	}

	log.Printf("[AutoReject] sweep complete: checked=%d rejected=%d emailed=%d errors=%d",
		res.Checked, res.Rejected, res.Emailed, res.Errors)
	return res, nil
}

func managerEmailFallback(in ai.ManagerEmailInput) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(in.ManagerName)))
	b.WriteString(fmt.Sprintf("<p>A new candidate, <b>%s</b>, has applied", html.EscapeString(in.CandidateName)))
	if in.Position != "" {
		b.WriteString(fmt.Sprintf(" for the <b>%s</b> position", html.EscapeString(in.Position)))
	}
	b.WriteString(fmt.Sprintf(" and scored <b>%.1f/10</b> against the job description.</p>", in.Score))
	if in.Summary != "" {
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(in.Summary)))
	}
	if len(in.Referrals) > 0 {
		b.WriteString("<p>Referred by:</p><ul>")
		for _, r := range in.Referrals {
			b.WriteString(fmt.Sprintf("<li>%s (%s)</li>", html.EscapeString(r.Name), html.EscapeString(r.Email)))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("<p>The résumé is attached. Please reply with whether you would like to proceed.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return b.String()
}

func rejectionEmailFallback(name string) string {
	first := name
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	return fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>Thank you for your interest in joining our team. After careful review, we have decided not to move forward with your application at this time.</p>"+
			"<p>We encourage you to apply again for future openings that match your profile.</p>"+
			"<p>Best regards,<br>HR Team</p>",
		html.EscapeString(first))
}
