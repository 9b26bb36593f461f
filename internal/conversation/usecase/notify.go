package usecase

import (
	"fmt"
	"html"
	"strings"
	"time"

	canddomain "hrflow-backend/internal/candidate/domain"
	"hrflow-backend/internal/conversation/domain"
	"hrflow-backend/pkg/timeutil"
)

// Outbound email composition. Presentational only; every rendered time comes
// from timeutil.FormatLocal and never feeds back into comparisons.

func (u *NegotiationUsecase) slotInviteEmail(cand *canddomain.Candidate, slots []domain.InterviewSlot) (string, string) {
	subject := fmt.Sprintf("Interview Availability - %s", cand.Position)
	if cand.Position == "" {
		subject = "Interview Availability"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(cand.Name))))
	b.WriteString("<p>Thank you for your application. The hiring manager has shared the following interview time options:</p><ul>")
	for _, slot := range slots {
		b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(timeutil.FormatLocalRange(slot.StartTime, slot.EndTime, u.loc))))
	}
	b.WriteString("</ul>")
	b.WriteString("<p>Please reply with the time that works best for you, or suggest an alternative.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) candidateConfirmationEmail(cand *canddomain.Candidate, slot domain.InterviewSlot, meetLink string) (string, string) {
	subject := "Interview Confirmed"
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(cand.Name))))
	b.WriteString(fmt.Sprintf("<p>Your interview is confirmed for <b>%s</b>.</p>",
		html.EscapeString(timeutil.FormatLocal(slot.StartTime, u.loc))))
	if meetLink != "" {
		b.WriteString(fmt.Sprintf("<p>Join here: <a href=\"%s\">%s</a></p>", meetLink, meetLink))
	}
	b.WriteString("<p>We look forward to speaking with you.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) managerConfirmationEmail(manager *canddomain.HiringManager, cand *canddomain.Candidate, slot domain.InterviewSlot, meetLink string) (string, string) {
	subject := fmt.Sprintf("Interview Confirmed - %s", cand.Name)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(manager.Name))))
	b.WriteString(fmt.Sprintf("<p>The interview with <b>%s</b> is confirmed for <b>%s</b>.</p>",
		html.EscapeString(cand.Name),
		html.EscapeString(timeutil.FormatLocal(slot.StartTime, u.loc))))
	if meetLink != "" {
		b.WriteString(fmt.Sprintf("<p>Meeting link: <a href=\"%s\">%s</a></p>", meetLink, meetLink))
	}
	b.WriteString("<p>A calendar invite has been sent to both of you.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) proposalSummaryEmail(manager *canddomain.HiringManager, cand *canddomain.Candidate, windows []timeWindow) (string, string) {
	subject := fmt.Sprintf("Candidate Proposed New Interview Time - %s", cand.Name)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(manager.Name))))
	b.WriteString(fmt.Sprintf("<p><b>%s</b> could not make the proposed time and suggested the following instead:</p><ul>",
		html.EscapeString(cand.Name)))
	for _, w := range windows {
		b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(timeutil.FormatLocalRange(w.Start, w.End, u.loc))))
	}
	b.WriteString("</ul>")
	b.WriteString("<p>Please reply to confirm one of these times or propose another.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) fallbackForwardEmail(manager *canddomain.HiringManager, cand *canddomain.Candidate, rawBody string) (string, string) {
	subject := fmt.Sprintf("Candidate Reply Needs Attention - %s", cand.Name)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(manager.Name))))
	b.WriteString(fmt.Sprintf("<p><b>%s</b> replied, but no interview time could be read from the message. Please follow up directly.</p>",
		html.EscapeString(cand.Name)))
	b.WriteString("<p>Original message:</p>")
	b.WriteString(fmt.Sprintf("<blockquote>%s</blockquote>", html.EscapeString(rawBody)))
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) availabilityAskEmail(manager *canddomain.HiringManager, cand *canddomain.Candidate) (string, string) {
	subject := fmt.Sprintf("Interview Availability Needed - %s", cand.Name)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(manager.Name))))
	b.WriteString(fmt.Sprintf("<p>Thank you for approving <b>%s</b>. Could you share a few time windows that work for the interview? We will coordinate with the candidate from there.</p>",
		html.EscapeString(cand.Name)))
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func (u *NegotiationUsecase) proposeTimeEmail(cand *canddomain.Candidate, start time.Time, end *time.Time) (string, string) {
	subject := "Proposed Interview Time"
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(firstName(cand.Name))))
	b.WriteString(fmt.Sprintf("<p>We would like to propose the following interview time: <b>%s</b>.</p>",
		html.EscapeString(timeutil.FormatLocalRange(start, end, u.loc))))
	b.WriteString("<p>Please reply to confirm, or suggest a time that suits you better.</p>")
	b.WriteString("<p>Best regards,<br>HR Team</p>")
	return subject, b.String()
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "Candidate"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
