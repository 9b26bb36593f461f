package ai

import (
	"fmt"
	"strings"
)

func buildIntentPrompt(req IntentRequest) string {
	tz := req.DefaultTimezone
	if tz == "" {
		tz = "Asia/Kathmandu"
	}

	return fmt.Sprintf(`You are an information extraction service for recruiting workflows.
You will receive:
  - The subject of the current email
  - The current incoming email body
  - A short transcript of the conversation thread (most recent messages last)

Your task:
  1) Decide the single best intent among:
     - MEETING_SCHEDULED: A concrete interview date/time is stated.
     - PROCEED: The sender approves moving forward, but no concrete date/time.
     - REJECTION: The sender declines to move forward.
     - SALARY_DISCUSSION: A salary figure or compensation range is being discussed.
     - OTHER: Anything else.
  2) Extract structured fields when possible.

Rules:
  - If a concrete date AND time are present for an interview, choose MEETING_SCHEDULED.
  - If the sender says "yes/approved" but no concrete date/time, choose PROCEED (do NOT invent a date/time).
  - If both a meeting time AND salary are present, prefer MEETING_SCHEDULED and also include salary fields if clearly given.
  - If timezone is not stated, assume %s and produce an ISO 8601 datetime (YYYY-MM-DDTHH:MM) without seconds.
  - If multiple alternative times are offered, list them all under "proposed_slots".
  - Keep "notes" very short.
  - Output ONLY valid JSON (no prose, no markdown).

Output schema (JSON only):
{
  "intent": "MEETING_SCHEDULED|PROCEED|REJECTION|SALARY_DISCUSSION|OTHER",
  "meeting_iso": "<ISO 8601 like 2025-08-15T14:30 or null>",
  "proposed_slots": [{"start": "<ISO 8601>", "end": "<ISO 8601 or null>"}],
  "salary_amount": <integer or null>,
  "currency": "<3-5 letter code or null>",
  "notes": "<short string>"
}

SUBJECT:
%s

THREAD CONTEXT (oldest to newest):
%s

CURRENT INCOMING EMAIL BODY:
%s`, tz, req.Subject, summarizeThread(req.Thread), req.Body)
}

// summarizeThread renders the last few thread messages for the prompt,
// truncating long bodies for token safety.
func summarizeThread(thread []ThreadEntry) string {
	if len(thread) == 0 {
		return "No prior context available."
	}
	const keep = 6
	if len(thread) > keep {
		thread = thread[len(thread)-keep:]
	}

	var lines []string
	for _, m := range thread {
		role := "Counterparty"
		if m.Direction == "outbound" {
			role = "HR System"
		}
		body := strings.TrimSpace(m.Body)
		if len(body) > 1500 {
			body = body[:1500] + " ..."
		}
		line := fmt.Sprintf("[%s]", role)
		if !m.Timestamp.IsZero() {
			line += " " + m.Timestamp.Format("2006-01-02 15:04")
		}
		if m.Subject != "" {
			line += " SUBJ: " + m.Subject
		}
		lines = append(lines, line+"\n"+body+"\n")
	}
	return strings.Join(lines, "\n---\n")
}

func buildResumePrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`You are a senior HR analyst. Your task is to critically evaluate the candidate's resume against the job description based on the following four criteria:
1. Academic qualifications
2. Projects (quality, relevance, complexity)
3. Work experience (roles, impact, relevance)
4. Skills and how well they match the job requirements

Respond ONLY in JSON format with the following structure:

{
  "score": float (from 0 to 10),
  "summary": "Short 2-4 sentence evaluation summary."
}

Do not include any text before or after the JSON.

Candidate Resume:

%s

Job Description:

%s`, resumeText, jobDescription)
}

func buildManagerEmailPrompt(in ManagerEmailInput) string {
	var refs strings.Builder
	if len(in.Referrals) > 0 {
		refs.WriteString("Referrals:\n")
		for _, r := range in.Referrals {
			fmt.Fprintf(&refs, "- %s (%s) — %s\n", r.Name, r.Email, r.Company)
		}
	}
	if len(in.InternalReferrers) > 0 {
		refs.WriteString("Internal referrers (current employees):\n")
		for _, r := range in.InternalReferrers {
			fmt.Fprintf(&refs, "- %s, %s (email: %s, phone: %s)\n", r.Name, r.Department, r.Email, r.Phone)
		}
	}

	return fmt.Sprintf(`You are an HR assistant drafting a concise, professional email to a hiring manager about a screened candidate.

Requirements:
- Address the manager by name.
- State the candidate's name, the role, and the evaluation score out of 10.
- Include the short evaluation summary.
- Mention referrals if any are listed below, highlighting internal referrers.
- Close by asking the manager to reply with YES/PROCEED, NO/REJECT, or SCHEDULE <preferred time window>.
- Return ONLY minimal valid HTML (a single <div>, paragraphs and lists). No <html> or <head> tags, no markdown.

Manager name: %s
Candidate: %s
Position: %s
Score: %.1f/10
Summary: %s
%s`, in.ManagerName, in.CandidateName, in.Position, in.Score, in.Summary, refs.String())
}

func buildRejectionPrompt(candidateName string) string {
	return fmt.Sprintf(`You are an HR assistant writing a short, polite rejection email to a job applicant named %s.

Requirements:
- Thank them for applying and for their time.
- State that the team will not be moving forward at this point, without giving specific reasons.
- Encourage them to apply again for future openings.
- Warm, respectful tone; 3 short paragraphs at most.
- Sign off as "HR Team".
- Return ONLY minimal valid HTML (a single <div> with paragraphs). No <html> or <head> tags, no markdown.`, candidateName)
}
