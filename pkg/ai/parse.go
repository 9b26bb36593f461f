package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?i)^```(?:json)?|```$")

// coerceJSON strips markdown fences and surrounding prose so that the
// substring between the outermost braces can be decoded.
func coerceJSON(s string) string {
	s = strings.TrimSpace(s)
	s = fenceRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}

// rawIntent mirrors the JSON schema the prompt demands. Decoding is strict on
// shape: anything that does not fit collapses to OTHER with empty meta rather
// than a partially populated result.
type rawIntent struct {
	Intent        string `json:"intent"`
	MeetingISO    string `json:"meeting_iso"`
	ProposedSlots []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"proposed_slots"`
	SalaryAmount *int   `json:"salary_amount"`
	Currency     string `json:"currency"`
	Notes        string `json:"notes"`
}

var allowedIntents = map[string]bool{
	IntentMeetingScheduled: true,
	IntentProceed:          true,
	IntentRejection:        true,
	IntentSalaryDiscussion: true,
	IntentOther:            true,
}

// decodeIntent turns raw model output into a validated IntentResult.
// Fails closed: undecodable output or an unknown intent label yields
// (OTHER, empty meta) with no error, so extraction never aborts ingestion.
func decodeIntent(output string) IntentResult {
	other := IntentResult{Intent: IntentOther}

	var raw rawIntent
	if err := json.Unmarshal([]byte(coerceJSON(output)), &raw); err != nil {
		return other
	}

	intent := strings.ToUpper(strings.TrimSpace(raw.Intent))
	if !allowedIntents[intent] {
		return other
	}

	meta := IntentMeta{
		Currency: strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Notes:    strings.TrimSpace(raw.Notes),
	}
	if v := strings.TrimSpace(raw.MeetingISO); v != "" && !strings.EqualFold(v, "null") {
		meta.MeetingISO = v
	}
	for _, s := range raw.ProposedSlots {
		start := strings.TrimSpace(s.Start)
		if start == "" || strings.EqualFold(start, "null") {
			continue
		}
		w := ProposedWindow{Start: start}
		if end := strings.TrimSpace(s.End); end != "" && !strings.EqualFold(end, "null") {
			w.End = end
		}
		meta.ProposedSlots = append(meta.ProposedSlots, w)
	}
	if raw.SalaryAmount != nil {
		meta.SalaryAmount = raw.SalaryAmount
	}

	result := IntentResult{Intent: intent, Meta: meta}

	// Guardrail: a meeting intent with no extracted time is an approval, not
	// a schedule. Never invent a date.
	if result.Intent == IntentMeetingScheduled && !result.HasTimes() {
		result.Intent = IntentProceed
	}
	return result
}

// decodeEvaluation parses the résumé evaluation JSON.
func decodeEvaluation(output string) (ResumeEvaluation, error) {
	var eval ResumeEvaluation
	if err := json.Unmarshal([]byte(coerceJSON(output)), &eval); err != nil {
		return ResumeEvaluation{}, fmt.Errorf("failed to parse evaluation JSON: %w", err)
	}
	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > 10 {
		eval.Score = 10
	}
	return eval, nil
}

// looksLikeHTML is the sanity check applied to generated email bodies.
func looksLikeHTML(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}
