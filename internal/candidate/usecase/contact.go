package usecase

import (
	"regexp"
	"strings"

	"hrflow-backend/internal/candidate/domain"
)

var (
	emailRe = regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.\w+`)
	// Nepali mobile numbers, with or without the country prefix.
	phoneRe = regexp.MustCompile(`(\+?977[-\s]?)?(9\d{9})`)
	linkRe  = regexp.MustCompile(`(?i)(https?://|www\.|linkedin|github)`)
	wordRe  = regexp.MustCompile(`^[A-Z][a-zA-Z.'-]*$`)
)

// ExtractContactInfo pulls name, email and phone out of parsed résumé text.
// The name heuristic takes the first of the top lines that looks like a
// person's name: two to four capitalized words, no links, no digits.
func ExtractContactInfo(text string) domain.ContactInfo {
	info := domain.ContactInfo{}

	if m := emailRe.FindString(text); m != "" {
		info.Email = strings.ToLower(m)
	}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		info.Phone = strings.ReplaceAll(strings.ReplaceAll(m[0], " ", ""), "-", "")
	}

	lines := strings.Split(text, "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++
		if checked > 5 {
			break
		}
		if linkRe.MatchString(line) || strings.ContainsAny(line, "0123456789@") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		allNameLike := true
		for _, w := range words {
			if !wordRe.MatchString(w) {
				allNameLike = false
				break
			}
		}
		if allNameLike {
			info.Name = strings.Join(words, " ")
			break
		}
	}
	return info
}
