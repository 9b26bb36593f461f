package docparse

import (
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// ExtractText converts a resume or job description file (PDF, DOCX, TXT and
// friends) to plain text.
func ExtractText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("unable to convert %s: %w", path, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}
	return text, nil
}
