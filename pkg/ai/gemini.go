package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiService implements Service using the Gemini REST API.
type GeminiService struct {
	apiKey string
	client *http.Client
}

// NewGeminiService creates a new Gemini-backed service.
func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	url := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=" + g.apiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// ExtractIntent implements Service.
func (g *GeminiService) ExtractIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	output, err := g.generate(ctx, buildIntentPrompt(req))
	if err != nil {
		return IntentResult{Intent: IntentOther}, err
	}
	return decodeIntent(output), nil
}

// EvaluateResume implements Service.
func (g *GeminiService) EvaluateResume(ctx context.Context, resumeText, jobDescription string) (ResumeEvaluation, error) {
	output, err := g.generate(ctx, buildResumePrompt(resumeText, jobDescription))
	if err != nil {
		return ResumeEvaluation{}, err
	}
	return decodeEvaluation(output)
}

// GenerateManagerEmail implements Service.
func (g *GeminiService) GenerateManagerEmail(ctx context.Context, in ManagerEmailInput) (string, error) {
	output, err := g.generate(ctx, buildManagerEmailPrompt(in))
	if err != nil {
		return "", err
	}
	output = strings.TrimSpace(output)
	if !looksLikeHTML(output) {
		return "", fmt.Errorf("gemini returned non-HTML content")
	}
	return output, nil
}

// GenerateRejectionEmail implements Service.
func (g *GeminiService) GenerateRejectionEmail(ctx context.Context, candidateName string) (string, error) {
	output, err := g.generate(ctx, buildRejectionPrompt(candidateName))
	if err != nil {
		return "", err
	}
	output = strings.TrimSpace(output)
	if !looksLikeHTML(output) {
		return "", fmt.Errorf("gemini returned non-HTML content")
	}
	return output, nil
}
