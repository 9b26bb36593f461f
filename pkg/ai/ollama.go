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

// OllamaService implements Service using a local Ollama server.
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService creates a new Ollama-backed service.
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "gpt-oss:20b"
	}
	return &OllamaService{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaService) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	url := o.baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": temperature,
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

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}

// ExtractIntent implements Service.
func (o *OllamaService) ExtractIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	output, err := o.generate(ctx, buildIntentPrompt(req), 0.0)
	if err != nil {
		return IntentResult{Intent: IntentOther}, err
	}
	return decodeIntent(output), nil
}

// EvaluateResume implements Service.
func (o *OllamaService) EvaluateResume(ctx context.Context, resumeText, jobDescription string) (ResumeEvaluation, error) {
	output, err := o.generate(ctx, buildResumePrompt(resumeText, jobDescription), 0.0)
	if err != nil {
		return ResumeEvaluation{}, err
	}
	return decodeEvaluation(output)
}

// GenerateManagerEmail implements Service.
func (o *OllamaService) GenerateManagerEmail(ctx context.Context, in ManagerEmailInput) (string, error) {
	output, err := o.generate(ctx, buildManagerEmailPrompt(in), 0.3)
	if err != nil {
		return "", err
	}
	output = strings.TrimSpace(output)
	if !looksLikeHTML(output) {
		return "", fmt.Errorf("ollama returned non-HTML content")
	}
	return output, nil
}

// GenerateRejectionEmail implements Service.
func (o *OllamaService) GenerateRejectionEmail(ctx context.Context, candidateName string) (string, error) {
	output, err := o.generate(ctx, buildRejectionPrompt(candidateName), 0.3)
	if err != nil {
		return "", err
	}
	output = strings.TrimSpace(output)
	if !looksLikeHTML(output) {
		return "", fmt.Errorf("ollama returned non-HTML content")
	}
	return output, nil
}
