package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes between providers:
// - extraction and evaluation go to Gemini first (better structured output),
//   falling back to Ollama on quota or connection errors
// - generation goes to Ollama first (local, free), falling back to Gemini
type FallbackService struct {
	gemini Service
	ollama Service
}

// NewFallbackService creates a fallback router over both providers.
func NewFallbackService(gemini, ollama Service) *FallbackService {
	return &FallbackService{gemini: gemini, ollama: ollama}
}

// isConnectionError checks if the error is a network/connection error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(net.Error); ok {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429).
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// ExtractIntent tries Gemini first, falls back to Ollama.
func (f *FallbackService) ExtractIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	if f.gemini != nil {
		result, err := f.gemini.ExtractIntent(ctx, req)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}
	if f.ollama != nil {
		return f.ollama.ExtractIntent(ctx, req)
	}
	return IntentResult{Intent: IntentOther}, fmt.Errorf("no AI provider available for intent extraction")
}

// EvaluateResume tries Gemini first, falls back to Ollama.
func (f *FallbackService) EvaluateResume(ctx context.Context, resumeText, jobDescription string) (ResumeEvaluation, error) {
	if f.gemini != nil {
		result, err := f.gemini.EvaluateResume(ctx, resumeText, jobDescription)
		if err == nil {
			return result, nil
		}
		log.Printf("[AI] Gemini evaluation error: %v, falling back to Ollama", err)
	}
	if f.ollama != nil {
		return f.ollama.EvaluateResume(ctx, resumeText, jobDescription)
	}
	return ResumeEvaluation{}, fmt.Errorf("no AI provider available for resume evaluation")
}

// GenerateManagerEmail tries Ollama first, falls back to Gemini.
func (f *FallbackService) GenerateManagerEmail(ctx context.Context, in ManagerEmailInput) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.GenerateManagerEmail(ctx, in)
		if err == nil {
			return result, nil
		}
		if isConnectionError(err) {
			log.Printf("[AI] Ollama connection failed: %v, falling back to Gemini", err)
		} else {
			log.Printf("[AI] Ollama error: %v, falling back to Gemini", err)
		}
	}
	if f.gemini != nil {
		return f.gemini.GenerateManagerEmail(ctx, in)
	}
	return "", fmt.Errorf("no AI provider available for email generation")
}

// GenerateRejectionEmail tries Ollama first, falls back to Gemini.
func (f *FallbackService) GenerateRejectionEmail(ctx context.Context, candidateName string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.GenerateRejectionEmail(ctx, candidateName)
		if err == nil {
			return result, nil
		}
		log.Printf("[AI] Ollama error: %v, falling back to Gemini", err)
	}
	if f.gemini != nil {
		return f.gemini.GenerateRejectionEmail(ctx, candidateName)
	}
	return "", fmt.Errorf("no AI provider available for email generation")
}
