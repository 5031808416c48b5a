package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService implements smart AI provider routing with fallback:
// Gemini first (better classification quality), Ollama when Gemini is
// quota-exhausted or unreachable.
type FallbackService struct {
	gemini TriageService
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini TriageService, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// TriageEmail tries Gemini first, falls back to Ollama on quota or
// connection errors.
func (f *FallbackService) TriageEmail(ctx context.Context, subject, body string) (*Triage, error) {
	if f.gemini != nil {
		result, err := f.gemini.TriageEmail(ctx, subject, body)
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
		result, err := f.ollama.TriageEmail(ctx, subject, body)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.TriageEmail(ctx, subject, body)
		}

		return nil, fmt.Errorf("ollama triage failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for triage")
}
