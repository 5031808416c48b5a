package ai

import (
	"context"
	"fmt"

	"fiwb-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	GeminiAPIKey string

	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// geminiTriage adapts the Gemini REST service to TriageService.
type geminiTriage struct {
	svc *gemini.GeminiService
}

func (g *geminiTriage) TriageEmail(ctx context.Context, subject, body string) (*Triage, error) {
	relevant, label, summary, deadline, err := g.svc.TriageEmail(ctx, subject, body)
	if err != nil {
		return nil, err
	}
	return &Triage{
		IsRelevant: relevant,
		Label:      label,
		Summary:    summary,
		Deadline:   deadline,
	}, nil
}

// NewTriageService creates a TriageService based on the config.
// Switch AI provider by changing config.Provider.
func NewTriageService(cfg Config) (TriageService, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return &geminiTriage{svc: gemini.NewGeminiService(cfg.GeminiAPIKey)}, nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// "auto": run both with Gemini preferred when a key is present.
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService(
				&geminiTriage{svc: gemini.NewGeminiService(cfg.GeminiAPIKey)},
				NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel),
			), nil
		}
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	}
}
