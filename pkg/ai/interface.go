package ai

import (
	"context"
)

// Triage is the classification produced for one inbox message.
type Triage struct {
	IsRelevant bool    `json:"is_relevant"`
	Label      string  `json:"label"`
	Summary    string  `json:"summary"`
	Deadline   *string `json:"deadline,omitempty"`
}

// TriageService classifies academic emails. Implement this interface to
// add new AI providers (Gemini, Ollama, OpenAI, etc.)
type TriageService interface {
	TriageEmail(ctx context.Context, subject, body string) (*Triage, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// RawTriage is the classification used when no provider answers in time:
// the message is kept but left unclassified.
func RawTriage(body string) *Triage {
	summary := body
	if len(summary) > 200 {
		summary = summary[:200] + "..."
	}
	return &Triage{
		IsRelevant: false,
		Label:      "Inbox",
		Summary:    summary,
		Deadline:   nil,
	}
}
