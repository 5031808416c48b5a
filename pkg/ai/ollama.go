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

// OllamaService implements TriageService using a local Ollama LLM
type OllamaService struct {
	getBaseURL func() string
	getModel   func() string
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
	}
}

// TriageEmail implements TriageService
func (o *OllamaService) TriageEmail(ctx context.Context, subject, body string) (*Triage, error) {
	url := o.getBaseURL() + "/api/generate"

	currentDate := time.Now().Format("2006-01-02")

	prompt := fmt.Sprintf(`You are an academic email triage assistant. Today is %s.

Classify the email below and respond with ONLY a JSON object, no other text:
{
  "is_relevant": true if the email is about coursework, deadlines, grades, lectures, or academic administration, false otherwise,
  "label": one of "Assignment", "Announcement", "Administrative", "Inbox",
  "summary": one or two sentences capturing what the email says and any action needed,
  "deadline": "YYYY-MM-DD" if the email mentions a due date, otherwise null
}

SUBJECT: %s

BODY:
%s

JSON:`, currentDate, subject, body)

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": 300,
		},
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var triage Triage
	if err := json.Unmarshal([]byte(extractJSON(result.Response)), &triage); err != nil {
		return nil, fmt.Errorf("failed to parse triage response: %w", err)
	}

	return &triage, nil
}

func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
