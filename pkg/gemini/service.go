package gemini

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

type GeminiService struct {
	ApiKey string
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{ApiKey: apiKey}
}

type triageResult struct {
	IsRelevant bool    `json:"is_relevant"`
	Label      string  `json:"label"`
	Summary    string  `json:"summary"`
	Deadline   *string `json:"deadline"`
}

// TriageEmail classifies one inbox message with gemini-2.5-flash and
// returns the structured triage fields.
func (g *GeminiService) TriageEmail(ctx context.Context, subject, body string) (bool, string, string, *string, error) {
	url := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=" + g.ApiKey

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
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	reqBody, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return false, "", "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return false, "", "", nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false, "", "", nil, fmt.Errorf("Gemini API error: %s", string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false, "", "", nil, err
	}

	text, err := extractCandidateText(result)
	if err != nil {
		return false, "", "", nil, err
	}

	var triage triageResult
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &triage); err != nil {
		return false, "", "", nil, fmt.Errorf("failed to parse triage response: %w", err)
	}

	return triage.IsRelevant, triage.Label, triage.Summary, triage.Deadline, nil
}

func extractCandidateText(result map[string]interface{}) (string, error) {
	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no response returned")
}

// ExtractJSON strips markdown fences and surrounding prose from a model
// response so the JSON object inside can be unmarshaled.
func ExtractJSON(text string) string {
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
