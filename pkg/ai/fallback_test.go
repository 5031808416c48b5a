package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTriage struct {
	result *Triage
	err    error
	calls  int
}

func (s *stubTriage) TriageEmail(ctx context.Context, subject, body string) (*Triage, error) {
	s.calls++
	return s.result, s.err
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("googleapi: Error 429: Too Many Requests")))
	assert.True(t, isQuotaError(errors.New("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.False(t, isQuotaError(errors.New("invalid request payload")))
	assert.False(t, isQuotaError(nil))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, isConnectionError(fmt.Errorf("request failed: %w", errors.New("dial tcp 127.0.0.1:11434: connection refused"))))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("invalid model name")))
	assert.False(t, isConnectionError(nil))
}

func TestFallbackPrefersGemini(t *testing.T) {
	want := &Triage{IsRelevant: true, Label: "Assignment", Summary: "Homework due Friday"}
	g := &stubTriage{result: want}

	f := NewFallbackService(g, nil)
	got, err := f.TriageEmail(context.Background(), "HW3", "due friday")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, g.calls)
}

func TestFallbackNoProvider(t *testing.T) {
	f := NewFallbackService(nil, nil)
	_, err := f.TriageEmail(context.Background(), "s", "b")
	assert.Error(t, err)
}

func TestRawTriageTruncatesSummary(t *testing.T) {
	body := ""
	for i := 0; i < 30; i++ {
		body += "0123456789"
	}
	triage := RawTriage(body)

	assert.False(t, triage.IsRelevant)
	assert.Equal(t, "Inbox", triage.Label)
	assert.Equal(t, 203, len(triage.Summary))
	assert.Nil(t, triage.Deadline)

	short := RawTriage("hello")
	assert.Equal(t, "hello", short.Summary)
}

func TestExtractJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"is_relevant\": true, \"label\": \"Assignment\"}\n```"
	assert.Equal(t, `{"is_relevant": true, "label": "Assignment"}`, extractJSON(raw))

	prose := "Here is the result: {\"label\": \"Inbox\"} hope that helps"
	assert.Equal(t, `{"label": "Inbox"}`, extractJSON(prose))
}
