package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fiwb-backend/pkg/googleauth"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Message is a fetched mail item with the body already decoded.
type Message struct {
	ID          string
	Subject     string
	From        string
	FromName    string
	Body        string
	Preview     string
	IsHTML      bool
	ReceivedAt  time.Time
	Attachments []Attachment
}

// Attachment describes one attached part; the content itself is not fetched
// during sync.
type Attachment struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
}

// Service wraps the Gmail API for one OAuth application.
type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (s *Service) build(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) (*gmail.Service, error) {
	client := googleauth.NewClient(ctx, s.clientID, s.clientSecret, accessToken, refreshToken, onTokenRefresh)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// ListRecentMessageIDs returns ids for the user's recent mail window matching
// the query, newest first. MaxResults is capped by the API at 500.
func (s *Service) ListRecentMessageIDs(ctx context.Context, accessToken, refreshToken, query string, limit int64, onTokenRefresh googleauth.TokenUpdateFunc) ([]string, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 250
	}
	if limit > 500 {
		limit = 500
	}

	call := srv.Users.Messages.List("me").MaxResults(limit).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message in full format and decodes its body.
func (s *Service) GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh googleauth.TokenUpdateFunc) (*Message, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %w", messageID, err)
	}
	return convertMessage(msg), nil
}

func convertMessage(msg *gmail.Message) *Message {
	from := getHeader(msg.Payload.Headers, "From")
	fromName := from
	// Extract name from "Name <email@example.com>" format
	if idx := strings.Index(from, "<"); idx > 0 {
		fromName = strings.TrimSpace(from[:idx])
	}

	body, isHTML := getBody(msg.Payload)
	preview := body
	if isHTML {
		preview = StripHTML(preview)
	}
	preview = strings.Join(strings.Fields(preview), " ")
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}

	return &Message{
		ID:          msg.Id,
		Subject:     getHeader(msg.Payload.Headers, "Subject"),
		From:        from,
		FromName:    fromName,
		Body:        body,
		Preview:     preview,
		IsHTML:      isHTML,
		ReceivedAt:  time.Unix(msg.InternalDate/1000, 0),
		Attachments: getAttachments(msg.Payload),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func getBody(payload *gmail.MessagePart) (string, bool) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data), payload.MimeType == "text/html"
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			} else if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, htmlBody != ""
}

func getAttachments(payload *gmail.MessagePart) []Attachment {
	var attachments []Attachment

	var walk func(parts []*gmail.MessagePart)
	walk = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				attachments = append(attachments, Attachment{
					ID:       part.Body.AttachmentId,
					Name:     part.Filename,
					Size:     part.Body.Size,
					MimeType: part.MimeType,
				})
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}

	walk(payload.Parts)
	return attachments
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML flattens an HTML body into plain text, good enough for previews
// and triage prompts.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return s
}
