package imap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Message is one fetched mail item from an IMAP mailbox.
type Message struct {
	ID         string // Message-ID header, or a UID-derived fallback
	Subject    string
	From       string
	FromName   string
	Body       string
	ReceivedAt time.Time
}

// Service fetches recent messages over IMAP for accounts without Google
// OAuth. Connections are per-call; IMAP sessions are cheap at this volume.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// FetchRecent returns up to limit messages from INBOX, oldest first.
func (s *Service) FetchRecent(server string, port int, email, password string, limit uint32) ([]*Message, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", server, port), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(email, password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	from := uint32(1)
	if mbox.Messages > limit {
		from = mbox.Messages - limit + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var result []*Message
	for msg := range messages {
		m := convertMessage(msg, section)
		if m != nil {
			result = append(result, m)
		}
	}

	if err := <-done; err != nil {
		return result, fmt.Errorf("IMAP fetch failed: %w", err)
	}
	return result, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) *Message {
	if msg == nil || msg.Envelope == nil {
		return nil
	}

	out := &Message{
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}

	if id := strings.Trim(msg.Envelope.MessageId, "<>"); id != "" {
		out.ID = id
	} else {
		out.ID = fmt.Sprintf("imap_%d", msg.Uid)
	}

	if len(msg.Envelope.From) > 0 {
		addr := msg.Envelope.From[0]
		out.From = addr.Address()
		out.FromName = addr.PersonalName
		if out.FromName == "" {
			out.FromName = out.From
		}
	}

	if r := msg.GetBody(section); r != nil {
		out.Body = readPlainBody(r)
	}
	return out
}

// readPlainBody walks the MIME tree and concatenates inline text parts.
func readPlainBody(r io.Reader) string {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			body, err := io.ReadAll(part.Body)
			if err == nil {
				sb.Write(body)
			}
		}
	}
	return sb.String()
}
