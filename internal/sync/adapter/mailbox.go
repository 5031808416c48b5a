package adapter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/ai"
	"fiwb-backend/pkg/gmail"
	"fiwb-backend/pkg/googleauth"
	"fiwb-backend/pkg/governor"
	"fiwb-backend/pkg/imap"
	"fiwb-backend/pkg/utils/crypto"
)

const (
	// Inbox listing excludes junk; everything else is triaged.
	gmailQuery       = "-label:SPAM -label:TRASH"
	mailFetchLimit   = 250
	triageTimeout    = 15 * time.Second
	triageConcurrent = 2
)

type gmailSource interface {
	ListRecentMessageIDs(ctx context.Context, accessToken, refreshToken, query string, limit int64, onTokenRefresh googleauth.TokenUpdateFunc) ([]string, error)
	GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh googleauth.TokenUpdateFunc) (*gmail.Message, error)
}

type imapSource interface {
	FetchRecent(server string, port int, email, password string, limit uint32) ([]*imap.Message, error)
}

// MailboxAdapter ingests the user's inbox into the synthetic mail bucket.
// Google accounts go through the Gmail API; accounts with stored IMAP
// credentials use IMAP instead. Every new message is triaged by the AI
// layer with a hard per-message deadline.
type MailboxAdapter struct {
	gmailSvc gmailSource
	imapSvc  imapSource
	triage   ai.TriageService
	governor *governor.Governor
	saver    domain.TokenSaver
	secret   string // key for IMAP passwords at rest
}

func NewMailboxAdapter(gmailSvc *gmail.Service, imapSvc *imap.Service, triage ai.TriageService, gov *governor.Governor, saver domain.TokenSaver, secret string) *MailboxAdapter {
	return &MailboxAdapter{
		gmailSvc: gmailSvc,
		imapSvc:  imapSvc,
		triage:   triage,
		governor: gov,
		saver:    saver,
		secret:   secret,
	}
}

func (a *MailboxAdapter) Platform() string {
	return domain.PlatformGmail
}

func (a *MailboxAdapter) usesIMAP(user *authdomain.User) bool {
	return user.ImapServer != "" && user.ImapPassword != ""
}

func (a *MailboxAdapter) ListActive(ctx context.Context, user *authdomain.User) ([]domain.CourseInfo, error) {
	if user.AccessToken == "" && !a.usesIMAP(user) {
		return nil, nil
	}
	return []domain.CourseInfo{{
		ID:       domain.GmailCourseID,
		Name:     "Email Inbox",
		Platform: domain.PlatformGmail,
	}}, nil
}

func (a *MailboxAdapter) FetchInstructor(ctx context.Context, user *authdomain.User, courseID string) (string, error) {
	return "Self", nil
}

// mailMessage is the transport-neutral shape both inbox paths produce.
type mailMessage struct {
	ID         string
	Subject    string
	From       string
	Body       string
	ReceivedAt time.Time
	Link       string
}

func (a *MailboxAdapter) FetchCourseContent(ctx context.Context, user *authdomain.User, course domain.CourseInfo, seen domain.IDSet) ([]domain.NewItem, error) {
	var messages []mailMessage
	var err error
	if a.usesIMAP(user) {
		messages, err = a.fetchIMAP(ctx, user, seen)
	} else {
		messages, err = a.fetchGmail(ctx, user, seen)
	}
	if err != nil {
		return nil, err
	}

	// Triage runs a few messages at a time; each one gets its own deadline
	// and a raw fallback so a slow provider never stalls the sync.
	items := make([]domain.NewItem, len(messages))
	sem := make(chan struct{}, triageConcurrent)
	var wg sync.WaitGroup
	for i, msg := range messages {
		wg.Add(1)
		go func(i int, msg mailMessage) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			items[i] = a.triageItem(ctx, user, course, msg)
		}(i, msg)
	}
	wg.Wait()

	return items, nil
}

func (a *MailboxAdapter) fetchGmail(ctx context.Context, user *authdomain.User, seen domain.IDSet) ([]mailMessage, error) {
	sink := tokenSink(a.saver, user.ID)

	var ids []string
	err := a.governor.Do(ctx, func() error {
		var err error
		ids, err = a.gmailSvc.ListRecentMessageIDs(ctx, user.AccessToken, user.RefreshToken, gmailQuery, mailFetchLimit, sink)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gmail listing failed: %w", err)
	}

	var messages []mailMessage
	for _, id := range ids {
		if seen.Has(id) {
			continue
		}
		var msg *gmail.Message
		err := a.governor.Do(ctx, func() error {
			var err error
			msg, err = a.gmailSvc.GetMessage(ctx, user.AccessToken, user.RefreshToken, id, sink)
			return err
		})
		if err != nil {
			log.Printf("[Mailbox] Message %s fetch failed: %v", id, err)
			continue
		}
		body := msg.Body
		if msg.IsHTML {
			body = gmail.StripHTML(body)
		}
		messages = append(messages, mailMessage{
			ID:         msg.ID,
			Subject:    msg.Subject,
			From:       msg.From,
			Body:       body,
			ReceivedAt: msg.ReceivedAt,
			Link:       "https://mail.google.com/mail/u/0/#inbox/" + msg.ID,
		})
	}
	return messages, nil
}

func (a *MailboxAdapter) fetchIMAP(ctx context.Context, user *authdomain.User, seen domain.IDSet) ([]mailMessage, error) {
	password, err := crypto.Decrypt(user.ImapPassword, a.secret)
	if err != nil {
		return nil, fmt.Errorf("imap password decrypt failed: %w", err)
	}

	var fetched []*imap.Message
	err = a.governor.Do(ctx, func() error {
		var err error
		fetched, err = a.imapSvc.FetchRecent(user.ImapServer, user.ImapPort, user.Email, password, mailFetchLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("imap fetch failed: %w", err)
	}

	var messages []mailMessage
	for _, msg := range fetched {
		if msg == nil || seen.Has(msg.ID) {
			continue
		}
		messages = append(messages, mailMessage{
			ID:         msg.ID,
			Subject:    msg.Subject,
			From:       msg.From,
			Body:       msg.Body,
			ReceivedAt: msg.ReceivedAt,
		})
	}
	return messages, nil
}

func (a *MailboxAdapter) triageItem(ctx context.Context, user *authdomain.User, course domain.CourseInfo, msg mailMessage) domain.NewItem {
	triage := a.classify(ctx, msg)

	title := msg.Subject
	if triage.Label != "" {
		title = fmt.Sprintf("📧 %s: %s", triage.Label, msg.Subject)
	}

	userID := user.ID
	item := domain.NewItem{
		Material: &domain.Material{
			ID:          msg.ID,
			UserID:      &userID,
			CourseID:    domain.GmailCourseID,
			Title:       title,
			Content:     ContentPreview(triage.Summary),
			Type:        domain.TypeMailItem,
			DueDate:     triage.Deadline,
			CreatedAt:   msg.ReceivedAt.Format(time.RFC3339),
			SourceLink:  msg.Link,
			Attachments: "[]",
		},
	}

	// Only messages the triage marks relevant reach the index; everything
	// is still stored locally for browsing.
	if triage.IsRelevant {
		item.Document = &domain.IndexDocument{
			ID:          msg.ID,
			UserEmail:   user.Email,
			Content:     fmt.Sprintf("From: %s\nSubject: %s\n\n%s", msg.From, msg.Subject, msg.Body),
			Title:       title,
			Description: triage.Summary,
			CourseID:    domain.GmailCourseID,
			CourseName:  course.Name,
			Professor:   "Self",
			Type:        domain.TypeMailItem,
			Source:      domain.PlatformGmail,
			SourceLink:  msg.Link,
		}
	}
	return item
}

// classify runs the AI triage under its deadline. Any failure degrades to
// the raw fallback; a message is never dropped for triage reasons.
func (a *MailboxAdapter) classify(ctx context.Context, msg mailMessage) *ai.Triage {
	if a.triage == nil {
		return ai.RawTriage(msg.Body)
	}

	tctx, cancel := context.WithTimeout(ctx, triageTimeout)
	defer cancel()

	triage, err := a.triage.TriageEmail(tctx, msg.Subject, msg.Body)
	if err != nil {
		log.Printf("[Mailbox] Triage failed for %s: %v", msg.ID, err)
		return ai.RawTriage(msg.Body)
	}
	return triage
}
