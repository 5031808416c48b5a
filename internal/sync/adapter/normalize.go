package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"fiwb-backend/internal/sync/domain"

	classroomapi "google.golang.org/api/classroom/v1"
)

// FormatDueDate renders a Classroom date as YYYY-MM-DD, the only due-date
// shape stored on material rows.
func FormatDueDate(d *classroomapi.Date) *string {
	if d == nil || d.Year == 0 {
		return nil
	}
	s := fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	return &s
}

// NormalizeAttachments maps the Classroom material union into the tagged
// attachment variants stored alongside each row. Unknown union members are
// dropped silently.
func NormalizeAttachments(materials []*classroomapi.Material) []domain.Attachment {
	var out []domain.Attachment
	for _, m := range materials {
		if m == nil {
			continue
		}
		switch {
		case m.DriveFile != nil && m.DriveFile.DriveFile != nil:
			f := m.DriveFile.DriveFile
			out = append(out, domain.Attachment{
				Type:      "drive",
				Title:     f.Title,
				URL:       f.AlternateLink,
				FileID:    f.Id,
				Thumbnail: f.ThumbnailUrl,
			})
		case m.YoutubeVideo != nil:
			v := m.YoutubeVideo
			out = append(out, domain.Attachment{
				Type:      "video",
				Title:     v.Title,
				URL:       v.AlternateLink,
				VideoID:   v.Id,
				Thumbnail: v.ThumbnailUrl,
			})
		case m.Link != nil:
			l := m.Link
			title := l.Title
			if title == "" {
				title = l.Url
			}
			out = append(out, domain.Attachment{
				Type:      "link",
				Title:     title,
				URL:       l.Url,
				Thumbnail: l.ThumbnailUrl,
			})
		case m.Form != nil:
			f := m.Form
			out = append(out, domain.Attachment{
				Type:      "form",
				Title:     f.Title,
				URL:       f.FormUrl,
				Thumbnail: f.ThumbnailUrl,
			})
		}
	}
	return out
}

// EncodeAttachments serializes attachments for the row column. An empty
// list stores as "[]" so readers never see NULL.
func EncodeAttachments(attachments []domain.Attachment) string {
	if len(attachments) == 0 {
		return "[]"
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// BuildIndexContent assembles the text mirrored to the remote index: the
// description plus a readable inventory of every attachment, so searches
// can hit attachment names too.
func BuildIndexContent(title, description string, attachments []domain.Attachment) string {
	var b strings.Builder
	b.WriteString(title)
	if description != "" {
		b.WriteString("\n\n")
		b.WriteString(description)
	}
	if len(attachments) > 0 {
		b.WriteString("\n\nAttachments:")
		for _, a := range attachments {
			b.WriteString(fmt.Sprintf("\n- [%s] %s", a.Type, a.Title))
			if a.URL != "" {
				b.WriteString(" (" + a.URL + ")")
			}
		}
	}
	return b.String()
}

// ContentPreview bounds the content stored on the local row; full text goes
// to the index only.
func ContentPreview(content string) string {
	const max = 2000
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}

// BinaryPlaceholder is the stand-in content for files whose bytes cannot be
// turned into text (scanned PDFs, office formats, archives).
func BinaryPlaceholder(name, mimeType, link string) string {
	return fmt.Sprintf("File: %s\nType: %s\nLink: %s\n\n(Content not extracted; open the link to view the file.)", name, mimeType, link)
}
