package adapter

import (
	"encoding/json"
	"strings"
	"testing"

	"fiwb-backend/internal/sync/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	classroomapi "google.golang.org/api/classroom/v1"
)

func TestFormatDueDate(t *testing.T) {
	got := FormatDueDate(&classroomapi.Date{Year: 2026, Month: 3, Day: 7})
	require.NotNil(t, got)
	assert.Equal(t, "2026-03-07", *got)

	assert.Nil(t, FormatDueDate(nil))
	assert.Nil(t, FormatDueDate(&classroomapi.Date{}))
}

func TestNormalizeAttachmentsVariants(t *testing.T) {
	materials := []*classroomapi.Material{
		{DriveFile: &classroomapi.SharedDriveFile{DriveFile: &classroomapi.DriveFile{
			Id: "f1", Title: "Slides.pdf", AlternateLink: "https://drive/f1",
		}}},
		{YoutubeVideo: &classroomapi.YouTubeVideo{
			Id: "v1", Title: "Lecture 3", AlternateLink: "https://youtu.be/v1",
		}},
		{Link: &classroomapi.Link{Url: "https://example.edu/syllabus"}},
		{Form: &classroomapi.Form{Title: "Quiz 1", FormUrl: "https://forms/q1"}},
		nil,
		{}, // no union member set
	}

	got := NormalizeAttachments(materials)
	require.Len(t, got, 4)

	assert.Equal(t, "drive", got[0].Type)
	assert.Equal(t, "f1", got[0].FileID)

	assert.Equal(t, "video", got[1].Type)
	assert.Equal(t, "v1", got[1].VideoID)

	assert.Equal(t, "link", got[2].Type)
	// Untitled links fall back to the URL.
	assert.Equal(t, "https://example.edu/syllabus", got[2].Title)

	assert.Equal(t, "form", got[3].Type)
	assert.Equal(t, "https://forms/q1", got[3].URL)
}

func TestEncodeAttachments(t *testing.T) {
	assert.Equal(t, "[]", EncodeAttachments(nil))

	encoded := EncodeAttachments([]domain.Attachment{{Type: "link", Title: "t", URL: "u"}})
	var decoded []domain.Attachment
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "link", decoded[0].Type)
}

func TestBuildIndexContentListsAttachments(t *testing.T) {
	content := BuildIndexContent("HW3", "Solve problems 1-5.", []domain.Attachment{
		{Type: "drive", Title: "hw3.pdf", URL: "https://drive/hw3"},
	})

	assert.Contains(t, content, "HW3")
	assert.Contains(t, content, "Solve problems 1-5.")
	assert.Contains(t, content, "[drive] hw3.pdf (https://drive/hw3)")
}

func TestContentPreviewBounds(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := ContentPreview(long)
	assert.Equal(t, 2003, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", ContentPreview("short"))
}
