package domain

import "time"

// Material types as stored on rows and mirrored into index metadata.
const (
	TypeAssignment   = "assignment"
	TypeMaterial     = "material"
	TypeAnnouncement = "announcement"
	TypeDriveFile    = "drive_file"
	TypeMailItem     = "mail_item"
)

// Material is one ingested content unit. The id is the remote system's native
// id and doubles as the dedup key: once a row exists it is never re-fetched,
// even if the remote copy changes.
type Material struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      *string    `json:"user_id,omitempty" gorm:"index"` // nullable for legacy shared rows
	CourseID    string     `json:"course_id" gorm:"index;not null"`
	Title       string     `json:"title"`
	Content     string     `json:"content" gorm:"type:text"` // truncated preview
	Type        string     `json:"type"`
	DueDate     *string    `json:"due_date,omitempty"` // YYYY-MM-DD
	CreatedAt   string     `json:"created_at"`         // remote creation timestamp, RFC3339
	SourceLink  string     `json:"source_link"`
	Attachments string     `json:"attachments" gorm:"type:text"` // JSON-encoded []Attachment
	SyncedAt    time.Time  `json:"synced_at" gorm:"autoCreateTime"`
}

// Attachment is the tagged variant the normalizer emits for every remote
// attachment shape. Only the fields relevant to the type are set.
type Attachment struct {
	Type      string `json:"type"` // drive, video, link, form, file
	FileType  string `json:"file_type,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	FileID    string `json:"file_id,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	VideoID   string `json:"video_id,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// IndexDocument is the normalized payload handed to the remote index writer.
type IndexDocument struct {
	ID          string
	UserEmail   string
	Content     string
	Title       string
	Description string
	CourseID    string
	CourseName  string
	Professor   string
	Type        string
	Source      string
	SourceLink  string
}

// IDSet tracks already-ingested material ids for one course.
type IDSet map[string]struct{}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}
