package domain

import "time"

// Sentinel course ids for the synthetic buckets that group non-course content.
const (
	DriveCourseID = "GOOGLE_DRIVE"
	GmailCourseID = "GMAIL_INBOX"
)

// Platform tags as stored on Course rows.
const (
	PlatformClassroom = "Google Classroom"
	PlatformMoodle    = "Moodle"
	PlatformDrive     = "Google Drive"
	PlatformGmail     = "Gmail"
)

// Course is a grouping entity: a real remote course or a synthetic bucket.
// Enrollment is many-to-many with users via the user_courses join table.
type Course struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name"`
	Professor  string     `json:"professor"`
	Platform   string     `json:"platform" gorm:"index"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UserCourse is the enrollment link row.
type UserCourse struct {
	UserID   string `gorm:"primaryKey;index"`
	CourseID string `gorm:"primaryKey;index"`
}

func (UserCourse) TableName() string {
	return "user_courses"
}

// CourseInfo is the lightweight descriptor adapters return from ListActive.
type CourseInfo struct {
	ID       string
	Name     string
	Platform string
}
