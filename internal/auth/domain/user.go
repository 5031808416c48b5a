package domain

import "time"

type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"` // Never return password in JSON
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider"` // "email", "google" or "imap"
	GoogleID  string    `json:"-"`

	// Google OAuth credential pair, refreshed in place during sync
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"-"`

	// Optional secondary course platform
	MoodleURL   string `json:"moodle_url,omitempty"`
	MoodleToken string `json:"-"`

	// JSON-encoded list of watched Drive folder ids
	WatchedDriveFolders string `json:"-" gorm:"type:text"`

	// IMAP fallback for non-Google mailboxes; password stored encrypted
	ImapServer   string `json:"-"`
	ImapPort     int    `json:"-"`
	ImapPassword string `json:"-"`

	LastSynced   *time.Time `json:"last_synced,omitempty"`
	IndexedChars int64      `json:"-"` // cumulative characters mirrored to the index

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at"`
}
