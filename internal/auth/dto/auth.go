package dto

import authdomain "fiwb-backend/internal/auth/domain"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// GoogleSignInRequest carries the ID token for identity plus the OAuth
// pair the sync needs for Classroom, Drive and Gmail access.
type GoogleSignInRequest struct {
	IDToken      string `json:"id_token" binding:"required"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         *authdomain.User `json:"user"`
}

type MoodleConnectRequest struct {
	MoodleURL   string `json:"moodle_url" binding:"required"`
	MoodleToken string `json:"moodle_token" binding:"required"`
}

type ImapCredentialsRequest struct {
	Server   string `json:"server" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type WatchedFoldersRequest struct {
	FolderIDs []string `json:"folder_ids" binding:"required"`
}
