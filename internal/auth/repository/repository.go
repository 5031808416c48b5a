package repository

import (
	authdomain "fiwb-backend/internal/auth/domain"
)

// UserRepository is the persistence boundary for users and refresh tokens.
// "Not found" is reported as (nil, nil), not an error.
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	Update(user *authdomain.User) error
	ListAllEmails() ([]string, error)

	SaveAccessToken(userID, accessToken string) error
	AddIndexedChars(userID string, chars int64) error
	TouchLastSynced(userID string) error

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}
