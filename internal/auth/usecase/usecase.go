package usecase

import (
	authdomain "fiwb-backend/internal/auth/domain"
	authdto "fiwb-backend/internal/auth/dto"
)

// AuthUsecase is the application boundary for identity and sessions.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	GoogleSignIn(req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// SetSyncCallback registers the hook fired after every successful
	// sign-in; the sync layer uses it to refresh the user's footprint.
	SetSyncCallback(cb func(user *authdomain.User))
}
