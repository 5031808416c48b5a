package usecase

import (
	"testing"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"
	authdto "fiwb-backend/internal/auth/dto"
	"fiwb-backend/internal/auth/repository"
	"fiwb-backend/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	users  map[string]*authdomain.User
	tokens map[string]*authdomain.RefreshToken
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*authdomain.User{}, tokens: map[string]*authdomain.RefreshToken{}}
}

func (r *memUserRepo) Create(user *authdomain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = user
	return nil
}
func (r *memUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (r *memUserRepo) FindByID(id string) (*authdomain.User, error) { return r.users[id], nil }
func (r *memUserRepo) Update(user *authdomain.User) error           { r.users[user.ID] = user; return nil }
func (r *memUserRepo) ListAllEmails() ([]string, error)             { return nil, nil }
func (r *memUserRepo) SaveAccessToken(userID, accessToken string) error { return nil }
func (r *memUserRepo) AddIndexedChars(userID string, chars int64) error { return nil }
func (r *memUserRepo) TouchLastSynced(userID string) error              { return nil }
func (r *memUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}
func (r *memUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return r.tokens[token], nil
}
func (r *memUserRepo) DeleteRefreshToken(token string) error {
	delete(r.tokens, token)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Hour,
		JWTRefreshExpiry: 24 * time.Hour,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	repo := newMemUserRepo()
	uc := NewAuthUsecase(repo, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter22", Name: "Student"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// Stored password is hashed.
	stored, _ := repo.FindByEmail("s@example.edu")
	assert.NotEqual(t, "hunter22", stored.Password)

	login, err := uc.Login(&authdto.LoginRequest{Email: "s@example.edu", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, login.User.ID)

	_, err = uc.Login(&authdto.LoginRequest{Email: "s@example.edu", Password: "wrong-pass"})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc := NewAuthUsecase(newMemUserRepo(), testConfig())

	_, err := uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter22", Name: "Student"})
	require.NoError(t, err)

	_, err = uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter23", Name: "Other"})
	assert.Error(t, err)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newMemUserRepo()
	uc := NewAuthUsecase(repo, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter22", Name: "Student"})
	require.NoError(t, err)

	user, err := uc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s@example.edu", user.Email)

	_, err = uc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newMemUserRepo()
	uc := NewAuthUsecase(repo, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter22", Name: "Student"})
	require.NoError(t, err)

	rotated, err := uc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	// Logout revokes; the revoked token no longer refreshes.
	require.NoError(t, uc.Logout(rotated.RefreshToken))
	_, err = uc.RefreshToken(rotated.RefreshToken)
	assert.Error(t, err)
}

func TestLoginFiresSyncCallback(t *testing.T) {
	repo := newMemUserRepo()
	uc := NewAuthUsecase(repo, testConfig())

	_, err := uc.Register(&authdto.RegisterRequest{Email: "s@example.edu", Password: "hunter22", Name: "Student"})
	require.NoError(t, err)

	var syncedEmail string
	uc.SetSyncCallback(func(u *authdomain.User) { syncedEmail = u.Email })

	_, err = uc.Login(&authdto.LoginRequest{Email: "s@example.edu", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "s@example.edu", syncedEmail)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := repository.HashPassword("secret-pw")
	require.NoError(t, err)
	assert.True(t, repository.CheckPasswordHash("secret-pw", hash))
	assert.False(t, repository.CheckPasswordHash("other", hash))
}
