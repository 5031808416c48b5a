package repository

import (
	"errors"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(user *authdomain.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return r.db.Create(user).Error
}

func (r *userRepository) FindByEmail(email string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *authdomain.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

// ListAllEmails returns every known user email, for the safety-net loop.
func (r *userRepository) ListAllEmails() ([]string, error) {
	var emails []string
	err := r.db.Model(&authdomain.User{}).Pluck("email", &emails).Error
	return emails, err
}

// SaveAccessToken persists a refreshed Google access token without touching
// the rest of the row (the sync may be racing a profile update).
func (r *userRepository) SaveAccessToken(userID, accessToken string) error {
	return r.db.Model(&authdomain.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"updated_at":   time.Now(),
		}).Error
}

func (r *userRepository) AddIndexedChars(userID string, chars int64) error {
	return r.db.Model(&authdomain.User{}).Where("id = ?", userID).
		Update("indexed_chars", gorm.Expr("indexed_chars + ?", chars)).Error
}

func (r *userRepository) TouchLastSynced(userID string) error {
	return r.db.Model(&authdomain.User{}).Where("id = ?", userID).
		Update("last_synced", time.Now().UTC()).Error
}

func (r *userRepository) SaveRefreshToken(token *authdomain.RefreshToken) error {
	return r.db.Create(token).Error
}

func (r *userRepository) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	var refreshToken authdomain.RefreshToken
	err := r.db.Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *userRepository) DeleteRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
