package repository

import (
	"errors"

	"fiwb-backend/internal/sync/domain"

	"gorm.io/gorm"
)

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) ExistingIDs(courseID string) (domain.IDSet, error) {
	var ids []string
	err := r.db.Model(&domain.Material{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(domain.IDSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set, nil
}

func (r *materialRepository) BulkCreate(materials []*domain.Material) error {
	if len(materials) == 0 {
		return nil
	}
	return r.db.Create(&materials).Error
}

func (r *materialRepository) FindByID(id string) (*domain.Material, error) {
	var material domain.Material
	err := r.db.Where("id = ?", id).First(&material).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &material, nil
}

func (r *materialRepository) ListByCourse(courseID, userID string) ([]*domain.Material, error) {
	var materials []*domain.Material
	// Legacy rows with NULL user_id are shared and remain visible.
	err := r.db.
		Where("course_id = ? AND (user_id = ? OR user_id IS NULL)", courseID, userID).
		Order("created_at DESC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Material{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *materialRepository) ClaimOwnership(id, userID string) error {
	return r.db.Model(&domain.Material{}).
		Where("id = ? AND user_id IS NULL", id).
		Update("user_id", userID).Error
}
