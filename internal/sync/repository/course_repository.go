package repository

import (
	"errors"
	"time"

	"fiwb-backend/internal/sync/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Upsert(info domain.CourseInfo) (*domain.Course, error) {
	now := time.Now().UTC()

	var course domain.Course
	err := r.db.Where("id = ?", info.ID).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		course = domain.Course{
			ID:         info.ID,
			Name:       info.Name,
			Professor:  "Loading...",
			Platform:   info.Platform,
			LastSynced: &now,
		}
		if err := r.db.Create(&course).Error; err != nil {
			return nil, err
		}
		return &course, nil
	}
	if err != nil {
		return nil, err
	}

	course.Name = info.Name
	course.LastSynced = &now
	if err := r.db.Save(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) SetProfessor(courseID, professor string) error {
	return r.db.Model(&domain.Course{}).Where("id = ?", courseID).
		Update("professor", professor).Error
}

func (r *courseRepository) LinkUser(userID, courseID string) error {
	link := domain.UserCourse{UserID: userID, CourseID: courseID}
	// Atomic insert-if-absent: re-syncs and concurrent syncs hit existing links.
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

func (r *courseRepository) UnlinkUser(userID, courseID string) error {
	return r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&domain.UserCourse{}).Error
}

func (r *courseRepository) ListUserCourses(userID string) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.
		Joins("JOIN user_courses ON user_courses.course_id = courses.id").
		Where("user_courses.user_id = ?", userID).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) ListUserCoursesByPlatform(userID, platform string) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.
		Joins("JOIN user_courses ON user_courses.course_id = courses.id").
		Where("user_courses.user_id = ? AND courses.platform = ?", userID, platform).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) CountUserCourses(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.UserCourse{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *courseRepository) FindByID(courseID string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.Where("id = ?", courseID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) IsLinked(userID, courseID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}
