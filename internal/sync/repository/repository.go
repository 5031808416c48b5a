package repository

import (
	"fiwb-backend/internal/sync/domain"
)

// CourseRepository is the persistence boundary for courses and enrollment.
type CourseRepository interface {
	// Upsert creates the course or refreshes its name, and bumps last_synced.
	Upsert(info domain.CourseInfo) (*domain.Course, error)
	SetProfessor(courseID, professor string) error

	LinkUser(userID, courseID string) error
	UnlinkUser(userID, courseID string) error

	ListUserCourses(userID string) ([]*domain.Course, error)
	ListUserCoursesByPlatform(userID, platform string) ([]*domain.Course, error)
	CountUserCourses(userID string) (int64, error)
	FindByID(courseID string) (*domain.Course, error)
	IsLinked(userID, courseID string) (bool, error)
}

// MaterialRepository is the persistence boundary for ingested content units.
// All dedup decisions run against this store, never against the remote index.
type MaterialRepository interface {
	// ExistingIDs returns the dedup set for one course.
	ExistingIDs(courseID string) (domain.IDSet, error)
	// BulkCreate inserts all rows in one write; duplicate ids are a caller bug.
	BulkCreate(materials []*domain.Material) error
	FindByID(id string) (*domain.Material, error)
	ListByCourse(courseID, userID string) ([]*domain.Material, error)
	CountByUser(userID string) (int64, error)
	// ClaimOwnership backfills user_id on legacy rows that predate ownership.
	ClaimOwnership(id, userID string) error
}
