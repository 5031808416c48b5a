package usecase

import (
	"context"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
)

// SyncStatus is the per-user snapshot returned to the API.
type SyncStatus struct {
	LastSynced    *time.Time `json:"last_synced"`
	CourseCount   int64      `json:"course_count"`
	MaterialCount int64      `json:"material_count"`
	IndexedChars  int64      `json:"indexed_chars"`
	ActiveSyncs   int        `json:"active_syncs"`
}

// SearchResult pairs a stored material with its index distance.
type SearchResult struct {
	Material *domain.Material `json:"material"`
	Distance float64          `json:"distance"`
}

// SyncUsecase is the application boundary the HTTP layer and the scheduler
// talk to.
type SyncUsecase interface {
	// RunFullSync runs Phase 1 for the user synchronously; deep content
	// sync continues in the background after it returns.
	RunFullSync(ctx context.Context, userID string) error
	GetSyncStatus(userID string) (*SyncStatus, error)

	ListCourses(userID string) ([]*domain.Course, error)
	ListMaterials(userID, courseID string) ([]*domain.Material, error)
	SemanticSearch(ctx context.Context, userID, courseID, query string, limit int) ([]SearchResult, error)
}

// DocumentQueue accepts index payloads for background mirroring. Queueing
// never blocks a sync; a full queue drops the document.
type DocumentQueue interface {
	QueueDocument(userID string, doc *domain.IndexDocument) bool
}

// UserSyncer runs a sync for one resolved user; the scheduler and the auth
// login hook both drive it.
type UserSyncer interface {
	SyncUser(ctx context.Context, user *authdomain.User) error
}
