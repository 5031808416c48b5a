package usecase

import (
	"context"
	"fmt"
	"log"

	authrepo "fiwb-backend/internal/auth/repository"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/internal/sync/repository"
	"fiwb-backend/pkg/governor"
)

// semanticSearcher is the query side of the remote index.
type semanticSearcher interface {
	SemanticSearch(ctx context.Context, userEmail, courseID, query string, limit int) ([]string, []float64, error)
}

type syncUsecase struct {
	coordinator  *Coordinator
	userRepo     authrepo.UserRepository
	courseRepo   repository.CourseRepository
	materialRepo repository.MaterialRepository
	searcher     semanticSearcher
	governor     *governor.Governor
}

func NewSyncUsecase(
	coordinator *Coordinator,
	userRepo authrepo.UserRepository,
	courseRepo repository.CourseRepository,
	materialRepo repository.MaterialRepository,
	searcher semanticSearcher,
	gov *governor.Governor,
) SyncUsecase {
	return &syncUsecase{
		coordinator:  coordinator,
		userRepo:     userRepo,
		courseRepo:   courseRepo,
		materialRepo: materialRepo,
		searcher:     searcher,
		governor:     gov,
	}
}

func (u *syncUsecase) RunFullSync(ctx context.Context, userID string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}
	return u.coordinator.SyncUser(ctx, user)
}

func (u *syncUsecase) GetSyncStatus(userID string) (*SyncStatus, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	courses, err := u.courseRepo.CountUserCourses(userID)
	if err != nil {
		return nil, err
	}
	materials, err := u.materialRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	return &SyncStatus{
		LastSynced:    user.LastSynced,
		CourseCount:   courses,
		MaterialCount: materials,
		IndexedChars:  user.IndexedChars,
		ActiveSyncs:   u.governor.UserSlotsInUse(),
	}, nil
}

func (u *syncUsecase) ListCourses(userID string) ([]*domain.Course, error) {
	return u.courseRepo.ListUserCourses(userID)
}

func (u *syncUsecase) ListMaterials(userID, courseID string) ([]*domain.Material, error) {
	linked, err := u.courseRepo.IsLinked(userID, courseID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, fmt.Errorf("course %s is not linked to user", courseID)
	}
	return u.materialRepo.ListByCourse(courseID, userID)
}

// SemanticSearch queries the remote index and hydrates hits from the local
// store. Index hits with no local row are stale remainders and are skipped.
func (u *syncUsecase) SemanticSearch(ctx context.Context, userID, courseID, query string, limit int) ([]SearchResult, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	if limit <= 0 {
		limit = 10
	}

	ids, distances, err := u.searcher.SemanticSearch(ctx, user.Email, courseID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(ids))
	for i, id := range ids {
		material, err := u.materialRepo.FindByID(id)
		if err != nil {
			log.Printf("[Search] Material lookup failed for %s: %v", id, err)
			continue
		}
		if material == nil {
			continue
		}
		var distance float64
		if i < len(distances) {
			distance = distances[i]
		}
		results = append(results, SearchResult{Material: material, Distance: distance})
	}
	return results, nil
}
