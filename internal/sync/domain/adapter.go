package domain

import (
	"context"

	authdomain "fiwb-backend/internal/auth/domain"
)

// Adapter translates one remote system's item model into the canonical
// Course/Material shape. Raw remote shapes never leak past an adapter.
//
// Error contract: permission failures on individual listings are ordinary
// empty results, not errors. An error from ListActive aborts Phase 1 for
// that platform; an error from FetchCourseContent skips that course only.
type Adapter interface {
	// Platform returns the Course.Platform tag this adapter owns.
	Platform() string

	// ListActive returns the current active scope for the user: enrolled
	// courses, or the synthetic bucket when the source is configured.
	ListActive(ctx context.Context, user *authdomain.User) ([]CourseInfo, error)

	// FetchInstructor resolves the course's instructor name, best-effort.
	FetchInstructor(ctx context.Context, user *authdomain.User, courseID string) (string, error)

	// FetchCourseContent fetches and normalizes all content categories for
	// one course, skipping ids already present in seen. Returned materials
	// are new rows plus their index payloads, in discovery order.
	FetchCourseContent(ctx context.Context, user *authdomain.User, course CourseInfo, seen IDSet) ([]NewItem, error)
}

// NewItem pairs a Material row with the richer document mirrored to the index.
type NewItem struct {
	Material *Material
	Document *IndexDocument
}

// TokenSaver persists refreshed OAuth access tokens; adapters call it from
// the oauth2 token source when Google rotates a token mid-sync.
type TokenSaver interface {
	SaveAccessToken(userID, accessToken string) error
}
