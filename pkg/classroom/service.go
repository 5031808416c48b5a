package classroom

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fiwb-backend/pkg/googleauth"

	"google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Service wraps the Google Classroom API for one OAuth application.
// Per-user services are built per call; credentials never live on the struct.
type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (s *Service) build(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) (*classroom.Service, error) {
	client := googleauth.NewClient(ctx, s.clientID, s.clientSecret, accessToken, refreshToken, onTokenRefresh)
	srv, err := classroom.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Classroom service: %w", err)
	}
	return srv, nil
}

// isPermissionError reports whether the API refused the listing for this
// principal. A student without teacher rights is the common case.
func isPermissionError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 403 || gerr.Code == 404
	}
	return false
}

// ListCourses fetches all active courses the user is enrolled in or teaching,
// deduplicated by course id. Permission failures on either listing yield an
// empty slice for that listing; the call errors only when both listings fail
// outright.
func (s *Service) ListCourses(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*classroom.Course, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	var studentErr, teacherErr error
	var asStudent, asTeacher []*classroom.Course

	resp, err := srv.Courses.List().StudentId("me").CourseStates("ACTIVE").Context(ctx).Do()
	if err != nil {
		if !isPermissionError(err) {
			studentErr = err
		}
		log.Printf("[Classroom] Student courses fetch failed: %v", err)
	} else {
		asStudent = resp.Courses
	}

	resp, err = srv.Courses.List().TeacherId("me").CourseStates("ACTIVE").Context(ctx).Do()
	if err != nil {
		if !isPermissionError(err) {
			teacherErr = err
		}
		log.Printf("[Classroom] Teacher courses fetch failed: %v", err)
	} else {
		asTeacher = resp.Courses
	}

	if asStudent == nil && asTeacher == nil && (studentErr != nil || teacherErr != nil) {
		if studentErr != nil {
			return nil, studentErr
		}
		return nil, teacherErr
	}

	seen := make(map[string]bool)
	courses := make([]*classroom.Course, 0, len(asStudent)+len(asTeacher))
	for _, c := range append(asStudent, asTeacher...) {
		if c == nil || seen[c.Id] {
			continue
		}
		seen[c.Id] = true
		courses = append(courses, c)
	}
	return courses, nil
}

// ListCourseWork fetches assignments for a course. Permission errors are an
// empty result.
func (s *Service) ListCourseWork(ctx context.Context, accessToken, refreshToken, courseID string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*classroom.CourseWork, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	resp, err := srv.Courses.CourseWork.List(courseID).Context(ctx).Do()
	if err != nil {
		if isPermissionError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("coursework fetch failed for %s: %w", courseID, err)
	}
	return resp.CourseWork, nil
}

// ListMaterials fetches course materials. Permission errors are an empty result.
func (s *Service) ListMaterials(ctx context.Context, accessToken, refreshToken, courseID string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*classroom.CourseWorkMaterial, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	resp, err := srv.Courses.CourseWorkMaterials.List(courseID).Context(ctx).Do()
	if err != nil {
		if isPermissionError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("materials fetch failed for %s: %w", courseID, err)
	}
	return resp.CourseWorkMaterial, nil
}

// ListAnnouncements fetches announcements. Permission errors are an empty result.
func (s *Service) ListAnnouncements(ctx context.Context, accessToken, refreshToken, courseID string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*classroom.Announcement, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	resp, err := srv.Courses.Announcements.List(courseID).Context(ctx).Do()
	if err != nil {
		if isPermissionError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("announcements fetch failed for %s: %w", courseID, err)
	}
	return resp.Announcements, nil
}

// FetchInstructor returns the full name of the course's first listed teacher.
// Students frequently lack permission to list teachers; that is an empty
// result, not an error.
func (s *Service) FetchInstructor(ctx context.Context, accessToken, refreshToken, courseID string, onTokenRefresh googleauth.TokenUpdateFunc) (string, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}
	resp, err := srv.Courses.Teachers.List(courseID).Context(ctx).Do()
	if err != nil {
		if isPermissionError(err) {
			return "", nil
		}
		return "", fmt.Errorf("teachers fetch failed for %s: %w", courseID, err)
	}
	for _, t := range resp.Teachers {
		if t.Profile != nil && t.Profile.Name != nil && t.Profile.Name.FullName != "" {
			return t.Profile.Name.FullName, nil
		}
	}
	return "", nil
}
