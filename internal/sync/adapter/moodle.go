package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/gmail"
	"fiwb-backend/pkg/governor"
	"fiwb-backend/pkg/moodle"
)

// Moodle ids are numeric per site; the prefixes keep them from colliding
// with Classroom ids in the shared tables.
const (
	moodleCoursePrefix = "moodle_"
	moodleModulePrefix = "moodle_mod_"
)

// moodleClientFactory builds a per-user client; tests substitute one backed
// by httptest.
type moodleClientFactory func(moodleURL, token string) *moodle.Client

// MoodleAdapter ingests courses from a user-connected Moodle site.
type MoodleAdapter struct {
	newClient moodleClientFactory
	governor  *governor.Governor
}

func NewMoodleAdapter(gov *governor.Governor) *MoodleAdapter {
	return &MoodleAdapter{
		newClient: moodle.NewClient,
		governor:  gov,
	}
}

func (a *MoodleAdapter) Platform() string {
	return domain.PlatformMoodle
}

func (a *MoodleAdapter) connected(user *authdomain.User) bool {
	return user.MoodleURL != "" && user.MoodleToken != ""
}

func (a *MoodleAdapter) ListActive(ctx context.Context, user *authdomain.User) ([]domain.CourseInfo, error) {
	if !a.connected(user) {
		return nil, nil
	}

	client := a.newClient(user.MoodleURL, user.MoodleToken)
	var courses []moodle.Course
	err := a.governor.Do(ctx, func() error {
		var err error
		courses, err = client.GetCourses(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("moodle course listing failed: %w", err)
	}

	infos := make([]domain.CourseInfo, 0, len(courses))
	for _, c := range courses {
		infos = append(infos, domain.CourseInfo{
			ID:       moodleCoursePrefix + strconv.FormatInt(c.ID, 10),
			Name:     c.FullName,
			Platform: domain.PlatformMoodle,
		})
	}
	return infos, nil
}

// FetchInstructor is a no-op for Moodle; the enrollment web-service
// functions rarely expose teacher roles to student tokens.
func (a *MoodleAdapter) FetchInstructor(ctx context.Context, user *authdomain.User, courseID string) (string, error) {
	return "", nil
}

func (a *MoodleAdapter) FetchCourseContent(ctx context.Context, user *authdomain.User, course domain.CourseInfo, seen domain.IDSet) ([]domain.NewItem, error) {
	if !a.connected(user) {
		return nil, nil
	}

	nativeID, err := strconv.ParseInt(strings.TrimPrefix(course.ID, moodleCoursePrefix), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed moodle course id %q: %w", course.ID, err)
	}

	client := a.newClient(user.MoodleURL, user.MoodleToken)
	var sections []moodle.Section
	err = a.governor.Do(ctx, func() error {
		var err error
		sections, err = client.GetCourseContents(ctx, nativeID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("moodle contents fetch failed for %s: %w", course.ID, err)
	}

	userID := user.ID
	var items []domain.NewItem
	for _, section := range sections {
		for _, mod := range section.Modules {
			id := moodleModulePrefix + strconv.FormatInt(mod.ID, 10)
			if seen.Has(id) {
				continue
			}

			description := gmail.StripHTML(mod.Description)
			var attachments []domain.Attachment
			for _, c := range mod.Contents {
				attachments = append(attachments, domain.Attachment{
					Type:  "file",
					Title: c.Filename,
					URL:   client.AuthorizedFileURL(c.FileURL),
				})
			}

			content := description
			if section.Name != "" {
				content = fmt.Sprintf("Section: %s\n\n%s", section.Name, description)
			}

			items = append(items, domain.NewItem{
				Material: &domain.Material{
					ID:          id,
					UserID:      &userID,
					CourseID:    course.ID,
					Title:       mod.Name,
					Content:     ContentPreview(content),
					Type:        domain.TypeMaterial,
					CreatedAt:   "",
					SourceLink:  mod.URL,
					Attachments: EncodeAttachments(attachments),
				},
				Document: &domain.IndexDocument{
					ID:         id,
					UserEmail:  user.Email,
					Content:    BuildIndexContent(mod.Name, content, attachments),
					Title:      mod.Name,
					CourseID:   course.ID,
					CourseName: course.Name,
					Type:       domain.TypeMaterial,
					Source:     domain.PlatformMoodle,
					SourceLink: mod.URL,
				},
			})
		}
	}
	return items, nil
}
