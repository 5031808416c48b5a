package adapter

import (
	"context"
	"fmt"
	"log"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/classroom"
	"fiwb-backend/pkg/googleauth"
	"fiwb-backend/pkg/governor"

	"golang.org/x/oauth2"
)

// ClassroomAdapter ingests Google Classroom courses: assignments, course
// materials and announcements.
type ClassroomAdapter struct {
	svc      *classroom.Service
	governor *governor.Governor
	saver    domain.TokenSaver
}

func NewClassroomAdapter(svc *classroom.Service, gov *governor.Governor, saver domain.TokenSaver) *ClassroomAdapter {
	return &ClassroomAdapter{svc: svc, governor: gov, saver: saver}
}

func (a *ClassroomAdapter) Platform() string {
	return domain.PlatformClassroom
}

// tokenSink persists rotated access tokens back onto the user row.
func tokenSink(saver domain.TokenSaver, userID string) googleauth.TokenUpdateFunc {
	return func(tok *oauth2.Token) error {
		return saver.SaveAccessToken(userID, tok.AccessToken)
	}
}

func (a *ClassroomAdapter) ListActive(ctx context.Context, user *authdomain.User) ([]domain.CourseInfo, error) {
	if user.AccessToken == "" {
		return nil, nil
	}

	var infos []domain.CourseInfo
	err := a.governor.Do(ctx, func() error {
		courses, err := a.svc.ListCourses(ctx, user.AccessToken, user.RefreshToken, tokenSink(a.saver, user.ID))
		if err != nil {
			return err
		}
		for _, c := range courses {
			infos = append(infos, domain.CourseInfo{
				ID:       c.Id,
				Name:     c.Name,
				Platform: domain.PlatformClassroom,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("classroom course listing failed: %w", err)
	}
	return infos, nil
}

func (a *ClassroomAdapter) FetchInstructor(ctx context.Context, user *authdomain.User, courseID string) (string, error) {
	var name string
	err := a.governor.Do(ctx, func() error {
		var err error
		name, err = a.svc.FetchInstructor(ctx, user.AccessToken, user.RefreshToken, courseID, tokenSink(a.saver, user.ID))
		return err
	})
	return name, err
}

func (a *ClassroomAdapter) FetchCourseContent(ctx context.Context, user *authdomain.User, course domain.CourseInfo, seen domain.IDSet) ([]domain.NewItem, error) {
	sink := tokenSink(a.saver, user.ID)
	var items []domain.NewItem

	// The three content categories are fetched sequentially; a failure in
	// one category does not discard what the others already produced.
	err := a.governor.Do(ctx, func() error {
		work, err := a.svc.ListCourseWork(ctx, user.AccessToken, user.RefreshToken, course.ID, sink)
		if err != nil {
			return err
		}
		for _, w := range work {
			if w == nil || seen.Has(w.Id) {
				continue
			}
			attachments := NormalizeAttachments(w.Materials)
			description := w.Description
			items = append(items, a.newItem(user, course, &domain.Material{
				ID:          w.Id,
				CourseID:    course.ID,
				Title:       w.Title,
				Content:     ContentPreview(description),
				Type:        domain.TypeAssignment,
				DueDate:     FormatDueDate(w.DueDate),
				CreatedAt:   w.CreationTime,
				SourceLink:  w.AlternateLink,
				Attachments: EncodeAttachments(attachments),
			}, BuildIndexContent(w.Title, description, attachments)))
		}
		return nil
	})
	if err != nil {
		log.Printf("[Classroom] Coursework fetch failed for %s: %v", course.ID, err)
	}

	err = a.governor.Do(ctx, func() error {
		materials, err := a.svc.ListMaterials(ctx, user.AccessToken, user.RefreshToken, course.ID, sink)
		if err != nil {
			return err
		}
		for _, m := range materials {
			if m == nil || seen.Has(m.Id) {
				continue
			}
			attachments := NormalizeAttachments(m.Materials)
			items = append(items, a.newItem(user, course, &domain.Material{
				ID:          m.Id,
				CourseID:    course.ID,
				Title:       m.Title,
				Content:     ContentPreview(m.Description),
				Type:        domain.TypeMaterial,
				CreatedAt:   m.CreationTime,
				SourceLink:  m.AlternateLink,
				Attachments: EncodeAttachments(attachments),
			}, BuildIndexContent(m.Title, m.Description, attachments)))
		}
		return nil
	})
	if err != nil {
		log.Printf("[Classroom] Materials fetch failed for %s: %v", course.ID, err)
	}

	err = a.governor.Do(ctx, func() error {
		announcements, err := a.svc.ListAnnouncements(ctx, user.AccessToken, user.RefreshToken, course.ID, sink)
		if err != nil {
			return err
		}
		for _, an := range announcements {
			if an == nil || seen.Has(an.Id) {
				continue
			}
			attachments := NormalizeAttachments(an.Materials)
			title := announcementTitle(an.Text)
			items = append(items, a.newItem(user, course, &domain.Material{
				ID:          an.Id,
				CourseID:    course.ID,
				Title:       title,
				Content:     ContentPreview(an.Text),
				Type:        domain.TypeAnnouncement,
				CreatedAt:   an.CreationTime,
				SourceLink:  an.AlternateLink,
				Attachments: EncodeAttachments(attachments),
			}, BuildIndexContent(title, an.Text, attachments)))
		}
		return nil
	})
	if err != nil {
		log.Printf("[Classroom] Announcements fetch failed for %s: %v", course.ID, err)
	}

	return items, nil
}

func (a *ClassroomAdapter) newItem(user *authdomain.User, course domain.CourseInfo, mat *domain.Material, indexContent string) domain.NewItem {
	userID := user.ID
	mat.UserID = &userID
	return domain.NewItem{
		Material: mat,
		Document: &domain.IndexDocument{
			ID:         mat.ID,
			UserEmail:  user.Email,
			Content:    indexContent,
			Title:      mat.Title,
			CourseID:   course.ID,
			CourseName: course.Name,
			Type:       mat.Type,
			Source:     domain.PlatformClassroom,
			SourceLink: mat.SourceLink,
		},
	}
}

// announcementTitle derives a row title from the announcement body since
// announcements have no subject of their own.
func announcementTitle(text string) string {
	const max = 80
	title := text
	for i, r := range text {
		if r == '\n' {
			title = text[:i]
			break
		}
	}
	if len(title) > max {
		title = title[:max] + "..."
	}
	if title == "" {
		title = "Announcement"
	}
	return title
}
