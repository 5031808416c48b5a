package adapter

import (
	"context"
	"encoding/json"
	"log"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/drive"
	"fiwb-backend/pkg/googleauth"
	"fiwb-backend/pkg/governor"

	driveapi "google.golang.org/api/drive/v3"
)

// driveSource is the slice of the Drive service the adapter needs; tests
// substitute a fake.
type driveSource interface {
	ListFolder(ctx context.Context, accessToken, refreshToken, folderID string, onTokenRefresh googleauth.TokenUpdateFunc) (folders, files []*driveapi.File, err error)
	ExportText(ctx context.Context, accessToken, refreshToken, fileID string, onTokenRefresh googleauth.TokenUpdateFunc) (string, error)
	Download(ctx context.Context, accessToken, refreshToken, fileID string, onTokenRefresh googleauth.TokenUpdateFunc) ([]byte, error)
}

// DriveAdapter ingests the user's watched Drive folders into the synthetic
// Drive bucket. Traversal is breadth-first with a visited set so shortcut
// loops terminate.
type DriveAdapter struct {
	svc      driveSource
	governor *governor.Governor
	saver    domain.TokenSaver

	batchSize  int
	batchPause time.Duration
}

func NewDriveAdapter(svc *drive.Service, gov *governor.Governor, saver domain.TokenSaver) *DriveAdapter {
	return &DriveAdapter{
		svc:        svc,
		governor:   gov,
		saver:      saver,
		batchSize:  5,
		batchPause: 200 * time.Millisecond,
	}
}

func (a *DriveAdapter) Platform() string {
	return domain.PlatformDrive
}

// WatchedFolders decodes the folder id list stored on the user row.
func WatchedFolders(user *authdomain.User) []string {
	if user.WatchedDriveFolders == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(user.WatchedDriveFolders), &ids); err != nil {
		log.Printf("[Drive] Invalid watched folder list for user %s: %v", user.ID, err)
		return nil
	}
	return ids
}

// ListActive returns the synthetic Drive bucket when the user has tokens
// and at least one watched folder, otherwise nothing.
func (a *DriveAdapter) ListActive(ctx context.Context, user *authdomain.User) ([]domain.CourseInfo, error) {
	if user.AccessToken == "" || len(WatchedFolders(user)) == 0 {
		return nil, nil
	}
	return []domain.CourseInfo{{
		ID:       domain.DriveCourseID,
		Name:     "Personal Google Drive",
		Platform: domain.PlatformDrive,
	}}, nil
}

func (a *DriveAdapter) FetchInstructor(ctx context.Context, user *authdomain.User, courseID string) (string, error) {
	return "Self", nil
}

func (a *DriveAdapter) FetchCourseContent(ctx context.Context, user *authdomain.User, course domain.CourseInfo, seen domain.IDSet) ([]domain.NewItem, error) {
	sink := tokenSink(a.saver, user.ID)

	queue := WatchedFolders(user)
	visited := make(map[string]bool)
	var items []domain.NewItem
	processed := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		folderID := queue[0]
		queue = queue[1:]
		if visited[folderID] {
			continue
		}
		visited[folderID] = true

		var subfolders, files []*driveapi.File
		err := a.governor.Do(ctx, func() error {
			var err error
			subfolders, files, err = a.svc.ListFolder(ctx, user.AccessToken, user.RefreshToken, folderID, sink)
			return err
		})
		if err != nil {
			log.Printf("[Drive] Folder %s listing failed: %v", folderID, err)
			continue
		}

		for _, f := range subfolders {
			if !visited[f.Id] {
				queue = append(queue, f.Id)
			}
		}

		for _, f := range files {
			if seen.Has(f.Id) {
				continue
			}
			items = append(items, a.fileItem(ctx, user, course, f, sink))
			processed++
			if processed%a.batchSize == 0 {
				time.Sleep(a.batchPause)
			}
		}
	}

	return items, nil
}

// fileItem extracts text for one file. Extraction failures never drop the
// file; they degrade to a placeholder that still carries name and link.
func (a *DriveAdapter) fileItem(ctx context.Context, user *authdomain.User, course domain.CourseInfo, f *driveapi.File, sink googleauth.TokenUpdateFunc) domain.NewItem {
	var content string
	switch f.MimeType {
	case drive.MimeGoogleDoc:
		err := a.governor.Do(ctx, func() error {
			var err error
			content, err = a.svc.ExportText(ctx, user.AccessToken, user.RefreshToken, f.Id, sink)
			return err
		})
		if err != nil {
			log.Printf("[Drive] Export of %s failed: %v", f.Id, err)
			content = ""
		}
	case drive.MimePlainText:
		var data []byte
		err := a.governor.Do(ctx, func() error {
			var err error
			data, err = a.svc.Download(ctx, user.AccessToken, user.RefreshToken, f.Id, sink)
			return err
		})
		if err != nil {
			log.Printf("[Drive] Download of %s failed: %v", f.Id, err)
		} else {
			content = string(data)
		}
	case drive.MimePDF:
		var data []byte
		err := a.governor.Do(ctx, func() error {
			var err error
			data, err = a.svc.Download(ctx, user.AccessToken, user.RefreshToken, f.Id, sink)
			return err
		})
		if err != nil {
			log.Printf("[Drive] Download of %s failed: %v", f.Id, err)
		} else if content, err = drive.ExtractPDFText(data); err != nil {
			log.Printf("[Drive] Text extraction from %s failed: %v", f.Id, err)
			content = ""
		}
	default:
		// Scanned and other binary formats are indexed by name and link only.
	}

	// A file whose extraction fails or comes back empty still gets content.
	if content == "" {
		content = BinaryPlaceholder(f.Name, f.MimeType, f.WebViewLink)
	}

	userID := user.ID
	return domain.NewItem{
		Material: &domain.Material{
			ID:          f.Id,
			UserID:      &userID,
			CourseID:    domain.DriveCourseID,
			Title:       f.Name,
			Content:     ContentPreview(content),
			Type:        domain.TypeDriveFile,
			CreatedAt:   f.CreatedTime,
			SourceLink:  f.WebViewLink,
			Attachments: "[]",
		},
		Document: &domain.IndexDocument{
			ID:         f.Id,
			UserEmail:  user.Email,
			Content:    BuildIndexContent(f.Name, content, nil),
			Title:      f.Name,
			CourseID:   domain.DriveCourseID,
			CourseName: course.Name,
			Professor:  "Self",
			Type:       domain.TypeDriveFile,
			Source:     domain.PlatformDrive,
			SourceLink: f.WebViewLink,
		},
	}
}
