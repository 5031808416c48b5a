package drive

import (
	"context"
	"fmt"
	"io"

	"fiwb-backend/pkg/googleauth"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Mime types the sync cares about.
const (
	MimeFolder    = "application/vnd.google-apps.folder"
	MimeGoogleDoc = "application/vnd.google-apps.document"
	MimePlainText = "text/plain"
	MimePDF       = "application/pdf"
)

const fileFields = "files(id, name, mimeType, webViewLink, createdTime, modifiedTime)"

// Service wraps the Google Drive API for one OAuth application.
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

func (s *Service) build(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) (*drive.Service, error) {
	client := googleauth.NewClient(ctx, s.clientID, s.clientSecret, accessToken, refreshToken, onTokenRefresh)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	return srv, nil
}

// ListRootFolders lists folders at the root of the user's Drive, for the
// watched-folder picker.
func (s *Service) ListRootFolders(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*drive.File, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("mimeType = '%s' and 'root' in parents and trashed = false", MimeFolder)
	resp, err := srv.Files.List().Q(q).Fields("files(id, name, webViewLink)").PageSize(50).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list root folders: %w", err)
	}
	return resp.Files, nil
}

// ListFolder returns the immediate children of a folder: subfolders plus the
// syncable file types. One page of up to 100 entries is enough for the
// folder sizes this targets.
func (s *Service) ListFolder(ctx context.Context, accessToken, refreshToken, folderID string, onTokenRefresh googleauth.TokenUpdateFunc) (folders, files []*drive.File, err error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, nil, err
	}

	q := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	resp, err := srv.Files.List().Q(q).Fields(fileFields).PageSize(100).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to list folder %s: %w", folderID, err)
	}

	for _, f := range resp.Files {
		switch f.MimeType {
		case MimeFolder:
			folders = append(folders, f)
		case MimeGoogleDoc, MimePlainText, MimePDF:
			files = append(files, f)
		}
	}
	return folders, files, nil
}

// ExportText exports a Google-native document as plain text.
func (s *Service) ExportText(ctx context.Context, accessToken, refreshToken, fileID string, onTokenRefresh googleauth.TokenUpdateFunc) (string, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return "", err
	}
	resp, err := srv.Files.Export(fileID, MimePlainText).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("unable to export file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("unable to read export of %s: %w", fileID, err)
	}
	return string(data), nil
}

// Download fetches the raw bytes of a non-native file.
func (s *Service) Download(ctx context.Context, accessToken, refreshToken, fileID string, onTokenRefresh googleauth.TokenUpdateFunc) ([]byte, error) {
	srv, err := s.build(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	resp, err := srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read file %s: %w", fileID, err)
	}
	return data, nil
}
