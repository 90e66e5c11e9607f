package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"textile-studio/models"
	"textile-studio/utils"
)

const maxDriveDownload = 10 << 20

// DriveService handles Google Drive API operations
type DriveService struct {
	client *drive.Service
}

var _ DriveServiceInterface = (*DriveService)(nil)

// NewDriveService creates a new DriveService instance from a Service Account.
// credentialsJSON takes precedence over credentialsPath.
func NewDriveService(ctx context.Context, credentialsPath, credentialsJSON string) (*DriveService, error) {
	var opt option.ClientOption
	switch {
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	default:
		return nil, fmt.Errorf("drive credentials are not configured")
	}

	driveService, err := drive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
	}, nil
}

// imageMimeTypes are the design formats the gallery accepts
var imageMimeTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// ListDesignFiles lists all design files in a Google Drive folder and parses their names
func (ds *DriveService) ListDesignFiles(ctx context.Context, folderID string) ([]models.DriveDesignFile, error) {
	// Build query to list files in the folder
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var allFiles []*drive.File
	pageToken := ""
	for {
		call := ds.client.Files.List().
			Context(ctx).
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)")

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		allFiles = append(allFiles, r.Files...)
		pageToken = r.NextPageToken

		if pageToken == "" {
			break
		}
	}

	var files []models.DriveDesignFile
	for _, file := range allFiles {
		if !imageMimeTypes[strings.ToLower(file.MimeType)] {
			continue
		}

		parsed, err := utils.ParseDesignFileName(file.Name)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name, err)
			continue
		}

		files = append(files, models.DriveDesignFile{
			DriveFileID: file.Id,
			FileName:    file.Name,
			MimeType:    file.MimeType,
			ImageURL:    driveFileURL(file.Id),
			Name:        parsed.Name,
			Category:    parsed.Category,
		})
	}

	log.Printf("📦 Drive folder %s: %d design files out of %d entries", folderID, len(files), len(allFiles))
	return files, nil
}

// DownloadFile downloads the content of a Drive file
func (ds *DriveService) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := ds.client.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDriveDownload))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

// UploadFile stores content in folderID, shares it publicly and returns its url
func (ds *DriveService) UploadFile(ctx context.Context, folderID, name, mimeType string, content io.Reader) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}
	created, err := ds.client.Files.Create(file).
		Context(ctx).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id").
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", name, err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := ds.client.Permissions.Create(created.Id, perm).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to share file %s: %w", name, err)
	}

	log.Printf("✓ Uploaded %s to Drive (id=%s)", name, created.Id)
	return driveFileURL(created.Id), nil
}

func driveFileURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/uc?id=%s", id)
}
