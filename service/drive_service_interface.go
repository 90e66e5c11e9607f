package service

import (
	"context"
	"io"

	"textile-studio/capture"
	"textile-studio/models"
)

// DriveServiceInterface defines the contract for Google Drive operations
type DriveServiceInterface interface {
	ListDesignFiles(ctx context.Context, folderID string) ([]models.DriveDesignFile, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	UploadFile(ctx context.Context, folderID, name, mimeType string, content io.Reader) (string, error)
}

// DriveService doubles as the storage backend of capture.DriveUploader
var _ capture.DriveFiles = (DriveServiceInterface)(nil)
