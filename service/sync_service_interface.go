package service

import (
	"context"

	"textile-studio/models"
)

// SyncServiceInterface defines the contract for design catalog maintenance
type SyncServiceInterface interface {
	// SyncDesigns inserts the Drive folder's new design files. Files whose
	// drive_file_id is already stored are skipped.
	SyncDesigns(ctx context.Context, folderID string) (*models.DesignSyncReport, error)
	// CleanupSVGDesigns re-resolves every SVG design, stores its cleaned
	// markup and deactivates designs whose markup is invalid
	CleanupSVGDesigns(ctx context.Context) (*models.SVGCleanupReport, error)
}
