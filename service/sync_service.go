package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"textile-studio/composition"
	"textile-studio/models"
	"textile-studio/repository"
	"textile-studio/svgasset"
)

// SyncService handles synchronization between Google Drive and PostgreSQL
// Implements SyncServiceInterface
type SyncService struct {
	driveService DriveServiceInterface
	repository   repository.CatalogRepositoryInterface
	resolver     composition.SVGResolver
}

// NewSyncService creates a new SyncService. driveService may be nil when
// Drive is not configured; only SVG cleanup is then available.
func NewSyncService(driveService DriveServiceInterface, repo repository.CatalogRepositoryInterface, resolver composition.SVGResolver) *SyncService {
	return &SyncService{
		driveService: driveService,
		repository:   repo,
		resolver:     resolver,
	}
}

// Ensure SyncService implements SyncServiceInterface
var _ SyncServiceInterface = (*SyncService)(nil)

// SyncDesigns synchronizes design files from Google Drive to PostgreSQL
func (s *SyncService) SyncDesigns(ctx context.Context, folderID string) (*models.DesignSyncReport, error) {
	if s.driveService == nil {
		return nil, fmt.Errorf("drive is not configured")
	}
	if folderID == "" {
		return nil, invalid("folderId", "is required")
	}
	log.Printf("🔄 Starting design synchronization for folder: %s", folderID)

	files, err := s.driveService.ListDesignFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list design files from Drive: %w", err)
	}

	report := &models.DesignSyncReport{Total: len(files), Errors: []string{}}
	log.Printf("📦 Processing %d design files from Google Drive", len(files))

	for _, file := range files {
		exists, err := s.repository.ExistsByDriveFileID(ctx, file.DriveFileID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", file.FileName, err))
			continue
		}
		if exists {
			log.Printf("⏭️  Skipping drive_file_id: %s (already exists in database)", file.DriveFileID)
			report.Skipped++
			continue
		}

		design, err := s.designFromFile(ctx, file)
		if err != nil {
			log.Printf("❌ Error preparing %s: %v", file.FileName, err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", file.FileName, err))
			continue
		}

		if err := s.repository.UpsertDesign(ctx, design); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", file.FileName, err))
			continue
		}

		log.Printf("✅ Successfully processed (drive_file_id: %s)", file.DriveFileID)
		report.Inserted++
	}

	log.Printf("🎉 Synchronization completed: %d inserted, %d skipped, %d errors, %d total", report.Inserted, report.Skipped, len(report.Errors), report.Total)
	return report, nil
}

// designFromFile builds the gallery entry of a Drive file. SVG files are
// downloaded and stored as cleaned data URIs so the studio can inline them.
func (s *SyncService) designFromFile(ctx context.Context, file models.DriveDesignFile) (*models.Design, error) {
	design := &models.Design{
		ID:          "drive-" + file.DriveFileID,
		Name:        file.Name,
		Category:    file.Category,
		URL:         file.ImageURL,
		IsActive:    true,
		DriveFileID: file.DriveFileID,
	}
	if file.MimeType != "image/svg+xml" {
		return design, nil
	}

	data, err := s.driveService.DownloadFile(ctx, file.DriveFileID)
	if err != nil {
		return nil, err
	}
	cleaned, err := cleanSVG(string(data))
	if err != nil {
		return nil, err
	}
	design.URL = svgasset.EncodeSVGDataURI(cleaned)
	design.IsSVG = true
	return design, nil
}

// CleanupSVGDesigns rewrites SVG designs with sanitized, normalized markup
func (s *SyncService) CleanupSVGDesigns(ctx context.Context) (*models.SVGCleanupReport, error) {
	designs, err := s.repository.FetchAllDesigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch designs: %w", err)
	}

	report := &models.SVGCleanupReport{Errors: []string{}}
	for _, d := range designs {
		if !d.IsSVG && !svgasset.IsSVGURL(d.URL) {
			continue
		}
		report.Scanned++

		res, err := s.resolver.Resolve(ctx, d.URL)
		if err == nil && res.Fallback {
			// unreachable host is not a reason to drop a design
			report.Errors = append(report.Errors, fmt.Sprintf("%s: svg host unreachable", d.ID))
			report.Unchanged++
			continue
		}
		var cleaned string
		if err == nil {
			cleaned, err = cleanSVG(res.Markup)
		}
		if err != nil {
			if unusableSVG(err) {
				if derr := s.repository.DeactivateDesign(ctx, d.ID); derr != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", d.ID, derr))
					continue
				}
				log.Printf("🧹 SVG cleanup: deactivated %s: %v", d.ID, err)
				report.Deactivated++
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", d.ID, err))
			continue
		}

		uri := svgasset.EncodeSVGDataURI(cleaned)
		if uri == d.URL && d.IsSVG {
			report.Unchanged++
			continue
		}
		if err := s.repository.UpdateDesignURL(ctx, d.ID, uri, true); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", d.ID, err))
			continue
		}
		report.Cleaned++
	}

	log.Printf("🧹 SVG cleanup: scanned=%d cleaned=%d deactivated=%d unchanged=%d errors=%d",
		report.Scanned, report.Cleaned, report.Deactivated, report.Unchanged, len(report.Errors))
	return report, nil
}

// unusableSVG reports errors no retry can fix
func unusableSVG(err error) bool {
	return errors.Is(err, svgasset.ErrInvalidSVG) ||
		errors.Is(err, svgasset.ErrNotSVG) ||
		errors.Is(err, svgasset.ErrBlobURL) ||
		errors.Is(err, svgasset.ErrMalformedDataURI)
}

// cleanSVG normalizes, sanitizes and minifies original markup
func cleanSVG(markup string) (string, error) {
	prepared, err := svgasset.Prepare(markup, "")
	if err != nil {
		return "", err
	}
	return svgasset.Compact(prepared), nil
}
