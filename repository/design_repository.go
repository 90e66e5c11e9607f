package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"textile-studio/db"
	"textile-studio/models"
)

// ExistsByDriveFileID checks if a design exists by drive_file_id
func (r *CatalogRepository) ExistsByDriveFileID(ctx context.Context, driveFileID string) (bool, error) {
	log.Printf("🔍 Checking if drive_file_id exists in database: %s", driveFileID)

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM designs WHERE drive_file_id = $1)`
	err := db.DB.QueryRowContext(ctx, query, driveFileID).Scan(&exists)
	if err != nil {
		log.Printf("❌ Error checking existence for drive_file_id %s: %v", driveFileID, err)
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// UpsertDesign inserts a design or refreshes the one with the same id
func (r *CatalogRepository) UpsertDesign(ctx context.Context, design *models.Design) error {
	log.Printf("💾 UpsertDesign called for id: %s", design.ID)

	query := `
		INSERT INTO designs (
			id, name, category, url, is_svg, is_active, drive_file_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			url = EXCLUDED.url,
			is_svg = EXCLUDED.is_svg,
			is_active = EXCLUDED.is_active,
			drive_file_id = COALESCE(EXCLUDED.drive_file_id, designs.drive_file_id),
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.DB.ExecContext(ctx, query,
		design.ID,
		design.Name,
		design.Category,
		design.URL,
		design.IsSVG,
		design.IsActive,
		design.DriveFileID,
		time.Now(),
	)
	if err != nil {
		log.Printf("❌ Database UPSERT error for design %s: %v", design.ID, err)
		return fmt.Errorf("failed to upsert design: %w", err)
	}

	log.Printf("💾 Database: design %s stored", design.ID)
	return nil
}

// DeactivateDesign hides a design from the gallery
func (r *CatalogRepository) DeactivateDesign(ctx context.Context, id string) error {
	query := `UPDATE designs SET is_active = false, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "deactivate", id, query, id)
}

// UpdateDesignURL replaces a design's url, e.g. with a cleaned SVG data URI
func (r *CatalogRepository) UpdateDesignURL(ctx context.Context, id, url string, isSVG bool) error {
	query := `UPDATE designs SET url = $2, is_svg = $3, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update url of", id, query, id, url, isSVG)
}

func (r *CatalogRepository) execOne(ctx context.Context, action, id, query string, args ...any) error {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("❌ Failed to %s design %s: %v", action, id, err)
		return fmt.Errorf("failed to %s design: %w", action, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("⚠️  Warning: Could not get rows affected: %v", err)
		return nil
	}
	if rowsAffected == 0 {
		return fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	return nil
}
