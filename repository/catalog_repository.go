package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"textile-studio/db"
	"textile-studio/models"
)

// CatalogRepository handles database operations for products, mockups and designs
type CatalogRepository struct{}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

// Ensure CatalogRepository implements CatalogRepositoryInterface
var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

const designColumns = `id, name, category, url, is_svg, is_active, COALESCE(drive_file_id, '')`

// FetchAllDesigns retrieves the active gallery designs
func (r *CatalogRepository) FetchAllDesigns(ctx context.Context) ([]models.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE is_active = true ORDER BY category ASC, name ASC`

	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		log.Printf("❌ Error querying designs: %v", err)
		return nil, fmt.Errorf("failed to query designs: %w", err)
	}
	defer rows.Close()

	designs := []models.Design{}
	for rows.Next() {
		var d models.Design
		if err := scanDesign(rows, &d); err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate designs: %w", err)
	}

	log.Printf("🔍 FetchAllDesigns: %d active designs", len(designs))
	return designs, nil
}

// FetchDesignByID retrieves a design, active or not
func (r *CatalogRepository) FetchDesignByID(ctx context.Context, id string) (*models.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE id = $1`

	var d models.Design
	if err := scanDesign(db.DB.QueryRowContext(ctx, query, id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("design %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch design: %w", err)
	}
	return &d, nil
}

// FetchMockupByID retrieves a mockup with its color variants
func (r *CatalogRepository) FetchMockupByID(ctx context.Context, id string) (*models.Mockup, error) {
	query := `SELECT id, name, front_url, back_url, variants FROM mockups WHERE id = $1`

	var m models.Mockup
	var variants []byte
	err := db.DB.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.FrontURL, &m.BackURL, &variants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("mockup %s: %w", id, ErrNotFound)
		}
		log.Printf("❌ Error fetching mockup %s: %v", id, err)
		return nil, fmt.Errorf("failed to fetch mockup: %w", err)
	}

	m.Variants = []models.MockupVariant{}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &m.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode mockup variants: %w", err)
		}
	}
	return &m, nil
}

// FetchProductByID retrieves a product
func (r *CatalogRepository) FetchProductByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, category, price, COALESCE(mockup_id, ''), is_active
		FROM products
		WHERE id = $1
	`

	var p models.Product
	err := db.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.MockupID, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		log.Printf("❌ Error fetching product %s: %v", id, err)
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDesign(row rowScanner, d *models.Design) error {
	return row.Scan(&d.ID, &d.Name, &d.Category, &d.URL, &d.IsSVG, &d.IsActive, &d.DriveFileID)
}
