package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"textile-studio/db"
)

// GenerationRepository stores AI image generations
type GenerationRepository struct{}

// NewGenerationRepository creates a new GenerationRepository
func NewGenerationRepository() *GenerationRepository {
	return &GenerationRepository{}
}

var _ GenerationRepositoryInterface = (*GenerationRepository)(nil)

// CountGenerationsSince counts the non-recycled generations of a user
func (r *GenerationRepository) CountGenerationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ai_generations WHERE user_id = $1 AND created_at >= $2 AND recycled = false`
	if err := db.DB.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// FindRecycled returns an earlier image for the same prompt, if any
func (r *GenerationRepository) FindRecycled(ctx context.Context, prompt string) (string, bool, error) {
	var url string
	query := `
		SELECT image_url FROM ai_generations
		WHERE lower(prompt) = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := db.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(prompt))).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up generation: %w", err)
	}
	return url, true, nil
}

// RecordGeneration stores a generation result
func (r *GenerationRepository) RecordGeneration(ctx context.Context, userID, prompt, imageURL string, recycled bool) error {
	query := `INSERT INTO ai_generations (user_id, prompt, image_url, recycled) VALUES ($1, $2, $3, $4)`
	if _, err := db.DB.ExecContext(ctx, query, userID, strings.TrimSpace(prompt), imageURL, recycled); err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}
